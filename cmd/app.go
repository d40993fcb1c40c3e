package cmd

import (
	"fmt"

	"asset-pipeline/core/config"
	"asset-pipeline/core/database"
	"asset-pipeline/core/ledger"
	"asset-pipeline/core/logger"
	"asset-pipeline/core/storage"
	"asset-pipeline/feature/assetsync"
	"asset-pipeline/feature/catalog"
	"asset-pipeline/feature/export"
	"asset-pipeline/feature/pipeline"
	"asset-pipeline/feature/upload"

	"go.uber.org/zap"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	pipeline *pipeline.Service
}

// bootstrap loads configuration and wires the pipeline.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	cat := catalog.New(db, logg.Named("catalog"))
	if cfg.Database.AutoMigrate {
		err = cat.Migrate()
	} else {
		err = cat.VerifySchema()
	}
	if err != nil {
		cat.Close()
		return nil, err
	}

	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		cat.Close()
		return nil, err
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		cat.Close()
		led.Close()
		return nil, err
	}

	project := cfg.Export.ProjectName
	uploads := upload.NewService(client, cfg.Storage, cfg.Upload, led, logg.Named("upload"))
	syncer := assetsync.NewSyncer(
		assetsync.NewCatalogAdapter(cat),
		assetsync.NewLedgerHistory(led, project),
		uploads, project, cfg.Sync, logg.Named("sync"),
	)

	svc := pipeline.NewService(pipeline.Deps{
		Catalog:    cat,
		Exporter:   export.NewOrchestrator(export.NewExecConverter(cfg.Export), logg.Named("export")),
		Uploads:    uploads,
		Syncer:     syncer,
		Correlator: assetsync.NewCorrelator(cat, led, logg.Named("correlate")),
		Defaults:   cfg.Export.Options(),
		Logger:     logg,
	})

	return &app{cfg: cfg, logger: logg, catalog: cat, ledger: led, pipeline: svc}, nil
}

// Close releases the catalog writer and the ledger file.
func (a *app) Close() {
	a.catalog.Close()
	if err := a.ledger.Close(); err != nil {
		a.logger.Warn("Ledger close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
