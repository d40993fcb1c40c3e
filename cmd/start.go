package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"asset-pipeline/core/loader"
	"asset-pipeline/core/logger"
	"asset-pipeline/core/middleware/auth"
	"asset-pipeline/core/middleware/rayid"
	"asset-pipeline/feature/assetsync"
	"asset-pipeline/feature/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "asset-pipeline/docs/swagger"
)

// @title Asset Pipeline API
// @version 1.0
// @description Export, upload and reconcile game assets.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pipeline server",
	Long:  `Starts the HTTP server and the periodic reconciliation scheduler.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()
		logg := a.logger
		zap.ReplaceGlobals(logg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           a.cfg.Server.ReadTimeout(),
		})

		mgr := loader.NewManager()
		mgr.Register(pipeline.NewFeature(a.pipeline, logg.Named("http")))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		scheduler := assetsync.NewScheduler(a.pipeline, a.cfg.Sync.Interval, logg.Named("scheduler"))
		done := make(chan struct{})
		go func() {
			defer close(done)
			scheduler.Run(ctx)
		}()

		go func() {
			logg.Info("Starting server", zap.String("addr", a.cfg.Server.Addr()))
			if err := app.Listen(a.cfg.Server.Addr()); err != nil {
				logg.Error("Server failed", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		<-done
		return nil
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
