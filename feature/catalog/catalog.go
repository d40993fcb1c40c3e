package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/asset"
	"asset-pipeline/core/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("catalog: closed")

// command is one mutation queued for the writer.
type command struct {
	ctx  context.Context
	fn   func(tx *gorm.DB) error
	done chan error
}

// Catalog is the persistent asset catalog.
type Catalog struct {
	db     *gorm.DB
	logger *zap.Logger

	cmds chan command
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a catalog over db and starts its writer.
func New(db *gorm.DB, logger *zap.Logger) *Catalog {
	c := &Catalog{
		db:     db,
		logger: logger,
		cmds:   make(chan command),
		stop:   make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Catalog) run() {
	defer c.wg.Done()
	for {
		select {
		case cmd := <-c.cmds:
			cmd.done <- c.exec(cmd)
		case <-c.stop:
			return
		}
	}
}

func (c *Catalog) exec(cmd command) error {
	if err := cmd.ctx.Err(); err != nil {
		return err
	}
	return c.db.WithContext(cmd.ctx).Transaction(cmd.fn)
}

// Do runs fn inside a transaction on the single writer.
// The call blocks until the transaction committed or rolled back.
func (c *Catalog) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	cmd := command{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stop:
		return ErrClosed
	}
	return <-cmd.done
}

// Close stops the writer. Pending Do calls return ErrClosed.
func (c *Catalog) Close() {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// Migrate creates or updates the catalog tables.
func (c *Catalog) Migrate() error {
	if err := c.db.AutoMigrate(&Folder{}, &Model{}, &Material{}, &Texture{}); err != nil {
		return apperror.Wrap(apperror.KindPersistence, "migrate catalog", err)
	}
	return nil
}

// requiredColumns are written by the pipeline on every resource table.
var requiredColumns = []string{
	"id", "name", "parent_folder_id", "export_to_server", "source_path",
	"upload_status", "uploaded_hash", "remote_url", "last_uploaded_at",
}

// VerifySchema checks an externally managed catalog for the columns the pipeline uses.
func (c *Catalog) VerifySchema() error {
	for _, table := range []string{"models", "materials", "textures"} {
		missing, err := database.MissingColumns(c.db, table, requiredColumns)
		if err != nil {
			return apperror.Wrap(apperror.KindPersistence, "inspect "+table, err)
		}
		if len(missing) > 0 {
			return apperror.Configuration("catalog table %s is missing columns: %v", table, missing)
		}
	}
	return nil
}

// Snapshot loads the whole catalog.
func (c *Catalog) Snapshot(ctx context.Context) (*Snapshot, error) {
	db := c.db.WithContext(ctx)
	snap := &Snapshot{Folders: make(map[int64]string)}

	if err := db.Order("id").Find(&snap.Models).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "load models", err)
	}
	if err := db.Order("id").Find(&snap.Materials).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "load materials", err)
	}
	if err := db.Order("id").Find(&snap.Textures).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "load textures", err)
	}

	var folders []Folder
	if err := db.Find(&folders).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "load folders", err)
	}
	for _, f := range folders {
		snap.Folders[f.ID] = f.Path
	}
	return snap, nil
}

// Save creates or replaces catalog rows. Accepts *Model, *Material, *Texture, *Folder
// or slices of them.
func (c *Catalog) Save(ctx context.Context, rows ...any) error {
	return c.Do(ctx, func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := tx.Save(row).Error; err != nil {
				return apperror.Wrap(apperror.KindPersistence, "save catalog row", err)
			}
		}
		return nil
	})
}

// MarkUploaded promotes a resource to uploaded. Hash and URL must both be set.
func (c *Catalog) MarkUploaded(ctx context.Context, ref asset.Ref, hash, remoteURL string, at time.Time) error {
	if hash == "" || remoteURL == "" {
		return fmt.Errorf("mark %s uploaded: hash and remote url are required", ref)
	}
	table, ok := tableFor(ref.Kind)
	if !ok {
		return fmt.Errorf("mark %s uploaded: unknown kind", ref)
	}

	return c.Do(ctx, func(tx *gorm.DB) error {
		res := tx.Model(table).Where("id = ?", ref.ID).Updates(map[string]any{
			"upload_status":    asset.StatusUploaded,
			"uploaded_hash":    hash,
			"remote_url":       remoteURL,
			"last_uploaded_at": at.UTC(),
		})
		if res.Error != nil {
			return apperror.Wrap(apperror.KindPersistence, "mark "+ref.String()+" uploaded", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.New(apperror.KindNotFound, "mark "+ref.String()+" uploaded")
		}
		return nil
	})
}

// MarkError flags a resource whose upload failed. Existing remote state is kept.
func (c *Catalog) MarkError(ctx context.Context, ref asset.Ref) error {
	table, ok := tableFor(ref.Kind)
	if !ok {
		return fmt.Errorf("mark %s error: unknown kind", ref)
	}
	return c.Do(ctx, func(tx *gorm.DB) error {
		err := tx.Model(table).Where("id = ? AND (upload_status IS NULL OR upload_status <> ?)", ref.ID, asset.StatusUploaded).
			Update("upload_status", asset.StatusError).Error
		return apperror.Wrap(apperror.KindPersistence, "mark "+ref.String()+" error", err)
	})
}

// Reset clears the upload state of the given resources in one transaction.
func (c *Catalog) Reset(ctx context.Context, refs ...asset.Ref) error {
	if len(refs) == 0 {
		return nil
	}
	byKind := groupByKind(refs)
	return c.Do(ctx, func(tx *gorm.DB) error {
		for kind, ids := range byKind {
			table, ok := tableFor(kind)
			if !ok {
				return fmt.Errorf("reset: unknown kind %q", kind)
			}
			if err := tx.Model(table).Where("id IN ?", ids).Updates(resetColumns()).Error; err != nil {
				return apperror.Wrap(apperror.KindPersistence, "reset "+string(kind), err)
			}
		}
		return nil
	})
}

// SetExport sets ExportToServer on the given resources.
func (c *Catalog) SetExport(ctx context.Context, refs []asset.Ref, export bool) error {
	if len(refs) == 0 {
		return nil
	}
	byKind := groupByKind(refs)
	return c.Do(ctx, func(tx *gorm.DB) error {
		for kind, ids := range byKind {
			table, ok := tableFor(kind)
			if !ok {
				return fmt.Errorf("set export: unknown kind %q", kind)
			}
			if err := tx.Model(table).Where("id IN ?", ids).Update("export_to_server", export).Error; err != nil {
				return apperror.Wrap(apperror.KindPersistence, "set export "+string(kind), err)
			}
		}
		return nil
	})
}

// ClearMarks resets ExportToServer on every resource and returns how many changed.
func (c *Catalog) ClearMarks(ctx context.Context) (int64, error) {
	var cleared int64
	err := c.Do(ctx, func(tx *gorm.DB) error {
		cleared = 0
		for _, kind := range asset.Kinds {
			table, _ := tableFor(kind)
			res := tx.Model(table).Where("export_to_server = ?", true).Update("export_to_server", false)
			if res.Error != nil {
				return apperror.Wrap(apperror.KindPersistence, "clear marks "+string(kind), res.Error)
			}
			cleared += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.logger.Info("Cleared export marks", zap.Int64("count", cleared))
	return cleared, nil
}

func groupByKind(refs []asset.Ref) map[asset.Kind][]int64 {
	out := make(map[asset.Kind][]int64)
	for _, r := range refs {
		out[r.Kind] = append(out[r.Kind], r.ID)
	}
	return out
}
