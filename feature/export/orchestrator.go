package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/asset"
	"asset-pipeline/core/mapping"
	"asset-pipeline/core/utils"
	"asset-pipeline/feature/catalog"
	"asset-pipeline/feature/relations"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Progress is reported after every processed item.
type Progress struct {
	Percent float64 `json:"percent"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Item    string  `json:"item"`
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// Failure describes one failed item.
type Failure struct {
	Ref   asset.Ref `json:"ref"`
	Name  string    `json:"name"`
	Error string    `json:"error"`
}

// Summary is the outcome of a run.
type Summary struct {
	RunID        string `json:"run_id"`
	SuccessCount int    `json:"success_count"`
	FailCount    int    `json:"fail_count"`
	// Skipped counts items never attempted because the run was cancelled.
	Skipped     int           `json:"skipped"`
	Cancelled   bool          `json:"cancelled"`
	Files       []string      `json:"files"`
	MappingPath string        `json:"mapping_path,omitempty"`
	Failures    []Failure     `json:"failures,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Orchestrator runs exports.
type Orchestrator struct {
	converter Converter
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator around a converter.
func NewOrchestrator(converter Converter, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{converter: converter, logger: logger}
}

// item is one unit of work.
type item struct {
	ref  asset.Ref
	name string
	req  Request
}

// plan splits the selection into the three disjoint phases.
func plan(snap *catalog.Snapshot, opts Options, masters *MasterMaterials) []item {
	selected := snap.Selected()
	folders := relations.FolderPaths(snap.Folders)
	outDir := opts.ContentDir()

	covered := make(map[int64]struct{})
	referenced := make(map[int64]struct{})
	var items []item

	for _, m := range selected.Models {
		materials, textures := relations.ResolveFromModels([]catalog.Model{m}, snap.Materials, snap.Textures, folders)
		req := Request{
			Kind:       asset.KindModel,
			ID:         m.ID,
			Name:       m.Name,
			SourcePath: m.SourcePath,
			OutputDir:  outDir,
			Settings:   savedSettings(m.Resource, opts),
			Options:    opts.tool(),
		}
		for _, mat := range materials {
			covered[mat.ID] = struct{}{}
			req.Materials = append(req.Materials, materialSpec(mat, opts, masters))
		}
		for _, t := range textures {
			referenced[t.ID] = struct{}{}
			req.Textures = append(req.Textures, textureSpec(t, opts))
		}
		items = append(items, item{ref: m.Ref(), name: m.Name, req: req})
	}

	var standalone []catalog.Material
	for _, mat := range selected.Materials {
		if _, ok := covered[mat.ID]; ok {
			continue
		}
		standalone = append(standalone, mat)
		spec := materialSpec(mat, opts, masters)
		req := Request{
			Kind:       asset.KindMaterial,
			ID:         mat.ID,
			Name:       mat.Name,
			SourcePath: mat.SourcePath,
			OutputDir:  outDir,
			Settings:   spec.Settings,
			JSONOnly:   opts.MaterialsOnly,
			Materials:  []MaterialSpec{spec},
			Options:    opts.tool(),
		}
		for _, t := range relations.TexturesOf([]catalog.Material{mat}, snap.Textures) {
			if !opts.MaterialsOnly {
				req.Textures = append(req.Textures, textureSpec(t, opts))
			}
		}
		items = append(items, item{ref: mat.Ref(), name: mat.Name, req: req})
	}
	for _, t := range relations.TexturesOf(standalone, snap.Textures) {
		referenced[t.ID] = struct{}{}
	}

	for _, t := range selected.Textures {
		if _, ok := referenced[t.ID]; ok {
			continue
		}
		items = append(items, item{ref: t.Ref(), name: t.Name, req: Request{
			Kind:       asset.KindTexture,
			ID:         t.ID,
			Name:       t.Name,
			SourcePath: t.SourcePath,
			OutputDir:  outDir,
			Settings:   savedSettings(t.Resource, opts),
			Options:    opts.tool(),
		}})
	}
	return items
}

func savedSettings(r catalog.Resource, opts Options) map[string]any {
	if !opts.UseSavedSettings || len(r.Settings) == 0 {
		return nil
	}
	return r.Settings
}

func materialSpec(m catalog.Material, opts Options, masters *MasterMaterials) MaterialSpec {
	return MaterialSpec{
		ID:         m.ID,
		Name:       m.Name,
		SourcePath: m.SourcePath,
		Master:     masters.Resolve(m.Name, opts.DefaultMasterMaterial),
		Maps:       m.TextureMaps(),
		Settings:   savedSettings(m.Resource, opts),
	}
}

func textureSpec(t catalog.Texture, opts Options) TextureSpec {
	return TextureSpec{ID: t.ID, Name: t.Name, SourcePath: t.SourcePath, Settings: savedSettings(t.Resource, opts)}
}

// Run exports the resources flagged ExportToServer in snap. The snapshot must hold
// the whole catalog so that models find their materials and textures.
func (o *Orchestrator) Run(ctx context.Context, snap *catalog.Snapshot, opts Options, progress ProgressFunc) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	masters, err := LoadMasterMaterials(opts.MasterMaterialsConfig)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Files: []string{}}
	log := o.logger.With(zap.String("run_id", summary.RunID), zap.String("project", opts.ProjectName))

	items := plan(snap, opts, masters)
	total := len(items)
	log.Info("Export started", zap.Int("items", total), zap.String("masters", masters.String()))

	if err := os.MkdirAll(opts.ContentDir(), 0755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	doc := mapping.New()
	serverRoot := opts.ServerRoot()

	for i, it := range items {
		if ctx.Err() != nil {
			summary.Cancelled = true
			summary.Skipped = total - i
			log.Warn("Export cancelled", zap.Int("skipped", summary.Skipped))
			break
		}

		res, err := o.convert(ctx, it.req)
		if err == nil && !res.Success {
			msg := res.Error
			if msg == "" {
				msg = "converter reported failure"
			}
			err = apperror.Wrap(apperror.KindItemFailure, "convert "+it.name, errors.New(msg))
		}
		if err != nil {
			summary.FailCount++
			summary.Failures = append(summary.Failures, Failure{Ref: it.ref, Name: it.name, Error: err.Error()})
			log.Error("Export item failed",
				zap.String("resource", it.name),
				zap.String("ref", it.ref.String()),
				zap.String("source", it.req.SourcePath),
				zap.Error(err))
		} else {
			summary.SuccessCount++
			summary.Files = append(summary.Files, concreteFiles(res.Files)...)
			record(doc, it, res, serverRoot)
			log.Debug("Export item done", zap.String("resource", it.name), zap.Int("files", len(res.Files)))
		}

		if progress != nil {
			progress(Progress{
				Percent: float64(i+1) / float64(total) * 100,
				Current: i + 1,
				Total:   total,
				Item:    it.name,
			})
		}
	}

	// A run with nothing exported keeps the previous mapping.
	if summary.SuccessCount > 0 {
		path := opts.MappingPath()
		if err := doc.Save(path); err != nil {
			return summary, apperror.Wrap(apperror.KindPersistence, "write mapping", err)
		}
		summary.MappingPath = path
	}

	summary.Duration = time.Since(start)
	log.Info("Export finished",
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.FailCount),
		zap.Int("files", len(summary.Files)),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// convert calls the converter inside a failure boundary.
func (o *Orchestrator) convert(ctx context.Context, req Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, apperror.Wrap(apperror.KindItemFailure, "convert "+req.Name, fmt.Errorf("converter panic: %v", r))
		}
	}()

	res, err = o.converter.Convert(ctx, req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindItemFailure, "convert "+req.Name, err)
	}
	if res == nil {
		return nil, apperror.Wrap(apperror.KindItemFailure, "convert "+req.Name, fmt.Errorf("converter returned no result"))
	}
	return res, nil
}

// concreteFiles drops directories. Paths that do not exist yet are kept; the
// upload step logs and excludes them.
func concreteFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" {
			continue
		}
		if info, err := os.Stat(f); err == nil && info.IsDir() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// relative converts a produced path into a path relative to the server root.
func relative(serverRoot, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(serverRoot, p); err == nil {
			return utils.ToSlash(rel)
		}
	}
	return utils.ToSlash(p)
}

// record adds a successful item to the mapping document.
func record(doc *mapping.Document, it item, res *Result, serverRoot string) {
	for key, p := range res.Materials {
		if id, err := utils.ParseID(key); err == nil {
			doc.SetMaterial(id, relative(serverRoot, p))
		}
	}
	for key, p := range res.Textures {
		if id, err := utils.ParseID(key); err == nil {
			doc.SetTexture(id, relative(serverRoot, p))
		}
	}

	switch it.ref.Kind {
	case asset.KindModel:
		modelPath := res.ModelPath
		if modelPath == "" && len(res.Files) > 0 {
			modelPath = res.Files[0]
		}
		lods := make([]string, 0, len(res.Lods))
		for _, l := range res.Lods {
			lods = append(lods, relative(serverRoot, l))
		}
		doc.SetModel(it.ref.ID, relative(serverRoot, modelPath), lods)
	case asset.KindMaterial:
		if _, ok := res.Materials[utils.FormatID(it.ref.ID)]; !ok {
			if p := firstWithExt(res.Files, ".json"); p != "" {
				doc.SetMaterial(it.ref.ID, relative(serverRoot, p))
			}
		}
	case asset.KindTexture:
		if _, ok := res.Textures[utils.FormatID(it.ref.ID)]; !ok && len(res.Files) > 0 {
			doc.SetTexture(it.ref.ID, relative(serverRoot, res.Files[0]))
		}
	}
}

func firstWithExt(files []string, ext string) string {
	for _, f := range files {
		if filepath.Ext(f) == ext {
			return f
		}
	}
	return ""
}
