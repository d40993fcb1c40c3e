package pipeline

import (
	"errors"

	"asset-pipeline/core/apperror"
	"asset-pipeline/core/logger"
	"asset-pipeline/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for pipeline commands.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the pipeline routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/pipeline")
	group.Post("/export", h.HandleExport)
	group.Post("/marks", h.HandleMarkRelated)
	group.Delete("/marks", h.HandleClearMarks)
	group.Post("/upload", h.HandleUploadFiles)
	group.Post("/upload/directory", h.HandleUploadDirectory)
	group.Delete("/remote", h.HandleDeleteRemote)
	group.Post("/refresh", h.HandleRefresh)
}

// uploadFilesRequest is the body of POST /pipeline/upload.
type uploadFilesRequest struct {
	Files []string `json:"files"`
}

// HandleExport exports every resource flagged for export.
// @Summary Export Selected Resources
// @Description Runs the converters over every resource flagged for export and writes mapping.json. With auto_upload the produced files are uploaded afterwards.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body ExportRequest false "Export request"
// @Success 200 {object} ExportResult "Export Result"
// @Failure 400 {object} map[string]string "Invalid options"
// @Failure 409 {object} map[string]string "Another operation is running"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/export [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req ExportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	l.Info("Export requested", zap.Bool("auto_upload", req.AutoUpload))
	result, err := h.service.ExportSelected(c.Context(), req, progressLogger(l))
	if err != nil {
		return h.fail(c, l, "Export failed", err)
	}

	l.Info("Export completed",
		zap.String("run_id", result.Export.RunID),
		zap.Int("success", result.Export.SuccessCount),
		zap.Int("failed", result.Export.FailCount))
	return c.JSON(result)
}

// HandleMarkRelated flags a selection and its related resources for export.
// @Summary Mark Related Resources
// @Description Flags the selected resources and every related material, texture and model for export.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body MarkRequest true "Selection"
// @Success 200 {object} MarkResult "Marked resources"
// @Failure 400 {object} map[string]string "Invalid selection"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/marks [post]
func (h *Handler) HandleMarkRelated(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req MarkRequest
	if err := c.BodyParser(&req); err != nil || len(req.Refs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "refs are required"})
	}

	result, err := h.service.MarkRelated(c.Context(), req.Refs)
	if err != nil {
		return h.fail(c, l, "Mark related failed", err)
	}
	return c.JSON(result)
}

// HandleClearMarks clears every export flag.
// @Summary Clear Export Marks
// @Description Clears the export flag on every model, material and texture.
// @Tags pipeline
// @Produce json
// @Success 200 {object} map[string]interface{} "Cleared count"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/marks [delete]
func (h *Handler) HandleClearMarks(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	cleared, err := h.service.ClearMarks(c.Context())
	if err != nil {
		return h.fail(c, l, "Clear marks failed", err)
	}
	return c.JSON(fiber.Map{"cleared": cleared})
}

// HandleUploadFiles uploads an explicit list of exported files.
// @Summary Upload Exported Files
// @Description Uploads exactly the given files, then mapping.json, and marks the matching resources uploaded.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body uploadFilesRequest true "Files"
// @Success 200 {object} UploadReport "Upload Report"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 502 {object} map[string]string "Storage authorization failed"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/upload [post]
func (h *Handler) HandleUploadFiles(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req uploadFilesRequest
	if err := c.BodyParser(&req); err != nil || len(req.Files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "files are required"})
	}

	report, err := h.service.UploadExportedFiles(c.Context(), req.Files, progressLogger(l))
	if err != nil {
		return h.fail(c, l, "Upload failed", err)
	}
	return c.JSON(report)
}

// HandleUploadDirectory sweeps a directory under the server root.
// @Summary Upload Full Directory
// @Description Uploads every matching file below a directory of the project's server root. Intended for full re-syncs.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body DirectoryRequest false "Sweep request"
// @Success 200 {object} UploadReport "Upload Report"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 502 {object} map[string]string "Storage authorization failed"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/upload/directory [post]
func (h *Handler) HandleUploadDirectory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	req := DirectoryRequest{Recursive: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	report, err := h.service.UploadFullDirectory(c.Context(), req, progressLogger(l))
	if err != nil {
		return h.fail(c, l, "Directory upload failed", err)
	}
	return c.JSON(report)
}

// HandleDeleteRemote deletes one remote object.
// @Summary Delete Remote File
// @Description Deletes an object from the bucket and resets every resource that pointed at it.
// @Tags pipeline
// @Produce json
// @Param path query string true "Object key"
// @Success 200 {object} DeleteResult "Delete Result"
// @Failure 400 {object} map[string]string "Missing path"
// @Failure 502 {object} map[string]string "Storage authorization failed"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/remote [delete]
func (h *Handler) HandleDeleteRemote(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	result, err := h.service.DeleteRemoteFile(c.Context(), c.Query("path"))
	if err != nil {
		return h.fail(c, l, "Delete failed", err)
	}
	if !result.Deleted {
		l.Warn("Remote delete rejected", zap.String("path", result.RemotePath))
	}
	return c.JSON(result)
}

// HandleRefresh reconciles the catalog against the bucket listing.
// @Summary Refresh Remote Listing
// @Description Lists the bucket and resets resources whose objects are gone. An incomplete listing changes nothing.
// @Tags pipeline
// @Produce json
// @Success 200 {object} reconcile.Report "Reconcile Report"
// @Failure 502 {object} map[string]string "Storage authorization failed"
// @Failure 503 {object} map[string]string "Listing incomplete"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /pipeline/refresh [post]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	report, err := h.service.RefreshRemoteListing(c.Context())
	if err != nil {
		return h.fail(c, l, "Refresh failed", err)
	}
	return c.JSON(report)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, reconcile.ErrIncompleteListing):
		return fiber.StatusServiceUnavailable
	}
	switch apperror.KindOf(err) {
	case apperror.KindConfiguration:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindAuth:
		return fiber.StatusBadGateway
	case apperror.KindParse:
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func progressLogger(l *zap.Logger) ProgressFunc {
	return func(p Progress) {
		l.Debug("Progress",
			zap.String("phase", string(p.Phase)),
			zap.Float64("percent", p.Percent),
			zap.Int("current", p.Current),
			zap.Int("total", p.Total),
			zap.String("item", p.Item))
	}
}
