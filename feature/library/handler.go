package library

import (
	"media-store/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for library records.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/library")
	group.Post("/", h.HandleUpload)
	group.Get("/audit", h.HandleAudit)
	group.Get("/:id", h.HandleGet)
	group.Get("/:id/content", h.HandleContent)
	group.Post("/:id/copy", h.HandleCopy)
	group.Delete("/:id", h.HandleRemove)
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	status := StatusFor(err)
	l := logger.WithRayID(h.service.logger, c).With(zap.String("op", op))
	if status >= fiber.StatusInternalServerError {
		l.Error("Library operation failed", zap.Error(err))
	} else {
		l.Info("Library operation rejected", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleUpload stores an uploaded file and creates its record.
// @Summary Upload Media
// @Description Stores the multipart file at the given path and creates the first record for it.
// @Tags library
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Media file"
// @Param path formData string true "Media path"
// @Success 201 {object} models.Record
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "Path in use"
// @Router /library [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	mediaPath := utils.CopyString(c.FormValue("path"))
	if mediaPath == "" {
		mediaPath = fh.Filename
	}

	f, err := fh.Open()
	if err != nil {
		return h.fail(c, "upload", err)
	}
	defer f.Close()

	rec, err := h.service.Upload(c.Context(), fh.Filename, mediaPath, fh.Header.Get(fiber.HeaderContentType), f, fh.Size)
	if err != nil {
		return h.fail(c, "upload", err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// HandleGet returns a record.
// @Summary Get Record
// @Tags library
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} models.Record
// @Failure 404 {object} map[string]string "Not Found"
// @Router /library/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	rec, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "get", err)
	}
	return c.JSON(rec)
}

// HandleContent streams the stored payload of a record.
// @Summary Get Record Content
// @Tags library
// @Produce octet-stream
// @Param id path string true "Record ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string "Not Found"
// @Router /library/{id}/content [get]
func (h *Handler) HandleContent(c *fiber.Ctx) error {
	rec, body, err := h.service.Open(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "content", err)
	}
	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	return c.SendStream(body)
}

// HandleCopy creates a record sharing the stored object of another.
// @Summary Copy Record
// @Description Creates a new record for the same stored object and adds a reference to it.
// @Tags library
// @Produce json
// @Param id path string true "Record ID"
// @Success 201 {object} models.Record
// @Failure 404 {object} map[string]string "Not Found"
// @Router /library/{id}/copy [post]
func (h *Handler) HandleCopy(c *fiber.Ctx) error {
	rec, err := h.service.Copy(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "copy", err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// HandleRemove deletes a record and drops its reference.
// @Summary Remove Record
// @Tags library
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} media.DeleteResult
// @Failure 404 {object} map[string]string "Not Found"
// @Router /library/{id} [delete]
func (h *Handler) HandleRemove(c *fiber.Ctx) error {
	res, err := h.service.Remove(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "remove", err)
	}
	return c.JSON(res)
}

// HandleAudit compares record counts with stored reference counts.
// @Summary Reference Audit
// @Description Compares the number of records per path with the references metadata of each stored object.
// @Tags library
// @Produce json
// @Success 200 {object} models.AuditReport
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /library/audit [get]
func (h *Handler) HandleAudit(c *fiber.Ctx) error {
	logger.WithRayID(h.service.logger, c).Info("Running reference audit")
	report, err := h.service.Audit(c.Context())
	if err != nil {
		return h.fail(c, "audit", err)
	}
	return c.JSON(report)
}
