package media

import (
	"fmt"
	"net/url"
	"path"

	"media-store/core/logger"
	"media-store/core/media"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for stored media objects.
type Handler struct {
	provider *media.Provider
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(provider *media.Provider, logger *zap.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

// RegisterRoutes registers the media routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/media")
	group.Get("/objects/*", h.HandleGet)
	group.Put("/objects/*", h.HandleSet)
	group.Delete("/objects/*", h.HandleDelete)
	group.Get("/stat/*", h.HandleStat)
	group.Get("/exists/*", h.HandleExists)
	group.Get("/refs/*", h.HandleReferences)
	group.Post("/refs/*", h.HandleAddReferences)
}

// mediaPath returns the unescaped wildcard path. Fiber reuses the request
// buffers, so the result is copied before it can outlive the handler.
func mediaPath(c *fiber.Ctx) (string, error) {
	p, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return "", fmt.Errorf("%w: media path: %v", media.ErrInvalidArgument, err)
	}
	return utils.CopyString(p), nil
}

func options(c *fiber.Ctx) []media.Option {
	var opts []media.Option
	if bucket := c.Query("bucket"); bucket != "" {
		opts = append(opts, media.WithBucket(utils.CopyString(bucket)))
	}
	return opts
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	status := StatusFor(err)
	l := logger.WithRayID(h.logger, c).With(zap.String("op", op), zap.String("path", c.Params("*")))
	if status >= fiber.StatusInternalServerError {
		l.Error("Media operation failed", zap.Error(err))
	} else {
		l.Info("Media operation rejected", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleGet streams a media object.
// @Summary Get Media
// @Description Streams the stored payload of a media path.
// @Tags media
// @Produce octet-stream
// @Param path path string true "Media path"
// @Param bucket query string false "Bucket override"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string "Not Found"
// @Router /media/objects/{path} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "get", err)
	}
	body, err := h.provider.GetStream(c.Context(), key, options(c)...)
	if err != nil {
		return h.fail(c, "get", err)
	}
	if ext := path.Ext(key); ext != "" {
		c.Type(ext)
	}
	// fasthttp closes the stream once the response is written.
	return c.SendStream(body)
}

// HandleSet stores the request body as a new media object.
// @Summary Put Media
// @Description Stores the request body at the media path with a single reference.
// @Tags media
// @Accept octet-stream
// @Produce json
// @Param path path string true "Media path"
// @Param bucket query string false "Bucket override"
// @Success 201 {object} storage.UploadInfo
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /media/objects/{path} [put]
func (h *Handler) HandleSet(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "set", err)
	}
	opts := options(c)
	if ct := c.Get(fiber.HeaderContentType); ct != "" {
		opts = append(opts, media.WithContentType(utils.CopyString(ct)))
	}
	info, err := h.provider.Set(c.Context(), media.Bytes(c.Body()), key, opts...)
	if err != nil {
		return h.fail(c, "set", err)
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

// HandleDelete drops one reference of a media object.
// @Summary Delete Media
// @Description Decrements the reference count, removing the object with its last reference.
// @Tags media
// @Produce json
// @Param path path string true "Media path"
// @Param bucket query string false "Bucket override"
// @Success 200 {object} media.DeleteResult
// @Failure 404 {object} map[string]string "Not Found"
// @Router /media/objects/{path} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "delete", err)
	}
	res, err := h.provider.Delete(c.Context(), key, options(c)...)
	if err != nil {
		return h.fail(c, "delete", err)
	}
	return c.JSON(res)
}

// HandleStat returns object metadata.
// @Summary Stat Media
// @Tags media
// @Produce json
// @Param path path string true "Media path"
// @Success 200 {object} storage.ObjectInfo
// @Failure 404 {object} map[string]string "Not Found"
// @Router /media/stat/{path} [get]
func (h *Handler) HandleStat(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "stat", err)
	}
	info, err := h.provider.Stat(c.Context(), key, options(c)...)
	if err != nil {
		return h.fail(c, "stat", err)
	}
	return c.JSON(info)
}

// HandleExists reports whether a media object exists.
// @Summary Media Exists
// @Tags media
// @Produce json
// @Param path path string true "Media path"
// @Success 200 {object} map[string]bool
// @Router /media/exists/{path} [get]
func (h *Handler) HandleExists(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "exists", err)
	}
	return c.JSON(fiber.Map{"exists": h.provider.Exists(c.Context(), key, options(c)...)})
}

// HandleReferences returns the reference count of a media object.
// @Summary Get References
// @Tags media
// @Produce json
// @Param path path string true "Media path"
// @Success 200 {object} map[string]int
// @Failure 422 {object} map[string]string "Corrupt reference count"
// @Router /media/refs/{path} [get]
func (h *Handler) HandleReferences(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "references", err)
	}
	refs, err := h.provider.References(c.Context(), key, options(c)...)
	if err != nil {
		return h.fail(c, "references", err)
	}
	return c.JSON(fiber.Map{"references": refs})
}

// HandleAddReferences adds one reference to a media object.
// @Summary Add Reference
// @Tags media
// @Produce json
// @Param path path string true "Media path"
// @Success 200 {object} storage.UploadInfo
// @Failure 404 {object} map[string]string "Not Found"
// @Router /media/refs/{path} [post]
func (h *Handler) HandleAddReferences(c *fiber.Ctx) error {
	key, err := mediaPath(c)
	if err != nil {
		return h.fail(c, "add_references", err)
	}
	info, err := h.provider.AddReferences(c.Context(), key, options(c)...)
	if err != nil {
		return h.fail(c, "add_references", err)
	}
	return c.JSON(info)
}
