package posts

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/shared/server/middleware"
	"bsslab-backend/internal/shared/server/respond"
	"bsslab-backend/internal/shared/telemetry"
)

// maxImageSize caps uploaded attachments at 10 MiB.
const maxImageSize = 10 << 20

// Handler wires HTTP handlers to the posts service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches public read routes, authenticated author routes
// and the admin delete route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts", h.list)
	rg.GET("/posts/:id", h.detail)
	rg.GET("/images/:id", h.downloadImage)

	authed := rg.Group("", middleware.RequireUser())
	authed.POST("/posts", h.create)
	authed.PUT("/posts/:id", h.update)
	authed.DELETE("/posts/:id", h.delete)
	authed.POST("/posts/:id/images", h.uploadImage)
	authed.DELETE("/images/:id", h.deleteImage)

	admin := rg.Group("/admin/posts", middleware.RequireAdmin())
	admin.DELETE("/:id", h.adminDelete)
}

func pathID(c *gin.Context, logKey string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid id", nil)
		return 0, false
	}
	if logKey != "" {
		c.Set(logKey, id)
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handler) fail(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", notFoundMsg, nil)
	case errors.Is(err, ErrAccessDenied):
		respond.Error(c, http.StatusForbidden, "access_denied", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := pagination(c)
	items, err := h.Svc.ListPublished(c.Request.Context(), c.Query("category"), c.Query("q"), limit, offset)
	if err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.OK(c, items)
}

func (h *Handler) detail(c *gin.Context) {
	id, ok := pathID(c, "postId")
	if !ok {
		return
	}
	view, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.OK(c, view)
}

func (h *Handler) create(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	view, err := h.Svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.Created(c, view)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c, "postId")
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	view, err := h.Svc.Update(c.Request.Context(), id, userID, req)
	if err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.OK(c, view)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c, "postId")
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)
	if err := h.Svc.Delete(c.Request.Context(), id, userID); err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) adminDelete(c *gin.Context) {
	id, ok := pathID(c, "postId")
	if !ok {
		return
	}
	if err := h.Svc.DeleteByAdmin(c.Request.Context(), id); err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) uploadImage(c *gin.Context) {
	id, ok := pathID(c, "postId")
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file field required", nil)
		return
	}
	if fileHeader.Size > maxImageSize {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file too large", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "cannot read uploaded file", nil)
		return
	}
	defer f.Close()

	view, err := h.Svc.UploadImage(c.Request.Context(), id, userID, fileHeader.Filename, f)
	if err != nil {
		h.fail(c, err, "post not found")
		return
	}
	respond.Created(c, view)
}

func (h *Handler) downloadImage(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	image, rc, err := h.Svc.OpenImage(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "image not found")
		return
	}
	defer rc.Close()

	contentType := image.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `inline; filename="`+image.FileName+`"`)
	if image.FileSize > 0 {
		c.Header("Content-Length", strconv.FormatInt(image.FileSize, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("posts.image_stream_failed", map[string]any{
			"image_id": id,
			"error":    err.Error(),
		})
	}
}

func (h *Handler) deleteImage(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)
	if err := h.Svc.DeleteImage(c.Request.Context(), id, userID); err != nil {
		h.fail(c, err, "image not found")
		return
	}
	respond.NoContent(c)
}
