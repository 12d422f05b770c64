package forms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/shared/server/middleware"
	"bsslab-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the forms service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches public form routes and the admin authoring routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/forms/active", h.listActive)
	rg.GET("/forms/:id", h.detail)

	admin := rg.Group("/admin/forms", middleware.RequireAdmin())
	admin.POST("", h.create)
	admin.GET("", h.list)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.delete)
	admin.POST("/:id/questions", h.addQuestion)

	adminQ := rg.Group("/admin/questions", middleware.RequireAdmin())
	adminQ.PUT("/:id", h.updateQuestion)
	adminQ.DELETE("/:id", h.deleteQuestion)
	adminQ.POST("/:id/options", h.addOption)

	adminO := rg.Group("/admin/options", middleware.RequireAdmin())
	adminO.PUT("/:id", h.updateOption)
	adminO.DELETE("/:id", h.deleteOption)
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

func (h *Handler) fail(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", notFoundMsg, nil)
	case errors.Is(err, ErrInvalidArgument):
		respond.Error(c, http.StatusBadRequest, "invalid_argument", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}

func (h *Handler) listActive(c *gin.Context) {
	items, err := h.Svc.ListActive(c.Request.Context())
	if err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.OK(c, items)
}

func (h *Handler) detail(c *gin.Context) {
	id, ok := pathID(c, "formId")
	if !ok {
		return
	}
	detail, err := h.Svc.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	detail, err := h.Svc.CreateForm(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.Created(c, detail)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := pagination(c)
	items, err := h.Svc.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.OK(c, items)
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

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c, "formId")
	if !ok {
		return
	}
	var req UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	detail, err := h.Svc.UpdateForm(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c, "formId")
	if !ok {
		return
	}
	if err := h.Svc.DeleteForm(c.Request.Context(), id); err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) addQuestion(c *gin.Context) {
	id, ok := pathID(c, "formId")
	if !ok {
		return
	}
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	question, err := h.Svc.AddQuestion(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "form not found")
		return
	}
	respond.Created(c, question)
}

func (h *Handler) updateQuestion(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	question, err := h.Svc.UpdateQuestion(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "question not found")
		return
	}
	respond.OK(c, question)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	if err := h.Svc.DeleteQuestion(c.Request.Context(), id); err != nil {
		h.fail(c, err, "question not found")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) addOption(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	var req CreateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	option, err := h.Svc.AddOption(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "question not found")
		return
	}
	respond.Created(c, option)
}

func (h *Handler) updateOption(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	var req UpdateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	option, err := h.Svc.UpdateOption(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err, "option not found")
		return
	}
	respond.OK(c, option)
}

func (h *Handler) deleteOption(c *gin.Context) {
	id, ok := pathID(c, "")
	if !ok {
		return
	}
	if err := h.Svc.DeleteOption(c.Request.Context(), id); err != nil {
		h.fail(c, err, "option not found")
		return
	}
	respond.NoContent(c)
}
