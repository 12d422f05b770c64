package applications

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/shared/server/middleware"
	"bsslab-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the applications service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches applicant-facing routes (authenticated users and
// guests identified by email) plus the admin review routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/forms/:id/applications", h.submit)
	rg.GET("/applications", h.listMine)
	rg.GET("/applications/:id", h.detail)
	rg.PUT("/applications/:id", h.update)
	rg.DELETE("/applications/:id", h.delete)

	admin := rg.Group("/admin/applications", middleware.RequireAdmin())
	admin.GET("", h.adminList)
	admin.GET("/:id", h.adminDetail)
	admin.PATCH("/:id/status", h.setStatus)
	admin.DELETE("/:id", h.adminDelete)
}

// identityFrom builds the acting identity from the auth context, falling
// back to the supplied guest email.
func identityFrom(c *gin.Context, guestEmail string) Identity {
	identity := Identity{Email: strings.TrimSpace(guestEmail)}
	if userID, ok := middleware.UserIDFromContext(c); ok {
		identity.UserID = &userID
		if email := middleware.UserEmailFromContext(c); email != "" {
			identity.Email = email
		}
	}
	return identity
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

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, ErrInvalidState):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, ErrInvalidArgument):
		respond.Error(c, http.StatusBadRequest, "invalid_argument", err.Error(), nil)
	case errors.Is(err, ErrAccessDenied):
		respond.Error(c, http.StatusForbidden, "access_denied", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}

func (h *Handler) submit(c *gin.Context) {
	formID, ok := pathID(c, "formId")
	if !ok {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	detail, err := h.Svc.Submit(c.Request.Context(), formID, identityFrom(c, req.ApplicantEmail), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Created(c, detail)
}

// listMine lists the caller's applications: by user id when authenticated,
// by the email query parameter for guests.
func (h *Handler) listMine(c *gin.Context) {
	limit, offset := pagination(c)
	filter := ListFilter{Status: c.Query("status")}

	if userID, ok := middleware.UserIDFromContext(c); ok {
		filter.UserID = userID
	} else {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			respond.Error(c, http.StatusBadRequest, "validation_error", "email query parameter required for guests", nil)
			return
		}
		filter.Email = email
	}

	items, err := h.Svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, items)
}

func (h *Handler) detail(c *gin.Context) {
	id, ok := pathID(c, "applicationId")
	if !ok {
		return
	}
	detail, err := h.Svc.DetailFor(c.Request.Context(), id, identityFrom(c, c.Query("email")))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := pathID(c, "applicationId")
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	detail, err := h.Svc.Update(c.Request.Context(), id, identityFrom(c, req.Email), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := pathID(c, "applicationId")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id, identityFrom(c, c.Query("email"))); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) adminList(c *gin.Context) {
	limit, offset := pagination(c)
	filter := ListFilter{Status: c.Query("status")}
	if v, err := strconv.ParseInt(c.Query("formId"), 10, 64); err == nil && v > 0 {
		filter.FormID = v
	}

	items, err := h.Svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, items)
}

func (h *Handler) adminDetail(c *gin.Context) {
	id, ok := pathID(c, "applicationId")
	if !ok {
		return
	}
	detail, err := h.Svc.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) setStatus(c *gin.Context) {
	id, ok := pathID(c, "applicationId")
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	detail, err := h.Svc.SetStatus(c.Request.Context(), id, req.Status, req.ReviewerComment)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) adminDelete(c *gin.Context) {
	id, ok := pathID(c, "applicationId")
	if !ok {
		return
	}
	if err := h.Svc.DeleteByAdmin(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}
