package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/shared/server/middleware"
	"bsslab-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the users service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches user routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	me := rg.Group("/users", middleware.RequireUser())
	me.GET("/me", h.me)
	me.PUT("/me/profile", h.updateProfile)
}

func (h *Handler) me(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	user, profile, err := h.Svc.Info(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}

	respond.OK(c, gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"role":            user.Role,
		"status":          user.Status,
		"bio":             profile.Bio,
		"profileImageUrl": profile.ProfileImageURL,
	})
}

type updateProfileRequest struct {
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	profile, err := h.Svc.UpdateProfile(c.Request.Context(), userID, req.Bio, req.ProfileImageURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "profile not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		return
	}

	respond.OK(c, profile)
}
