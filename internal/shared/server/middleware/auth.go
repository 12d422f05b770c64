package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/shared/auth"
	"bsslab-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	usernameKey  = "username"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
	isGuestKey   = "isGuest"

	// RoleAdmin is the role claim granted to administrators.
	RoleAdmin = "ADMIN"
)

// Identity verifies a Bearer token when present and stores the caller's
// identity in the gin context. Requests without a token pass through as
// guests; route groups that need a login use RequireUser or RequireAdmin.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Set(isGuestKey, true)
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Username != "" {
			c.Set(usernameKey, claims.Username)
		}
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.Role != "" {
			c.Set(userRoleKey, claims.Role)
		}
		c.Set(isGuestKey, false)
		c.Next()
	}
}

// RequireUser aborts guest requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts requests whose token does not carry the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
			return
		}
		if c.GetString(userRoleKey) != RoleAdmin {
			respond.Error(c, http.StatusForbidden, "access_denied", "admin role required", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the numeric user ID set by the Identity middleware.
// The second return is false for guest requests.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}
	raw := c.GetString(userIDKey)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// UsernameFromContext fetches the username set by the Identity middleware.
func UsernameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(usernameKey)
}

// UserEmailFromContext fetches the user email set by the Identity middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

// IsAdmin reports whether the caller's token carries the admin role.
func IsAdmin(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetString(userRoleKey) == RoleAdmin
}
