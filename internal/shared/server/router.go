package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/applications"
	"bsslab-backend/internal/auth"
	"bsslab-backend/internal/forms"
	"bsslab-backend/internal/posts"
	"bsslab-backend/internal/shared/config"
	"bsslab-backend/internal/shared/metrics"
	"bsslab-backend/internal/shared/server/middleware"
	"bsslab-backend/internal/shared/server/respond"
	"bsslab-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config              config.Config
	AuthHandler         *auth.Handler
	GoogleAuth          *auth.GoogleService
	UsersHandler        *users.Handler
	PostsHandler        *posts.Handler
	FormsHandler        *forms.Handler
	ApplicationsHandler *applications.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(rateLimits()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.PostsHandler != nil {
		deps.PostsHandler.RegisterRoutes(api)
	}
	if deps.FormsHandler != nil {
		deps.FormsHandler.RegisterRoutes(api)
	}
	if deps.ApplicationsHandler != nil {
		deps.ApplicationsHandler.RegisterRoutes(api)
	}

	return r
}

// Rate-limit groups. Submission and credential endpoints are open to
// guests, so they get tighter buckets than the rest of the API.
const (
	rateGroupAuth   = "AUTH"
	rateGroupSubmit = "SUBMIT"
)

func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			rateGroupAuth:   {Rate: 0.5, Burst: 10},
			rateGroupSubmit: {Rate: 0.2, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			path := c.Request.URL.Path
			switch {
			case strings.HasPrefix(path, "/api/v1/auth/"):
				return rateGroupAuth
			case strings.HasPrefix(path, "/api/v1/forms/") && strings.HasSuffix(path, "/applications"):
				return rateGroupSubmit
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
