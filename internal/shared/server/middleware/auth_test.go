package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	sharedauth "bsslab-backend/internal/shared/auth"
)

func identityRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.Use(extra...)
	r.GET("/whoami", func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"userId":   userID,
			"loggedIn": ok,
			"email":    UserEmailFromContext(c),
			"admin":    IsAdmin(c),
		})
	})
	return r
}

func signedToken(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:      sub,
		Username: "member",
		Email:    "member@bsslab.dev",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestIdentityAllowsGuests(t *testing.T) {
	r := identityRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest, got %d", resp.Code)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	r := identityRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}
}

func TestIdentitySetsClaimsInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/whoami", func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok || userID != 7 {
			t.Fatalf("expected user id 7, got %d (ok=%v)", userID, ok)
		}
		if UserEmailFromContext(c) != "member@bsslab.dev" {
			t.Fatalf("unexpected email %q", UserEmailFromContext(c))
		}
		if !IsAdmin(c) {
			t.Fatalf("expected admin role")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "7", RoleAdmin))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRequireUserBlocksGuests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(), RequireUser())
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/private", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest, got %d", resp.Code)
	}
}

func TestRequireAdminEnforcesRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(), RequireAdmin())
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "7", "USER"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "7", RoleAdmin))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}
}

func TestIdentityAllowsOptionsWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.OPTIONS("/api/v1/forms/active", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/api/v1/forms/active", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}
