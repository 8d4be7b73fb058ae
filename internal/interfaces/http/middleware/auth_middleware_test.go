package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ekyc.backend/pkg/jwt"
)

func authRouter(jwtService *jwt.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(jwtService))
	handlers := append(extra, func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID.String()})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware_BearerFlow(t *testing.T) {
	jwtService := jwt.NewJWTService("secret", time.Minute)
	r := authRouter(jwtService)

	t.Run("missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "authorization required")
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthorizationHeader, "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+"not-a-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "invalid token")
	})

	t.Run("valid token", func(t *testing.T) {
		userID := uuid.New()
		token, err := jwtService.GenerateToken(userID, "owner@acme.io", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), userID.String())
	})
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := jwt.NewJWTService("secret", -1*time.Second)
	token, err := expired.GenerateToken(uuid.New(), "owner@acme.io", "user")
	require.NoError(t, err)

	r := authRouter(expired)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "token has expired")
}

func TestAuthMiddleware_GatewayHeaders(t *testing.T) {
	jwtService := jwt.NewJWTService("secret", time.Minute)
	r := authRouter(jwtService)

	t.Run("valid internal identity", func(t *testing.T) {
		userID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(UserIDHeader, userID.String())
		req.Header.Set(ServiceNameHeader, "api-gateway")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("missing service name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(UserIDHeader, uuid.New().String())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad user id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(UserIDHeader, "not-a-uuid")
		req.Header.Set(ServiceNameHeader, "api-gateway")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService := jwt.NewJWTService("secret", time.Minute)

	r := gin.New()
	r.Use(AuthMiddleware(jwtService))
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	adminToken, err := jwtService.GenerateToken(uuid.New(), "admin@acme.io", "admin")
	require.NoError(t, err)
	userToken, err := jwtService.GenerateToken(uuid.New(), "owner@acme.io", "user")
	require.NoError(t, err)

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+adminToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("user forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(AuthorizationHeader, BearerPrefix+userToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Contains(t, w.Body.String(), "insufficient permissions")
	})

	t.Run("gateway identity has no role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(UserIDHeader, uuid.New().String())
		req.Header.Set(ServiceNameHeader, "api-gateway")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
