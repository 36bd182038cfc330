package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"radar_backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type revocations map[string]bool

func (r revocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r[jti], nil
}

func newAuthRouter(revoked RevocationChecker) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware("secret", revoked), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint(UserIDKey)})
	})
	r.POST("/session", JWTAuthMiddleware("secret", revoked), SessionOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func call(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newAuthRouter(revocations{})
	session, err := utils.GenerateJWT(3, "a@b.c", "user", "secret", time.Hour)
	require.NoError(t, err)

	w := call(r, http.MethodGet, "/me", session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/me", "garbage").Code)
	assert.Equal(t, http.StatusNoContent, call(r, http.MethodPost, "/session", session).Code)
}

func TestDeviceTokens(t *testing.T) {
	device, jti, err := utils.GenerateDeviceJWT(3, "a@b.c", "user", "secret", time.Hour)
	require.NoError(t, err)

	r := newAuthRouter(revocations{})
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/me", device).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/session", device).Code)

	r = newAuthRouter(revocations{jti: true})
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/me", device).Code)
}

func TestRevocationLookupFailureRejects(t *testing.T) {
	r := newAuthRouter(failingChecker{})
	device, _, err := utils.GenerateDeviceJWT(3, "a@b.c", "user", "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/me", device).Code)
}

type failingChecker struct{}

func (failingChecker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()
	r := gin.New()
	r.GET("/login", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(r, http.MethodGet, "/login", "").Code)

	// Budgets are per client address
	assert.True(t, rl.Allow("10.0.0.9"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = call(r, http.MethodGet, "/ping", "")
	assert.Len(t, w.Body.String(), 36)
}
