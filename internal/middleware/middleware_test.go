package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserName(c), "id": c.GetString(ContextUserID)})
	})
	return r
}

func get(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerAuth(t *testing.T) {
	r := newRouter(BearerAuth(AuthOptions{Secret: testSecret, MockPrefix: "mock_jwt_token"}))

	w := get(r, "/ping", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = get(r, "/ping", "Bearer something_else")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/ping", "Basic mock_jwt_token_123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/ping", "Bearer mock_jwt_token_123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MockUserName)

	w = get(r, "/ping?token=mock_jwt_token", "")
	assert.Equal(t, http.StatusOK, w.Code)

	token, _, err := SignToken(testSecret, "crm", time.Hour, "u1", "Ravi Kumar", "ravi@example.com", "Manager")
	require.NoError(t, err)
	w = get(r, "/ping", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"Ravi Kumar","id":"u1"}`, w.Body.String())

	other, _, _ := SignToken("other-secret", "crm", time.Hour, "u1", "Ravi Kumar", "", "")
	w = get(r, "/ping", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, _, _ := SignToken(testSecret, "crm", -time.Minute, "u1", "Ravi Kumar", "", "")
	w = get(r, "/ping", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthWithoutMockPrefix(t *testing.T) {
	r := newRouter(BearerAuth(AuthOptions{Secret: testSecret}))
	w := get(r, "/ping", "Bearer mock_jwt_token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDAndCORS(t *testing.T) {
	r := newRouter(RequestID(), CORS())

	w := get(r, "/ping", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoggerRedactsToken(t *testing.T) {
	assert.Equal(t, "a=1&token=***", redactToken("a=1&token=secret"))
	assert.Equal(t, "a=1", redactToken("a=1"))

	r := newRouter(Logger(zap.NewNop()))
	w := get(r, "/ping?token=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f fakeLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	return f.allow, f.err
}

func TestRateLimit(t *testing.T) {
	w := get(newRouter(RateLimit(fakeLimiter{allow: false}, zap.NewNop())), "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = get(newRouter(RateLimit(fakeLimiter{allow: true}, zap.NewNop())), "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(newRouter(RateLimit(fakeLimiter{err: errors.New("redis down")}, zap.NewNop())), "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code, "limiter errors fail open")
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	r := newRouter(m.Handler())
	get(r, "/ping", "")
	get(r, "/ping", "")
	get(r, "/missing", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/ping", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))

	_, err = NewHTTPMetrics(reg)
	assert.Error(t, err, "double registration is rejected")
}
