package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubSession struct {
	session entity.Session
}

func (s stubSession) State() entity.SessionState { return s.session.State() }

func (s stubSession) HasRole(roles ...enum.Role) bool {
	if !s.session.IsAuthenticated {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == s.session.Role() {
			return true
		}
	}
	return false
}

func (s stubSession) Snapshot() entity.Session { return s.session.Clone() }

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("username")) })
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func serve(r http.Handler, method string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireSession(t *testing.T) {
	dra := entity.Session{
		IsAuthenticated: true,
		CurrentUser:     &entity.User{Username: "employee1", Role: enum.RoleDRA},
	}

	tests := []struct {
		name    string
		session entity.Session
		roles   []enum.Role
		status  int
	}{
		{"anonymous", entity.Session{}, nil, http.StatusUnauthorized},
		{"pending otp", entity.Session{PendingAdminUsername: "admin"}, nil, http.StatusUnauthorized},
		{"any role", dra, nil, http.StatusOK},
		{"wrong role", dra, []enum.Role{enum.RoleAdmin}, http.StatusForbidden},
		{"allowed role", dra, []enum.Role{enum.RoleAdmin, enum.RoleDRA}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(RequireSession(stubSession{tt.session}, tt.roles...))
			rec := serve(r, http.MethodGet, nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "employee1", rec.Body.String())
			}
		})
	}
}

func TestClientRateLimiter(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	defer rl.Stop()
	r := newRouter(rl.Middleware())

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, nil).Code)

	rec := serve(r, http.MethodGet, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, rl.Stats()["active_clients"])
}

func TestClientRateLimiter_Stop(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{CleanupInterval: time.Millisecond})
	rl.Stop()
	rl.Stop()

	select {
	case <-rl.Done():
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine did not exit")
	}
}

type guardFunc func(key string) (func(), error)

func (g guardFunc) Acquire(key string) (func(), error) { return g(key) }

func TestIdempotency(t *testing.T) {
	var keys []string
	busy := guardFunc(func(key string) (func(), error) {
		keys = append(keys, key)
		if key == "http:taken" {
			return nil, assert.AnError
		}
		return func() {}, nil
	})
	r := newRouter(Idempotency(busy))

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, nil).Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, http.Header{IdempotencyKeyHeader: {"free"}}).Code)
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, http.Header{IdempotencyKeyHeader: {"taken"}}).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, http.Header{IdempotencyKeyHeader: {"taken"}}).Code)
	assert.Equal(t, []string{"http:free", "http:taken"}, keys)
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(LoggerMiddleware(zap.New(core)))

	rec := serve(r, http.MethodGet, http.Header{"X-Request-Id": {"abcdef123456"}})
	assert.Equal(t, "abcdef123456", rec.Header().Get("X-Request-ID"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "abcdef12", fields["request_id"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
	}
}
