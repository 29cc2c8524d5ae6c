package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"permitflow/internal/platform/middleware"
	"permitflow/pkg/requestcontext"
)

type staticValidator struct {
	userID uuid.UUID
}

func (v staticValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != "good" {
		return nil, errors.New("invalid token")
	}
	return &middleware.JWTClaims{UserID: v.userID, Role: requestcontext.RoleCitizen}, nil
}

type whoami struct{}

func (whoami) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, requestcontext.UserID(r.Context()).String())
	})
}

func newRouter(checks map[string]HealthCheck) (http.Handler, uuid.UUID) {
	userID := uuid.New()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"}))
	return NewRouter(Config{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Validator: staticValidator{userID: userID},
		Gatherer:  reg,
		Checks:    checks,
		API:       []Routes{whoami{}},
	}), userID
}

func TestHealth(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		router, _ := newRouter(map[string]HealthCheck{
			"store": func(context.Context) error { return nil },
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"store":"ok"}}`, w.Body.String())
	})

	t.Run("failing check degrades", func(t *testing.T) {
		router, _ := newRouter(map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newRouter(nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_test_total")
}

func TestAPIRequiresToken(t *testing.T) {
	router, userID := newRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
