package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/logger"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func newTestRouter(deps ...Dependency) http.Handler {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	return NewRouter(RouterConfig{
		Dependencies: deps,
		Gatherer:     reg,
		Env:          "test",
		Version:      "v0",
		Log:          logger.Discard(),
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := get(t, newTestRouter(), "/health/live")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp LivenessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "v0", resp.Version)
}

func TestReadiness(t *testing.T) {
	cases := []struct {
		name       string
		deps       []Dependency
		wantCode   int
		wantStatus string
	}{
		{
			name: "all up",
			deps: []Dependency{
				{Name: "postgres", Pinger: PingFunc(up), Critical: true},
				{Name: "redis", Pinger: PingFunc(up)},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "redis down",
			deps: []Dependency{
				{Name: "postgres", Pinger: PingFunc(up), Critical: true},
				{Name: "redis", Pinger: PingFunc(down)},
			},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name: "postgres down",
			deps: []Dependency{
				{Name: "postgres", Pinger: PingFunc(down), Critical: true},
				{Name: "redis", Pinger: PingFunc(up)},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, newTestRouter(tc.deps...), "/health/ready")
			assert.Equal(t, tc.wantCode, rec.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Len(t, resp.Dependencies, len(tc.deps))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_total 1"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestUnknownPath(t *testing.T) {
	rec := get(t, newTestRouter(), "/appointments")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RequestIDMiddleware(RecoverMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := get(t, h, "/anything")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "internal_error", resp.Error)
}
