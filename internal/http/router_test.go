package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/dental-clinic/internal/guard"
	"github.com/pribylovaa/dental-clinic/internal/metrics"
)

func newTestRouter(t *testing.T, ready *atomic.Bool) (http.Handler, *atomic.Int32) {
	t.Helper()

	var refreshes atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		if c, err := r.Cookie("refresh_token"); err == nil && c.Value == "good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(api.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	g := guard.New(guard.Options{
		APIURL:      api.URL,
		LoginPath:   "/login",
		PublicPaths: []string{"/login", "/register"},
		Metrics:     m,
	})

	pages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page " + r.URL.Path))
	})

	return NewRouter(Options{Guard: g, Pages: pages, Ready: ready, Gatherer: reg}), &refreshes
}

func TestRouter_ServiceEndpointsBypassGuard(t *testing.T) {
	t.Parallel()

	var ready atomic.Bool
	h, refreshes := newTestRouter(t, &ready)

	for _, path := range []string{"/livez", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	ready.Store(true)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	require.Zero(t, refreshes.Load())
}

func TestRouter_PagesBehindGuard(t *testing.T) {
	t.Parallel()

	h, refreshes := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "page /login", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/turnos", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	require.Equal(t, "/login", rr.Header().Get("Location"))
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	require.Zero(t, refreshes.Load())

	req := httptest.NewRequest(http.MethodGet, "/turnos", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "good"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "page /turnos", rr.Body.String())
	require.EqualValues(t, 1, refreshes.Load())
}

func TestRouter_RecoversFromPanickingPage(t *testing.T) {
	t.Parallel()

	h := NewRouter(Options{
		Pages: http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
