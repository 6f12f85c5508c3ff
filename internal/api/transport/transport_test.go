package transport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/dental-clinic/internal/metrics"
)

// echo: RoundTripper, который запоминает последний запрос.
type echo struct {
	last   *http.Request
	status int
}

func (e *echo) RoundTrip(r *http.Request) (*http.Response, error) {
	e.last = r
	status := e.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{StatusCode: status, Header: http.Header{}, Body: http.NoBody, Request: r}, nil
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var got []string
	mk := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				got = append(got, name)
				return next.RoundTrip(r)
			})
		}
	}

	rt := Chain(&echo{}, mk("a"), mk("b"), mk("c"))
	req := httptest.NewRequest(http.MethodGet, "http://api.local/pacientes", nil)

	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestWithRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates", func(t *testing.T) {
		base := &echo{}
		req := httptest.NewRequest(http.MethodGet, "http://api.local/turnos", nil)

		_, err := Chain(base, WithRequestID()).RoundTrip(req)
		require.NoError(t, err)
		require.Len(t, base.last.Header.Get("X-Request-Id"), 36)
		require.Empty(t, req.Header.Get("X-Request-Id"), "original request must not be mutated")
	})

	t.Run("from_context", func(t *testing.T) {
		base := &echo{}
		ctx := context.WithValue(context.Background(), CtxRequestID, "rid-ctx")
		req := httptest.NewRequest(http.MethodGet, "http://api.local/turnos", nil).WithContext(ctx)

		_, err := Chain(base, WithRequestID()).RoundTrip(req)
		require.NoError(t, err)
		require.Equal(t, "rid-ctx", base.last.Header.Get("X-Request-Id"))
	})

	t.Run("keeps_existing", func(t *testing.T) {
		base := &echo{}
		req := httptest.NewRequest(http.MethodGet, "http://api.local/turnos", nil)
		req.Header.Set("X-Request-Id", "given")

		_, err := Chain(base, WithRequestID()).RoundTrip(req)
		require.NoError(t, err)
		require.Equal(t, "given", base.last.Header.Get("X-Request-Id"))
	})
}

func TestWithUserAgent(t *testing.T) {
	t.Parallel()

	base := &echo{}
	req := httptest.NewRequest(http.MethodGet, "http://api.local/", nil)

	_, err := Chain(base, WithUserAgent("clinic-test")).RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, "clinic-test", base.last.Header.Get("User-Agent"))

	base = &echo{}
	_, err = Chain(base, WithUserAgent("")).RoundTrip(req)
	require.NoError(t, err)
	require.Same(t, req, base.last)
}

func TestWithLogging_NoSecrets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodPost, "http://api.local/auth/login", strings.NewReader(`{"password":"Secret1!"}`))
	req.Header.Set("Authorization", "Bearer tok-123")
	req.Header.Set("Cookie", "refresh_token=rt-456")
	req.Header.Set("X-Request-Id", "rid-9")

	_, err := Chain(&echo{status: http.StatusCreated}, WithLogging(l)).RoundTrip(req)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"msg":"http_client"`)
	require.Contains(t, out, `"status":201`)
	require.Contains(t, out, `"path":"/auth/login"`)
	require.Contains(t, out, `"request_id":"rid-9"`)
	require.NotContains(t, out, "tok-123")
	require.NotContains(t, out, "rt-456")
	require.NotContains(t, out, "Secret1!")
}

func TestWithMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	req := httptest.NewRequest(http.MethodGet, "http://api.local/pagos", nil)

	_, err := Chain(&echo{status: http.StatusNotFound}, WithMetrics(m)).RoundTrip(req)
	require.NoError(t, err)

	failing := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	_, err = Chain(failing, WithMetrics(m)).RoundTrip(req)
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "404")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "error")))
}
