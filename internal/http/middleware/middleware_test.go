package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/dental-clinic/internal/api/transport"
	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
)

// capHandler: slog.Handler, который запоминает последнюю запись и её атрибуты
// вместе с базовыми из Logger.With.
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.base = append(h.base, attrs...)

	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string

	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mk("m1"), mk("m2")).ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	t.Parallel()

	var seenHeader, seenCtx string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get("X-Request-Id")
		seenCtx, _ = r.Context().Value(transport.CtxRequestID).(string)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/turnos"))

	id := rr.Header().Get("X-Request-Id")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, id, seenHeader)
	require.Equal(t, id, seenCtx)
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := makeReq("/turnos")
	req.Header.Set("X-Request-Id", "rid-123")

	Chain(http.NotFoundHandler(), RequestID()).ServeHTTP(rr, req)
	require.Equal(t, "rid-123", rr.Header().Get("X-Request-Id"))
}

func TestRequestID_ReplacesUnsafeIncoming(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		id   string
	}{
		{"spaces", "rid 1"},
		{"newline", "rid\nlevel=ERROR"},
		{"quote", `rid"x`},
		{"too_long", strings.Repeat("a", maxRequestIDLen+1)},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var seenCtx string
			h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seenCtx, _ = r.Context().Value(transport.CtxRequestID).(string)
			})

			req := makeReq("/turnos")
			req.Header.Set("X-Request-Id", tc.id)
			rr := httptest.NewRecorder()
			Chain(h, RequestID()).ServeHTTP(rr, req)

			id := rr.Header().Get("X-Request-Id")
			require.NotEqual(t, tc.id, id)
			_, err := uuid.Parse(id)
			require.NoError(t, err)
			require.Equal(t, id, seenCtx)
		})
	}

	require.True(t, validRequestID(strings.Repeat("a", maxRequestIDLen)))
	require.True(t, validRequestID("3f2c.ab_9-Z"))
}

func TestRecover_WritesUnifiedError(t *testing.T) {
	t.Parallel()

	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := httptest.NewRecorder()
	req := makeReq("/panic")
	req.Header.Set("X-Request-Id", "rid-p")

	Chain(boom, Recover()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "internal", env.Error.Code)
	require.Equal(t, "rid-p", env.Error.RequestID)
	require.NotContains(t, rr.Body.String(), "boom")
}

func TestRecover_RepanicsAbortHandler(t *testing.T) {
	t.Parallel()

	abort := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Chain(abort, Recover()).ServeHTTP(httptest.NewRecorder(), makeReq("/abort"))
	})
}

func TestLogging_WritesRecord(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	})

	rr := httptest.NewRecorder()
	req := makeReq("/pacientes")
	req.Header.Set("X-Request-Id", "rid-456")

	Chain(final, RequestID(), Logging(slog.New(h))).ServeHTTP(rr, req)

	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/pacientes", h.attrs["path"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
	require.EqualValues(t, 10, h.attrs["bytes"])
	require.Equal(t, "rid-456", h.attrs["request_id"])
	require.Contains(t, h.attrs, "dur")
}

func TestLogging_RedirectLocation(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
	})

	Chain(final, Logging(slog.New(h))).ServeHTTP(httptest.NewRecorder(), makeReq("/turnos"))

	require.EqualValues(t, http.StatusTemporaryRedirect, h.attrs["status"])
	require.Equal(t, "/login", h.attrs["location"])
}

func TestLogging_EmptyHandlerIs200(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), Logging(slog.New(h))).
		ServeHTTP(httptest.NewRecorder(), makeReq("/livez"))

	require.EqualValues(t, http.StatusOK, h.attrs["status"])
}

func TestStatusWriter(t *testing.T) {
	t.Parallel()

	sw := newStatusWriter(httptest.NewRecorder())
	_, _ = sw.Write([]byte("abcd"))
	sw.WriteHeader(http.StatusInternalServerError)

	require.Equal(t, http.StatusOK, sw.Status())
	require.Equal(t, 4, sw.count)
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	var has bool
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, has = r.Context().Deadline()
	})

	Chain(h, Timeout(0)).ServeHTTP(httptest.NewRecorder(), makeReq("/"))
	require.False(t, has)

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/"))
	require.True(t, has)
	require.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/").WithContext(ctx))
	require.True(t, has)
	require.WithinDuration(t, time.Now().Add(time.Hour), deadline, time.Minute)
}

func TestTimeout_ExpiredWritesGatewayTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	Chain(slow, Timeout(20*time.Millisecond)).ServeHTTP(rr, makeReq("/turnos"))

	require.Equal(t, http.StatusGatewayTimeout, rr.Code)

	var env apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Equal(t, "deadline_exceeded", env.Error.Code)
}

func TestTimeout_KeepsWrittenResponse(t *testing.T) {
	t.Parallel()

	redirected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	Chain(redirected, Timeout(20*time.Millisecond)).ServeHTTP(rr, makeReq("/turnos"))

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	require.Equal(t, "/login", rr.Header().Get("Location"))
}
