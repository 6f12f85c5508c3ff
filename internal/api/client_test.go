package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/session"
)

func TestNew_RequiresTokens(t *testing.T) {
	t.Parallel()

	_, err := New(Options{BaseURL: "http://localhost:3001"})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "::", Tokens: session.New(session.Options{})})
	require.Error(t, err)
}

func TestClient_NoUnauthorized_NoRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)

	var out []models.Paciente
	require.NoError(t, h.client.Get(context.Background(), "/pacientes", &out))
	require.Len(t, out, 1)

	require.Equal(t, 1, h.srv.Count("GET /pacientes"))
	require.Zero(t, h.srv.Count("POST /auth/refresh"))
	require.Zero(t, h.navs.Load())
}

func TestClient_RetryAfterRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	old := h.login(t)
	h.srv.ExpireAccess()

	var out []models.Paciente
	require.NoError(t, h.client.Get(context.Background(), "/pacientes", &out))
	require.Len(t, out, 1)

	require.Equal(t, 2, h.srv.Count("GET /pacientes"))
	require.Equal(t, 1, h.srv.Count("POST /auth/refresh"))

	fresh := h.tokens.AccessToken()
	require.NotEmpty(t, fresh)
	require.NotEqual(t, old, fresh)
	require.Equal(t, "Bearer "+fresh, h.srv.Header("GET /pacientes").Get("Authorization"))

	require.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Retries))
	require.Zero(t, h.navs.Load())
}

// Повтор после refresh несёт новый токен T2.
func TestClient_RetryCarriesNewToken(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		auths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"T2"}`))
		case "/pacientes":
			mu.Lock()
			auths = append(auths, r.Header.Get("Authorization"))
			mu.Unlock()

			if r.Header.Get("Authorization") != "Bearer T2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[{"id":7,"nombre":"Lucía"}]`))
		}
	}))
	defer srv.Close()

	tokens := session.New(session.Options{})
	tokens.SetAccessToken("T1")

	c, err := New(Options{BaseURL: srv.URL, Tokens: tokens})
	require.NoError(t, err)

	var out []models.Paciente
	require.NoError(t, c.Get(context.Background(), "/pacientes", &out))
	require.Equal(t, []models.Paciente{{ID: 7, Nombre: "Lucía"}}, out)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"Bearer T1", "Bearer T2"}, auths)
	require.Equal(t, "T2", tokens.AccessToken())
}

func TestClient_RefreshFails_SessionExpired(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)
	require.NotNil(t, h.cachedProfile(t))

	h.srv.ExpireAccess()
	h.srv.FailRefresh(http.StatusUnauthorized)

	err := h.client.Get(context.Background(), "/pacientes", nil)
	require.ErrorIs(t, err, apierrors.ErrSessionExpired)
	require.Equal(t, "session expired", apierrors.Message(err))

	require.Empty(t, h.tokens.AccessToken())
	require.Nil(t, h.cachedProfile(t))
	require.Equal(t, int32(1), h.navs.Load())
	require.Equal(t, 1, h.srv.Count("GET /pacientes"))
}

// 401 на повторе завершает сессию, второго refresh нет.
func TestClient_SecondUnauthorizedIsTerminal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)
	h.srv.DenyAll(true)

	err := h.client.Get(context.Background(), "/pacientes", nil)
	require.ErrorIs(t, err, apierrors.ErrSessionExpired)

	require.Equal(t, 2, h.srv.Count("GET /pacientes"))
	require.Equal(t, 1, h.srv.Count("POST /auth/refresh"))
	require.Empty(t, h.tokens.AccessToken())
	require.Nil(t, h.cachedProfile(t))
	require.Equal(t, int32(1), h.navs.Load())
}

func TestClient_ServerError_NoRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)

	err := h.client.Post(context.Background(), "/pacientes", models.CreatePacienteRequest{}, nil)

	var he *apierrors.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Status)
	require.Equal(t, "nombre should not be empty; nombre must be a string", he.Message)

	require.Zero(t, h.srv.Count("POST /auth/refresh"))
	require.True(t, h.client.Authenticated())
}

func TestClient_RetryReplaysBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)
	h.srv.ExpireAccess()

	var created models.Paciente
	err := h.client.Post(context.Background(), "/pacientes",
		models.CreatePacienteRequest{Nombre: "Marta Ruiz", DNI: "28999111"}, &created)
	require.NoError(t, err)

	require.Equal(t, "Marta Ruiz", created.Nombre)
	require.Equal(t, "28999111", created.DNI)
	require.Equal(t, 2, h.srv.Count("POST /pacientes"))
}

func TestClient_DeleteNoContent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)

	out := map[string]any{"untouched": true}
	require.NoError(t, h.client.Delete(context.Background(), "/pagos/5", &out))
	require.Equal(t, map[string]any{"untouched": true}, out)

	resp, err := h.client.Send(context.Background(), http.MethodDelete, "/pagos/5", nil)
	require.NoError(t, err)
	require.True(t, resp.NoContent)
	require.Equal(t, http.StatusNoContent, resp.Status)
}

func TestClient_EncodeError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	err := h.client.Post(context.Background(), "/pacientes", map[string]any{"bad": make(chan int)}, nil)
	require.Error(t, err)
	require.Zero(t, h.srv.Count("POST /pacientes"))
}

func TestClient_DecodeError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t)

	var out int
	err := h.client.Get(context.Background(), "/pacientes", &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_ConcurrentUnauthorized_Coalesced(t *testing.T) {
	t.Parallel()

	h := newHarness(t, withCoalesce())
	h.login(t)
	h.srv.ExpireAccess()

	const n = 8

	var (
		wg   sync.WaitGroup
		errs atomic.Int32
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.client.Get(context.Background(), "/pacientes", nil); err != nil {
				errs.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, errs.Load())
	require.True(t, h.client.Authenticated())

	refreshes := h.srv.Count("POST /auth/refresh")
	require.GreaterOrEqual(t, refreshes, 1)
	require.LessOrEqual(t, refreshes, n)
	require.Zero(t, h.navs.Load())
}

func TestCallState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "send", stateSend.String())
	require.Equal(t, "refresh", stateRefresh.String())
	require.Equal(t, "retry", stateRetry.String())
	require.Equal(t, "expired", stateExpired.String())
	require.Equal(t, "unknown", callState(42).String())
}
