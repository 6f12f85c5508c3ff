package api

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/dental-clinic/internal/metrics"
	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/session"
	"github.com/pribylovaa/dental-clinic/internal/testutil/fakeapi"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!x"
)

type harness struct {
	srv      *fakeapi.Server
	client   *Client
	tokens   *session.Store
	profiles *session.MemoryProfileStore
	jar      http.CookieJar
	metrics  *metrics.Metrics
	navs     atomic.Int32
}

type harnessOpt func(*Options)

func withCoalesce() harnessOpt { return func(o *Options) { o.CoalesceRefresh = true } }

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	srv.AddUser(models.UserProfile{Nombre: "Admin", Email: adminEmail, Role: models.RoleAdmin}, adminPassword)

	h := &harness{
		srv:      srv,
		profiles: session.NewMemoryProfileStore(),
		jar:      NewMemoryJar(),
		metrics:  metrics.Nop(),
	}
	h.tokens = session.New(session.Options{Profiles: h.profiles, Durable: true})

	o := Options{
		BaseURL: srv.URL,
		Jar:     h.jar,
		Tokens:  h.tokens,
		Navigator: NavigatorFunc(func(context.Context) {
			h.navs.Add(1)
		}),
		Metrics: h.metrics,
	}
	for _, fn := range opts {
		fn(&o)
	}

	c, err := New(o)
	require.NoError(t, err)
	h.client = c

	return h
}

// login выполняет вход администратора и возвращает выданный токен.
func (h *harness) login(t *testing.T) string {
	t.Helper()

	_, err := h.client.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	tok := h.tokens.AccessToken()
	require.NotEmpty(t, tok)

	return tok
}

// seedCookie кладёт refresh-cookie в jar, как после прошлого запуска.
func (h *harness) seedCookie(t *testing.T, email string) {
	t.Helper()

	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)

	h.jar.SetCookies(u, []*http.Cookie{h.srv.IssueRefresh(email)})
}

func (h *harness) cachedProfile(t *testing.T) *models.UserProfile {
	t.Helper()

	p, err := h.profiles.Load(context.Background())
	require.NoError(t, err)

	return p
}
