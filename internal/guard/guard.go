// guard: проверка сессии перед отдачей защищённой страницы.
//
// Решение на каждую навигацию:
//   - публичный путь: пропускаем;
//   - нет refresh-cookie: редирект на вход без обращения к API;
//   - cookie есть: синхронный POST /auth/refresh от имени браузера;
//     успех пропускает дальше, неуспех стирает cookie и уводит на вход.
package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/dental-clinic/internal/api/transport"
	"github.com/pribylovaa/dental-clinic/internal/metrics"
	logctx "github.com/pribylovaa/dental-clinic/internal/pkg/log"
)

const refreshPath = "/auth/refresh"

var errRejected = errors.New("refresh rejected")

type Options struct {
	// APIURL: базовый адрес API; пустой означает origin входящего запроса.
	APIURL      string
	CookieName  string
	LoginPath   string
	PublicPaths []string
	// Timeout на проверочный refresh; <=0 без собственного таймаута.
	Timeout time.Duration
	// HTTPClient для server-to-server запроса; без cookie jar.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

type Guard struct {
	apiURL  string
	cookie  string
	login   string
	public  []string
	timeout time.Duration
	hc      *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics
}

func New(opts Options) *Guard {
	g := &Guard{
		apiURL:  strings.TrimRight(opts.APIURL, "/"),
		cookie:  opts.CookieName,
		login:   opts.LoginPath,
		public:  opts.PublicPaths,
		timeout: opts.Timeout,
		hc:      opts.HTTPClient,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}

	if g.cookie == "" {
		g.cookie = "refresh_token"
	}
	if g.login == "" {
		g.login = "/login"
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	if g.hc == nil {
		g.hc = &http.Client{Transport: transport.Chain(nil, transport.WithRequestID())}
	}

	// Редиректы API не следуем: для гарда это неуспех.
	hc := *g.hc
	hc.Jar = nil
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	g.hc = &hc

	return g
}

// IsPublic: путь совпадает с публичным префиксом целиком или по границе сегмента.
func (g *Guard) IsPublic(path string) bool {
	if path == g.login {
		return true
	}

	for _, p := range g.public {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}

	return false
}

// Middleware применяет гард к next.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.IsPublic(r.URL.Path) {
			g.metrics.ObserveGuard(metrics.GuardPublic)
			next.ServeHTTP(w, r)
			return
		}

		l := logctx.From(r.Context())

		c, err := r.Cookie(g.cookie)
		if err != nil || c.Value == "" {
			g.metrics.ObserveGuard(metrics.GuardNoCookie)
			l.Debug("guard_no_cookie", slog.String("path", r.URL.Path))
			g.redirect(w, r)
			return
		}

		rotated, err := g.check(r, c.Value)
		if err != nil {
			decision := metrics.GuardUpstream
			if errors.Is(err, errRejected) {
				decision = metrics.GuardRejected
			}
			g.metrics.ObserveGuard(decision)

			l.Info("guard_rejected",
				slog.String("path", r.URL.Path),
				slog.String("decision", decision),
				slog.String("err", err.Error()),
			)

			g.expireCookie(w)
			g.redirect(w, r)
			return
		}

		for _, rc := range rotated {
			w.Header().Add("Set-Cookie", rc)
		}

		g.metrics.ObserveGuard(metrics.GuardAllowed)
		next.ServeHTTP(w, r)
	})
}

// check подтверждает сессию и возвращает Set-Cookie с новой refresh-cookie,
// которые нужно передать браузеру.
func (g *Guard) check(r *http.Request, value string) ([]string, error) {
	ctx := r.Context()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base(r)+refreshPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build refresh: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: g.cookie, Value: value})

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", errRejected, resp.StatusCode)
	}

	var rotated []string
	for _, line := range resp.Header.Values("Set-Cookie") {
		if name, _, ok := strings.Cut(line, "="); ok && strings.TrimSpace(name) == g.cookie {
			rotated = append(rotated, line)
		}
	}

	return rotated, nil
}

// base: настроенный API или origin входящего запроса.
func (g *Guard) base(r *http.Request) string {
	if g.apiURL != "" {
		return g.apiURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

func (g *Guard) redirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, g.login, http.StatusTemporaryRedirect)
}

// expireCookie стирает refresh-cookie в браузере (Max-Age=0).
func (g *Guard) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
