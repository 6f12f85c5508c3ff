// api: клиент REST API клиники.
//
// Каждый вызов проходит ограниченный автомат:
//
//	send -> (401) -> refresh -> retry -> (401) -> expired
//
// Refresh выполняется не более одного раза на вызов, повтор не более одного,
// поэтому 401 на повторе завершает сессию, а не запускает новый круг.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/dental-clinic/internal/api/transport"
	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/metrics"
	"github.com/pribylovaa/dental-clinic/internal/session"
)

var errEmptyToken = errors.New("empty access_token")

// Navigator уводит пользователя на страницу входа после потери сессии.
type Navigator interface {
	RedirectToLogin(ctx context.Context)
}

// NavigatorFunc адаптирует функцию к Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context) { f(ctx) }

type Options struct {
	// BaseURL: адрес API, допускается префикс пути.
	BaseURL string
	// Jar хранит refresh-cookie; без него refresh работать не будет.
	Jar http.CookieJar
	// Transport: нижний RoundTripper; nil означает http.DefaultTransport.
	Transport http.RoundTripper
	UserAgent string
	// Timeout применяется к запросу, если у контекста нет дедлайна.
	Timeout time.Duration
	// CoalesceRefresh: параллельные 401 делят один refresh.
	CoalesceRefresh bool

	Tokens    *session.Store
	Navigator Navigator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

type Client struct {
	exec      *Executor
	refresher *RefreshCoordinator
	tokens    *session.Store
	nav       Navigator
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func New(opts Options) (*Client, error) {
	const op = "api.New"

	if opts.Tokens == nil {
		return nil, fmt.Errorf("%s: token store is required", op)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	nav := opts.Navigator
	if nav == nil {
		nav = NavigatorFunc(func(ctx context.Context) {
			log.InfoContext(ctx, "login_required")
		})
	}

	hc := &http.Client{
		Jar: opts.Jar,
		Transport: transport.Chain(opts.Transport,
			transport.WithRequestID(),
			transport.WithUserAgent(opts.UserAgent),
			transport.WithLogging(log),
			transport.WithMetrics(opts.Metrics),
		),
	}

	exec, err := NewExecutor(opts.BaseURL, hc, opts.Tokens, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Client{
		exec:      exec,
		refresher: NewRefreshCoordinator(exec, opts.Tokens, log, opts.Metrics, opts.CoalesceRefresh),
		tokens:    opts.Tokens,
		nav:       nav,
		log:       log,
		metrics:   opts.Metrics,
	}, nil
}

// Tokens: сессия, которой пользуется клиент.
func (c *Client) Tokens() *session.Store { return c.tokens }

// Refresh: явный refresh вне автомата (восстановление сессии на старте).
func (c *Client) Refresh(ctx context.Context) bool { return c.refresher.Refresh(ctx) }

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out == nil || resp.NoContent {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	return nil
}

// callState: шаг автомата одного вызова.
type callState int

const (
	stateSend callState = iota
	stateRefresh
	stateRetry
	stateExpired
)

func (s callState) String() string {
	switch s {
	case stateSend:
		return "send"
	case stateRefresh:
		return "refresh"
	case stateRetry:
		return "retry"
	case stateExpired:
		return "expired"
	}

	return "unknown"
}

// Send выполняет вызов через автомат и отдаёт сырой ответ.
// Тело сериализуется один раз и повторно используется при retry.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	req := Request{Method: method, Path: path}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		req.Body = data
	}

	state := stateSend
	for {
		switch state {
		case stateSend, stateRetry:
			resp, err := c.exec.Do(ctx, req)
			if !errors.Is(err, apierrors.ErrUnauthorized) {
				return resp, err
			}

			if state == stateRetry {
				state = stateExpired
			} else {
				state = stateRefresh
			}

		case stateRefresh:
			ok, err := c.refresher.await(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			if !ok {
				state = stateExpired
				continue
			}

			c.metrics.ObserveRetry()
			state = stateRetry

		case stateExpired:
			c.expire(ctx, method, path)
			return nil, fmt.Errorf("%s %s: %w", method, path, apierrors.ErrSessionExpired)
		}

		c.log.DebugContext(ctx, "api_call_state",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("state", state.String()),
		)
	}
}

// expire стирает сессию и уводит на вход.
func (c *Client) expire(ctx context.Context, method, path string) {
	c.tokens.Clear(ctx)

	c.log.InfoContext(ctx, "session_expired",
		slog.String("method", method),
		slog.String("path", path),
	)

	c.nav.RedirectToLogin(ctx)
}
