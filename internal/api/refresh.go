package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/dental-clinic/internal/metrics"
	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/session"
)

const refreshPath = "/auth/refresh"

// RefreshCoordinator получает новый access-токен по refresh-cookie,
// которую HTTP-клиент отправляет сам (cookie jar).
//
// Любой неуспех стирает сессию целиком: токен и кэш профиля.
type RefreshCoordinator struct {
	exec    *Executor
	tokens  *session.Store
	log     *slog.Logger
	metrics *metrics.Metrics

	// coalesce: параллельные вызовы делят один запрос /auth/refresh.
	coalesce bool
	group    singleflight.Group
}

func NewRefreshCoordinator(exec *Executor, tokens *session.Store, log *slog.Logger, m *metrics.Metrics, coalesce bool) *RefreshCoordinator {
	if log == nil {
		log = slog.Default()
	}

	return &RefreshCoordinator{
		exec:     exec,
		tokens:   tokens,
		log:      log,
		metrics:  m,
		coalesce: coalesce,
	}
}

// Refresh возвращает true, если новый токен получен и установлен.
// Ошибки наружу не отдаются: результат только успех или неуспех.
func (r *RefreshCoordinator) Refresh(ctx context.Context) bool {
	ok, _ := r.await(ctx)
	return ok
}

// await: как Refresh, но различает отказ refresh и уход ожидающего.
// Общий refresh не привязан к отмене первого вызвавшего: он идёт на
// context.WithoutCancel с таймаутом executor. Ожидающий с отменённым
// контекстом получает ctx.Err(), сессия при этом не трогается.
func (r *RefreshCoordinator) await(ctx context.Context) (bool, error) {
	if !r.coalesce {
		return r.refresh(ctx), nil
	}

	ch := r.group.DoChan(refreshPath, func() (any, error) {
		return r.refresh(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (r *RefreshCoordinator) refresh(ctx context.Context) bool {
	l := r.log

	resp, err := r.exec.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   refreshPath,
		NoAuth: true,
	})
	if err != nil {
		return r.fail(ctx, l, "request", err)
	}

	var out models.RefreshResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return r.fail(ctx, l, "decode", err)
	}

	if out.AccessToken == "" {
		return r.fail(ctx, l, "decode", errEmptyToken)
	}

	r.tokens.SetAccessToken(out.AccessToken)
	r.metrics.ObserveRefresh(true)
	l.Debug("token_refreshed")

	return true
}

func (r *RefreshCoordinator) fail(ctx context.Context, l *slog.Logger, stage string, err error) bool {
	r.tokens.Clear(ctx)
	r.metrics.ObserveRefresh(false)

	l.Warn("token_refresh_failed",
		slog.String("stage", stage),
		slog.String("err", err.Error()),
	)

	return false
}
