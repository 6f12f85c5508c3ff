package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	logctx "github.com/pribylovaa/dental-clinic/internal/pkg/log"
)

// Timeout ограничивает навигацию, включая синхронный refresh гарда.
//
//   - d <= 0: no-op;
//   - дедлайн у запроса уже есть: он сохраняется;
//   - дедлайн истёк, а обработчик ничего не записал: 504/deadline_exceeded
//     в едином формате ошибок вместо пустого 200.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.status == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(r.Context()).Warn("request_timeout", "path", r.URL.Path, "timeout", d)
				apierrors.WriteError(sw, r, &apierrors.HTTPError{
					Status:  http.StatusGatewayTimeout,
					Message: "request timed out",
				})
			}
		})
	}
}
