package transport

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/dental-clinic/internal/pkg/log"
)

// WithLogging пишет одну запись уровня Info на каждый исходящий запрос:
// msg="http_client", method, path, status, dur, request_id.
//
// Безопасность: тело, Authorization и Cookie не логируются.
func WithLogging(base *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			l := base
			if l == nil {
				l = logctx.From(r.Context())
			}

			start := time.Now()
			resp, err := next.RoundTrip(r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("dur", time.Since(start)),
			}

			if rid := r.Header.Get("X-Request-Id"); rid != "" {
				attrs = append(attrs, slog.String("request_id", rid))
			}

			if err != nil {
				attrs = append(attrs, slog.String("err", err.Error()))
				l.LogAttrs(r.Context(), slog.LevelWarn, "http_client", attrs...)
				return resp, err
			}

			attrs = append(attrs, slog.Int("status", resp.StatusCode))
			l.LogAttrs(r.Context(), slog.LevelInfo, "http_client", attrs...)

			return resp, nil
		})
	}
}
