package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// WithRequestID добавляет X-Request-Id в исходящий запрос:
//  1. уже выставленный заголовок не трогается;
//  2. иначе берётся id из контекста по ключу CtxRequestID;
//  3. иначе генерируется UUID.
func WithRequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("X-Request-Id") != "" {
				return next.RoundTrip(r)
			}

			rid, _ := r.Context().Value(CtxRequestID).(string)
			if rid == "" {
				rid = uuid.NewString()
			}

			r = r.Clone(r.Context())
			r.Header.Set("X-Request-Id", rid)

			return next.RoundTrip(r)
		})
	}
}

// WithUserAgent выставляет User-Agent; пустое значение делает мидлвар no-op.
func WithUserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if ua == "" {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set("User-Agent", ua)

			return next.RoundTrip(r)
		})
	}
}
