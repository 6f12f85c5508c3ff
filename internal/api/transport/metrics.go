package transport

import (
	"net/http"

	"github.com/pribylovaa/dental-clinic/internal/metrics"
)

// WithMetrics считает исходящие запросы по методу и коду ответа.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if m == nil {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil {
				m.ObserveRequest(r.Method, 0)
				return resp, err
			}

			m.ObserveRequest(r.Method, resp.StatusCode)

			return resp, nil
		})
	}
}
