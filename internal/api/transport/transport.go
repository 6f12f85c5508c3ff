// transport: цепочка http.RoundTripper-мидлваров для исходящих вызовов API.
// Порядок и контракт те же, что у серверных мидлваров: первый в списке
// оборачивает всех остальных.
package transport

import (
	"net/http"
)

type CtxKey string

const (
	// CtxRequestID: id запроса, который прокидывается в X-Request-Id.
	CtxRequestID CtxKey = "request_id"
)

// Middleware: стандартный мидлвар для http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc адаптирует функцию к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет мидлвары к base в порядке их перечисления.
// base == nil означает http.DefaultTransport.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}

	return base
}
