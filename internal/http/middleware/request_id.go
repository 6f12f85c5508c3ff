package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/dental-clinic/internal/api/transport"
)

// maxRequestIDLen: браузерный id длиннее считается мусором.
const maxRequestIDLen = 64

// RequestID обеспечивает наличие X-Request-Id у навигации.
//
// Входящий id приходит от браузера и дальше попадает в логи и в refresh
// гарда к API, поэтому принимается только короткий id из [A-Za-z0-9._-];
// иначе выдаётся новый UUID (тот же формат, что у исходящих запросов клиента).
// id кладётся в заголовки запроса и ответа и в контекст по ключу transport.CtxRequestID.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if !validRequestID(id) {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)

			ctx := context.WithValue(r.Context(), transport.CtxRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}

	return true
}
