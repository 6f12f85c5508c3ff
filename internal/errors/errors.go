// errors описывает таксономию ошибок клиента клиники и их HTTP-представление.
//
// Классы ошибок:
//   - ValidationError: локальная проверка до запроса, сеть не трогаем;
//   - AuthError: бэкенд отклонил login/register, текущая сессия не сбрасывается;
//   - ErrSessionExpired: 401 и неудачный refresh, локальное состояние стёрто;
//   - HTTPError: любой другой не-2xx, сообщение от сервера или текст статуса;
//   - ErrNetwork: запрос не завершился, отображается так же, как HTTPError.
//
// Пользователю показываем только Message(err), без стектрейсов и обёрток op.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// DefaultMessage: текст, если ни сервер, ни статус ничего не сообщили.
const DefaultMessage = "request failed"

var (
	// ErrUnauthorized: ответ 401 на обычный вызов API.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionExpired: сессию восстановить не удалось.
	ErrSessionExpired = errors.New("session expired")
	// ErrNetwork: запрос не дошёл до ответа.
	ErrNetwork = errors.New("network failure")
	// ErrForeignOrigin: попытка отправить запрос не на настроенный origin API.
	ErrForeignOrigin = errors.New("request target outside api origin")
	// ErrNotFound: 404 на запрос конкретного ресурса.
	ErrNotFound = errors.New("not found")
)

// HTTPError: не-2xx ответ бэкенда.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Is позволяет errors.Is(err, ErrUnauthorized) и errors.Is(err, ErrNotFound).
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}

	return false
}

// ValidationError: поле формы не прошло локальную проверку.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}

	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// AuthError: бэкенд отклонил учётные данные или регистрацию.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth rejected (%d): %s", e.Status, e.Message)
}

// Invalid: короткий конструктор ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Message возвращает человекочитаемый текст ошибки для UI.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		ve *ValidationError
		ae *AuthError
		he *HTTPError
	)

	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.Is(err, ErrSessionExpired):
		return ErrSessionExpired.Error()
	case errors.As(err, &he):
		return he.Message
	case errors.Is(err, ErrNetwork):
		return ErrNetwork.Error()
	case errors.Is(err, ErrForeignOrigin):
		return ErrForeignOrigin.Error()
	default:
		return DefaultMessage
	}
}

// APIError: единый формат ответа веб-фронта.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse: корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку клиента в HTTP-статус и тело ответа фронта.
//
// Поведение:
//   - nil и неизвестные ошибки: 500/internal без деталей;
//   - ValidationError: 400/invalid_argument;
//   - AuthError: статус бэкенда (обычно 401)/unauthenticated;
//   - ErrSessionExpired: 401/session_expired;
//   - HTTPError: статус бэкенда пробрасывается как есть;
//   - ErrNetwork: 502/unavailable;
//   - ErrForeignOrigin: 500/internal (ошибка программы, а не пользователя).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

func classify(err error) (int, string, string) {
	if err == nil {
		return http.StatusInternalServerError, "internal", "internal error"
	}

	var (
		ve *ValidationError
		ae *AuthError
		he *HTTPError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "invalid_argument", ve.Message
	case errors.As(err, &ae):
		status := ae.Status
		if status < 400 {
			status = http.StatusUnauthorized
		}
		return status, "unauthenticated", ae.Message
	case errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized, "session_expired", ErrSessionExpired.Error()
	case errors.As(err, &he):
		return he.Status, codeFromStatus(he.Status), he.Message
	case errors.Is(err, ErrNetwork):
		return http.StatusBadGateway, "unavailable", "service unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	case http.StatusTooManyRequests:
		return "resource_exhausted"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusGatewayTimeout:
		return "deadline_exceeded"
	case StatusClientClosedRequest:
		return "canceled"
	}

	if status >= 500 {
		return "internal"
	}

	return "failed_precondition"
}

// WriteError: хелпер для HTTP-хендлеров веб-фронта.
// Пишет статус и тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
