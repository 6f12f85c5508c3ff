package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
)

// maxBody ограничивает чтение тела ответа.
const maxBody = 4 << 20

// TokenSource отдаёт актуальный access-токен в момент отправки.
type TokenSource interface {
	AccessToken() string
}

// Request: один HTTP-вызов к API.
type Request struct {
	Method string
	// Path: относительный путь вида /pacientes?q=1, приклеивается к базовому URL.
	Path string
	// Body: уже сериализованный JSON; nil означает запрос без тела.
	Body []byte
	// NoAuth: не добавлять Authorization даже при наличии токена.
	NoAuth bool
}

// Response: успешный (2xx) ответ API.
type Response struct {
	Status int
	Body   []byte
	// NoContent: 204/205 или пустое тело; декодировать нечего.
	NoContent bool
}

// Executor выполняет ровно один запрос к API и переводит ответ
// в Response или типизированную ошибку. Повторов и refresh здесь нет.
type Executor struct {
	base    string
	origin  *url.URL
	hc      *http.Client
	tokens  TokenSource
	timeout time.Duration
}

// NewExecutor: baseURL может содержать префикс пути (https://host/api).
// Клиент hc дорабатывается: редиректы за пределы origin запрещены.
func NewExecutor(baseURL string, hc *http.Client, tokens TokenSource, timeout time.Duration) (*Executor, error) {
	const op = "api.NewExecutor"

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute http(s)", op, baseURL)
	}

	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}

	if hc == nil {
		hc = &http.Client{}
	}

	// Копия, чтобы не менять чужой клиент.
	c := *hc
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !sameOrigin(req.URL, origin) {
			return apierrors.ErrForeignOrigin
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}

	return &Executor{
		base:    strings.TrimRight(u.String(), "/"),
		origin:  origin,
		hc:      &c,
		tokens:  tokens,
		timeout: timeout,
	}, nil
}

// Origin: scheme://host API, на который допускается отправка токена.
func (e *Executor) Origin() string { return e.origin.String() }

// Do отправляет запрос. Ошибки:
//   - ErrForeignOrigin: путь указывает за пределы API;
//   - *HTTPError: не-2xx (401 даёт errors.Is(err, ErrUnauthorized));
//   - ErrNetwork: ответа не было или тело не вычиталось.
func (e *Executor) Do(ctx context.Context, r Request) (*Response, error) {
	target, err := e.resolve(r.Path)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		if _, has := ctx.Deadline(); !has {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if !r.NoAuth && e.tokens != nil {
		if tok := e.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := e.hc.Do(req)
	if err != nil {
		if errors.Is(err, apierrors.ErrForeignOrigin) {
			return nil, apierrors.ErrForeignOrigin
		}
		return nil, fmt.Errorf("%w: %s %s: %v", apierrors.ErrNetwork, r.Method, r.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %v", apierrors.ErrNetwork, r.Method, r.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierrors.HTTPError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp, data),
		}
	}

	return &Response{
		Status:    resp.StatusCode,
		Body:      data,
		NoContent: resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent || len(bytes.TrimSpace(data)) == 0,
	}, nil
}

// resolve склеивает базовый URL и относительный путь и проверяет origin.
func (e *Executor) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "", fmt.Errorf("%w: %q", apierrors.ErrForeignOrigin, path)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("api: bad path %q: %w", path, err)
	}

	if ref.Scheme != "" || ref.Host != "" {
		return "", fmt.Errorf("%w: %q", apierrors.ErrForeignOrigin, path)
	}

	target := e.base + path

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("api: bad path %q: %w", path, err)
	}

	if !sameOrigin(u, e.origin) {
		return "", fmt.Errorf("%w: %q", apierrors.ErrForeignOrigin, path)
	}

	return target, nil
}

func sameOrigin(u, origin *url.URL) bool {
	return strings.EqualFold(u.Scheme, origin.Scheme) && strings.EqualFold(u.Host, origin.Host)
}

// errorBody: поля, в которых бэкенд сообщает о причине ошибки.
// message бывает строкой или массивом строк (ошибки валидации).
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// errorMessage: message, затем error, затем текст статуса, затем DefaultMessage.
func errorMessage(resp *http.Response, data []byte) string {
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		if msg := rawText(eb.Message); msg != "" {
			return msg
		}
		if msg := rawText(eb.Error); msg != "" {
			return msg
		}
	}

	if text := statusText(resp); text != "" {
		return text
	}

	return apierrors.DefaultMessage
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var list []string
	if json.Unmarshal(raw, &list) == nil {
		parts := list[:0]
		for _, p := range list {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, "; ")
	}

	return ""
}

// statusText: reason phrase из статусной строки ответа, иначе стандартный текст кода.
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}

	return http.StatusText(resp.StatusCode)
}
