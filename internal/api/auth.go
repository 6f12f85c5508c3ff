package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/pkg/redact"
	"github.com/pribylovaa/dental-clinic/internal/validation"
)

// Login: вход по email и паролю. Отказ бэкенда даёт *AuthError и не
// запускает refresh: неверный пароль не означает истёкшую сессию.
func (c *Client) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	const op = "api.Login"

	if err := validation.Login(email, password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := c.authenticate(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.InfoContext(ctx, "login_ok", slog.String("email", redact.Email(email)))

	return p, nil
}

// Register проверяет форму локально и заводит пользователя.
// Успех равносилен входу: сессия устанавливается сразу.
func (c *Client) Register(ctx context.Context, form validation.RegisterForm) (*models.UserProfile, error) {
	const op = "api.Register"

	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req := form.Request()

	p, err := c.authenticate(ctx, "/auth/register", req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.InfoContext(ctx, "register_ok",
		slog.String("email", redact.Email(req.Email)),
		slog.String("role", string(p.Role)),
	)

	return p, nil
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*models.UserProfile, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	resp, err := c.exec.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: data, NoAuth: true})
	if err != nil {
		var he *apierrors.HTTPError
		if errors.As(err, &he) {
			return nil, &apierrors.AuthError{Status: he.Status, Message: he.Message}
		}
		return nil, err
	}

	var out models.AuthResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if out.AccessToken == "" {
		return nil, fmt.Errorf("decode response: %w", errEmptyToken)
	}

	if err := c.tokens.Install(ctx, out.AccessToken, out.User); err != nil {
		c.log.WarnContext(ctx, "profile_cache_failed", slog.String("err", err.Error()))
	}

	return &out.User, nil
}

// Logout уведомляет бэкенд и стирает локальную сессию в любом случае.
// Ошибка бэкенда только логируется.
func (c *Client) Logout(ctx context.Context) {
	_, err := c.exec.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/logout", Body: []byte("{}")})
	if err != nil {
		c.log.WarnContext(ctx, "logout_failed", slog.String("err", err.Error()))
	}

	c.tokens.Clear(ctx)
}

// Profile запрашивает профиль текущего пользователя и обновляет кэш.
func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	const op = "api.Profile"

	var p models.UserProfile
	if err := c.Post(ctx, "/auth/profile", struct{}{}, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.tokens.SaveProfile(ctx, p); err != nil {
		c.log.WarnContext(ctx, "profile_cache_failed", slog.String("err", err.Error()))
	}

	return &p, nil
}

// Restore: восстановление сессии при старте процесса.
//
// Access-токен перезапуск не переживает, поэтому сначала refresh по cookie.
// Если refresh удался, а профиля в кэше нет, профиль запрашивается.
// При неудаче возвращается профиль, прочитанный до refresh,
// только для отображения; Authenticated() при этом false.
func (c *Client) Restore(ctx context.Context) (*models.UserProfile, error) {
	const op = "api.Restore"

	cached, err := c.tokens.Profile(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "profile_cache_read_failed", slog.String("err", err.Error()))
	}

	if !c.refresher.Refresh(ctx) {
		return cached, nil
	}

	if cached != nil {
		return cached, nil
	}

	p, err := c.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// CurrentUser: кэшированный профиль, если он есть.
func (c *Client) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	return c.tokens.Profile(ctx)
}

// Authenticated сообщает, есть ли access-токен в памяти.
func (c *Client) Authenticated() bool { return c.tokens.Authenticated() }
