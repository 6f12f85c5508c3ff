package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/dental-clinic/internal/api"
	"github.com/pribylovaa/dental-clinic/internal/clinic"
	"github.com/pribylovaa/dental-clinic/internal/config"
	"github.com/pribylovaa/dental-clinic/internal/metrics"
	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/session"
)

// app: зависимости одного запуска команды.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	out   io.Writer
	store session.Opened
	// jar: cookie на диске; nil, если сессия живёт только в памяти.
	jar    *api.FileJar
	client *api.Client
	clinic *clinic.API
}

// newApp загружает конфиг, один раз проверяет хранилище профиля и
// собирает клиента. Jar на диске используется только при рабочем хранилище.
func newApp(ctx context.Context, cmd *cobra.Command, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log := setupLogger(cfg.Env, cmd.ErrOrStderr())

	opened, err := session.OpenProfileStore(ctx, cfg.Session, log)
	if err != nil {
		return nil, err
	}

	var (
		jar     http.CookieJar = api.NewMemoryJar()
		fileJar *api.FileJar
	)
	if opened.Durable {
		fj, err := api.OpenFileJar(cfg.Session.JarPath, log)
		if err != nil {
			log.Warn("cookie_jar_unavailable", slog.String("err", err.Error()))
		} else {
			jar, fileJar = fj, fj
		}
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		out:   cmd.OutOrStdout(),
		store: opened,
		jar:   fileJar,
	}

	tokens := session.New(session.Options{
		Profiles: opened.Profiles,
		Durable:  opened.Durable,
		Logger:   log,
	})

	a.client, err = api.New(api.Options{
		BaseURL:         cfg.API.URL,
		Jar:             jar,
		UserAgent:       cfg.API.UserAgent,
		Timeout:         cfg.Timeouts.Request,
		CoalesceRefresh: cfg.Session.CoalesceRefresh,
		Tokens:          tokens,
		Navigator: api.NavigatorFunc(func(context.Context) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Session expired, run: clinic login")
		}),
		Logger:  log,
		Metrics: metrics.Nop(),
	})
	if err != nil {
		_ = opened.Close()
		return nil, err
	}

	a.clinic = clinic.New(a.client)

	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("profile_store_close_failed", slog.String("err", err.Error()))
	}
}

// restore поднимает сессию из cookie; без неё защищённые команды не работают.
func (a *app) restore(ctx context.Context) (*models.UserProfile, error) {
	p, err := a.client.Restore(ctx)
	if err != nil {
		a.log.Warn("session_restore_failed", slog.String("err", err.Error()))
	}

	if !a.client.Authenticated() {
		return p, errNotLoggedIn
	}

	return p, nil
}

// forgetCookies удаляет сохранённые cookie, даже если бэкенд их не стёр.
func (a *app) forgetCookies() {
	if a.jar == nil {
		return
	}

	if err := a.jar.Clear(); err != nil {
		a.log.Warn("cookie_jar_clear_failed", slog.String("err", err.Error()))
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// withApp оборачивает RunE: собирает app и закрывает его по завершении.
func withApp(cfgPath func() string, protected bool, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cmd, cfgPath())
		if err != nil {
			return err
		}
		defer a.Close()

		if protected {
			if _, err := a.restore(ctx); err != nil {
				return err
			}
		}

		return fn(ctx, a, args)
	}
}
