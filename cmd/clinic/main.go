// clinic: консольный клиент клиники. Процесс ведёт себя как браузер:
// refresh-cookie хранится в cookie jar, access-токен живёт только в памяти
// и восстанавливается через refresh при каждом запуске.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "clinic",
		Short:         "Dental clinic API client",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	cfgPath := func() string { return configPath }

	cmd.AddCommand(
		loginCmd(cfgPath),
		registerCmd(cfgPath),
		logoutCmd(cfgPath),
		whoamiCmd(cfgPath),
		pacientesCmd(cfgPath),
		turnosCmd(cfgPath),
		historiaCmd(cfgPath),
		registrosCmd(cfgPath),
		pagosCmd(cfgPath),
		odontologosCmd(cfgPath),
		dashboardCmd(cfgPath),
	)

	return cmd
}

// userMessage: текст для пользователя; ошибки вне таксономии клиента
// (флаги, аргументы, конфиг) выводятся как есть.
func userMessage(err error) string {
	var (
		ve *apierrors.ValidationError
		ae *apierrors.AuthError
		he *apierrors.HTTPError
	)

	switch {
	case errors.As(err, &ve), errors.As(err, &ae), errors.As(err, &he),
		errors.Is(err, apierrors.ErrSessionExpired), errors.Is(err, apierrors.ErrNetwork):
		return apierrors.Message(err)
	default:
		return err.Error()
	}
}

// setupLogger: логи CLI идут в stderr, stdout остаётся под вывод команд.
func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
