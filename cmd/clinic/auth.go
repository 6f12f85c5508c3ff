package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/dental-clinic/internal/models"
	"github.com/pribylovaa/dental-clinic/internal/validation"
)

var errNotLoggedIn = errors.New("not logged in, run: clinic login")

func loginCmd(cfgPath func() string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, _ []string) error {
			p, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	return cmd
}

func registerCmd(cfgPath func() string) *cobra.Command {
	var (
		form validation.RegisterForm
		role string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, _ []string) error {
			form.Role = models.Role(role)
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}

			p, err := a.client.Register(ctx, form)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}

	cmd.Flags().StringVar(&form.Nombre, "nombre", "", "full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&role, "role", "", "ADMIN, ODONTOLOGO or SECRETARIA (default SECRETARIA)")

	return cmd
}

func logoutCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, _ []string) error {
			// Без access-токена logout всё равно отправляется: бэкенд забудет cookie.
			_, _ = a.client.Restore(ctx)
			a.client.Logout(ctx)
			a.forgetCookies()

			fmt.Fprintln(a.out, "logged out")
			return nil
		}),
	}
}

func whoamiCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, _ []string) error {
			p, err := a.restore(ctx)
			if err != nil {
				return err
			}

			return a.print(p)
		}),
	}
}
