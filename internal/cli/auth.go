package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/guard"
	"github.com/mkrupp/storefront/internal/svc/authsvc"
)

type userView struct {
	domain.User

	Home string `json:"home"`
}

func printUser(app *App, user *domain.User) error {
	view := userView{User: *user, Home: guard.HomeFor(user.Role)}

	return app.out.emit(view, func(w io.Writer) {
		row(w, "ID", user.ID)
		row(w, "NAME", user.Name)
		row(w, "EMAIL", user.Email)
		row(w, "PHONE", orDash(user.Phone))
		row(w, "ROLE", user.Role)
		row(w, "HOME", view.Home)
	})
}

// readSecret returns flag when set, else the first line of in.
func readSecret(in io.Reader, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return "", fmt.Errorf("%w: password required", domain.ErrValidation)
	}

	return strings.TrimRight(scanner.Text(), "\r\n"), nil
}

func newLoginCommand(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Long:  "Sign in with email and password. Without --password the password is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}

			user, err := app.Auth.Login(cmd.Context(), email, secret)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			app.user = user

			return printUser(app, user)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Auth.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}

			app.user = nil
			app.out.message("signed out")

			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:     "whoami",
		Short:   "Show the signed-in user",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app),
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := app.user

			if refresh {
				user = app.Auth.RefreshCurrentUser(cmd.Context())
				if user == nil {
					return fmt.Errorf("refresh user: %w", domain.ErrUnauthenticated)
				}
			}

			return printUser(app, user)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the user from the backend")

	return cmd
}

func newRegisterCommand(app *App) *cobra.Command {
	var in authsvc.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		Long:  "Create a customer account. Registering does not sign in; run 'storefront login' afterwards.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin(), in.Password)
			if err != nil {
				return err
			}

			in.Password = secret

			user, err := app.Auth.RegisterCustomer(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			if err := printUser(app, user); err != nil {
				return err
			}

			app.out.message("account created, sign in with 'storefront login'")

			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")

	return cmd
}

func newPasswdCommand(app *App) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:     "passwd",
		Short:   "Change the signed-in user's password",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Auth.ChangePassword(cmd.Context(), current, next); err != nil {
				return fmt.Errorf("change password: %w", err)
			}

			app.out.message("password changed")

			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")

	return cmd
}
