package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/svc/usersvc"
)

func newUsersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "users",
		Aliases:           []string{"user"},
		Short:             "Administer accounts",
		PersistentPreRunE: requireRole(app, domain.RoleAdmin),
	}

	cmd.AddCommand(
		newUsersListCommand(app),
		&cobra.Command{
			Use:   "show USER_ID",
			Short: "Show an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := app.Users.Get(cmd.Context(), domain.ID(args[0]))
				if err != nil {
					return err
				}

				return printUser(app, user)
			},
		},
		&cobra.Command{
			Use:   "promote USER_ID ROLE",
			Short: "Change an account's role to customer or staff",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := app.Users.Promote(cmd.Context(), domain.ID(args[0]), domain.ParseRole(args[1]))
				if err != nil {
					return fmt.Errorf("promote user: %w", err)
				}

				return printUser(app, user)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Count accounts by role and state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				stats, err := app.Users.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("user stats: %w", err)
				}

				return app.out.emit(stats, func(w io.Writer) {
					row(w, "TOTAL", stats.Total)
					row(w, "CUSTOMERS", stats.Customers)
					row(w, "STAFF", stats.Staff)
					row(w, "ADMINS", stats.Admins)
					row(w, "ACTIVE", stats.Active)
					row(w, "INACTIVE", stats.Inactive)
				})
			},
		},
	)

	return cmd
}

func newUsersListCommand(app *App) *cobra.Command {
	var (
		q      usersvc.UserQuery
		role   string
		active string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Role = domain.ParseRole(role)

			switch active {
			case "":
			case "true", "yes":
				q.IsActive = new(bool)
				*q.IsActive = true
			case "false", "no":
				q.IsActive = new(bool)
			default:
				return fmt.Errorf("%w: --active must be true or false", domain.ErrValidation)
			}

			page, err := app.Users.List(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			return app.out.emit(page, func(w io.Writer) {
				row(w, "ID", "NAME", "EMAIL", "ROLE", "ACTIVE", "JOINED")

				for _, u := range page.Users {
					row(w, u.ID, u.Name, u.Email, u.Role, u.IsActive, ago(u.CreatedAt))
				}
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "only accounts with this role")
	cmd.Flags().StringVar(&active, "active", "", "only active (true) or inactive (false) accounts")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "accounts per page")

	return cmd
}
