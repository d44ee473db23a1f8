package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
)

func newNotificationsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "notifications",
		Aliases:           []string{"notes"},
		Short:             "Read your notifications",
		PersistentPreRunE: requireRole(app),
	}

	var (
		page, limit int
		unread      bool
	)

	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List notifications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.Notifications.List(cmd.Context(), page, limit, unread)
			if err != nil {
				return fmt.Errorf("list notifications: %w", err)
			}

			return app.out.emit(result, func(w io.Writer) {
				row(w, "ID", "", "WHEN", "TITLE", "MESSAGE")

				for _, n := range result.Notifications {
					mark := "*"
					if n.IsRead {
						mark = ""
					}

					row(w, n.ID, mark, ago(n.CreatedAt), n.Title, n.Message)
				}
			})
		},
	}

	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 20, "notifications per page")
	list.Flags().BoolVar(&unread, "unread", false, "only unread notifications")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "read NOTIFICATION_ID",
			Short: "Mark a notification read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := app.Notifications.MarkRead(cmd.Context(), domain.ID(args[0]))
				if err != nil {
					return fmt.Errorf("mark read: %w", err)
				}

				return app.out.emit(n, func(w io.Writer) {
					row(w, n.ID, n.Title, "read")
				})
			},
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification read",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := app.Notifications.MarkAllRead(cmd.Context())
				if err != nil {
					return fmt.Errorf("mark all read: %w", err)
				}

				return app.out.emit(map[string]int{"updated": n}, func(w io.Writer) {
					row(w, "marked read", n)
				})
			},
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of unread notifications",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n := app.Notifications.UnreadCount(cmd.Context())

				return app.out.emit(map[string]int{"unread": n}, func(w io.Writer) {
					row(w, n)
				})
			},
		},
	)

	return cmd
}
