package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/repo/kv"
)

func newResetCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Wipe all local data: session, cart, checklists and cached thumbnails",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app, domain.RoleAdmin),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("%w: pass --yes to wipe local data", domain.ErrValidation)
			}

			ctx := cmd.Context()

			hadCart, err := app.Store.Has(ctx, kv.KeyCart)
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}

			if err := app.Store.ClearAll(ctx); err != nil {
				return fmt.Errorf("reset: %w", err)
			}

			app.user = nil

			app.log.InfoContext(ctx, "local data wiped", "had_cart", hadCart)

			view := map[string]bool{"cleared": true, "hadCart": hadCart}

			return app.out.emit(view, func(w io.Writer) {
				fmt.Fprintln(w, "local data wiped, sign in with 'storefront login'")
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")

	return cmd
}
