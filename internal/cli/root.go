package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	context_ "github.com/mkrupp/storefront/internal/infra/context"
	"github.com/mkrupp/storefront/internal/infra/logging"
	http_ "github.com/mkrupp/storefront/internal/infra/transport/http"
)

//nolint:gochecknoinits
func init() {
	// group guards run in the persistent pre-run of each group, after the root's
	cobra.EnableTraverseRunHooks = true
}

// Execute runs the CLI with args and releases everything it opened.
func Execute(ctx context.Context, opts Options, args ...string) (err error) {
	app := NewApp(opts)

	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	root := NewRootCommand(app)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", root.Name(), err)
	}

	return nil
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	var (
		output  string
		verbose int
	)

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client for customers, staff and admins",
		Long: `storefront talks to the storefront backend on behalf of a signed-in user.

Customers fill a cart, check out and follow their orders. Staff work the order
queue and pack orders against a checklist. Admins ship orders, manage stock
and promote users.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := ParseFormat(output)
			if err != nil {
				return err
			}

			app.out.format = format

			if lvl, ok := logging.Verbosity(verbose); ok {
				logging.SetLevel(lvl)
			}

			ctx := context_.WithTraceID(cmd.Context(), http_.NewTraceID())

			if err := app.open(ctx); err != nil {
				return err
			}

			cmd.SetContext(app.withActor(ctx))

			return nil
		},
	}

	root.SetIn(app.opts.In)
	root.SetOut(app.opts.Out)
	root.SetErr(app.opts.Err)

	root.PersistentFlags().StringVarP(&output, "output", "o", string(FormatTable), "output format: table, json or yaml")
	root.PersistentFlags().CountVarP(&verbose, "verbose", "v", "log more to stderr (-v info, -vv debug)")
	root.PersistentFlags().StringVar(&app.Config.API.BaseURL, "api-url", app.Config.API.BaseURL, "backend base URL")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newRegisterCommand(app),
		newPasswdCommand(app),
		newCartCommand(app),
		newCheckoutCommand(app),
		newOrdersCommand(app),
		newProductsCommand(app),
		newStockCommand(app),
		newNotificationsCommand(app),
		newAddressesCommand(app),
		newUsersCommand(app),
		newResetCommand(app),
	)

	return root
}

// requireRole returns a run hook that applies the role guard. Without roles
// any signed-in user passes.
func requireRole(app *App, roles ...domain.Role) func(*cobra.Command, []string) error {
	return func(*cobra.Command, []string) error {
		return app.authorize(roles...)
	}
}
