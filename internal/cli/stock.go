package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/svc/catalogsvc"
)

// dateRange holds --from and --to flags as whole days.
type dateRange struct {
	from, to string
}

func (r *dateRange) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&r.to, "to", "", "last day (YYYY-MM-DD)")
}

func (r *dateRange) parse() (start, end time.Time, err error) {
	if start, err = parseDay(r.from); err != nil {
		return
	}

	end, err = parseDay(r.to)

	return
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", domain.ErrValidation, s)
	}

	return t, nil
}

func newStockCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "stock",
		Short:             "Inspect and record stock movements",
		PersistentPreRunE: requireRole(app, domain.RoleAdmin),
	}

	cmd.AddCommand(
		newStockMovementsCommand(app),
		newStockSummaryCommand(app),
		newStockProductsCommand(app),
		newStockAddCommand(app),
	)

	return cmd
}

func newStockMovementsCommand(app *App) *cobra.Command {
	var (
		q       catalogsvc.StockMovementQuery
		product string
		days    dateRange
	)

	cmd := &cobra.Command{
		Use:     "movements",
		Aliases: []string{"ls"},
		Short:   "List stock movements",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := days.parse()
			if err != nil {
				return err
			}

			q.ProductID = domain.ID(product)
			q.StartDate, q.EndDate = start, end
			q.Type = strings.ToUpper(q.Type)

			if strings.EqualFold(q.Type, catalogsvc.MovementTypeAll) {
				q.Type = catalogsvc.MovementTypeAll
			}

			page, err := app.Stock.ListStockMovements(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("list stock movements: %w", err)
			}

			return app.out.emit(page, func(w io.Writer) {
				row(w, "WHEN", "PRODUCT", "TYPE", "QTY", "BEFORE", "AFTER", "REASON", "BY")

				for _, m := range page.Movements {
					name := m.ProductID.String()
					if m.Product != nil && m.Product.Name != "" {
						name = m.Product.Name
					}

					row(w, ago(m.CreatedAt), name, m.MovementType, m.Quantity, m.StockBefore, m.StockAfter,
						m.DisplayReason(), orDash(m.PerformedByName))
				}
			})
		},
	}

	cmd.Flags().StringVar(&q.Type, "type", catalogsvc.MovementTypeAll, "IN, OUT, ADJUSTMENT or all")
	cmd.Flags().StringVar(&product, "product", "", "only movements of this product")
	cmd.Flags().StringVar(&q.PerformedBy, "by", "", "only movements performed by this user")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "movements per page")
	days.bind(cmd)

	return cmd
}

func newStockSummaryCommand(app *App) *cobra.Command {
	var days dateRange

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total stock movements over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := days.parse()
			if err != nil {
				return err
			}

			summary, err := app.Stock.StockSummary(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("stock summary: %w", err)
			}

			return app.out.emit(summary, func(w io.Writer) {
				row(w, "IN", humanize.Comma(int64(summary.TotalIn)))
				row(w, "OUT", humanize.Comma(int64(summary.TotalOut)))
				row(w, "ADJUSTMENT", humanize.Comma(int64(summary.TotalAdjustment)))
				row(w, "MOVEMENTS", humanize.Comma(int64(summary.MovementCount)))
			})
		},
	}

	days.bind(cmd)

	return cmd
}

func newStockProductsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List products with their current stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := app.Stock.StockProducts(cmd.Context())
			if err != nil {
				return fmt.Errorf("stock products: %w", err)
			}

			return app.out.emit(products, func(w io.Writer) {
				row(w, "ID", "SKU", "NAME", "STOCK")

				for _, p := range products {
					row(w, p.ID, orDash(p.SKU), p.Name, humanize.Comma(int64(p.CurrentStock)))
				}
			})
		},
	}
}

func newStockAddCommand(app *App) *cobra.Command {
	var (
		in  domain.StockMovementInput
		typ string
	)

	cmd := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Record a stock movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ProductID = domain.ID(args[0])
			in.MovementType = domain.StockMovementType(strings.ToUpper(typ))

			movement, err := app.Stock.CreateStockMovement(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("record stock movement: %w", err)
			}

			return app.out.emit(movement, func(w io.Writer) {
				row(w, "PRODUCT", movement.ProductID)
				row(w, "TYPE", movement.MovementType)
				row(w, "QTY", movement.Quantity)
				row(w, "STOCK", fmt.Sprintf("%d -> %d", movement.StockBefore, movement.StockAfter))
				row(w, "REASON", movement.DisplayReason())
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(domain.StockMovementIn), "IN, OUT or ADJUSTMENT")
	cmd.Flags().IntVarP(&in.Quantity, "qty", "q", 0, "quantity moved")
	cmd.Flags().StringVar(&in.Reason, "reason", "", "why the stock changed")
	cmd.Flags().StringVar(&in.Note, "note", "", "free-form note")

	return cmd
}
