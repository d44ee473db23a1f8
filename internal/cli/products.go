package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/svc/catalogsvc"
)

type productView struct {
	domain.Product

	StockState domain.StockState `json:"stockState"`
}

func productViews(products []domain.Product) []productView {
	views := make([]productView, 0, len(products))

	for _, p := range products {
		views = append(views, productView{Product: p, StockState: p.StockState()})
	}

	return views
}

func printProducts(app *App, v any, products []productView) error {
	return app.out.emit(v, func(w io.Writer) {
		row(w, "ID", "SKU", "NAME", "PRICE", "STOCK", "STATE")

		for _, p := range products {
			row(w, p.ID, orDash(p.SKU), p.Name, money(p.Price), humanize.Comma(int64(p.Stock)), p.StockState)
		}
	})
}

func newProductsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse the catalog",
	}

	cmd.AddCommand(
		newProductsListCommand(app),
		newProductsShowCommand(app),
		newProductsLowStockCommand(app),
		newProductsThumbCommand(app),
	)

	return cmd
}

func newProductsListCommand(app *App) *cobra.Command {
	var q catalogsvc.ProductQuery

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List products",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := app.Products.ListProducts(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}

			view := struct {
				Products   []productView     `json:"products"`
				Pagination domain.Pagination `json:"pagination"`
			}{productViews(page.Products), page.Pagination}

			if err := printProducts(app, view, view.Products); err != nil {
				return err
			}

			app.out.message("page %d of %d, %d products", page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.Total)

			return nil
		},
	}

	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "products per page")
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "search name and SKU")
	cmd.Flags().StringVar(&q.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&q.Status, "status", "", "only this product status")

	return cmd
}

func newProductsShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PRODUCT_ID",
		Short: "Show a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Products.GetProduct(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}

			view := productView{Product: *p, StockState: p.StockState()}

			return app.out.emit(view, func(w io.Writer) {
				row(w, "ID", p.ID)
				row(w, "SKU", orDash(p.SKU))
				row(w, "NAME", p.Name)
				row(w, "CATEGORY", orDash(p.Category))
				row(w, "PRICE", money(p.Price))
				row(w, "STOCK", fmt.Sprintf("%s (%s, low at %d)", humanize.Comma(int64(p.Stock)), view.StockState, p.LowStockThreshold()))
				row(w, "DESCRIPTION", orDash(p.Description))
			})
		},
	}
}

func newProductsLowStockCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "low-stock",
		Short:   "List products running low or out of stock",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app, domain.RoleAdmin),
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := app.Products.LowStock(cmd.Context())
			if err != nil {
				return fmt.Errorf("low stock: %w", err)
			}

			views := productViews(products)

			return printProducts(app, views, views)
		},
	}
}

func newProductsThumbCommand(app *App) *cobra.Command {
	var (
		width   int
		out     string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "thumb PRODUCT_ID",
		Short: "Write a PNG thumbnail of a product's first image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thumbnails, err := app.Thumbnails()
			if err != nil {
				return err
			}

			p, err := app.Products.GetProduct(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}

			if refresh {
				if err := thumbnails.Invalidate(cmd.Context(), p.ID, width); err != nil {
					return err
				}
			}

			thumb, err := thumbnails.Thumbnail(cmd.Context(), *p, width)
			if err != nil {
				return fmt.Errorf("thumbnail: %w", err)
			}

			if out == "" {
				out = fmt.Sprintf("%s_%d.png", p.ID, width)
			}

			if err := os.WriteFile(out, thumb.Data, 0o644); err != nil { //nolint:gosec,mnd
				return fmt.Errorf("write thumbnail: %w", err)
			}

			view := struct {
				File   string `json:"file"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
				Bytes  int    `json:"bytes"`
				Cached bool   `json:"cached"`
			}{out, thumb.Width, thumb.Height, len(thumb.Data), thumb.Cached}

			return app.out.emit(view, func(w io.Writer) {
				row(w, view.File, fmt.Sprintf("%dx%d", view.Width, view.Height), humanize.Bytes(uint64(view.Bytes)))
			})
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 200, "thumbnail width in pixels")
	cmd.Flags().StringVarP(&out, "out", "f", "", "output file (default PRODUCT_ID_WIDTH.png)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild the thumbnail even if it is cached")

	return cmd
}
