package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/svc/cartsvc"
	"github.com/mkrupp/storefront/internal/svc/ordersvc"
)

type cartItemView struct {
	ProductID domain.ID        `json:"productId"`
	Name      string           `json:"name,omitempty"`
	Qty       int              `json:"qty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Subtotal  *decimal.Decimal `json:"subtotal,omitempty"`
}

type cartView struct {
	Items []cartItemView  `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func newCartCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "cart",
		Short:             "Manage the shopping cart",
		PersistentPreRunE: requireRole(app, domain.RoleCustomer),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add PRODUCT_ID [QTY]",
			Short: "Add a product, merging with an existing line",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty := 1

				if len(args) == 2 {
					n, err := parseQty(args[1])
					if err != nil {
						return err
					}

					qty = n
				}

				return mutateCart(cmd, app, func(c *cartsvc.Cart) error {
					return c.Add(cmd.Context(), domain.ID(args[0]), qty)
				})
			},
		},
		&cobra.Command{
			Use:     "rm PRODUCT_ID",
			Aliases: []string{"remove"},
			Short:   "Remove a product",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return mutateCart(cmd, app, func(c *cartsvc.Cart) error {
					return c.Remove(cmd.Context(), domain.ID(args[0]))
				})
			},
		},
		&cobra.Command{
			Use:   "set PRODUCT_ID QTY",
			Short: "Set a product's quantity; zero removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := parseQty(args[1])
				if err != nil {
					return err
				}

				return mutateCart(cmd, app, func(c *cartsvc.Cart) error {
					return c.SetQty(cmd.Context(), domain.ID(args[0]), qty)
				})
			},
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "Show the cart with current prices",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printCart(cmd, app)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return mutateCart(cmd, app, func(c *cartsvc.Cart) error {
					return c.Clear(cmd.Context())
				})
			},
		},
	)

	return cmd
}

func mutateCart(cmd *cobra.Command, app *App, fn func(*cartsvc.Cart) error) error {
	cart, err := app.Cart(cmd.Context())
	if err != nil {
		return err
	}

	if err := fn(cart); err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	return printCart(cmd, app)
}

func printCart(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()

	cart, err := app.Cart(ctx)
	if err != nil {
		return err
	}

	view := cartView{
		Items: []cartItemView{},
		Count: cart.Count(),
		Total: cart.Total(ctx, app.Products),
	}

	for _, line := range cart.Lines() {
		item := cartItemView{ProductID: line.ProductID, Qty: line.Qty}

		if product, ok := app.Products.ResolveProduct(ctx, line.ProductID); ok {
			subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Qty)))
			item.Name = product.Name
			item.Price = &product.Price
			item.Subtotal = &subtotal
		}

		view.Items = append(view.Items, item)
	}

	return app.out.emit(view, func(w io.Writer) {
		row(w, "PRODUCT", "NAME", "QTY", "PRICE", "SUBTOTAL")

		for _, item := range view.Items {
			price, subtotal := "-", "-"
			if item.Price != nil {
				price, subtotal = money(*item.Price), money(*item.Subtotal)
			}

			row(w, item.ProductID, orDash(item.Name), item.Qty, price, subtotal)
		}

		row(w, "", "", view.Count, "TOTAL", money(view.Total))
	})
}

func parseQty(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not a number", domain.ErrValidation, s)
	}

	return n, nil
}

func newCheckoutCommand(app *App) *cobra.Command {
	var addressID string

	cmd := &cobra.Command{
		Use:     "checkout",
		Short:   "Place an order for the cart",
		Long:    "Place an order for every line in the cart. Without --address the default address is used.",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app, domain.RoleCustomer),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cart, err := app.Cart(ctx)
			if err != nil {
				return err
			}

			if addressID == "" {
				address, err := app.Addresses.Default(ctx)
				if err != nil {
					return err
				}

				if address != nil {
					addressID = address.ID.String()
				}
			}

			order, err := ordersvc.NewCheckout(app.Orders, cart).PlaceOrder(ctx, domain.ID(addressID))
			if order != nil {
				if perr := printOrder(app, order); perr != nil {
					return perr
				}
			}

			return err
		},
	}

	cmd.Flags().StringVar(&addressID, "address", "", "shipping address id")

	return cmd
}
