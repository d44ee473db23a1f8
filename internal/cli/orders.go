package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/svc/ordersvc"
)

type orderView struct {
	domain.Order

	StatusLabel string               `json:"statusLabel"`
	Actions     []domain.OrderAction `json:"actions"`
}

func newOrderView(app *App, order *domain.Order) orderView {
	view := orderView{Order: *order, StatusLabel: order.Status.Label(), Actions: []domain.OrderAction{}}

	if app.user != nil {
		if actions := domain.AvailableActions(order.Status, app.user.Role); actions != nil {
			view.Actions = actions
		}
	}

	return view
}

func printOrder(app *App, order *domain.Order) error {
	view := newOrderView(app, order)

	return app.out.emit(view, func(w io.Writer) {
		row(w, "ORDER", orDash(order.OrderNumber))
		row(w, "ID", order.ID)
		row(w, "STATUS", view.StatusLabel)
		row(w, "TOTAL", money(order.TotalAmount))

		if order.TrackingNumber != "" {
			row(w, "TRACKING", order.TrackingNumber)
		}

		if order.CancelReason != "" {
			row(w, "CANCEL REASON", order.CancelReason)
		}

		if order.StaffName != "" {
			row(w, "STAFF", order.StaffName)
		}

		row(w, "CREATED", ago(order.CreatedAt))

		if len(view.Actions) > 0 {
			row(w, "ACTIONS", fmt.Sprint(view.Actions))
		}

		row(w)
		row(w, "PRODUCT", "NAME", "QTY", "PRICE", "SUBTOTAL")

		for _, item := range order.Items {
			row(w, item.ProductID, orDash(item.ProductName), item.Quantity, money(item.PriceAtOrder), money(item.Subtotal))
		}
	})
}

func printOrders(app *App, v any, orders []domain.Order) error {
	return app.out.emit(v, func(w io.Writer) {
		row(w, "ID", "ORDER", "STATUS", "ITEMS", "TOTAL", "CREATED")

		for _, o := range orders {
			row(w, o.ID, orDash(o.OrderNumber), o.Status.Label(), o.ItemCount(), money(o.TotalAmount), ago(o.CreatedAt))
		}
	})
}

func newOrdersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "orders",
		Aliases:           []string{"order"},
		Short:             "Browse and progress orders",
		PersistentPreRunE: requireRole(app),
	}

	cmd.AddCommand(
		newOrdersListCommand(app),
		newOrdersShowCommand(app),
		newOrderActionCommand(app, "accept", "Accept a pending order and start preparing it",
			[]domain.Role{domain.RoleStaff}, (*ordersvc.OrderService).AcceptOrder),
		newOrdersChecklistCommand(app),
		newOrdersCheckCommand(app),
		newOrdersCompleteCommand(app),
		newOrdersTrackCommand(app),
		newOrderActionCommand(app, "confirm", "Confirm a shipped order was delivered",
			[]domain.Role{domain.RoleCustomer, domain.RoleAdmin}, (*ordersvc.OrderService).ConfirmDelivery),
		newOrdersCancelCommand(app),
		newOrdersQueueCommand(app),
		newOrdersTasksCommand(app),
	)

	return cmd
}

func newOrdersListCommand(app *App) *cobra.Command {
	var (
		q      ordersvc.ListOrdersQuery
		status string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your orders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Status = domain.OrderStatus(status)

			page, err := app.Orders.FetchMyOrders(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("list orders: %w", err)
			}

			if err := printOrders(app, page, page.Orders); err != nil {
				return err
			}

			app.out.message("page %d of %d, %d orders", page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.Total)

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only orders in this status")
	cmd.Flags().IntVar(&q.Page, "page", ordersvc.DefaultPage, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", ordersvc.DefaultLimit, "orders per page")

	return cmd
}

func newOrdersShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ORDER_ID",
		Short: "Show an order and what you can do with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := app.Orders.FetchOrderByID(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}

			return printOrder(app, order)
		},
	}
}

type orderAction func(*ordersvc.OrderService, context.Context, domain.ID) (*domain.Order, error)

// newOrderActionCommand builds a command that runs action on one order.
func newOrderActionCommand(app *App, use, short string, roles []domain.Role, action orderAction) *cobra.Command {
	return &cobra.Command{
		Use:     use + " ORDER_ID",
		Short:   short,
		Args:    cobra.ExactArgs(1),
		PreRunE: requireRole(app, roles...),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := action(app.Orders, cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return fmt.Errorf("%s order: %w", use, err)
			}

			return printOrder(app, order)
		},
	}
}

type checklistView struct {
	OrderID domain.ID                `json:"orderId"`
	Checked int                      `json:"checked"`
	Total   int                      `json:"total"`
	Items   []ordersvc.ChecklistItem `json:"items"`
}

func loadChecklist(cmd *cobra.Command, app *App, id domain.ID) (*ordersvc.Checklist, error) {
	order, err := app.Orders.FetchOrderByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}

	return ordersvc.NewChecklist(cmd.Context(), app.Orders, app.Store, *order)
}

func printChecklist(app *App, id domain.ID, c *ordersvc.Checklist) error {
	checked, total := c.Progress()
	view := checklistView{OrderID: id, Checked: checked, Total: total, Items: c.Items()}

	return app.out.emit(view, func(w io.Writer) {
		row(w, "", "PRODUCT", "NAME", "QTY")

		for _, item := range view.Items {
			mark := "[ ]"
			if item.Checked {
				mark = "[x]"
			}

			row(w, mark, item.ProductID, orDash(item.ProductName), item.Quantity)
		}

		row(w, "", fmt.Sprintf("%d/%d packed", checked, total))
	})
}

func newOrdersChecklistCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "checklist ORDER_ID",
		Short:   "Show the packing checklist of an order",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireRole(app, domain.RoleStaff),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ID(args[0])

			checklist, err := loadChecklist(cmd, app, id)
			if err != nil {
				return err
			}

			return printChecklist(app, id, checklist)
		},
	}
}

func newOrdersCheckCommand(app *App) *cobra.Command {
	var uncheck bool

	cmd := &cobra.Command{
		Use:     "check ORDER_ID PRODUCT_ID...",
		Short:   "Tick products on an order's packing checklist",
		Args:    cobra.MinimumNArgs(2),
		PreRunE: requireRole(app, domain.RoleStaff),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ID(args[0])

			checklist, err := loadChecklist(cmd, app, id)
			if err != nil {
				return err
			}

			for _, productID := range args[1:] {
				if err := checklist.Check(cmd.Context(), domain.ID(productID), !uncheck); err != nil {
					return fmt.Errorf("check %s: %w", productID, err)
				}
			}

			return printChecklist(app, id, checklist)
		},
	}

	cmd.Flags().BoolVar(&uncheck, "uncheck", false, "clear the ticks instead")

	return cmd
}

func newOrdersCompleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "complete ORDER_ID",
		Short:   "Mark a fully packed order ready to ship",
		Long:    "Mark an order ready to ship. Every product on its checklist must be ticked first.",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireRole(app, domain.RoleStaff),
		RunE: func(cmd *cobra.Command, args []string) error {
			checklist, err := loadChecklist(cmd, app, domain.ID(args[0]))
			if err != nil {
				return err
			}

			order, err := checklist.CompletePrepared(cmd.Context())
			if err != nil {
				checked, total := checklist.Progress()

				return fmt.Errorf("complete order (%d/%d packed): %w", checked, total, err)
			}

			return printOrder(app, order)
		},
	}
}

func newOrdersTrackCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "track ORDER_ID TRACKING_NUMBER",
		Short:   "Add a tracking number and ship the order",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireRole(app, domain.RoleAdmin),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := app.Orders.AddTracking(cmd.Context(), domain.ID(args[0]), args[1])
			if err != nil {
				return fmt.Errorf("add tracking: %w", err)
			}

			return printOrder(app, order)
		},
	}
}

func newOrdersCancelCommand(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := app.Orders.CancelOrder(cmd.Context(), domain.ID(args[0]), reason)
			if err != nil {
				return fmt.Errorf("cancel order: %w", err)
			}

			if err := ordersvc.DiscardChecklist(cmd.Context(), app.Store, order.ID); err != nil {
				app.log.WarnContext(cmd.Context(), "failed to discard checklist", "order_id", order.ID, "error", err)
			}

			return printOrder(app, order)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the order is cancelled")

	return cmd
}

func newOrdersQueueCommand(app *App) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "queue",
		Short:   "List orders waiting for a staff member",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app, domain.RoleStaff),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch {
				return watchQueue(cmd.Context(), app, interval)
			}

			queue, err := app.Orders.FetchStaffQueueOrders(cmd.Context())
			if err != nil {
				return fmt.Errorf("staff queue: %w", err)
			}

			return printOrders(app, queue, queue)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing the queue length until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "how often --watch recounts")

	return cmd
}

// watchQueue prints the queue length whenever it changes.
func watchQueue(ctx context.Context, app *App, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", domain.ErrValidation)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	badge := ordersvc.NewQueueBadge(app.Orders)

	updates, unsubscribe := badge.Subscribe()
	defer unsubscribe()

	go badge.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := -1

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = badge.Refresh(ctx)
		case count, ok := <-updates:
			if !ok {
				return nil
			}

			if count != last {
				fmt.Fprintf(app.opts.Out, "%s\t%d waiting\n", time.Now().Format(time.TimeOnly), count)
				last = count
			}
		}
	}
}

func newOrdersTasksCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "tasks",
		Short:   "List orders you are preparing or that are ready to ship",
		Args:    cobra.NoArgs,
		PreRunE: requireRole(app, domain.RoleStaff),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := app.Orders.FetchMyTasks(cmd.Context())
			if err != nil {
				return fmt.Errorf("my tasks: %w", err)
			}

			return printOrders(app, tasks, tasks)
		},
	}
}
