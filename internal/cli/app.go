// Package cli implements the storefront command line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/guard"
	"github.com/mkrupp/storefront/internal/infra/config"
	context_ "github.com/mkrupp/storefront/internal/infra/context"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/repo/kv"
	"github.com/mkrupp/storefront/internal/svc/addresssvc"
	"github.com/mkrupp/storefront/internal/svc/authsvc"
	"github.com/mkrupp/storefront/internal/svc/cartsvc"
	"github.com/mkrupp/storefront/internal/svc/catalogsvc"
	"github.com/mkrupp/storefront/internal/svc/notificationsvc"
	"github.com/mkrupp/storefront/internal/svc/ordersvc"
	"github.com/mkrupp/storefront/internal/svc/usersvc"
)

// Config is the complete client configuration.
type Config struct {
	config.EnvConfig

	Log       logging.LoggerConfig       `envPrefix:"LOG_"`
	API       apiclient.Config
	Store     kv.Config                  `envPrefix:"STORE_"`
	Thumbnail catalogsvc.ThumbnailConfig `envPrefix:"THUMB_"`
}

// Options configure a single CLI invocation.
type Options struct {
	Config Config

	// StoreFactory opens the store for one command. The store is closed when
	// the command finishes. Defaults to kv.Factory(Config.Store).
	StoreFactory kv.StoreFactory
	// Transport overrides the HTTP transport used to reach the backend.
	Transport http.RoundTripper

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App holds the services of one CLI invocation. Services are created by
// open, after flags have been parsed.
type App struct {
	Config Config

	Store         kv.Store
	API           *apiclient.Client
	Auth          *authsvc.AuthService
	Events        *ordersvc.Events
	Orders        *ordersvc.OrderService
	Products      *catalogsvc.ProductService
	Stock         *catalogsvc.StockService
	Notifications *notificationsvc.NotificationService
	Users         *usersvc.UserService
	Addresses     *addresssvc.AddressService

	opts Options
	log  logging.Logger
	out  *printer
	user *domain.User
	cart      *cartsvc.Cart
}

// NewApp creates an App for opts. Nothing is opened until a command runs.
func NewApp(opts Options) *App {
	if opts.In == nil {
		opts.In = os.Stdin
	}

	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	if opts.StoreFactory == nil {
		opts.StoreFactory = kv.Factory(opts.Config.Store)
	}

	return &App{
		Config: opts.Config,
		opts:   opts,
		log:    logging.GetLogger("cli.app"),
		out:    &printer{w: opts.Out, format: FormatTable},
	}
}

// open creates the store, the API client and the services, and loads the
// current session.
func (a *App) open(ctx context.Context) error {
	if a.API != nil {
		return nil
	}

	store, err := a.opts.StoreFactory(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	a.Store = store

	api, err := apiclient.New(a.Config.API, authsvc.StoredToken(a.Store), a.opts.Transport)
	if err != nil {
		return fmt.Errorf("new api client: %w", err)
	}

	a.API = api
	a.Auth = authsvc.NewAuthService(api, a.Store)
	a.Events = ordersvc.NewEvents()
	a.Orders = ordersvc.NewOrderService(api, a.Events)
	a.Products = catalogsvc.NewProductService(api)
	a.Stock = catalogsvc.NewStockService(api)
	a.Notifications = notificationsvc.NewNotificationService(api)
	a.Users = usersvc.NewUserService(api)
	a.Addresses = addresssvc.NewAddressService(api)

	a.user = a.Auth.GetCurrentUser(ctx)

	a.log.DebugContext(ctx, "client ready", "api_url", a.Config.API.BaseURL, "signed_in", a.user != nil)

	return nil
}

// withActor returns ctx carrying the signed-in user, if any.
func (a *App) withActor(ctx context.Context) context.Context {
	if a.user == nil {
		return ctx
	}

	return context_.WithActor(ctx, context_.Actor{
		UserID: a.user.ID.String(),
		Role:   string(a.user.Role),
	})
}

// authorize applies the role guard to the current user.
func (a *App) authorize(roles ...domain.Role) error {
	d := guard.RequireRole(a.user, roles...)
	if d.Allowed {
		return nil
	}

	if d.Redirect == guard.LoginPath {
		return fmt.Errorf("%w: sign in with 'storefront login'", d.Err)
	}

	return fmt.Errorf("%w: %s cannot run this command", d.Err, a.user.Role)
}

// Cart returns the persisted cart, loading it on first use.
func (a *App) Cart(ctx context.Context) (*cartsvc.Cart, error) {
	if a.cart != nil {
		return a.cart, nil
	}

	cart, err := cartsvc.NewCart(ctx, a.Store)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	a.cart = cart

	return cart, nil
}

// Thumbnails creates the thumbnail service. The interpolator is only
// checked when thumbnails are actually requested.
func (a *App) Thumbnails() (*catalogsvc.ThumbnailService, error) {
	return catalogsvc.NewThumbnailService(a.API, a.Store, a.Config.Thumbnail)
}

// Close releases the store and the event broker.
func (a *App) Close() error {
	if a.cart != nil {
		a.cart.Close()
	}

	if a.Events != nil {
		a.Events.Close()
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}

	return nil
}
