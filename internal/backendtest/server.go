// Package backendtest runs an in-memory fake of the storefront REST backend.
//
// The fake speaks the backend's envelope ({"success", "data", "message"}),
// enforces the order state machine and role checks the way the real backend
// does, and lets tests inject failures per route.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkrupp/storefront/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

//nolint:gochecknoglobals
var setModeOnce sync.Once

type account struct {
	user     domain.UserPayload
	password string
}

func (a *account) role() domain.Role {
	return domain.ParseRole(a.user.Role)
}

type orderRecord struct {
	owner domain.ID
	order domain.Order
}

type addressRecord struct {
	owner   domain.ID
	address domain.Address
}

type notificationRecord struct {
	owner        domain.ID
	notification domain.Notification
}

type failure struct {
	status  int
	message string
	network bool
}

// Server is a fake backend listening on a local port.
type Server struct {
	URL string

	srv    *httptest.Server
	engine *gin.Engine

	mu            sync.Mutex
	seq           int
	accounts      map[domain.ID]*account
	accountIDs    []domain.ID
	tokens        map[string]domain.ID
	products      map[domain.ID]*domain.Product
	productIDs    []domain.ID
	orders        map[domain.ID]*orderRecord
	orderIDs      []domain.ID
	addresses     map[domain.ID]*addressRecord
	addressIDs    []domain.ID
	notifications []*notificationRecord
	movements     []domain.StockMovement
	failures      map[string]failure
	requests      []string

	loginWithoutToken      bool
	queueReturnsEverything bool
}

// New starts a Server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	setModeOnce.Do(func() { gin.SetMode(gin.TestMode) })

	s := &Server{
		accounts:  make(map[domain.ID]*account),
		tokens:    make(map[string]domain.ID),
		products:  make(map[domain.ID]*domain.Product),
		orders:    make(map[domain.ID]*orderRecord),
		addresses: make(map[domain.ID]*addressRecord),
		failures:  make(map[string]failure),
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.intercept)
	s.routes()

	s.srv = httptest.NewServer(s.engine)
	s.URL = s.srv.URL

	t.Cleanup(s.srv.Close)

	return s
}

// Client returns an http.Client that talks to the server.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/logout", s.logout)
		auth.GET("/me", s.me)
		auth.POST("/register", s.register)
		auth.PUT("/change-password", s.changePassword)
	}

	orders := api.Group("/orders")
	{
		orders.GET("", s.listOrders)
		orders.POST("", s.createOrder)
		orders.GET("/staff/queue", s.staffQueue)
		orders.GET("/:id", s.getOrder)
		orders.POST("/:id/accept", s.orderAction(domain.OrderActionAccept))
		orders.POST("/:id/complete", s.orderAction(domain.OrderActionComplete))
		orders.POST("/:id/tracking", s.orderAction(domain.OrderActionAddTracking))
		orders.POST("/:id/confirm-delivery", s.orderAction(domain.OrderActionConfirmDelivery))
		orders.POST("/:id/cancel", s.orderAction(domain.OrderActionCancel))
	}

	products := api.Group("/products")
	{
		products.GET("", s.listProducts)
		products.GET("/low-stock", s.lowStock)
		products.GET("/:id", s.getProduct)
	}

	movements := api.Group("/admin/stock-movements")
	{
		movements.GET("", s.listMovements)
		movements.POST("", s.createMovement)
		movements.GET("/products", s.stockProducts)
		movements.GET("/summary", s.stockSummary)
	}

	api.GET("/admin/dashboard/users-count", s.userStats)

	notifications := api.Group("/notifications")
	{
		notifications.GET("", s.listNotifications)
		notifications.GET("/unread-count", s.unreadCount)
		notifications.PATCH("/read-all", s.readAllNotifications)
		notifications.PATCH("/:id/read", s.readNotification)
	}

	users := api.Group("/users")
	{
		users.GET("", s.listUsers)
		users.GET("/:id", s.getUser)
		users.PATCH("/:id/promote", s.promoteUser)
	}

	addresses := api.Group("/addresses")
	{
		addresses.GET("", s.listAddresses)
		addresses.POST("", s.createAddress)
		addresses.GET("/default", s.defaultAddress)
		addresses.PUT("/:id", s.updateAddress)
		addresses.DELETE("/:id", s.deleteAddress)
		addresses.PATCH("/:id/set-default", s.setDefaultAddress)
	}
}

// Fail makes every request to method and path answer with status and a
// {"success": false} envelope carrying message. A zero status answers 200,
// which exercises the semantic error path.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}

	s.failures[method+" "+path] = failure{status: status, message: message}
}

// FailNetwork makes every request to method and path drop the connection.
func (s *Server) FailNetwork(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method+" "+path] = failure{network: true}
}

// Recover removes an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.failures, method+" "+path)
}

// SetLoginWithoutToken makes login succeed without issuing a token.
func (s *Server) SetLoginWithoutToken(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loginWithoutToken = v
}

// SetQueueReturnsEverything makes the staff queue return every order, as an
// unfiltered backend would.
func (s *Server) SetQueueReturnsEverything(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queueReturnsEverything = v
}

// Requests returns every request seen so far as "METHOD /path?query".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

func (s *Server) intercept(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.RequestURI())
	f, ok := s.failures[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()

	switch {
	case !ok:
		c.Next()
	case f.network:
		if conn, _, err := c.Writer.Hijack(); err == nil {
			_ = conn.Close()
		}

		c.Abort()
	default:
		fail(c, f.status, f.message)
	}
}

func (s *Server) nextID(prefix string) domain.ID {
	s.seq++

	return domain.ID(fmt.Sprintf("%s%d", prefix, s.seq))
}

// caller returns the signed-in account, answering 401 when there is none and
// 403 when it has none of roles. Callers must hold s.mu.
func (s *Server) caller(c *gin.Context, roles ...domain.Role) (*account, bool) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	id, ok := s.tokens[token]

	if !found || !ok {
		fail(c, http.StatusUnauthorized, "Authentication required")

		return nil, false
	}

	acc := s.accounts[id]
	if user := acc.user.User(); len(roles) > 0 && !user.HasRole(roles...) {
		fail(c, http.StatusForbidden, "Forbidden")

		return nil, false
	}

	return acc, true
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func pageParams(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, domain.Pagination) {
	p := domain.NewPagination(len(items), page, limit)

	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}

	end := min(start+limit, len(items))

	return append(make([]T, 0, end-start), items[start:end]...), p
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
