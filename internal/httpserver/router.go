package httpserver

import (
	"context"
	"errors"
	"time"

	"tailorshop/internal/checkout"
	"tailorshop/internal/domain"
	"tailorshop/internal/events"
	"tailorshop/internal/logging"
	"tailorshop/internal/payment"
	altsvc "tailorshop/internal/service/alteration"
	cartsvc "tailorshop/internal/service/cart"
	catalogsvc "tailorshop/internal/service/catalog"
	customersvc "tailorshop/internal/service/customer"
	ordersvc "tailorshop/internal/service/order"
	"tailorshop/internal/service/reconcile"
	"tailorshop/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type sessionParser interface {
	Parse(ctx context.Context, token string) (session.Session, error)
}

type authService interface {
	Register(ctx context.Context, in customersvc.RegisterInput) (*customersvc.Auth, error)
	Login(ctx context.Context, email, password string) (*customersvc.Auth, error)
	AdminLogin(ctx context.Context, email, password string) (*customersvc.Auth, error)
	Guest() (*customersvc.Auth, error)
	Logout(ctx context.Context, s session.Session) error
	Profile(ctx context.Context, id string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, id string, in customersvc.ProfileInput) (*domain.Account, error)
}

type catalogService interface {
	List(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogItem, error)
	Categories(ctx context.Context, kind domain.CatalogKind) ([]string, error)
	Create(ctx context.Context, kind domain.CatalogKind, in catalogsvc.Input) (*domain.CatalogItem, error)
	Update(ctx context.Context, kind domain.CatalogKind, id string, in catalogsvc.Input) (*domain.CatalogItem, error)
	Delete(ctx context.Context, kind domain.CatalogKind, id string) error
}

type cartService interface {
	Items(ctx context.Context, owner string) ([]domain.CartItem, error)
	Add(ctx context.Context, owner string, in cartsvc.AddInput) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, owner, lineID string, quantity int) ([]domain.CartItem, error)
	Remove(ctx context.Context, owner, lineID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, owner string) error
}

type orderService interface {
	Draft(ctx context.Context, who ordersvc.Requester, in ordersvc.DraftInput) (*checkout.Draft, error)
	Create(ctx context.Context, who ordersvc.Requester, in ordersvc.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListForCustomer(ctx context.Context, email string) ([]domain.Order, error)
}

type alterationService interface {
	Book(ctx context.Context, email string, in altsvc.BookInput) (*domain.Alteration, error)
	Get(ctx context.Context, id string) (*domain.Alteration, error)
	List(ctx context.Context) ([]domain.Alteration, error)
	ListForCustomer(ctx context.Context, email string) ([]domain.Alteration, error)
}

type reconciler interface {
	SetAdminTotal(ctx context.Context, orderID string, g domain.Group, amount decimal.Decimal) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID string, g domain.Group, status string) (*domain.Order, error)
	RecordPayment(ctx context.Context, orderID string, g domain.Group, in reconcile.PaymentInput) (*domain.Order, error)
	SetAlterationAdminTotal(ctx context.Context, id string, amount decimal.Decimal) (*domain.Alteration, error)
	SetAlterationStatus(ctx context.Context, id, status string) (*domain.Alteration, error)
	RecordAlterationPayment(ctx context.Context, id string, in reconcile.PaymentInput) (*domain.Alteration, error)
}

type paymentFlow interface {
	Begin(ctx context.Context, target domain.PaymentTarget) (payment.Attempt, payment.WidgetOptions, error)
	Complete(ctx context.Context, attemptID string, proof payment.Proof) (payment.Attempt, error)
	Dismiss(attemptID string) (payment.Attempt, error)
	Get(attemptID string) (payment.Attempt, error)
}

type gatewayClient interface {
	payment.Gateway
	payment.Verifier
}

type eventSource interface {
	Subscribe(filter events.Filter) (<-chan events.Event, func())
}

// Deps are the services behind the routes.
type Deps struct {
	Sessions    sessionParser
	Auth        authService
	Catalog     catalogService
	Cart        cartService
	Orders      orderService
	Alterations alterationService
	Reconcile   reconciler
	Payments    paymentFlow
	Gateway     gatewayClient
	Events      eventSource
	CORSOrigins []string
	// Heartbeat is the keep-alive interval of event streams.
	Heartbeat time.Duration
}

func (d Deps) validate() error {
	switch {
	case d.Sessions == nil:
		return errors.New("httpserver: session parser required")
	case d.Auth == nil:
		return errors.New("httpserver: auth service required")
	case d.Catalog == nil, d.Cart == nil, d.Orders == nil, d.Alterations == nil:
		return errors.New("httpserver: catalog, cart, order and alteration services required")
	case d.Reconcile == nil, d.Payments == nil, d.Gateway == nil:
		return errors.New("httpserver: payment services required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Heartbeat <= 0 {
		deps.Heartbeat = 25 * time.Second
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logging.Middleware(logger), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = deps.CORSOrigins
		cfg.AddAllowHeaders("Authorization")
		router.Use(cors.New(cfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api", sessionMiddleware(deps.Sessions))

	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/auth/admin/login", h.adminLogin)
	api.POST("/auth/guest", h.guest)
	api.POST("/auth/logout", requireSession(), h.logout)
	api.GET("/me", requireCustomer(), h.me)
	api.PUT("/me", requireCustomer(), h.updateMe)
	api.GET("/me/orders", requireCustomer(), h.myOrders)
	api.GET("/me/alterations", requireCustomer(), h.myAlterations)
	api.GET("/me/events", requireCustomer(), h.myEvents)

	for _, kind := range []domain.CatalogKind{domain.KindLaundry, domain.KindUnstitched} {
		section := string(kind)
		api.GET("/"+section, h.listCatalog(kind))
		api.GET("/"+section+"/categories", h.catalogCategories(kind))
		api.POST("/"+section, requireAdmin(), h.createCatalogItem(kind))
		api.PUT("/admin/"+section+"/:id", requireAdmin(), h.updateCatalogItem(kind))
		api.DELETE("/admin/"+section+"/:id", requireAdmin(), h.deleteCatalogItem(kind))
	}

	cart := api.Group("/cart", requireSession())
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addCartItem)
	cart.PATCH("/items/:id", h.updateCartItem)
	cart.DELETE("/items/:id", h.removeCartItem)

	api.POST("/checkout/draft", requireSession(), h.draft)

	api.POST("/orders", requireSession(), h.createOrder)
	api.GET("/orders", requireAdmin(), h.listOrders)
	api.GET("/orders/:id", requireSession(), h.getOrder)
	api.GET("/orders/:id/events", requireSession(), h.orderEvents)
	for _, g := range []domain.Group{domain.GroupLaundry, domain.GroupReadymade} {
		prefix := "/orders/:id/" + string(g)
		api.PATCH(prefix+"-status", requireAdmin(), h.setOrderStatus(g))
		api.PATCH(prefix+"-total", requireAdmin(), h.setOrderTotal(g))
		api.PATCH(prefix+"-payment", requireSession(), h.setOrderPayment(g))
	}

	api.POST("/alterations", h.bookAlteration)
	api.GET("/alterations", requireAdmin(), h.listAlterations)
	api.PATCH("/alterations/:id/status", requireAdmin(), h.setAlterationStatus)
	api.PATCH("/alterations/:id/admin-total", requireAdmin(), h.setAlterationTotal)
	api.PATCH("/alterations/:id/payment-status", requireSession(), h.setAlterationPayment)

	api.POST("/razorpay/order", requireSession(), h.razorpayOrder)
	api.POST("/razorpay/verify-payment", requireSession(), h.razorpayVerify)

	pay := api.Group("/payments/attempts", requireSession())
	pay.POST("", h.beginPayment)
	pay.GET("/:id", h.getPayment)
	pay.POST("/:id/callback", h.completePayment)
	pay.POST("/:id/dismiss", h.dismissPayment)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
