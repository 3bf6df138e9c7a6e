package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/repository/tenant"
	"storefront-checkout/internal/service/address"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"
	"storefront-checkout/internal/service/identity"
	"storefront-checkout/internal/service/order"
	"storefront-checkout/internal/session"
)

type ctxKey string

const tenantCtxKey ctxKey = "tenant"

type tenantRepo interface {
	GetByHost(ctx context.Context, host string) (*domain.Tenant, error)
}

type storeConfig interface {
	CourierConfig(ctx context.Context, auth backend.Auth) (*domain.CourierConfig, error)
	PaymentServiceConfig(ctx context.Context, auth backend.Auth) (*domain.PaymentServiceConfig, error)
}

type cartService interface {
	Get(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	AddLine(ctx context.Context, auth backend.Auth, tenantID, sessionID string, in cartsvc.AddLineInput) (*domain.Cart, error)
	ChangeQuantity(ctx context.Context, tenantID, sessionID, lineID string, quantity int) (*domain.Cart, error)
	RemoveLine(ctx context.Context, tenantID, sessionID, lineID string) (*domain.Cart, error)
}

type checkoutService interface {
	Load(ctx context.Context, tenantID, sessionID, lang string) (*checkout.State, error)
	Persist(ctx context.Context, tenantID, sessionID string, st *checkout.State) error
	Refresh(ctx context.Context, owner address.Owner, st *checkout.State) error
	SaveAddress(ctx context.Context, owner address.Owner, st *checkout.State, fields domain.FieldConfig) error
	ConfirmDelete(ctx context.Context, owner address.Owner, st *checkout.State) error
}

type identityService interface {
	Restore(scope identity.Scope, st *identity.State)
	CheckEmailExists(ctx context.Context, scope identity.Scope, st *identity.State, email string) (bool, error)
	Login(ctx context.Context, scope identity.Scope, st *identity.State, email, password string) (domain.Customer, error)
	Save(ctx context.Context, scope identity.Scope, st *identity.State, draft identity.Draft) (domain.Customer, error)
	Logout(scope identity.Scope, st *identity.State)
}

type orderService interface {
	Submit(ctx context.Context, sub order.Submission) (*order.Result, error)
}

type inquiryService interface {
	Contact(ctx context.Context, auth backend.Auth, in domain.Inquiry) error
	B2B(ctx context.Context, auth backend.Auth, in domain.Inquiry) error
	Return(ctx context.Context, auth backend.Auth, in domain.ReturnRequest) error
}

// Deps bundles the services behind the storefront routes.
type Deps struct {
	TenantRepo  tenantRepo
	StoreConfig storeConfig
	CartSvc     cartService
	CheckoutSvc checkoutService
	IdentitySvc identityService
	OrderSvc    orderService
	InquirySvc  inquiryService

	Codec       *session.Codec
	Cookies     session.CookieOptions
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.TenantRepo == nil {
		return nil, errors.New("tenant repository is required")
	}
	if deps.Codec == nil {
		return nil, errors.New("session codec is required")
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	store := router.Group("/:lang", tenantMiddleware(deps.TenantRepo))

	store.GET("/cart", h.getCart)
	store.POST("/cart/lines", h.addCartLine)
	store.PATCH("/cart/lines/:lineId", h.changeCartLine)
	store.DELETE("/cart/lines/:lineId", h.removeCartLine)

	co := store.Group("/checkout")
	co.GET("", h.checkout(h.viewCheckout))
	co.POST("/steps/:step/open", h.checkout(h.openStep))
	co.POST("/steps/close", h.checkout(h.closeStep))

	co.POST("/contact/edit", h.checkout(h.editContact))
	co.POST("/contact/cancel", h.checkout(h.cancelContact))
	co.PUT("/contact", h.checkout(h.saveContact))
	co.POST("/contact/check-email", h.checkout(h.checkEmail))
	co.POST("/contact/login", h.checkout(h.login))
	co.POST("/contact/logout", h.checkout(h.logout))

	co.POST("/addresses/select", h.checkout(h.selectAddress))
	co.POST("/addresses/edit", h.checkout(h.editAddress))
	co.POST("/addresses/cancel", h.checkout(h.cancelAddress))
	co.PUT("/addresses/draft", h.checkout(h.updateDraft))
	co.POST("/addresses/save", h.checkout(h.saveAddress))
	co.POST("/addresses/:addressId/delete", h.checkout(h.requestDelete))
	co.POST("/addresses/:addressId/delete/confirm", h.checkout(h.confirmDelete))
	co.POST("/addresses/:addressId/delete/cancel", h.checkout(h.cancelDelete))

	co.PUT("/payment", h.checkout(h.selectPayment))
	co.POST("/submit", h.submit)

	store.POST("/contact", h.contactInquiry)
	store.POST("/b2b", h.b2bInquiry)
	store.POST("/returns", h.returnRequest)

	return router, nil
}

// tenantMiddleware resolves the storefront from the request host.
func tenantMiddleware(repo tenantRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := tenant.NormalizeHost(c.Request.Host)
		if host == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "host is required"})
			return
		}
		t, err := repo.GetByHost(c.Request.Context(), host)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown storefront"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), tenantCtxKey, t)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tenantFrom(c *gin.Context) *domain.Tenant {
	t, _ := c.Request.Context().Value(tenantCtxKey).(*domain.Tenant)
	return t
}
