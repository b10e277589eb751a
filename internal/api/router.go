// Package api exposes the storefront over HTTP with gin. Customers, sellers
// and managers authenticate with a bearer token issued by /auth/login and
// are routed to the group of their portal.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/account"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/data"
	"storefront/internal/history"
	"storefront/internal/logger"
	"storefront/internal/manager"
	"storefront/internal/sellerops"
)

// Services are the domain services behind the routes.
type Services struct {
	Accounts  *account.Service
	Tokens    *account.Tokens
	Catalog   *catalog.Catalog
	Carts     *cart.Registry
	Checkout  *checkout.Service
	History   *history.Service
	SellerOps *sellerops.Service
	Manager   *manager.Service
}

type Options struct {
	RateRPS        float64
	RateBurst      int
	RequestTimeout time.Duration
	Log            *slog.Logger
}

type handler struct {
	*Services
	log *slog.Logger
}

func NewRouter(svc *Services, opts Options) *gin.Engine {
	log := logger.Or(opts.Log)
	h := &handler{Services: svc, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	if opts.RateRPS > 0 {
		r.Use(RateLimit(opts.RateRPS, opts.RateBurst))
	}
	r.Use(Timeout(opts.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.signUp)
		auth.POST("/login", h.login)
	}

	shop := v1.Group("", JWTAuth(svc.Tokens), RequirePortal(data.PortalCustomer))
	{
		shop.GET("/catalog", h.listCatalog)
		shop.GET("/catalog/categories", h.listCategories)

		shop.GET("/cart", h.getCart)
		shop.POST("/cart/items", h.addCartItem)
		shop.PUT("/cart/items/:index", h.setCartQuantity)
		shop.DELETE("/cart/items/:index", h.removeCartItem)
		shop.DELETE("/cart", h.clearCart)
		shop.POST("/checkout", h.checkout)

		shop.GET("/orders", h.listOrders)
		shop.GET("/orders/:id", h.getOrder)
		shop.PUT("/orders/:id/review", h.submitReview)
	}

	seller := v1.Group("/seller", JWTAuth(svc.Tokens), RequirePortal(data.PortalSeller))
	{
		seller.GET("/orders", h.sellerOrders)
		seller.GET("/orders/:id/items", h.sellerOrderItems)
		seller.POST("/orders/:id/ship", h.shipOrder)
		seller.POST("/orders/:id/delay", h.delayOrder)
		seller.GET("/customers", h.sellerCustomers)
		seller.GET("/customers/:id/orders", h.sellerCustomerOrders)
		seller.DELETE("/customers/:id", h.deleteCustomer)
		seller.GET("/payments", h.sellerPayments)
		seller.GET("/statuses", h.sellerStatuses)
		seller.GET("/payment-types", h.sellerPaymentTypes)
		seller.GET("/categories", h.sellerCategories)
	}

	mgr := v1.Group("/manager", JWTAuth(svc.Tokens), RequirePortal(data.PortalManager))
	{
		mgr.GET("/sellers", h.listSellers)
		mgr.GET("/sellers/search", h.searchSellers)
		mgr.GET("/sellers/:id", h.sellerDetail)
		mgr.POST("/sellers", h.createSeller)
		mgr.PUT("/sellers/:id", h.updateSeller)
		mgr.DELETE("/sellers/:id", h.deleteSeller)
		mgr.GET("/states", h.listStates)
		mgr.GET("/cities", h.listCities)

		dash := mgr.Group("/dashboard")
		dash.GET("/summary", h.dashboardSummary)
		dash.GET("/revenue-by-month", h.revenueByMonth)
		dash.GET("/revenue-by-category", h.revenueByCategory)
		dash.GET("/reviews-by-category", h.reviewsByCategory)
		dash.GET("/status-counts", h.statusCounts)
		dash.GET("/payment-methods", h.paymentMethods)
		dash.GET("/delivery", h.deliveryPerformance)
	}

	return r
}
