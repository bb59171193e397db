package httpapi

import (
	"net/http"
	"time"

	"watchshop-be/internal/coupon"
	"watchshop-be/internal/loyalty"
	"watchshop-be/internal/metrics"
	"watchshop-be/internal/order"
	"watchshop-be/internal/product"
	"watchshop-be/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	CORSOrigins  []string
	CookieTTL    time.Duration
	SecureCookie bool
}

type Services struct {
	Coupons  coupon.Service
	Orders   order.Service
	Loyalty  loyalty.Service
	Products product.Service
	Users    user.Service
	Metrics  *metrics.Registry
}

// NewRouter builds the REST surface. Authentication is resolved upstream by
// the net/http middleware chain; the groups here only enforce it.
func NewRouter(opts Options, svc Services) *gin.Engine {
	couponHandler := NewCouponHandler(svc.Coupons)
	orderHandler := NewOrderHandler(svc.Orders)
	loyaltyHandler := NewLoyaltyHandler(svc.Loyalty)
	productHandler := NewProductHandler(svc.Products)
	authHandler := NewAuthHandler(svc.Users, opts.CookieTTL, opts.SecureCookie)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", RequireAuth(), authHandler.Me)
		}

		coupons := api.Group("/coupons")
		{
			coupons.POST("/validate", couponHandler.Validate)
			coupons.POST("/use", couponHandler.Use)
			coupons.GET("", RequireAdmin(), couponHandler.List)
			coupons.POST("", RequireAdmin(), couponHandler.Create)
			coupons.PATCH("/:id/toggle", RequireAdmin(), couponHandler.Toggle)
			coupons.DELETE("/:id", RequireAdmin(), couponHandler.Delete)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", RequireAdmin(), orderHandler.List)
			orders.GET("/mine", RequireAuth(), orderHandler.Mine)
			orders.GET("/:id", RequireAdmin(), orderHandler.Get)
			orders.PATCH("/:id/status", RequireAdmin(), orderHandler.UpdateStatus)
		}

		points := api.Group("/loyalty")
		points.Use(RequireAuth())
		{
			points.GET("", loyaltyHandler.Balance)
			points.POST("/redeem", loyaltyHandler.Redeem)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.GET("/:id/reviews", productHandler.ListReviews)
			products.POST("/:id/reviews", productHandler.AddReview)

			products.POST("", RequireAdmin(), productHandler.Create)
			products.PUT("/:id", RequireAdmin(), productHandler.Update)
			products.DELETE("/:id", RequireAdmin(), productHandler.Delete)
			products.POST("/:id/variants", RequireAdmin(), productHandler.AddVariant)
			products.PUT("/:id/variants/:variantId", RequireAdmin(), productHandler.UpdateVariant)
			products.DELETE("/:id/variants/:variantId", RequireAdmin(), productHandler.DeleteVariant)
		}

		admin := api.Group("/admin")
		admin.Use(RequireAdmin())
		{
			admin.GET("/metrics", metricsHandler(svc.Metrics))
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	// Cookies are only sent cross-origin to an explicit allow list.
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
