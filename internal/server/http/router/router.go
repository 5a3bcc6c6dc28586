package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	cartHandler := handlers.NewCartHandler(facade)
	checkoutHandler := handlers.NewCheckoutHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.Use(middleware.AuthRequired())

	cart := api.Group("/cart")
	cart.GET("", cartHandler.Get)
	cart.DELETE("", cartHandler.Clear)
	cart.GET("/totals", cartHandler.Totals)
	cart.POST("/items", cartHandler.AddItem)
	cart.PUT("/items/:ref", cartHandler.UpdateItem)
	cart.DELETE("/items/:ref", cartHandler.RemoveItem)
	cart.POST("/coupon", cartHandler.ApplyCoupon)
	cart.DELETE("/coupon", cartHandler.RemoveCoupon)

	checkout := api.Group("/checkout")
	checkout.POST("", checkoutHandler.Start)
	checkout.GET("/:id", checkoutHandler.Get)
	checkout.DELETE("/:id", checkoutHandler.Discard)
	checkout.PUT("/:id/address", checkoutHandler.UpdateAddress)
	checkout.POST("/:id/address/confirm", checkoutHandler.ConfirmAddress)
	checkout.POST("/:id/address/edit", checkoutHandler.EditAddress)
	checkout.PUT("/:id/payment-method", checkoutHandler.SelectPaymentMethod)
	checkout.POST("/:id/submit", checkoutHandler.Submit)
	checkout.POST("/:id/retry", checkoutHandler.Retry)
	checkout.POST("/:id/gateway/success", checkoutHandler.GatewaySuccess)
	checkout.POST("/:id/gateway/dismiss", checkoutHandler.GatewayDismiss)
	checkout.POST("/:id/gateway/error", checkoutHandler.GatewayError)

	orders := api.Group("/orders")
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)

	return engine
}
