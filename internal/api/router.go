package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simonwachira/checkout-service/internal/handlers"
	"github.com/simonwachira/checkout-service/internal/service"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

func NewRouter(
	checkout *service.CheckoutService,
	status *service.StatusService,
	orders *service.OrderService,
	confirmation *service.ConfirmationService,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "checkout-service"})
	})

	orderHandler := handlers.NewOrderHandler(checkout, status, orders)
	webhookHandler := handlers.NewWebhookHandler(confirmation)

	// Gateway callback; unauthenticated, trusted by network placement.
	r.POST("/webhooks/mpesa/callback", webhookHandler.MpesaCallback)

	authed := r.Group("/", handlers.RequireUser())
	authed.POST("/orders", orderHandler.Submit)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/payment-status/:pendingOrderId", orderHandler.PaymentStatus)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/cancel", orderHandler.Cancel)

	admin := r.Group("/admin", handlers.RequireUser(), handlers.RequireAdmin())
	admin.PATCH("/orders/:id/status", orderHandler.AdminUpdateStatus)

	return r
}
