package routes

import (
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, paymentHandler *handler.PaymentHandler) {
	paymentRoutes := router.Group("/payments")
	{
		// POST /payments
		paymentRoutes.POST("", paymentHandler.CreatePaymentIntent)

		// POST /payments/webhook
		paymentRoutes.POST("/webhook", paymentHandler.HandleWebhook)

		// POST /payments/3ds/redirect
		paymentRoutes.POST("/3ds/redirect", paymentHandler.HandleChallengeReturn)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	// Apply middlewares in the correct order
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}
