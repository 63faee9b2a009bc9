package router

import (
	"log"
	"net/http"
	"time"

	"storefront/config"
	"storefront/internal/checkout"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/ws"
	"storefront/pkg/gateway"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewGateway picks the charge backend: the stub for local development, HTTP otherwise.
func NewGateway(cfg *config.GatewayConfig) gateway.Gateway {
	if cfg.Mode == "stub" {
		log.Printf("[GATEWAY] using stub gateway (OTP %s)", gateway.StubOTP)
		return gateway.StubGateway{}
	}
	if cfg.ChargeURL == "" || cfg.ChargeOTPURL == "" || cfg.ChargeVerify == "" {
		log.Printf("[GATEWAY] charge endpoints not fully configured; set CHARGE_API, CHARGE_API_OTP and CHARGE_API_VERIFY")
	}
	return gateway.NewClient(cfg.ChargeURL, cfg.ChargeOTPURL, cfg.ChargeVerify, cfg.Timeout)
}

func Setup(cfg *config.Config, db *gorm.DB, sessions *checkout.Store, gw gateway.Gateway) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))
	chargeLimiter := middleware.NewInMemoryRateLimiter(10, time.Minute)

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, customerRepo)
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	var pusher service.Pusher
	if fcmSvc != nil {
		pusher = fcmSvc
	}
	notifSvc := service.NewNotificationService(notificationRepo, customerRepo, hub, pusher)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo, notifSvc, cfg.Checkout.Currency)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(customerRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	branchHandler := handler.NewBranchHandler(branchRepo)
	orderHandler := handler.NewOrderHandler(orderRepo, branchRepo, cfg.Checkout.Currency)
	checkoutHandler := handler.NewCheckoutHandler(orderRepo, sessions, gw, paymentSvc, hub, cfg.Checkout)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(paymentSvc, sessions, hub, cfg.Gateway.WebhookSecret)

	authMw := middleware.AuthRequired(&cfg.JWT)
	chargeMw := middleware.RateLimitCustomer(chargeLimiter)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "open_sessions": sessions.Len()})
	})

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.GET("/branches", branchHandler.List)

		me := api.Group("/me", authMw)
		{
			me.GET("", meHandler.GetProfile)
			me.PUT("/fcm-token", meHandler.RegisterFCMToken)
			me.GET("/notifications", notificationHandler.List)
			me.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		}

		orders := api.Group("/orders", authMw)
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/payment-session", checkoutHandler.Open)
		}

		sessionsGroup := api.Group("/payment-sessions", authMw)
		{
			sessionsGroup.GET("/:id", checkoutHandler.Get)
			sessionsGroup.POST("/:id/confirm", chargeMw, checkoutHandler.Confirm)
			sessionsGroup.POST("/:id/otp", chargeMw, checkoutHandler.VerifyOTP)
			sessionsGroup.POST("/:id/change-number", checkoutHandler.ChangeNumber)
			sessionsGroup.POST("/:id/verify", checkoutHandler.Verify)
			sessionsGroup.POST("/:id/close", checkoutHandler.Close)
			sessionsGroup.DELETE("/:id", checkoutHandler.Cancel)
		}

		api.GET("/payments/:reference", authMw, paymentHandler.Get)
		api.POST("/webhooks/payment", paymentWebhookHandler.Handle)
	}

	r.GET("/ws/payments", ws.UpgradePaymentsWS(&cfg.JWT, hub))

	return r
}
