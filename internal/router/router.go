package router

import (
	"context"
	"time"

	"payflow/config"
	"payflow/internal/handler"
	"payflow/internal/idempotency"
	"payflow/internal/middleware"
	"payflow/internal/queue"
	"payflow/internal/repository"
	"payflow/internal/service"
	"payflow/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Setup wires the HTTP API. Background pieces it starts (the payment stream poller) stop when
// ctx is cancelled.
func Setup(ctx context.Context, cfg *config.Config, db *gorm.DB, q *queue.Queue, log logrus.FieldLogger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.RateLimit(middleware.NewKeyedRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))

	// Repositories
	merchantRepo := repository.NewMerchantRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, merchantRepo)
	orderSvc := service.NewOrderService(orderRepo)
	paymentSvc := service.NewPaymentService(db, q, orderRepo, paymentRepo, log)
	refundSvc := service.NewRefundService(db, q, paymentRepo, refundRepo, log)
	webhookSvc := service.NewWebhookService(db, q, webhookLogRepo, log)
	guard := idempotency.NewGuard(db, q.Now)

	paymentHub := ws.NewHub(paymentSvc, time.Second, log)
	go paymentHub.Run(ctx)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, log)
	orderHandler := handler.NewOrderHandler(orderSvc, log)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, guard, log)
	refundHandler := handler.NewRefundHandler(refundSvc, log)
	webhookHandler := handler.NewWebhookHandler(webhookSvc, log)
	jobsHandler := handler.NewJobsHandler(q, log)
	healthHandler := handler.NewHealthHandler(db, q)

	r.GET("/health", healthHandler.Health)
	r.GET("/ws/payments/:id", ws.PaymentStream(paymentHub))

	authMw := middleware.MerchantAuth(authSvc)
	api := r.Group("/api/v1")
	{
		api.GET("/health", healthHandler.Health)
		api.POST("/login", authHandler.Login)
		api.GET("/orders/:id/public", orderHandler.GetPublic)
		api.POST("/payments/public", paymentHandler.CreatePublic)
		api.GET("/payments/:id", paymentHandler.Get)
		api.GET("/test/jobs/status", jobsHandler.Status)

		authed := api.Group("")
		authed.Use(authMw)
		authed.GET("/me", authHandler.Me)

		authed.POST("/orders", orderHandler.Create)
		authed.GET("/orders", orderHandler.List)
		authed.GET("/orders/:id", orderHandler.Get)

		authed.POST("/payments", middleware.Idempotency(guard, log), paymentHandler.Create)
		authed.POST("/payments/:id/capture", paymentHandler.Capture)
		authed.POST("/payments/:id/refunds", refundHandler.Create)
		authed.GET("/refunds/:id", refundHandler.Get)

		authed.GET("/webhooks", webhookHandler.List)
		authed.POST("/webhooks/:id/retry", webhookHandler.Retry)

		authed.GET("/jobs/stats", jobsHandler.Stats)
	}
	return r
}
