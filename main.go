package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/payments"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureSessionIndexes(db); err != nil {
		log.Printf("⚠️ session index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}

	svc := payments.NewService(db, config.AppEnv.Payments)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := payments.NewScheduler(
		svc,
		config.AppEnv.Payments.ConfirmSweepInterval,
		config.AppEnv.Payments.ExpirySweepInterval,
	)
	scheduler.Start(ctx)

	r := gin.Default()
	r.Use(middleware.RequestID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	r.POST("/payment-session", handlers.CreatePaymentSession(svc, config.AppEnv.JWTSecret))
	r.GET("/payment-session/:sessionId/status", handlers.GetSessionStatus(svc))
	r.POST("/payment-session/:sessionId/confirm", handlers.ConfirmPaymentSession(svc))
	r.POST("/payment-session/:sessionId/cancel", handlers.CancelPaymentSession(svc))
	r.POST("/payment-session/webhook", handlers.PaymentSessionWebhook(svc))

	r.POST("/orders/payment/webhook", handlers.OrderPaymentWebhook(svc))
	r.POST("/orders/payment/:orderNumber", handlers.CreateOrderPayment(svc))
	r.GET("/orders/payment/:orderNumber/status", handlers.GetOrderPaymentStatus(svc))
	r.GET("/orders/track/:orderNumber", handlers.TrackOrder(svc))
	r.GET("/orders/lookup", handlers.LookupOrdersByContact(db))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/orders", handlers.GetOrders(db))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(db))
		admin.POST("/payment-sessions/:sessionId/manual-check", handlers.ManualCheckPayment(svc))
		admin.POST("/check-pending-payments", handlers.ForcePendingPaymentsCheck(svc))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
