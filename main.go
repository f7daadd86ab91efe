package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"linkup/internal/auth"
	"linkup/internal/db"
	"linkup/internal/handlers"
	"linkup/internal/media"
	"linkup/internal/middleware"
	"linkup/internal/observability"
	"linkup/internal/otp"
	"linkup/internal/rabbitmq"
	"linkup/internal/repositories"
	"linkup/internal/telemetry"
	"linkup/internal/ws"
)

const serviceName = "linkup"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	amqpURL := getEnv("AMQP_URL", "")
	if amqpURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(amqpURL, getEnv("WS_EVENTS_EXCHANGE", "ws_events"))
		if err != nil {
			log.Printf("ws event publisher unavailable: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AUDIT_EXCHANGE", "audit"))
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.linkup", serviceName, getEnv("ENVIRONMENT", "development"))

	userRepo := repositories.NewUserRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	statusRepo := repositories.NewStatusRepo(database)

	uploadDir := getEnv("UPLOAD_DIR", "./uploads")
	uploader, err := media.NewDiskUploader(uploadDir, getEnv("UPLOAD_BASE_URL", "/uploads"))
	if err != nil {
		log.Fatalf("failed to prepare upload dir: %v", err)
	}

	otpProvider := otp.NewProvider(getEnv("OTP_PROVIDER", ""))
	authService := auth.NewService(userRepo, otpProvider)

	registry := ws.NewRegistry(userRepo)
	typing := ws.NewTracker(registry)
	relay := ws.NewRelay(registry, messageRepo)
	broker := ws.NewBroker(registry)
	statusBroadcaster := ws.NewStatusBroadcaster(registry)
	gateway := ws.NewGateway(registry, typing, relay, broker, userRepo, messageRepo)

	authHandler := handlers.NewAuthHandler(authService, userRepo, uploader, auditEmitter)
	chatHandler := handlers.NewChatHandler(conversationRepo, messageRepo, relay, uploader)
	statusHandler := handlers.NewStatusHandler(statusRepo, statusBroadcaster, uploader, auditEmitter)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(userRepo)

	api := router.Group("/api")
	{
		api.POST("/auth/otp", authHandler.SendOTP)
		api.POST("/auth/verify", authHandler.VerifyOTP)

		api.GET("/me", authMiddleware, authHandler.Me)
		api.PUT("/me", authMiddleware, authHandler.UpdateProfile)
		api.GET("/users", authMiddleware, authHandler.ListUsers)

		api.GET("/conversations", authMiddleware, chatHandler.ListConversations)
		api.POST("/conversations", authMiddleware, chatHandler.StartConversation)
		api.GET("/conversations/:conversation_id/messages", authMiddleware, chatHandler.GetMessages)
		api.POST("/conversations/:conversation_id/messages", authMiddleware, chatHandler.PostMessage)
		api.POST("/conversations/:conversation_id/read", authMiddleware, chatHandler.MarkRead)
		api.DELETE("/conversations/:conversation_id/messages/:message_id", authMiddleware, chatHandler.DeleteMessage)

		api.GET("/statuses", authMiddleware, statusHandler.List)
		api.POST("/statuses", authMiddleware, statusHandler.Create)
		api.POST("/statuses/:status_id/view", authMiddleware, statusHandler.View)
		api.DELETE("/statuses/:status_id", authMiddleware, statusHandler.Delete)
	}

	router.GET("/ws", gateway.Handle)
	router.Static("/uploads", uploadDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterDebugRoutes(router, auditEmitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("server starting on :%s", port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
