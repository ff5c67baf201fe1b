package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/mstgnz/qualpay/handler"
	"github.com/mstgnz/qualpay/infra/config"
	"github.com/mstgnz/qualpay/infra/logger"
	"github.com/mstgnz/qualpay/infra/middle"
	"github.com/mstgnz/qualpay/infra/opensearch"
	"github.com/mstgnz/qualpay/infra/response"
	"github.com/mstgnz/qualpay/qualpay"
	"github.com/mstgnz/qualpay/store"
)

var (
	PORT             string
	openSearchLogger *opensearch.Logger
)

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Load Env: %v", err)
	}

	cfg := config.GetAppConfig()
	PORT = cfg.Port

	// Initialize OpenSearch client and logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			openSearchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized successfully")
		}
	} else {
		log.Println("OpenSearch logging is disabled")
	}

	logger.InitGlobalLogger(openSearchLogger)
}

func main() {
	settings := config.LoadSettings()

	client, err := qualpay.NewClient(settings, qualpay.ClientOptions{})
	if err != nil {
		log.Fatalf("Qualpay client: %v", err)
	}

	paymentStore, err := store.NewStore(config.GetAppConfig().DBPath)
	if err != nil {
		log.Fatalf("Payment store: %v", err)
	}
	defer paymentStore.Close()

	webhookHandler := handler.NewWebhookHandler(settings, client, paymentStore)
	healthHandler := handler.NewHealthHandler(settings)

	// Register the webhook on the platform when a public URL is configured.
	if notifyURL := config.GetEnv("WEBHOOK_NOTIFICATION_URL", ""); notifyURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		hook, err := handler.EnsureWebhook(ctx, client, settings, notifyURL)
		cancel()
		if err != nil {
			log.Printf("Webhook registration failed: %v", err)
		} else {
			log.Printf("Webhook %d active for %s", hook.WebhookID, hook.NotificationURL)
		}
	}

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	rateLimiter := middle.NewRateLimiter()
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RateLimitMiddleware(rateLimiter))
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300, // Preflight cache time (second)
	}))

	// Health check endpoint
	r.Get("/health", healthHandler.HandleHealth)

	// Webhook notifications from Qualpay
	r.Post("/webhooks/qualpay", webhookHandler.HandleWebhook)

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusNotFound, response.Response{Success: false, Message: "Not Found"})
	})

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", PORT),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err.Error())
		}
	}()

	log.Println("Webhook server is running on", PORT)

	// Block until a signal is received
	<-ctx.Done()

	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
