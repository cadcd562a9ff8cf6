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

	"github.com/mstgnz/donate/handler"
	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/logger"
	"github.com/mstgnz/donate/infra/mail"
	"github.com/mstgnz/donate/infra/middle"
	"github.com/mstgnz/donate/infra/opensearch"
	"github.com/mstgnz/donate/infra/response"
	"github.com/mstgnz/donate/infra/session"
	"github.com/mstgnz/donate/provider"
	"github.com/mstgnz/donate/router"
	v1 "github.com/mstgnz/donate/router/v1"
)

var openSearchLogger *opensearch.Logger

func init() {
	// Load Env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	// init conf
	_ = config.App()

	// Initialize OpenSearch client and logger
	cfg := config.GetAppConfig()
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
	cfg := config.GetAppConfig()

	// Persistent storage backs form settings, fundraiser records, the
	// donation audit log and the tax-rule cache.
	storage, err := config.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	forms := config.NewStore(storage)
	resolver := config.NewTaxRuleResolver(storage)

	sessionTTL := time.Duration(config.GetIntEnv("SESSION_TTL_MINUTES", 60)) * time.Minute
	sessions := session.NewStore(sessionTTL)
	defer sessions.Close()

	var mailer provider.Mailer
	if smtpAddr := config.GetEnv("SMTP_ADDR", ""); smtpAddr != "" {
		mailer = mail.NewSMTPMailer(smtpAddr)
	} else {
		log.Println("SMTP_ADDR not set, emails will be logged instead of sent")
		mailer = mail.LogMailer{}
	}

	finalizer := provider.NewFinalizer(storage, mailer)

	var flowLog provider.FlowLogger
	if openSearchLogger != nil {
		flowLog = provider.NewOpenSearchFlowLogger(openSearchLogger)
	}

	donationService := provider.NewDonationService(forms, sessions, finalizer, nil, flowLog, cfg.BaseURL)

	// Chi Define Routes
	r := chi.NewRouter()

	// Basic Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	// Security Middleware
	rateLimiter := middle.NewRateLimiter()
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RateLimitMiddleware(rateLimiter))
	r.Use(middle.RequestValidationMiddleware())

	// CORS: the donation form is embedded on arbitrary campaign sites
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300, // Preflight cache time (second)
	}))

	// Health check endpoint (no auth required)
	r.Get("/health", handler.Health(openSearchLogger != nil))

	// API routes
	deps := v1.Dependencies{
		Service:  donationService,
		Forms:    forms,
		Resolver: resolver,
		Config:   cfg,
	}
	if openSearchLogger != nil {
		deps.Logs = openSearchLogger
	}
	router.Routes(r, deps)

	// Not Found
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Not Found"})
	})

	// Create a context that listens for interrupt and terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	// Run your HTTP server in a goroutine
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err.Error())
		}
	}()

	log.Println("API is running on", cfg.Port)

	// Block until a signal is received
	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
