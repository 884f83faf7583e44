// Package main is the entry point for the scheduling assistant API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/config"
	"github.com/phamrachel17/plan-pal/internal/handler"
	"github.com/phamrachel17/plan-pal/internal/middleware"
	natsclient "github.com/phamrachel17/plan-pal/internal/nats"
	"github.com/phamrachel17/plan-pal/internal/parser"
	"github.com/phamrachel17/plan-pal/internal/schedule"
	"github.com/phamrachel17/plan-pal/internal/service"
	"github.com/phamrachel17/plan-pal/pkg/logger"
	"github.com/phamrachel17/plan-pal/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "plan-pal", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	apiKey := cfg.AnthropicAPIKey
	if parser.Provider(cfg.DefaultParser) == parser.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	eventParser, err := parser.New(parser.Provider(cfg.DefaultParser), apiKey)
	if err != nil {
		log.Error("failed to create event parser", zap.Error(err))
		os.Exit(1)
	}

	defaultZone, err := time.LoadLocation(cfg.DefaultTimeZone)
	if err != nil {
		log.Warn("unknown default time zone, using UTC", zap.String("time_zone", cfg.DefaultTimeZone))
		defaultZone = time.UTC
	}

	calendars := calendar.NewGoogleProvider()
	scheduler := schedule.NewScheduler(log)

	conversationSvc := service.NewConversationService(log)
	chatSvc := service.NewChatService(streamManager, conversationSvc, eventParser, scheduler, calendars, defaultZone, log)

	healthHandler := handler.NewHealthHandler(natsClient)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(streamManager, conversationSvc, log)
	streamHandler := handler.NewStreamHandler(streamManager, conversationSvc, log)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	scheduleHandler := handler.NewScheduleHandler(scheduler, calendars, streamManager, defaultZone, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Put("/", conversationHandler.Update)
				r.Delete("/", conversationHandler.Delete)

				// History
				r.Get("/messages", messageHandler.List)
				r.Get("/stream", streamHandler.Stream)

				// Chat turns hit the LLM; rate limit per user, not per tenant.
				r.With(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)).
					Post("/chat", chatHandler.Turn)
			})
		})

		// Direct scheduling
		r.Post("/schedule", scheduleHandler.Create)
		r.Put("/events/{id}", scheduleHandler.Update)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
