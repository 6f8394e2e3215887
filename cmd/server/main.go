package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/auth"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/config"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/handlers"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/logger"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/middleware"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/queue"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/scheduler"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/services/ai"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("auth_enabled", cfg.AuthJWKSURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing (optional)
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "evolved-todo-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Task store: postgres when configured, in-memory otherwise
	var provider store.Provider
	var dbPinger handlers.Pinger
	if cfg.DatabaseURL != "" {
		pgProvider, err := store.NewPostgresProvider(cfg.DatabaseURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
		}
		provider = pgProvider
		dbPinger = pgProvider
		zapLogger.Info("connected_to_database")
	} else {
		provider = store.NewMemoryProvider()
		zapLogger.Warn("no_database_configured_using_memory_store")
	}
	defer func() {
		if err := provider.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()

	// Redis-backed rate limiting (optional)
	var rateLimitMW func(http.Handler) http.Handler
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid_redis_url", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()

		rateLimitMW, err = middleware.RateLimit(redisClient, cfg.RateLimit)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
		}
		zapLogger.Info("connected_to_redis", zap.String("rate", cfg.RateLimit))
	} else {
		zapLogger.Warn("no_redis_configured_rate_limiting_disabled")
	}

	// RabbitMQ job queue (optional). Retry with backoff to cover broker
	// startup delays.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue = connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if jobQueue != nil {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	} else {
		zapLogger.Warn("no_rabbitmq_configured_advance_retries_disabled")
	}

	// JWT verification (optional; unset means single-owner local mode)
	var verifier *auth.Verifier
	if cfg.AuthJWKSURL != "" {
		verifier = auth.NewVerifier(auth.NewJWKSManager(), cfg.AuthJWKSURL, cfg.AuthIssuer)
		zapLogger.Info("auth_enabled", zap.String("issuer", cfg.AuthIssuer))
	} else {
		zapLogger.Warn("auth_disabled_using_default_owner")
	}

	// AI chat (optional)
	var chatService *ai.ChatService
	if cfg.OpenAIKey != "" {
		aiProvider := ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		chatService = ai.NewChatService(aiProvider)
		zapLogger.Info("ai_chat_enabled", zap.String("model", cfg.AIModel))
	} else {
		zapLogger.Warn("no_openai_key_chat_disabled")
	}

	taskHandler := handlers.NewTaskHandler(provider, jobQueue, zapLogger)
	healthChecker := handlers.NewHealthChecker(dbPinger, jobQueue)

	r := mux.NewRouter()

	// In gorilla/mux, middleware executes in registration order
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("evolved-todo-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Health checks stay public and unthrottled
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Auth(verifier, zapLogger))
	if rateLimitMW != nil {
		apiRouter.Use(rateLimitMW)
	}

	tasksRouter := apiRouter.PathPrefix("/tasks").Subrouter()
	taskHandler.RegisterRoutes(tasksRouter)

	if chatService != nil {
		chatHandler := handlers.NewChatHandler(chatService, provider, zapLogger)
		chatHandler.RegisterRoutes(apiRouter)
	}

	// Catch-all OPTIONS handler so preflight requests get a response even on
	// routes that don't register the method
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Daily reminder scan
	reminders := scheduler.NewReminderScheduler(provider, zapLogger)
	if _, err := reminders.Schedule(cfg.ReminderCron); err != nil {
		zapLogger.Fatal("invalid_reminder_cron", zap.String("spec", cfg.ReminderCron), zap.Error(err))
	}
	reminders.Start()
	defer reminders.Stop()
	zapLogger.Info("reminder_scheduler_started", zap.String("spec", cfg.ReminderCron))

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ dials the broker with exponential backoff. Returns nil if
// the broker never comes up; the server runs without background retries.
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Error("failed_to_connect_to_rabbitmq_after_retries", zap.Int("max_retries", maxRetries))
	return nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
