package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/social-momentum/internal/config"
	"github.com/benvon/social-momentum/internal/database"
	"github.com/benvon/social-momentum/internal/handlers"
	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/middleware"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/benvon/social-momentum/internal/services/ai"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/benvon/social-momentum/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "social-momentum-api"

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
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
		zap.String("ai_model", cfg.AI.Model),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := false
	if cfg.OTELEnabled {
		var stopTracing func()
		stopTracing, tracingEnabled = telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint, zapLogger)
		defer stopTracing()
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// The queue only backs ?async=true runs, so the API still serves without it.
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.Connect(ctx, cfg.RabbitMQURL, 10, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
	} else {
		zapLogger.Warn("rabbitmq_not_configured_async_runs_disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	provider, err := ai.NewDefaultRegistry().FromConfig(cfg.AI, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_using_templates", zap.Error(err))
		provider = nil
	}

	agent := momentum.NewAgent(
		database.NewSocialStore(db),
		database.NewAgentStore(db),
		cfg.Agent,
		momentum.WithProvider(provider),
		momentum.WithMetrics(m),
		momentum.WithLogger(zapLogger),
	)

	var enqueuer handlers.JobEnqueuer
	checks := map[string]handlers.Pinger{
		"database": handlers.PingerFunc(db.HealthCheck),
		"redis":    redisLimiter,
	}
	if jobQueue != nil {
		enqueuer = jobQueue
		checks["rabbitmq"] = handlers.PingerFunc(jobQueue.HealthCheck)
	}
	momentumHandler := handlers.NewMomentumHandler(agent, enqueuer, zapLogger)
	healthChecker := handlers.NewHealthChecker(checks)

	rateLimitMW, err := redisLimiter.Middleware(cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first.
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger, m))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler(reg)).Methods(http.MethodGet)
	}

	usersRouter := r.PathPrefix("/api/v1/users/{userID}").Subrouter()
	momentumHandler.RegisterRoutes(usersRouter)

	// Runs may call the language model, so they carry the rate limit.
	runRouter := usersRouter.PathPrefix("/momentum/run").Subrouter()
	runRouter.Use(rateLimitMW)
	runRouter.HandleFunc("", momentumHandler.Run).Methods(http.MethodPost)

	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A synchronous run may wait on the language model.
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	if jobQueue != nil {
		dlqGC := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
