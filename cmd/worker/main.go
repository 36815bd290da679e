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
	"github.com/benvon/social-momentum/internal/logger"
	"github.com/benvon/social-momentum/internal/metrics"
	"github.com/benvon/social-momentum/internal/queue"
	"github.com/benvon/social-momentum/internal/services/ai"
	"github.com/benvon/social-momentum/internal/services/momentum"
	"github.com/benvon/social-momentum/internal/telemetry"
	"github.com/benvon/social-momentum/internal/workers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	noSchedule := flag.Bool("no-schedule", false, "Only consume jobs; do not run the periodic scheduler")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatalf("RABBITMQ_URL is required for the worker")
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("schedule", cfg.ScheduleCron),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled {
		stopTracing, _ := telemetry.Setup(ctx, "social-momentum-worker", cfg.OTELEndpoint, zapLogger)
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
	zapLogger.Info("connected_to_database")

	jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, 10, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	if !*noSchedule {
		if err := workers.ValidateSchedule(cfg.ScheduleCron); err != nil {
			zapLogger.Fatal("invalid_schedule", zap.String("schedule", cfg.ScheduleCron), zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	provider, err := ai.NewDefaultRegistry().FromConfig(cfg.AI, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_using_templates", zap.Error(err))
		provider = nil
	}

	socialStore := database.NewSocialStore(db)
	agent := momentum.NewAgent(
		socialStore,
		database.NewAgentStore(db),
		cfg.Agent,
		momentum.WithProvider(provider),
		momentum.WithMetrics(m),
		momentum.WithLogger(zapLogger),
	)
	worker := workers.NewMomentumWorker(agent, jobQueue, m, zapLogger)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return errors.New("message channel closed")
				}
				if err := worker.ProcessJob(gctx, msg); err != nil {
					job := msg.GetJob()
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
					)
				}
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-errChan:
				if !ok {
					return nil
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	})

	if !*noSchedule {
		scheduler := workers.NewScheduler(jobQueue, socialStore, cfg.ScheduleCron, m, zapLogger)
		g.Go(func() error {
			return ignoreCanceled(scheduler.Start(gctx))
		})
	}

	if cfg.MetricsEnabled && cfg.WorkerMetricsPort != "" {
		metricsSrv := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	dlqGC := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
	g.Go(func() error {
		return ignoreCanceled(dlqGC.Start(gctx))
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return
	}
	zapLogger.Info("worker_stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
