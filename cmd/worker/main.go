package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/defexvision/inspection-service/internal/config"
	"github.com/defexvision/inspection-service/internal/core/domain"
	natsqueue "github.com/defexvision/inspection-service/internal/infrastructure/queue/nats"
	"github.com/defexvision/inspection-service/internal/observability/logging"
	"github.com/defexvision/inspection-service/internal/observability/metrics"
)

// The worker tails the detection event feed and writes an audit trail. It
// deliberately skips the heavy API dependencies: no model, no database.
func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New("inspection-worker", cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		log.Fatalf("connect queue: %v", err)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics("inspection-worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = queue.SubscribeDetectionCompleted(ctx, func(_ context.Context, record domain.DetectionRecord) error {
		workerMetrics.ObserveEventLag(time.Since(record.CreatedAt))
		auditErr := audit(record)
		workerMetrics.EventConsumed(auditErr)
		return auditErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func audit(record domain.DetectionRecord) error {
	slog.Info("detection_completed",
		"request_id", record.RequestID,
		"classes", record.Classes,
		"image_url", record.ImageURL,
		"recipient", record.Email,
	)
	return nil
}
