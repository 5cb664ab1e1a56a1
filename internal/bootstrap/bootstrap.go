package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/defexvision/inspection-service/internal/config"
	"github.com/defexvision/inspection-service/internal/core/domain"
	"github.com/defexvision/inspection-service/internal/core/ports"
	"github.com/defexvision/inspection-service/internal/core/usecase"
	"github.com/defexvision/inspection-service/internal/infrastructure/annotate"
	"github.com/defexvision/inspection-service/internal/infrastructure/artifact/cloudinary"
	"github.com/defexvision/inspection-service/internal/infrastructure/notify/smtpmail"
	"github.com/defexvision/inspection-service/internal/infrastructure/queue/nats"
	"github.com/defexvision/inspection-service/internal/infrastructure/resilience"
	"github.com/defexvision/inspection-service/internal/infrastructure/sink/firebase"
	"github.com/defexvision/inspection-service/internal/infrastructure/sink/postgres"
	"github.com/defexvision/inspection-service/internal/infrastructure/spool"
	"github.com/defexvision/inspection-service/internal/infrastructure/vision"
	"github.com/defexvision/inspection-service/internal/observability/metrics"
)

const serviceName = "inspection-api"

type App struct {
	Config config.Config

	Inspector     ports.ImageInspector
	Queue         *nats.Queue
	ServerMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	relationalSink := postgres.New(db)
	if err := relationalSink.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	documentSink := firebase.New(cfg.FirebaseDBURL, cfg.FirebaseDBSecret, cfg.FirebaseCollection, executor)
	artifacts := cloudinary.New(cfg.CloudinaryURL, cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, executor)

	imageSpool, err := spool.New(cfg.UploadDir, cfg.ResultDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init image spool: %w", err)
	}

	detector, err := vision.NewDNNDetector(cfg.ModelPath, cfg.ModelConfigPath, cfg.ModelClasses, cfg.MinConfidence)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load detection model: %w", err)
	}

	annotator := annotate.New(domain.NewDefectClassifier(cfg.DefectClasses))
	notifier := smtpmail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailSender, executor)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry, serviceName)
	serverMetrics := metrics.NewHTTPServerMetrics(registry, serviceName)

	inspector := usecase.NewInspectImageUseCase(
		detector,
		annotator,
		imageSpool,
		artifacts,
		[]ports.RecordSink{documentSink, relationalSink},
		notifier,
		queue,
		pipelineMetrics,
	)

	return &App{
		Config: cfg,

		Inspector:     inspector,
		Queue:         queue,
		ServerMetrics: serverMetrics,

		closeFn: func() {
			queue.Close()
			detector.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
