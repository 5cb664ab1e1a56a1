package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/defexvision/inspection-service/internal/core/domain"
	"github.com/defexvision/inspection-service/internal/core/ports"
	"github.com/defexvision/inspection-service/internal/observability/metrics"
)

// Pipeline step names used for logging and metrics labels.
const (
	StepAnnotate = "annotate"
	StepSpool    = "spool"
	StepUpload   = "upload"
	StepPersist  = "persist"
	StepNotify   = "notify"
	StepPublish  = "publish"
)

const notifySubject = "Defect Detection Result"

// InspectImageUseCase runs one inspection request end to end: detect,
// annotate, upload, fan out to record sinks, notify, publish. Decode and
// inference failures abort the request; from annotation onward every step
// failure is logged and the pipeline keeps going, because the caller
// primarily wants the detected classes even when a downstream sink is down.
type InspectImageUseCase struct {
	detector  ports.Detector
	annotator ports.Annotator
	spool     ports.ImageSpool
	artifacts ports.ArtifactStore
	sinks     []ports.RecordSink
	notifier  ports.Notifier
	events    ports.EventPublisher
	metrics   *metrics.PipelineMetrics

	now func() time.Time
}

func NewInspectImageUseCase(
	detector ports.Detector,
	annotator ports.Annotator,
	spool ports.ImageSpool,
	artifacts ports.ArtifactStore,
	sinks []ports.RecordSink,
	notifier ports.Notifier,
	events ports.EventPublisher,
	pipelineMetrics *metrics.PipelineMetrics,
) *InspectImageUseCase {
	return &InspectImageUseCase{
		detector:  detector,
		annotator: annotator,
		spool:     spool,
		artifacts: artifacts,
		sinks:     sinks,
		notifier:  notifier,
		events:    events,
		metrics:   pipelineMetrics,
		now:       time.Now,
	}
}

func (uc *InspectImageUseCase) Inspect(ctx context.Context, image io.Reader, recipientEmail string) (*domain.InspectionResult, error) {
	start := uc.now().UTC()
	requestID := start.Format(domain.RequestIDLayout)

	uploadPath, err := uc.spool.SaveUpload(ctx, requestID, image)
	if err != nil {
		uc.finish(start, "error")
		return nil, domain.WrapError(domain.ErrInvalidInput, "spool upload", err)
	}
	defer uc.spool.Cleanup(requestID)

	detections, err := uc.detector.Detect(ctx, uploadPath)
	if err != nil {
		uc.finish(start, "error")
		return nil, fmt.Errorf("detect: %w", err)
	}
	uc.observeDetections(len(detections))

	classes, resultPath := uc.annotateAndSpool(ctx, requestID, uploadPath, detections)
	imageURL := uc.upload(ctx, requestID, resultPath)

	record := domain.DetectionRecord{
		RequestID: requestID,
		Classes:   classes,
		ImageURL:  imageURL,
		Email:     recipientEmail,
		CreatedAt: start,
	}

	uc.persist(ctx, record)
	uc.notify(ctx, record)
	uc.publish(ctx, record)

	uc.finish(start, "ok")
	return &domain.InspectionResult{
		RequestID: requestID,
		Classes:   classes,
		ImageURL:  imageURL,
	}, nil
}

// annotateAndSpool renders the annotated image and writes it to the result
// spool. The classified label sequence never depends on rendering: when
// drawing or spooling fails the labels are derived straight from the
// detections and the upload step is skipped.
func (uc *InspectImageUseCase) annotateAndSpool(ctx context.Context, requestID, uploadPath string, detections []domain.Detection) (classes []string, resultPath string) {
	annotated, classes, err := uc.annotator.Annotate(uploadPath, detections)
	if err != nil {
		uc.warn(requestID, StepAnnotate, err)
		return domain.ClassLabels(detections), ""
	}

	resultPath, err = uc.spool.SaveResult(ctx, requestID, annotated)
	if err != nil {
		uc.warn(requestID, StepSpool, err)
		return classes, ""
	}
	return classes, resultPath
}

func (uc *InspectImageUseCase) upload(ctx context.Context, requestID, resultPath string) string {
	if resultPath == "" {
		return ""
	}
	url, err := uc.artifacts.Upload(ctx, resultPath)
	if err != nil {
		uc.warn(requestID, StepUpload, err)
		return ""
	}
	return url
}

// persist fans the record out to every configured sink. A sink failure never
// prevents the remaining sinks from being called and never rolls back a prior
// success.
func (uc *InspectImageUseCase) persist(ctx context.Context, record domain.DetectionRecord) {
	for _, sink := range uc.sinks {
		if err := sink.Persist(ctx, record); err != nil {
			uc.warn(record.RequestID, StepPersist+"."+sink.Name(), err)
		}
	}
}

func (uc *InspectImageUseCase) notify(ctx context.Context, record domain.DetectionRecord) {
	if uc.notifier == nil {
		return
	}
	body := fmt.Sprintf(
		"Timestamp: %s\nDetected: [%s]\nImage URL: %s",
		record.RequestID,
		strings.Join(record.Classes, ", "),
		record.ImageURL,
	)
	if err := uc.notifier.Notify(ctx, record.Email, notifySubject, body); err != nil {
		uc.warn(record.RequestID, StepNotify, err)
	}
}

func (uc *InspectImageUseCase) publish(ctx context.Context, record domain.DetectionRecord) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishDetectionCompleted(ctx, record); err != nil {
		uc.warn(record.RequestID, StepPublish, err)
	}
}

func (uc *InspectImageUseCase) warn(requestID, step string, err error) {
	slog.Warn("pipeline_step_degraded", "request_id", requestID, "step", step, "error", err)
	if uc.metrics != nil {
		uc.metrics.StepFailure(step)
	}
}

func (uc *InspectImageUseCase) observeDetections(count int) {
	if uc.metrics != nil {
		uc.metrics.ObserveDetections(count)
	}
}

func (uc *InspectImageUseCase) finish(start time.Time, status string) {
	if uc.metrics != nil {
		uc.metrics.FinishInspection(status, uc.now().UTC().Sub(start))
	}
}
