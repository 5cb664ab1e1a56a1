package ports

import (
	"context"
	"io"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

// Detector wraps the opaque detection model. Detections come back in the
// model's native output order; a decode or invocation failure is terminal for
// the request.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]domain.Detection, error)
}

// Annotator burns detection boxes and labels into a copy of the source image
// and returns the classified label sequence, one entry per detection in input
// order.
type Annotator interface {
	Annotate(imagePath string, detections []domain.Detection) (annotated []byte, classes []string, err error)
}

// ArtifactStore uploads a rendered image and returns a durable URL.
type ArtifactStore interface {
	Upload(ctx context.Context, imagePath string) (string, error)
}

// RecordSink persists one DetectionRecord. Sinks are independent: the
// pipeline iterates all of them and collects failures instead of raising.
type RecordSink interface {
	Name() string
	Persist(ctx context.Context, record domain.DetectionRecord) error
}

// Notifier delivers a plain-text message about a finished inspection.
// Fire-and-forget relative to the caller's response.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// EventPublisher feeds completed detections to downstream consumers.
type EventPublisher interface {
	PublishDetectionCompleted(ctx context.Context, record domain.DetectionRecord) error
}

// EventStream is the consumer side of the detection event feed.
type EventStream interface {
	EventPublisher
	SubscribeDetectionCompleted(ctx context.Context, handler func(context.Context, domain.DetectionRecord) error) error
}

// ImageSpool stores request-scoped image files. Spooled files must be removed
// on every exit path.
type ImageSpool interface {
	SaveUpload(ctx context.Context, requestID string, data io.Reader) (string, error)
	SaveResult(ctx context.Context, requestID string, data []byte) (string, error)
	Cleanup(requestID string)
}
