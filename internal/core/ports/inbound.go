package ports

import (
	"context"
	"io"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

// ImageInspector is the inbound contract for the detection pipeline.
type ImageInspector interface {
	Inspect(ctx context.Context, image io.Reader, recipientEmail string) (*domain.InspectionResult, error)
}
