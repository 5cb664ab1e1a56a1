//go:build !gocv

package vision

import (
	"context"
	"errors"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

// DNNDetector stub for builds without the gocv tag (no OpenCV toolchain).
type DNNDetector struct{}

func NewDNNDetector(modelPath, configPath string, classes []string, minConfidence float64) (*DNNDetector, error) {
	_ = modelPath
	_ = configPath
	_ = classes
	_ = minConfidence
	return &DNNDetector{}, nil
}

func (d *DNNDetector) Close() {}

func (d *DNNDetector) Detect(context.Context, string) ([]domain.Detection, error) {
	return nil, domain.WrapError(domain.ErrInference, "model forward", errors.New("gocv build tag is not enabled"))
}
