//go:build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

const dnnInputSide = 300

// DNNDetector runs the exported inspection model through the OpenCV DNN
// backend. Detections keep the network's native output order and normalized
// boxes are scaled back to source pixels.
type DNNDetector struct {
	classes       []string
	minConfidence float32

	// Forward mutates network state; one inference at a time.
	mu  sync.Mutex
	net gocv.Net
}

func NewDNNDetector(modelPath, configPath string, classes []string, minConfidence float64) (*DNNDetector, error) {
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("read detection model %s: empty network", modelPath)
	}
	return &DNNDetector{
		classes:       classes,
		minConfidence: float32(minConfidence),
		net:           net,
	}, nil
}

func (d *DNNDetector) Close() {
	d.net.Close()
}

func (d *DNNDetector) Detect(_ context.Context, imagePath string) ([]domain.Detection, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, domain.WrapError(domain.ErrDecode, "read image", fmt.Errorf("cannot decode %s", imagePath))
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(dnnInputSide, dnnInputSide),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	if out.Empty() {
		return nil, domain.WrapError(domain.ErrInference, "model forward", errors.New("empty network output"))
	}

	width := float32(mat.Cols())
	height := float32(mat.Rows())

	// Output rows are 7-float records: [batch, classID, confidence, l, t, r, b].
	var detections []domain.Detection
	for i := 0; i+6 < out.Total(); i += 7 {
		confidence := out.GetFloatAt(0, i+2)
		if confidence < d.minConfidence {
			continue
		}

		classID := int(out.GetFloatAt(0, i+1))
		box := domain.BoundingBox{
			X1: clamp(int(out.GetFloatAt(0, i+3)*width), 0, int(width)),
			Y1: clamp(int(out.GetFloatAt(0, i+4)*height), 0, int(height)),
			X2: clamp(int(out.GetFloatAt(0, i+5)*width), 0, int(width)),
			Y2: clamp(int(out.GetFloatAt(0, i+6)*height), 0, int(height)),
		}

		detections = append(detections, domain.Detection{
			Class:      d.className(classID),
			Box:        box,
			Confidence: float64(confidence),
		})
	}
	return detections, nil
}

func (d *DNNDetector) className(classID int) string {
	if classID >= 0 && classID < len(d.classes) {
		return d.classes[classID]
	}
	return fmt.Sprintf("class-%d", classID)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
