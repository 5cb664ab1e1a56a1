package domain

import "fmt"

// Category is the derived Defect/Non-Defect classification of a detection.
type Category string

const (
	CategoryDefect    Category = "Defect"
	CategoryNonDefect Category = "Non-Defect"
)

// BoundingBox holds pixel coordinates of a detected object, x1<x2 and y1<y2
// for a well-formed box.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b BoundingBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}

// Detection is one model-reported object instance. Confidence is 0 when the
// model does not report one. Immutable, scoped to a single request.
type Detection struct {
	Class      string      `json:"class"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// Label renders the annotation text drawn above a bounding box.
func (d Detection) Label() string {
	return fmt.Sprintf("%s (%.2f)", d.Class, d.Confidence)
}

// DefectClassifier categorizes class labels against a fixed defect-label set.
// Classification is total: labels outside the set, including labels never seen
// during configuration, are Non-Defect.
type DefectClassifier struct {
	defects map[string]struct{}
}

func NewDefectClassifier(defectLabels []string) *DefectClassifier {
	defects := make(map[string]struct{}, len(defectLabels))
	for _, label := range defectLabels {
		defects[label] = struct{}{}
	}
	return &DefectClassifier{defects: defects}
}

func (c *DefectClassifier) Categorize(classLabel string) Category {
	if _, ok := c.defects[classLabel]; ok {
		return CategoryDefect
	}
	return CategoryNonDefect
}

// ClassLabels projects detections onto their class labels, preserving input
// order and duplicates.
func ClassLabels(detections []Detection) []string {
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		labels = append(labels, d.Class)
	}
	return labels
}
