package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

const (
	boxThickness = 2
	jpegQuality  = 90
)

var (
	defectColor    = color.RGBA{R: 255, A: 255}
	nonDefectColor = color.RGBA{G: 255, A: 255}
)

// Annotator burns detection boxes and labels into a copy of the source image.
// The canvas keeps the source dimensions, and the returned label sequence has
// exactly one entry per detection in input order: a malformed box is not
// drawn, but its class label still counts, because downstream consumers count
// detections, not pixels.
type Annotator struct {
	classifier *domain.DefectClassifier
}

func New(classifier *domain.DefectClassifier) *Annotator {
	return &Annotator{classifier: classifier}
}

func (a *Annotator) Annotate(imagePath string, detections []domain.Detection) ([]byte, []string, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrDecode, "read source image", err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrDecode, "decode source image", err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	classes := make([]string, 0, len(detections))
	for _, det := range detections {
		classes = append(classes, det.Class)
		if !det.Box.Valid() {
			continue
		}

		col := nonDefectColor
		if a.classifier.Categorize(det.Class) == domain.CategoryDefect {
			col = defectColor
		}
		drawBox(canvas, det.Box, col)
		drawLabel(canvas, det.Label(), det.Box.X1, det.Box.Y1, col)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, nil, fmt.Errorf("encode annotated image: %w", err)
	}
	return buf.Bytes(), classes, nil
}

func drawBox(img *image.RGBA, box domain.BoundingBox, col color.Color) {
	t := boxThickness
	fillRect(img, image.Rect(box.X1, box.Y1, box.X2, box.Y1+t), col)
	fillRect(img, image.Rect(box.X1, box.Y2-t, box.X2, box.Y2), col)
	fillRect(img, image.Rect(box.X1, box.Y1, box.X1+t, box.Y2), col)
	fillRect(img, image.Rect(box.X2-t, box.Y1, box.X2, box.Y2), col)
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.Color) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, col)
		}
	}
}

func drawLabel(img *image.RGBA, text string, x, y int, col color.Color) {
	face := basicfont.Face7x13

	// Above the top-left corner; drop inside the box when the box touches
	// the top edge. Horizontal overflow clips against the canvas.
	baseline := y - 4
	if baseline-face.Ascent < img.Bounds().Min.Y {
		baseline = y + face.Height
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}
