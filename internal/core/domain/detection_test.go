package domain

import (
	"testing"
)

func TestDefectClassifierCategorize(t *testing.T) {
	classifier := NewDefectClassifier([]string{"IC-defect", "LED-defect", "capacitor-defect"})

	cases := []struct {
		label string
		want  Category
	}{
		{"IC-defect", CategoryDefect},
		{"capacitor-defect", CategoryDefect},
		{"capacitor", CategoryNonDefect},
		{"resistor", CategoryNonDefect},
		{"", CategoryNonDefect},
		{"ic-defect", CategoryNonDefect},
	}
	for _, tc := range cases {
		if got := classifier.Categorize(tc.label); got != tc.want {
			t.Fatalf("Categorize(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestClassLabelsPreservesOrderAndDuplicates(t *testing.T) {
	detections := []Detection{
		{Class: "capacitor", Confidence: 0.7},
		{Class: "IC-defect", Confidence: 0.9},
		{Class: "capacitor", Confidence: 0.5},
	}

	labels := ClassLabels(detections)
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}
	want := []string{"capacitor", "IC-defect", "capacitor"}
	for i, label := range want {
		if labels[i] != label {
			t.Fatalf("labels[%d] = %q, want %q", i, labels[i], label)
		}
	}
}

func TestClassLabelsEmptyInput(t *testing.T) {
	labels := ClassLabels(nil)
	if labels == nil || len(labels) != 0 {
		t.Fatalf("ClassLabels(nil) = %v, want non-nil empty slice", labels)
	}
}

func TestBoundingBoxValid(t *testing.T) {
	cases := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{"normal", BoundingBox{X1: 1, Y1: 2, X2: 10, Y2: 20}, true},
		{"zero width", BoundingBox{X1: 5, Y1: 2, X2: 5, Y2: 20}, false},
		{"zero height", BoundingBox{X1: 1, Y1: 9, X2: 10, Y2: 9}, false},
		{"inverted", BoundingBox{X1: 10, Y1: 20, X2: 1, Y2: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.box.Valid(); got != tc.want {
				t.Fatalf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetectionLabel(t *testing.T) {
	detection := Detection{Class: "IC-defect", Confidence: 0.914}
	if got := detection.Label(); got != "IC-defect (0.91)" {
		t.Fatalf("Label() = %q", got)
	}
}
