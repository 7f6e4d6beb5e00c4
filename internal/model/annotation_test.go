package model

import (
	"errors"
	"testing"
)

// TestParseAnnotationLine tests parsing of darknet annotation lines.
func TestParseAnnotationLine(t *testing.T) {
	t.Parallel()

	t.Run("five fields without confidence", func(t *testing.T) {
		t.Parallel()
		ann, err := ParseAnnotationLine("3 0.5 0.5 0.1 0.2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ann.ClassID != 3 {
			t.Errorf("ClassID = %d, expected 3", ann.ClassID)
		}
		if ann.Confidence != nil {
			t.Error("expected nil confidence for 5-field line")
		}
		if ann.Box.W != 0.1 || ann.Box.H != 0.2 {
			t.Errorf("box size = (%v, %v), expected (0.1, 0.2)", ann.Box.W, ann.Box.H)
		}
	})

	t.Run("six fields with confidence", func(t *testing.T) {
		t.Parallel()
		ann, err := ParseAnnotationLine("0 0.25 0.75 0.05 0.05 0.87")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ann.Confidence == nil {
			t.Fatal("expected confidence for 6-field line")
		}
		if *ann.Confidence != 0.87 {
			t.Errorf("confidence = %v, expected 0.87", *ann.Confidence)
		}
	})

	t.Run("tabs and extra whitespace", func(t *testing.T) {
		t.Parallel()
		ann, err := ParseAnnotationLine("  1\t0.5  0.5\t0.1 0.1  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ann.ClassID != 1 {
			t.Errorf("ClassID = %d, expected 1", ann.ClassID)
		}
	})

	t.Run("empty line", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAnnotationLine("   ")
		if !errors.Is(err, ErrEmptyAnnotationLine) {
			t.Errorf("expected ErrEmptyAnnotationLine, got %v", err)
		}
	})

	t.Run("malformed lines", func(t *testing.T) {
		t.Parallel()
		malformed := []string{
			"1 0.5 0.5 0.1",          // too few fields
			"1 0.5 0.5 0.1 0.1 0.9 7", // too many fields
			"cat 0.5 0.5 0.1 0.1",    // non-numeric class
			"1 0.5 abc 0.1 0.1",      // non-numeric coordinate
			"-1 0.5 0.5 0.1 0.1",     // negative class
		}
		for _, line := range malformed {
			if _, err := ParseAnnotationLine(line); !errors.Is(err, ErrMalformedAnnotation) {
				t.Errorf("ParseAnnotationLine(%q): expected ErrMalformedAnnotation, got %v", line, err)
			}
		}
	})
}

// TestAnnotationString tests round-tripping an annotation through String.
func TestAnnotationString(t *testing.T) {
	t.Parallel()

	conf := 0.5
	testCases := []struct {
		name string
		ann  Annotation
	}{
		{"without confidence", Annotation{ClassID: 2, Box: Box{CX: 0.5, CY: 0.25, W: 0.125, H: 0.0625}}},
		{"with confidence", Annotation{ClassID: 0, Box: Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}, Confidence: &conf}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			parsed, err := ParseAnnotationLine(tc.ann.String())
			if err != nil {
				t.Fatalf("round trip failed: %v", err)
			}
			if !parsed.Equal(tc.ann) {
				t.Errorf("round trip changed annotation: %v -> %v", tc.ann, parsed)
			}
			if (parsed.Confidence == nil) != (tc.ann.Confidence == nil) {
				t.Error("round trip lost or invented confidence")
			}
		})
	}
}

// TestAnnotationEqual verifies that equality ignores confidence.
func TestAnnotationEqual(t *testing.T) {
	t.Parallel()

	low, high := 0.3, 0.9
	a := Annotation{ClassID: 1, Box: Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}, Confidence: &low}
	b := Annotation{ClassID: 1, Box: Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}, Confidence: &high}
	c := Annotation{ClassID: 2, Box: Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}}

	if !a.Equal(b) {
		t.Error("annotations differing only in confidence should be equal")
	}
	if a.Equal(c) {
		t.Error("annotations with different classes should not be equal")
	}
}
