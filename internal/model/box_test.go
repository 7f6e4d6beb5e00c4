package model

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestBoxTopLeft tests centre-form to top-left conversion.
func TestBoxTopLeft(t *testing.T) {
	t.Parallel()

	b := Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.4}
	x, y, w, h := b.TopLeft()
	if !almostEqual(x, 0.4) || !almostEqual(y, 0.3) {
		t.Errorf("TopLeft() corner = (%v, %v), expected (0.4, 0.3)", x, y)
	}
	if !almostEqual(w, 0.2) || !almostEqual(h, 0.4) {
		t.Errorf("TopLeft() size = (%v, %v), expected (0.2, 0.4)", w, h)
	}
}

// TestBoxInRange tests unit-square containment.
func TestBoxInRange(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		box      Box
		expected bool
	}{
		{"centered box", Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2}, true},
		{"touching edges", Box{CX: 0.5, CY: 0.5, W: 1.0, H: 1.0}, true},
		{"left overflow", Box{CX: 0.05, CY: 0.5, W: 0.2, H: 0.2}, false},
		{"bottom overflow", Box{CX: 0.5, CY: 0.95, W: 0.2, H: 0.2}, false},
		{"negative centre", Box{CX: -0.1, CY: 0.5, W: 0.1, H: 0.1}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.box.InRange(); got != tc.expected {
				t.Errorf("InRange() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestBoxDegenerate tests detection of zero-area boxes.
func TestBoxDegenerate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		box      Box
		expected bool
	}{
		{"normal box", Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}, false},
		{"zero width", Box{CX: 0.5, CY: 0.5, W: 0, H: 0.1}, true},
		{"zero height", Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0}, true},
		{"hairline", Box{CX: 0.5, CY: 0.5, W: 1e-5, H: 0.1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.box.Degenerate(); got != tc.expected {
				t.Errorf("Degenerate() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestBoxClamp tests clipping a box to the unit square.
func TestBoxClamp(t *testing.T) {
	t.Parallel()

	t.Run("in-range box unchanged", func(t *testing.T) {
		t.Parallel()
		b := Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2}
		c := b.Clamp()
		if !almostEqual(c.CX, b.CX) || !almostEqual(c.CY, b.CY) ||
			!almostEqual(c.W, b.W) || !almostEqual(c.H, b.H) {
			t.Errorf("Clamp() changed an in-range box: %+v", c)
		}
	})

	t.Run("overflowing box clipped", func(t *testing.T) {
		t.Parallel()
		b := Box{CX: 0.95, CY: 0.5, W: 0.2, H: 0.2}
		c := b.Clamp()
		if !c.InRange() {
			t.Errorf("Clamp() result still out of range: %+v", c)
		}
		// Right edge was at 1.05, so half the overflow should be cut.
		if !almostEqual(c.W, 0.15) {
			t.Errorf("Clamp() width = %v, expected 0.15", c.W)
		}
	})
}

// TestBoxIoU tests intersection-over-union.
func TestBoxIoU(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		a, b     Box
		expected float64
	}{
		{
			name:     "identical boxes",
			a:        Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2},
			b:        Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2},
			expected: 1.0,
		},
		{
			name:     "disjoint boxes",
			a:        Box{CX: 0.2, CY: 0.2, W: 0.1, H: 0.1},
			b:        Box{CX: 0.8, CY: 0.8, W: 0.1, H: 0.1},
			expected: 0.0,
		},
		{
			name: "half overlap",
			// Second box shifted right by half its width.
			a:        Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2},
			b:        Box{CX: 0.6, CY: 0.5, W: 0.2, H: 0.2},
			expected: 1.0 / 3.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := tc.a.IoU(tc.b)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("IoU() = %v, expected %v", got, tc.expected)
			}
		})
	}
}
