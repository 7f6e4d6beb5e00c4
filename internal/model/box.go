package model

// Box is a bounding box in normalized YOLO form: centre coordinates and
// dimensions expressed as fractions of the image size, all in [0, 1].
//
// Design decision: We keep boxes in the normalized centre form used by the
// annotation files rather than converting to pixel corners on load because:
// 1. Round-tripping annotation files stays lossless
// 2. Geometry filters (horizon, wedge) are defined on normalized coordinates
// 3. Pixel conversion needs the image dimensions, which are only read on demand
type Box struct {
	// CX is the normalized x coordinate of the box centre.
	CX float64 `json:"cx"`

	// CY is the normalized y coordinate of the box centre.
	CY float64 `json:"cy"`

	// W is the normalized box width.
	W float64 `json:"w"`

	// H is the normalized box height.
	H float64 `json:"h"`
}

// TopLeft returns the box in top-left form (x, y, w, h), still normalized.
// This is the form used by most visualization and export targets.
func (b Box) TopLeft() (x, y, w, h float64) {
	return b.CX - b.W/2, b.CY - b.H/2, b.W, b.H
}

// InRange reports whether the whole box lies within the unit square.
// A small tolerance absorbs rounding noise from annotation tools.
func (b Box) InRange() bool {
	const tolerance = 1e-6
	x, y, w, h := b.TopLeft()
	return x >= -tolerance && y >= -tolerance &&
		x+w <= 1+tolerance && y+h <= 1+tolerance &&
		b.W >= 0 && b.H >= 0
}

// Degenerate reports whether the box has effectively no area.
// Such boxes are produced by stray clicks in annotation tools and carry
// no usable training signal.
func (b Box) Degenerate() bool {
	const minSide = 1e-4
	return b.W < minSide || b.H < minSide
}

// Clamp returns a copy of the box clipped to the unit square.
// The centre form is recomputed from the clipped corners, so a box that was
// partially outside keeps its visible portion.
func (b Box) Clamp() Box {
	x, y, w, h := b.TopLeft()
	x2, y2 := x+w, y+h

	x = clamp01(x)
	y = clamp01(y)
	x2 = clamp01(x2)
	y2 = clamp01(y2)

	return Box{
		CX: (x + x2) / 2,
		CY: (y + y2) / 2,
		W:  x2 - x,
		H:  y2 - y,
	}
}

// IoU returns the intersection-over-union of two boxes.
// Returns 0 when either box has no area.
func (b Box) IoU(other Box) float64 {
	ax, ay, aw, ah := b.TopLeft()
	bx, by, bw, bh := other.TopLeft()

	ix := max(ax, bx)
	iy := max(ay, by)
	ix2 := min(ax+aw, bx+bw)
	iy2 := min(ay+ah, by+bh)

	if ix2 <= ix || iy2 <= iy {
		return 0
	}

	intersection := (ix2 - ix) * (iy2 - iy)
	union := aw*ah + bw*bh - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// clamp01 clips v to the [0, 1] interval.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
