package wrangle

import (
	"context"
	"fmt"
	"math"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// HorizonFilter drops boxes whose centre sits above a horizontal line.
// Road defects live on the road; a detection centred above the horizon
// is sky, signage, or a reflection, never a defect.
//
// The horizon is a normalized y coordinate; 0 is the top of the image.
type HorizonFilter struct {
	horizon float64
}

// NewHorizonFilter creates a HorizonFilter for the given normalized y.
func NewHorizonFilter(horizon float64) *HorizonFilter {
	return &HorizonFilter{horizon: horizon}
}

// Name returns the operation name.
func (f *HorizonFilter) Name() string {
	return "filter_horizon"
}

// Apply drops boxes whose centre is above the horizon line.
func (f *HorizonFilter) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	dropped := 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		before := len(rec.Annotations)
		filtered := filterAnnotations(rec, func(ann model.Annotation) bool {
			return ann.Box.CY >= f.horizon
		})
		dropped += before - len(filtered.Annotations)
		out = append(out, filtered)
	}

	return out, fmt.Sprintf("dropped %d boxes above horizon y=%.2f", dropped, f.horizon), nil
}

// WedgeFilter drops boxes whose centre falls inside the top-corner
// wedges of the frame. Overhead clutter collects in those corners on
// vehicle-mounted footage: signage, powerlines, tree canopy, never
// road surface.
//
// The wedge apex sits at (0.5, apex) in normalized coordinates; an apex
// above the image top (negative y) keeps the frame centre clear. The
// wedge sides descend from the apex toward the left and right edges at
// the given gradient, and a centre above either side is inside a wedge:
// cy <= apex + gradient*|cx-0.5|.
type WedgeFilter struct {
	gradient float64
	apex     float64
}

// NewWedgeFilter creates a WedgeFilter with the given side gradient and
// apex y coordinate.
func NewWedgeFilter(gradient, apex float64) *WedgeFilter {
	return &WedgeFilter{gradient: gradient, apex: apex}
}

// Name returns the operation name.
func (f *WedgeFilter) Name() string {
	return "filter_wedge"
}

// inWedge reports whether a box centre lies inside either corner wedge.
func (f *WedgeFilter) inWedge(b model.Box) bool {
	return b.CY <= f.apex+f.gradient*math.Abs(b.CX-0.5)
}

// Apply drops boxes centred inside the corner wedges.
func (f *WedgeFilter) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	dropped := 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		before := len(rec.Annotations)
		filtered := filterAnnotations(rec, func(ann model.Annotation) bool {
			return !f.inWedge(ann.Box)
		})
		dropped += before - len(filtered.Annotations)
		out = append(out, filtered)
	}

	return out, fmt.Sprintf("dropped %d boxes inside top corner wedges", dropped), nil
}

// ClampBoxes repairs geometry in place of flagging it: boxes partially
// outside the unit square are clipped to it, and boxes left without area
// are dropped.
type ClampBoxes struct{}

// NewClampBoxes creates a ClampBoxes operation.
func NewClampBoxes() *ClampBoxes {
	return &ClampBoxes{}
}

// Name returns the operation name.
func (f *ClampBoxes) Name() string {
	return "clamp_boxes"
}

// Apply clips out-of-range boxes and drops degenerate ones.
func (f *ClampBoxes) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	clamped, dropped := 0, 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		kept := make([]model.Annotation, 0, len(rec.Annotations))
		for _, ann := range rec.Annotations {
			if !ann.Box.InRange() {
				ann.Box = ann.Box.Clamp()
				clamped++
			}
			if ann.Box.Degenerate() {
				dropped++
				continue
			}
			kept = append(kept, ann)
		}
		clone := *rec
		clone.Annotations = kept
		out = append(out, &clone)
	}

	return out, fmt.Sprintf("clamped %d boxes, dropped %d degenerate boxes", clamped, dropped), nil
}
