package check

import (
	"context"
	"fmt"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// AnnotationCheck inspects annotation geometry and labels on each record.
//
// This check reports:
//   - boxes outside the unit square (box_out_of_range)
//   - boxes with effectively no area (degenerate_box)
//   - class IDs not present in the class map (unknown_class)
//   - confidences outside [0, 1] (confidence_out_of_range)
//   - near-identical same-class boxes on one image (duplicate_box)
type AnnotationCheck struct {
	// iouThreshold is the overlap above which two same-class boxes count
	// as duplicates.
	iouThreshold float64
}

// NewAnnotationCheck creates an AnnotationCheck with the given duplicate
// box IoU threshold.
func NewAnnotationCheck(iouThreshold float64) *AnnotationCheck {
	return &AnnotationCheck{iouThreshold: iouThreshold}
}

// Name returns the check name.
func (c *AnnotationCheck) Name() string {
	return "annotations"
}

// Category returns the check category.
func (c *AnnotationCheck) Category() string {
	return CategoryIntegrity
}

// Check inspects every annotation of every record.
func (c *AnnotationCheck) Check(ctx context.Context, data *Data) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, rec := range data.Records {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		for i, ann := range rec.Annotations {
			boxDesc := fmt.Sprintf("box %d", i)

			if !ann.Box.InRange() {
				findings = append(findings, model.NewFinding(
					"box_out_of_range",
					"Box Outside Image Bounds",
					fmt.Sprintf("%s extends past the unit square", boxDesc),
					ann.String(),
					rec.ID,
				))
			} else if ann.Box.Degenerate() {
				// A box that is both out of range and degenerate is
				// reported once, as the range problem.
				findings = append(findings, model.NewFinding(
					"degenerate_box",
					"Zero-Area Box",
					fmt.Sprintf("%s has effectively no area", boxDesc),
					ann.String(),
					rec.ID,
				))
			}

			if data.Classes != nil && !data.Classes.Known(ann.ClassID) {
				findings = append(findings, model.NewFinding(
					"unknown_class",
					"Unknown Class ID",
					fmt.Sprintf("class %d is not in the class map", ann.ClassID),
					fmt.Sprintf("%d", ann.ClassID),
					rec.ID,
				))
			}

			if ann.Confidence != nil && (*ann.Confidence < 0 || *ann.Confidence > 1) {
				findings = append(findings, model.NewFinding(
					"confidence_out_of_range",
					"Confidence Outside [0, 1]",
					fmt.Sprintf("%s has confidence %v", boxDesc, *ann.Confidence),
					ann.String(),
					rec.ID,
				))
			}
		}

		findings = append(findings, c.duplicateBoxes(rec)...)
	}

	return findings, nil
}

// duplicateBoxes finds pairs of same-class boxes on one record that are
// either exactly equal or overlap above the IoU threshold.
func (c *AnnotationCheck) duplicateBoxes(rec *model.DatasetRecord) []model.Finding {
	var findings []model.Finding
	for i := 0; i < len(rec.Annotations); i++ {
		for j := i + 1; j < len(rec.Annotations); j++ {
			a, b := rec.Annotations[i], rec.Annotations[j]
			if a.ClassID != b.ClassID {
				continue
			}
			if a.Equal(b) || a.Box.IoU(b.Box) >= c.iouThreshold {
				findings = append(findings, model.NewFinding(
					"duplicate_box",
					"Duplicate Box",
					fmt.Sprintf("boxes %d and %d overlap at IoU %.2f", i, j, a.Box.IoU(b.Box)),
					b.String(),
					rec.ID,
				))
			}
		}
	}
	return findings
}
