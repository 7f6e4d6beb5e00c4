package check

import (
	"context"
	"fmt"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// ClassBalanceCheck reports distribution statistics as informational
// findings: heavily skewed class counts and the background image share.
// Neither blocks an export, but both matter when deciding what to mine
// next.
type ClassBalanceCheck struct {
	// imbalanceRatio is the most-to-least common class count ratio above
	// which imbalance is reported.
	imbalanceRatio float64
}

// NewClassBalanceCheck creates a ClassBalanceCheck with the given ratio.
func NewClassBalanceCheck(imbalanceRatio float64) *ClassBalanceCheck {
	return &ClassBalanceCheck{imbalanceRatio: imbalanceRatio}
}

// Name returns the check name.
func (c *ClassBalanceCheck) Name() string {
	return "class-balance"
}

// Category returns the check category.
func (c *ClassBalanceCheck) Category() string {
	return CategoryBalance
}

// Check computes class counts and the background share.
func (c *ClassBalanceCheck) Check(ctx context.Context, data *Data) ([]model.Finding, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	summary := model.NewDatasetSummary(data.Subset, data.Records)
	findings := make([]model.Finding, 0)

	if len(summary.ClassCounts) >= 2 {
		minID, maxID := -1, -1
		for _, id := range summary.ClassIDs() {
			n := summary.ClassCounts[id]
			if minID == -1 || n < summary.ClassCounts[minID] {
				minID = id
			}
			if maxID == -1 || n > summary.ClassCounts[maxID] {
				maxID = id
			}
		}

		ratio := float64(summary.ClassCounts[maxID]) / float64(summary.ClassCounts[minID])
		if ratio >= c.imbalanceRatio {
			findings = append(findings, model.NewFinding(
				"class_imbalance",
				"Class Imbalance",
				fmt.Sprintf("class %s has %dx more boxes than class %s",
					className(data.Classes, maxID),
					summary.ClassCounts[maxID]/summary.ClassCounts[minID],
					className(data.Classes, minID)),
				fmt.Sprintf("%.0f:1", ratio),
				data.Subset,
			))
		}
	}

	if summary.BackgroundCount > 0 {
		findings = append(findings, model.NewFinding(
			"background_image",
			"Background Images Present",
			fmt.Sprintf("%d of %d images carry no boxes", summary.BackgroundCount, summary.ImageCount),
			fmt.Sprintf("%d", summary.BackgroundCount),
			data.Subset,
		))
	}

	return findings, nil
}

// className returns the class label when a class map is available,
// otherwise the numeric ID.
func className(classes *model.ClassMap, id int) string {
	if classes != nil && classes.Known(id) {
		return classes.Name(id)
	}
	return fmt.Sprintf("%d", id)
}
