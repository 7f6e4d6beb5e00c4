package check

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// LabelCollisionCheck finds class names that collapse to the same string
// after Unicode normalization and case folding. Such names almost always
// come from merging class lists typed by different people, and they
// silently fragment one class into several.
type LabelCollisionCheck struct {
	folder cases.Caser
}

// NewLabelCollisionCheck creates a LabelCollisionCheck.
func NewLabelCollisionCheck() *LabelCollisionCheck {
	return &LabelCollisionCheck{folder: cases.Fold()}
}

// Name returns the check name.
func (c *LabelCollisionCheck) Name() string {
	return "label-collisions"
}

// Category returns the check category.
func (c *LabelCollisionCheck) Category() string {
	return CategoryBalance
}

// Check compares all class names in canonical form.
func (c *LabelCollisionCheck) Check(ctx context.Context, data *Data) ([]model.Finding, error) {
	if data.Classes == nil {
		return nil, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	canonical := make(map[string][]string) // folded form -> original names
	for _, id := range data.Classes.IDs() {
		name := data.Classes.Name(id)
		key := c.folder.String(norm.NFKC.String(name))
		canonical[key] = append(canonical[key], fmt.Sprintf("%s (class %d)", name, id))
	}

	// Stable key order keeps the report reproducible across runs.
	keys := make([]string, 0, len(canonical))
	for key := range canonical {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	findings := make([]model.Finding, 0)
	for _, key := range keys {
		names := canonical[key]
		if len(names) < 2 {
			continue
		}
		findings = append(findings, model.NewFinding(
			"label_case_collision",
			"Class Names Collide After Normalization",
			fmt.Sprintf("%d class names normalize to %q", len(names), key),
			strings.Join(names, ", "),
			data.Subset,
		))
	}

	return findings, nil
}
