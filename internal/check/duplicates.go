package check

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/model"
)

// DuplicateImageCheck finds byte-identical images by content hash.
// Duplicate images inflate evaluation metrics, and when the copies sit in
// different splits they leak training data straight into validation.
type DuplicateImageCheck struct {
	// hashFunc computes the content hash of an image file.
	// Overridable for tests.
	hashFunc func(path string) (string, error)
}

// NewDuplicateImageCheck creates a DuplicateImageCheck.
func NewDuplicateImageCheck() *DuplicateImageCheck {
	return &DuplicateImageCheck{hashFunc: dataset.HashImage}
}

// Name returns the check name.
func (c *DuplicateImageCheck) Name() string {
	return "duplicate-images"
}

// Category returns the check category.
func (c *DuplicateImageCheck) Category() string {
	return CategoryLeakage
}

// Check hashes every image and reports groups with identical content.
func (c *DuplicateImageCheck) Check(ctx context.Context, data *Data) ([]model.Finding, error) {
	byHash := make(map[string][]*model.DatasetRecord)

	for _, rec := range data.Records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		hash, err := c.hashFunc(rec.ImagePath)
		if err != nil {
			// The file check reports missing images; skip here.
			continue
		}
		byHash[hash] = append(byHash[hash], rec)
	}

	// Stable hash order keeps the report reproducible across runs.
	hashes := make([]string, 0, len(byHash))
	for hash := range byHash {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	findings := make([]model.Finding, 0)
	for _, hash := range hashes {
		records := byHash[hash]
		if len(records) < 2 {
			continue
		}

		ids := make([]string, len(records))
		crossSplit := false
		for i, rec := range records {
			ids[i] = rec.ID
			if rec.Subset != records[0].Subset {
				crossSplit = true
			}
		}

		description := fmt.Sprintf("%d records share identical image bytes", len(records))
		if crossSplit {
			description += "; the copies span multiple subsets"
		}

		// One finding per group, anchored at the first record.
		findings = append(findings, model.NewFinding(
			"duplicate_image",
			"Duplicate Image Content",
			description,
			hash[:16]+" "+strings.Join(ids[1:], ", "),
			ids[0],
		))
	}

	return findings, nil
}
