package wrangle

import (
	"context"
	"fmt"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// DedupeBoxes removes duplicate boxes within each record: exact repeats
// and same-class boxes overlapping above an IoU threshold. When two boxes
// collide, the one with the higher confidence survives; a hand-labeled box
// (no confidence) beats any mined one.
type DedupeBoxes struct {
	iouThreshold float64
}

// NewDedupeBoxes creates a DedupeBoxes operation with the given threshold.
func NewDedupeBoxes(iouThreshold float64) *DedupeBoxes {
	return &DedupeBoxes{iouThreshold: iouThreshold}
}

// Name returns the operation name.
func (f *DedupeBoxes) Name() string {
	return "dedupe_boxes"
}

// Apply removes colliding boxes record by record.
func (f *DedupeBoxes) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	dropped := 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		kept := make([]model.Annotation, 0, len(rec.Annotations))
		for _, ann := range rec.Annotations {
			collided := false
			for i, existing := range kept {
				if !f.collides(existing, ann) {
					continue
				}
				collided = true
				if f.preferSecond(existing, ann) {
					kept[i] = ann
				}
				break
			}
			if collided {
				dropped++
				continue
			}
			kept = append(kept, ann)
		}

		clone := *rec
		clone.Annotations = kept
		out = append(out, &clone)
	}

	return out, fmt.Sprintf("dropped %d duplicate boxes at IoU >= %.2f", dropped, f.iouThreshold), nil
}

// collides reports whether two boxes count as duplicates.
func (f *DedupeBoxes) collides(a, b model.Annotation) bool {
	if a.ClassID != b.ClassID {
		return false
	}
	return a.Equal(b) || a.Box.IoU(b.Box) >= f.iouThreshold
}

// DedupeRecords drops records whose image content duplicates an earlier
// record's. Records are compared by content digest, so renamed copies of
// the same photo are caught; the first record in the existing (sorted)
// order survives.
type DedupeRecords struct {
	hashFn func(path string) (string, error)
}

// NewDedupeRecords creates a DedupeRecords operation. hashFn digests an
// image file; pass dataset.HashImage outside tests.
func NewDedupeRecords(hashFn func(path string) (string, error)) *DedupeRecords {
	return &DedupeRecords{hashFn: hashFn}
}

// Name returns the operation name.
func (f *DedupeRecords) Name() string {
	return "dedupe_records"
}

// Apply keeps the first record per image digest. A record whose image
// cannot be read is kept; the file checks report unreadable images
// separately.
func (f *DedupeRecords) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	seen := make(map[string]string, len(records))
	dropped := 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		hash, err := f.hashFn(rec.ImagePath)
		if err != nil {
			out = append(out, rec)
			continue
		}
		if _, ok := seen[hash]; ok {
			dropped++
			continue
		}
		seen[hash] = rec.ID
		out = append(out, rec)
	}

	return out, fmt.Sprintf("dropped %d duplicate-image records", dropped), nil
}

// preferSecond reports whether b should replace a when they collide.
// Hand-labeled boxes (nil confidence) always win; otherwise the higher
// confidence wins.
func (f *DedupeBoxes) preferSecond(a, b model.Annotation) bool {
	switch {
	case b.Confidence == nil && a.Confidence != nil:
		return true
	case b.Confidence != nil && a.Confidence == nil:
		return false
	case b.Confidence == nil && a.Confidence == nil:
		return false
	default:
		return *b.Confidence > *a.Confidence
	}
}
