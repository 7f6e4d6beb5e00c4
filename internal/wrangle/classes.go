package wrangle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// RemoveClasses strips boxes of the listed classes from every record.
// Records whose boxes were all removed are dropped entirely: an image
// that only ever showed unwanted classes carries no signal once they are
// gone, unlike a genuine background image.
type RemoveClasses struct {
	classIDs map[int]bool
}

// NewRemoveClasses creates a RemoveClasses operation for the given IDs.
func NewRemoveClasses(classIDs []int) *RemoveClasses {
	ids := make(map[int]bool, len(classIDs))
	for _, id := range classIDs {
		ids[id] = true
	}
	return &RemoveClasses{classIDs: ids}
}

// Name returns the operation name.
func (f *RemoveClasses) Name() string {
	return "remove_classes"
}

// Apply removes boxes of the configured classes and drops emptied records.
func (f *RemoveClasses) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	droppedRecords := 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		if rec.OnlyClasses(f.classIDs) {
			droppedRecords++
			continue
		}

		out = append(out, filterAnnotations(rec, func(ann model.Annotation) bool {
			return !f.classIDs[ann.ClassID]
		}))
	}

	detail := fmt.Sprintf("removed classes %s, dropped %d emptied records", formatIDs(f.classIDs), droppedRecords)
	return out, detail, nil
}

// RemapClasses rewrites class IDs according to a mapping. IDs absent from
// the mapping pass through unchanged. Used when merging datasets labeled
// against different class lists.
type RemapClasses struct {
	mapping map[int]int
}

// NewRemapClasses creates a RemapClasses operation.
func NewRemapClasses(mapping map[int]int) *RemapClasses {
	return &RemapClasses{mapping: mapping}
}

// Name returns the operation name.
func (f *RemapClasses) Name() string {
	return "remap_classes"
}

// Apply rewrites the class ID of every mapped box.
func (f *RemapClasses) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	remapped := 0

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		anns := make([]model.Annotation, len(rec.Annotations))
		for i, ann := range rec.Annotations {
			if newID, ok := f.mapping[ann.ClassID]; ok {
				ann.ClassID = newID
				remapped++
			}
			anns[i] = ann
		}
		clone := *rec
		clone.Annotations = anns
		out = append(out, &clone)
	}

	return out, fmt.Sprintf("remapped %d boxes across %d class mappings", remapped, len(f.mapping)), nil
}

// formatIDs renders a class ID set as a sorted comma list.
func formatIDs(ids map[int]bool) string {
	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
