package wrangle

import (
	"context"
	"fmt"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// SelectClasses keeps records that show at least one of the wanted classes,
// capped at a per-class sample count. Used to pull a balanced subset for
// labeling review: rare classes are taken in full while a cap stops the
// common classes from flooding the selection.
//
// Records are considered in their existing (sorted) order, so the same
// input always yields the same selection.
type SelectClasses struct {
	classIDs  map[int]bool
	sampleCap int
	caps      map[int]int
}

// NewSelectClasses creates a SelectClasses operation. A sampleCap of zero
// or less means no cap.
func NewSelectClasses(classIDs []int, sampleCap int) *SelectClasses {
	ids := make(map[int]bool, len(classIDs))
	for _, id := range classIDs {
		ids[id] = true
	}
	return &SelectClasses{classIDs: ids, sampleCap: sampleCap}
}

// NewSelectClassesWithCaps creates a SelectClasses operation with an
// individual cap per class. The wanted classes are the map's keys; a cap
// of zero or less leaves that class uncapped.
func NewSelectClassesWithCaps(caps map[int]int) *SelectClasses {
	ids := make(map[int]bool, len(caps))
	for id := range caps {
		ids[id] = true
	}
	return &SelectClasses{classIDs: ids, caps: caps}
}

// Name returns the operation name.
func (f *SelectClasses) Name() string {
	return "select_classes"
}

// Apply keeps records showing a wanted class, up to the per-class cap.
// A record counts against the cap of every wanted class it shows, so the
// selection never exceeds the cap for any class.
func (f *SelectClasses) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	out := make([]*model.DatasetRecord, 0, len(records))
	taken := make(map[int]int)

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		wanted := f.wantedClasses(rec)
		if len(wanted) == 0 {
			continue
		}

		if f.allCapped(wanted, taken) {
			continue
		}

		for _, id := range wanted {
			taken[id]++
		}
		out = append(out, rec)
	}

	if f.caps != nil {
		return out, fmt.Sprintf("selected %d records for classes %s (per-class caps)", len(out), formatIDs(f.classIDs)), nil
	}
	return out, fmt.Sprintf("selected %d records for classes %s (cap %d)", len(out), formatIDs(f.classIDs), f.sampleCap), nil
}

// wantedClasses lists the wanted classes a record shows.
func (f *SelectClasses) wantedClasses(rec *model.DatasetRecord) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, ann := range rec.Annotations {
		if f.classIDs[ann.ClassID] && !seen[ann.ClassID] {
			seen[ann.ClassID] = true
			ids = append(ids, ann.ClassID)
		}
	}
	return ids
}

// allCapped reports whether every wanted class on the record already hit
// its sample cap. An uncapped class never caps out, so a record showing
// one always gets taken.
func (f *SelectClasses) allCapped(wanted []int, taken map[int]int) bool {
	for _, id := range wanted {
		limit := f.capFor(id)
		if limit <= 0 || taken[id] < limit {
			return false
		}
	}
	return true
}

// capFor returns the sample cap for a class, zero meaning uncapped.
func (f *SelectClasses) capFor(classID int) int {
	if f.caps != nil {
		return f.caps[classID]
	}
	return f.sampleCap
}
