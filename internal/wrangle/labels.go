package wrangle

import (
	"context"
	"fmt"
	"strings"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// NormalizeLabels folds class-name variants onto a canonical class.
// Datasets merged from several labeling sessions often carry the same
// object under different spellings ("Pot-hole", "pothole", "pot_hole");
// this operation remaps every variant's class ID onto the canonical ID
// so the merged dataset trains as one class.
//
// Variants are matched two ways: an explicit variant-to-canonical name
// map, and automatic folding of names that differ only in case or in
// the '-', '_', ' ' separators. When names fold together the lowest
// class ID keeps the label.
type NormalizeLabels struct {
	classes  *model.ClassMap
	variants map[string]string
}

// NewNormalizeLabels creates a NormalizeLabels operation. variants maps a
// variant class name onto its canonical class name; both must appear in
// the class map for the pair to take effect. A nil variants map still
// enables the automatic case and separator folding.
func NewNormalizeLabels(classes *model.ClassMap, variants map[string]string) *NormalizeLabels {
	return &NormalizeLabels{classes: classes, variants: variants}
}

// Name returns the operation name.
func (f *NormalizeLabels) Name() string {
	return "normalize_labels"
}

// Apply remaps variant class IDs onto their canonical IDs.
func (f *NormalizeLabels) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
	mapping := f.buildMapping()
	if len(mapping) == 0 {
		return records, "no label variants to fold", nil
	}

	remapped := 0
	out := make([]*model.DatasetRecord, 0, len(records))
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		anns := make([]model.Annotation, len(rec.Annotations))
		for i, ann := range rec.Annotations {
			if to, ok := mapping[ann.ClassID]; ok {
				ann.ClassID = to
				remapped++
			}
			anns[i] = ann
		}
		clone := *rec
		clone.Annotations = anns
		out = append(out, &clone)
	}

	return out, fmt.Sprintf("folded %d boxes across %d label variants", remapped, len(mapping)), nil
}

// buildMapping derives the variant-ID to canonical-ID map from the class
// map and the explicit variant names.
func (f *NormalizeLabels) buildMapping() map[int]int {
	if f.classes == nil {
		return nil
	}

	byName := make(map[string]int)
	byFolded := make(map[string]int)
	for _, id := range f.classes.IDs() {
		name := f.classes.Name(id)
		byName[name] = id
		key := foldLabel(name)
		if _, ok := byFolded[key]; !ok {
			byFolded[key] = id
		}
	}

	mapping := make(map[int]int)
	for _, id := range f.classes.IDs() {
		if canonical, ok := byFolded[foldLabel(f.classes.Name(id))]; ok && canonical != id {
			mapping[id] = canonical
		}
	}
	for variant, canonical := range f.variants {
		from, okFrom := byName[variant]
		to, okTo := byName[canonical]
		if okFrom && okTo && from != to {
			mapping[from] = to
		}
	}
	return mapping
}

// foldLabel lowercases a class name and strips the separator characters
// labeling tools disagree on.
func foldLabel(name string) string {
	folded := strings.ToLower(name)
	for _, sep := range []string{"-", "_", " "} {
		folded = strings.ReplaceAll(folded, sep, "")
	}
	return folded
}
