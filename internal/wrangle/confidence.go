package wrangle

import (
	"context"
	"fmt"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// ConfidenceFilter drops mined boxes whose confidence falls below the
// per-class production threshold scaled by a coefficient.
//
// The coefficient lets one run the same thresholds in different modes:
// below 1.0 keeps marginal boxes for review mining, 1.0 reproduces the
// production cut, above 1.0 keeps only the boxes the detector was sure
// about. Hand-labeled boxes carry no confidence and always pass.
type ConfidenceFilter struct {
	classes *model.ClassMap

	// defaultMinProb applies to classes without a configured threshold.
	defaultMinProb float64

	// coefficient scales every class threshold.
	coefficient float64

	// upperCoefficient, when positive, also drops boxes above
	// upperCoefficient times the class threshold. This keeps only the
	// marginal band for hard-positive mining.
	upperCoefficient float64
}

// NewConfidenceFilter creates a ConfidenceFilter. classes may be nil, in
// which case defaultMinProb applies to every class.
func NewConfidenceFilter(classes *model.ClassMap, defaultMinProb, coefficient float64) *ConfidenceFilter {
	return &ConfidenceFilter{
		classes:        classes,
		defaultMinProb: defaultMinProb,
		coefficient:    coefficient,
	}
}

// NewConfidenceBand creates a ConfidenceFilter that keeps only boxes
// between lower and upper times the class threshold. Boxes the detector
// was already sure about are dropped along with the ones it rejected, so
// what remains is the band worth sending to a human.
func NewConfidenceBand(classes *model.ClassMap, defaultMinProb, lower, upper float64) *ConfidenceFilter {
	f := NewConfidenceFilter(classes, defaultMinProb, lower)
	f.upperCoefficient = upper
	return f
}

// Name returns the operation name.
func (f *ConfidenceFilter) Name() string {
	return "filter_confidence"
}

// Threshold returns the effective cut for a class.
func (f *ConfidenceFilter) Threshold(classID int) float64 {
	minProb := f.defaultMinProb
	if f.classes != nil {
		if p := f.classes.MinProbability(classID); p > 0 {
			minProb = p
		}
	}
	return minProb * f.coefficient
}

// UpperThreshold returns the upper cut for a class. Only meaningful when
// the filter was built with an upper coefficient.
func (f *ConfidenceFilter) UpperThreshold(classID int) float64 {
	minProb := f.defaultMinProb
	if f.classes != nil {
		if p := f.classes.MinProbability(classID); p > 0 {
			minProb = p
		}
	}
	return minProb * f.upperCoefficient
}

// Apply drops boxes below their class threshold. Records left without
// boxes survive: a record that loses all its mined boxes becomes a
// background sample, not a deleted image.
func (f *ConfidenceFilter) Apply(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, string, error) {
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
			if ann.Confidence == nil {
				return true
			}
			if *ann.Confidence < f.Threshold(ann.ClassID) {
				return false
			}
			if f.upperCoefficient > 0 {
				return *ann.Confidence <= f.UpperThreshold(ann.ClassID)
			}
			return true
		})
		dropped += before - len(filtered.Annotations)
		out = append(out, filtered)
	}

	detail := fmt.Sprintf("dropped %d boxes below coefficient %.2f of class thresholds", dropped, f.coefficient)
	if f.upperCoefficient > 0 {
		detail = fmt.Sprintf("kept %d-box band between coefficients %.2f and %.2f of class thresholds (dropped %d)",
			countBoxes(out), f.coefficient, f.upperCoefficient, dropped)
	}
	return out, detail, nil
}
