package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// ClassMetrics holds the binary confusion counts for a single class.
type ClassMetrics struct {
	// ClassID is the class identifier.
	ClassID int `json:"class_id"`

	// ClassName is the human-readable class label.
	ClassName string `json:"class_name"`

	// TruePositives counts images where the class is both labelled and predicted.
	TruePositives int `json:"true_positives"`

	// FalsePositives counts images predicted but not labelled.
	FalsePositives int `json:"false_positives"`

	// FalseNegatives counts images labelled but not predicted.
	FalseNegatives int `json:"false_negatives"`

	// TrueNegatives counts images neither labelled nor predicted.
	TrueNegatives int `json:"true_negatives"`
}

// Precision returns TP / (TP + FP), or 0 when the class was never predicted.
func (m ClassMetrics) Precision() float64 {
	denom := m.TruePositives + m.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(m.TruePositives) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 when the class was never labelled.
func (m ClassMetrics) Recall() float64 {
	denom := m.TruePositives + m.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(m.TruePositives) / float64(denom)
}

// F1 returns the harmonic mean of precision and recall, or 0 when both are 0.
func (m ClassMetrics) F1() float64 {
	p := m.Precision()
	r := m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Accuracy returns (TP + TN) / total, or 0 when there are no samples.
func (m ClassMetrics) Accuracy() float64 {
	total := m.TruePositives + m.FalsePositives + m.FalseNegatives + m.TrueNegatives
	if total == 0 {
		return 0
	}
	return float64(m.TruePositives+m.TrueNegatives) / float64(total)
}

// sample is the per-image presence vector pair.
type sample struct {
	id        string
	actual    []bool
	predicted []bool
}

// Evaluation is the result of comparing annotations against predictions.
type Evaluation struct {
	// SampleCount is the number of images evaluated.
	SampleCount int `json:"sample_count"`

	// PerClass holds the confusion counts per class, ordered by class ID.
	PerClass []ClassMetrics `json:"per_class"`

	samples []sample
}

// Evaluator compares hand-labelled annotations against model predictions.
type Evaluator struct {
	// classes resolves class IDs to names. May be nil, in which case the
	// class count is inferred from the records and names are numeric.
	classes *model.ClassMap

	logger *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the logger for evaluation progress.
func WithEvaluatorLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator for the given class map.
func NewEvaluator(classes *model.ClassMap, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		classes: classes,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reduces each record to per-class presence vectors and accumulates
// binary confusion counts. Records without predictions count as all-negative
// inference, matching how an undetected image scores against its labels.
func (e *Evaluator) Evaluate(records []*model.DatasetRecord) *Evaluation {
	numClasses := e.numClasses(records)

	eval := &Evaluation{
		SampleCount: len(records),
		PerClass:    make([]ClassMetrics, numClasses),
		samples:     make([]sample, 0, len(records)),
	}

	for id := range eval.PerClass {
		eval.PerClass[id].ClassID = id
		eval.PerClass[id].ClassName = e.className(id)
	}

	for _, rec := range records {
		s := sample{
			id:        rec.ID,
			actual:    presenceVector(rec.Annotations, numClasses),
			predicted: presenceVector(rec.Predictions, numClasses),
		}
		eval.samples = append(eval.samples, s)

		for id := 0; id < numClasses; id++ {
			switch {
			case s.actual[id] && s.predicted[id]:
				eval.PerClass[id].TruePositives++
			case !s.actual[id] && s.predicted[id]:
				eval.PerClass[id].FalsePositives++
			case s.actual[id] && !s.predicted[id]:
				eval.PerClass[id].FalseNegatives++
			default:
				eval.PerClass[id].TrueNegatives++
			}
		}
	}

	e.logger.Debug("evaluation complete",
		"samples", eval.SampleCount,
		"classes", numClasses)

	return eval
}

// numClasses returns the class count from the class map, falling back to
// the highest class ID seen in annotations or predictions plus one.
func (e *Evaluator) numClasses(records []*model.DatasetRecord) int {
	if e.classes != nil {
		return e.classes.Len()
	}

	maxID := -1
	for _, rec := range records {
		for _, ann := range rec.Annotations {
			if ann.ClassID > maxID {
				maxID = ann.ClassID
			}
		}
		for _, ann := range rec.Predictions {
			if ann.ClassID > maxID {
				maxID = ann.ClassID
			}
		}
	}
	return maxID + 1
}

// className resolves a class ID to its label.
func (e *Evaluator) className(id int) string {
	if e.classes != nil && e.classes.Known(id) {
		return e.classes.Name(id)
	}
	return strconv.Itoa(id)
}

// presenceVector reduces a box list to a per-class presence vector.
func presenceVector(anns []model.Annotation, numClasses int) []bool {
	vec := make([]bool, numClasses)
	for _, ann := range anns {
		if ann.ClassID >= 0 && ann.ClassID < numClasses {
			vec[ann.ClassID] = true
		}
	}
	return vec
}

// RenderTable writes the per-class metrics as a Markdown table.
func (ev *Evaluation) RenderTable(w io.Writer) error {
	rows := make([][]string, len(ev.PerClass))
	for i, m := range ev.PerClass {
		rows[i] = []string{
			m.ClassName,
			fmt.Sprintf("%.2f", m.Precision()),
			fmt.Sprintf("%.2f", m.Recall()),
			fmt.Sprintf("%.2f", m.F1()),
			fmt.Sprintf("%.2f", m.Accuracy()),
		}
	}

	md := markdown.NewMarkdown(w)
	md.H2("Per-Class Detection Metrics")
	md.PlainText("")
	md.PlainTextf("Evaluated %d images.", ev.SampleCount)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Class", "P", "R", "F1", "Accuracy"},
		Rows:   rows,
	})
	return md.Build()
}

// WriteCSV writes the per-class confusion counts and derived metrics as CSV.
func (ev *Evaluation) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"class_id", "class_name", "precision", "recall", "f1", "accuracy", "tp", "fp", "fn", "tn"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, m := range ev.PerClass {
		row := []string{
			strconv.Itoa(m.ClassID),
			m.ClassName,
			fmt.Sprintf("%.4f", m.Precision()),
			fmt.Sprintf("%.4f", m.Recall()),
			fmt.Sprintf("%.4f", m.F1()),
			fmt.Sprintf("%.4f", m.Accuracy()),
			strconv.Itoa(m.TruePositives),
			strconv.Itoa(m.FalsePositives),
			strconv.Itoa(m.FalseNegatives),
			strconv.Itoa(m.TrueNegatives),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteVectorsCSV writes the raw per-image presence vectors as CSV.
// Each row holds the record ID followed by actual and predicted flags
// per class. This is the dump analysts feed into their own tooling.
func (ev *Evaluation) WriteVectorsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"record_id"}
	for _, m := range ev.PerClass {
		header = append(header, "actual_"+m.ClassName, "predicted_"+m.ClassName)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range ev.samples {
		row := make([]string, 0, 1+2*len(ev.PerClass))
		row = append(row, s.id)
		for id := range ev.PerClass {
			row = append(row, strconv.FormatBool(s.actual[id]), strconv.FormatBool(s.predicted[id]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
