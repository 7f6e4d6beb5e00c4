package metrics

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// evalRecord builds a record with labelled and predicted class presence.
func evalRecord(id string, actual, predicted []int) *model.DatasetRecord {
	rec := &model.DatasetRecord{ID: id, Subset: "val"}
	for _, classID := range actual {
		rec.Annotations = append(rec.Annotations, model.Annotation{
			ClassID: classID,
			Box:     model.Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1},
		})
	}
	for _, classID := range predicted {
		rec.Predictions = append(rec.Predictions, model.Annotation{
			ClassID: classID,
			Box:     model.Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1},
		})
	}
	return rec
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	// Class 0 over four images:
	//   img1 labelled+predicted (TP), img2 predicted only (FP),
	//   img3 labelled only (FN), img4 neither (TN).
	records := []*model.DatasetRecord{
		evalRecord("val/img1", []int{0}, []int{0}),
		evalRecord("val/img2", nil, []int{0}),
		evalRecord("val/img3", []int{0}, nil),
		evalRecord("val/img4", nil, nil),
	}

	eval := NewEvaluator(nil).Evaluate(records)

	if eval.SampleCount != 4 {
		t.Fatalf("expected 4 samples, got %d", eval.SampleCount)
	}
	if len(eval.PerClass) != 1 {
		t.Fatalf("expected 1 class, got %d", len(eval.PerClass))
	}

	m := eval.PerClass[0]
	if m.TruePositives != 1 || m.FalsePositives != 1 || m.FalseNegatives != 1 || m.TrueNegatives != 1 {
		t.Errorf("unexpected confusion counts: %+v", m)
	}
	if !almostEqual(m.Precision(), 0.5) {
		t.Errorf("precision = %v, want 0.5", m.Precision())
	}
	if !almostEqual(m.Recall(), 0.5) {
		t.Errorf("recall = %v, want 0.5", m.Recall())
	}
	if !almostEqual(m.F1(), 0.5) {
		t.Errorf("f1 = %v, want 0.5", m.F1())
	}
	if !almostEqual(m.Accuracy(), 0.5) {
		t.Errorf("accuracy = %v, want 0.5", m.Accuracy())
	}
}

func TestEvaluateZeroDivision(t *testing.T) {
	t.Parallel()

	// Class never labelled and never predicted: all metrics must be 0
	// for P/R/F1 and 1.0 for accuracy, with no NaN anywhere.
	classes := model.NewClassMap(map[int]model.ClassInfo{
		0: {Name: "Pothole"},
		1: {Name: "Crack"},
	})

	records := []*model.DatasetRecord{
		evalRecord("val/img1", []int{0}, []int{0}),
		evalRecord("val/img2", []int{0}, []int{0}),
	}

	eval := NewEvaluator(classes).Evaluate(records)
	if len(eval.PerClass) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(eval.PerClass))
	}

	crack := eval.PerClass[1]
	if crack.ClassName != "Crack" {
		t.Errorf("expected class name Crack, got %q", crack.ClassName)
	}
	for name, got := range map[string]float64{
		"precision": crack.Precision(),
		"recall":    crack.Recall(),
		"f1":        crack.F1(),
	} {
		if math.IsNaN(got) || got != 0 {
			t.Errorf("%s = %v, want 0", name, got)
		}
	}
	if !almostEqual(crack.Accuracy(), 1.0) {
		t.Errorf("accuracy = %v, want 1.0", crack.Accuracy())
	}
}

func TestEvaluateInfersClassCount(t *testing.T) {
	t.Parallel()

	records := []*model.DatasetRecord{
		evalRecord("val/img1", []int{3}, []int{1}),
	}

	eval := NewEvaluator(nil).Evaluate(records)
	if len(eval.PerClass) != 4 {
		t.Errorf("expected 4 classes inferred from max ID, got %d", len(eval.PerClass))
	}
	if eval.PerClass[3].ClassName != "3" {
		t.Errorf("expected numeric class name, got %q", eval.PerClass[3].ClassName)
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	classes := model.NewClassMap(map[int]model.ClassInfo{0: {Name: "Pothole"}})
	records := []*model.DatasetRecord{
		evalRecord("val/img1", []int{0}, []int{0}),
		evalRecord("val/img2", []int{0}, nil),
	}

	var buf bytes.Buffer
	eval := NewEvaluator(classes).Evaluate(records)
	if err := eval.RenderTable(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Per-Class Detection Metrics") {
		t.Error("expected table header")
	}
	if !strings.Contains(output, "Pothole") {
		t.Error("expected class name in table")
	}
	if !strings.Contains(output, "0.50") {
		t.Error("expected recall 0.50 in table")
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	classes := model.NewClassMap(map[int]model.ClassInfo{0: {Name: "Pothole"}})
	records := []*model.DatasetRecord{
		evalRecord("val/img1", []int{0}, []int{0}),
	}

	var buf bytes.Buffer
	eval := NewEvaluator(classes).Evaluate(records)
	if err := eval.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "class_id,class_name,precision") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0,Pothole,1.0000") {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestWriteVectorsCSV(t *testing.T) {
	t.Parallel()

	classes := model.NewClassMap(map[int]model.ClassInfo{0: {Name: "Pothole"}})
	records := []*model.DatasetRecord{
		evalRecord("val/img1", []int{0}, nil),
	}

	var buf bytes.Buffer
	eval := NewEvaluator(classes).Evaluate(records)
	if err := eval.WriteVectorsCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if lines[0] != "record_id,actual_Pothole,predicted_Pothole" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "val/img1,true,false" {
		t.Errorf("unexpected row: %q", lines[1])
	}
}
