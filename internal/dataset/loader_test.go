package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// buildSubset creates a subset folder with images and darknet annotations.
func buildSubset(t *testing.T, annotations map[string]string) Subset {
	t.Helper()
	dir := t.TempDir()
	for stem, content := range annotations {
		writeFile(t, filepath.Join(dir, stem+".jpg"), "img-"+stem)
		if content != "" {
			writeFile(t, filepath.Join(dir, DarknetDirName, stem+".txt"), content)
		}
	}
	s, err := OpenSubset(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestLoaderLoad tests loading a subset with annotations.
func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	subset := buildSubset(t, map[string]string{
		"photo_001": "0 0.5 0.5 0.1 0.1\n3 0.2 0.2 0.05 0.05 0.91\n",
		"photo_002": "", // background image, no annotation file
	})

	loader := NewLoader(WithRecordTags(model.TagTrain))
	result, err := loader.Load(context.Background(), subset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("loaded %d records, expected 2", len(result.Records))
	}
	if result.AnnotationCount != 2 {
		t.Errorf("AnnotationCount = %d, expected 2", result.AnnotationCount)
	}

	rec := result.Records[0]
	if rec.Stem() != "photo_001" {
		t.Fatalf("first record is %s, expected photo_001 (sorted order)", rec.Stem())
	}
	if len(rec.Annotations) != 2 {
		t.Errorf("record has %d annotations, expected 2", len(rec.Annotations))
	}
	if rec.Annotations[1].Confidence == nil {
		t.Error("second annotation should carry mined confidence")
	}
	if !rec.HasTag(model.TagTrain) {
		t.Error("record should carry the configured tag")
	}

	background := result.Records[1]
	if len(background.Annotations) != 0 {
		t.Error("background record should have no annotations")
	}
	if background.AnnotationPath != "" {
		t.Error("background record should have no annotation path")
	}
}

// TestLoaderMalformedLines verifies that bad lines become findings while
// good lines on the same file survive.
func TestLoaderMalformedLines(t *testing.T) {
	t.Parallel()

	subset := buildSubset(t, map[string]string{
		"photo_001": "0 0.5 0.5 0.1 0.1\nnot an annotation\n1 0.3 0.3 0.1 0.1\n",
	})

	result, err := NewLoader().Load(context.Background(), subset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Records[0].Annotations) != 2 {
		t.Errorf("kept %d annotations, expected 2", len(result.Records[0].Annotations))
	}

	var found bool
	for _, f := range result.Findings {
		if f.Type == "malformed_annotation" {
			found = true
			if f.Severity != model.SeverityCritical {
				t.Errorf("malformed annotation severity = %v, expected critical", f.Severity)
			}
		}
	}
	if !found {
		t.Error("expected a malformed_annotation finding")
	}
}

// TestLoaderOrphanedAnnotation verifies annotation files without an image
// are flagged.
func TestLoaderOrphanedAnnotation(t *testing.T) {
	t.Parallel()

	subset := buildSubset(t, map[string]string{
		"photo_001": "0 0.5 0.5 0.1 0.1\n",
	})
	writeFile(t, filepath.Join(subset.AnnotationsRoot, "ghost.txt"), "0 0.5 0.5 0.1 0.1\n")

	result, err := NewLoader().Load(context.Background(), subset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, f := range result.Findings {
		if f.Type == "missing_image" && f.Value == "ghost.txt" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing_image finding, got %v", result.Findings)
	}
}

// TestLoaderPredictions tests loading detector output alongside ground truth.
func TestLoaderPredictions(t *testing.T) {
	t.Parallel()

	subset := buildSubset(t, map[string]string{
		"photo_001": "0 0.5 0.5 0.1 0.1\n",
	})
	predDir := t.TempDir()
	writeFile(t, filepath.Join(predDir, "photo_001.txt"), "0 0.51 0.49 0.1 0.1 0.77\n")

	loader := NewLoader(WithPredictionsDir(predDir))
	result, err := loader.Load(context.Background(), subset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := result.Records[0]
	if len(rec.Predictions) != 1 {
		t.Fatalf("loaded %d predictions, expected 1", len(rec.Predictions))
	}
	if !rec.HasTag(model.TagProcessed) {
		t.Error("record with predictions should carry the processed tag")
	}
	if rec.Predictions[0].Confidence == nil || *rec.Predictions[0].Confidence != 0.77 {
		t.Error("prediction confidence missing or wrong")
	}
}

// TestLoaderEmptySubset tests loading a folder without images.
func TestLoaderEmptySubset(t *testing.T) {
	t.Parallel()

	s, err := OpenSubset(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader().Load(context.Background(), s); !errors.Is(err, ErrNoImages) {
		t.Errorf("expected ErrNoImages, got %v", err)
	}
}

// TestLoaderCancelledContext tests that a cancelled context stops the load.
func TestLoaderCancelledContext(t *testing.T) {
	t.Parallel()

	subset := buildSubset(t, map[string]string{
		"photo_001": "0 0.5 0.5 0.1 0.1\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLoader().Load(ctx, subset); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
