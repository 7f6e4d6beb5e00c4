package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

func exportRecords(t *testing.T) []*model.DatasetRecord {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.jpg"), "image-a")
	writeFile(t, filepath.Join(src, "b.jpg"), "image-b")

	recA := model.NewDatasetRecord(filepath.Join(src, "a.jpg"), "train")
	recA.Annotations = []model.Annotation{
		{ClassID: 0, Box: model.Box{CX: 0.5, CY: 0.5, W: 0.1, H: 0.1}},
	}
	recB := model.NewDatasetRecord(filepath.Join(src, "b.jpg"), "train")
	return []*model.DatasetRecord{recA, recB}
}

// TestExport tests a full export round trip.
func TestExport(t *testing.T) {
	t.Parallel()

	records := exportRecords(t)
	dst := filepath.Join(t.TempDir(), "out")

	if err := NewExporter().Export(context.Background(), records, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := os.ReadFile(filepath.Join(dst, "a.jpg"))
	if err != nil {
		t.Fatalf("exported image missing: %v", err)
	}
	if string(img) != "image-a" {
		t.Error("exported image content differs from source")
	}

	ann, err := os.ReadFile(filepath.Join(dst, DarknetDirName, "a.txt"))
	if err != nil {
		t.Fatalf("exported annotation missing: %v", err)
	}
	if !strings.HasPrefix(string(ann), "0 0.5") {
		t.Errorf("unexpected annotation content: %q", ann)
	}

	// Background records get an empty annotation file.
	empty, err := os.ReadFile(filepath.Join(dst, DarknetDirName, "b.txt"))
	if err != nil {
		t.Fatalf("background annotation file missing: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("background annotation file should be empty, got %q", empty)
	}
}

// TestExportRefusesExistingDestination verifies exports never overwrite.
func TestExportRefusesExistingDestination(t *testing.T) {
	t.Parallel()

	dst := t.TempDir() // already exists
	err := NewExporter().Export(context.Background(), exportRecords(t), dst)
	if !errors.Is(err, ErrDestinationExists) {
		t.Errorf("expected ErrDestinationExists, got %v", err)
	}
}

// TestExportStemCollision verifies colliding stems from different subsets
// are disambiguated.
func TestExportStemCollision(t *testing.T) {
	t.Parallel()

	srcA, srcB := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(srcA, "photo.jpg"), "from-a")
	writeFile(t, filepath.Join(srcB, "photo.jpg"), "from-b")

	records := []*model.DatasetRecord{
		model.NewDatasetRecord(filepath.Join(srcA, "photo.jpg"), "survey_a"),
		model.NewDatasetRecord(filepath.Join(srcB, "photo.jpg"), "survey_b"),
	}
	dst := filepath.Join(t.TempDir(), "out")

	if err := NewExporter().Export(context.Background(), records, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "photo.jpg")); err != nil {
		t.Error("first record should keep its plain stem")
	}
	if _, err := os.Stat(filepath.Join(dst, "survey_b_photo.jpg")); err != nil {
		t.Error("second record should get a subset-prefixed stem")
	}
}

// TestExportAnnotationsOnly tests skipping image copies.
func TestExportAnnotationsOnly(t *testing.T) {
	t.Parallel()

	records := exportRecords(t)
	dst := filepath.Join(t.TempDir(), "out")

	exporter := NewExporter(WithAnnotationsOnly())
	if err := exporter.Export(context.Background(), records, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "a.jpg")); !os.IsNotExist(err) {
		t.Error("image should not be copied in annotations-only mode")
	}
	if _, err := os.Stat(filepath.Join(dst, DarknetDirName, "a.txt")); err != nil {
		t.Error("annotation file should still be written")
	}
}

// TestExportAggregateFile tests the combined annotations.txt output.
func TestExportAggregateFile(t *testing.T) {
	t.Parallel()

	records := exportRecords(t)
	dst := filepath.Join(t.TempDir(), "out")

	exporter := NewExporter(WithAggregateFile())
	if err := exporter.Export(context.Background(), records, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agg, err := os.ReadFile(filepath.Join(dst, "annotations.txt"))
	if err != nil {
		t.Fatalf("aggregated annotations missing: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(agg), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 aggregated line, got %d: %q", len(lines), agg)
	}
	if !strings.HasPrefix(lines[0], "a.jpg 0 0.5") {
		t.Errorf("unexpected aggregated line: %q", lines[0])
	}
}

// TestHashImage tests content-based image hashing.
func TestHashImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), "same-bytes")
	writeFile(t, filepath.Join(dir, "b.jpg"), "same-bytes")
	writeFile(t, filepath.Join(dir, "c.jpg"), "other-bytes")

	hashA, err := HashImage(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	hashB, err := HashImage(filepath.Join(dir, "b.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	hashC, err := HashImage(filepath.Join(dir, "c.jpg"))
	if err != nil {
		t.Fatal(err)
	}

	if hashA != hashB {
		t.Error("identical content should hash identically")
	}
	if hashA == hashC {
		t.Error("different content should hash differently")
	}
	if len(hashA) != 64 {
		t.Errorf("hash length = %d, expected 64 hex characters", len(hashA))
	}

	if _, err := HashImage(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}
