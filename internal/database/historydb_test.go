package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// sampleReport builds a report with one critical finding for testing.
func sampleReport(subset string) *model.WrangleReport {
	report := model.NewWrangleReport(subset, "/data/"+subset)
	report.ImageCount = 10
	report.AnnotationCount = 25
	report.AddFinding(model.NewFinding(
		"exif_gps",
		"GPS Coordinates in Image Metadata",
		"Image contains embedded GPS coordinates.",
		"GPSLatitude",
		subset+"/photo_001",
	))
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "yowrangle.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected informative error, got %q", err.Error())
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		ctx := context.Background()

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.SaveRunReport(ctx, sampleReport("train")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		report, err := db2.GetLatestRunReport(ctx, "train")
		if err != nil {
			t.Fatalf("failed to get report: %v", err)
		}
		if report == nil || report.ImageCount != 10 {
			t.Error("expected persisted report to survive reopen")
		}
	})
}

// TestRunReports tests saving and retrieving run reports.
func TestRunReports(t *testing.T) {
	t.Parallel()

	t.Run("save and get latest report", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.SaveRunReport(ctx, sampleReport("train")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		second := sampleReport("train")
		second.ImageCount = 42
		if err := db.SaveRunReport(ctx, second); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		got, err := db.GetLatestRunReport(ctx, "train")
		if err != nil {
			t.Fatalf("failed to get latest report: %v", err)
		}
		if got == nil {
			t.Fatal("expected a report, got nil")
		}
		if got.ImageCount != 42 {
			t.Errorf("expected latest report with 42 images, got %d", got.ImageCount)
		}
	})

	t.Run("returns nil for unknown subset", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		got, err := db.GetLatestRunReport(context.Background(), "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil report for unknown subset")
		}
	})

	t.Run("lists subsets sorted", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, subset := range []string{"val", "train", "val"} {
			if err := db.SaveRunReport(ctx, sampleReport(subset)); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		subsets, err := db.ListSubsets(ctx)
		if err != nil {
			t.Fatalf("failed to list subsets: %v", err)
		}
		if len(subsets) != 2 || subsets[0] != "train" || subsets[1] != "val" {
			t.Errorf("expected [train val], got %v", subsets)
		}
	})

	t.Run("run history returns all reports", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			if err := db.SaveRunReport(ctx, sampleReport("train")); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		history, err := db.GetRunHistory(ctx, "train")
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("expected 3 reports, got %d", len(history))
		}
	})

	t.Run("metadata includes severity summary", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.SaveRunReport(ctx, sampleReport("train")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		metas, err := db.GetRunHistoryWithMetadata(ctx, "train")
		if err != nil {
			t.Fatalf("failed to get metadata: %v", err)
		}
		if len(metas) != 1 {
			t.Fatalf("expected 1 metadata entry, got %d", len(metas))
		}
		if metas[0].SeveritySummary["critical"] != 1 {
			t.Errorf("expected 1 critical finding, got %d", metas[0].SeveritySummary["critical"])
		}
		if metas[0].Timestamp.IsZero() {
			t.Error("expected timestamp to be parsed")
		}

		byID, err := db.GetRunReportByID(ctx, metas[0].ID)
		if err != nil {
			t.Fatalf("failed to get report by ID: %v", err)
		}
		if byID == nil || byID.Subset != "train" {
			t.Error("expected report lookup by ID to succeed")
		}
	})

	t.Run("has recent run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		recent, err := db.HasRecentRun(ctx, "train", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recent {
			t.Error("expected no recent run before saving")
		}

		if err := db.SaveRunReport(ctx, sampleReport("train")); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		recent, err = db.HasRecentRun(ctx, "train", time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !recent {
			t.Error("expected a recent run after saving")
		}
	})
}

// TestImageHashes tests cross-subset hash storage.
func TestImageHashes(t *testing.T) {
	t.Parallel()

	t.Run("upsert and match across subsets", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		records := []*HashRecord{
			{Subset: "train", RecordID: "train/photo_001", Hash: "aaaa"},
			{Subset: "val", RecordID: "val/photo_050", Hash: "aaaa"},
			{Subset: "train", RecordID: "train/photo_002", Hash: "bbbb"},
		}
		for _, rec := range records {
			if err := db.InsertImageHash(ctx, rec); err != nil {
				t.Fatalf("failed to insert hash: %v", err)
			}
		}

		matches, err := db.FindHashMatches(ctx, "aaaa")
		if err != nil {
			t.Fatalf("failed to find matches: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(matches))
		}
		if matches[0].Subset != "train" || matches[1].Subset != "val" {
			t.Errorf("expected matches in train and val, got %v", matches)
		}
	})

	t.Run("upsert replaces hash for same record", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		rec := &HashRecord{Subset: "train", RecordID: "train/photo_001", Hash: "old"}
		if err := db.InsertImageHash(ctx, rec); err != nil {
			t.Fatalf("failed to insert hash: %v", err)
		}
		rec.Hash = "new"
		if err := db.InsertImageHash(ctx, rec); err != nil {
			t.Fatalf("failed to upsert hash: %v", err)
		}

		if matches, err := db.FindHashMatches(ctx, "old"); err != nil || len(matches) != 0 {
			t.Errorf("expected no matches for replaced hash, got %v (err %v)", matches, err)
		}
		matches, err := db.FindHashMatches(ctx, "new")
		if err != nil || len(matches) != 1 {
			t.Errorf("expected 1 match for new hash, got %v (err %v)", matches, err)
		}
	})

	t.Run("delete subset hashes", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, rec := range []*HashRecord{
			{Subset: "train", RecordID: "train/a", Hash: "h1"},
			{Subset: "train", RecordID: "train/b", Hash: "h2"},
			{Subset: "val", RecordID: "val/c", Hash: "h1"},
		} {
			if err := db.InsertImageHash(ctx, rec); err != nil {
				t.Fatalf("failed to insert hash: %v", err)
			}
		}

		deleted, err := db.DeleteSubsetHashes(ctx, "train")
		if err != nil {
			t.Fatalf("failed to delete hashes: %v", err)
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted rows, got %d", deleted)
		}

		matches, err := db.FindHashMatches(ctx, "h1")
		if err != nil {
			t.Fatalf("failed to find matches: %v", err)
		}
		if len(matches) != 1 || matches[0].Subset != "val" {
			t.Errorf("expected only the val hash to remain, got %v", matches)
		}
	})
}

// TestParseTimestamp tests parsing of the formats SQLite may return.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default", input: "2026-08-29 10:30:00"},
		{name: "iso with z", input: "2026-08-29T10:30:00Z"},
		{name: "rfc3339", input: "2026-08-29T10:30:00+09:00"},
		{name: "garbage", input: "not a timestamp", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero expectation %v", tt.input, got, tt.zero)
			}
		})
	}
}
