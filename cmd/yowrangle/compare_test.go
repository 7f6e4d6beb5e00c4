package main

import (
	"testing"
	"time"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "compare [subset]" {
			t.Errorf("expected Use to be 'compare [subset]', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command has expected flags", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			shorthand string
		}{
			{name: "list", shorthand: "l"},
			{name: "list-subsets", shorthand: "L"},
			{name: "with-run-id", shorthand: "i"},
			{name: "since", shorthand: "s"},
			{name: "json", shorthand: "j"},
			{name: "markdown", shorthand: "m"},
		}

		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected flag %q to exist", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
		}
	})
}

func TestFindingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		finding model.Finding
		want    string
	}{
		{
			name:    "all fields set",
			finding: model.Finding{Type: "duplicate_image", Value: "abc123", Location: "train/photo_0001"},
			want:    "duplicate_image|abc123|train/photo_0001",
		},
		{
			name:    "empty location",
			finding: model.Finding{Type: "class_imbalance", Value: "0"},
			want:    "class_imbalance|0|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := findingKey(tt.finding); got != tt.want {
				t.Errorf("findingKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompareReports(t *testing.T) {
	t.Parallel()

	makeReport := func(subset string, findings ...model.Finding) *model.WrangleReport {
		rep := model.NewWrangleReport(subset, "/data/"+subset)
		for _, f := range findings {
			rep.AddFinding(f)
		}
		return rep
	}

	t.Run("detects new and resolved findings", func(t *testing.T) {
		t.Parallel()

		previous := makeReport("train",
			model.Finding{Type: "duplicate_image", Value: "aaa", Location: "train/a", Severity: model.SeverityMedium},
			model.Finding{Type: "invalid_box", Value: "clamp", Location: "train/b", Severity: model.SeverityHigh},
		)
		current := makeReport("train",
			model.Finding{Type: "duplicate_image", Value: "aaa", Location: "train/a", Severity: model.SeverityMedium},
			model.Finding{Type: "exif_gps", Value: "lat/lon", Location: "train/c", Severity: model.SeverityCritical},
		)

		result := compareReports(previous, current)

		if result.Subset != "train" {
			t.Errorf("expected subset 'train', got %q", result.Subset)
		}
		if len(result.NewFindings) != 1 {
			t.Fatalf("expected 1 new finding, got %d", len(result.NewFindings))
		}
		if result.NewFindings[0].Type != "exif_gps" {
			t.Errorf("expected new finding 'exif_gps', got %q", result.NewFindings[0].Type)
		}
		if len(result.ResolvedFindings) != 1 {
			t.Fatalf("expected 1 resolved finding, got %d", len(result.ResolvedFindings))
		}
		if result.ResolvedFindings[0].Type != "invalid_box" {
			t.Errorf("expected resolved finding 'invalid_box', got %q", result.ResolvedFindings[0].Type)
		}
		if result.UnchangedCount != 1 {
			t.Errorf("expected 1 unchanged finding, got %d", result.UnchangedCount)
		}
	})

	t.Run("handles reports without quality data", func(t *testing.T) {
		t.Parallel()

		result := compareReports(makeReport("val"), makeReport("val"))

		if len(result.NewFindings) != 0 || len(result.ResolvedFindings) != 0 {
			t.Error("expected no finding changes for empty reports")
		}
		if result.QualityChange.Direction != qualityDirectionUnchanged {
			t.Errorf("expected direction %q, got %q", qualityDirectionUnchanged, result.QualityChange.Direction)
		}
	})
}

func TestSummarizeRun(t *testing.T) {
	t.Parallel()

	rep := model.NewWrangleReport("train", "/data/train")
	rep.DateProcessed = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	rep.ImageCount = 120
	rep.AnnotationCount = 840
	rep.AddFinding(model.Finding{Type: "duplicate_image", Severity: model.SeverityMedium})
	rep.AddFinding(model.Finding{Type: "exif_gps", Severity: model.SeverityCritical})

	summary := summarizeRun(rep)

	if !summary.DateProcessed.Equal(rep.DateProcessed) {
		t.Errorf("expected date %v, got %v", rep.DateProcessed, summary.DateProcessed)
	}
	if summary.ImageCount != 120 {
		t.Errorf("expected 120 images, got %d", summary.ImageCount)
	}
	if summary.AnnotationCount != 840 {
		t.Errorf("expected 840 annotations, got %d", summary.AnnotationCount)
	}
	if summary.TotalFindings != 2 {
		t.Errorf("expected 2 findings, got %d", summary.TotalFindings)
	}
	if summary.CriticalCount != 1 {
		t.Errorf("expected 1 critical finding, got %d", summary.CriticalCount)
	}
	if summary.MediumCount != 1 {
		t.Errorf("expected 1 medium finding, got %d", summary.MediumCount)
	}
}

func TestCalculateQualityChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		previous      RunSummary
		current       RunSummary
		wantDirection string
	}{
		{
			name:          "fewer critical findings improves",
			previous:      RunSummary{CriticalCount: 2, LowCount: 1},
			current:       RunSummary{CriticalCount: 1, LowCount: 1},
			wantDirection: qualityDirectionImproved,
		},
		{
			name:          "new high finding worsens",
			previous:      RunSummary{MediumCount: 3},
			current:       RunSummary{MediumCount: 3, HighCount: 1},
			wantDirection: qualityDirectionWorsened,
		},
		{
			name:          "identical counts unchanged",
			previous:      RunSummary{MediumCount: 2, InfoCount: 5},
			current:       RunSummary{MediumCount: 2, InfoCount: 5},
			wantDirection: qualityDirectionUnchanged,
		},
		{
			name:          "critical outweighs many low findings",
			previous:      RunSummary{LowCount: 19},
			current:       RunSummary{CriticalCount: 1},
			wantDirection: qualityDirectionWorsened,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			change := calculateQualityChange(tt.previous, tt.current)
			if change.Direction != tt.wantDirection {
				t.Errorf("expected direction %q, got %q", tt.wantDirection, change.Direction)
			}
		})
	}

	t.Run("deltas include subset size", func(t *testing.T) {
		t.Parallel()

		previous := RunSummary{CriticalCount: 1, HighCount: 2, ImageCount: 100, AnnotationCount: 700}
		current := RunSummary{CriticalCount: 0, HighCount: 3, ImageCount: 90, AnnotationCount: 750}

		change := calculateQualityChange(previous, current)

		if change.CriticalDelta != -1 {
			t.Errorf("expected critical delta -1, got %d", change.CriticalDelta)
		}
		if change.HighDelta != 1 {
			t.Errorf("expected high delta 1, got %d", change.HighDelta)
		}
		if change.ImageDelta != -10 {
			t.Errorf("expected image delta -10, got %d", change.ImageDelta)
		}
		if change.AnnotationDelta != 50 {
			t.Errorf("expected annotation delta 50, got %d", change.AnnotationDelta)
		}
	})
}

func TestFormatSeveritySummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary map[string]int
		want    string
	}{
		{
			name:    "nil summary",
			summary: nil,
			want:    "N/A",
		},
		{
			name:    "empty summary",
			summary: map[string]int{},
			want:    noFindingsMessage,
		},
		{
			name:    "zero counts only",
			summary: map[string]int{"critical": 0, "low": 0},
			want:    noFindingsMessage,
		},
		{
			name:    "all severities",
			summary: map[string]int{"critical": 1, "high": 2, "medium": 3, "low": 4, "info": 5},
			want:    "C:1 H:2 M:3 L:4 I:5",
		},
		{
			name:    "partial severities",
			summary: map[string]int{"high": 2, "info": 7},
			want:    "H:2 I:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatSeveritySummary(tt.summary); got != tt.want {
				t.Errorf("formatSeveritySummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		delta int
		want  string
	}{
		{name: "positive", delta: 3, want: "+3"},
		{name: "negative", delta: -2, want: "-2"},
		{name: "zero", delta: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatDelta(tt.delta); got != tt.want {
				t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
			}
		})
	}
}
