package pipeline

import (
	"context"

	"github.com/yo-wrangle/yowrangle/internal/check"
	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/model"
	"github.com/yo-wrangle/yowrangle/internal/wrangle"
)

// LoadStep reads the subset's images and annotations into the report.
// It must be the first step; everything downstream works on the records
// it produces.
type LoadStep struct {
	loader *dataset.Loader
	subset dataset.Subset
}

// NewLoadStep creates a LoadStep for the given subset.
func NewLoadStep(loader *dataset.Loader, subset dataset.Subset) *LoadStep {
	return &LoadStep{loader: loader, subset: subset}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do loads the subset and records load statistics and findings.
func (s *LoadStep) Do(ctx context.Context, report *model.WrangleReport) error {
	result, err := s.loader.Load(ctx, s.subset)
	if err != nil {
		return err
	}

	report.Records = result.Records
	report.ImageCount = len(result.Records)
	report.AnnotationCount = result.AnnotationCount
	report.AnnotationsRoot = result.Subset.AnnotationsRoot
	for _, rec := range result.Records {
		if len(rec.Annotations) == 0 {
			report.BackgroundCount++
		}
	}
	for _, f := range result.Findings {
		report.AddFinding(f)
	}

	return nil
}

// CheckStep runs the quality checks over the loaded records.
type CheckStep struct {
	checker *check.Checker
	classes *model.ClassMap
}

// NewCheckStep creates a CheckStep. classes may be nil when no classes
// file was provided; class-dependent checks then stay quiet.
func NewCheckStep(checker *check.Checker, classes *model.ClassMap) *CheckStep {
	return &CheckStep{checker: checker, classes: classes}
}

// Name returns the step name.
func (s *CheckStep) Name() string {
	return "check"
}

// Do runs all checks and folds their findings into the report.
func (s *CheckStep) Do(ctx context.Context, report *model.WrangleReport) error {
	findings, err := s.checker.Run(ctx, &check.Data{
		Subset:  report.Subset,
		Records: report.Records,
		Classes: s.classes,
	})
	if err != nil {
		return err
	}

	for _, f := range findings {
		report.AddFinding(f)
	}
	return nil
}

// WrangleStep applies the configured wrangling operations to the records.
type WrangleStep struct {
	runner *wrangle.Runner
}

// NewWrangleStep creates a WrangleStep.
func NewWrangleStep(runner *wrangle.Runner) *WrangleStep {
	return &WrangleStep{runner: runner}
}

// Name returns the step name.
func (s *WrangleStep) Name() string {
	return "wrangle"
}

// Do runs the operations and replaces the report's records with the
// transformed set. Operation statistics collected before a failure are
// still recorded.
func (s *WrangleStep) Do(ctx context.Context, report *model.WrangleReport) error {
	records, stats, err := s.runner.Run(ctx, report.Records)
	for _, stat := range stats {
		report.AddOpStat(stat)
	}
	if err != nil {
		return err
	}

	report.Records = records
	return nil
}

// SummaryStep derives the aggregate summary from the current records.
// Run it after wrangling so the summary describes what will be exported.
type SummaryStep struct{}

// NewSummaryStep creates a SummaryStep.
func NewSummaryStep() *SummaryStep {
	return &SummaryStep{}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do builds the dataset summary.
func (s *SummaryStep) Do(_ context.Context, report *model.WrangleReport) error {
	report.Summary = model.NewDatasetSummary(report.Subset, report.Records)
	return nil
}

// ExportStep writes the wrangled records to a destination folder.
type ExportStep struct {
	exporter *dataset.Exporter
	dst      string
}

// NewExportStep creates an ExportStep writing to dst.
func NewExportStep(exporter *dataset.Exporter, dst string) *ExportStep {
	return &ExportStep{exporter: exporter, dst: dst}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do exports the records.
func (s *ExportStep) Do(ctx context.Context, report *model.WrangleReport) error {
	return s.exporter.Export(ctx, report.Records, s.dst)
}
