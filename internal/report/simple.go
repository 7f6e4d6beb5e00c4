package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and severity grouping.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.WrangleReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeOperations(&sb, report)
	w.writeSummarySection(&sb, report)
	w.writeQualitySection(&sb, qualityOf(report))
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteQuality outputs only the quality report in human-readable format.
func (w *SimpleWriter) WriteQuality(quality *model.QualityReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      DATASET QUALITY REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Subset:    %s\n", quality.Subset))
	sb.WriteString(fmt.Sprintf("Date:      %s\n\n", quality.DateProcessed.Format("2006-01-02 15:04:05 MST")))

	w.writeQualitySection(&sb, quality)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with subset information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.WrangleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         YOWRANGLE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Subset:       %s\n", report.Subset))
	sb.WriteString(fmt.Sprintf("Path:         %s\n", report.SubsetPath))
	sb.WriteString(fmt.Sprintf("Date:         %s\n", report.DateProcessed.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Images:       %d (%d background)\n", report.ImageCount, report.BackgroundCount))
	sb.WriteString(fmt.Sprintf("Annotations:  %d\n", report.AnnotationCount))

	switch {
	case report.TimedOut:
		sb.WriteString("Status:       TIMED OUT (partial results)\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:       ERROR - %s\n", report.ErrorMessage))
	default:
		sb.WriteString("Status:       Complete\n")
	}

	sb.WriteString("\n")
}

// writeOperations writes the wrangling operation log.
func (w *SimpleWriter) writeOperations(sb *strings.Builder, report *model.WrangleReport) {
	if len(report.OpStats) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OPERATIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.OpStats) == 0 {
		sb.WriteString("  No operations applied\n")
	}
	for _, stat := range report.OpStats {
		sb.WriteString(fmt.Sprintf("  * %-20s records %d -> %d, boxes %d -> %d\n",
			stat.Op, stat.RecordsBefore, stat.RecordsAfter, stat.BoxesBefore, stat.BoxesAfter))
		if w.verbose && stat.Detail != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", stat.Detail))
		}
	}
	sb.WriteString("\n")
}

// writeSummarySection writes the class distribution of the final records.
func (w *SimpleWriter) writeSummarySection(sb *strings.Builder, report *model.WrangleReport) {
	summary := report.Summary
	if summary == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CLASS DISTRIBUTION\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if summary.BoxCount == 0 {
		sb.WriteString("  No boxes\n\n")
		return
	}
	for _, id := range summary.ClassIDs() {
		sb.WriteString(fmt.Sprintf("  class %-4d %d boxes\n", id, summary.ClassCounts[id]))
	}
	sb.WriteString(fmt.Sprintf("\n  TOTAL:     %d boxes across %d images\n\n", summary.BoxCount, summary.ImageCount))
}

// writeQualitySection writes the severity summary and all findings.
func (w *SimpleWriter) writeQualitySection(sb *strings.Builder, quality *model.QualityReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", quality.CriticalCount))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", quality.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", quality.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", quality.LowCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", quality.InfoCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n\n", quality.TotalFindings()))

	if !quality.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := quality.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if finding.Location != "" {
			sb.WriteString(fmt.Sprintf("    Location: %s\n", finding.Location))
		}
		if w.verbose && finding.Description != "" {
			sb.WriteString(fmt.Sprintf("    Description: %s\n", finding.Description))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by yowrangle\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
