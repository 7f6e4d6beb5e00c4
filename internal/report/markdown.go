package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// classes resolves class IDs to names in the distribution chart.
	// May be nil, in which case numeric IDs are shown.
	classes *model.ClassMap
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithClassMap supplies class names for the distribution chart.
func WithClassMap(classes *model.ClassMap) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.classes = classes
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.WrangleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeOperations(md, report)
	w.writeSummary(md, report.Summary)
	w.writeQuality(md, qualityOf(report))
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteQuality outputs only the quality report in Markdown format.
func (w *MarkdownWriter) WriteQuality(quality *model.QualityReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Dataset Quality Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Subset", "`" + quality.Subset + "`"},
			{"Date", quality.DateProcessed.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	w.writeQuality(md, quality)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with subset information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.WrangleReport) {
	md.H1("Wrangle Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Subset", "`" + report.Subset + "`"},
			{"Path", "`" + report.SubsetPath + "`"},
			{"Date", report.DateProcessed.Format("2006-01-02 15:04:05 MST")},
			{"Images", strconv.Itoa(report.ImageCount)},
			{"Background Images", strconv.Itoa(report.BackgroundCount)},
			{"Annotations", strconv.Itoa(report.AnnotationCount)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.WrangleReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeOperations writes the wrangling operation log.
func (w *MarkdownWriter) writeOperations(md *markdown.Markdown, report *model.WrangleReport) {
	md.H2("Operations")
	md.PlainText("")

	if len(report.OpStats) == 0 {
		md.PlainText("No operations applied.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.OpStats))
	for i, stat := range report.OpStats {
		rows[i] = []string{
			stat.Op,
			strconv.Itoa(stat.RecordsBefore) + " → " + strconv.Itoa(stat.RecordsAfter),
			strconv.Itoa(stat.BoxesBefore) + " → " + strconv.Itoa(stat.BoxesAfter),
			stat.Detail,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Operation", "Records", "Boxes", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the class distribution with a mermaid pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.DatasetSummary) {
	if summary == nil {
		return
	}

	md.H2("Class Distribution")
	md.PlainText("")

	if summary.BoxCount == 0 {
		md.PlainText("No boxes in the final records.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Boxes per Class"),
		piechart.WithShowData(true),
	)

	rows := make([][]string, 0, len(summary.ClassCounts))
	for _, id := range summary.ClassIDs() {
		name := strconv.Itoa(id)
		if w.classes != nil && w.classes.Known(id) {
			name = w.classes.Name(id)
		}
		count := summary.ClassCounts[id]
		chart.LabelAndIntValue(name, uint64(count)) //nolint:gosec // Box counts are non-negative
		rows = append(rows, []string{name, strconv.Itoa(count)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Class", "Boxes"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeQuality writes the severity summary, pie chart, and findings.
func (w *MarkdownWriter) writeQuality(md *markdown.Markdown, quality *model.QualityReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(quality.CriticalCount)},
			{"🟠 High", strconv.Itoa(quality.HighCount)},
			{"🟡 Medium", strconv.Itoa(quality.MediumCount)},
			{"🔵 Low", strconv.Itoa(quality.LowCount)},
			{"⚪ Info", strconv.Itoa(quality.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(quality.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if quality.HasFindings() {
		w.writeSeverityPieChart(md, quality)
	}
	w.writeAlert(md, quality)
	w.writeFindings(md, quality)
}

// writeSeverityPieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writeSeverityPieChart(md *markdown.Markdown, quality *model.QualityReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if quality.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(quality.CriticalCount))
	}
	if quality.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(quality.HighCount))
	}
	if quality.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(quality.MediumCount))
	}
	if quality.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(quality.LowCount))
	}
	if quality.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(quality.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, quality *model.QualityReport) {
	switch {
	case quality.CriticalCount > 0:
		md.Cautionf(
			"Critical dataset issues detected! %d critical finding(s) must be fixed before this data ships.",
			quality.CriticalCount,
		)
	case quality.HighCount > 0:
		md.Warningf(
			"High severity issues detected. %d high severity finding(s) should be addressed.",
			quality.HighCount,
		)
	case quality.MediumCount > 0:
		md.Importantf(
			"Medium severity issues found. %d finding(s) may degrade training.",
			quality.MediumCount,
		)
	case quality.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No significant dataset issues detected.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, quality *model.QualityReport) {
	md.H2("Findings")
	md.PlainText("")

	if !quality.HasFindings() {
		md.PlainText("No quality findings detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := quality.GetFindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		value := f.Value
		if value == "" {
			value = "-"
		}
		location := f.Location
		if location == "" {
			location = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			f.Title,
			truncateString(value, 50),
			truncateString(location, 40),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Value", "Location", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by yowrangle*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
