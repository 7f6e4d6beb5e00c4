package report

import (
	"io"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// Writer defines the interface for report output.
// Implementations write wrangle results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.WrangleReport) (int, error)

	// WriteQuality outputs only the quality report portion.
	// This is useful for quick summaries without load and operation detail.
	WriteQuality(quality *model.QualityReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.WrangleReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteQuality outputs the quality report to all configured Writers.
func (m *MultiWriter) WriteQuality(quality *model.QualityReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteQuality(quality)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// qualityOf returns the report's quality report, or an empty one so the
// writers never have to nil-check.
func qualityOf(report *model.WrangleReport) *model.QualityReport {
	if report.QualityReport != nil {
		return report.QualityReport
	}
	return &model.QualityReport{
		Subset:        report.Subset,
		DateProcessed: report.DateProcessed,
	}
}
