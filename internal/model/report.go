package model

import "time"

// WrangleReport is the main result structure for processing one dataset subset.
// It accumulates the loaded records, quality findings, and the effect of every
// wrangling operation that ran.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage. The QualityReport sub-struct
// groups findings for easier access by the report writers.
type WrangleReport struct {
	// === Basic Information ===

	// Subset is the name of the dataset subset that was processed.
	Subset string `json:"subset"`

	// SubsetPath is the absolute path of the subset folder.
	SubsetPath string `json:"subset_path"`

	// DateProcessed is the timestamp when processing started.
	DateProcessed time.Time `json:"date_processed"`

	// === Load Statistics ===

	// ImageCount is the number of images discovered in the subset.
	ImageCount int `json:"image_count"`

	// AnnotationCount is the total number of annotation lines parsed.
	AnnotationCount int `json:"annotation_count"`

	// BackgroundCount is the number of images with no annotations.
	BackgroundCount int `json:"background_count"`

	// AnnotationsRoot is the folder the annotations were read from
	// (YOLO_darknet, labels, or the subset folder itself).
	AnnotationsRoot string `json:"annotations_root,omitempty"`

	// === Records ===

	// Records are the loaded dataset records. Excluded from JSON because a
	// subset can hold tens of thousands of annotations; the summary carries
	// the aggregate view instead.
	Records []*DatasetRecord `json:"-"`

	// === Wrangling Results ===

	// OpStats records the effect of each wrangling operation, in the order
	// the operations ran.
	OpStats []OpStat `json:"op_stats,omitempty"`

	// === Sub-Reports ===

	// QualityReport contains the categorized quality findings.
	QualityReport *QualityReport `json:"quality_report,omitempty"`

	// Summary is the aggregate view of the subset after wrangling.
	Summary *DatasetSummary `json:"summary,omitempty"`

	// === Processing State ===

	// TimedOut is true if processing was terminated due to timeout.
	TimedOut bool `json:"timed_out"`

	// PerformedSteps lists the pipeline steps that actually ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that occurred during processing.
	// Only set if processing failed or partially failed.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// OpStat records what a single wrangling operation did to the records.
type OpStat struct {
	// Op is the operation name.
	Op string `json:"op"`

	// RecordsBefore and RecordsAfter count records around the operation.
	RecordsBefore int `json:"records_before"`
	RecordsAfter  int `json:"records_after"`

	// BoxesBefore and BoxesAfter count annotation boxes around the operation.
	BoxesBefore int `json:"boxes_before"`
	BoxesAfter  int `json:"boxes_after"`

	// Detail is an optional human-readable note, such as which classes
	// were removed.
	Detail string `json:"detail,omitempty"`
}

// BoxesRemoved returns how many boxes the operation dropped.
func (o OpStat) BoxesRemoved() int {
	return o.BoxesBefore - o.BoxesAfter
}

// RecordsRemoved returns how many records the operation dropped.
func (o OpStat) RecordsRemoved() int {
	return o.RecordsBefore - o.RecordsAfter
}

// NewWrangleReport creates a new report for the given subset.
func NewWrangleReport(subset, subsetPath string) *WrangleReport {
	return &WrangleReport{
		Subset:        subset,
		SubsetPath:    subsetPath,
		DateProcessed: time.Now(),
	}
}

// AddOpStat appends the effect of a wrangling operation.
func (r *WrangleReport) AddOpStat(stat OpStat) {
	r.OpStats = append(r.OpStats, stat)
}

// CountBoxes returns the total number of annotation boxes across all records.
func (r *WrangleReport) CountBoxes() int {
	total := 0
	for _, rec := range r.Records {
		total += len(rec.Annotations)
	}
	return total
}

// AddFinding adds a finding to the quality report.
// If the quality report doesn't exist, it initializes one.
//
// Design decision: We store findings in QualityReport rather than
// a separate findings slice because:
// 1. QualityReport already has finding aggregation logic
// 2. Avoids duplication of findings data
// 3. Keeps the main report focused on raw data
func (r *WrangleReport) AddFinding(finding Finding) {
	if r.QualityReport == nil {
		r.QualityReport = &QualityReport{
			Subset:        r.Subset,
			DateProcessed: r.DateProcessed,
			Findings:      make([]Finding, 0),
		}
	}

	// Avoid duplicates based on type, value, and location
	for _, f := range r.QualityReport.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Location == finding.Location {
			return
		}
	}

	r.QualityReport.Findings = append(r.QualityReport.Findings, finding)

	// Update severity counts
	switch finding.Severity {
	case SeverityCritical:
		r.QualityReport.CriticalCount++
	case SeverityHigh:
		r.QualityReport.HighCount++
	case SeverityMedium:
		r.QualityReport.MediumCount++
	case SeverityLow:
		r.QualityReport.LowCount++
	case SeverityInfo:
		r.QualityReport.InfoCount++
	}
}

// NewFinding builds a Finding for the given type, filling severity, impact,
// and recommendation from the central mapping.
func NewFinding(findingType, title, description, value, location string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}
