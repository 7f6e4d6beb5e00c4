package model

import "time"

// QualityReport is the summarized, human-readable quality view of a subset.
// It collects the findings raised by the checks for quick review.
//
// Design decision: We keep findings in a separate report rather than
// printing parts of WrangleReport because:
// 1. It provides a consistent, curated view of the most important findings
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type QualityReport struct {
	// Subset is the dataset subset the findings belong to.
	Subset string `json:"subset"`

	// DateProcessed is when the subset was processed.
	DateProcessed time.Time `json:"date_processed"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`

	// === Findings ===

	// Findings contains all categorized findings.
	Findings []Finding `json:"findings,omitempty"`
}

// Finding represents a single quality finding.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to the findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the quality impact level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains what this finding does to the dataset.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (class ID, hash, EXIF field, etc.).
	Value string `json:"value,omitempty"`

	// Location is the record or file where the finding was discovered.
	Location string `json:"location,omitempty"`
}

// TotalFindings returns the total number of findings.
func (q *QualityReport) TotalFindings() int {
	return len(q.Findings)
}

// HasFindings returns true if there are any findings.
func (q *QualityReport) HasFindings() bool {
	return len(q.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (q *QualityReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range q.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// WorstSeverity returns the highest severity present in the report.
// Returns SeverityInfo when the report is empty.
func (q *QualityReport) WorstSeverity() Severity {
	worst := SeverityInfo
	for _, f := range q.Findings {
		if f.Severity > worst {
			worst = f.Severity
		}
	}
	return worst
}
