package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/config"
	"github.com/yo-wrangle/yowrangle/internal/database"
	"github.com/yo-wrangle/yowrangle/internal/model"
)

// Constants for quality direction and summary messages.
const (
	qualityDirectionWorsened  = "worsened"
	qualityDirectionImproved  = "improved"
	qualityDirectionUnchanged = "unchanged"
	noFindingsMessage         = "No findings"
)

// NewCompareCmd creates the compare command.
// This command compares wrangle runs with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [subset]",
		Short: "Compare wrangle runs with historical data",
		Long: `Compare displays differences between the current and previous wrangle runs
of a subset.

This command retrieves historical run data from the database and shows:
- New findings that appeared since the last run
- Resolved findings that are no longer present
- Changes in finding severity counts and dataset size

The comparison requires at least two runs in the database for the specified
subset. Use 'yowrangle wrangle' to process subsets and save results.

Examples:
  # Compare the latest two runs of a subset
  yowrangle compare train

  # List all run history for a subset
  yowrangle compare --list train

  # Compare with a specific historical run by ID
  yowrangle compare --with-run-id 5 train

  # Compare runs since a specific date
  yowrangle compare --since "2026-01-01" train

  # Output comparison in JSON format
  yowrangle compare --json train

  # List all subsets in the database
  yowrangle compare --list-subsets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified subset")
	cmd.Flags().BoolP("list-subsets", "L", false,
		"List all subsets in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-subsets flag first (requires database but no subset)
	listSubsets, err := cmd.Flags().GetBool("list-subsets")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-subsets)
	var subset string
	if !listSubsets {
		if len(args) == 0 {
			return errors.New("subset name is required (use --list-subsets to see available subsets)")
		}
		subset = args[0]
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSubsets {
		return listStoredSubsets(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, subset)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, subset, withRunID, sinceDate, jsonOutput, markdownOutput)
}

// listStoredSubsets lists all subsets that have run records in the database.
func listStoredSubsets(ctx context.Context, db *database.HistoryDB) error {
	subsets, err := db.ListSubsets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subsets: %w", err)
	}

	if len(subsets) == 0 {
		fmt.Println("No wrangled subsets found in the database.")
		fmt.Println("\nUse 'yowrangle wrangle <data-root>' to process subsets.")
		return nil
	}

	fmt.Printf("Wrangled subsets (%d):\n\n", len(subsets))
	for _, subset := range subsets {
		fmt.Printf("  • %s\n", subset)
	}
	fmt.Println("\nUse 'yowrangle compare --list <subset>' to see run history for a subset.")

	return nil
}

// listRunHistory lists all run records for a specific subset.
func listRunHistory(ctx context.Context, db *database.HistoryDB, subset string) error {
	runs, err := db.GetRunHistoryWithMetadata(ctx, subset)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No run history found for %s\n", subset)
		fmt.Println("\nUse 'yowrangle wrangle' to process this subset.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", subset, len(runs))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Severity Summary")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatSeveritySummary(meta.SeveritySummary),
		)
	}

	fmt.Println("\nUse 'yowrangle compare <subset>' to compare the latest two runs.")
	fmt.Println("Use 'yowrangle compare --with-run-id <id> <subset>' to compare with a specific run.")

	return nil
}

// formatSeveritySummary formats the severity summary map into a human-readable string.
func formatSeveritySummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between run reports.
func runComparison(ctx context.Context, db *database.HistoryDB, subset string, withRunID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	reports, err := db.GetRunHistory(ctx, subset)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no run history found for %s", subset)
	}

	if len(reports) < 2 && withRunID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(reports))
	}

	// Latest report is always the current one
	currentReport := reports[0]
	var previousReport *model.WrangleReport

	if withRunID > 0 {
		previousReport, err = db.GetRunReportByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		if previousReport.Subset != subset {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previousReport.Subset, subset)
		}
	} else if sinceDate != "" {
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted by timestamp DESC (newest first), so iterate in
		// reverse to find the oldest report at or after the date.
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.DateProcessed.After(parsedDate) || r.DateProcessed.Equal(parsedDate) {
				previousReport = r
				break
			}
		}
		if previousReport == nil {
			return fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previousReport == currentReport {
			return fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}
	} else {
		previousReport = reports[1]
	}

	comparison := compareReports(previousReport, currentReport)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two wrangle runs.
type ComparisonResult struct {
	// Subset is the compared dataset subset.
	Subset string `json:"subset"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunSummary `json:"current_run"`

	// NewFindings contains findings that are new in the current run.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings present in the previous run but not
	// in the current one.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// QualityChange describes the overall change in dataset quality.
	QualityChange QualityChange `json:"quality_change"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// DateProcessed is when the run was performed.
	DateProcessed time.Time `json:"date_processed"`

	// ImageCount and AnnotationCount describe the loaded subset size.
	ImageCount      int `json:"image_count"`
	AnnotationCount int `json:"annotation_count"`

	// TotalFindings is the total number of findings in this run.
	TotalFindings int `json:"total_findings"`

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
}

// QualityChange describes the change in dataset quality between runs.
type QualityChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`

	// ImageDelta is the change in loaded image count.
	ImageDelta int `json:"image_delta"`

	// AnnotationDelta is the change in parsed annotation count.
	AnnotationDelta int `json:"annotation_delta"`
}

// compareReports compares two run reports and generates a comparison result.
func compareReports(previous, current *model.WrangleReport) *ComparisonResult {
	result := &ComparisonResult{
		Subset:      current.Subset,
		PreviousRun: summarizeRun(previous),
		CurrentRun:  summarizeRun(current),
	}

	// Build finding maps for comparison
	previousFindings := findingMap(previous)
	currentFindings := findingMap(current)

	// Find new findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Find resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	result.QualityChange = calculateQualityChange(result.PreviousRun, result.CurrentRun)

	return result
}

// summarizeRun extracts the comparison metadata from a run report.
func summarizeRun(rep *model.WrangleReport) RunSummary {
	summary := RunSummary{
		DateProcessed:   rep.DateProcessed,
		ImageCount:      rep.ImageCount,
		AnnotationCount: rep.AnnotationCount,
	}
	if rep.QualityReport != nil {
		summary.TotalFindings = len(rep.QualityReport.Findings)
		summary.CriticalCount = rep.QualityReport.CriticalCount
		summary.HighCount = rep.QualityReport.HighCount
		summary.MediumCount = rep.QualityReport.MediumCount
		summary.LowCount = rep.QualityReport.LowCount
		summary.InfoCount = rep.QualityReport.InfoCount
	}
	return summary
}

// findingMap indexes a report's findings by their comparison key.
func findingMap(rep *model.WrangleReport) map[string]model.Finding {
	findings := make(map[string]model.Finding)
	if rep.QualityReport == nil {
		return findings
	}
	for _, f := range rep.QualityReport.Findings {
		findings[findingKey(f)] = f
	}
	return findings
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Location
}

// calculateQualityChange calculates the change in quality between two runs.
func calculateQualityChange(previous, current RunSummary) QualityChange {
	change := QualityChange{
		CriticalDelta:   current.CriticalCount - previous.CriticalCount,
		HighDelta:       current.HighCount - previous.HighCount,
		MediumDelta:     current.MediumCount - previous.MediumCount,
		LowDelta:        current.LowCount - previous.LowCount,
		InfoDelta:       current.InfoCount - previous.InfoCount,
		ImageDelta:      current.ImageCount - previous.ImageCount,
		AnnotationDelta: current.AnnotationCount - previous.AnnotationCount,
	}

	// Determine overall direction based on weighted score
	// Critical and High severity changes have more weight
	previousScore := previous.CriticalCount*100 + previous.HighCount*50 + previous.MediumCount*10 + previous.LowCount*5 + previous.InfoCount
	currentScore := current.CriticalCount*100 + current.HighCount*50 + current.MediumCount*10 + current.LowCount*5 + current.InfoCount

	if currentScore < previousScore {
		change.Direction = qualityDirectionImproved
	} else if currentScore > previousScore {
		change.Direction = qualityDirectionWorsened
	} else {
		change.Direction = qualityDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Run Comparison: %s\n\n", result.Subset)

	fmt.Println("## Summary")
	fmt.Printf("\n**Quality Status:** %s\n\n", formatQualityDirection(result.QualityChange.Direction))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.DateProcessed.Format("2006-01-02 15:04"),
		result.CurrentRun.DateProcessed.Format("2006-01-02 15:04"))
	fmt.Printf("| Images | %d | %d | %s |\n",
		result.PreviousRun.ImageCount,
		result.CurrentRun.ImageCount,
		formatDelta(result.QualityChange.ImageDelta))
	fmt.Printf("| Annotations | %d | %d | %s |\n",
		result.PreviousRun.AnnotationCount,
		result.CurrentRun.AnnotationCount,
		formatDelta(result.QualityChange.AnnotationDelta))
	fmt.Printf("| Critical | %d | %d | %s |\n",
		result.PreviousRun.CriticalCount,
		result.CurrentRun.CriticalCount,
		formatDelta(result.QualityChange.CriticalDelta))
	fmt.Printf("| High | %d | %d | %s |\n",
		result.PreviousRun.HighCount,
		result.CurrentRun.HighCount,
		formatDelta(result.QualityChange.HighDelta))
	fmt.Printf("| Medium | %d | %d | %s |\n",
		result.PreviousRun.MediumCount,
		result.CurrentRun.MediumCount,
		formatDelta(result.QualityChange.MediumDelta))
	fmt.Printf("| Low | %d | %d | %s |\n",
		result.PreviousRun.LowCount,
		result.CurrentRun.LowCount,
		formatDelta(result.QualityChange.LowDelta))
	fmt.Printf("| Info | %d | %d | %s |\n",
		result.PreviousRun.InfoCount,
		result.CurrentRun.InfoCount,
		formatDelta(result.QualityChange.InfoDelta))
	fmt.Printf("| **Total findings** | **%d** | **%d** | **%s** |\n",
		result.PreviousRun.TotalFindings,
		result.CurrentRun.TotalFindings,
		formatDelta(result.CurrentRun.TotalFindings-result.PreviousRun.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Printf("\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("- **[%s]** %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("  - Location: `%s`\n", f.Location)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("- ~~**[%s]** %s: %s~~\n", f.SeverityText, f.Title, f.Value)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Run Comparison: %s\n", result.Subset)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nQuality Status: %s\n", formatQualityDirection(result.QualityChange.Direction))

	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.DateProcessed.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.DateProcessed.Format("2006-01-02 15:04:05"))

	fmt.Println("\nDataset Size:")
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Images",
		result.PreviousRun.ImageCount, result.CurrentRun.ImageCount,
		formatDelta(result.QualityChange.ImageDelta))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Annotations",
		result.PreviousRun.AnnotationCount, result.CurrentRun.AnnotationCount,
		formatDelta(result.QualityChange.AnnotationDelta))

	fmt.Println("\nFindings Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousRun.CriticalCount, result.CurrentRun.CriticalCount,
		formatDelta(result.QualityChange.CriticalDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "High",
		result.PreviousRun.HighCount, result.CurrentRun.HighCount,
		formatDelta(result.QualityChange.HighDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Medium",
		result.PreviousRun.MediumCount, result.CurrentRun.MediumCount,
		formatDelta(result.QualityChange.MediumDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Low",
		result.PreviousRun.LowCount, result.CurrentRun.LowCount,
		formatDelta(result.QualityChange.LowDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousRun.InfoCount, result.CurrentRun.InfoCount,
		formatDelta(result.QualityChange.InfoDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousRun.TotalFindings, result.CurrentRun.TotalFindings,
		formatDelta(result.CurrentRun.TotalFindings-result.PreviousRun.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Printf("      Location: %s\n", f.Location)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatQualityDirection formats the quality change direction for display.
func formatQualityDirection(direction string) string {
	switch direction {
	case qualityDirectionImproved:
		return "IMPROVED (fewer or less severe findings)"
	case qualityDirectionWorsened:
		return "WORSENED (more or more severe findings)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
