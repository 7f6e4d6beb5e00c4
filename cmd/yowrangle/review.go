package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/check"
	"github.com/yo-wrangle/yowrangle/internal/config"
	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/editor"
	"github.com/yo-wrangle/yowrangle/internal/log"
	"github.com/yo-wrangle/yowrangle/internal/model"
)

// NewReviewCmd creates the review command.
func NewReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review [subset-path]",
		Short: "Open the worst records in the annotation editor",
		Long: `Review runs the quality checks over a subset, ranks its records by how
badly their findings hurt the dataset, and launches the configured
annotation editor on the worst ones.

The editor is any external program that accepts image paths as
arguments. yowrangle waits for it to exit and reports its status; what
happens inside the editor is the editor's business.

Examples:
  # Review the 20 worst records of a subset
  yowrangle review --editor open-labeling ~/datasets/sealed_roads/train

  # Review records with a specific finding type
  yowrangle review --editor open-labeling --type exif_gps ~/datasets/sealed_roads/train

  # Review records showing class 3, up to 50 of them
  yowrangle review --editor open-labeling --class 3 --limit 50 ~/datasets/sealed_roads/train

  # Just print the worst records, do not launch anything
  yowrangle review --list-only ~/datasets/sealed_roads/train`,
		Args: cobra.ExactArgs(1),
		RunE: runReviewCmd,
	}

	cmd.Flags().StringP("editor", "e", os.Getenv("YOWRANGLE_EDITOR"),
		"Annotation editor command (default: $YOWRANGLE_EDITOR)")
	cmd.Flags().StringSlice("editor-arg", nil,
		"Extra argument passed to the editor before the image paths (repeatable)")
	cmd.Flags().StringP("classes", "C", "",
		"Class list file (one label per line) or class map JSON")
	cmd.Flags().String("severity", "medium",
		"Minimum finding severity to count (info, low, medium, high, critical)")
	cmd.Flags().StringP("type", "t", "",
		"Count only findings of this type (e.g. exif_gps, duplicate_image)")
	cmd.Flags().Int("class", -1,
		"Only consider records showing this class ID")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of records to open")
	cmd.Flags().Bool("list-only", false,
		"Print the ranked records without launching the editor")

	return cmd
}

// runReviewCmd executes the review command.
func runReviewCmd(cmd *cobra.Command, args []string) error {
	editorCmd, err := cmd.Flags().GetString("editor")
	if err != nil {
		return err
	}
	editorArgs, err := cmd.Flags().GetStringSlice("editor-arg")
	if err != nil {
		return err
	}
	classListPath, err := cmd.Flags().GetString("classes")
	if err != nil {
		return err
	}
	severityName, err := cmd.Flags().GetString("severity")
	if err != nil {
		return err
	}
	findingType, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}
	classID, err := cmd.Flags().GetInt("class")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	listOnly, err := cmd.Flags().GetBool("list-only")
	if err != nil {
		return err
	}

	minSeverity, err := parseSeverity(severityName)
	if err != nil {
		return err
	}
	if !listOnly && editorCmd == "" {
		return fmt.Errorf("no editor configured (use --editor or set YOWRANGLE_EDITOR, or pass --list-only)")
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	cfg := config.NewConfig()
	cfg.ClassListPath = classListPath
	classes, err := loadClasses(cfg)
	if err != nil {
		return fmt.Errorf("failed to load class list: %w", err)
	}

	subset, err := dataset.OpenSubset(args[0])
	if err != nil {
		return fmt.Errorf("failed to open subset: %w", err)
	}

	loader := dataset.NewLoader(dataset.WithLoaderLogger(logger))
	result, err := loader.Load(ctx, subset)
	if err != nil {
		return fmt.Errorf("failed to load subset: %w", err)
	}

	checker := check.NewChecker(check.WithCheckerLogger(logger))
	findings, err := checker.Run(ctx, &check.Data{
		Subset:  subset.Name,
		Records: result.Records,
		Classes: classes,
	})
	if err != nil {
		return fmt.Errorf("quality checks failed: %w", err)
	}
	findings = append(findings, result.Findings...)

	ranked := rankRecords(result.Records, findings, minSeverity, findingType, classID)
	if len(ranked) == 0 {
		fmt.Println("Nothing to review: no records match the filters.")
		return nil
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	fmt.Printf("Worst %d records of %s:\n\n", len(ranked), subset.Name)
	for i, rr := range ranked {
		fmt.Printf("  %2d. %-40s  score %d (%s)\n", i+1, rr.record.ID, rr.score, strings.Join(rr.types, ", "))
	}

	if listOnly {
		return nil
	}

	records := make([]*model.DatasetRecord, len(ranked))
	for i, rr := range ranked {
		records[i] = rr.record
	}

	fmt.Printf("\nLaunching %s on %d images...\n", editorCmd, len(records))
	launcher := editor.NewLauncher(editorCmd,
		editor.WithBaseArgs(editorArgs...),
		editor.WithOutput(os.Stdout, os.Stderr),
		editor.WithLauncherLogger(logger),
	)
	if err := launcher.Review(ctx, records); err != nil {
		return err
	}

	fmt.Println("Editor session finished.")
	return nil
}

// rankedRecord pairs a record with its review score.
type rankedRecord struct {
	record *model.DatasetRecord
	score  int
	types  []string
}

// severityWeight mirrors the weighting the comparison uses, so "worst
// first" means the same thing in both places.
func severityWeight(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 100
	case model.SeverityHigh:
		return 50
	case model.SeverityMedium:
		return 10
	case model.SeverityLow:
		return 5
	default:
		return 1
	}
}

// rankRecords scores each record by the findings anchored at it and
// returns the matching records, worst first. Ties break by record ID so
// the ranking is stable between runs.
func rankRecords(records []*model.DatasetRecord, findings []model.Finding, minSeverity model.Severity, findingType string, classID int) []rankedRecord {
	byLocation := make(map[string][]model.Finding)
	for _, f := range findings {
		if f.Severity < minSeverity {
			continue
		}
		if findingType != "" && f.Type != findingType {
			continue
		}
		byLocation[f.Location] = append(byLocation[f.Location], f)
	}

	var ranked []rankedRecord
	for _, rec := range records {
		if classID >= 0 && !rec.HasClass(classID) {
			continue
		}

		recFindings := byLocation[rec.ID]
		if len(recFindings) == 0 {
			recFindings = byLocation[rec.ImagePath]
		}
		if len(recFindings) == 0 {
			continue
		}

		score := 0
		seen := make(map[string]bool)
		var types []string
		for _, f := range recFindings {
			score += severityWeight(f.Severity)
			if !seen[f.Type] {
				seen[f.Type] = true
				types = append(types, f.Type)
			}
		}
		ranked = append(ranked, rankedRecord{record: rec, score: score, types: types})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].record.ID < ranked[j].record.ID
	})

	return ranked
}

// parseSeverity maps a severity name to its level.
func parseSeverity(name string) (model.Severity, error) {
	switch strings.ToLower(name) {
	case "info":
		return model.SeverityInfo, nil
	case "low":
		return model.SeverityLow, nil
	case "medium":
		return model.SeverityMedium, nil
	case "high":
		return model.SeverityHigh, nil
	case "critical":
		return model.SeverityCritical, nil
	default:
		return model.SeverityInfo, fmt.Errorf("unknown severity %q (use info, low, medium, high, or critical)", name)
	}
}
