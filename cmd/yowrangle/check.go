package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/check"
	"github.com/yo-wrangle/yowrangle/internal/config"
	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/log"
	"github.com/yo-wrangle/yowrangle/internal/model"
	"github.com/yo-wrangle/yowrangle/internal/pipeline"
	"github.com/yo-wrangle/yowrangle/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [data-root]",
		Short: "Audit dataset subsets without modifying anything",
		Long: `Check loads every subset under the data root and runs the quality checks
without applying any wrangling operations:

- Broken or out-of-range annotation boxes, orphaned annotation files
- Duplicate image content within and across subsets
- EXIF location and device-identity metadata in images
- Unknown class IDs and class imbalance

Nothing is written back to the dataset; the result is a quality report.

Examples:
  # Audit a data root
  yowrangle check ~/datasets/sealed_roads

  # Audit one subset with a class list
  yowrangle check --subset val --classes classes.txt ~/datasets/sealed_roads

  # Markdown quality report for a pull request
  yowrangle check --markdown -o quality.md ~/datasets/sealed_roads`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckCmd,
	}

	cmd.Flags().StringSliceP("subset", "s", nil,
		"Check only the named subsets (repeatable; default: all found)")
	cmd.Flags().StringP("classes", "C", "",
		"Class list file (one label per line) or class map JSON")
	cmd.Flags().Float64("iou", config.DefaultBoxIoUThreshold,
		"IoU above which same-class boxes count as duplicates")
	cmd.Flags().Float64("imbalance", config.DefaultImbalanceRatio,
		"Class count ratio that triggers an imbalance finding")
	cmd.Flags().Bool("no-exif", false,
		"Skip EXIF privacy scanning")
	cmd.Flags().Bool("no-hash", false,
		"Skip image content hashing (duplicate detection)")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of subsets processed in parallel")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCheckConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
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

	return runCheck(ctx, cfg, logger)
}

// buildCheckConfig creates a Config from the check command's flags.
func buildCheckConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	if len(args) > 0 {
		cfg.DataRoot = args[0]
	}

	cfg.Subsets, err = cmd.Flags().GetStringSlice("subset")
	if err != nil {
		return nil, err
	}

	cfg.ClassListPath, err = cmd.Flags().GetString("classes")
	if err != nil {
		return nil, err
	}

	cfg.BoxIoUThreshold, err = cmd.Flags().GetFloat64("iou")
	if err != nil {
		return nil, err
	}

	cfg.ImbalanceRatio, err = cmd.Flags().GetFloat64("imbalance")
	if err != nil {
		return nil, err
	}

	noEXIF, err := cmd.Flags().GetBool("no-exif")
	if err != nil {
		return nil, err
	}
	cfg.EnableEXIF = !noEXIF

	noHash, err := cmd.Flags().GetBool("no-hash")
	if err != nil {
		return nil, err
	}
	cfg.EnableHashing = !noHash

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCheck audits the selected subsets and outputs their quality reports.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	classes, err := loadClasses(cfg)
	if err != nil {
		return fmt.Errorf("failed to load class list: %w", err)
	}

	subsets, err := selectSubsets(cfg)
	if err != nil {
		return err
	}
	if len(subsets) == 0 {
		return errors.New("no subsets found under the data root (expected folders of images with annotation files)")
	}

	fmt.Printf("Checking %d subsets (concurrency: %d)...\n\n", len(subsets), cfg.Concurrency)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(subset dataset.Subset) *pipeline.Pipeline {
			p := pipeline.New(pipeline.WithLogger(logger))

			loader := dataset.NewLoader(dataset.WithLoaderLogger(logger))
			p.AddStep(pipeline.NewLoadStep(loader, subset))

			checker := check.NewChecker(
				check.WithOptions(check.Options{
					EnableEXIF:      cfg.EnableEXIF,
					EnableHashing:   cfg.EnableHashing,
					BoxIoUThreshold: cfg.BoxIoUThreshold,
					ImbalanceRatio:  cfg.ImbalanceRatio,
				}),
				check.WithCheckerLogger(logger),
			)
			p.AddStep(pipeline.NewCheckStep(checker, classes))

			return p
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	reports, batchErr := bp.ProcessBatch(ctx, subsets)

	for _, rep := range reports {
		if rep == nil {
			continue
		}
		if err := outputQualityReport(cfg, classes, rep); err != nil {
			logger.Error("report failed", "subset", rep.Subset, "error", err)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nCheck completed in %s\n", elapsed.Round(time.Millisecond))

	return batchErr
}

// outputQualityReport outputs only the quality findings of a report.
func outputQualityReport(cfg *config.Config, classes *model.ClassMap, rep *model.WrangleReport) error {
	output, closeOutput, err := openReportOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	quality := rep.QualityReport
	if quality == nil {
		quality = &model.QualityReport{
			Subset:        rep.Subset,
			DateProcessed: rep.DateProcessed,
		}
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output, report.WithClassMap(classes))
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err = writer.WriteQuality(quality)
	return err
}
