package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/check"
	"github.com/yo-wrangle/yowrangle/internal/config"
	"github.com/yo-wrangle/yowrangle/internal/database"
	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/log"
	"github.com/yo-wrangle/yowrangle/internal/model"
	"github.com/yo-wrangle/yowrangle/internal/pipeline"
	"github.com/yo-wrangle/yowrangle/internal/report"
	"github.com/yo-wrangle/yowrangle/internal/wrangle"
)

// NewWrangleCmd creates the wrangle command.
func NewWrangleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrangle [data-root]",
		Short: "Load, check, clean, and export dataset subsets",
		Long: `Wrangle runs the full processing pipeline over every subset folder found
under the data root: load images and annotations, run the quality checks,
apply the cleaning operations, and optionally export the result.

Subsets are processed concurrently. Subset-specific settings (crop
geometry, class removal and remapping, sample caps) come from the
.yowrangle configuration file.

Examples:
  # Wrangle every subset under a data root
  yowrangle wrangle ~/datasets/sealed_roads

  # Wrangle selected subsets only
  yowrangle wrangle --subset train --subset val ~/datasets/sealed_roads

  # Export the cleaned records
  yowrangle wrangle --export ~/datasets/sealed_roads_clean ~/datasets/sealed_roads

  # Keep only the marginal confidence band for hard-positive mining
  yowrangle wrangle --coefficient 0.7 --upper-coefficient 1.0 ~/datasets/mined

  # Write a Markdown report to a file
  yowrangle wrangle --markdown -o report.md ~/datasets/sealed_roads

Configuration file (.yowrangle) example:
  defaults:
    coefficient: 1.0
  subsets:
    Scenic_Rim_2021:
      horizon: 0.4
      removeClasses: [11, 14]`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWrangleCmd,
	}

	// Subset selection flags
	cmd.Flags().StringSliceP("subset", "s", nil,
		"Process only the named subsets (repeatable; default: all found)")
	cmd.Flags().StringP("classes", "C", "",
		"Class list file (one label per line) or class map JSON")

	// Wrangling flags
	cmd.Flags().Float64P("coefficient", "k", config.DefaultConfidenceCoefficient,
		"Confidence coefficient scaling per-class minimum probabilities")
	cmd.Flags().Float64("upper-coefficient", 0,
		"Also drop boxes above this coefficient of the class threshold (hard-positive band)")
	cmd.Flags().Float64("min-prob", config.DefaultMinProbability,
		"Confidence floor for classes without a declared minimum")
	cmd.Flags().Float64("iou", config.DefaultBoxIoUThreshold,
		"IoU above which same-class boxes count as duplicates")
	cmd.Flags().Float64("imbalance", config.DefaultImbalanceRatio,
		"Class count ratio that triggers an imbalance finding")

	// Check flags
	cmd.Flags().Bool("no-exif", false,
		"Skip EXIF privacy scanning")
	cmd.Flags().Bool("no-hash", false,
		"Skip image content hashing (duplicate detection)")

	// Export flags
	cmd.Flags().StringP("export", "E", "",
		"Export cleaned records to this directory")
	cmd.Flags().Bool("aggregate", false,
		"Also write an aggregated annotations.txt in each exported subset")

	// Batch flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of subsets processed in parallel")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .yowrangle in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Skip saving run reports to the history database")

	return cmd
}

// wrangleFlags carries flag values that have no home on the Config struct.
type wrangleFlags struct {
	upperCoefficient float64
	aggregateExport  bool
}

// runWrangleCmd executes the wrangle command.
func runWrangleCmd(cmd *cobra.Command, args []string) error {
	cfg, flags, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging. Log output runs through the scrub
	// handler so EXIF coordinates in findings never reach the terminal
	// or a pasted log.
	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runWrangle(ctx, cfg, flags, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, *wrangleFlags, error) {
	cfg := config.NewConfig()
	flags := &wrangleFlags{}

	var err error

	if len(args) > 0 {
		cfg.DataRoot = args[0]
	}

	cfg.Subsets, err = cmd.Flags().GetStringSlice("subset")
	if err != nil {
		return nil, nil, err
	}

	cfg.ClassListPath, err = cmd.Flags().GetString("classes")
	if err != nil {
		return nil, nil, err
	}

	cfg.ConfidenceCoefficient, err = cmd.Flags().GetFloat64("coefficient")
	if err != nil {
		return nil, nil, err
	}

	flags.upperCoefficient, err = cmd.Flags().GetFloat64("upper-coefficient")
	if err != nil {
		return nil, nil, err
	}

	cfg.DefaultMinProbability, err = cmd.Flags().GetFloat64("min-prob")
	if err != nil {
		return nil, nil, err
	}

	cfg.BoxIoUThreshold, err = cmd.Flags().GetFloat64("iou")
	if err != nil {
		return nil, nil, err
	}

	cfg.ImbalanceRatio, err = cmd.Flags().GetFloat64("imbalance")
	if err != nil {
		return nil, nil, err
	}

	noEXIF, err := cmd.Flags().GetBool("no-exif")
	if err != nil {
		return nil, nil, err
	}
	cfg.EnableEXIF = !noEXIF

	noHash, err := cmd.Flags().GetBool("no-hash")
	if err != nil {
		return nil, nil, err
	}
	cfg.EnableHashing = !noHash

	cfg.ExportDir, err = cmd.Flags().GetString("export")
	if err != nil {
		return nil, nil, err
	}

	flags.aggregateExport, err = cmd.Flags().GetBool("aggregate")
	if err != nil {
		return nil, nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}

	// Load subset profiles from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty profiles if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Profiles, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Profiles = &config.File{
			Subsets: make(map[string]config.SubsetProfile),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.DBDir = config.XDGDataDir()

	return cfg, flags, nil
}

// loadClasses loads the class map configured on cfg, or returns nil when
// no class list was given.
func loadClasses(cfg *config.Config) (*model.ClassMap, error) {
	if cfg.ClassListPath == "" {
		return nil, nil
	}
	if strings.EqualFold(filepath.Ext(cfg.ClassListPath), ".json") {
		return model.LoadClassJSON(cfg.ClassListPath)
	}
	return model.LoadClassList(cfg.ClassListPath)
}

// selectSubsets discovers subsets under the data root and filters them by
// the configured subset names.
func selectSubsets(cfg *config.Config) ([]dataset.Subset, error) {
	subsets, err := dataset.DiscoverSubsets(cfg.DataRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to discover subsets: %w", err)
	}
	if len(cfg.Subsets) == 0 {
		return subsets, nil
	}

	wanted := make(map[string]bool, len(cfg.Subsets))
	for _, name := range cfg.Subsets {
		wanted[name] = true
	}

	selected := make([]dataset.Subset, 0, len(cfg.Subsets))
	for _, subset := range subsets {
		if wanted[subset.Name] {
			selected = append(selected, subset)
			delete(wanted, subset.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for name := range wanted {
			missing = append(missing, name)
		}
		return nil, fmt.Errorf("subsets not found under %s: %s", cfg.DataRoot, strings.Join(missing, ", "))
	}
	return selected, nil
}

// runWrangle executes the batch pipeline over the selected subsets.
func runWrangle(ctx context.Context, cfg *config.Config, flags *wrangleFlags, logger *slog.Logger) error {
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

	logger.Info("starting wrangle",
		"dataRoot", cfg.DataRoot,
		"subsets", len(subsets),
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)

		warnRecentRuns(ctx, db, subsets, logger)
	}

	fmt.Printf("Wrangling %d subsets (concurrency: %d)...\n\n", len(subsets), cfg.Concurrency)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(subset dataset.Subset) *pipeline.Pipeline {
			return buildPipeline(cfg, flags, classes, subset, logger)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	reports, batchErr := bp.ProcessBatch(ctx, subsets)

	for _, rep := range reports {
		if rep == nil {
			continue
		}

		if db != nil && cfg.EnableHashing {
			if err := syncImageHashes(ctx, db, rep, logger); err != nil {
				logger.Error("failed to sync image hashes", "subset", rep.Subset, "error", err)
			}
		}

		if err := outputReport(cfg, classes, rep); err != nil {
			logger.Error("report failed", "subset", rep.Subset, "error", err)
		}

		if err := saveRunReport(ctx, db, rep, logger); err != nil {
			logger.Error("failed to save run report", "subset", rep.Subset, "error", err)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nWrangle completed in %s\n", elapsed.Round(time.Millisecond))

	return batchErr
}

// warnRecentRuns tells the user when a subset was already wrangled within
// the last hour, which usually means a duplicated invocation.
func warnRecentRuns(ctx context.Context, db *database.HistoryDB, subsets []dataset.Subset, logger *slog.Logger) {
	for _, subset := range subsets {
		recent, err := db.HasRecentRun(ctx, subset.Name, time.Hour)
		if err != nil {
			logger.Debug("recent-run lookup failed", "subset", subset.Name, "error", err)
			continue
		}
		if recent {
			logger.Warn("subset was already wrangled within the last hour", "subset", subset.Name)
		}
	}
}

// buildPipeline assembles the per-subset pipeline from the configuration
// and the subset's profile.
func buildPipeline(cfg *config.Config, flags *wrangleFlags, classes *model.ClassMap, subset dataset.Subset, logger *slog.Logger) *pipeline.Pipeline {
	profile := cfg.Profiles.GetSubsetProfile(subset.Name)

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

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

	runner := wrangle.NewRunner(buildOps(cfg, flags, classes, profile), wrangle.WithRunnerLogger(logger))
	p.AddStep(pipeline.NewWrangleStep(runner))

	p.AddStep(pipeline.NewSummaryStep())

	if cfg.ExportDir != "" {
		exporterOpts := []dataset.ExporterOption{dataset.WithExporterLogger(logger)}
		if flags.aggregateExport {
			exporterOpts = append(exporterOpts, dataset.WithAggregateFile())
		}
		exporter := dataset.NewExporter(exporterOpts...)
		p.AddStep(pipeline.NewExportStep(exporter, filepath.Join(cfg.ExportDir, subset.Name)))
	}

	return p
}

// buildOps assembles the wrangling operation sequence for one subset.
// Order matters: confidence filtering runs first so geometric crops and
// class handling see only the boxes that survive the cut, and box-level
// dedupe runs before record-level sampling.
func buildOps(cfg *config.Config, flags *wrangleFlags, classes *model.ClassMap, profile config.SubsetProfile) []wrangle.Op {
	coefficient := cfg.ConfidenceCoefficient
	if profile.Coefficient > 0 {
		coefficient = profile.Coefficient
	}

	var ops []wrangle.Op
	if flags.upperCoefficient > 0 {
		ops = append(ops, wrangle.NewConfidenceBand(classes, cfg.DefaultMinProbability, coefficient, flags.upperCoefficient))
	} else {
		ops = append(ops, wrangle.NewConfidenceFilter(classes, cfg.DefaultMinProbability, coefficient))
	}

	if profile.Horizon > 0 {
		ops = append(ops, wrangle.NewHorizonFilter(profile.Horizon))
	}
	if profile.WedgeGradient > 0 {
		ops = append(ops, wrangle.NewWedgeFilter(profile.WedgeGradient, profile.WedgeApex))
	}
	ops = append(ops, wrangle.NewClampBoxes())

	if classes != nil {
		ops = append(ops, wrangle.NewNormalizeLabels(classes, nil))
	}
	if len(profile.RemoveClasses) > 0 {
		ops = append(ops, wrangle.NewRemoveClasses(profile.RemoveClasses))
	}
	if len(profile.RemapClasses) > 0 {
		ops = append(ops, wrangle.NewRemapClasses(profile.RemapClasses))
	}

	ops = append(ops, wrangle.NewDedupeBoxes(cfg.BoxIoUThreshold))
	if cfg.EnableHashing {
		ops = append(ops, wrangle.NewDedupeRecords(dataset.HashImage))
	}

	if len(profile.SampleCaps) > 0 {
		ops = append(ops, wrangle.NewSelectClassesWithCaps(profile.SampleCaps))
	}

	return ops
}

// outputReport outputs the wrangle report in the requested format.
func outputReport(cfg *config.Config, classes *model.ClassMap, rep *model.WrangleReport) error {
	output, closeOutput, err := openReportOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output, report.WithClassMap(classes))
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err = writer.Write(rep)
	return err
}

// openReportOutput returns the report destination: the configured file
// (created 0600, parent directories made as needed) or stdout. Reports
// can carry EXIF location values, so files are owner-readable only.
func openReportOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// saveRunReport saves the run report to the history database.
// If db is nil, this function is a no-op.
func saveRunReport(ctx context.Context, db *database.HistoryDB, rep *model.WrangleReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveRunReport(ctx, rep); err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}

	logger.Info("run report saved to database", "subset", rep.Subset)
	return nil
}

// syncImageHashes refreshes the subset's image hashes in the history
// database and reports content matches against other subsets recorded in
// earlier runs. The in-run duplicate check only sees the subsets of the
// current invocation; the database catches leakage into splits wrangled
// at another time.
func syncImageHashes(ctx context.Context, db *database.HistoryDB, rep *model.WrangleReport, logger *slog.Logger) error {
	if _, err := db.DeleteSubsetHashes(ctx, rep.Subset); err != nil {
		return err
	}

	for _, rec := range rep.Records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		hash, err := dataset.HashImage(rec.ImagePath)
		if err != nil {
			continue
		}

		matches, err := db.FindHashMatches(ctx, hash)
		if err != nil {
			return err
		}
		for _, match := range matches {
			if match.Subset == rep.Subset {
				continue
			}
			rep.AddFinding(model.NewFinding(
				"duplicate_image",
				"Image Content Shared With Another Subset",
				fmt.Sprintf("image content recorded for %s in an earlier run", match.Subset),
				match.RecordID,
				rec.ID,
			))
		}

		if err := db.InsertImageHash(ctx, &database.HashRecord{
			Subset:    rep.Subset,
			RecordID:  rec.ID,
			Hash:      hash,
			Timestamp: rep.DateProcessed,
		}); err != nil {
			return err
		}
	}

	logger.Debug("image hashes synced", "subset", rep.Subset, "records", len(rep.Records))
	return nil
}
