package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/config"
	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/log"
	"github.com/yo-wrangle/yowrangle/internal/metrics"
)

// NewEvaluateCmd creates the evaluate command.
func NewEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [subset-path]",
		Short: "Score detector output against ground-truth annotations",
		Long: `Evaluate compares a detector's inference output against the subset's
ground-truth annotations at image level: for every image and class, did
the detector find the class the labels say is there?

It reports per-class precision, recall, F1, and accuracy. The inference
directory must hold one annotation file per image stem, in the same
format as the ground-truth files.

Examples:
  # Score an inference run against the validation subset
  yowrangle evaluate --predictions ~/runs/infer_val ~/datasets/sealed_roads/val

  # Include class names and dump the per-class metrics as CSV
  yowrangle evaluate --predictions ~/runs/infer_val --classes classes.txt \
    --csv metrics.csv ~/datasets/sealed_roads/val

  # Dump the per-image presence matrix for spreadsheet analysis
  yowrangle evaluate --predictions ~/runs/infer_val \
    --vectors-csv vectors.csv ~/datasets/sealed_roads/val`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluateCmd,
	}

	cmd.Flags().StringP("predictions", "p", "",
		"Directory holding detector inference output (required)")
	cmd.Flags().StringP("classes", "C", "",
		"Class list file (one label per line) or class map JSON")
	cmd.Flags().String("csv", "",
		"Write per-class metrics as CSV to this file")
	cmd.Flags().String("vectors-csv", "",
		"Write the per-image class-presence matrix as CSV to this file")
	cmd.Flags().StringP("output", "o", "",
		"Write the metrics table to specified file path")

	return cmd
}

// runEvaluateCmd executes the evaluate command.
func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	predictionsDir, err := cmd.Flags().GetString("predictions")
	if err != nil {
		return err
	}
	if predictionsDir == "" {
		return errors.New("--predictions is required (directory with one annotation file per image stem)")
	}

	classListPath, err := cmd.Flags().GetString("classes")
	if err != nil {
		return err
	}
	csvPath, err := cmd.Flags().GetString("csv")
	if err != nil {
		return err
	}
	vectorsPath, err := cmd.Flags().GetString("vectors-csv")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	cfg := config.NewConfig()
	cfg.ClassListPath = classListPath
	classes, err := loadClasses(cfg)
	if err != nil {
		return fmt.Errorf("failed to load class list: %w", err)
	}

	ctx := context.Background()

	subset, err := dataset.OpenSubset(args[0])
	if err != nil {
		return fmt.Errorf("failed to open subset: %w", err)
	}

	loader := dataset.NewLoader(
		dataset.WithLoaderLogger(logger),
		dataset.WithPredictionsDir(predictionsDir),
	)
	result, err := loader.Load(ctx, subset)
	if err != nil {
		return fmt.Errorf("failed to load subset: %w", err)
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("no images found under %s", subset.Path)
	}

	evaluator := metrics.NewEvaluator(classes, metrics.WithEvaluatorLogger(logger))
	evaluation := evaluator.Evaluate(result.Records)

	output, closeOutput, err := openReportOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOutput()

	if err := evaluation.RenderTable(output); err != nil {
		return fmt.Errorf("failed to render metrics table: %w", err)
	}

	if csvPath != "" {
		if err := writeCSVFile(csvPath, evaluation.WriteCSV); err != nil {
			return err
		}
		logger.Info("per-class metrics written", "path", csvPath)
	}

	if vectorsPath != "" {
		if err := writeCSVFile(vectorsPath, evaluation.WriteVectorsCSV); err != nil {
			return err
		}
		logger.Info("presence vectors written", "path", vectorsPath)
	}

	return nil
}

// writeCSVFile creates path and runs the given dump function against it.
func writeCSVFile(path string, dump func(w io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := dump(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
