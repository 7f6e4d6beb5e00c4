package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/log"
	"github.com/yo-wrangle/yowrangle/internal/visual"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [subset-path]",
		Short: "Render annotation boxes onto subset images",
		Long: `Render draws each record's annotation boxes onto a copy of its image,
color-coded by class, and writes the overlays as JPEG files. Background
records (no annotations) are skipped.

The overlays are for eyeballing label quality; the original images are
never touched.

Examples:
  # Render overlays next to the subset
  yowrangle render ~/datasets/sealed_roads/val

  # Render into a chosen directory with thicker lines
  yowrangle render --out ~/overlays/val --line-width 5 ~/datasets/sealed_roads/val`,
		Args: cobra.ExactArgs(1),
		RunE: runRenderCmd,
	}

	cmd.Flags().StringP("out", "o", "",
		"Output directory for overlays (default: <subset>_overlays next to the subset)")
	cmd.Flags().Int("line-width", 3,
		"Box outline thickness in pixels")

	return cmd
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, args []string) error {
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	lineWidth, err := cmd.Flags().GetInt("line-width")
	if err != nil {
		return err
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

	subset, err := dataset.OpenSubset(args[0])
	if err != nil {
		return fmt.Errorf("failed to open subset: %w", err)
	}
	if outDir == "" {
		outDir = subset.Path + "_overlays"
	}

	loader := dataset.NewLoader(dataset.WithLoaderLogger(logger))
	result, err := loader.Load(ctx, subset)
	if err != nil {
		return fmt.Errorf("failed to load subset: %w", err)
	}

	renderer := visual.NewRenderer(
		visual.WithLineWidth(lineWidth),
		visual.WithRendererLogger(logger),
	)

	fmt.Printf("Rendering overlays for %s into %s...\n", subset.Name, outDir)
	count, err := renderer.RenderAll(ctx, result.Records, outDir)
	if err != nil {
		return fmt.Errorf("rendering failed after %d overlays: %w", count, err)
	}

	fmt.Printf("Rendered %d overlays (%d background records skipped).\n",
		count, len(result.Records)-count)
	return nil
}
