// Package main provides the entry point for the yowrangle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for yowrangle.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yowrangle",
		Short: "Dataset wrangling for YOLO-annotated image datasets",
		Long: `yowrangle is a dataset wrangling tool for YOLO-annotated object-detection
image datasets. It loads subsets of images with their annotation files,
audits them for quality and privacy problems (duplicate images, broken
boxes, EXIF location data), applies cleaning operations, and exports the
result with a report.

Subset-specific settings such as crop geometry and class handling live in
a .yowrangle configuration file. Run 'yowrangle init' to generate one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewWrangleCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewEvaluateCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewReviewCmd())
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewDoctorCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
