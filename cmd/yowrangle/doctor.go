package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yo-wrangle/yowrangle/internal/manifest"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor [pyproject.toml]",
		Short: "Validate the annotation-environment manifest",
		Long: `Doctor parses the poetry-style manifest of the companion annotation
environment (the Python toolchain the review loop launches) and checks
that it is well formed:

- every version constraint is a valid semver range
- no package is declared as both a runtime and a development dependency
- the declared build backend is resolvable from the build requirements

It then prints the package metadata and the full dependency table.

Examples:
  # Validate the manifest in the current directory
  yowrangle doctor

  # Validate a specific manifest
  yowrangle doctor ~/tools/annotation-env/pyproject.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDoctorCmd,
	}

	return cmd
}

// runDoctorCmd executes the doctor command.
func runDoctorCmd(_ *cobra.Command, args []string) error {
	path := "pyproject.toml"
	if len(args) > 0 {
		path = args[0]
	}

	m, err := manifest.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	fmt.Printf("Manifest: %s\n", path)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nPackage:  %s %s\n", m.Name, m.Version)
	if m.License != "" {
		fmt.Printf("License:  %s\n", m.License)
	}
	if m.Description != "" {
		fmt.Printf("About:    %s\n", m.Description)
	}
	if len(m.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", strings.Join(m.Authors, ", "))
	}
	if m.PythonRequirement != "" {
		fmt.Printf("Python:   %s\n", m.PythonRequirement)
	}

	printDependencyTable("Runtime dependencies", m.Dependencies)
	printDependencyTable("Development dependencies", m.DevDependencies)

	if m.BuildBackend != "" {
		fmt.Printf("\nBuild system: %s (requires %s)\n",
			m.BuildBackend, strings.Join(m.BuildRequires, ", "))
	}

	if err := m.Validate(); err != nil {
		fmt.Println("\nVerdict: INVALID")
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	fmt.Println("\nVerdict: OK")
	return nil
}

// printDependencyTable prints one dependency section.
func printDependencyTable(title string, deps []manifest.Dependency) {
	fmt.Printf("\n%s (%d):\n", title, len(deps))
	if len(deps) == 0 {
		fmt.Println("  (none)")
		return
	}

	fmt.Printf("  %-24s  %s\n", "Package", "Constraint")
	fmt.Println("  " + strings.Repeat("-", 50))
	for _, dep := range deps {
		constraint := dep.Constraint
		if dep.IsLocal() {
			constraint = "local: " + dep.Path
		}
		fmt.Printf("  %-24s  %s\n", dep.Name, constraint)
	}
}
