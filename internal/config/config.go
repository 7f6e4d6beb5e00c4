package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen from what holds up in practice on road-defect
// survey datasets in the tens-of-thousands-of-images range.
const (
	// DefaultConcurrency is the number of subsets processed in parallel.
	// Quality checks hash and read EXIF from every image in a subset, so
	// each worker is I/O heavy. Four workers saturate a typical SSD
	// without starving the rest of the machine.
	DefaultConcurrency = 4

	// DefaultConfidenceCoefficient scales per-class minimum probabilities
	// when filtering mined boxes. 1.0 applies the class thresholds as
	// declared; lower values admit more marginal detections for review.
	DefaultConfidenceCoefficient = 1.0

	// DefaultMinProbability is the confidence floor for classes that do not
	// declare their own minimum. 0.25 is low enough to keep recall-heavy
	// mining runs useful while cutting obvious noise.
	DefaultMinProbability = 0.25

	// DefaultBoxIoUThreshold is the overlap above which two same-class boxes
	// are considered duplicates. 0.85 tolerates small hand-label jitter
	// without merging genuinely adjacent defects.
	DefaultBoxIoUThreshold = 0.85

	// DefaultImbalanceRatio is the max-to-min class count ratio above which
	// a class_imbalance finding is raised. Real defect datasets are always
	// skewed; 20x is where training outcomes visibly degrade.
	DefaultImbalanceRatio = 20.0

	// AppName is the application name used for XDG directory paths.
	AppName = "yowrangle"
)

// Config holds all configuration options for yowrangle.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CheckConfig, WrangleConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// DataRoot is the directory containing subset directories to process.
	DataRoot string

	// Subsets restricts processing to the named subsets.
	// When empty, every subset found under DataRoot is processed.
	Subsets []string

	// ClassListPath is the path to the class list file (one label per line)
	// or class map JSON. When empty, class validation is skipped.
	ClassListPath string

	// PredictionsDir is the directory holding model inference output,
	// one annotation file per image stem. Used by evaluate and compare.
	PredictionsDir string

	// ExportDir is the destination directory for exported records.
	// Export refuses to overwrite an existing directory.
	ExportDir string

	// Concurrency is the number of subsets processed in parallel.
	Concurrency int

	// ConfidenceCoefficient scales per-class minimum probabilities when
	// filtering mined boxes.
	ConfidenceCoefficient float64

	// DefaultMinProbability is the confidence floor for classes without
	// their own declared minimum.
	DefaultMinProbability float64

	// BoxIoUThreshold is the overlap above which same-class boxes are
	// treated as duplicates.
	BoxIoUThreshold float64

	// ImbalanceRatio is the max-to-min class count ratio that triggers a
	// class_imbalance finding.
	ImbalanceRatio float64

	// EnableEXIF controls whether image metadata is scanned for
	// privacy-sensitive tags. Disable for speed on trusted captures.
	EnableEXIF bool

	// EnableHashing controls whether image content hashing runs for
	// duplicate detection.
	EnableHashing bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .yowrangle in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Profiles holds subset-specific settings loaded from the config file.
	Profiles *File

	// DBDir is the directory path for storing the SQLite history database.
	// When set, run reports are saved for historical comparison.
	// Defaults to XDG data directory (~/.local/share/yowrangle on Linux).
	DBDir string

	// SaveToDB indicates whether to save run reports to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., thresholds,
// concurrency). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency:           DefaultConcurrency,
		ConfidenceCoefficient: DefaultConfidenceCoefficient,
		DefaultMinProbability: DefaultMinProbability,
		BoxIoUThreshold:       DefaultBoxIoUThreshold,
		ImbalanceRatio:        DefaultImbalanceRatio,
		EnableEXIF:            true,
		EnableHashing:         true,
	}
}

// XDGDataDir returns the XDG data directory for yowrangle.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/yowrangle
// On macOS: ~/Library/Application Support/yowrangle
// On Windows: %LOCALAPPDATA%\yowrangle
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for yowrangle.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for yowrangle.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any processing begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return ErrNoDataRoot
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.ConfidenceCoefficient <= 0 {
		return ErrInvalidCoefficient
	}

	if c.BoxIoUThreshold <= 0 || c.BoxIoUThreshold > 1 {
		return ErrInvalidIoUThreshold
	}

	if c.ImbalanceRatio < 1 {
		return ErrInvalidImbalanceRatio
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
