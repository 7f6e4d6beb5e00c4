package check

import (
	"context"
	"log/slog"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// Check category constants.
const (
	// CategoryIntegrity is used by checks that find structural problems:
	// bad geometry, unknown classes, missing files.
	CategoryIntegrity = "integrity"
	// CategoryLeakage is used by checks that find data leaking between
	// splits or out of the dataset.
	CategoryLeakage = "leakage"
	// CategoryPrivacy is used by checks that find identifying metadata.
	CategoryPrivacy = "privacy"
	// CategoryBalance is used by checks that report distribution statistics.
	CategoryBalance = "balance"
)

// Checker coordinates quality checks across multiple check implementations.
// It aggregates findings from different check types into a unified list.
//
// Design decision: We use a coordinator pattern rather than running checks
// independently because:
//  1. Unified severity assessment across all findings
//  2. Deduplication of similar findings
//  3. Consistent context and cancellation handling
type Checker struct {
	// checks is the list of registered checks to run.
	checks []Check

	// options configures checker behavior.
	options Options

	logger *slog.Logger
}

// Options configures the checker behavior.
type Options struct {
	// EnableEXIF enables EXIF metadata extraction from images.
	// This can be slow for subsets with many large images.
	EnableEXIF bool

	// EnableHashing enables content hashing for duplicate detection.
	// This reads every image in full.
	EnableHashing bool

	// BoxIoUThreshold is the overlap above which two same-class boxes on
	// one image count as duplicates.
	BoxIoUThreshold float64

	// ImbalanceRatio is the most-to-least common class count ratio above
	// which class imbalance is reported.
	ImbalanceRatio float64
}

// DefaultOptions returns sensible default checker options.
func DefaultOptions() Options {
	return Options{
		EnableEXIF:      true,
		EnableHashing:   true,
		BoxIoUThreshold: 0.85,
		ImbalanceRatio:  20,
	}
}

// Check defines the interface for individual quality checks.
//
// Design decision: We use an interface rather than concrete types because:
//  1. Allows for easy extension with new checks
//  2. Enables testing with mock checks
//  3. Supports different implementations for the same check type
type Check interface {
	// Name returns the check's name for logging and reporting.
	Name() string

	// Category returns the check's category (e.g., "integrity", "privacy").
	Category() string

	// Check inspects the provided data and returns findings.
	Check(ctx context.Context, data *Data) ([]model.Finding, error)
}

// Data contains everything available to the checks.
//
// Design decision: We pass all data in a single struct rather than
// multiple parameters because:
//  1. Not all checks need all data types
//  2. Adding new data types doesn't change check signatures
//  3. Easier to mock in tests
type Data struct {
	// Subset is the subset name being checked.
	Subset string

	// Records are the loaded dataset records.
	Records []*model.DatasetRecord

	// Classes is the class map, or nil when no classes file was provided.
	Classes *model.ClassMap
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithOptions replaces the default checker options.
func WithOptions(options Options) CheckerOption {
	return func(c *Checker) {
		c.options = options
	}
}

// WithCheckerLogger sets the logger used while checking.
func WithCheckerLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker creates a Checker with all built-in checks registered.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		options: DefaultOptions(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Integrity checks
	c.Register(NewAnnotationCheck(c.options.BoxIoUThreshold))
	c.Register(NewFileCheck())

	// Leakage checks
	if c.options.EnableHashing {
		c.Register(NewDuplicateImageCheck())
	}

	// Privacy checks
	if c.options.EnableEXIF {
		c.Register(NewEXIFCheck())
	}

	// Balance checks
	c.Register(NewLabelCollisionCheck())
	c.Register(NewClassBalanceCheck(c.options.ImbalanceRatio))

	return c
}

// Register adds a check to the list.
func (c *Checker) Register(check Check) {
	c.checks = append(c.checks, check)
}

// Run executes all registered checks and aggregates findings.
// A failing check is logged and skipped; the remaining checks still run so
// the report is as complete as possible.
func (c *Checker) Run(ctx context.Context, data *Data) ([]model.Finding, error) {
	var allFindings []model.Finding

	for _, check := range c.checks {
		select {
		case <-ctx.Done():
			return allFindings, ctx.Err()
		default:
		}

		findings, err := check.Check(ctx, data)
		if err != nil {
			c.logger.Warn("check failed",
				slog.String("check", check.Name()),
				slog.String("category", check.Category()),
				slog.Any("error", err))
			continue
		}
		allFindings = append(allFindings, findings...)
	}

	return deduplicateFindings(allFindings), nil
}

// deduplicateFindings removes duplicate findings based on type, value,
// and location, keeping the most severe instance of each.
func deduplicateFindings(findings []model.Finding) []model.Finding {
	seen := make(map[string]int) // key -> index in result
	result := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		key := f.Type + "|" + f.Value + "|" + f.Location
		if idx, exists := seen[key]; exists {
			if f.Severity > result[idx].Severity {
				result[idx] = f
			}
		} else {
			seen[key] = len(result)
			result = append(result, f)
		}
	}

	return result
}
