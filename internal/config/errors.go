package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoDataRoot is returned when no dataset root directory is specified.
	// This error occurs when neither a positional argument nor the config
	// file provides a dataset location.
	ErrNoDataRoot = errors.New("no dataset root specified: provide a directory path")

	// ErrInvalidConcurrency is returned when the subset concurrency is not positive.
	// A concurrency of zero would mean no subsets get processed.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCoefficient is returned when the confidence coefficient is
	// not positive. A coefficient of zero would drop every mined box.
	ErrInvalidCoefficient = errors.New("invalid confidence coefficient: must be positive")

	// ErrInvalidIoUThreshold is returned when the duplicate-box IoU threshold
	// is outside (0, 1]. Values above 1 can never match; zero matches everything.
	ErrInvalidIoUThreshold = errors.New("invalid IoU threshold: must be in (0, 1]")

	// ErrInvalidImbalanceRatio is returned when the class imbalance ratio is
	// less than 1. A ratio below 1 would flag perfectly balanced datasets.
	ErrInvalidImbalanceRatio = errors.New("invalid imbalance ratio: must be at least 1")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
