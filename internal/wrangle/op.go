package wrangle

import (
	"context"
	"log/slog"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// Op is a single wrangling operation over a slice of records.
//
// Design decision: Ops return a new slice instead of mutating in place so
// an operation can drop whole records, and so a failed run never leaves
// the record set half transformed.
type Op interface {
	// Name returns the operation's name for logging and reporting.
	Name() string

	// Apply transforms the records. The detail string describes what was
	// done in human terms and ends up in the report's operation log.
	Apply(ctx context.Context, records []*model.DatasetRecord) (out []*model.DatasetRecord, detail string, err error)
}

// Runner executes a sequence of operations, recording before/after counts
// for each one.
type Runner struct {
	ops    []Op
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger used while running operations.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner for the given operations. Operations run in
// the order given; order matters, e.g. confidence filtering before class
// removal changes which records end up empty.
func NewRunner(ops []Op, opts ...RunnerOption) *Runner {
	r := &Runner{
		ops:    ops,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies all operations in order and returns the transformed records
// together with per-operation statistics.
func (r *Runner) Run(ctx context.Context, records []*model.DatasetRecord) ([]*model.DatasetRecord, []model.OpStat, error) {
	stats := make([]model.OpStat, 0, len(r.ops))

	for _, op := range r.ops {
		select {
		case <-ctx.Done():
			return records, stats, ctx.Err()
		default:
		}

		stat := model.OpStat{
			Op:            op.Name(),
			RecordsBefore: len(records),
			BoxesBefore:   countBoxes(records),
		}

		out, detail, err := op.Apply(ctx, records)
		if err != nil {
			return records, stats, err
		}

		stat.RecordsAfter = len(out)
		stat.BoxesAfter = countBoxes(out)
		stat.Detail = detail
		stats = append(stats, stat)
		records = out

		r.logger.Info("operation applied",
			slog.String("op", op.Name()),
			slog.Int("records", stat.RecordsAfter),
			slog.Int("boxes_removed", stat.BoxesRemoved()))
	}

	return records, stats, nil
}

// countBoxes sums annotation boxes across records.
func countBoxes(records []*model.DatasetRecord) int {
	total := 0
	for _, rec := range records {
		total += len(rec.Annotations)
	}
	return total
}

// filterAnnotations returns a record copy whose annotations satisfy keep.
// The original record is not modified.
func filterAnnotations(rec *model.DatasetRecord, keep func(model.Annotation) bool) *model.DatasetRecord {
	kept := make([]model.Annotation, 0, len(rec.Annotations))
	for _, ann := range rec.Annotations {
		if keep(ann) {
			kept = append(kept, ann)
		}
	}
	clone := *rec
	clone.Annotations = kept
	return &clone
}
