package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// Exporter writes wrangled records back to disk in the darknet layout:
// images in the destination folder, one annotation text file per image in
// a YOLO_darknet subfolder.
type Exporter struct {
	logger     *slog.Logger
	copyImages bool
	aggregate  bool
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExporterLogger sets the logger used during export.
func WithExporterLogger(logger *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAnnotationsOnly makes the exporter write annotation files without
// copying images. Useful when the destination shares storage with the
// source and images would only be duplicated.
func WithAnnotationsOnly() ExporterOption {
	return func(e *Exporter) {
		e.copyImages = false
	}
}

// WithAggregateFile additionally writes a single annotations.txt in the
// destination with every box on one line prefixed by its image filename.
// Mining workflows consume this form instead of the per-image files.
func WithAggregateFile() ExporterOption {
	return func(e *Exporter) {
		e.aggregate = true
	}
}

// NewExporter creates an exporter with the given options.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{
		logger:     slog.New(slog.DiscardHandler),
		copyImages: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the records to dst. The destination must not exist:
// exports never overwrite, so a re-run cannot silently clobber a dataset.
// Filename collisions between subsets are resolved by prefixing the stem
// with the subset name.
func (e *Exporter) Export(ctx context.Context, records []*model.DatasetRecord, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat export destination: %w", err)
	}

	annDir := filepath.Join(dst, DarknetDirName)
	if err := os.MkdirAll(annDir, 0750); err != nil {
		return fmt.Errorf("failed to create export destination: %w", err)
	}

	var aggregated strings.Builder
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stem := rec.Stem()
		if seen[stem] {
			stem = rec.Subset + "_" + stem
		}
		seen[stem] = true

		if e.copyImages {
			if err := copyFile(rec.ImagePath, filepath.Join(dst, stem+".jpg")); err != nil {
				return fmt.Errorf("failed to copy image %s: %w", rec.ImagePath, err)
			}
		}
		if err := writeAnnotationFile(filepath.Join(annDir, stem+".txt"), rec.Annotations); err != nil {
			return fmt.Errorf("failed to write annotations for %s: %w", rec.ID, err)
		}
		if e.aggregate {
			for _, ann := range rec.Annotations {
				aggregated.WriteString(stem + ".jpg " + ann.String() + "\n")
			}
		}
	}

	if e.aggregate {
		aggPath := filepath.Join(dst, "annotations.txt")
		if err := os.WriteFile(aggPath, []byte(aggregated.String()), 0600); err != nil {
			return fmt.Errorf("failed to write aggregated annotations: %w", err)
		}
	}

	e.logger.Info("export complete",
		slog.String("destination", dst),
		slog.Int("records", len(records)),
		slog.Bool("images_copied", e.copyImages))

	return nil
}

// writeAnnotationFile writes one annotation file, one box per line.
// A record without boxes still gets an empty file so the export records
// the image as a deliberate background sample.
func writeAnnotationFile(path string, anns []model.Annotation) error {
	var sb strings.Builder
	for _, ann := range anns {
		sb.WriteString(ann.String())
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0600)
}

// copyFile copies src to dst without following symlinks on dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // Paths come from walking the user's dataset
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // Destination verified fresh above
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
