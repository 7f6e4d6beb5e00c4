package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// Loader reads a subset folder into dataset records.
//
// Design decision: parse problems in annotation files become findings on the
// result rather than errors. One stray line must not abort a ten-thousand
// image load; the quality report is where such problems belong.
type Loader struct {
	logger         *slog.Logger
	predictionsDir string
	tags           []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger used during loading.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithPredictionsDir points the loader at a folder of detector output files.
// Prediction files are matched to images by stem, loaded into the record's
// Predictions, and the record is tagged as processed.
func WithPredictionsDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.predictionsDir = dir
	}
}

// WithRecordTags adds tags to every loaded record, typically the split
// membership tag.
func WithRecordTags(tags ...string) LoaderOption {
	return func(l *Loader) {
		l.tags = append(l.tags, tags...)
	}
}

// NewLoader creates a loader with the given options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadResult holds the records loaded from one subset together with the
// quality findings raised during loading.
type LoadResult struct {
	// Subset is the subset that was loaded.
	Subset Subset

	// Records are the loaded records, ordered by image path.
	Records []*model.DatasetRecord

	// Findings are the problems encountered while loading: malformed
	// annotation lines, wrong-case extensions, orphaned annotation files.
	Findings []model.Finding

	// AnnotationCount is the total number of annotation lines parsed.
	AnnotationCount int
}

// Load reads all images and annotations of a subset.
// The context is checked between files so a long load can be cancelled.
func (l *Loader) Load(ctx context.Context, subset Subset) (*LoadResult, error) {
	images, wrongCase, err := ListImages(subset.Path)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 && len(wrongCase) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, subset.Path)
	}

	result := &LoadResult{Subset: subset}

	for _, path := range wrongCase {
		result.Findings = append(result.Findings, model.NewFinding(
			"extension_case",
			"Upper-Case Image Extension",
			"image uses an upper-case .jpg extension and is skipped by case-sensitive tooling",
			filepath.Ext(path),
			relPath(subset.Path, path),
		))
	}

	stems := make(map[string]bool, len(images))
	for _, imagePath := range images {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec := model.NewDatasetRecord(imagePath, subset.Name)
		stems[rec.Stem()] = true
		for _, tag := range l.tags {
			rec.AddTag(tag)
		}

		annPath := filepath.Join(subset.AnnotationsRoot, rec.Stem()+".txt")
		anns, parsed, findings, err := l.loadAnnotationFile(annPath, rec.ID)
		if err == nil {
			rec.AnnotationPath = annPath
			rec.Annotations = anns
			result.AnnotationCount += parsed
			result.Findings = append(result.Findings, findings...)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read annotation file %s: %w", annPath, err)
		}

		if l.predictionsDir != "" {
			predPath := filepath.Join(l.predictionsDir, rec.Stem()+".txt")
			preds, _, predFindings, err := l.loadAnnotationFile(predPath, rec.ID)
			if err == nil {
				rec.Predictions = preds
				rec.AddTag(model.TagProcessed)
				result.Findings = append(result.Findings, predFindings...)
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read predictions file %s: %w", predPath, err)
			}
		}

		result.Records = append(result.Records, rec)
	}

	result.Findings = append(result.Findings, l.orphanedAnnotations(subset, stems)...)

	l.logger.Info("subset loaded",
		slog.String("subset", subset.Name),
		slog.Int("images", len(result.Records)),
		slog.Int("annotations", result.AnnotationCount),
		slog.Int("findings", len(result.Findings)))

	return result, nil
}

// loadAnnotationFile parses one annotation file. Malformed lines become
// findings; well-formed lines on the same file are still kept.
func (l *Loader) loadAnnotationFile(path, recordID string) (anns []model.Annotation, parsed int, findings []model.Finding, err error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from walking the user's dataset
	if err != nil {
		return nil, 0, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ann, err := model.ParseAnnotationLine(line)
		if err != nil {
			findings = append(findings, model.NewFinding(
				"malformed_annotation",
				"Malformed Annotation Line",
				fmt.Sprintf("line %d: %v", lineNo, err),
				line,
				recordID,
			))
			continue
		}
		anns = append(anns, ann)
		parsed++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, nil, err
	}
	return anns, parsed, findings, nil
}

// orphanedAnnotations flags annotation files whose image does not exist.
func (l *Loader) orphanedAnnotations(subset Subset, stems map[string]bool) []model.Finding {
	entries, err := os.ReadDir(subset.AnnotationsRoot)
	if err != nil {
		// The annotations root is the subset folder when no annotation
		// subfolder exists; it was already walked, so this is unexpected
		// but not worth failing the load over.
		l.logger.Warn("failed to scan annotations root", slog.String("path", subset.AnnotationsRoot))
		return nil
	}

	var findings []model.Finding
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".txt")
		if !stems[stem] {
			findings = append(findings, model.NewFinding(
				"missing_image",
				"Annotation Without Image",
				"annotation file has no matching .jpg image",
				entry.Name(),
				subset.Name+"/"+stem,
			))
		}
	}
	return findings
}

// relPath returns path relative to base, falling back to the full path.
func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
