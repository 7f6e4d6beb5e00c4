package check

import (
	"context"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// FileCheck inspects the files behind each record.
//
// This check reports:
//   - annotated images whose annotation file is absent (missing_annotation)
//   - annotation files that exist but contain no boxes (empty_annotation)
//   - image files that have disappeared since loading (missing_image)
//   - image files whose header fails to decode (unreadable_image)
type FileCheck struct{}

// NewFileCheck creates a FileCheck.
func NewFileCheck() *FileCheck {
	return &FileCheck{}
}

// Name returns the check name.
func (c *FileCheck) Name() string {
	return "files"
}

// Category returns the check category.
func (c *FileCheck) Category() string {
	return CategoryIntegrity
}

// Check inspects the files of every record.
func (c *FileCheck) Check(ctx context.Context, data *Data) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, rec := range data.Records {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if _, err := os.Stat(rec.ImagePath); err != nil {
			findings = append(findings, model.NewFinding(
				"missing_image",
				"Image File Missing",
				"the image file disappeared after the subset was scanned",
				rec.ImagePath,
				rec.ID,
			))
			continue
		}

		if err := decodableImage(rec.ImagePath); err != nil {
			findings = append(findings, model.NewFinding(
				"unreadable_image",
				"Image File Unreadable",
				"the image file exists but its header fails to decode",
				rec.ImagePath,
				rec.ID,
			))
		}

		switch {
		case rec.AnnotationPath == "":
			findings = append(findings, model.NewFinding(
				"missing_annotation",
				"Image Without Annotation File",
				"no annotation file matches this image's stem",
				rec.Stem()+".txt",
				rec.ID,
			))
		case len(rec.Annotations) == 0:
			findings = append(findings, model.NewFinding(
				"empty_annotation",
				"Empty Annotation File",
				"the annotation file exists but contains no boxes",
				rec.Stem()+".txt",
				rec.ID,
			))
		}
	}

	return findings, nil
}

// decodableImage reads just enough of the file to parse the image header.
func decodableImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err
}
