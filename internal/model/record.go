package model

import (
	"path/filepath"
	"strings"
)

// Record tags applied during loading and wrangling.
const (
	// TagTrain marks records belonging to a training split.
	TagTrain = "train"
	// TagVal marks records belonging to a validation split.
	TagVal = "val"
	// TagProcessed marks records for which inference output was found.
	TagProcessed = "processed"
	// TagCandidate marks records from the candidate subset under review.
	TagCandidate = "candidate"
)

// DatasetRecord is one annotated sample: an image plus the annotations that
// belong to it. Records are created by the loader, mutated by wrangling
// operations, and excluded by filters. A record's identity (ID) is stable
// across all wrangling operations; only explicit deletion removes it.
type DatasetRecord struct {
	// ID identifies the record within the dataset. It is the image filename
	// stem qualified by the subset name, e.g. "Scenic_Rim_2021/photo_0042".
	ID string `json:"id"`

	// ImagePath is the absolute path of the image file.
	ImagePath string `json:"image_path"`

	// AnnotationPath is the absolute path of the annotation file.
	// Empty when no annotation file exists for the image.
	AnnotationPath string `json:"annotation_path,omitempty"`

	// Subset is the name of the subset folder the record was loaded from.
	Subset string `json:"subset"`

	// Provenance records where the sample came from (survey name, mining
	// run, import batch). Defaults to the subset name.
	Provenance string `json:"provenance,omitempty"`

	// Annotations are the labeled boxes owned by this record.
	Annotations []Annotation `json:"annotations"`

	// Predictions are detector outputs loaded from an inference directory,
	// kept separate from ground truth for evaluation and review ranking.
	Predictions []Annotation `json:"predictions,omitempty"`

	// Tags carries split membership and processing markers.
	Tags []string `json:"tags,omitempty"`
}

// NewDatasetRecord creates a record for the given image path and subset.
// The record ID is derived from the subset and the image stem.
func NewDatasetRecord(imagePath, subset string) *DatasetRecord {
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return &DatasetRecord{
		ID:         subset + "/" + stem,
		ImagePath:  imagePath,
		Subset:     subset,
		Provenance: subset,
	}
}

// Stem returns the image filename without directory or extension.
// Annotation files are matched to images by stem.
func (r *DatasetRecord) Stem() string {
	return strings.TrimSuffix(filepath.Base(r.ImagePath), filepath.Ext(r.ImagePath))
}

// HasTag reports whether the record carries the given tag.
func (r *DatasetRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag unless the record already carries it.
func (r *DatasetRecord) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.Tags = append(r.Tags, tag)
	}
}

// HasClass reports whether any annotation uses the given class ID.
func (r *DatasetRecord) HasClass(classID int) bool {
	for _, a := range r.Annotations {
		if a.ClassID == classID {
			return true
		}
	}
	return false
}

// OnlyClasses reports whether every annotation belongs to the given class
// set. Records whose annotations are all in the set are dropped by the
// class-removal operation. An unannotated record returns false.
func (r *DatasetRecord) OnlyClasses(classIDs map[int]bool) bool {
	if len(r.Annotations) == 0 {
		return false
	}
	for _, a := range r.Annotations {
		if !classIDs[a.ClassID] {
			return false
		}
	}
	return true
}
