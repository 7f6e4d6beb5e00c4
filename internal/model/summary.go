package model

import "sort"

// DatasetSummary is the aggregate view of a set of records after wrangling.
// It is derived from the records and never mutated by hand; rebuild it with
// NewDatasetSummary whenever the records change.
type DatasetSummary struct {
	// Subset is the dataset subset the summary describes.
	// Empty when the summary spans multiple subsets.
	Subset string `json:"subset,omitempty"`

	// ImageCount is the number of records.
	ImageCount int `json:"image_count"`

	// AnnotatedCount is the number of records with at least one box.
	AnnotatedCount int `json:"annotated_count"`

	// BackgroundCount is the number of records with no boxes.
	BackgroundCount int `json:"background_count"`

	// BoxCount is the total number of annotation boxes.
	BoxCount int `json:"box_count"`

	// ClassCounts maps class ID to the number of boxes with that class.
	ClassCounts map[int]int `json:"class_counts,omitempty"`

	// TagCounts maps tag name to the number of records carrying it.
	TagCounts map[string]int `json:"tag_counts,omitempty"`
}

// NewDatasetSummary builds a summary from the given records.
func NewDatasetSummary(subset string, records []*DatasetRecord) *DatasetSummary {
	s := &DatasetSummary{
		Subset:      subset,
		ClassCounts: make(map[int]int),
		TagCounts:   make(map[string]int),
	}
	for _, rec := range records {
		s.ImageCount++
		if len(rec.Annotations) == 0 {
			s.BackgroundCount++
		} else {
			s.AnnotatedCount++
		}
		for _, ann := range rec.Annotations {
			s.BoxCount++
			s.ClassCounts[ann.ClassID]++
		}
		for _, tag := range rec.Tags {
			s.TagCounts[tag]++
		}
	}
	return s
}

// ClassIDs returns the class IDs present in the summary, sorted ascending.
func (s *DatasetSummary) ClassIDs() []int {
	ids := make([]int, 0, len(s.ClassCounts))
	for id := range s.ClassCounts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Merge folds another summary into this one. Class and tag counts are summed.
// The merged summary drops the subset name since it no longer describes a
// single folder.
func (s *DatasetSummary) Merge(other *DatasetSummary) {
	if other == nil {
		return
	}
	if s.Subset != other.Subset {
		s.Subset = ""
	}
	s.ImageCount += other.ImageCount
	s.AnnotatedCount += other.AnnotatedCount
	s.BackgroundCount += other.BackgroundCount
	s.BoxCount += other.BoxCount
	if s.ClassCounts == nil {
		s.ClassCounts = make(map[int]int)
	}
	for id, n := range other.ClassCounts {
		s.ClassCounts[id] += n
	}
	if s.TagCounts == nil {
		s.TagCounts = make(map[string]int)
	}
	for tag, n := range other.TagCounts {
		s.TagCounts[tag] += n
	}
}
