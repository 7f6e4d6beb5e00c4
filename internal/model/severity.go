package model

// Severity represents how badly a quality finding damages a dataset.
// It orders findings for reporting and drives the review ranking.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates observations with no direct quality impact.
	// Examples: class imbalance statistics, unannotated background images.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues a model will mostly shrug off.
	// Examples: EXIF software tags, timestamps, slightly clipped boxes.
	SeverityLow

	// SeverityMedium indicates issues that measurably degrade training.
	// Examples: duplicate boxes, empty annotation files, label case clashes.
	SeverityMedium

	// SeverityHigh indicates issues that corrupt labels or leak data.
	// Examples: unknown class IDs, duplicate images across splits.
	SeverityHigh

	// SeverityCritical indicates records that must not ship.
	// Examples: unreadable images, malformed annotation files, GPS
	// coordinates embedded in published imagery.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping keeps quality assessment consistent across
// checks, reports, and the review ranking.
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL - records that must not ship
	"malformed_annotation": {
		Severity:       SeverityCritical,
		Impact:         "The annotation file cannot be parsed, so the sample silently drops out of training or poisons the loader.",
		Recommendation: "Fix or delete the offending line; re-export from the annotation tool if the file is truncated.",
	},
	"missing_image": {
		Severity:       SeverityCritical,
		Impact:         "An annotation file references an image that does not exist, producing phantom samples.",
		Recommendation: "Restore the image or remove the orphaned annotation file.",
	},
	"unreadable_image": {
		Severity:       SeverityCritical,
		Impact:         "The image file exists but cannot be decoded; training jobs crash or skip it unpredictably.",
		Recommendation: "Re-export the image from the source imagery, or drop the record.",
	},
	"exif_gps": {
		Severity:       SeverityCritical,
		Impact:         "GPS coordinates embedded in image metadata reveal exactly where the photo was taken.",
		Recommendation: "Strip EXIF metadata from all images before the dataset is shared.",
	},

	// HIGH - corrupted labels or leakage
	"unknown_class": {
		Severity:       SeverityHigh,
		Impact:         "A class ID outside the class map means the label either belongs to a different taxonomy or is a typo.",
		Recommendation: "Update the classes file or re-label the annotation with a valid class ID.",
	},
	"duplicate_image": {
		Severity:       SeverityHigh,
		Impact:         "Byte-identical images in multiple records inflate metrics and can leak between train and validation splits.",
		Recommendation: "Keep one copy and drop the rest; re-split if the duplicates straddle splits.",
	},
	"box_out_of_range": {
		Severity:       SeverityHigh,
		Impact:         "Box coordinates outside the unit square index past the image edge and break augmentation pipelines.",
		Recommendation: "Clamp the box to the image or re-draw it in the annotation tool.",
	},
	"exif_serial": {
		Severity:       SeverityHigh,
		Impact:         "A camera serial number uniquely identifies the capture device across every photo it ever took.",
		Recommendation: "Strip EXIF metadata from all images before the dataset is shared.",
	},
	"exif_author": {
		Severity:       SeverityHigh,
		Impact:         "Author or copyright fields can identify the person who captured or edited the image.",
		Recommendation: "Strip EXIF metadata from all images before the dataset is shared.",
	},

	// MEDIUM - measurable training degradation
	"duplicate_box": {
		Severity:       SeverityMedium,
		Impact:         "Near-identical boxes on one object double-count it in the loss and in evaluation.",
		Recommendation: "Keep the higher-confidence box and drop the overlapping duplicate.",
	},
	"empty_annotation": {
		Severity:       SeverityMedium,
		Impact:         "An empty annotation file is ambiguous: background image or forgotten labeling pass.",
		Recommendation: "Confirm the image is a deliberate hard negative, otherwise queue it for labeling.",
	},
	"degenerate_box": {
		Severity:       SeverityMedium,
		Impact:         "A zero-area box carries no signal and usually comes from a stray click.",
		Recommendation: "Delete the box, or re-draw it if an object was intended.",
	},
	"label_case_collision": {
		Severity:       SeverityMedium,
		Impact:         "Class names differing only in case or Unicode form fragment one class into several.",
		Recommendation: "Normalize class names to a single canonical form in the classes file.",
	},
	"confidence_out_of_range": {
		Severity:       SeverityMedium,
		Impact:         "A confidence outside [0, 1] indicates a corrupted mining run or a column mix-up.",
		Recommendation: "Re-run the detection export; check for swapped columns in the annotation line.",
	},
	"missing_annotation": {
		Severity:       SeverityMedium,
		Impact:         "An image without an annotation file will be treated as unlabeled background by most loaders.",
		Recommendation: "Label the image or move it out of the annotated subset.",
	},
	"exif_camera": {
		Severity:       SeverityMedium,
		Impact:         "Camera make and model narrow down the capture hardware used for the survey.",
		Recommendation: "Strip EXIF metadata before the dataset is shared.",
	},

	// LOW - mostly harmless
	"exif_software": {
		Severity:       SeverityLow,
		Impact:         "Software tags reveal the editing toolchain but rarely anything sensitive.",
		Recommendation: "Strip EXIF metadata as part of the export step.",
	},
	"exif_datetime": {
		Severity:       SeverityLow,
		Impact:         "Capture timestamps can expose survey schedules when correlated across images.",
		Recommendation: "Strip EXIF metadata as part of the export step.",
	},
	"extension_case": {
		Severity:       SeverityLow,
		Impact:         "Upper-case image extensions break tooling that globs for lower-case .jpg only.",
		Recommendation: "Rename files to use the lower-case extension.",
	},

	// INFO - observations
	"class_imbalance": {
		Severity:       SeverityInfo,
		Impact:         "Heavily skewed class counts bias the detector toward frequent classes.",
		Recommendation: "Mine additional samples for rare classes or apply class-weighted sampling.",
	},
	"background_image": {
		Severity:       SeverityInfo,
		Impact:         "Images without objects act as hard negatives; a deliberate share of them is healthy.",
		Recommendation: "No action needed if the background share is intentional.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess impact.",
	}
}
