package check

import (
	"context"
	"os"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// EXIFCheck extracts and inspects EXIF metadata from the dataset images.
// Road survey photos come straight off phones and dashcams, so they often
// carry GPS coordinates, device serial numbers, and author fields that must
// not ship with a published dataset.
//
// This check reports:
//   - GPS coordinates (exif_gps)
//   - Device serial numbers (exif_serial)
//   - Author/copyright fields (exif_author)
//   - Camera make/model (exif_camera)
//   - Software information (exif_software)
//   - Capture timestamps (exif_datetime)
type EXIFCheck struct {
	// maxImageSize caps how much of a file is read looking for EXIF data.
	maxImageSize int64
}

// NewEXIFCheck creates an EXIFCheck.
func NewEXIFCheck() *EXIFCheck {
	return &EXIFCheck{
		maxImageSize: 32 * 1024 * 1024, // 32MB covers any survey photo
	}
}

// Name returns the check name.
func (c *EXIFCheck) Name() string {
	return "exif"
}

// Category returns the check category.
func (c *EXIFCheck) Category() string {
	return CategoryPrivacy
}

// Check inspects the EXIF metadata of every record's image.
func (c *EXIFCheck) Check(ctx context.Context, data *Data) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, rec := range data.Records {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		info, err := os.Stat(rec.ImagePath)
		if err != nil || info.Size() > c.maxImageSize {
			continue
		}

		imageData, err := os.ReadFile(rec.ImagePath) //nolint:gosec // Paths come from walking the user's dataset
		if err != nil {
			continue
		}

		findings = append(findings, c.inspectImageData(imageData, rec.ID)...)
	}

	return findings, nil
}

// inspectImageData extracts EXIF tags from image bytes and classifies them.
func (c *EXIFCheck) inspectImageData(imageData []byte, recordID string) []model.Finding {
	findings := make([]model.Finding, 0)

	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil || rawExif == nil {
		// Images without EXIF blocks are the good case.
		return findings
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return findings
	}

	// Collapse repeated tags of one kind per image into single findings;
	// GPS alone spans four tags.
	reported := make(map[string]bool)
	add := func(findingType, title, description, value string) {
		if reported[findingType] {
			return
		}
		reported[findingType] = true
		findings = append(findings, model.NewFinding(findingType, title, description, value, recordID))
	}

	for _, entry := range entries {
		tagName := entry.TagName
		value := tagName + ": " + entry.Formatted

		switch tagName {
		case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef":
			add("exif_gps", "GPS Coordinates in Image EXIF",
				"the image records where it was taken", value)

		case "SerialNumber", "CameraSerialNumber", "BodySerialNumber", "LensSerialNumber":
			add("exif_serial", "Device Serial Number in Image EXIF",
				"a unique identifier that tracks the device across photos", value)

		case "Artist", "Author", "Copyright", "XPAuthor":
			add("exif_author", "Author Information in Image EXIF",
				"an identity field embedded by the camera or editing software", value)

		case "Make", "Model":
			add("exif_camera", "Camera Information in Image EXIF",
				"make and model of the capture device", value)

		case "Software", "ProcessingSoftware":
			add("exif_software", "Software Information in Image EXIF",
				"the editing toolchain that produced the image", value)

		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			add("exif_datetime", "Capture Timestamp in Image EXIF",
				"when the image was taken or digitized", value)
		}
	}

	return findings
}
