package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Annotation parsing errors.
var (
	// ErrEmptyAnnotationLine is returned when a line contains no fields.
	ErrEmptyAnnotationLine = errors.New("empty annotation line")
	// ErrMalformedAnnotation is returned when a line does not have the
	// expected "class cx cy w h [confidence]" shape.
	ErrMalformedAnnotation = errors.New("malformed annotation line")
)

// Annotation is a single labeled bounding box attached to a DatasetRecord.
// Each annotation belongs to exactly one record; annotations are never
// shared between records.
type Annotation struct {
	// ClassID is the integer class identifier from the annotation file.
	ClassID int `json:"class_id"`

	// Box is the normalized bounding box geometry.
	Box Box `json:"box"`

	// Confidence is the detector confidence for mined annotations.
	// Nil for hand-labeled ground truth, which carries no confidence column.
	Confidence *float64 `json:"confidence,omitempty"`
}

// ParseAnnotationLine parses one line of a YOLO-darknet annotation file.
// The format is "class cx cy w h" with an optional sixth confidence field.
// Extra whitespace is tolerated; anything else is malformed.
func ParseAnnotationLine(line string) (Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Annotation{}, ErrEmptyAnnotationLine
	}
	if len(fields) != 5 && len(fields) != 6 {
		return Annotation{}, fmt.Errorf("%w: expected 5 or 6 fields, got %d", ErrMalformedAnnotation, len(fields))
	}

	classID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Annotation{}, fmt.Errorf("%w: class id %q: %v", ErrMalformedAnnotation, fields[0], err)
	}
	if classID < 0 {
		return Annotation{}, fmt.Errorf("%w: negative class id %d", ErrMalformedAnnotation, classID)
	}

	coords := make([]float64, 4)
	for i, field := range fields[1:5] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Annotation{}, fmt.Errorf("%w: coordinate %q: %v", ErrMalformedAnnotation, field, err)
		}
		coords[i] = v
	}

	ann := Annotation{
		ClassID: classID,
		Box:     Box{CX: coords[0], CY: coords[1], W: coords[2], H: coords[3]},
	}

	if len(fields) == 6 {
		conf, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return Annotation{}, fmt.Errorf("%w: confidence %q: %v", ErrMalformedAnnotation, fields[5], err)
		}
		ann.Confidence = &conf
	}

	return ann, nil
}

// String formats the annotation back into its file representation.
// Coordinates use six decimal places, matching common detector output.
func (a Annotation) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(a.ClassID))
	for _, v := range []float64{a.Box.CX, a.Box.CY, a.Box.W, a.Box.H} {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	if a.Confidence != nil {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(*a.Confidence, 'f', 6, 64))
	}
	return sb.String()
}

// Equal reports whether two annotations describe the same labeled box.
// Confidence is intentionally ignored: the same box mined twice at
// different confidences is still a duplicate.
func (a Annotation) Equal(other Annotation) bool {
	return a.ClassID == other.ClassID && a.Box == other.Box
}
