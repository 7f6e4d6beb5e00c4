package model

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ClassMap errors.
var (
	// ErrNoClasses is returned when a classes file contains no entries.
	ErrNoClasses = errors.New("classes file contains no class names")
)

// ClassInfo describes a single object class.
type ClassInfo struct {
	// Name is the human-readable class label, e.g. "WS" or "Cracking".
	Name string `json:"label"`

	// MinProbability is the production confidence threshold for this class.
	// Zero means no threshold was configured.
	MinProbability float64 `json:"min_prob,omitempty"`
}

// ClassMap maps integer class IDs to class information.
// It is loaded either from a plain list file (one class name per line,
// line number = class ID) or from a classes JSON that also carries
// per-class confidence thresholds.
type ClassMap struct {
	classes map[int]ClassInfo
}

// NewClassMap creates a ClassMap from an explicit id-to-info mapping.
func NewClassMap(classes map[int]ClassInfo) *ClassMap {
	if classes == nil {
		classes = make(map[int]ClassInfo)
	}
	return &ClassMap{classes: classes}
}

// LoadClassList reads a class list file: one class name per line, where the
// zero-based line number is the class ID. Blank lines and leading/trailing
// whitespace are ignored in names but still consume an ID, matching the
// darknet convention.
func LoadClassList(path string) (*ClassMap, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided classes path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open classes file: %w", err)
	}
	defer f.Close()

	classes := make(map[int]ClassInfo)
	scanner := bufio.NewScanner(f)
	id := 0
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			classes[id] = ClassInfo{Name: name}
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read classes file: %w", err)
	}
	if len(classes) == 0 {
		return nil, ErrNoClasses
	}

	return &ClassMap{classes: classes}, nil
}

// classesJSON mirrors the classes JSON file layout: class IDs as string
// keys mapping to label and threshold information.
type classesJSON map[string]ClassInfo

// LoadClassJSON reads a classes JSON file carrying labels and per-class
// minimum probability thresholds.
func LoadClassJSON(path string) (*ClassMap, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided classes path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read classes json: %w", err)
	}

	var raw classesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classes json: %w", err)
	}

	classes := make(map[int]ClassInfo, len(raw))
	for key, info := range raw {
		var id int
		if _, err := fmt.Sscanf(key, "%d", &id); err != nil {
			return nil, fmt.Errorf("invalid class id %q in classes json: %w", key, err)
		}
		classes[id] = info
	}
	if len(classes) == 0 {
		return nil, ErrNoClasses
	}

	return &ClassMap{classes: classes}, nil
}

// Name returns the class name for an ID, or "Unknown" when the ID is not
// in the map. Unknown IDs are a quality finding, not a fatal error.
func (m *ClassMap) Name(classID int) string {
	if info, ok := m.classes[classID]; ok {
		return info.Name
	}
	return "Unknown"
}

// Known reports whether the class ID exists in the map.
func (m *ClassMap) Known(classID int) bool {
	_, ok := m.classes[classID]
	return ok
}

// MinProbability returns the configured confidence threshold for a class.
// Returns 0 when no threshold is configured.
func (m *ClassMap) MinProbability(classID int) float64 {
	return m.classes[classID].MinProbability
}

// Len returns the number of classes in the map.
func (m *ClassMap) Len() int {
	return len(m.classes)
}

// IDs returns all class IDs in ascending order.
func (m *ClassMap) IDs() []int {
	ids := make([]int, 0, len(m.classes))
	for id := range m.classes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Names returns all class names ordered by class ID.
func (m *ClassMap) Names() []string {
	ids := m.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = m.classes[id].Name
	}
	return names
}
