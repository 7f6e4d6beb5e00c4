package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Folder names that hold annotations rather than images. They are skipped
// during subset discovery and image walks.
const (
	// DarknetDirName is the preferred annotation folder inside a subset.
	DarknetDirName = "YOLO_darknet"
	// LabelsDirName is the fallback annotation folder inside a subset.
	LabelsDirName = "labels"
	// PascalVOCDirName holds XML annotations and is never read.
	PascalVOCDirName = "PASCAL_VOC"
)

// Subset is one folder of images under a dataset root.
type Subset struct {
	// Name is the folder name, used as the subset identifier.
	Name string

	// Path is the absolute path of the subset folder.
	Path string

	// AnnotationsRoot is the folder annotation files are read from:
	// the YOLO_darknet subfolder if present, otherwise labels, otherwise
	// the subset folder itself.
	AnnotationsRoot string
}

// DiscoverSubsets lists the subset folders directly under a dataset root.
// Annotation folders and hidden folders are not subsets. Results are sorted
// by name so processing order is deterministic.
func DiscoverSubsets(root string) ([]Subset, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}

	var subsets []Subset
	for _, entry := range entries {
		if !entry.IsDir() || skipDir(entry.Name()) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		subsets = append(subsets, Subset{
			Name:            entry.Name(),
			Path:            path,
			AnnotationsRoot: resolveAnnotationsRoot(path),
		})
	}
	if len(subsets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSubsets, root)
	}

	sort.Slice(subsets, func(i, j int) bool { return subsets[i].Name < subsets[j].Name })
	return subsets, nil
}

// OpenSubset treats a single folder as one subset: the folder itself holds
// the images and its annotation folder is resolved the usual way.
func OpenSubset(path string) (Subset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Subset{}, fmt.Errorf("failed to stat subset folder: %w", err)
	}
	if !info.IsDir() {
		return Subset{}, fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}
	return Subset{
		Name:            filepath.Base(path),
		Path:            path,
		AnnotationsRoot: resolveAnnotationsRoot(path),
	}, nil
}

// resolveAnnotationsRoot picks the annotation folder for a subset.
// Preference order: YOLO_darknet, then labels, then the subset folder
// itself for side-by-side annotation files.
func resolveAnnotationsRoot(subsetPath string) string {
	for _, name := range []string{DarknetDirName, LabelsDirName} {
		candidate := filepath.Join(subsetPath, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return subsetPath
}

// ListImages walks a subset folder recursively and returns the paths of all
// .jpg images, sorted. Only the lower-case extension is matched; images with
// an upper-case extension are surfaced separately so a check can flag them.
// Annotation folders and hidden folders are not descended into.
func ListImages(subsetPath string) (images, wrongCase []string, err error) {
	walkErr := filepath.WalkDir(subsetPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != subsetPath && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		switch {
		case ext == ".jpg":
			images = append(images, path)
		case strings.EqualFold(ext, ".jpg"):
			wrongCase = append(wrongCase, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("failed to walk subset folder: %w", walkErr)
	}

	sort.Strings(images)
	sort.Strings(wrongCase)
	return images, wrongCase, nil
}

// skipDir reports whether a folder name is an annotation or hidden folder.
func skipDir(name string) bool {
	return name == DarknetDirName || name == LabelsDirName ||
		name == PascalVOCDirName || strings.HasPrefix(name, ".")
}
