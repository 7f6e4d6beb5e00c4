package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file with parents, failing the test on error.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// TestDiscoverSubsets tests subset folder discovery.
func TestDiscoverSubsets(t *testing.T) {
	t.Parallel()

	t.Run("skips annotation and hidden folders", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		for _, dir := range []string{"Survey_B", "Survey_A", DarknetDirName, LabelsDirName, PascalVOCDirName, ".cache"} {
			if err := os.Mkdir(filepath.Join(root, dir), 0750); err != nil {
				t.Fatal(err)
			}
		}
		writeFile(t, filepath.Join(root, "classes.txt"), "D00\n")

		subsets, err := DiscoverSubsets(root)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(subsets) != 2 {
			t.Fatalf("found %d subsets, expected 2", len(subsets))
		}
		// Sorted by name.
		if subsets[0].Name != "Survey_A" || subsets[1].Name != "Survey_B" {
			t.Errorf("subset order = [%s %s], expected [Survey_A Survey_B]", subsets[0].Name, subsets[1].Name)
		}
	})

	t.Run("empty root", func(t *testing.T) {
		t.Parallel()
		if _, err := DiscoverSubsets(t.TempDir()); !errors.Is(err, ErrNoSubsets) {
			t.Errorf("expected ErrNoSubsets, got %v", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "file")
		writeFile(t, path, "")
		if _, err := DiscoverSubsets(path); !errors.Is(err, ErrNotADirectory) {
			t.Errorf("expected ErrNotADirectory, got %v", err)
		}
	})
}

// TestResolveAnnotationsRoot tests the annotation folder preference order.
func TestResolveAnnotationsRoot(t *testing.T) {
	t.Parallel()

	t.Run("prefers YOLO_darknet over labels", func(t *testing.T) {
		t.Parallel()
		subset := t.TempDir()
		for _, dir := range []string{DarknetDirName, LabelsDirName} {
			if err := os.Mkdir(filepath.Join(subset, dir), 0750); err != nil {
				t.Fatal(err)
			}
		}
		s, err := OpenSubset(subset)
		if err != nil {
			t.Fatal(err)
		}
		if s.AnnotationsRoot != filepath.Join(subset, DarknetDirName) {
			t.Errorf("AnnotationsRoot = %s, expected the YOLO_darknet folder", s.AnnotationsRoot)
		}
	})

	t.Run("falls back to labels", func(t *testing.T) {
		t.Parallel()
		subset := t.TempDir()
		if err := os.Mkdir(filepath.Join(subset, LabelsDirName), 0750); err != nil {
			t.Fatal(err)
		}
		s, err := OpenSubset(subset)
		if err != nil {
			t.Fatal(err)
		}
		if s.AnnotationsRoot != filepath.Join(subset, LabelsDirName) {
			t.Errorf("AnnotationsRoot = %s, expected the labels folder", s.AnnotationsRoot)
		}
	})

	t.Run("falls back to subset folder", func(t *testing.T) {
		t.Parallel()
		subset := t.TempDir()
		s, err := OpenSubset(subset)
		if err != nil {
			t.Fatal(err)
		}
		if s.AnnotationsRoot != subset {
			t.Errorf("AnnotationsRoot = %s, expected the subset folder itself", s.AnnotationsRoot)
		}
	})
}

// TestListImages tests the recursive image walk.
func TestListImages(t *testing.T) {
	t.Parallel()

	subset := t.TempDir()
	writeFile(t, filepath.Join(subset, "b.jpg"), "img")
	writeFile(t, filepath.Join(subset, "a.jpg"), "img")
	writeFile(t, filepath.Join(subset, "nested", "c.jpg"), "img")
	writeFile(t, filepath.Join(subset, "shouty.JPG"), "img")
	writeFile(t, filepath.Join(subset, "notes.txt"), "not an image")
	writeFile(t, filepath.Join(subset, DarknetDirName, "a.txt"), "0 0.5 0.5 0.1 0.1")
	writeFile(t, filepath.Join(subset, ".thumbs", "d.jpg"), "img")

	images, wrongCase, err := ListImages(subset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(images) != 3 {
		t.Fatalf("found %d images, expected 3: %v", len(images), images)
	}
	// Sorted paths.
	if filepath.Base(images[0]) != "a.jpg" || filepath.Base(images[1]) != "b.jpg" {
		t.Errorf("images not sorted: %v", images)
	}

	if len(wrongCase) != 1 || filepath.Base(wrongCase[0]) != "shouty.JPG" {
		t.Errorf("wrongCase = %v, expected the upper-case file", wrongCase)
	}
}
