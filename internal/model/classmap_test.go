package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadClassList tests loading a line-per-class names file.
func TestLoadClassList(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "classes.txt")
		content := "D00\nD10\nD20\nD40\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cm, err := LoadClassList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cm.Len() != 4 {
			t.Errorf("Len() = %d, expected 4", cm.Len())
		}
		if cm.Name(0) != "D00" {
			t.Errorf("Name(0) = %q, expected D00", cm.Name(0))
		}
		if cm.Name(3) != "D40" {
			t.Errorf("Name(3) = %q, expected D40", cm.Name(3))
		}
	})

	t.Run("blank line consumes an ID", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "classes.txt")
		if err := os.WriteFile(path, []byte("D00\n\nD20\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cm, err := LoadClassList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cm.Known(1) {
			t.Error("blank line should not define a class")
		}
		if cm.Name(2) != "D20" {
			t.Errorf("Name(2) = %q, expected D20", cm.Name(2))
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "classes.txt")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadClassList(path); !errors.Is(err, ErrNoClasses) {
			t.Errorf("expected ErrNoClasses, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadClassList(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestLoadClassJSON tests loading a class map with thresholds from JSON.
func TestLoadClassJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "classes.json")
	content := `{
		"0": {"label": "D00", "min_prob": 0.25},
		"1": {"label": "D10", "min_prob": 0.30},
		"5": {"label": "D44"}
	}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cm, err := LoadClassJSON(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cm.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", cm.Len())
	}
	if got := cm.MinProbability(1); got != 0.30 {
		t.Errorf("MinProbability(1) = %v, expected 0.30", got)
	}
	if got := cm.MinProbability(5); got != 0 {
		t.Errorf("MinProbability(5) = %v, expected 0 when unset", got)
	}
	if cm.Name(9) != "Unknown" {
		t.Errorf("Name(9) = %q, expected Unknown", cm.Name(9))
	}

	ids := cm.IDs()
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 1 || ids[2] != 5 {
		t.Errorf("IDs() = %v, expected [0 1 5]", ids)
	}
}
