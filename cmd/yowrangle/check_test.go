package main

import (
	"testing"
)

func TestNewCheckCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCheckCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "check [data-root]" {
			t.Errorf("expected Use to be 'check [data-root]', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command has expected flags", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"subset", "classes", "iou", "imbalance", "no-exif", "no-hash", "concurrency", "json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q to exist", name)
			}
		}
	})

	t.Run("no wrangling or export flags", func(t *testing.T) {
		t.Parallel()

		// Check is audit-only; it must not grow cleaning knobs.
		for _, name := range []string{"coefficient", "export"} {
			if cmd.Flags().Lookup(name) != nil {
				t.Errorf("expected flag %q to be absent", name)
			}
		}
	})
}

func TestBuildCheckConfig(t *testing.T) {
	t.Parallel()

	t.Run("data root from argument", func(t *testing.T) {
		t.Parallel()

		cmd := NewCheckCmd()
		cfg, err := buildCheckConfig(cmd, []string{"/data/roads"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DataRoot != "/data/roads" {
			t.Errorf("expected DataRoot '/data/roads', got %q", cfg.DataRoot)
		}
	})

	t.Run("check flags toggle scanning", func(t *testing.T) {
		t.Parallel()

		cmd := NewCheckCmd()
		if err := cmd.Flags().Set("no-exif", "true"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("no-hash", "true"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildCheckConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.EnableEXIF {
			t.Error("expected EXIF scanning to be disabled")
		}
		if cfg.EnableHashing {
			t.Error("expected hashing to be disabled")
		}
	})
}
