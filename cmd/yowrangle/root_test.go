package main

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "yowrangle" {
			t.Errorf("expected Use to be 'yowrangle', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected Long to be non-empty")
		}
	})

	t.Run("command has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected Version to be non-empty")
		}
	})

	t.Run("command silences usage on error", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
	})

	t.Run("command silences errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})

	t.Run("command has verbose persistent flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag to exist")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected verbose shorthand to be 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected verbose default to be 'false', got %q", flag.DefValue)
		}
	})

	t.Run("command has expected subcommands", func(t *testing.T) {
		t.Parallel()

		want := []string{
			"wrangle [data-root]",
			"check [data-root]",
			"evaluate [subset-path]",
			"compare [subset]",
			"review [subset-path]",
			"render [subset-path]",
			"doctor [pyproject.toml]",
			"init",
			"version",
		}

		registered := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			registered[sub.Use] = true
		}

		for _, use := range want {
			if !registered[use] {
				t.Errorf("expected subcommand %q to be registered", use)
			}
		}
	})
}
