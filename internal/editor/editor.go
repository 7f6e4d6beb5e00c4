package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

var (
	// ErrNoCommand is returned when no editor command is configured.
	ErrNoCommand = errors.New("no editor command configured")

	// ErrNoRecords is returned when there is nothing to review.
	ErrNoRecords = errors.New("no records to review")
)

// Launcher runs an external annotation editor as a child process.
type Launcher struct {
	// command is the editor executable name or path.
	command string

	// baseArgs are arguments placed before the image paths.
	baseArgs []string

	// stdout and stderr receive the editor's output. GUI editors print
	// load errors here, which is the only diagnostic the operator gets.
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithBaseArgs sets arguments passed before the image paths.
func WithBaseArgs(args ...string) LauncherOption {
	return func(l *Launcher) {
		l.baseArgs = args
	}
}

// WithOutput redirects the editor's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) LauncherOption {
	return func(l *Launcher) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithLauncherLogger sets the logger for launch events.
func WithLauncherLogger(logger *slog.Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// NewLauncher creates a Launcher for the given editor command.
func NewLauncher(command string, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		command: command,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Review opens the editor over the given records' images and blocks until
// the editor exits. The caller should reload the subset afterwards, since
// the operator may have rewritten any annotation file.
func (l *Launcher) Review(ctx context.Context, records []*model.DatasetRecord) error {
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		paths = append(paths, rec.ImagePath)
	}
	return l.Launch(ctx, paths)
}

// Launch opens the editor over the given image paths and blocks until the
// editor exits. Cancelling the context kills the editor process.
func (l *Launcher) Launch(ctx context.Context, imagePaths []string) error {
	if l.command == "" {
		return ErrNoCommand
	}
	if len(imagePaths) == 0 {
		return ErrNoRecords
	}

	args := make([]string, 0, len(l.baseArgs)+len(imagePaths))
	args = append(args, l.baseArgs...)
	args = append(args, imagePaths...)

	l.logger.Info("launching annotation editor",
		"command", l.command,
		"images", len(imagePaths))

	cmd := exec.CommandContext(ctx, l.command, args...) //nolint:gosec // editor command is operator configured
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("editor session cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("editor %q failed: %w", l.command, err)
	}

	l.logger.Info("annotation editor session finished", "command", l.command)
	return nil
}
