package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be masked.
// These keys carry values that can locate a capture site or identify the
// device owner.
var sensitiveKeys = map[string]bool{
	// EXIF location tags
	"gps":           true,
	"gps_latitude":  true,
	"gps_longitude": true,
	"gpslatitude":   true,
	"gpslongitude":  true,
	"gpsposition":   true,
	"latitude":      true,
	"longitude":     true,

	// Device identity
	"serial":         true,
	"serial_number":  true,
	"serialnumber":   true,
	"bodyserial":     true,
	"owner":          true,
	"owner_name":     true,
	"ownername":      true,
	"artist":         true,
	"cameraowner":    true,
	"camera_owner":   true,
	"copyrightowner": true,
}

// sensitivePatterns contains regex patterns that indicate location values.
// Values matching these patterns are masked regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// Decimal degree pairs ("-34.92866, 138.60099")
	regexp.MustCompile(`^-?\d{1,3}\.\d{4,}\s*,\s*-?\d{1,3}\.\d{4,}$`),

	// Degrees/minutes/seconds EXIF rendering ("34 deg 55' 43.18\" S")
	regexp.MustCompile(`\d+\s*deg\s*\d+'`),
}

// MaskValue is the string used to replace masked values.
const MaskValue = "***REDACTED***"

// maxValueLen bounds string attribute length. Annotation dumps and EXIF
// maker notes can run to kilobytes; anything past this adds no diagnostic
// value in a log line.
const maxValueLen = 256

// ScrubHandler wraps an slog.Handler to scrub location-revealing values
// and oversized strings. It intercepts log records and rewrites attribute
// values before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Every package that takes a *slog.Logger gets scrubbing for free
type ScrubHandler struct {
	// handler is the underlying slog handler that receives scrubbed records.
	handler slog.Handler

	// homeDir is the prefix rewritten to "~" in path-like values.
	homeDir string
}

// NewScrubHandler creates a new ScrubHandler wrapping the given handler.
// All log attributes will be scrubbed before being passed to the underlying
// handler. If handler is nil, the returned ScrubHandler will use
// slog.Default().Handler().
func NewScrubHandler(handler slog.Handler) *ScrubHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	home, _ := os.UserHomeDir() //nolint:errcheck // empty home simply disables rewriting
	return &ScrubHandler{handler: handler, homeDir: home}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *ScrubHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's attributes and passes it to the underlying handler.
func (h *ScrubHandler) Handle(ctx context.Context, r slog.Record) error {
	scrubbed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(h.scrubAttr(a))
		return true
	})

	return h.handler.Handle(ctx, scrubbed)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are scrubbed before being added.
func (h *ScrubHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbedAttrs[i] = h.scrubAttr(a)
	}
	return &ScrubHandler{handler: h.handler.WithAttrs(scrubbedAttrs), homeDir: h.homeDir}
}

// WithGroup returns a new handler with the given group name.
func (h *ScrubHandler) WithGroup(name string) slog.Handler {
	return &ScrubHandler{handler: h.handler.WithGroup(name), homeDir: h.homeDir}
}

// scrubAttr scrubs a single attribute, recursively handling groups.
func (h *ScrubHandler) scrubAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		scrubbedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			scrubbedAttrs[i] = h.scrubAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.scrubString(a.Value.String()))
	}

	return a
}

// scrubString applies value-level scrubbing: location pattern masking,
// home-directory rewriting, and length truncation, in that order.
func (h *ScrubHandler) scrubString(value string) string {
	if isSensitiveValue(value) {
		return MaskValue
	}

	if h.homeDir != "" && strings.HasPrefix(value, h.homeDir) {
		value = "~" + value[len(h.homeDir):]
	}

	if len(value) > maxValueLen {
		value = value[:maxValueLen] + "...(truncated)"
	}

	return value
}

// containsSensitiveKeyword checks if the key contains location keywords.
// Note: We intentionally exclude the bare "position" keyword as it causes
// false positives (box positions are logged constantly). Specific EXIF
// position tags are covered by the sensitiveKeys map.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"gps", "latitude", "longitude", "serial", "owner",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches location patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewLogger creates a new slog.Logger with scrubbed text output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewScrubHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger with scrubbed JSON output.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewScrubHandler(jsonHandler))
}
