package visual

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// palette holds the per-class outline colors. Classes beyond the palette
// wrap around; adjacent class IDs stay visually distinct.
var palette = []color.RGBA{
	{R: 230, G: 57, B: 70, A: 255},  // red
	{R: 29, G: 53, B: 87, A: 255},   // navy
	{R: 42, G: 157, B: 143, A: 255}, // teal
	{R: 244, G: 162, B: 97, A: 255}, // orange
	{R: 106, G: 76, B: 147, A: 255}, // purple
	{R: 255, G: 202, B: 58, A: 255}, // yellow
	{R: 138, G: 201, B: 38, A: 255}, // green
	{R: 255, G: 89, B: 148, A: 255}, // pink
}

// classColor returns the outline color for a class ID.
func classColor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// Renderer draws annotation overlays onto image copies.
type Renderer struct {
	// lineWidth is the outline thickness in pixels.
	lineWidth int

	// quality is the JPEG encoding quality for overlay output.
	quality int

	logger *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLineWidth sets the outline thickness in pixels.
func WithLineWidth(width int) RendererOption {
	return func(r *Renderer) {
		if width > 0 {
			r.lineWidth = width
		}
	}
}

// WithRendererLogger sets the logger for render progress.
func WithRendererLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer creates a Renderer with default settings.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		lineWidth: 3,
		quality:   90,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderAll writes an overlay image for every record with annotations.
// Background records are skipped; there is nothing to draw on them.
// Returns the number of overlays written.
func (r *Renderer) RenderAll(ctx context.Context, records []*model.DatasetRecord, dstDir string) (int, error) {
	if err := os.MkdirAll(dstDir, 0750); err != nil {
		return 0, fmt.Errorf("failed to create overlay directory: %w", err)
	}

	rendered := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return rendered, err
		}
		if len(rec.Annotations) == 0 {
			continue
		}

		dst := filepath.Join(dstDir, filepath.Base(rec.ImagePath))
		if err := r.RenderRecord(rec, dst); err != nil {
			return rendered, fmt.Errorf("failed to render %s: %w", rec.ID, err)
		}
		rendered++
	}

	r.logger.Info("overlays rendered", "count", rendered, "dst", dstDir)
	return rendered, nil
}

// RenderRecord draws the record's boxes onto a copy of its image and
// writes the result to dstPath as JPEG.
func (r *Renderer) RenderRecord(rec *model.DatasetRecord, dstPath string) error {
	f, err := os.Open(rec.ImagePath) //nolint:gosec // image paths come from dataset discovery
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	src, _, err := image.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close image: %w", closeErr)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	for _, ann := range rec.Annotations {
		r.drawBox(canvas, ann)
	}

	out, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) //nolint:gosec // overlay output path
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	if err := jpeg.Encode(out, canvas, &jpeg.Options{Quality: r.quality}); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return out.Close()
}

// drawBox draws one annotation outline, converting the normalized
// centre-form box to pixel coordinates.
func (r *Renderer) drawBox(canvas *image.RGBA, ann model.Annotation) {
	bounds := canvas.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())

	left, top, boxW, boxH := ann.Box.TopLeft()
	x0 := bounds.Min.X + int(left*width)
	y0 := bounds.Min.Y + int(top*height)
	x1 := bounds.Min.X + int((left+boxW)*width)
	y1 := bounds.Min.Y + int((top+boxH)*height)

	drawRect(canvas, x0, y0, x1, y1, r.lineWidth, classColor(ann.ClassID))
}

// drawRect draws a rectangle outline of the given thickness, clipped to
// the canvas bounds.
func drawRect(canvas *image.RGBA, x0, y0, x1, y1, thickness int, c color.RGBA) {
	for t := 0; t < thickness; t++ {
		// Horizontal edges
		for x := x0; x <= x1; x++ {
			setClipped(canvas, x, y0+t, c)
			setClipped(canvas, x, y1-t, c)
		}
		// Vertical edges
		for y := y0; y <= y1; y++ {
			setClipped(canvas, x0+t, y, c)
			setClipped(canvas, x1-t, y, c)
		}
	}
}

// setClipped sets a pixel if it falls inside the canvas bounds.
func setClipped(canvas *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(canvas.Bounds()) {
		canvas.SetRGBA(x, y, c)
	}
}
