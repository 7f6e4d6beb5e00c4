// Package visual renders bounding-box overlays onto copies of dataset images.
//
// Overlay images are the fastest way to eyeball whether a wrangling pass did
// the right thing: one glance at a rendered frame shows a mis-filtered box
// where a table of numbers would not. Originals are never modified; overlays
// are written to a separate directory.
package visual
