// Package main provides the entry point for the yowrangle CLI.
//
// yowrangle is a dataset wrangling tool for YOLO-annotated object-detection
// image datasets. It loads subsets of images with their annotation files,
// audits them for quality and privacy problems, applies cleaning operations,
// and exports the result with a report.
//
// Usage:
//
//	yowrangle wrangle <data-root>
//	yowrangle check <data-root>
//
// See --help for all available options.
package main

// main is the entry point for yowrangle.
func main() {
	Execute()
}
