// Package model defines the core data structures for yowrangle:
// dataset records, annotations, bounding boxes, class maps, quality
// findings, and the reports derived from a wrangle run.
package model
