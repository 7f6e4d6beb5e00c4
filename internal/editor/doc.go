// Package editor launches an external annotation editor over dataset records.
//
// Quality findings frequently need a human decision: a flagged box is either
// a bad label or a hard positive. The editor launcher hands the affected
// images to whatever labelling GUI the operator has installed (OpenLabeling
// or similar) and waits for the session to finish, so a review pass slots
// into the middle of a wrangling run.
package editor
