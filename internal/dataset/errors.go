package dataset

import "errors"

// Dataset errors.
var (
	// ErrNotADirectory is returned when a dataset path exists but is not
	// a directory.
	ErrNotADirectory = errors.New("dataset path is not a directory")

	// ErrNoSubsets is returned when a dataset root contains no subset
	// folders.
	ErrNoSubsets = errors.New("dataset root contains no subset folders")

	// ErrNoImages is returned when a subset folder contains no images.
	ErrNoImages = errors.New("subset contains no images")

	// ErrDestinationExists is returned when an export destination already
	// exists. Exports never overwrite; the caller must pick a fresh path.
	ErrDestinationExists = errors.New("export destination already exists")
)
