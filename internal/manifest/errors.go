package manifest

import "errors"

var (
	// ErrNoPoetryTable is returned when the manifest lacks a [tool.poetry] table.
	ErrNoPoetryTable = errors.New("manifest has no [tool.poetry] table")

	// ErrDuplicateDependency is returned when a package is declared twice.
	ErrDuplicateDependency = errors.New("duplicate dependency declaration")

	// ErrInvalidConstraint is returned when a version constraint cannot be parsed.
	ErrInvalidConstraint = errors.New("invalid version constraint")
)
