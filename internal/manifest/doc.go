// Package manifest parses poetry-style pyproject.toml manifests.
//
// Dataset mining rigs in the field ship their Python tooling alongside the
// images they capture, and the pyproject.toml manifest is the only reliable
// record of which annotation and inference stack produced a drop. This
// package reads those manifests so yowrangle can report the toolchain a
// dataset came from and validate its declared version constraints.
//
// Only the subset of poetry metadata that appears in real manifests is
// supported: package identity, runtime and development dependencies (string
// constraints, local wheel paths, and version tables), and the build-system
// declaration.
package manifest
