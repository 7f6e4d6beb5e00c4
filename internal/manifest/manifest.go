package manifest

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
)

// Dependency is a single declared package dependency.
type Dependency struct {
	// Name is the package name as declared in the manifest.
	Name string `json:"name"`

	// Constraint is the declared version range ("^1.3", "~4.5.4", "0.2.1").
	// Empty for local path dependencies.
	Constraint string `json:"constraint,omitempty"`

	// Path is the local wheel or directory path for in-repo dependencies.
	Path string `json:"path,omitempty"`

	// constraints is the parsed form of Constraint, nil for local deps.
	constraints *semver.Constraints
}

// IsLocal reports whether the dependency is a bundled local artifact
// rather than a registry package.
func (d Dependency) IsLocal() bool {
	return d.Path != ""
}

// Satisfies reports whether the given version satisfies the declared
// constraint. Local dependencies satisfy any version.
func (d Dependency) Satisfies(version string) (bool, error) {
	if d.constraints == nil {
		return true, nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return d.constraints.Check(v), nil
}

// Manifest is the parsed package manifest.
type Manifest struct {
	// Name is the declared package name.
	Name string `json:"name"`

	// Version is the declared package version.
	Version string `json:"version"`

	// Description is the package description, if any.
	Description string `json:"description,omitempty"`

	// License is the declared license identifier.
	License string `json:"license,omitempty"`

	// Authors lists the declared authors.
	Authors []string `json:"authors,omitempty"`

	// PythonRequirement is the interpreter constraint. Poetry declares the
	// interpreter inside the dependency table, but it is not a package.
	PythonRequirement string `json:"python_requirement,omitempty"`

	// Dependencies are the runtime dependencies, sorted by name.
	Dependencies []Dependency `json:"dependencies"`

	// DevDependencies are the development-only dependencies, sorted by name.
	DevDependencies []Dependency `json:"dev_dependencies"`

	// BuildBackend is the [build-system] backend, if declared.
	BuildBackend string `json:"build_backend,omitempty"`

	// BuildRequires are the [build-system] requirements, if declared.
	BuildRequires []string `json:"build_requires,omitempty"`
}

// Dependency returns the runtime dependency with the given name, or nil.
func (m *Manifest) Dependency(name string) *Dependency {
	for i := range m.Dependencies {
		if m.Dependencies[i].Name == name {
			return &m.Dependencies[i]
		}
	}
	return nil
}

// pyproject mirrors the TOML layout of a poetry manifest. Dependency
// values are mixed: plain constraint strings or tables with path/version
// keys, so they decode into interface{} and are normalized afterwards.
type pyproject struct {
	Tool struct {
		Poetry struct {
			Name            string                 `toml:"name"`
			Version         string                 `toml:"version"`
			Description     string                 `toml:"description"`
			License         string                 `toml:"license"`
			Authors         []string               `toml:"authors"`
			Dependencies    map[string]interface{} `toml:"dependencies"`
			DevDependencies map[string]interface{} `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
	BuildSystem struct {
		Requires     []string `toml:"requires"`
		BuildBackend string   `toml:"build-backend"`
	} `toml:"build-system"`
}

// Load reads and parses a pyproject.toml manifest from disk.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // manifest path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// Parse parses a pyproject.toml manifest.
func Parse(r io.Reader) (*Manifest, error) {
	var raw pyproject
	dec := toml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}

	poetry := raw.Tool.Poetry
	if poetry.Name == "" && poetry.Version == "" && len(poetry.Dependencies) == 0 {
		return nil, ErrNoPoetryTable
	}

	m := &Manifest{
		Name:          poetry.Name,
		Version:       poetry.Version,
		Description:   poetry.Description,
		License:       poetry.License,
		Authors:       poetry.Authors,
		BuildBackend:  raw.BuildSystem.BuildBackend,
		BuildRequires: raw.BuildSystem.Requires,
	}

	deps, pythonReq, err := normalizeDependencies(poetry.Dependencies)
	if err != nil {
		return nil, err
	}
	m.Dependencies = deps
	m.PythonRequirement = pythonReq

	devDeps, _, err := normalizeDependencies(poetry.DevDependencies)
	if err != nil {
		return nil, err
	}
	m.DevDependencies = devDeps

	return m, nil
}

// normalizeDependencies converts the mixed-type dependency table into
// sorted Dependency values. The "python" entry is the interpreter
// requirement and is returned separately, not as a dependency.
func normalizeDependencies(table map[string]interface{}) ([]Dependency, string, error) {
	if len(table) == 0 {
		return nil, "", nil
	}

	var pythonReq string
	seen := make(map[string]bool, len(table))
	deps := make([]Dependency, 0, len(table))

	for name, value := range table {
		key := strings.ToLower(name)
		if seen[key] {
			return nil, "", fmt.Errorf("%w: %s", ErrDuplicateDependency, name)
		}
		seen[key] = true

		dep, err := normalizeDependency(name, value)
		if err != nil {
			return nil, "", err
		}

		if key == "python" {
			pythonReq = dep.Constraint
			continue
		}
		deps = append(deps, dep)
	}

	sort.Slice(deps, func(i, j int) bool {
		return deps[i].Name < deps[j].Name
	})

	return deps, pythonReq, nil
}

// normalizeDependency converts a single dependency value. Poetry allows a
// bare constraint string or a table carrying path, version, and marker keys.
func normalizeDependency(name string, value interface{}) (Dependency, error) {
	dep := Dependency{Name: name}

	switch v := value.(type) {
	case string:
		dep.Constraint = v
	case map[string]interface{}:
		if path, ok := v["path"].(string); ok {
			dep.Path = path
		}
		if constraint, ok := v["version"].(string); ok {
			dep.Constraint = constraint
		}
		if dep.Path == "" && dep.Constraint == "" {
			return Dependency{}, fmt.Errorf("%w: dependency %q has neither version nor path", ErrInvalidConstraint, name)
		}
	default:
		return Dependency{}, fmt.Errorf("%w: dependency %q has unsupported value type %T", ErrInvalidConstraint, name, value)
	}

	if dep.Constraint != "" {
		// Poetry wildcard means any version. Masterminds spells it "*" too,
		// but parse it explicitly so the error path stays clean.
		constraints, err := semver.NewConstraint(dep.Constraint)
		if err != nil {
			return Dependency{}, fmt.Errorf("%w: dependency %q constraint %q: %v",
				ErrInvalidConstraint, name, dep.Constraint, err)
		}
		dep.constraints = constraints
	}

	return dep, nil
}

// Validate checks the parsed manifest for internal consistency:
// every constraint parses, no package is declared both as runtime and
// development dependency, and the build backend is resolvable from the
// declared build requirements.
func (m *Manifest) Validate() error {
	runtime := make(map[string]bool, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		runtime[strings.ToLower(dep.Name)] = true
	}
	for _, dep := range m.DevDependencies {
		if runtime[strings.ToLower(dep.Name)] {
			return fmt.Errorf("%w: %s appears in both runtime and dev dependencies",
				ErrDuplicateDependency, dep.Name)
		}
	}

	if m.BuildBackend != "" && !backendResolvable(m.BuildBackend, m.BuildRequires) {
		return fmt.Errorf("build backend %q is not provided by build requirements %v",
			m.BuildBackend, m.BuildRequires)
	}

	return nil
}

// backendResolvable reports whether the backend module is provided by one
// of the declared build requirements. Requirements carry constraint
// suffixes ("poetry-core>=1.0.0"), so match on the package prefix.
func backendResolvable(backend string, requires []string) bool {
	// "poetry.core.masonry.api" is provided by "poetry-core".
	backendPkg := strings.ReplaceAll(strings.SplitN(backend, ".masonry", 2)[0], ".", "-")
	for _, req := range requires {
		pkg := strings.ToLower(strings.FieldsFunc(req, func(r rune) bool {
			return r == '>' || r == '<' || r == '=' || r == '~' || r == '^' || r == ' '
		})[0])
		if pkg == strings.ToLower(backendPkg) || strings.HasPrefix(strings.ToLower(backendPkg), pkg) {
			return true
		}
	}
	return false
}
