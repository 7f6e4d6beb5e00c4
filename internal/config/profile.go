package config

// SubsetProfile holds subset-specific wrangling settings.
// Camera rigs differ between capture campaigns, so crop geometry and
// class handling are configured per subset rather than globally.
type SubsetProfile struct {
	// Coefficient overrides the global confidence coefficient for this subset.
	// If zero, the global coefficient is used.
	Coefficient float64 `yaml:"coefficient,omitempty"`

	// Horizon is the normalized y coordinate above which boxes are dropped.
	// Boxes whose bottom edge sits above the horizon are sky or signage,
	// not road surface. Zero disables the filter.
	Horizon float64 `yaml:"horizon,omitempty"`

	// WedgeApex and WedgeGradient define the top-corner wedge crop.
	// The wedge apex sits at the given normalized y above the frame
	// centre (negative values place it above the image top); the sides
	// descend toward the left and right edges at the gradient, and boxes
	// centred inside either top corner wedge are overhead clutter.
	// A zero gradient disables the filter.
	WedgeApex     float64 `yaml:"wedgeApex,omitempty"`
	WedgeGradient float64 `yaml:"wedgeGradient,omitempty"`

	// RemoveClasses lists class IDs to strip from this subset.
	RemoveClasses []int `yaml:"removeClasses,omitempty"`

	// RemapClasses maps old class IDs to new ones for this subset.
	RemapClasses map[int]int `yaml:"remapClasses,omitempty"`

	// SampleCaps limits the number of records kept per class ID.
	// A cap of zero or a missing entry means no cap.
	SampleCaps map[int]int `yaml:"sampleCaps,omitempty"`
}

// File represents the structure of the .yowrangle configuration file.
type File struct {
	// Subsets maps subset names to their specific profiles.
	Subsets map[string]SubsetProfile `yaml:"subsets,omitempty"`

	// Defaults contains the default profile applied to all subsets
	// unless overridden in the subset-specific profile.
	Defaults SubsetProfile `yaml:"defaults,omitempty"`
}

// GetSubsetProfile returns the profile for a specific subset.
// It merges the subset-specific profile with defaults.
func (cf *File) GetSubsetProfile(subset string) SubsetProfile {
	result := cf.Defaults

	if profile, ok := cf.Subsets[subset]; ok {
		if profile.Coefficient != 0 {
			result.Coefficient = profile.Coefficient
		}
		if profile.Horizon != 0 {
			result.Horizon = profile.Horizon
		}
		if profile.WedgeGradient != 0 {
			result.WedgeGradient = profile.WedgeGradient
			result.WedgeApex = profile.WedgeApex
		}
		if len(profile.RemoveClasses) > 0 {
			result.RemoveClasses = profile.RemoveClasses
		}
		if len(profile.RemapClasses) > 0 {
			if result.RemapClasses == nil {
				result.RemapClasses = make(map[int]int)
			}
			for from, to := range profile.RemapClasses {
				result.RemapClasses[from] = to
			}
		}
		if len(profile.SampleCaps) > 0 {
			if result.SampleCaps == nil {
				result.SampleCaps = make(map[int]int)
			}
			for id, limit := range profile.SampleCaps {
				result.SampleCaps[id] = limit
			}
		}
	}

	return result
}
