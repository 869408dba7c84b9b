package dist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SwanLakeKeyword marks preview builds that are always labelled "Ballerina".
const SwanLakeKeyword = "swan-lake"

// distributionPrefix is prepended to 1.x distribution names by old tools.
const distributionPrefix = "jballerina-"

// ErrMissingVersion is returned when a required identifier is empty.
var ErrMissingVersion = errors.New("version identifier is empty")

// firstUnifiedTool is the first tool release that prints "Update Tool"
// and accepts bare distribution versions.
//
//nolint:gochecknoglobals // Parsed once, never mutated.
var firstUnifiedTool = semver.MustParse("0.8.0")

// Versions are the identifiers a scenario verifies. They never change during a run.
type Versions struct {
	// Current is the distribution version that gets installed.
	Current string `yaml:"current"`
	// Spec is the language specification of Current.
	Spec string `yaml:"spec"`
	// Tool is the update tool version bundled with Current.
	Tool string `yaml:"tool"`
	// Previous is an older release pulled and updated by the scenario.
	Previous string `yaml:"previous"`
	// PreviousSpec is the language specification of Previous.
	PreviousSpec string `yaml:"previous_spec"`
	// PreviousLatestPatch is the newest patch of Previous's release line.
	PreviousLatestPatch string `yaml:"previous_latest_patch"`
	// LatestTool is the tool version `update` must move to.
	LatestTool string `yaml:"latest_tool"`
}

// Validate reports the first empty identifier.
func (v Versions) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"current", v.Current},
		{"spec", v.Spec},
		{"tool", v.Tool},
		{"previous", v.Previous},
		{"previous spec", v.PreviousSpec},
		{"previous latest patch", v.PreviousLatestPatch},
		{"latest tool", v.LatestTool},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s: %w", f.name, ErrMissingVersion)
		}
	}

	return nil
}

// IsSupportedRelease reports whether version is a 1.x release of the jBallerina line.
func IsSupportedRelease(version string) bool {
	if strings.Contains(version, SwanLakeKeyword) {
		return false
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	return v.Major() == 1 && v.Prerelease() == ""
}

// IsOldTool reports whether toolVersion predates the unified update tool.
// Unparseable versions are treated as current tools.
func IsOldTool(toolVersion string) bool {
	v, err := semver.NewVersion(toolVersion)
	if err != nil {
		return false
	}

	return v.LessThan(firstUnifiedTool)
}

// DistributionName returns the identifier accepted by `dist pull|use|remove`
// for version when driven by the given tool release.
func DistributionName(toolVersion, version string) string {
	if IsOldTool(toolVersion) && IsSupportedRelease(version) {
		return distributionPrefix + version
	}

	return version
}

// NewerPatch reports whether candidate is a strictly newer release than version.
// Non-semver identifiers never compare as newer.
func NewerPatch(version, candidate string) bool {
	current, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	next, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}

	return next.GreaterThan(current)
}
