package dist

import (
	"bufio"
	"fmt"
	"strings"
)

// VersionOutput renders the banner printed by `<cli> -v`.
func VersionOutput(version, specVersion, toolVersion string) string {
	toolText := "Update Tool"
	if IsOldTool(toolVersion) {
		toolText = "Ballerina tool"
	}

	label := "Ballerina"
	if !strings.Contains(version, SwanLakeKeyword) && IsSupportedRelease(version) {
		label = "jBallerina"
	}

	return fmt.Sprintf("%s %s\nLanguage specification %s\n%s %s\n",
		label, version, specVersion, toolText, toolVersion)
}

// UpdateNotice renders the banner printed before the version when a newer patch exists.
func UpdateNotice(cli, patch string) string {
	return fmt.Sprintf("A new version of Ballerina is available: %s\n"+
		"Use '%s dist pull %s' to download and use the distribution\n\n", patch, cli, patch)
}

// DistList is the parsed output of `dist list`.
type DistList struct {
	// Local are distributions installed on the machine.
	Local []string
	// Remote are distributions offered for download.
	Remote []string
}

// ParseDistList extracts distribution identifiers from `dist list` output.
// Entries look like "* jballerina-1.2.0" or "  1.1.0". Entries follow a
// "...locally:" or "...remotely:" heading; entries before any heading count
// as local. Prose lines are skipped.
func ParseDistList(output string) DistList {
	var (
		list   DistList
		remote bool
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasSuffix(line, ":") {
			remote = strings.Contains(strings.ToLower(line), "remote")
			continue
		}

		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line == "" || strings.Contains(line, " ") {
			continue
		}

		if remote {
			list.Remote = append(list.Remote, line)
		} else {
			list.Local = append(list.Local, line)
		}
	}

	return list
}

// HasLocal reports whether version is installed, with or without the jballerina- prefix.
func (l DistList) HasLocal(version string) bool {
	return containsDistribution(l.Local, version)
}

// Has reports whether version is installed or offered remotely.
func (l DistList) Has(version string) bool {
	return containsDistribution(l.Local, version) || containsDistribution(l.Remote, version)
}

func containsDistribution(ids []string, version string) bool {
	for _, id := range ids {
		if id == version || strings.TrimPrefix(id, distributionPrefix) == version {
			return true
		}
	}

	return false
}
