package executor

import (
	"fmt"
	"strings"

	"github.com/oshokin/dist-check/internal/config"
)

// Platform describes how a provider installs and removes a distribution.
type Platform struct {
	// Name is the provider name.
	Name string
	// installerPattern names the installer file; %s is the version.
	installerPattern string
	// install is the install command; {installer} and {version} are substituted.
	install string
	// uninstall is the uninstall command; {installer} and {version} are substituted.
	uninstall string
}

// platforms are keyed by provider name.
//
//nolint:gochecknoglobals // Read-only lookup table.
var platforms = map[string]Platform{
	config.ProviderUbuntu: {
		Name:             config.ProviderUbuntu,
		installerPattern: "ballerina-linux-installer-x64-%s.deb",
		install:          "dpkg -i {installer}",
		uninstall:        "dpkg -r ballerina-{version}",
	},
	config.ProviderCentOS: {
		Name:             config.ProviderCentOS,
		installerPattern: "ballerina-linux-installer-x64-%s.rpm",
		install:          "rpm -ivh {installer}",
		uninstall:        "rpm -e ballerina-{version}",
	},
	config.ProviderMacOS: {
		Name:             config.ProviderMacOS,
		installerPattern: "ballerina-macos-installer-x64-%s.pkg",
		install:          "installer -pkg {installer} -target /",
		uninstall:        "rm -rf /Library/Ballerina /etc/paths.d/ballerina",
	},
	config.ProviderWindows: {
		Name:             config.ProviderWindows,
		installerPattern: "ballerina-windows-installer-x64-%s.msi",
		install:          "msiexec /i {installer} /qn",
		uninstall:        "msiexec /x {installer} /qn",
	},
}

// PlatformFor returns the platform of provider.
func PlatformFor(provider string) (Platform, error) {
	p, ok := platforms[provider]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q", config.ErrUnknownProvider, provider)
	}

	return p, nil
}

// InstallerName returns the installer file name for version.
func (p Platform) InstallerName(version string) string {
	return fmt.Sprintf(p.installerPattern, version)
}

// InstallCommand renders the install command for the staged installer.
func (p Platform) InstallCommand(installer, version string) string {
	return render(p.install, installer, version)
}

// UninstallCommand renders the uninstall command.
func (p Platform) UninstallCommand(installer, version string) string {
	return render(p.uninstall, installer, version)
}

// InstallerFiles maps every provider to its installer file for version.
func InstallerFiles(version string) map[string][]string {
	files := make(map[string][]string, len(platforms))
	for name, p := range platforms {
		files[name] = []string{p.InstallerName(version)}
	}

	return files
}

func render(template, installer, version string) string {
	return strings.NewReplacer(
		"{installer}", quote(installer),
		"{version}", version,
	).Replace(template)
}

// quote wraps paths with spaces in double quotes; both sh and cmd accept it.
func quote(path string) string {
	if strings.ContainsAny(path, " \t") {
		return `"` + path + `"`
	}

	return path
}
