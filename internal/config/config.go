package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of a verification run.
type Config struct {
	// Provider selects the installer flavour (ubuntu, centos, macos, windows).
	Provider string `yaml:"provider"`
	// CLI is the command of the distribution tool under test.
	CLI string `yaml:"cli"`
	// ArtifactsURL is the base URL hosting the artifact manifest and installers.
	ArtifactsURL string `yaml:"artifacts_url"`
	// ArtifactsDir is where installers are staged before installation.
	ArtifactsDir string `yaml:"artifacts_dir"`
	// AgentAddress points to a dist-agent; empty means run on this machine.
	AgentAddress string `yaml:"agent_addr"`
	// AgentToken is sent to the agent with every call.
	AgentToken string `yaml:"agent_token,omitempty"`
	// ReportsDir is where run reports are written.
	ReportsDir string `yaml:"reports_dir"`
	// Timeout bounds every single command run against the tool.
	Timeout time.Duration `yaml:"timeout"`
	// Versions are the identifiers the scenario verifies.
	Versions Versions `yaml:"versions"`
}

// Versions is the YAML shape of the version identifiers.
type Versions struct {
	Current     string `yaml:"current"`
	Spec        string `yaml:"spec"`
	Tool        string `yaml:"tool"`
	LatestTool  string `yaml:"latest_tool"`
	Previous    string `yaml:"previous"`
	PrevSpec    string `yaml:"previous_spec"`
	LatestPatch string `yaml:"latest_patch"`
}

// Supported providers.
const (
	ProviderUbuntu  = "ubuntu"
	ProviderCentOS  = "centos"
	ProviderMacOS   = "macos"
	ProviderWindows = "windows"
)

const (
	// DefaultConfigFilename is the default filename for run settings.
	DefaultConfigFilename = "dist-check.yaml"

	// DefaultCLI is the tool command exercised by the scenario.
	DefaultCLI = "ballerina"

	// DefaultArtifactsDir is the default staging directory for installers.
	DefaultArtifactsDir = "artifacts"

	// DefaultReportsDir is the default directory for run reports.
	DefaultReportsDir = "reports"

	// DefaultTimeout bounds a single tool command. Pulls download whole distributions.
	DefaultTimeout = 10 * time.Minute

	// DefaultPreviousVersion is the release the scenario pulls and updates.
	DefaultPreviousVersion = "1.2.0"

	// DefaultPreviousSpecVersion is the language specification of DefaultPreviousVersion.
	DefaultPreviousSpecVersion = "2020R1"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Environment variables read by ApplyEnv.
const (
	EnvProvider     = "PROVIDER"
	EnvArtifactsURL = "ARTIFACTS_URL"
	EnvAgentAddress = "AGENT_ADDR"
	EnvAgentToken   = "AGENT_TOKEN"
	EnvVersion      = "BALLERINA_VERSION"
	EnvSpecVersion  = "SPEC_VERSION"
	EnvToolVersion  = "TOOL_VERSION"
	EnvLatestTool   = "LATEST_TOOL_VERSION"
	EnvLatestPatch  = "LATEST_PATCH_VERSION"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrUnknownProvider is returned for providers without an installer flavour.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingVersion is returned when a required version identifier is empty.
	ErrMissingVersion = errors.New("version identifier must be provided")
)

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderUbuntu, ProviderCentOS, ProviderMacOS, ProviderWindows}
}

// Load reads configuration from path, overlays the process environment and validates it.
// A missing file is tolerated when allowMissing is set, so runs can be driven by
// environment variables alone.
func Load(path string, allowMissing bool) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case allowMissing && errors.Is(err, os.ErrNotExist):
		// Environment only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	ApplyEnv(&cfg, os.LookupEnv)

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides cfg with every non-empty variable returned by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	targets := map[string]*string{
		EnvProvider:     &cfg.Provider,
		EnvArtifactsURL: &cfg.ArtifactsURL,
		EnvAgentAddress: &cfg.AgentAddress,
		EnvAgentToken:   &cfg.AgentToken,
		EnvVersion:      &cfg.Versions.Current,
		EnvSpecVersion:  &cfg.Versions.Spec,
		EnvToolVersion:  &cfg.Versions.Tool,
		EnvLatestTool:   &cfg.Versions.LatestTool,
		EnvLatestPatch:  &cfg.Versions.LatestPatch,
	}

	for name, target := range targets {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
}

// Validate checks required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if !slices.Contains(Providers(), cfg.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	required := []struct {
		name  string
		value string
	}{
		{EnvVersion, cfg.Versions.Current},
		{EnvSpecVersion, cfg.Versions.Spec},
		{EnvToolVersion, cfg.Versions.Tool},
		{EnvLatestTool, cfg.Versions.LatestTool},
		{EnvLatestPatch, cfg.Versions.LatestPatch},
	}

	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingVersion, field.name)
		}
	}

	setDefaults(cfg)

	if cfg.ArtifactsURL != "" {
		if _, err := url.ParseRequestURI(cfg.ArtifactsURL); err != nil {
			return fmt.Errorf("invalid artifacts URL: %w", err)
		}
	}

	if cfg.AgentAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.AgentAddress); err != nil {
			return fmt.Errorf("invalid agent address: %w", err)
		}
	}

	return nil
}

func setDefaults(cfg *Config) {
	if cfg.CLI == "" {
		cfg.CLI = DefaultCLI
	}

	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = DefaultArtifactsDir
	}

	if cfg.ReportsDir == "" {
		cfg.ReportsDir = DefaultReportsDir
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Versions.Previous == "" {
		cfg.Versions.Previous = DefaultPreviousVersion
	}

	if cfg.Versions.PrevSpec == "" {
		cfg.Versions.PrevSpec = DefaultPreviousSpecVersion
	}
}
