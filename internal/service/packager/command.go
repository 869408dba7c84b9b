package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oshokin/dist-check/internal/artifact"
	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/executor"
	"github.com/oshokin/dist-check/internal/logger"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// Dir holds the installers; defaults to the working directory.
	Dir string
	// Version is the distribution version the installers were built for.
	Version string
	// UploadURL is where the artifacts will be published. It becomes the
	// artifacts URL of the written configuration.
	UploadURL string
	// WriteConfig saves a dist-check configuration next to the manifest.
	WriteConfig bool
	// Provider of the written configuration; defaults to the first packaged provider.
	Provider string
	// Versions of the written configuration. Current is always Version.
	Versions config.Versions
}

// errVersionRequired indicates that no distribution version was given.
var errVersionRequired = errors.New("distribution version must be provided")

// Run writes the manifest and returns its path.
func Run(ctx context.Context, opts *Options) (string, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "dist-packager")

	if opts == nil || strings.TrimSpace(opts.Version) == "" {
		return "", errVersionRequired
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	version := strings.TrimSpace(opts.Version)

	logger.InfoKV(ctx, "Preparing artifact manifest", "dir", dir, "version", version)

	manifest, err := artifact.Build(dir, version, executor.InstallerFiles(version))
	if err != nil {
		return "", fmt.Errorf("build manifest: %w", err)
	}

	path, err := artifact.Write(dir, manifest)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Saved artifact manifest", "path", path, "providers", len(manifest.Installers))

	if opts.WriteConfig {
		if err = writeConfig(ctx, dir, manifest, opts); err != nil {
			return "", err
		}
	}

	printNextSteps(ctx, manifest, opts.UploadURL)

	return path, nil
}

// writeConfig saves the configuration a run of the packaged version needs.
// An existing configuration is left untouched.
func writeConfig(ctx context.Context, dir string, manifest *artifact.Manifest, opts *Options) error {
	path := filepath.Join(dir, config.DefaultConfigFilename)

	if _, err := os.Stat(path); err == nil {
		logger.WarnKV(ctx, "Configuration already exists, keeping it", "path", path)

		return nil
	}

	provider := opts.Provider
	if provider == "" {
		provider = sortedProviders(manifest)[0]
	}

	versions := opts.Versions
	versions.Current = manifest.Version

	cfg := &config.Config{
		Provider:     provider,
		ArtifactsURL: opts.UploadURL,
		Versions:     versions,
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}

	logger.InfoKV(ctx, "Saved configuration", "path", path, "provider", cfg.Provider)

	return nil
}

func sortedProviders(manifest *artifact.Manifest) []string {
	providers := make([]string, 0, len(manifest.Installers))
	for provider := range manifest.Installers {
		providers = append(providers, provider)
	}

	sort.Strings(providers)

	return providers
}

// printNextSteps logs human-readable guidance for publishing the artifacts.
func printNextSteps(ctx context.Context, manifest *artifact.Manifest, uploadURL string) {
	files := make([]string, 0, len(manifest.Files)+1)
	for name := range manifest.Files {
		files = append(files, name)
	}

	files = append(files, artifact.ManifestFilename)
	sort.Strings(files)

	providers := sortedProviders(manifest)

	target := uploadURL
	if target == "" {
		target = "the artifact server"
	}

	var builder strings.Builder

	builder.WriteString("You should upload the following files to ")
	builder.WriteString(target)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))
	builder.WriteString("\n\nThen run on a machine of one of the providers (")
	builder.WriteString(strings.Join(providers, ", "))
	builder.WriteString("): PROVIDER=<provider> ARTIFACTS_URL=<url> dist-check run")

	logger.Info(ctx, builder.String())
}
