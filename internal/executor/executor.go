package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oshokin/dist-check/internal/logger"
)

// Executor drives one distribution version on a host.
type Executor interface {
	// Version is the distribution version this executor installs.
	Version() string
	// TransferArtifacts stages the installer on the host.
	TransferArtifacts(ctx context.Context) error
	// Install runs the staged installer.
	Install(ctx context.Context) error
	// ExecuteCommand runs a tool command and returns what it printed.
	ExecuteCommand(ctx context.Context, command string, admin bool) (string, error)
	// Uninstall removes the installed distribution.
	Uninstall(ctx context.Context) error
	// CleanArtifacts deletes the staged installer.
	CleanArtifacts(ctx context.Context) error
}

// ErrNotTransferred is returned by Install before artifacts were staged.
var ErrNotTransferred = errors.New("artifacts were not transferred")

// Distribution is the Executor for a provider platform on a host.
type Distribution struct {
	platform     Platform
	host         Host
	version      string
	cli          string
	artifactsDir string
	timeout      time.Duration
	// staged holds the host paths of staged files, installer first.
	staged []string
}

// Options configure a Distribution.
type Options struct {
	// CLI is the tool command; its processes are stopped before uninstalling.
	CLI string
	// ArtifactsDir is the staging directory on the host.
	ArtifactsDir string
	// Timeout bounds every command; zero means no bound.
	Timeout time.Duration
}

// NewDistribution creates an executor for version on host.
func NewDistribution(platform Platform, host Host, version string, opts Options) *Distribution {
	return &Distribution{
		platform:     platform,
		host:         host,
		version:      version,
		cli:          opts.CLI,
		artifactsDir: opts.ArtifactsDir,
		timeout:      opts.Timeout,
	}
}

// Version returns the distribution version.
func (d *Distribution) Version() string {
	return d.version
}

// TransferArtifacts stages the installer files on the host.
func (d *Distribution) TransferArtifacts(ctx context.Context) error {
	logger.InfoKV(ctx, "Transferring artifacts", "provider", d.platform.Name, "dir", d.artifactsDir)

	staged, err := d.host.Transfer(ctx, d.platform.Name, d.version, d.artifactsDir)
	if err != nil {
		return fmt.Errorf("transfer artifacts: %w", err)
	}

	d.staged = staged

	return nil
}

// Install runs the platform install command against the staged installer.
func (d *Distribution) Install(ctx context.Context) error {
	if len(d.staged) == 0 {
		return ErrNotTransferred
	}

	command := d.platform.InstallCommand(d.staged[0], d.version)
	logger.InfoKV(ctx, "Installing distribution", "command", command)

	if _, err := d.run(ctx, command, true); err != nil {
		return fmt.Errorf("install %s: %w", d.version, err)
	}

	return nil
}

// ExecuteCommand runs a tool command with the configured timeout.
func (d *Distribution) ExecuteCommand(ctx context.Context, command string, admin bool) (string, error) {
	return d.run(ctx, command, admin)
}

// Uninstall stops running tool processes and runs the platform uninstall command.
func (d *Distribution) Uninstall(ctx context.Context) error {
	if err := d.host.Terminate(ctx, processNames(d.cli)); err != nil {
		logger.WarnKV(ctx, "Could not stop tool processes", "error", err)
	}

	installer := filepath.Join(d.artifactsDir, d.platform.InstallerName(d.version))
	if len(d.staged) > 0 {
		installer = d.staged[0]
	}

	command := d.platform.UninstallCommand(installer, d.version)
	logger.InfoKV(ctx, "Uninstalling distribution", "command", command)

	if _, err := d.run(ctx, command, true); err != nil {
		return fmt.Errorf("uninstall %s: %w", d.version, err)
	}

	return nil
}

// CleanArtifacts removes the staged files from the host.
func (d *Distribution) CleanArtifacts(ctx context.Context) error {
	files := d.staged
	if len(files) == 0 {
		files = []string{d.platform.InstallerName(d.version)}
	}

	if err := d.host.Clean(ctx, d.artifactsDir, files); err != nil {
		return fmt.Errorf("clean artifacts: %w", err)
	}

	d.staged = nil

	return nil
}

func (d *Distribution) run(ctx context.Context, command string, admin bool) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	return d.host.Run(ctx, command, admin)
}

// processNames lists executable names the tool may run under.
func processNames(cli string) []string {
	if cli == "" {
		return nil
	}

	return []string{cli, cli + ".exe", cli + ".bat"}
}
