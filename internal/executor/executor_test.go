package executor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dist-check/internal/api/grpc/agent"
	"github.com/oshokin/dist-check/internal/config"
)

var errTestUninstall = errors.New("dpkg: package not installed")

// recordingHost captures what a Distribution asks the host to do.
type recordingHost struct {
	runs        []string
	admins      []bool
	deadlines   []bool
	staged      []string
	cleaned     []string
	terminated  []string
	runErr      error
	transferErr error
}

func (h *recordingHost) Run(ctx context.Context, command string, admin bool) (string, error) {
	_, hasDeadline := ctx.Deadline()

	h.runs = append(h.runs, command)
	h.admins = append(h.admins, admin)
	h.deadlines = append(h.deadlines, hasDeadline)

	return "ok\n", h.runErr
}

func (h *recordingHost) Transfer(_ context.Context, provider, version, dir string) ([]string, error) {
	if h.transferErr != nil {
		return nil, h.transferErr
	}

	platform, _ := PlatformFor(provider)
	h.staged = []string{filepath.Join(dir, platform.InstallerName(version))}

	return h.staged, nil
}

func (h *recordingHost) Clean(_ context.Context, _ string, files []string) error {
	h.cleaned = append(h.cleaned, files...)

	return nil
}

func (h *recordingHost) Terminate(_ context.Context, names []string) error {
	h.terminated = append(h.terminated, names...)

	return nil
}

func ubuntuDistribution(host Host) *Distribution {
	platform, _ := PlatformFor(config.ProviderUbuntu)

	return NewDistribution(platform, host, "1.2.5", Options{
		CLI:          "ballerina",
		ArtifactsDir: "artifacts",
		Timeout:      time.Minute,
	})
}

// TestDistribution_Lifecycle walks transfer, install, command, uninstall and clean.
func TestDistribution_Lifecycle(t *testing.T) {
	t.Parallel()

	host := new(recordingHost)
	d := ubuntuDistribution(host)
	ctx := context.Background()

	require.Equal(t, "1.2.5", d.Version())
	require.ErrorIs(t, d.Install(ctx), ErrNotTransferred)

	require.NoError(t, d.TransferArtifacts(ctx))
	require.NoError(t, d.Install(ctx))

	out, err := d.ExecuteCommand(ctx, "ballerina -v", false)
	require.NoError(t, err)
	require.Equal(t, "ok\n", out)

	require.NoError(t, d.Uninstall(ctx))
	require.NoError(t, d.CleanArtifacts(ctx))

	installer := filepath.Join("artifacts", "ballerina-linux-installer-x64-1.2.5.deb")
	require.Equal(t, []string{
		"dpkg -i " + installer,
		"ballerina -v",
		"dpkg -r ballerina-1.2.5",
	}, host.runs)
	require.Equal(t, []bool{true, false, true}, host.admins)
	require.Equal(t, []bool{true, true, true}, host.deadlines)
	require.Equal(t, []string{"ballerina", "ballerina.exe", "ballerina.bat"}, host.terminated)
	require.Equal(t, []string{installer}, host.cleaned)
}

// TestDistribution_Failures wraps host errors with the failing step.
func TestDistribution_Failures(t *testing.T) {
	t.Parallel()

	host := &recordingHost{runErr: errTestUninstall, transferErr: errTestUninstall}
	d := ubuntuDistribution(host)
	ctx := context.Background()

	err := d.TransferArtifacts(ctx)
	require.ErrorIs(t, err, errTestUninstall)
	require.Contains(t, err.Error(), "transfer artifacts")

	err = d.Uninstall(ctx)
	require.ErrorIs(t, err, errTestUninstall)
	require.Contains(t, err.Error(), "uninstall 1.2.5")

	// Without staged files the conventional installer name is cleaned.
	require.NoError(t, d.CleanArtifacts(ctx))
	require.Equal(t, []string{"ballerina-linux-installer-x64-1.2.5.deb"}, host.cleaned)
}

// TestDistribution_UninstallWithoutTransfer points the uninstaller into the artifacts dir
// when the installer was staged by an earlier process.
func TestDistribution_UninstallWithoutTransfer(t *testing.T) {
	t.Parallel()

	host := new(recordingHost)
	platform, err := PlatformFor(config.ProviderWindows)
	require.NoError(t, err)

	d := NewDistribution(platform, host, "1.2.5", Options{CLI: "ballerina", ArtifactsDir: "artifacts"})
	require.NoError(t, d.Uninstall(context.Background()))

	installer := filepath.Join("artifacts", "ballerina-windows-installer-x64-1.2.5.msi")
	require.Equal(t, []string{"msiexec /x " + installer + " /qn"}, host.runs)
	require.Equal(t, []bool{true}, host.admins)
}

// TestPlatforms pins installer names and commands per provider.
func TestPlatforms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		provider  string
		installer string
		install   string
		uninstall string
	}{
		{
			config.ProviderUbuntu, "ballerina-linux-installer-x64-1.2.5.deb",
			"dpkg -i /tmp/a.deb", "dpkg -r ballerina-1.2.5",
		},
		{
			config.ProviderCentOS, "ballerina-linux-installer-x64-1.2.5.rpm",
			"rpm -ivh /tmp/a.deb", "rpm -e ballerina-1.2.5",
		},
		{
			config.ProviderMacOS, "ballerina-macos-installer-x64-1.2.5.pkg",
			"installer -pkg /tmp/a.deb -target /", "rm -rf /Library/Ballerina /etc/paths.d/ballerina",
		},
		{
			config.ProviderWindows, "ballerina-windows-installer-x64-1.2.5.msi",
			"msiexec /i /tmp/a.deb /qn", "msiexec /x /tmp/a.deb /qn",
		},
	}

	for _, tc := range cases {
		p, err := PlatformFor(tc.provider)
		require.NoError(t, err)
		require.Equal(t, tc.installer, p.InstallerName("1.2.5"))
		require.Equal(t, tc.install, p.InstallCommand("/tmp/a.deb", "1.2.5"))
		require.Equal(t, tc.uninstall, p.UninstallCommand("/tmp/a.deb", "1.2.5"))
	}

	_, err := PlatformFor("solaris")
	require.ErrorIs(t, err, config.ErrUnknownProvider)

	p, _ := PlatformFor(config.ProviderWindows)
	require.Equal(t, `msiexec /i "C:\Test Runs\a.msi" /qn`, p.InstallCommand(`C:\Test Runs\a.msi`, "1.2.5"))

	require.Len(t, InstallerFiles("1.2.5"), len(config.Providers()))
}

// TestNew_SelectsHost returns a local host by default and an agent client when configured.
func TestNew_SelectsHost(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Provider: config.ProviderCentOS, CLI: "ballerina", ArtifactsDir: "artifacts"}

	d, closer, err := New(context.Background(), cfg, "1.2.5")
	require.NoError(t, err)
	require.IsType(t, &LocalHost{}, d.host)
	require.NoError(t, closer.Close())

	cfg.AgentAddress = "127.0.0.1:1"

	d, closer, err = New(context.Background(), cfg, "1.2.5")
	require.NoError(t, err)
	require.IsType(t, &agent.Client{}, d.host)
	require.NoError(t, closer.Close())

	cfg.Provider = "plan9"
	_, _, err = New(context.Background(), cfg, "1.2.5")
	require.ErrorIs(t, err, config.ErrUnknownProvider)
}
