package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/executor"
)

// TestAgent_StagesAndCleansArtifacts drives a Distribution through a real agent:
// installers are packaged, published over HTTP, staged by the agent and removed again.
func TestAgent_StagesAndCleansArtifacts(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}

	artifactsURL, installers := publishInstallers(t)
	address, root := startAgent(t, artifactsURL)
	stagingDir := filepath.Join(root, "staging")

	cfg := &config.Config{
		Provider:     config.ProviderCentOS,
		AgentAddress: address,
		AgentToken:   testToken,
		ArtifactsDir: "staging",
		Timeout:      10 * time.Second,
		Versions: config.Versions{
			Current:     testVersion,
			Spec:        "2020R1",
			Tool:        "0.8.8",
			LatestTool:  "0.8.10",
			LatestPatch: "1.2.13",
		},
	}
	require.NoError(t, config.Validate(cfg))

	ctx := context.Background()

	exec, closer, err := executor.New(ctx, cfg, testVersion)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = closer.Close()
	})

	require.NoError(t, exec.TransferArtifacts(ctx))

	installer := "ballerina-linux-installer-x64-" + testVersion + ".rpm"
	contents, err := os.ReadFile(filepath.Join(stagingDir, installer))
	require.NoError(t, err)
	require.Equal(t, installers[installer], contents)

	out, err := exec.ExecuteCommand(ctx, "ls "+stagingDir, false)
	require.NoError(t, err)
	require.Equal(t, installer+"\n", out)

	_, err = exec.ExecuteCommand(ctx, "exit 3", false)
	require.Error(t, err)

	require.NoError(t, exec.CleanArtifacts(ctx))
	require.NoDirExists(t, stagingDir)
}
