package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/logger"
	"github.com/oshokin/dist-check/internal/service/agent"
	"github.com/oshokin/dist-check/internal/version"
)

var (
	// artifactsURL is the base URL installers are downloaded from.
	artifactsURL string
	// artifactsRoot confines every staging directory.
	artifactsRoot string
	// token is required from every caller when set.
	token string
	// logLevel takes precedence over the LOG_LEVEL environment variable.
	logLevel string

	// rootCmd represents the base command for running the agent.
	rootCmd = &cobra.Command{
		Use:   "dist-agent [listen-address]",
		Short: "Expose this machine to dist-check over gRPC",
		Long: `Starts the gRPC agent that runs installer and tool commands on this machine
on behalf of a remote dist-check.

The agent listens on ` + agent.DefaultListenAddress + ` unless an address is given
(e.g., 127.0.0.1:9090, 0.0.0.0:8080). Listening beyond loopback requires a token,
taken from --token or the ` + config.EnvAgentToken + ` environment variable; callers send
the same token. Installers are downloaded from the artifacts URL, which defaults
to the ` + config.EnvArtifactsURL + ` environment variable, and staged under the
artifacts root.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Configure(logLevel)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &agent.Options{
				ListenAddress: listenAddress,
				ArtifactsURL:  artifactsURL,
				ArtifactsRoot: artifactsRoot,
				Token:         token,
			}

			return agent.Run(ctx, options)
		},
	}
)

// Execute runs the dist-agent CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&artifactsURL, "artifacts-url", "a", "", "base URL of the artifact manifest")
	rootCmd.Flags().StringVarP(&artifactsRoot, "artifacts-root", "r", agent.DefaultArtifactsRoot,
		"directory staging directories are confined to")
	rootCmd.Flags().StringVarP(&token, "token", "t", "", "token callers must present; defaults to $"+config.EnvAgentToken)
	rootCmd.PersistentFlags().
		StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error); defaults to $"+logger.EnvLevel)
}
