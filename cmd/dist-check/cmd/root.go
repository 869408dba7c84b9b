package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/logger"
	"github.com/oshokin/dist-check/internal/service/packager"
	"github.com/oshokin/dist-check/internal/service/runner"
	"github.com/oshokin/dist-check/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel takes precedence over the LOG_LEVEL environment variable.
	logLevel string
	// packageVersion is the distribution version of the installers being packaged.
	packageVersion string
	// uploadURL is where packaged artifacts will be published.
	uploadURL string
	// writeConfig saves a configuration next to the manifest.
	writeConfig bool
	// packageProvider is the provider of the written configuration.
	packageProvider string
	// packageVersions are the versions of the written configuration.
	packageVersions config.Versions

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "dist-check",
		Short: "Verify installers and dist commands of a Ballerina distribution",
		Long: `Installs a distribution build, drives its dist and update commands,
checks the version banner after every change and removes everything again.

Settings come from the configuration file and are overridden by PROVIDER,
ARTIFACTS_URL, AGENT_ADDR, AGENT_TOKEN, BALLERINA_VERSION, SPEC_VERSION, TOOL_VERSION,
LATEST_TOOL_VERSION and LATEST_PATCH_VERSION.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Configure(logLevel)
		},
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Install, verify, uninstall and clean up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := notifyContext()
			defer stop()

			return runner.Run(ctx, &runner.Options{ConfigPath: configPath, Output: cmd.OutOrStdout()})
		},
	}

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Stage the installer and install the configured version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := notifyContext()
			defer stop()

			return runner.Install(ctx, &runner.Options{ConfigPath: configPath})
		},
	}

	uninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the configured version and remove its installer",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := notifyContext()
			defer stop()

			return runner.Uninstall(ctx, &runner.Options{ConfigPath: configPath})
		},
	}

	packageCmd = &cobra.Command{
		Use:   "package [installers-dir]",
		Short: "Write the artifact manifest for a directory of installers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := notifyContext()
			defer stop()

			options := &packager.Options{
				Version:     packageVersion,
				UploadURL:   uploadURL,
				WriteConfig: writeConfig,
				Provider:    packageProvider,
				Versions:    packageVersions,
			}
			if len(args) > 0 {
				options.Dir = args[0]
			}

			_, err := packager.Run(ctx, options)

			return err
		},
	}

	reportCmd = &cobra.Command{
		Use:   "report [reports-dir]",
		Short: "Show the latest saved run report",
		Long: `Renders the newest report saved in the reports directory, which defaults to
"` + config.DefaultReportsDir + `". Exits with an error when that run failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &runner.ReportOptions{Output: cmd.OutOrStdout()}
			if len(args) > 0 {
				options.Dir = args[0]
			}

			return runner.ShowLatest(cmd.Context(), options)
		},
	}
)

// Execute runs the dist-check CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error); defaults to $"+logger.EnvLevel)

	packageCmd.Flags().StringVarP(&packageVersion, "version", "v", "", "distribution version of the installers")
	packageCmd.Flags().StringVarP(&uploadURL, "upload-url", "u", "", "where the artifacts will be published")
	_ = packageCmd.MarkFlagRequired("version")
	packageCmd.Flags().BoolVarP(&writeConfig, "write-config", "w", false, "also write "+config.DefaultConfigFilename)
	packageCmd.Flags().StringVarP(&packageProvider, "provider", "p", "", "provider of the written configuration")
	packageCmd.Flags().StringVar(&packageVersions.Spec, "spec-version", "", "language specification version")
	packageCmd.Flags().StringVar(&packageVersions.Tool, "tool-version", "", "bundled update tool version")
	packageCmd.Flags().StringVar(&packageVersions.LatestTool, "latest-tool-version", "", "latest published update tool version")
	packageCmd.Flags().StringVar(&packageVersions.LatestPatch, "latest-patch-version", "", "latest patch of the previous release")

	rootCmd.AddCommand(runCmd, installCmd, uninstallCmd, packageCmd, reportCmd)
}
