package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/domain/dist"
	"github.com/oshokin/dist-check/internal/executor"
	"github.com/oshokin/dist-check/internal/logger"
	"github.com/oshokin/dist-check/internal/repository/report"
	"github.com/oshokin/dist-check/internal/scenario"
)

// Options are inputs accepted by the runner entry points.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Output receives the summary table; defaults to stdout.
	Output io.Writer
}

// executorFactory builds the executor of a version; replaced in tests.
type executorFactory func(ctx context.Context, cfg *config.Config, version string) (executor.Executor, io.Closer, error)

// runner holds everything a single verification run needs.
type runner struct {
	cfg         *config.Config
	out         io.Writer
	reports     report.Repository
	newExecutor executorFactory
	// marker is the run marker path, released on cleanup.
	marker string
}

// Run executes the verification scenario and is the public entry point for the CLI.
// The report is saved even when the scenario fails.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "dist-check")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	if r.marker, err = acquireMarker(ctx, r.cfg.ArtifactsDir); err != nil {
		return err
	}

	defer releaseMarker(ctx, r.marker)

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Verification run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Verification run completed")

	return nil
}

// Install stages the installer and installs the configured version without verifying it.
func Install(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "dist-check-install")

	return runStages(ctx, opts, func(exec executor.Executor) []func(context.Context) error {
		return []func(context.Context) error{exec.TransferArtifacts, exec.Install}
	})
}

// Uninstall removes the configured version and its staged installer.
func Uninstall(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "dist-check-uninstall")

	return runStages(ctx, opts, func(exec executor.Executor) []func(context.Context) error {
		return []func(context.Context) error{exec.Uninstall, exec.CleanArtifacts}
	})
}

func newRunner(opts *Options) (*runner, error) {
	if opts == nil {
		opts = &Options{}
	}

	// The run command is usually driven by environment variables alone.
	cfg, err := config.Load(opts.ConfigPath, true)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	return &runner{
		cfg:         cfg,
		out:         out,
		reports:     report.NewFileRepository(cfg.ReportsDir),
		newExecutor: newExecutor,
	}, nil
}

// Run drives the scenario, persists its report and prints the summary.
func (r *runner) Run(ctx context.Context) error {
	versions := Versions(r.cfg)

	actor, err := DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Could not detect actor", "error", err)
	}

	rep := dist.NewReport(r.cfg.Provider, versions, actor)

	sc, err := scenario.New(r.cfg.CLI, versions, rep)
	if err != nil {
		return err
	}

	exec, closer, err := r.newExecutor(ctx, r.cfg, versions.Current)
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}

	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Could not close host connection", "error", closeErr)
		}
	}()

	logger.InfoKV(ctx, "Starting verification",
		"provider", r.cfg.Provider,
		"version", versions.Current,
		"previous", versions.Previous,
	)

	runErr := sc.Run(ctx, exec)

	RenderReport(r.out, sc.Report())

	path, saveErr := r.reports.Save(context.WithoutCancel(ctx), sc.Report())
	if saveErr != nil {
		saveErr = fmt.Errorf("save report: %w", saveErr)
	} else {
		logger.InfoKV(ctx, "Report saved", "path", path, "outcome", sc.Report().Outcome)
	}

	return errors.Join(runErr, saveErr)
}

// Versions maps the settings onto the identifiers verified by the scenario.
func Versions(cfg *config.Config) dist.Versions {
	return dist.Versions{
		Current:             cfg.Versions.Current,
		Spec:                cfg.Versions.Spec,
		Tool:                cfg.Versions.Tool,
		Previous:            cfg.Versions.Previous,
		PreviousSpec:        cfg.Versions.PrevSpec,
		PreviousLatestPatch: cfg.Versions.LatestPatch,
		LatestTool:          cfg.Versions.LatestTool,
	}
}

func newExecutor(ctx context.Context, cfg *config.Config, version string) (executor.Executor, io.Closer, error) {
	return executor.New(ctx, cfg, version)
}

// runStages executes lifecycle stages in order and stops at the first failure.
func runStages(
	ctx context.Context,
	opts *Options,
	stages func(executor.Executor) []func(context.Context) error,
) error {
	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	exec, closer, err := r.newExecutor(ctx, r.cfg, r.cfg.Versions.Current)
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}

	defer func() {
		_ = closer.Close()
	}()

	for _, stage := range stages(exec) {
		if err = stage(ctx); err != nil {
			logger.ErrorKV(ctx, "Lifecycle step failed", "error", err)
			return err
		}
	}

	logger.InfoKV(ctx, "Lifecycle steps completed", "version", exec.Version())

	return nil
}
