package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/dist-check/internal/domain/dist"
	"github.com/oshokin/dist-check/internal/executor"
	"github.com/oshokin/dist-check/internal/logger"
)

// ErrCheckFailed is returned when the tool output does not match expectations.
var ErrCheckFailed = errors.New("check failed")

// Scenario verifies one distribution version.
type Scenario struct {
	// cli is the tool command.
	cli string
	// versions are fixed for the whole run.
	versions dist.Versions
	// report receives every step.
	report *dist.Report
}

// New creates a scenario after validating versions.
func New(cli string, versions dist.Versions, report *dist.Report) (*Scenario, error) {
	if err := versions.Validate(); err != nil {
		return nil, err
	}

	if report == nil {
		report = dist.NewReport("", versions, nil)
	}

	return &Scenario{
		cli:      cli,
		versions: versions,
		report:   report,
	}, nil
}

// Report returns the report being filled.
func (s *Scenario) Report() *dist.Report {
	return s.report
}

// Run transfers artifacts, installs, verifies the dist commands, uninstalls and
// cleans artifacts. Cleanup of every stage that was reached runs even when a
// later stage fails or ctx is canceled; all errors are joined.
func (s *Scenario) Run(ctx context.Context, exec executor.Executor) (err error) {
	ctx = logger.WithKV(logger.WithName(ctx, "scenario"), "version", exec.Version())

	defer s.report.Finish()

	cleanupCtx := context.WithoutCancel(ctx)

	err = s.lifecycle(ctx, "transfer artifacts", exec.TransferArtifacts)

	defer func() {
		err = errors.Join(err, s.lifecycle(cleanupCtx, "clean artifacts", exec.CleanArtifacts))
	}()

	if err != nil {
		return err
	}

	err = s.lifecycle(ctx, "install", exec.Install)

	defer func() {
		err = errors.Join(err, s.lifecycle(cleanupCtx, "uninstall", exec.Uninstall))
	}()

	if err != nil {
		return err
	}

	if err = s.TestDistCommands(ctx, exec); err != nil {
		logger.ErrorKV(ctx, "Distribution commands failed", "error", err)

		return err
	}

	logger.Info(ctx, "Distribution commands verified")

	return nil
}

// lifecycle runs one executor stage and records it.
func (s *Scenario) lifecycle(ctx context.Context, name string, stage func(context.Context) error) error {
	started := time.Now()
	err := stage(ctx)

	check := dist.Check{
		Name:     name,
		Passed:   err == nil,
		Duration: time.Since(started),
	}
	if err != nil {
		check.Error = err.Error()
		logger.ErrorKV(ctx, "Lifecycle step failed", "step", name, "error", err)
	} else {
		logger.InfoKV(ctx, "Lifecycle step done", "step", name)
	}

	s.report.Add(check)

	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}
