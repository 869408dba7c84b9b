package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/dist-check/internal/domain/dist"
	"github.com/oshokin/dist-check/internal/executor"
	"github.com/oshokin/dist-check/internal/logger"
)

// verifyFunc inspects command output and returns the expectation and whether it held.
type verifyFunc func(output string) (expected string, ok bool)

// TestDistCommands drives the dist and update commands of the installed tool
// and checks the banner after every change of the active distribution.
func (s *Scenario) TestDistCommands(ctx context.Context, exec executor.Executor) error {
	v := s.versions
	tool := v.Tool

	steps := []func() error{
		func() error { return s.TestInstallation(ctx, exec, v.Current, v.Spec, tool) },
		func() error {
			return s.step(ctx, exec, "dist list", s.cmd("dist list"), false, func(out string) (string, bool) {
				list := dist.ParseDistList(out)
				return fmt.Sprintf("%s installed, %s available", v.Current, v.Previous),
					list.HasLocal(v.Current) && list.Has(v.Previous)
			})
		},
		func() error { return s.changeDistribution(ctx, exec, "pull", tool, v.Previous) },
		func() error { return s.TestInstallation(ctx, exec, v.Previous, v.PreviousSpec, tool) },
		func() error { return s.testUpdateNotice(ctx, exec, tool) },
		func() error { return s.changeDistribution(ctx, exec, "use", tool, v.Current) },
		func() error { return s.TestInstallation(ctx, exec, v.Current, v.Spec, tool) },
		func() error { return s.changeDistribution(ctx, exec, "remove", tool, v.Previous) },
		func() error {
			return s.step(ctx, exec, "dist list after remove", s.cmd("dist list"), false, func(out string) (string, bool) {
				return v.Previous + " not installed", !dist.ParseDistList(out).HasLocal(v.Previous)
			})
		},
		func() error { return s.step(ctx, exec, "update tool", s.cmd("update"), true, anyOutput) },
		func() error { return s.TestInstallation(ctx, exec, v.Current, v.Spec, v.LatestTool) },
		func() error { return s.changeDistribution(ctx, exec, "pull", v.LatestTool, v.Previous) },
		func() error { return s.step(ctx, exec, "dist update", s.cmd("dist update"), true, anyOutput) },
		func() error {
			return s.TestInstallation(ctx, exec, v.PreviousLatestPatch, v.PreviousSpec, v.LatestTool)
		},
		func() error { return s.changeDistribution(ctx, exec, "use", v.LatestTool, v.Current) },
		func() error { return s.TestInstallation(ctx, exec, v.Current, v.Spec, v.LatestTool) },
	}

	for _, run := range steps {
		if err := run(); err != nil {
			return err
		}
	}

	return nil
}

// TestInstallation checks the `-v` banner of the active distribution.
func (s *Scenario) TestInstallation(
	ctx context.Context,
	exec executor.Executor,
	version, specVersion, toolVersion string,
) error {
	expected := dist.VersionOutput(version, specVersion, toolVersion)

	return s.step(ctx, exec, "version of "+version, s.cmd("-v"), false, exactly(expected))
}

// testUpdateNotice checks the update banner printed while an outdated supported release is active.
func (s *Scenario) testUpdateNotice(ctx context.Context, exec executor.Executor, tool string) error {
	v := s.versions
	if !dist.IsSupportedRelease(v.Previous) || !dist.NewerPatch(v.Previous, v.PreviousLatestPatch) {
		logger.InfoKV(ctx, "Skipping update notice", "previous", v.Previous, "patch", v.PreviousLatestPatch)

		return nil
	}

	patch := dist.DistributionName(tool, v.PreviousLatestPatch)
	expected := dist.UpdateNotice(s.cli, patch) + dist.VersionOutput(v.Previous, v.PreviousSpec, tool)

	return s.step(ctx, exec, "update notice", s.cmd("version"), false, exactly(expected))
}

// changeDistribution runs `dist <action> <version>` with the name the tool expects.
func (s *Scenario) changeDistribution(ctx context.Context, exec executor.Executor, action, tool, version string) error {
	name := "dist " + action + " " + version
	command := s.cmd("dist " + action + " " + dist.DistributionName(tool, version))

	return s.step(ctx, exec, name, command, true, anyOutput)
}

// step runs a command, verifies its output and records the result.
func (s *Scenario) step(
	ctx context.Context,
	exec executor.Executor,
	name, command string,
	admin bool,
	verify verifyFunc,
) error {
	started := time.Now()
	output, err := exec.ExecuteCommand(ctx, command, admin)

	check := dist.Check{
		Name:    name,
		Command: command,
		Actual:  output,
	}

	if err == nil {
		expected, ok := verify(output)
		check.Expected = expected

		if !ok {
			err = fmt.Errorf("%w: %s: expected %q, got %q", ErrCheckFailed, name, expected, output)
		}
	}

	check.Duration = time.Since(started)
	check.Passed = err == nil

	if err != nil {
		check.Error = err.Error()
		s.report.Add(check)
		logger.ErrorKV(ctx, "Step failed", "step", name, "command", command, "error", err)

		return err
	}

	s.report.Add(check)
	logger.InfoKV(ctx, "Step passed", "step", name)

	return nil
}

func (s *Scenario) cmd(args string) string {
	return strings.TrimSpace(s.cli + " " + args)
}

func exactly(expected string) verifyFunc {
	return func(output string) (string, bool) {
		return expected, output == expected
	}
}

// anyOutput accepts whatever a successful command printed.
func anyOutput(string) (string, bool) {
	return "", true
}
