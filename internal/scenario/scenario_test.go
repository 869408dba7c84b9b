package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dist-check/internal/domain/dist"
)

var errTestStage = errors.New("stage exploded")

func testVersions() dist.Versions {
	return dist.Versions{
		Current:             "1.2.5",
		Spec:                "2020R1",
		Tool:                "0.8.8",
		Previous:            "1.2.0",
		PreviousSpec:        "2020R1",
		PreviousLatestPatch: "1.2.13",
		LatestTool:          "0.8.10",
	}
}

func newTestScenario(t *testing.T, v dist.Versions) *Scenario {
	t.Helper()

	s, err := New("ballerina", v, dist.NewReport("ubuntu", v, nil))
	require.NoError(t, err)

	return s
}

// TestRun_FullSequence drives the whole scenario against an emulated tool.
func TestRun_FullSequence(t *testing.T) {
	t.Parallel()

	v := testVersions()
	tool := newFakeTool(v)
	s := newTestScenario(t, v)

	require.NoError(t, s.Run(context.Background(), tool))

	require.Equal(t, []string{
		"transfer",
		"install",
		"ballerina -v",
		"ballerina dist list",
		"ballerina dist pull 1.2.0",
		"ballerina -v",
		"ballerina version",
		"ballerina dist use 1.2.5",
		"ballerina -v",
		"ballerina dist remove 1.2.0",
		"ballerina dist list",
		"ballerina update",
		"ballerina -v",
		"ballerina dist pull 1.2.0",
		"ballerina dist update",
		"ballerina -v",
		"ballerina dist use 1.2.5",
		"ballerina -v",
		"uninstall",
		"clean",
	}, tool.calls)

	report := s.Report()
	require.Equal(t, dist.OutcomePassed, report.Outcome)
	require.Zero(t, report.Failed())
	require.Len(t, report.Checks, len(tool.calls))
	require.False(t, tool.installed, "environment is left as found")
}

// TestRun_OldToolUsesPrefixedNames checks distribution names for tools before 0.8.0.
func TestRun_OldToolUsesPrefixedNames(t *testing.T) {
	t.Parallel()

	v := testVersions()
	v.Tool = "0.7.0"
	v.LatestTool = "0.7.2"

	tool := newFakeTool(v)
	tool.prefixNames = true

	s := newTestScenario(t, v)
	require.NoError(t, s.Run(context.Background(), tool))
	require.Contains(t, tool.calls, "ballerina dist pull jballerina-1.2.0")
	require.Contains(t, tool.calls, "ballerina dist use jballerina-1.2.5")

	var notice *dist.Check

	for i := range s.Report().Checks {
		if s.Report().Checks[i].Name == "update notice" {
			notice = &s.Report().Checks[i]
		}
	}

	require.NotNil(t, notice)
	require.True(t, notice.Passed)
	require.Contains(t, notice.Expected, "Use 'ballerina dist pull jballerina-1.2.13' to download")
}

// TestRun_SkipsNoticeWithoutNewerPatch omits the notice step when the previous release is current.
func TestRun_SkipsNoticeWithoutNewerPatch(t *testing.T) {
	t.Parallel()

	v := testVersions()
	v.PreviousLatestPatch = v.Previous

	tool := newFakeTool(v)
	require.NoError(t, newTestScenario(t, v).Run(context.Background(), tool))
	require.NotContains(t, tool.calls, "ballerina version")
}

// TestRun_VerificationFailureStillCleansUp checks uninstall and clean run after a failed check.
func TestRun_VerificationFailureStillCleansUp(t *testing.T) {
	t.Parallel()

	v := testVersions()
	tool := newFakeTool(v)
	tool.override["ballerina -v"] = "jBallerina 1.2.4\n"

	s := newTestScenario(t, v)
	err := s.Run(context.Background(), tool)

	require.ErrorIs(t, err, ErrCheckFailed)
	require.Equal(t, []string{"transfer", "install", "ballerina -v", "uninstall", "clean"}, tool.calls)

	report := s.Report()
	require.Equal(t, dist.OutcomeFailed, report.Outcome)
	require.Equal(t, 1, report.Failed())
	require.Equal(t, "version of 1.2.5", report.Checks[2].Name)
	require.Equal(t, "jBallerina 1.2.4\n", report.Checks[2].Actual)
	require.Equal(t, dist.VersionOutput("1.2.5", "2020R1", "0.8.8"), report.Checks[2].Expected)
}

// TestRun_LifecycleFailures covers the cleanup reached by each failing stage.
func TestRun_LifecycleFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stage string
		calls []string
	}{
		{"transfer", []string{"transfer", "clean"}},
		{"install", []string{"transfer", "install", "uninstall", "clean"}},
	}

	for _, tc := range cases {
		tool := newFakeTool(testVersions())
		tool.failOn[tc.stage] = errTestStage

		err := newTestScenario(t, testVersions()).Run(context.Background(), tool)
		require.ErrorIs(t, err, errTestStage, tc.stage)
		require.Equal(t, tc.calls, tool.calls, tc.stage)
	}
}

// TestRun_JoinsCleanupErrors reports both the verification and the cleanup failure.
func TestRun_JoinsCleanupErrors(t *testing.T) {
	t.Parallel()

	tool := newFakeTool(testVersions())
	tool.failOn["ballerina dist list"] = errTestStage
	tool.failOn["uninstall"] = errFakeCommand

	err := newTestScenario(t, testVersions()).Run(context.Background(), tool)
	require.ErrorIs(t, err, errTestStage)
	require.ErrorIs(t, err, errFakeCommand)
	require.Equal(t, "clean", tool.calls[len(tool.calls)-1])
}

// TestRun_CanceledContextStillCleansUp ensures cleanup ignores cancellation of the run context.
func TestRun_CanceledContextStillCleansUp(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	tool := &cancelingTool{fakeTool: newFakeTool(testVersions()), cancel: cancel}

	err := newTestScenario(t, testVersions()).Run(ctx, tool)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"transfer", "install", "ballerina -v", "uninstall", "clean"}, tool.calls)
	require.Len(t, tool.cleanupCtxErrs, 2)
	require.NoError(t, tool.cleanupCtxErrs[0])
	require.NoError(t, tool.cleanupCtxErrs[1])
}

// cancelingTool cancels the run on its first command and records cleanup contexts.
type cancelingTool struct {
	*fakeTool

	cancel         context.CancelFunc
	cleanupCtxErrs []error
}

func (c *cancelingTool) ExecuteCommand(ctx context.Context, command string, admin bool) (string, error) {
	c.cancel()
	c.calls = append(c.calls, command)

	return "", ctx.Err()
}

func (c *cancelingTool) Uninstall(ctx context.Context) error {
	c.cleanupCtxErrs = append(c.cleanupCtxErrs, ctx.Err())

	return c.fakeTool.Uninstall(ctx)
}

func (c *cancelingTool) CleanArtifacts(ctx context.Context) error {
	c.cleanupCtxErrs = append(c.cleanupCtxErrs, ctx.Err())

	return c.fakeTool.CleanArtifacts(ctx)
}

// TestNew_RejectsIncompleteVersions requires every identifier.
func TestNew_RejectsIncompleteVersions(t *testing.T) {
	t.Parallel()

	v := testVersions()
	v.PreviousLatestPatch = ""

	_, err := New("ballerina", v, nil)
	require.ErrorIs(t, err, dist.ErrMissingVersion)
}
