package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/domain/dist"
	"github.com/oshokin/dist-check/internal/logger"
	"github.com/oshokin/dist-check/internal/repository/report"
)

// ReportOptions are inputs of ShowLatest.
type ReportOptions struct {
	// Dir holds saved reports; defaults to config.DefaultReportsDir.
	Dir string
	// Output receives the table; defaults to stdout.
	Output io.Writer
}

// ErrLatestRunFailed is returned by ShowLatest when the newest report has failures.
var ErrLatestRunFailed = errors.New("latest run failed")

// ShowLatest renders the newest saved report.
func ShowLatest(ctx context.Context, opts *ReportOptions) error {
	ctx = logger.WithName(ctx, "dist-check-report")

	if opts == nil {
		opts = &ReportOptions{}
	}

	dir := opts.Dir
	if dir == "" {
		dir = config.DefaultReportsDir
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	latest, err := report.NewFileRepository(dir).Latest(ctx)
	if err != nil {
		return fmt.Errorf("read latest report in %s: %w", dir, err)
	}

	RenderReport(out, latest)

	if latest.Outcome == dist.OutcomeFailed {
		return fmt.Errorf("%w: %d of %d checks", ErrLatestRunFailed, latest.Failed(), len(latest.Checks))
	}

	logger.DebugKV(ctx, "Latest report rendered", "dir", dir, "outcome", latest.Outcome)

	return nil
}
