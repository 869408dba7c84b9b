package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/dist-check/internal/logger"
)

const (
	// MarkerFilename marks that a run owns the staging directory right now.
	MarkerFilename = ".dist-check-run.marker"

	// markerLifetime is the period after which a stale run marker is ignored.
	// A full run pulls several distributions, so it is generous.
	markerLifetime = 2 * time.Hour

	markerDirPermissions  = 0o750
	markerFilePermissions = 0o600
)

// errRunInProgress is returned when another run holds the staging directory.
var errRunInProgress = errors.New("another run is using the artifacts directory")

// IsRunningNow reports whether a fresh run marker exists in dir.
// Stale markers are removed.
func IsRunningNow(ctx context.Context, dir string) bool {
	path := filepath.Join(dir, MarkerFilename)

	fileInfo, err := os.Stat(path)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.InfoKV(ctx, "The run marker is too old, removing it", "path", path)

		return os.Remove(path) != nil
	}

	return !errors.Is(err, os.ErrNotExist)
}

// acquireMarker creates the run marker in dir and returns its path.
func acquireMarker(ctx context.Context, dir string) (string, error) {
	if IsRunningNow(ctx, dir) {
		return "", errRunInProgress
	}

	if err := os.MkdirAll(dir, markerDirPermissions); err != nil {
		return "", fmt.Errorf("create artifacts directory: %w", err)
	}

	path := filepath.Join(dir, MarkerFilename)

	marker, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerFilePermissions)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", errRunInProgress
		}

		return "", fmt.Errorf("create run marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		return "", fmt.Errorf("close run marker: %w", err)
	}

	return path, nil
}

// releaseMarker removes the run marker and the staging directory when nothing else is left in it.
func releaseMarker(ctx context.Context, path string) {
	if path == "" {
		return
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Could not remove run marker", "path", path, "error", err)
	}

	// Fails harmlessly when the directory still holds files.
	_ = os.Remove(filepath.Dir(path))
}
