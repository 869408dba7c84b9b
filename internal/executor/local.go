package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/dist-check/internal/artifact"
	"github.com/oshokin/dist-check/internal/logger"
)

// ErrCommandFailed is returned when a tool command exits unsuccessfully.
var ErrCommandFailed = errors.New("command failed")

// Host runs commands and stages files on the machine under test.
type Host interface {
	// Run executes command through the host shell and returns its standard output.
	Run(ctx context.Context, command string, admin bool) (string, error)
	// Transfer stages the installer files of provider for version into dir.
	Transfer(ctx context.Context, provider, version, dir string) ([]string, error)
	// Clean removes staged files.
	Clean(ctx context.Context, dir string, files []string) error
	// Terminate kills running processes with the given executable names.
	Terminate(ctx context.Context, names []string) error
}

// LocalHost is the machine dist-check itself runs on.
type LocalHost struct {
	// fetcher downloads installers.
	fetcher *artifact.Fetcher
	// shell is the interpreter prefix, e.g. sh -c.
	shell []string
	// elevate wraps the whole shell invocation of admin commands, empty when already privileged.
	elevate []string
}

// NewLocalHost creates a host for the current operating system.
func NewLocalHost(fetcher *artifact.Fetcher) *LocalHost {
	h := &LocalHost{
		fetcher: fetcher,
		shell:   []string{"sh", "-c"},
	}

	switch {
	case runtime.GOOS == "windows":
		h.shell = []string{"cmd.exe", "/C"}
	case os.Geteuid() != 0:
		h.elevate = []string{"sudo", "-n"}
	}

	return h
}

// Run executes command and returns its standard output with CRLF normalized.
func (h *LocalHost) Run(ctx context.Context, command string, admin bool) (string, error) {
	argv := make([]string, 0, len(h.elevate)+len(h.shell)+1)
	if admin {
		argv = append(argv, h.elevate...)
	}

	argv = append(argv, h.shell...)
	argv = append(argv, command)

	logger.DebugKV(ctx, "Running command", "argv", argv)

	//nolint:gosec // Commands come from the scenario and the platform table.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := strings.ReplaceAll(stdout.String(), "\r\n", "\n")

	if err != nil {
		return output, fmt.Errorf("%w: %s: %w: %s",
			ErrCommandFailed, command, err, strings.TrimSpace(stderr.String()))
	}

	return output, nil
}

// Transfer downloads the installers through the artifact fetcher.
func (h *LocalHost) Transfer(ctx context.Context, provider, version, dir string) ([]string, error) {
	if h.fetcher == nil {
		return nil, artifact.ErrNoSource
	}

	return h.fetcher.Transfer(ctx, provider, version, dir)
}

// Clean removes staged files.
func (h *LocalHost) Clean(_ context.Context, dir string, files []string) error {
	return artifact.Clean(dir, files)
}

// Terminate kills every process named in names except this one.
func (h *LocalHost) Terminate(ctx context.Context, names []string) error {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := wanted[process.Executable()]; !found {
			continue
		}

		running, findErr := os.FindProcess(process.Pid())
		if findErr != nil {
			return findErr
		}

		logger.InfoKV(ctx, "Terminating tool process", "pid", process.Pid(), "name", process.Executable())

		if err = running.Kill(); err != nil {
			return fmt.Errorf("kill %d: %w", process.Pid(), err)
		}
	}

	return nil
}
