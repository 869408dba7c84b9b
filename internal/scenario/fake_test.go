package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/oshokin/dist-check/internal/domain/dist"
)

var errFakeCommand = errors.New("fake tool: command failed")

// fakeTool emulates an installed distribution tool behind the Executor interface.
type fakeTool struct {
	cli         string
	version     string
	installed   bool
	active      string
	local       []string
	remote      []string
	tool        string
	latestTool  string
	latestPatch string
	specs       map[string]string
	// prefixNames makes the tool name 1.x distributions jballerina-<version>.
	prefixNames bool

	// calls records lifecycle stages and commands in order.
	calls []string
	// failOn makes the named lifecycle stage or command fail.
	failOn map[string]error
	// override replaces the output of a command.
	override map[string]string
}

func newFakeTool(v dist.Versions) *fakeTool {
	return &fakeTool{
		cli:         "ballerina",
		version:     v.Current,
		remote:      []string{"1.0.0", "1.1.0", v.Previous, v.PreviousLatestPatch},
		tool:        v.Tool,
		latestTool:  v.LatestTool,
		latestPatch: v.PreviousLatestPatch,
		specs: map[string]string{
			v.Current:             v.Spec,
			v.Previous:            v.PreviousSpec,
			v.PreviousLatestPatch: v.PreviousSpec,
		},
		failOn:   map[string]error{},
		override: map[string]string{},
	}
}

func (f *fakeTool) Version() string { return f.version }

func (f *fakeTool) stage(name string) error {
	f.calls = append(f.calls, name)

	return f.failOn[name]
}

func (f *fakeTool) TransferArtifacts(context.Context) error { return f.stage("transfer") }

func (f *fakeTool) Install(context.Context) error {
	if err := f.stage("install"); err != nil {
		return err
	}

	f.installed = true
	f.active = f.version
	f.local = []string{f.version}

	return nil
}

func (f *fakeTool) Uninstall(context.Context) error {
	if err := f.stage("uninstall"); err != nil {
		return err
	}

	f.installed = false
	f.active = ""
	f.local = nil

	return nil
}

func (f *fakeTool) CleanArtifacts(context.Context) error { return f.stage("clean") }

func (f *fakeTool) ExecuteCommand(_ context.Context, command string, _ bool) (string, error) {
	f.calls = append(f.calls, command)

	if err := f.failOn[command]; err != nil {
		return "", err
	}

	if out, ok := f.override[command]; ok {
		return out, nil
	}

	if !f.installed {
		return "", fmt.Errorf("%w: %s: not installed", errFakeCommand, command)
	}

	args := strings.Fields(strings.TrimPrefix(command, f.cli+" "))

	return f.dispatch(args)
}

func (f *fakeTool) dispatch(args []string) (string, error) {
	switch {
	case len(args) == 1 && args[0] == "-v":
		return dist.VersionOutput(f.active, f.specs[f.active], f.tool), nil
	case len(args) == 1 && args[0] == "version":
		out := dist.VersionOutput(f.active, f.specs[f.active], f.tool)
		if dist.IsSupportedRelease(f.active) && dist.NewerPatch(f.active, f.latestPatch) {
			patch := f.latestPatch
			if f.prefixNames {
				patch = "jballerina-" + patch
			}

			out = dist.UpdateNotice(f.cli, patch) + out
		}

		return out, nil
	case len(args) == 1 && args[0] == "update":
		f.tool = f.latestTool
		return "Updated to " + f.tool + "\n", nil
	case len(args) == 2 && args[0] == "dist" && args[1] == "list":
		return f.list(), nil
	case len(args) == 2 && args[0] == "dist" && args[1] == "update":
		f.activate(f.latestPatch)
		return "Fetching the latest patch distribution\n", nil
	case len(args) == 3 && args[0] == "dist":
		return f.distribution(args[1], strings.TrimPrefix(args[2], "jballerina-"))
	}

	return "", fmt.Errorf("%w: unknown arguments %v", errFakeCommand, args)
}

func (f *fakeTool) distribution(action, version string) (string, error) {
	switch action {
	case "pull":
		f.activate(version)
		return "Downloading " + version + "\n", nil
	case "use":
		if !slices.Contains(f.local, version) {
			return "", fmt.Errorf("%w: %s is not installed", errFakeCommand, version)
		}

		f.active = version

		return "'" + version + "' successfully set as the active distribution\n", nil
	case "remove":
		if version == f.active {
			return "", fmt.Errorf("%w: cannot remove active distribution", errFakeCommand)
		}

		f.local = slices.DeleteFunc(f.local, func(v string) bool { return v == version })

		return "Distribution '" + version + "' successfully removed\n", nil
	}

	return "", fmt.Errorf("%w: unknown action %s", errFakeCommand, action)
}

func (f *fakeTool) activate(version string) {
	if !slices.Contains(f.local, version) {
		f.local = append(f.local, version)
	}

	f.active = version
}

func (f *fakeTool) list() string {
	var b strings.Builder

	b.WriteString("Distributions available locally: \n\n")

	for _, v := range f.local {
		if v == f.active {
			b.WriteString("* jballerina-" + v + "\n")
		} else {
			b.WriteString("  jballerina-" + v + "\n")
		}
	}

	b.WriteString("\nDistributions available remotely: \n\n")

	for _, v := range f.remote {
		b.WriteString("  jballerina-" + v + "\n")
	}

	b.WriteString("\nUse 'ballerina help dist' for more information on specifying distributions.\n")

	return b.String()
}
