// Package executor drives the install lifecycle of one distribution version.
//
// An Executor stages the installer, installs it, runs tool commands,
// uninstalls and cleans up. The provider Platform decides installer names
// and package manager commands; a Host decides where commands run, either
// this machine (LocalHost) or a dist-agent reached over gRPC.
package executor
