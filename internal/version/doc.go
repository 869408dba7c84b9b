// Package version exposes build metadata of the dist-check binaries.
//
// Version, Commit and BuildTime are injected with -ldflags. This is the
// version of the verifier itself, not of the distribution under test.
package version
