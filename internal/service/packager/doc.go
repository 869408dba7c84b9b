// Package packager prepares the artifact manifest for a distribution build.
//
// Run checksums the installers of every provider found in a directory and
// writes dist-artifacts.yaml next to them, ready to be uploaded to the
// artifact server that dist-check and dist-agent download from.
package packager
