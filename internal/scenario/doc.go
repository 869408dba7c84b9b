// Package scenario runs the update-distribution check against an Executor.
//
// Run stages and installs the distribution, verifies the dist and update
// commands of the installed tool, then uninstalls and removes the staged
// installer. Every step is recorded in a dist.Report.
package scenario
