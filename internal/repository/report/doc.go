// Package report implements persistence for run reports.
//
// The FileRepository stores every report as its own YAML file in a directory
// and exposes a Repository interface that the runner service depends on.
package report
