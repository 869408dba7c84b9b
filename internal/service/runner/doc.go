// Package runner implements the dist-check verification workflow.
//
// Run loads settings, guards the staging directory against parallel runs,
// drives the scenario through an executor, saves the report and prints a
// summary table. Install and Uninstall expose the single lifecycle steps for
// preparing or repairing a machine by hand.
package runner
