// Package config defines the settings of a dist-check run and provides
// helpers to load, validate and save them in YAML format.
//
// Version identifiers and the provider can also come from the process
// environment (BALLERINA_VERSION, SPEC_VERSION, TOOL_VERSION,
// LATEST_TOOL_VERSION, LATEST_PATCH_VERSION, PROVIDER), which takes
// precedence over the file.
package config
