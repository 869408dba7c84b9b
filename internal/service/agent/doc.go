// Package agent runs the dist-agent gRPC server.
//
// The agent exposes the local machine as a Host so that dist-check can drive
// installations on another machine: it runs commands, stages artifacts from
// the artifact server and removes them again.
package agent
