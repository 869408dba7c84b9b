package executor

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/dist-check/internal/api/grpc/agent"
	"github.com/oshokin/dist-check/internal/artifact"
	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/logger"
)

// nopCloser is returned for local hosts.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewHost returns the agent client when cfg names an agent and the local machine otherwise.
func NewHost(ctx context.Context, cfg *config.Config) (Host, io.Closer, error) {
	if cfg.AgentAddress == "" {
		return NewLocalHost(artifact.NewFetcher(cfg.ArtifactsURL, nil)), nopCloser{}, nil
	}

	client, err := agent.Dial(ctx, cfg.AgentAddress,
		agent.WithCallTimeout(cfg.Timeout),
		agent.WithToken(cfg.AgentToken),
	)
	if err != nil {
		return nil, nil, err
	}

	logger.InfoKV(ctx, "Using remote agent", "address", cfg.AgentAddress)

	return client, client, nil
}

// New returns the executor for version on the host selected by cfg.
// The closer releases the host connection.
func New(ctx context.Context, cfg *config.Config, version string) (*Distribution, io.Closer, error) {
	platform, err := PlatformFor(cfg.Provider)
	if err != nil {
		return nil, nil, err
	}

	host, closer, err := NewHost(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect host: %w", err)
	}

	d := NewDistribution(platform, host, version, Options{
		CLI:          cfg.CLI,
		ArtifactsDir: cfg.ArtifactsDir,
		Timeout:      cfg.Timeout,
	})

	return d, closer, nil
}
