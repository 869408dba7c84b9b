package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"google.golang.org/grpc"

	api "github.com/oshokin/dist-check/internal/api/grpc/agent"
	"github.com/oshokin/dist-check/internal/artifact"
	"github.com/oshokin/dist-check/internal/config"
	"github.com/oshokin/dist-check/internal/executor"
	"github.com/oshokin/dist-check/internal/logger"
)

// DefaultListenAddress binds the agent on loopback only.
const DefaultListenAddress = "127.0.0.1:50551"

// DefaultArtifactsRoot is the directory all staging directories live under.
var DefaultArtifactsRoot = filepath.Join(os.TempDir(), "dist-agent")

// Options controls the dist-agent process.
type Options struct {
	// ListenAddress is the TCP address to serve on; defaults to DefaultListenAddress.
	ListenAddress string
	// ArtifactsURL is the artifact server base URL; defaults to the ARTIFACTS_URL variable.
	ArtifactsURL string
	// ArtifactsRoot confines staging directories; defaults to DefaultArtifactsRoot.
	ArtifactsRoot string
	// Token is required from callers; defaults to the AGENT_TOKEN variable.
	// It is mandatory unless the agent listens on loopback.
	Token string
	// Ready, when set, receives the bound address once the listener is open.
	Ready func(address string)
}

var (
	// errInvalidArtifactsURL indicates an unusable artifact server URL.
	errInvalidArtifactsURL = errors.New("invalid artifacts URL")
	// errTokenRequired indicates a non-loopback listener without a token.
	errTokenRequired = errors.New("a token is required when listening beyond loopback")
)

// settings are the resolved agent options.
type settings struct {
	listenAddress string
	artifactsURL  string
	artifactsRoot string
	token         string
}

// Run starts the gRPC server and blocks until context is canceled or server stops.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "dist-agent")

	s, err := resolve(opts)
	if err != nil {
		return err
	}

	host := executor.NewLocalHost(artifact.NewFetcher(s.artifactsURL, nil))

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", s.listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(api.TokenInterceptor(s.token)))
	api.Register(grpcServer, api.NewServer(host, s.artifactsRoot))

	logger.InfoKV(ctx, "Agent listening",
		"listen_address", lis.Addr().String(),
		"artifacts_url", s.artifactsURL,
		"artifacts_root", s.artifactsRoot,
		"token_required", s.token != "",
	)

	if opts != nil && opts.Ready != nil {
		opts.Ready(lis.Addr().String())
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// resolve fills defaults from the environment and validates the options.
func resolve(opts *Options) (*settings, error) {
	if opts == nil {
		opts = &Options{}
	}

	s := &settings{
		listenAddress: opts.ListenAddress,
		artifactsURL:  opts.ArtifactsURL,
		artifactsRoot: opts.ArtifactsRoot,
		token:         opts.Token,
	}

	if s.listenAddress == "" {
		s.listenAddress = DefaultListenAddress
	}

	host, _, err := net.SplitHostPort(s.listenAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", s.listenAddress, err)
	}

	if s.artifactsURL == "" {
		s.artifactsURL = os.Getenv(config.EnvArtifactsURL)
	}

	if s.artifactsURL != "" {
		if _, err = url.ParseRequestURI(s.artifactsURL); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidArtifactsURL, err)
		}
	}

	if s.artifactsRoot == "" {
		s.artifactsRoot = DefaultArtifactsRoot
	}

	if s.token == "" {
		s.token = os.Getenv(config.EnvAgentToken)
	}

	if s.token == "" && !isLoopback(host) {
		return nil, fmt.Errorf("%w: %s", errTokenRequired, s.listenAddress)
	}

	return s, nil
}

// isLoopback reports whether host only accepts local connections.
// An empty host binds every interface.
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}
