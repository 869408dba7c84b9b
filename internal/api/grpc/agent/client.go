package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to a dist-agent. It has the same method set as Host.
type Client struct {
	// conn is the underlying gRPC connection to the agent.
	conn *grpc.ClientConn

	// callTimeout bounds calls that are not already bounded by the caller.
	callTimeout time.Duration

	// token is presented to agents that require one.
	token string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for agent calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithToken presents token to the agent on every call.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

var (
	// errAddressRequired is returned when the agent address is missing.
	errAddressRequired = errors.New("agent address must be provided")
	// ErrRemoteCommand is returned when a command fails on the agent machine.
	ErrRemoteCommand = errors.New("remote command failed")
)

// Dial connects to the agent at address. Transport is plaintext; agents
// reachable beyond loopback authenticate callers by the WithToken value.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial agent: %w", err)
	}

	client := &Client{
		conn: conn,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Run executes command on the agent and returns its output.
func (c *Client) Run(ctx context.Context, command string, admin bool) (string, error) {
	resp, err := c.invoke(ctx, methodExecute, message(map[string]*structpb.Value{
		fieldCommand: structpb.NewStringValue(command),
		fieldAdmin:   structpb.NewBoolValue(admin),
	}))
	if err != nil {
		return "", err
	}

	output := stringField(resp, fieldOutput)

	if remoteErr := stringField(resp, fieldError); remoteErr != "" {
		return output, fmt.Errorf("%w: %s", ErrRemoteCommand, remoteErr)
	}

	return output, nil
}

// Transfer stages installers on the agent machine.
func (c *Client) Transfer(ctx context.Context, provider, version, dir string) ([]string, error) {
	resp, err := c.invoke(ctx, methodTransfer, message(map[string]*structpb.Value{
		fieldProvider: structpb.NewStringValue(provider),
		fieldVersion:  structpb.NewStringValue(version),
		fieldDir:      structpb.NewStringValue(dir),
	}))
	if err != nil {
		return nil, err
	}

	return stringsField(resp, fieldFiles), nil
}

// Clean removes staged files on the agent machine.
func (c *Client) Clean(ctx context.Context, dir string, files []string) error {
	_, err := c.invoke(ctx, methodClean, message(map[string]*structpb.Value{
		fieldDir:   structpb.NewStringValue(dir),
		fieldFiles: stringsValue(files),
	}))

	return err
}

// Terminate stops processes by name on the agent machine.
func (c *Client) Terminate(ctx context.Context, names []string) error {
	_, err := c.invoke(ctx, methodTerminate, message(map[string]*structpb.Value{
		fieldNames: stringsValue(names),
	}))

	return err
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if c.token != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, tokenMetadataKey, c.token)
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, fullMethod(method), req, resp); err != nil {
		return nil, fmt.Errorf("agent %s: %w", method, err)
	}

	return resp, nil
}

// callContext applies the call timeout unless ctx already has a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
