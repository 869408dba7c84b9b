package agent

import (
	"context"
	"path/filepath"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/dist-check/internal/logger"
)

// Host abstracts the machine operations the agent serves.
type Host interface {
	Run(ctx context.Context, command string, admin bool) (string, error)
	Transfer(ctx context.Context, provider, version, dir string) ([]string, error)
	Clean(ctx context.Context, dir string, files []string) error
	Terminate(ctx context.Context, names []string) error
}

// Server implements the agent gRPC API.
type Server struct {
	// host performs the requested operations.
	host Host
	// root confines every staging directory a caller names.
	root string
}

// NewServer wires host into a gRPC handler. Staging directories requested by
// callers are resolved inside root.
func NewServer(host Host, root string) *Server {
	return &Server{
		host: host,
		root: filepath.Clean(root),
	}
}

// stagingDir maps a caller supplied directory into the root.
// Absolute paths and paths escaping the root are rejected.
func (s *Server) stagingDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	if !filepath.IsLocal(dir) {
		return "", status.Errorf(codes.InvalidArgument, "directory %q must be relative to the agent root", dir)
	}

	return filepath.Join(s.root, dir), nil
}

// Execute runs a command. Command failures are reported in the response so
// the caller still receives the output.
func (s *Server) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	command := stringField(req, fieldCommand)
	if command == "" {
		return nil, status.Error(codes.InvalidArgument, "command is required")
	}

	logger.InfoKV(ctx, "Agent executing command", "command", command)

	output, err := s.host.Run(ctx, command, boolField(req, fieldAdmin))

	fields := map[string]*structpb.Value{
		fieldOutput: structpb.NewStringValue(output),
	}
	if err != nil {
		fields[fieldError] = structpb.NewStringValue(err.Error())
	}

	return message(fields), nil
}

// Transfer stages installers on the agent machine.
func (s *Server) Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	provider := stringField(req, fieldProvider)
	version := stringField(req, fieldVersion)

	if provider == "" || version == "" {
		return nil, status.Error(codes.InvalidArgument, "provider and version are required")
	}

	dir, err := s.stagingDir(stringField(req, fieldDir))
	if err != nil {
		return nil, err
	}

	files, err := s.host.Transfer(ctx, provider, version, dir)
	if err != nil {
		logger.ErrorKV(ctx, "Agent transfer failed", "error", err)

		return nil, status.Error(codes.Unavailable, err.Error())
	}

	return message(map[string]*structpb.Value{
		fieldFiles: stringsValue(files),
	}), nil
}

// Clean removes staged files on the agent machine.
func (s *Server) Clean(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	dir, err := s.stagingDir(stringField(req, fieldDir))
	if err != nil {
		return nil, err
	}

	// Only names are honoured; files always live directly in the staging dir.
	files := stringsField(req, fieldFiles)
	for i, name := range files {
		files[i] = filepath.Base(name)
	}

	if err = s.host.Clean(ctx, dir, files); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return message(nil), nil
}

// Terminate stops tool processes on the agent machine.
func (s *Server) Terminate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.host.Terminate(ctx, stringsField(req, fieldNames)); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return message(nil), nil
}
