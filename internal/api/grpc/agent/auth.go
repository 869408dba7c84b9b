package agent

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// tokenMetadataKey carries the shared agent token.
const tokenMetadataKey = "x-dist-agent-token"

// TokenInterceptor rejects calls that do not present token.
// An empty token disables the check.
func TokenInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if token == "" {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)

		presented := md.Get(tokenMetadataKey)
		if len(presented) != 1 || subtle.ConstantTimeCompare([]byte(presented[0]), []byte(token)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid agent token")
		}

		return handler(ctx, req)
	}
}
