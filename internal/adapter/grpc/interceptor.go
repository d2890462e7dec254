package grpc

import (
	"context"
	"crypto/subtle"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// Metadata keys forwarded by the upstream web tier
const (
	MetadataAuthorization = "authorization"
	MetadataCallerAccount = "x-caller-account-id"
	MetadataCallerRole    = "x-caller-role"
)

type callerKey struct{}

// WithCaller stores the authenticated caller on ctx
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller set by AuthInterceptor
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the service token from request metadata and attaches the forwarded caller
// identity to the context.
// If the token is missing or invalid, it returns status.Unauthenticated.
// A malformed caller identity is rejected with status.Unauthenticated too.
func AuthInterceptor(validToken string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get(MetadataAuthorization)
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		if subtle.ConstantTimeCompare([]byte(authHeaders[0]), []byte(validToken)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		caller, err := callerFromMetadata(md)
		if err != nil {
			return nil, err
		}

		return handler(WithCaller(ctx, caller), req)
	}
}

func callerFromMetadata(md metadata.MD) (domain.Caller, error) {
	roles := md.Get(MetadataCallerRole)
	if len(roles) == 0 {
		return domain.Caller{}, status.Error(codes.Unauthenticated, "missing caller role")
	}
	role, err := domain.ParseRole(roles[0])
	if err != nil {
		return domain.Caller{}, status.Errorf(codes.Unauthenticated, "invalid caller role %q", roles[0])
	}

	caller := domain.Caller{Role: role}
	if ids := md.Get(MetadataCallerAccount); len(ids) > 0 && ids[0] != "" {
		id, err := uuid.Parse(ids[0])
		if err != nil {
			return domain.Caller{}, status.Errorf(codes.Unauthenticated, "invalid caller account id: %v", err)
		}
		caller.AccountID = id
	}
	if caller.Role == domain.RoleUser && caller.AccountID == uuid.Nil {
		return domain.Caller{}, status.Error(codes.Unauthenticated, "missing caller account id")
	}
	return caller, nil
}
