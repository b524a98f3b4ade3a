package interceptors

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/interceptors/constants"
)

// RequestID returns the request id stored by the HTTP middleware or the
// gRPC interceptor, or "" when there is none.
func RequestID(ctx context.Context) string {
	return GetMetadataValue(ctx, constants.ContextKeyRequestID, constants.HeaderXRequestId)
}

// IdempotencyKey returns the client supplied idempotency key, or "".
func IdempotencyKey(ctx context.Context) string {
	return GetMetadataValue(ctx, constants.ContextKeyIdempotencyKey, constants.HeaderXIdempotencyKey)
}

// GetMetadataValue looks key up in the context values first and then in the
// incoming gRPC metadata under header.
func GetMetadataValue(ctx context.Context, key any, header string) string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(header); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// WithRequestMetadata stores the request id and idempotency key on ctx.
func WithRequestMetadata(ctx context.Context, requestID, idempotencyKey string) context.Context {
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
	return context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
}
