package interceptors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/interceptors/constants"
)

func TestTraceServerInterceptor(t *testing.T) {
	intercept := TraceServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	t.Run("copies metadata into the context", func(t *testing.T) {
		md := metadata.Pairs(constants.HeaderXRequestId, "req-1", constants.HeaderXIdempotencyKey, "idem-1")
		ctx := metadata.NewIncomingContext(context.Background(), md)

		var gotID, gotKey string
		_, err := intercept(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			gotID, gotKey = RequestID(ctx), IdempotencyKey(ctx)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "req-1", gotID)
		assert.Equal(t, "idem-1", gotKey)
	})

	t.Run("generates a request id when missing", func(t *testing.T) {
		var gotID string
		_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			gotID = RequestID(ctx)
			return nil, nil
		})
		require.NoError(t, err)
		assert.Len(t, gotID, 36)
	})
}
