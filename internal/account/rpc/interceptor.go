package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accountd/pkg/idx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestIDKey is the metadata key carrying the request id.
const requestIDKey = "x-request-id"

// loggingInterceptor attaches a contextual logger and logs one line per call.
func loggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		var reqID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(requestIDKey); len(values) > 0 {
				reqID = values[0]
			}
		}
		if reqID == "" {
			reqID = idx.NewRequestID()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, reqID))

		logger := base.With(
			"req_id", reqID,
			"method", info.FullMethod,
		)
		ctx = slogx.WithContext(ctx, logger)

		resp, err := handler(ctx, req)

		logger.Info("grpc_request",
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
