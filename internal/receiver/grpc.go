package receiver

import (
	"context"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TraceService implements the OTLP/gRPC trace collector.
type TraceService struct {
	coltracepb.UnimplementedTraceServiceServer

	handlers *Handlers
	limiter  *rate.Limiter
}

// NewTraceService feeds gRPC exports into the same store as h. limiter may
// be shared with the HTTP ingest route.
func NewTraceService(h *Handlers, limiter *rate.Limiter) *TraceService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &TraceService{handlers: h, limiter: limiter}
}

// Export implements coltracepb.TraceServiceServer.
func (s *TraceService) Export(ctx context.Context, req *coltracepb.ExportTraceServiceRequest) (*coltracepb.ExportTraceServiceResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if !s.limiter.Allow() {
		return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
	}

	s.handlers.accept(TransportGRPC, req)
	return &coltracepb.ExportTraceServiceResponse{}, nil
}

// NewGRPCServer creates a gRPC server with svc registered.
func NewGRPCServer(svc *TraceService, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	coltracepb.RegisterTraceServiceServer(srv, svc)
	return srv
}
