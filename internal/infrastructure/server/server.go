package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/config"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/middleware"
	"github.com/GriffinCanCode/observability-demo/internal/receiver"
)

// shutdownTimeout bounds graceful shutdown of both listeners.
const shutdownTimeout = 5 * time.Second

// Server runs the local collector: OTLP/HTTP plus query API on one
// listener, OTLP/gRPC on another.
type Server struct {
	config  config.CollectorConfig
	store   *receiver.Store
	router  *gin.Engine
	grpc    *grpc.Server
	http    *http.Server
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	httpLn   net.Listener
	grpcLn   net.Listener
	errs     chan error
	started  bool
	stopOnce sync.Once
}

// NewServer wires the store, handlers and both transports.
func NewServer(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	col := cfg.Collector

	logger.Info("Initializing collector",
		zap.String("http_addr", col.HTTPAddr),
		zap.String("grpc_addr", col.GRPCAddr),
		zap.Int("max_traces", col.MaxTraces),
	)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store := receiver.NewStore(col.MaxTraces)
	handlers := receiver.NewHandlers(store, metrics, logger.Named("receiver"))

	ingest := middleware.NewLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: col.IngestRPS,
		Burst:             col.IngestBurst,
	})
	if col.IngestRPS > 0 {
		logger.Info("Ingest rate limiting enabled",
			zap.Int("rps", col.IngestRPS),
			zap.Int("burst", col.IngestBurst),
		)
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(col.CORSOrigins) > 0 {
		corsCfg.Origins = col.CORSOrigins
	}

	router := receiver.NewRouter(handlers, receiver.RouterConfig{
		CORS: corsCfg,
		Query: middleware.RateLimitConfig{
			RequestsPerSecond: col.QueryRPS,
			Burst:             col.QueryBurst,
		},
		Ingest:  ingest,
		Metrics: metrics,
	})

	return &Server{
		config:  col,
		store:   store,
		router:  router,
		grpc:    receiver.NewGRPCServer(receiver.NewTraceService(handlers, ingest)),
		http:    &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		logger:  logger,
		metrics: metrics,
		errs:    make(chan error, 2),
	}
}

// Store exposes the trace store.
func (s *Server) Store() *receiver.Store {
	return s.store
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds both listeners and serves in the background. An empty gRPC
// address disables the gRPC transport.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("server already started")
	}

	httpLn, err := net.Listen("tcp", s.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.HTTPAddr, err)
	}
	s.httpLn = httpLn

	if s.config.GRPCAddr != "" {
		grpcLn, err := net.Listen("tcp", s.config.GRPCAddr)
		if err != nil {
			httpLn.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.config.GRPCAddr, err)
		}
		s.grpcLn = grpcLn

		go func() {
			s.logger.Info("Starting OTLP/gRPC receiver", zap.String("addr", grpcLn.Addr().String()))
			if err := s.grpc.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				s.errs <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", httpLn.Addr().String()))
		if err := s.http.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	s.started = true
	return nil
}

// HTTPAddr returns the bound HTTP address once started.
func (s *Server) HTTPAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpLn == nil {
		return ""
	}
	return s.httpLn.Addr().String()
}

// GRPCAddr returns the bound gRPC address once started.
func (s *Server) GRPCAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grpcLn == nil {
		return ""
	}
	return s.grpcLn.Addr().String()
}

// Run starts the server and blocks until ctx is done or a listener fails,
// then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-s.errs:
		s.logger.Error("Server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, s.Close(shutdownCtx))
}

// Close gracefully shuts down both transports.
func (s *Server) Close(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.logger.Info("Shutting down collector...", zap.Int("traces_stored", s.store.Len()))

		stopped := make(chan struct{})
		go func() {
			s.grpc.GracefulStop()
			close(stopped)
		}()

		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("failed to shut down http server: %w", shutdownErr)
		}

		select {
		case <-stopped:
		case <-ctx.Done():
			s.grpc.Stop()
		}

		s.logger.Sync()
	})
	return err
}
