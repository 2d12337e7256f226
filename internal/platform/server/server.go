package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/ogurasousui/headcount-clean-arch/internal/platform/config"
)

// Registrar attaches services to the gRPC server.
type Registrar interface {
	Register(srv grpc.ServiceRegistrar)
}

// Server manages the lifecycle of the HTTP API and the gRPC listener.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
	grpcServer *grpc.Server
	logger     zerolog.Logger
}

// New builds both servers. grpc is skipped when GRPCListenAddr is empty.
func New(cfg config.ServerConfig, api http.Handler, services []Registrar, logger zerolog.Logger, opts ...grpc.ServerOption) *Server {
	s := &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.HTTPListenAddr,
			Handler:           api,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger.With().Str("component", "server").Logger(),
	}

	if cfg.GRPCListenAddr != "" {
		s.grpcServer = grpc.NewServer(opts...)
		for _, svc := range services {
			svc.Register(s.grpcServer)
		}
	}
	return s
}

// Run serves until ctx is cancelled or a listener fails, then shuts both
// servers down within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.cfg.HTTPListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.HTTPListenAddr, err)
	}

	var grpcLis net.Listener
	if s.grpcServer != nil {
		grpcLis, err = net.Listen("tcp", s.cfg.GRPCListenAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on %s: %w", s.cfg.GRPCListenAddr, err)
		}
	}

	errCh := make(chan error, 2)

	go func() {
		s.logger.Info().Str("addr", httpLis.Addr().String()).Msg("HTTP server listening")
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve HTTP: %w", err)
			return
		}
		errCh <- nil
	}()

	if grpcLis != nil {
		go func() {
			s.logger.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC server listening")
			if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("serve gRPC: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	s.shutdown()
	return runErr
}

func (s *Server) shutdown() {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}

	if s.grpcServer == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	s.logger.Info().Msg("servers stopped")
}
