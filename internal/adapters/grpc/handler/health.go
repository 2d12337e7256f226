package handler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported besides the overall "" entry.
const ServiceName = "headcount.v1.Headcount"

const (
	defaultInterval    = 15 * time.Second
	defaultPingTimeout = 3 * time.Second
)

// Pinger checks a dependency, typically the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the gRPC health service in step with database liveness.
type HealthReporter struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	lastErr error
}

// NewHealthReporter creates a HealthReporter. A non-positive interval uses 15s.
func NewHealthReporter(db Pinger, interval time.Duration, logger zerolog.Logger) *HealthReporter {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &HealthReporter{
		server:   health.NewServer(),
		db:       db,
		interval: interval,
		logger:   logger.With().Str("component", "grpc_health").Logger(),
	}
}

// Register attaches the health service to srv.
func (h *HealthReporter) Register(srv grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(srv, h.server)
}

// Check pings the database once and updates the serving status.
func (h *HealthReporter) Check(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	err := h.db.Ping(pingCtx)
	st := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", st)
	h.server.SetServingStatus(ServiceName, st)

	h.mu.Lock()
	changed := (err == nil) != (h.lastErr == nil)
	h.lastErr = err
	h.mu.Unlock()

	if changed {
		if err != nil {
			h.logger.Warn().Err(err).Msg("database unreachable, reporting NOT_SERVING")
		} else {
			h.logger.Info().Msg("database reachable, reporting SERVING")
		}
	}
	return toStatusError(err)
}

// Run checks immediately and then on every interval until ctx is done, when it
// marks every service NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	_ = h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			_ = h.Check(ctx)
		}
	}
}

// Status returns the current status of service, for local callers such as
// the HTTP health route.
func (h *HealthReporter) Status(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return healthpb.HealthCheckResponse_SERVICE_UNKNOWN, nil
		}
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
