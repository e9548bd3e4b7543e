package stackrun

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	cfg "stackrun/internal/config"
	"stackrun/internal/history"
	"stackrun/internal/logger"
	"stackrun/internal/metrics"
	iapi "stackrun/internal/server"
	"stackrun/internal/supervisor"
	"stackrun/internal/topology"
)

// Re-export core types for embedding. These are aliases so conversions are
// zero-cost.

type Spec = supervisor.Spec

type ServiceStatus = supervisor.ServiceStatus

type Options = supervisor.Options

type Config = cfg.Config

type LoggerOptions = logger.Options

// Supervisor is a thin facade over internal/supervisor.Supervisor providing
// a stable public API.
type Supervisor struct{ inner *supervisor.Supervisor }

func New(opts Options) *Supervisor {
	return &Supervisor{inner: supervisor.New(opts)}
}

// StartAll launches every spec in order and returns how many started.
func (s *Supervisor) StartAll(ctx context.Context, specs []Spec) int {
	return s.inner.StartAll(ctx, specs)
}

// Run blocks until a signal or total failure; returns the exit code.
func (s *Supervisor) Run(ctx context.Context) int { return s.inner.Run(ctx) }

// Shutdown runs the graceful stop protocol at most once.
func (s *Supervisor) Shutdown() int { return s.inner.Shutdown() }

// Statuses snapshots the registry in startup order.
func (s *Supervisor) Statuses() []ServiceStatus { return s.inner.Statuses() }

// LoadConfig reads the stack's YAML configuration.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// Resolve turns a configuration into the ordered launch plan.
func Resolve(c *Config) ([]Spec, error) { return topology.Resolve(c) }

// OpenHistory opens the SQLite lifecycle event store; the result satisfies
// Options.History.
func OpenHistory(path string) (*history.Store, error) { return history.Open(path) }

// RegisterMetrics registers the supervisor's Prometheus collectors.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// NewStatusServer starts the read-only status API for a supervisor.
func NewStatusServer(addr string, s *Supervisor) *http.Server {
	return iapi.NewServer(addr, s.inner)
}
