package supervisor

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Defaults for the monitoring and shutdown windows.
const (
	DefaultPollInterval    = time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

type phase int32

const (
	phaseIdle phase = iota
	phaseShuttingDown
	phaseTerminated
)

// Recorder persists lifecycle events. Implementations must be safe for
// concurrent use. A nil Recorder disables history.
type Recorder interface {
	RecordStart(ctx context.Context, name string, port, pid int) error
	RecordExit(ctx context.Context, name string, port, code int) error
	RecordStop(ctx context.Context, name string, port int, forced bool) error
}

// Options configures a Supervisor.
type Options struct {
	// ProjectRoot is the working directory every child is launched from,
	// so relative config paths inside the services keep resolving.
	ProjectRoot string
	// PollInterval is the liveness monitor tick (default 1s).
	PollInterval time.Duration
	// ShutdownTimeout is the single graceful window shared by the whole
	// reverse-order stop batch (default 10s).
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
	History         Recorder
	// LaunchCommand overrides how a service target is executed.
	// The default runs "go run <path>" from the project root.
	LaunchCommand func(Spec) *exec.Cmd
}

// Supervisor owns the registry and coordinates launcher, output relays,
// liveness monitor and the shutdown protocol.
type Supervisor struct {
	opts Options
	log  *slog.Logger
	reg  *Registry

	phase        atomic.Int32
	shutdownOnce sync.Once

	// names in the order the coordinator signaled them, reverse of startup
	stopOrder []string
}

func New(opts Options) *Supervisor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = "."
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{opts: opts, log: log, reg: NewRegistry()}
}

// Registry exposes the ordered process registry (read-mostly; mutations go
// through the monitor and coordinator).
func (s *Supervisor) Registry() *Registry { return s.reg }

func (s *Supervisor) currentPhase() phase { return phase(s.phase.Load()) }

// ServiceStatus is a point-in-time view of one managed process.
type ServiceStatus struct {
	Name      string    `json:"name"`
	Port      int       `json:"port"`
	PID       int       `json:"pid"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Statuses snapshots every registered process in startup order.
func (s *Supervisor) Statuses() []ServiceStatus {
	entries := s.reg.Snapshot()
	out := make([]ServiceStatus, 0, len(entries))
	for _, m := range entries {
		out = append(out, ServiceStatus{
			Name:      m.Spec.Name,
			Port:      m.Spec.Port,
			PID:       m.PID(),
			State:     m.State().String(),
			StartedAt: m.StartedAt(),
		})
	}
	return out
}

// Run blocks until a termination signal arrives or the registry drains, and
// returns the process exit code: 0 after a clean shutdown, 1 when every
// service died on its own.
func (s *Supervisor) Run(ctx context.Context) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	allDown := make(chan struct{})
	go s.monitor(ctx, allDown)

	select {
	case sig := <-sigCh:
		// Signal delivery only wakes this goroutine; the blocking stop
		// sequence runs here, never in handler context.
		s.log.Info("received signal, stopping all services", "signal", sig.String())
		return s.Shutdown()
	case <-allDown:
		// Registry drained outside the shutdown protocol: nothing is left
		// to signal, fail fast.
		return 1
	case <-ctx.Done():
		return s.Shutdown()
	}
}

func (s *Supervisor) record(fn func(Recorder) error) {
	if s.opts.History == nil {
		return
	}
	if err := fn(s.opts.History); err != nil {
		s.log.Warn("history write failed", "error", err)
	}
}
