package supervisor

import (
	"context"
	"time"

	"stackrun/internal/metrics"
)

// Shutdown runs the graceful stop protocol at most once and returns the
// supervisor's exit code. Subsequent calls return immediately with the same
// code; a second signal can never restart the reverse-order pass.
func (s *Supervisor) Shutdown() int {
	s.shutdownOnce.Do(s.stopAll)
	return 0
}

// stopAll is the shutdown protocol: snapshot in reverse startup order under
// the registry lock, release the lock, SIGTERM every still-alive process,
// wait for the whole batch under one global timeout, SIGKILL the rest.
func (s *Supervisor) stopAll() {
	s.phase.Store(int32(phaseShuttingDown))

	targets := s.reg.SnapshotReverse()
	s.log.Info("stopping all services", "count", len(targets))

	signaled := make([]*Managed, 0, len(targets))
	for _, m := range targets {
		if !m.beginStop() {
			continue
		}
		s.stopOrder = append(s.stopOrder, m.Spec.Name)
		if err := m.terminate(); err != nil {
			// Keep making progress toward Terminated; the waiter still
			// reaps this child if it exits on its own.
			s.log.Warn("failed to signal service", "tag", m.Spec.Name, "error", err)
		} else {
			s.log.Info("sent SIGTERM", "tag", m.Spec.Name, "pid", m.PID())
		}
		signaled = append(signaled, m)
	}

	// One timeout across the whole batch, not per process.
	timer := time.NewTimer(s.opts.ShutdownTimeout)
	defer timer.Stop()
	expired := false
	for _, m := range signaled {
		if expired {
			break
		}
		select {
		case <-m.WaitDone():
		case <-timer.C:
			expired = true
		}
	}

	if expired {
		s.log.Warn("graceful shutdown timed out, escalating to SIGKILL")
		for _, m := range signaled {
			if m.Done() {
				continue
			}
			metrics.IncEscalation()
			s.log.Warn("killing service", "tag", m.Spec.Name, "pid", m.PID())
			_ = m.kill()
		}
		// Give the waiters a moment to reap after the kill.
		for _, m := range signaled {
			select {
			case <-m.WaitDone():
			case <-time.After(200 * time.Millisecond):
			}
		}
	}

	ctx := context.Background()
	for _, m := range targets {
		s.log.Info("service stopped", "tag", m.Spec.Name, "port", m.Spec.Port)
		metrics.IncStop(m.Spec.Name)
		s.record(func(h Recorder) error {
			return h.RecordStop(ctx, m.Spec.Name, m.Spec.Port, m.Forced())
		})
		s.reg.Remove(m.Spec.Name)
	}
	metrics.SetRunning(0)

	s.phase.Store(int32(phaseTerminated))
	s.log.Info("all services stopped")
}
