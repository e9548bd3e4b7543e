package supervisor

import (
	"context"
	"time"

	"stackrun/internal/metrics"
)

// monitor is the single liveness loop. Each tick it snapshots the registry,
// removes entries whose child has exited outside the shutdown protocol
// (logging name, port and exit code exactly once per entry), and closes
// allDown if the registry drained. It stops as soon as the shutdown
// coordinator takes over; from then on exits belong to the stop sequence.
func (s *Supervisor) monitor(ctx context.Context, allDown chan<- struct{}) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if s.currentPhase() != phaseIdle {
			return
		}

		for _, m := range s.reg.Snapshot() {
			if m.State() != StateExited {
				continue
			}
			// Remove is exactly-once; a concurrent shutdown snapshot may
			// still hold the entry but will see it already reaped.
			if !s.reg.Remove(m.Spec.Name) {
				continue
			}
			s.log.Error("service exited unexpectedly",
				"tag", m.Spec.Name, "port", m.Spec.Port, "exit_code", m.ExitCode())
			metrics.IncUnexpectedExit(m.Spec.Name)
			metrics.SetRunning(s.reg.Len())
			s.record(func(h Recorder) error {
				return h.RecordExit(ctx, m.Spec.Name, m.Spec.Port, m.ExitCode())
			})
		}

		if s.reg.Len() == 0 && s.currentPhase() == phaseIdle {
			s.log.Error("all services exited, terminating")
			close(allDown)
			return
		}
	}
}
