package reclaim

import (
	"context"
	"fmt"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"
	gproc "github.com/shirou/gopsutil/v4/process"
)

// Grace is how long a stale listener gets to exit after SIGTERM before
// it is force-killed.
const Grace = 500 * time.Millisecond

// Port frees a TCP port by terminating every process found in LISTEN state
// on it. All listeners are killed, not just the first. A free port is the
// success path: the call is idempotent and returns (0, nil).
// Callers treat a non-nil error as best-effort failure: log it and proceed;
// the subsequent bind fails loudly if reclamation did not work.
func Port(ctx context.Context, port int) (int, error) {
	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return 0, fmt.Errorf("query tcp listeners: %w", err)
	}
	reclaimed := 0
	for _, c := range conns {
		if c.Status != "LISTEN" || c.Laddr.Port != uint32(port) || c.Pid <= 0 {
			continue
		}
		if terminated := stop(ctx, c.Pid); terminated {
			reclaimed++
		}
	}
	return reclaimed, nil
}

// stop terminates one listener: SIGTERM, a bounded grace wait, then SIGKILL.
// A process that vanished between the query and the signal counts as done.
func stop(ctx context.Context, pid int32) bool {
	p, err := gproc.NewProcessWithContext(ctx, pid)
	if err != nil {
		return false
	}
	_ = p.TerminateWithContext(ctx)
	deadline := time.Now().Add(Grace)
	for time.Now().Before(deadline) {
		running, err := p.IsRunningWithContext(ctx)
		if err != nil || !running {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	_ = p.KillWithContext(ctx)
	return true
}
