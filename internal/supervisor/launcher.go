package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"stackrun/internal/metrics"
	"stackrun/internal/reclaim"
)

// StartAll launches every spec in order. A single failed launch is logged
// and skipped; siblings proceed. Returns the number of services launched.
func (s *Supervisor) StartAll(ctx context.Context, specs []Spec) int {
	launched := 0
	for _, spec := range specs {
		if err := s.launch(ctx, spec); err != nil {
			s.log.Error("failed to launch service", "tag", spec.Name, "port", spec.Port, "error", err)
			continue
		}
		launched++
	}
	metrics.SetRunning(s.reg.Len())
	return launched
}

// launch starts one child: verify the target exists (before touching the
// port), reclaim the port, spawn with the project root as working directory
// and PORT injected, register, then attach relay and waiter.
func (s *Supervisor) launch(ctx context.Context, spec Spec) error {
	target := spec.Path
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.opts.ProjectRoot, spec.Path)
	}
	if _, err := os.Stat(target); err != nil {
		return &LaunchError{Name: spec.Name, Path: target, Err: ErrNotFound}
	}

	if n, err := reclaim.Port(ctx, spec.Port); err != nil {
		// Best-effort: the child's bind fails loudly if this didn't work.
		s.log.Warn("port reclamation failed", "tag", spec.Name, "port", spec.Port, "error", err)
	} else if n > 0 {
		metrics.AddReclaimed(n)
		s.log.Info("reclaimed stale listeners", "tag", spec.Name, "port", spec.Port, "count", n)
	}

	cmd := s.buildCommand(spec)
	cmd.Dir = s.opts.ProjectRoot
	cmd.Env = append(os.Environ(), fmt.Sprintf("PORT=%d", spec.Port))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// One pipe carries combined stdout+stderr to the relay.
	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe for %s: %w", spec.Name, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return &LaunchError{Name: spec.Name, Path: target, Err: err}
	}
	// Drop the parent's write end; the relay sees EOF once the child exits.
	_ = pw.Close()

	m := newManaged(spec, cmd)
	if err := s.reg.Add(m); err != nil {
		_ = m.kill()
		_ = pr.Close()
		return err
	}
	m.markRunning()

	go s.relay(pr, spec.Name)
	go s.waitExit(m)

	s.log.Info("started service", "tag", spec.Name, "port", spec.Port, "pid", m.PID())
	metrics.IncStart(spec.Name)
	s.record(func(h Recorder) error {
		return h.RecordStart(ctx, spec.Name, spec.Port, m.PID())
	})
	return nil
}

func (s *Supervisor) buildCommand(spec Spec) *exec.Cmd {
	if s.opts.LaunchCommand != nil {
		return s.opts.LaunchCommand(spec)
	}
	return exec.Command("go", "run", spec.Path)
}

// waitExit reaps the child and records its exit. It is the only caller of
// cmd.Wait for a given process.
func (s *Supervisor) waitExit(m *Managed) {
	err := m.cmd.Wait()
	m.finish(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}
