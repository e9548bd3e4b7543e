package supervisor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Spec describes one service to launch. It is produced once by the topology
// resolver and never mutated.
type Spec struct {
	Name string `json:"name"`
	Path string `json:"path"` // service entry point, relative to the project root
	Port int    `json:"port"`
}

// State is the lifecycle state of a managed process.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateExited   // observed dead outside the shutdown protocol
	StateStopping // shutdown protocol in progress
	StateStopped  // exited under the shutdown protocol
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Managed is one spawned child plus its lifecycle state. The cmd field is
// set once at creation and never replaced; everything else is guarded by mu.
type Managed struct {
	Spec Spec

	mu        sync.Mutex
	cmd       *exec.Cmd
	state     State
	exitCode  int
	forced    bool // SIGKILLed by the shutdown escalation
	startedAt time.Time
	waitDone  chan struct{} // closed by the waiter once cmd.Wait returns
}

func newManaged(spec Spec, cmd *exec.Cmd) *Managed {
	return &Managed{
		Spec:      spec,
		cmd:       cmd,
		state:     StateStarting,
		startedAt: time.Now(),
		waitDone:  make(chan struct{}),
	}
}

func (m *Managed) PID() int {
	if m.cmd.Process == nil {
		return 0
	}
	return m.cmd.Process.Pid
}

func (m *Managed) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Managed) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitCode
}

func (m *Managed) StartedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startedAt
}

func (m *Managed) Forced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forced
}

// WaitDone is closed once the child has been reaped.
func (m *Managed) WaitDone() <-chan struct{} { return m.waitDone }

// Done reports whether the child has been reaped, without blocking.
func (m *Managed) Done() bool {
	select {
	case <-m.waitDone:
		return true
	default:
		return false
	}
}

func (m *Managed) markRunning() {
	m.mu.Lock()
	if m.state == StateStarting {
		m.state = StateRunning
	}
	m.mu.Unlock()
}

// finish records the exit observed by the waiter goroutine. An exit during
// the shutdown protocol lands in Stopped, any other exit in Exited.
func (m *Managed) finish(code int) {
	m.mu.Lock()
	m.exitCode = code
	if m.state == StateStopping {
		m.state = StateStopped
	} else {
		m.state = StateExited
	}
	close(m.waitDone)
	m.mu.Unlock()
}

// beginStop marks the process as part of the shutdown protocol. Returns
// false when the child is already gone and needs no signaling.
func (m *Managed) beginStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateExited || m.state == StateStopped {
		return false
	}
	m.state = StateStopping
	return true
}

// terminate sends SIGTERM to the child's process group.
func (m *Managed) terminate() error {
	pid := m.PID()
	if pid == 0 {
		return nil
	}
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// kill sends SIGKILL to the child's process group.
func (m *Managed) kill() error {
	pid := m.PID()
	if pid == 0 {
		return nil
	}
	m.mu.Lock()
	m.forced = true
	m.mu.Unlock()
	return syscall.Kill(-pid, syscall.SIGKILL)
}
