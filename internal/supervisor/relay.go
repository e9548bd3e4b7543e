package supervisor

import (
	"bufio"
	"io"
	"strings"
)

// relay drains one child's combined output until end-of-stream, forwarding
// each non-empty line to the log sink tagged with the service name. It ends
// when the child closes its output; process death is the monitor's job, not
// the relay's, so stream closure is never treated as an exit signal.
func (s *Supervisor) relay(r io.ReadCloser, name string) {
	defer func() { _ = r.Close() }()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		s.log.Info(line, "tag", name)
	}
}
