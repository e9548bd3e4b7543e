package reclaim

import (
	"context"
	"net"
	"runtime"
	"testing"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

// freePort reserves and releases an ephemeral port so the test can use a
// port that is known to have no listener.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}

func TestPortFreeIsNoOp(t *testing.T) {
	requireUnix(t)
	port := freePort(t)
	n, err := Port(context.Background(), port)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 reclaimed listeners, got %d", n)
	}
}

func TestPortIsIdempotent(t *testing.T) {
	requireUnix(t)
	port := freePort(t)
	for i := 0; i < 2; i++ {
		n, err := Port(context.Background(), port)
		if err != nil {
			t.Fatalf("reclaim #%d: %v", i+1, err)
		}
		if n != 0 {
			t.Fatalf("reclaim #%d: expected no listeners, got %d", i+1, n)
		}
	}
}
