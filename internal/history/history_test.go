package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRecordLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	if err := st.RecordStart(ctx, "auth-service", 8083, 4242); err != nil {
		t.Fatalf("record start: %v", err)
	}
	if err := st.RecordExit(ctx, "auth-service", 8083, 1); err != nil {
		t.Fatalf("record exit: %v", err)
	}
	if err := st.RecordStop(ctx, "api-gateway", 8080, true); err != nil {
		t.Fatalf("record stop: %v", err)
	}

	events, err := st.Events(ctx, "")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != EventStart || events[0].PID != 4242 {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != EventExit {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if !events[1].ExitCode.Valid || events[1].ExitCode.Int64 != 1 {
		t.Fatalf("exit code not recorded: %+v", events[1].ExitCode)
	}
	if events[2].Type != EventStop || !events[2].Forced {
		t.Fatalf("unexpected third event: %+v", events[2])
	}
}

func TestEventsFilterByName(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	_ = st.RecordStart(ctx, "api-gateway", 8080, 1)
	_ = st.RecordStart(ctx, "auth-service", 8083, 2)

	events, err := st.Events(ctx, "auth-service")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Name != "auth-service" {
		t.Fatalf("unexpected filtered events: %+v", events)
	}
}

func TestOpenInMemory(t *testing.T) {
	st, err := Open("")
	if err != nil {
		t.Fatalf("open in-memory: %v", err)
	}
	defer func() { _ = st.Close() }()
	if err := st.RecordStart(context.Background(), "api-gateway", 8080, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
}
