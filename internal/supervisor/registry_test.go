package supervisor

import (
	"os/exec"
	"sync"
	"testing"
)

func entry(name string, port int) *Managed {
	return newManaged(Spec{Name: name, Path: "./cmd/" + name, Port: port}, exec.Command("true"))
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	for _, e := range []*Managed{entry("api-gateway", 8080), entry("auth-service", 8083), entry("service-a", 8081)} {
		if err := r.Add(e); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	snap := r.Snapshot()
	if snap[0].Spec.Name != "api-gateway" || snap[2].Spec.Name != "service-a" {
		t.Fatalf("unexpected startup order: %v, %v", snap[0].Spec.Name, snap[2].Spec.Name)
	}
	rev := r.SnapshotReverse()
	if rev[0].Spec.Name != "service-a" || rev[2].Spec.Name != "api-gateway" {
		t.Fatalf("unexpected shutdown order: %v, %v", rev[0].Spec.Name, rev[2].Spec.Name)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(entry("api-gateway", 8080)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(entry("api-gateway", 9090)); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if err := r.Add(entry("auth-service", 8080)); err == nil {
		t.Fatal("expected duplicate port error")
	}
}

func TestRegistryRemoveExactlyOnce(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(entry("api-gateway", 8080))
	if !r.Remove("api-gateway") {
		t.Fatal("first remove should succeed")
	}
	if r.Remove("api-gateway") {
		t.Fatal("second remove should report already gone")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryConcurrentRemove(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(entry("api-gateway", 8080))
	var wg sync.WaitGroup
	removed := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed <- r.Remove("api-gateway")
		}()
	}
	wg.Wait()
	close(removed)
	wins := 0
	for ok := range removed {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful remove, got %d", wins)
	}
}
