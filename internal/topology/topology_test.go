package topology

import (
	"strings"
	"testing"

	"stackrun/internal/config"
)

func TestResolveGatewayFirst(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{Port: "8080"},
		Services: []config.ServiceConfig{
			{Name: "auth-service", Endpoints: []config.EndpointConfig{{URL: "http://localhost:8083"}}},
		},
	}
	specs, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Name != GatewayName || specs[0].Port != 8080 {
		t.Fatalf("unexpected gateway spec: %+v", specs[0])
	}
	if specs[1].Name != "auth-service" || specs[1].Port != 8083 {
		t.Fatalf("unexpected service spec: %+v", specs[1])
	}
	if specs[1].Path != "./cmd/auth-service" {
		t.Fatalf("unexpected service path: %q", specs[1].Path)
	}
}

func TestResolveSuffixesMultiInstanceNames(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{Port: "8080"},
		Services: []config.ServiceConfig{
			{Name: "service-a", Endpoints: []config.EndpointConfig{
				{URL: "http://localhost:8081"},
				{URL: "http://localhost:8084"},
			}},
		},
	}
	specs, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	if specs[1].Name != "service-a-8081" || specs[2].Name != "service-a-8084" {
		t.Fatalf("unexpected instance names: %q, %q", specs[1].Name, specs[2].Name)
	}
	// Both instances launch the same target.
	if specs[1].Path != "./cmd/service-a" || specs[2].Path != "./cmd/service-a" {
		t.Fatalf("unexpected instance paths: %q, %q", specs[1].Path, specs[2].Path)
	}
}

func TestResolveRejectsDuplicatePorts(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{Port: "8080"},
		Services: []config.ServiceConfig{
			{Name: "auth-service", Endpoints: []config.EndpointConfig{{URL: "http://localhost:8081"}}},
			{Name: "service-a", Endpoints: []config.EndpointConfig{{URL: "http://localhost:8081"}}},
		},
	}
	_, err := Resolve(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate port") {
		t.Fatalf("expected duplicate port error, got %v", err)
	}
}

func TestResolveRejectsGatewayPortCollision(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{Port: "8080"},
		Services: []config.ServiceConfig{
			{Name: "auth-service", Endpoints: []config.EndpointConfig{{URL: "http://localhost:8080"}}},
		},
	}
	if _, err := Resolve(cfg); err == nil {
		t.Fatal("expected error for port shared with gateway")
	}
}

func TestResolveRejectsBadGatewayPort(t *testing.T) {
	for _, port := range []string{"", "abc", "0", "70000"} {
		cfg := &config.Config{Gateway: config.GatewayConfig{Port: port}}
		if _, err := Resolve(cfg); err == nil {
			t.Fatalf("expected error for gateway port %q", port)
		}
	}
}

func TestResolveRejectsBadEndpointURL(t *testing.T) {
	for _, u := range []string{"http://localhost", "http://localhost:abc", "://"} {
		cfg := &config.Config{
			Gateway: config.GatewayConfig{Port: "8080"},
			Services: []config.ServiceConfig{
				{Name: "auth-service", Endpoints: []config.EndpointConfig{{URL: u}}},
			},
		}
		if _, err := Resolve(cfg); err == nil {
			t.Fatalf("expected error for endpoint url %q", u)
		}
	}
}
