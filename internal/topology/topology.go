package topology

import (
	"fmt"
	"net/url"
	"path"
	"strconv"

	"stackrun/internal/config"
	"stackrun/internal/supervisor"
)

// GatewayName is the gateway-facing entrypoint. It starts first and stops
// last, matching the cmd/<name> layout of the managed stack.
const GatewayName = "api-gateway"

// Resolve turns the loaded configuration into the ordered launch plan:
// the gateway first, then one spec per declared service endpoint, in
// declaration order. Pure function; nothing is started here.
//
// When a service declares several endpoints, each instance is its own spec
// and its name is suffixed with the port to stay unique.
func Resolve(cfg *config.Config) ([]supervisor.Spec, error) {
	gwPort, err := parsePort(cfg.Gateway.Port)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	specs := []supervisor.Spec{{
		Name: GatewayName,
		Path: servicePath(GatewayName),
		Port: gwPort,
	}}
	ports := map[int]string{gwPort: GatewayName}
	names := map[string]bool{GatewayName: true}

	for _, svc := range cfg.Services {
		for _, ep := range svc.Endpoints {
			port, err := endpointPort(ep.URL)
			if err != nil {
				return nil, fmt.Errorf("service %s: %w", svc.Name, err)
			}
			name := svc.Name
			if len(svc.Endpoints) > 1 {
				name = fmt.Sprintf("%s-%d", svc.Name, port)
			}
			if owner, dup := ports[port]; dup {
				return nil, fmt.Errorf("duplicate port %d (%s, %s)", port, owner, name)
			}
			if names[name] {
				return nil, fmt.Errorf("duplicate service name %q", name)
			}
			ports[port] = name
			names[name] = true
			specs = append(specs, supervisor.Spec{
				Name: name,
				Path: servicePath(svc.Name),
				Port: port,
			})
		}
	}
	return specs, nil
}

func servicePath(name string) string {
	return "./" + path.Join("cmd", name)
}

func endpointPort(rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("invalid endpoint url %q: %w", rawURL, err)
	}
	p := u.Port()
	if p == "" {
		return 0, fmt.Errorf("endpoint url %q has no port", rawURL)
	}
	return parsePort(p)
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("port %q is not an integer", s)
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range", p)
	}
	return p, nil
}
