package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the subset of the stack's YAML configuration the supervisor
// consumes: the gateway listen port and the declared service endpoints.
// Everything else in the file (routing, JWT, database, ...) belongs to the
// services themselves and is ignored here.
type Config struct {
	Gateway  GatewayConfig   `mapstructure:"gateway"`
	Services []ServiceConfig `mapstructure:"services"`
}

type GatewayConfig struct {
	Port string `mapstructure:"port"`
}

type ServiceConfig struct {
	Name      string           `mapstructure:"name"`
	Endpoints []EndpointConfig `mapstructure:"endpoints"`
}

type EndpointConfig struct {
	URL string `mapstructure:"url"`
}

// Load reads and parses the YAML configuration file.
// A missing or malformed file is a fatal startup error for the supervisor.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Gateway.Port == "" {
		return nil, fmt.Errorf("config %s: gateway.port is required", path)
	}
	for _, svc := range cfg.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("config %s: service entry without name", path)
		}
	}
	return &cfg, nil
}
