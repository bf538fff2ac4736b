package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the SPARQL proxy
type Config struct {
	// Server configuration. The FLASK_ names are kept so existing
	// deployments can swap the binary without touching their env files.
	Host     string    `env:"FLASK_HOST" envDefault:"0.0.0.0"`
	Port     int       `env:"FLASK_PORT" envDefault:"5000"`
	Debug    DebugFlag `env:"FLASK_DEBUG" envDefault:"1"`
	LogLevel string    `env:"LOG_LEVEL" envDefault:"info"`
	GRPCPort int       `env:"GRPC_PORT" envDefault:"0"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Upstream SPARQL endpoint configuration
	Upstream UpstreamConfig

	// Timeouts
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// UpstreamConfig holds the SPARQL endpoint configuration
type UpstreamConfig struct {
	URL     string        `env:"FUSEKI_URL" envDefault:"http://localhost:3030/FoodPriceNetDataset/query"`
	Method  string        `env:"SPARQL_METHOD" envDefault:"GET"`
	Timeout time.Duration `env:"SPARQL_TIMEOUT" envDefault:"30s"`

	// ProbeInterval enables the background upstream monitor when positive
	ProbeInterval time.Duration `env:"SPARQL_PROBE_INTERVAL" envDefault:"0s"`
}

// DebugFlag is enabled only by the literal value "1".
type DebugFlag bool

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DebugFlag) UnmarshalText(text []byte) error {
	*d = DebugFlag(strings.TrimSpace(string(text)) == "1")
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads configuration from the given environment map. A nil map
// means the process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	cfg := &Config{}

	var err error
	if environment == nil {
		err = env.Parse(cfg)
	} else {
		err = env.ParseWithOptions(cfg, env.Options{Environment: environment})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Upstream.Method = strings.ToUpper(cfg.Upstream.Method)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.Port {
		return fmt.Errorf("gRPC port %d collides with HTTP port", c.GRPCPort)
	}

	// Validate upstream config
	u, err := url.Parse(c.Upstream.URL)
	if err != nil {
		return fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream URL must be http or https: %q", c.Upstream.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("upstream URL has no host: %q", c.Upstream.URL)
	}
	if c.Upstream.Method != "GET" && c.Upstream.Method != "POST" {
		return fmt.Errorf("unsupported upstream method: %s (must be GET or POST)", c.Upstream.Method)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative")
	}
	if c.Upstream.ProbeInterval < 0 {
		return fmt.Errorf("probe interval must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// EffectiveLogLevel returns "debug" when the debug flag is set, LogLevel otherwise
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.GRPCPort))
}
