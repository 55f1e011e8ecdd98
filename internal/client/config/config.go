package config

import "time"

// Config holds runtime settings for the sessionkeeper CLI.
//
// Token is the boundary token from the last successful call. Every call
// rotates it, so the CLI prints the replacement for the next invocation.
type Config struct {
	ServerEndpointAddr string        `env:"SK_SERVER_ADDR"`
	Token              string        `env:"SK_TOKEN"`
	RequestTimeout     time.Duration `env:"SK_REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
