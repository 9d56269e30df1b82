package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ProjectRoot   string        `toml:"project_root"`
	DependencyDir string        `toml:"dependency_dir"`
	SourceExt     string        `toml:"source_ext"`
	Exclude       Exclude       `toml:"exclude"`
	Lint          Lint          `toml:"lint"`
	Watch         Watch         `toml:"watch"`
	Server        Server        `toml:"server"`
	Observability Observability `toml:"observability"`
	History       History       `toml:"history"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Lint struct {
	Enabled bool          `toml:"enabled"`
	Command string        `toml:"command"`
	Args    []string      `toml:"args"`
	Timeout time.Duration `toml:"timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Server struct {
	RateLimit RateLimit `toml:"rate_limit"`
}

type RateLimit struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
}

type Observability struct {
	Addr          string `toml:"addr"`
	TraceEndpoint string `toml:"trace_endpoint"`
}

type History struct {
	Path string `toml:"path"` // empty disables snapshot recording
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.DependencyDir == "" {
		c.DependencyDir = "node_modules"
	}
	if c.SourceExt == "" {
		c.SourceExt = ".sol"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Lint.Timeout == 0 {
		c.Lint.Timeout = 30 * time.Second
	}
	if c.Server.RateLimit.RequestsPerMinute == 0 {
		c.Server.RateLimit.RequestsPerMinute = 600
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 50
	}
}
