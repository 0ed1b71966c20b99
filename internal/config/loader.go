package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sqwerl/internal/common/fsutil"
)

// Config holds runtime parameters for the CLI.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	Server    Server `json:"server" yaml:"server" toml:"server"`
	Loader    Loader `json:"loader" yaml:"loader" toml:"loader"`
}

// Server configures `sqwerl serve`.
type Server struct {
	Addr            string   `json:"addr" yaml:"addr" toml:"addr"`
	DataFile        string   `json:"data_file" yaml:"data_file" toml:"data_file"`
	SyntheticSize   int      `json:"synthetic_size" yaml:"synthetic_size" toml:"synthetic_size"`
	SyntheticFanout int      `json:"synthetic_fanout" yaml:"synthetic_fanout" toml:"synthetic_fanout"`
	DefaultPageSize int      `json:"default_page_size" yaml:"default_page_size" toml:"default_page_size"`
	MaxPageSize     int      `json:"max_page_size" yaml:"max_page_size" toml:"max_page_size"`
	CORSEnabled     bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins     []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Loader configures the client side used by `sqwerl browse`.
type Loader struct {
	URL            string `json:"url" yaml:"url" toml:"url"`
	PageSize       int    `json:"page_size" yaml:"page_size" toml:"page_size"`
	QuietPeriodMS  int    `json:"quiet_period_ms" yaml:"quiet_period_ms" toml:"quiet_period_ms"`
	FetchTimeoutMS int    `json:"fetch_timeout_ms" yaml:"fetch_timeout_ms" toml:"fetch_timeout_ms"`
}

// QuietPeriod returns the debounce delay, zero when unset.
func (l Loader) QuietPeriod() time.Duration {
	return time.Duration(l.QuietPeriodMS) * time.Millisecond
}

// FetchTimeout returns the per-page timeout, zero when unset.
func (l Loader) FetchTimeout() time.Duration {
	return time.Duration(l.FetchTimeoutMS) * time.Millisecond
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ResolveFile(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects negative sizes and durations.
func (c Config) Validate() error {
	switch {
	case c.Server.SyntheticSize < 0, c.Server.SyntheticFanout < 0:
		return fmt.Errorf("server: synthetic sizes must be >= 0")
	case c.Server.DefaultPageSize < 0, c.Server.MaxPageSize < 0:
		return fmt.Errorf("server: page sizes must be >= 0")
	case c.Loader.PageSize < 0:
		return fmt.Errorf("loader: page_size must be >= 0")
	case c.Loader.QuietPeriodMS < 0, c.Loader.FetchTimeoutMS < 0:
		return fmt.Errorf("loader: durations must be >= 0")
	}
	return nil
}
