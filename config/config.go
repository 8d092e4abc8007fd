// Package config loads the service configuration from a YAML or JSON file
// with LINEUP_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/lineup/core/metrics"
	"github.com/kilianp07/lineup/core/optimizer"
	"github.com/kilianp07/lineup/core/requestlog"
	"github.com/kilianp07/lineup/infra/logger"
	"github.com/kilianp07/lineup/infra/monitoring"
	"github.com/kilianp07/lineup/infra/mqtt"
)

// EnvPrefix marks environment variables that override file values.
// LINEUP_SOLVER__TIMEOUT=10s sets solver.timeout.
const EnvPrefix = "LINEUP_"

type Config struct {
	Server     ServerConfig      `json:"server"`
	Catalog    CatalogConfig     `json:"catalog"`
	Solver     optimizer.Config  `json:"solver"`
	RequestLog requestlog.Config `json:"request_log"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Logging    logger.Config     `json:"logging"`
	Sentry     monitoring.Config `json:"sentry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `json:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Catalog sources.
const (
	CatalogBuiltin = "builtin"
	CatalogFile    = "file"
	CatalogSQLite  = "sqlite"
)

// CatalogConfig selects where the driver and constructor reference data
// comes from.
type CatalogConfig struct {
	Source string `json:"source"`
	// Path is the YAML/JSON file or the SQLite database.
	Path string `json:"path"`
	// Season picks a stored season from SQLite; the latest one when empty.
	Season string `json:"season"`
}

// SetDefaults applies sane defaults.
func (c *CatalogConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = CatalogBuiltin
	}
}

// Validate checks mandatory fields.
func (c CatalogConfig) Validate() error {
	switch c.Source {
	case CatalogBuiltin:
		return nil
	case CatalogFile, CatalogSQLite:
		if c.Path == "" {
			return fmt.Errorf("catalog.path is required for source %s", c.Source)
		}
		return nil
	default:
		return fmt.Errorf("unknown catalog.source %s", c.Source)
	}
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Catalog.SetDefaults()
	c.Solver.SetDefaults()
	c.RequestLog.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"catalog", c.Catalog.Validate()},
		{"solver", c.Solver.Validate()},
		{"request_log", c.RequestLog.Validate()},
		{"mqtt", c.MQTT.Validate()},
		{"logging", c.Logging.Validate()},
	}
	for _, ch := range checks {
		if ch.err != nil {
			return fmt.Errorf("%s: %w", ch.section, ch.err)
		}
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads path, applies environment overrides, defaults and validation.
// An empty path loads only the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
