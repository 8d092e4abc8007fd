package requestlog

import "fmt"

// Store types accepted in request_log.type.
const (
	TypeNone     = "none"
	TypeJSONL    = "jsonl"
	TypeRotating = "rotating"
	TypeSQLite   = "sqlite"
)

// Config selects and configures the request log store.
type Config struct {
	Type       string `json:"type" yaml:"type"`
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = TypeNone
	}
	if c.Type == TypeRotating {
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 50
		}
		if c.MaxBackups == 0 {
			c.MaxBackups = 5
		}
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Type {
	case TypeNone, "":
		return nil
	case TypeJSONL, TypeRotating, TypeSQLite:
		if c.Path == "" {
			return fmt.Errorf("request_log.path is required for %s", c.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown request_log.type %q", c.Type)
	}
}

// New opens the store described by cfg.
func New(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeJSONL:
		return NewJSONLStore(cfg.Path)
	case TypeRotating:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case TypeSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return NopStore{}, nil
	}
}
