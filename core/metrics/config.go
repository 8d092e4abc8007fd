package metrics

import "github.com/kilianp07/lineup/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr exposes /metrics when set, for example ":9090".
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// AsyncBuffer is the queue length between the solver and slow sinks.
	AsyncBuffer int `json:"async_buffer" yaml:"async_buffer"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.AsyncBuffer <= 0 {
		c.AsyncBuffer = 64
	}
}
