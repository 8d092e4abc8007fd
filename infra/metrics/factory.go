package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/lineup/core/factory"
	coremetrics "github.com/kilianp07/lineup/core/metrics"
)

// Sink type names accepted in metrics.sinks.
const (
	SinkNop        = "nop"
	SinkPrometheus = "prometheus"
	SinkInflux     = "influx"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink(SinkNop, func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink(SinkPrometheus, func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink(SinkInflux, func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
