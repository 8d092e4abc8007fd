// Package metrics defines the events emitted by the lineup optimizer and the
// sink interfaces that record them. Sinks like PromSink and InfluxSink live in
// infra/metrics and register themselves by name; NewMetricsSink builds the
// configured set and wraps several sinks in a MultiSink.
package metrics
