// Package infra holds the adapters around the optimizer core: the zerolog
// logger, metrics sinks, Sentry, the MQTT transport and the SQLite catalog
// store. Core packages never import infra.
package infra
