// Package observability bundles the operational surface of Confide: the
// structured slog logger, Prometheus metrics, health probes, OpenTelemetry
// setup, panic recovery helpers, and graceful shutdown orchestration.
//
// The API server wires these together in cmd/confide; individual packages
// depend only on the pieces they use.
package observability
