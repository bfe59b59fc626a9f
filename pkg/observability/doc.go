// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry initialization, and health checks for the Gearbox services.
package observability
