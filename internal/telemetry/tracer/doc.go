// Package tracer provides OpenTelemetry tracing for worldsave.
//
// Spans are produced by an sdktrace provider. Without an explicit exporter
// finished spans are written to the application logger at debug level.
package tracer
