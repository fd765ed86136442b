// Package entrypoint is the host-facing boundary of worldsave.
//
// A Table is built once at process start from a single WorldSave and
// maps entry names to handlers. Every handler answers with a status
// string: "ok" or "failed" for the world save entries, "pong" for ping.
// Failures are logged here; the host only ever sees the status.
package entrypoint
