// Package main provides the entry point for worldsave-server.
//
// The server hosts an in-memory world and exposes the save engine through:
//
//   - a local Unix socket carrying the entry points init_world_save,
//     save_world_save, load_world_save and ping
//   - an HTTP listener with /health, /ready, /status and /metrics
//
// Usage:
//
//	worldsave-server [flags]
//	worldsave-server --config /etc/worldsave/server.yaml
//
// Settings come from the config file and WORLDSAVE_* environment
// variables. Changing log.level in the file takes effect without a
// restart.
package main
