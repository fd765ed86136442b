// Package httpserver serves the operational HTTP endpoints of
// worldsave-server:
//
//   - GET /health   liveness
//   - GET /ready    503 until the world save has been initialized
//   - GET /status   the most recent save summary
//   - GET /metrics  Prometheus exposition
//
// Snapshot operations are not exposed over HTTP; the host drives them
// through the local entry-point socket.
package httpserver
