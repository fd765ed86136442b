// Package connection talks to a running worldsave-server.
//
//   - socket.go: entry-point calls over the local Unix socket
//   - http.go: read-only status and health queries over HTTP
package connection
