// Package localserver serves the entry-point table over a Unix domain
// socket.
//
// The protocol is line based. A request is one line holding the entry
// name followed by space separated arguments:
//
//	init_world_save path=/srv/world/save
//	save_world_save
//
// Each request is answered with one line: the entry's status ("ok",
// "failed", "pong") or "error: <message>" when the request itself is
// malformed. A connection may carry any number of requests.
//
// Access is controlled by file system permissions on the socket; the
// socket is created with mode 0600.
package localserver
