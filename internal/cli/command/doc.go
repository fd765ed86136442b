// Package command defines the worldsave-cli commands.
//
// Offline commands work on snapshot directories directly:
//
//	save     encode a YAML world fixture into a snapshot
//	load     decode a snapshot, optionally exporting it as a fixture
//	inspect  verify and describe snapshot file headers
//	history  list recorded saves from the catalog
//
// Remote commands talk to a running worldsave-server:
//
//	call     run one entry over the local socket
//	shell    interactive entry shell
//	status   health and last save over HTTP
package command
