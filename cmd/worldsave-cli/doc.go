// Package main provides the entry point for worldsave-cli.
//
// The CLI works on snapshot directories directly:
//
//	worldsave-cli save --world world.yaml --dir ./save
//	worldsave-cli load --dir ./save --export out.yaml
//	worldsave-cli inspect --dir ./save -o json
//	worldsave-cli history --limit 10
//
// and talks to a running worldsave-server:
//
//	worldsave-cli call save_world_save
//	worldsave-cli shell
//	worldsave-cli status
package main
