// Package config holds worldsave-cli preferences (~/.worldsave/cli.yaml).
//
// The profile supplies defaults for global flags: the server socket and
// HTTP address, the output format, the server configuration file used for
// offline save and load, and the catalog directory. A flag given on the
// command line always wins.
package config
