// Package config defines the worldsave-server configuration.
//
// Values are layered by confloader: Default(), then the YAML file, then
// WORLDSAVE_ environment variables. Verify rejects a configuration the
// server cannot start with; Sanitize masks secrets before logging.
package config
