// Package confloader loads layered configuration with koanf.
//
// Sources, from lowest to highest priority:
//
//  1. Defaults already present in the target struct
//  2. A YAML file
//  3. WORLDSAVE_ environment variables
//  4. Values passed with LoadMap, typically command-line flags
//
// Environment keys use a double underscore between sections so that
// single underscores can appear in key names:
//
//	WORLDSAVE_SNAPSHOT__LAYER_FORMAT=z%d  ->  snapshot.layer_format
//
// Watcher reports edits to a loaded file so the server can re-apply the
// settings that are safe to change at run time.
package confloader
