// Package output renders worldsave-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables built from structs, slices and maps
//   - json.go, yaml.go: machine-readable output for scripting
//   - spinner.go: activity indicator for long saves and loads
package output
