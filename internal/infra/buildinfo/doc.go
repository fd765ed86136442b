// Package buildinfo reports the version of the running binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/worldsave-go/internal/infra/buildinfo.Version=v1.2.0"
//
// Values left unset fall back to what the Go toolchain recorded in the
// binary.
package buildinfo
