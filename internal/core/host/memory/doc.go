// Package memory provides an in-memory host: a mutable object graph of
// cells, instances, lists and primitives that implements host.Host and
// host.Restorer.
//
// Worlds are built in code with the constructors in this package or read
// from YAML fixtures (see ReadFixture). A loaded snapshot can be turned back
// into a live graph with Rebuild, which maps every reference id onto one
// shared *Object.
package memory
