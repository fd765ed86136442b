// Package domain defines the core domain models for worldsave.
//
// Domain models are pure values without IO dependencies. This package
// contains:
//
//   - Kind: the closed set of tags a host attaches to the nodes it exposes
//   - Identity: the host-supplied stable key of an instance
//   - Node: the persisted value union (Null, Number, Text, Reference, List,
//     Instance, Cell)
//   - World: a decoded snapshot with reference resolution
//   - Warning: a per-node problem that did not abort a Save
//   - Errors: structured error codes for the save/load pipeline
package domain
