// Package host defines the collaborator interfaces the snapshot engine
// consumes from the runtime that owns the live world.
//
// The engine never mutates a host. It reads the world bounds, the save
// path and the root container, and walks nodes through the Node interface.
// A host that also implements Restorer receives the decoded world after a
// successful Load.
package host
