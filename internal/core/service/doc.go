// Package service implements the snapshot engine.
//
// WorldSave is the orchestrator: Save walks the host's root container
// through an Encoder and writes one blob per spatial layer plus one
// instances blob, and Load reads them back into a domain.World whose every
// reference resolves.
//
// The encoding pass is built from small single-purpose parts:
//
//   - Classify: the kind to disposition policy
//   - ReferenceTable: identity to reference id assignment for one Save
//   - InstancesPool and Partition: ordered record collectors
//   - FieldFilter: configurable skip rules evaluated per field
//
// None of these are shared between calls; WorldSave serializes Save and
// Load and builds fresh state for each.
package service
