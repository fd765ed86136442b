// Package codec converts encoded records to and from bytes.
//
// Two wire formats are provided:
//
//   - proto: protobuf wire format written with protowire, the default
//   - msgpack: MessagePack arrays, compatible with hosts that read msgpack
//
// A blob is an ordered sequence of records. Each record is a domain.Node;
// the instances blob carries *domain.Instance records optionally followed by
// one domain.List of roots, a layer blob carries *domain.Cell records.
//
// Decoding failures of any kind are reported as domain.ErrCorruptData.
package codec
