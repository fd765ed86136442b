// Package partition manages the files of a world snapshot directory.
//
// A snapshot directory holds one instances file and one file per spatial
// layer:
//
//	<dir>/instances.spsf
//	<dir>/z0.spsf
//	<dir>/z1.spsf
//	...
//
// Every file is a frame:
//
//	[magic "WSAVSPSF"][hdrLen u32][header JSON][dataLen u32][data][murmur3-64]
//
// Integers are big-endian; the trailing checksum covers every preceding
// byte. The data section is the codec payload, optionally zstd compressed
// and then sealed with XChaCha20-Poly1305 under a passphrase-derived key
// with the header bytes as associated data.
//
// Writes are staged: OpenOutputs creates hidden temp files, Commit fills
// them, and CloseAll(true) syncs and renames them into place, layers first
// and the instances file last. The instances header names the run ID and
// layer count, so a reader can tell a layer file from a different run.
package partition
