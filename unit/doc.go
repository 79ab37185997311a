// Package unit implements the Output Unit: the append-only collection of
// codec programs produced by one generation session, and its persisted form.
//
// # Artifact Format
//
// A unit is persisted as a WebAssembly binary that carries no code, only
// custom sections, so any wasm toolchain can load and inspect it:
//
//	\0asm 01000000
//	custom "codecgen.manifest"  CBOR manifest (attributes, codec index)
//	custom "codecgen.codec"     one per program, in append order
//
// The manifest uses CBOR core deterministic encoding. Each codec entry
// records the blake3-256 fingerprint of the uncompressed program; Decode
// rejects a section whose fingerprint does not match. When the compression
// attribute is "zstd", codec sections are zstd frames.
//
// Verify compiles the artifact with wazero to prove it is a loadable module.
package unit
