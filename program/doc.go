// Package program defines codec programs and the engine that executes them.
//
// A Program is the persisted form of a specialized codec: an encode and a
// decode instruction list for one Go type, plus the enumeration symbol table
// where relevant. Emitters produce programs; Compile binds a program to a
// concrete Go type and returns a wire.Codec that interprets it.
//
// # Records
//
// Array layout writes members positionally:
//
//	encode: OpArrayHeader n, OpField...
//	decode: OpArrayHeader n, OpField..., OpSkipRest
//
// Map layout writes a key before each member and dispatches on keys when
// decoding:
//
//	encode: OpMapHeader n, (OpKey, OpField)...
//	decode: OpMapHeader n, OpDispatch n, (OpKey, OpField)..., OpSkipRest
//
// Decoding tolerates fewer elements than members (missing members stay zero),
// skips surplus elements and unknown keys, and decodes nil as the zero value.
//
// # Containers and scalars
//
// Sequences, arrays, mappings, sets, pointers and named scalars compile to a
// single instruction naming the element type identities.
//
// # Binary form
//
// MarshalBinary frames a program with LEB128 integers and length-prefixed
// strings. The encoding is deterministic, so two identical programs produce
// identical bytes.
package program
