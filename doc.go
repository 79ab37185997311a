// Package codecgen provisions MessagePack codecs for Go types.
//
// Each type is served by exactly one codec per session: a built-in codec for
// well-known primitives, a codec derived from a generic container shape, or
// a specialized codec whose encode and decode routines are generated as a
// small bytecode program. Generated programs are persisted as one reusable
// artifact per session, a WebAssembly module made only of custom sections.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	codecgen/
//	├── serialization/   High-level API: provision a type graph, Marshal/Unmarshal, Load
//	├── codegen/         Generation session: strategy decisions and lifecycle
//	├── emit/            Emission environment and emitters that build programs
//	├── program/         Bytecode programs and the engine that executes them
//	├── unit/            Output unit: manifest, codec sections, .wasm persistence
//	├── registry/        Built-in codec registry
//	├── generic/         Generic shape resolver for containers
//	├── shape/           Type descriptors, shape traits, members and WIT shapes
//	├── wire/            MessagePack codec primitives
//	├── config/          Configuration loading and validation
//	├── errors/          Structured error types for debugging
//	└── cmd/codecgen/    Artifact inspector
//
// # Quick Start
//
//	ctx, err := serialization.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := serialization.Get[Order](ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, err := s.Marshal(order)
//
//	paths, err := ctx.Generate() // writes <name>.wasm
//
// A later process reuses the generated programs with Context.Load.
//
// # Strategy Selection
//
// Built-in matches are checked first, then generic shapes, then generation.
// When the policy prefers specialized codecs, generic shapes are skipped
// entirely and every non built-in type gets a generated program.
//
// # Thread Safety
//
// Codecs and serializers are safe for concurrent use. A generation session is
// single-writer; serialization.Context serializes provisioning, while shape
// analysis of a type graph runs in parallel.
package codecgen
