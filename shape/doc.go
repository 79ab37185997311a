// Package shape describes Go types for codec provisioning.
//
// A Descriptor identifies the type being provisioned; Traits describe the
// container shape it exposes. Both are computed without side effects, so
// Analyze and AnalyzeAll are safe to run concurrently across many candidate
// types before the single-writer generation phase.
//
//	desc, _ := shape.Describe(reflect.TypeFor[IntList]())
//	traits, _ := shape.Analyze(desc)
//	traits.Kind // KindSequence
//
// Finite symbolic value types (enumerations) carry a symbol table, either
// declared by implementing Enumerated or supplied with WithSymbols.
//
// Record members are discovered through the sentinel metadata cache, falling
// back to reflection for types sentinel has not scanned.
package shape
