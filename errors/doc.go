// Package errors provides structured error types for the codec generation pipeline.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type and wire type names, and
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEmit, errors.KindUnsupportedFamily).
//		GoType("main.Color").
//		Detail("enumeration types need the enumeration family").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateGeneration(errors.PhaseEmit, "main.Point")
//	err := errors.TypeMismatch(errors.PhaseDecode, path, "int", "str")
//
// Kind-only sentinels match an error of that kind in any phase:
//
//	if stderrors.Is(err, errors.ErrIncompleteGeneration) { ... }
//
// All errors implement the standard error interface and work with the
// standard library errors.Is and errors.As.
package errors
