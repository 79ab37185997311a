package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig   Phase = "config"   // configuration loading and validation
	PhaseAnalyze  Phase = "analyze"  // shape analysis of a type
	PhaseLookup   Phase = "lookup"   // built-in and generic shape lookup
	PhaseEmit     Phase = "emit"     // emitter creation and routine emission
	PhaseCompile  Phase = "compile"  // program compilation into a codec
	PhaseFinalize Phase = "finalize" // session finalization and persistence
	PhaseEncode   Phase = "encode"   // Go to wire
	PhaseDecode   Phase = "decode"   // wire to Go
	PhaseLoad     Phase = "load"     // artifact loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidArgument      Kind = "invalid_argument"
	KindUnsupportedFamily    Kind = "unsupported_family"
	KindDuplicateGeneration  Kind = "duplicate_generation"
	KindIncompleteGeneration Kind = "incomplete_generation"
	KindInvalidSessionState  Kind = "invalid_session_state"
	KindIOFailure            Kind = "io_failure"
	KindTypeMismatch         Kind = "type_mismatch"
	KindInvalidData          Kind = "invalid_data"
	KindInvalidEnum          Kind = "invalid_enum"
	KindOverflow             Kind = "overflow"
	KindUnsupported          Kind = "unsupported"
	KindNotFound             Kind = "not_found"
	KindNilPointer           Kind = "nil_pointer"
)

// Kind-only sentinels for errors.Is. They match an error of the same kind
// regardless of phase.
var (
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrUnsupportedFamily    = &Error{Kind: KindUnsupportedFamily}
	ErrDuplicateGeneration  = &Error{Kind: KindDuplicateGeneration}
	ErrIncompleteGeneration = &Error{Kind: KindIncompleteGeneration}
	ErrInvalidSessionState  = &Error{Kind: KindInvalidSessionState}
	ErrIOFailure            = &Error{Kind: KindIOFailure}
	ErrTypeMismatch         = &Error{Kind: KindTypeMismatch}
	ErrInvalidData          = &Error{Kind: KindInvalidData}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	WireType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WireType != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.WireType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", wire type ")
			b.WriteString(e.WireType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("wire type ")
			b.WriteString(e.WireType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WireType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WireType sets the expected wire type name
func (b *Builder) WireType(t string) *Builder {
	b.err.WireType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// UnsupportedFamily creates an error for an emitter family that does not fit the type
func UnsupportedFamily(goType, family, detail string) *Error {
	return &Error{
		Phase:  PhaseEmit,
		Kind:   KindUnsupportedFamily,
		GoType: goType,
		Detail: fmt.Sprintf("%s family: %s", family, detail),
	}
}

// DuplicateGeneration creates an error for a type generated twice in one session
func DuplicateGeneration(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateGeneration,
		GoType: goType,
		Detail: "codec already generated in this session",
	}
}

// IncompleteGeneration creates an error naming the types left mid-pipeline
func IncompleteGeneration(types []string) *Error {
	return &Error{
		Phase:  PhaseFinalize,
		Kind:   KindIncompleteGeneration,
		Value:  types,
		Detail: fmt.Sprintf("%d type(s) not finalized: %s", len(types), strings.Join(types, ", ")),
	}
}

// InvalidSessionState creates an error for an operation the session state forbids
func InvalidSessionState(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidSessionState,
		Detail: detail,
	}
}

// IOFailure wraps a storage error without altering it
func IOFailure(phase Phase, path string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIOFailure,
		Detail: path,
		Cause:  cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, wireType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		WireType: wireType,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		GoType: enumType,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
