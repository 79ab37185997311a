package codegen

// Strategy is how a type's codec is provided.
type Strategy uint8

const (
	StrategyNone Strategy = iota
	BuiltIn               // exact registry match
	GenericShape          // derived from a container shape
	Specialized           // generated program
)

var strategyNames = [...]string{
	StrategyNone: "none",
	BuiltIn:      "built-in",
	GenericShape: "generic-shape",
	Specialized:  "specialized",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown"
}

// TypeState is the position of a type in the provisioning pipeline.
type TypeState uint8

const (
	Unresolved TypeState = iota
	BuiltInMatched
	ShapeMatched
	SpecializedPending
	EmitterCreated
	RoutinesEmitted
	Finalized
)

var typeStateNames = [...]string{
	Unresolved:         "unresolved",
	BuiltInMatched:     "built-in-matched",
	ShapeMatched:       "shape-matched",
	SpecializedPending: "specialized-pending",
	EmitterCreated:     "emitter-created",
	RoutinesEmitted:    "routines-emitted",
	Finalized:          "finalized",
}

func (s TypeState) String() string {
	if int(s) < len(typeStateNames) {
		return typeStateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further work is pending for the type.
func (s TypeState) Terminal() bool {
	return s == Finalized
}

func matchedState(st Strategy) TypeState {
	switch st {
	case BuiltIn:
		return BuiltInMatched
	case GenericShape:
		return ShapeMatched
	default:
		return SpecializedPending
	}
}
