package shape

// Kind is the container shape a type exposes.
type Kind uint8

const (
	KindNone Kind = iota
	KindScalar
	KindBytes
	KindSequence
	KindArray
	KindMapping
	KindSet
	KindNullable
	KindRecord
	KindEnumeration
	KindDynamic
	KindUnsupported
)

var kindNames = [...]string{
	KindNone:        "none",
	KindScalar:      "scalar",
	KindBytes:       "bytes",
	KindSequence:    "sequence",
	KindArray:       "array",
	KindMapping:     "mapping",
	KindSet:         "set",
	KindNullable:    "nullable",
	KindRecord:      "record",
	KindEnumeration: "enumeration",
	KindDynamic:     "dynamic",
	KindUnsupported: "unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsContainer reports whether k is one of the structurally recognized
// collection shapes.
func (k Kind) IsContainer() bool {
	switch k {
	case KindSequence, KindArray, KindMapping, KindSet, KindNullable:
		return true
	default:
		return false
	}
}
