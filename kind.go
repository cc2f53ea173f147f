package jannotate

// Kind is the coarse shape of a JSON value as seen by the annotator.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
	KindDirective
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindObject:    "object",
	KindArray:     "array",
	KindDirective: "directive",
}

// String returns the canonical type tag of k. Directive values carry their own
// tag, see TypeName.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// IsScalar reports whether values of kind k are annotated as leaves.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindNumber, KindString, KindDirective:
		return true
	}
	return false
}

// KindOf classifies v. Objects are Document or map[string]any, arrays are
// Array or []any. Every Go integer and float type counts as a number. Values
// no JSON decoder would produce are KindInvalid.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case Document, map[string]any:
		return KindObject
	case Array, []any:
		return KindArray
	case Directive:
		return KindDirective
	}
	return KindInvalid
}

// TypeName resolves the type tag of a value: the kind name for plain JSON
// values, the directive name for directive values.
func TypeName(v any) string {
	if d, ok := v.(Directive); ok {
		return d.Name
	}
	return KindOf(v).String()
}
