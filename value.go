package atomstore

import "slices"

// Kind identifies the element type of an array or value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindFloat represents float64 elements.
	KindFloat
	// KindInt represents int64 elements.
	KindInt
	// KindString represents string elements.
	KindString
	// KindBool represents boolean elements.
	KindBool
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// kindByName is the inverse of Kind.String, used when restoring persisted
// registry metadata.
func kindByName(name string) (Kind, bool) {
	switch name {
	case "float":
		return KindFloat, true
	case "int":
		return KindInt, true
	case "string":
		return KindString, true
	case "bool":
		return KindBool, true
	default:
		return KindInvalid, false
	}
}

// Per declares whether an array holds one record per structure or one record
// per atom.
type Per uint8

const (
	// PerAuto lets AddStructure infer the per kind from the value's leading
	// dimension: a leading dimension equal to the structure's atom count is
	// treated as per-atom, anything else as per-structure. The inference is
	// ambiguous for one-atom structures; pass PerStructure or PerAtom
	// explicitly to avoid it.
	PerAuto Per = iota
	// PerStructure marks data with one record per stored structure.
	PerStructure
	// PerAtom marks data with one record per atom, concatenated across all
	// structures in insertion order.
	PerAtom
)

// String returns the string representation of the Per kind.
func (p Per) String() string {
	switch p {
	case PerStructure:
		return "structure"
	case PerAtom:
		return "atom"
	default:
		return "auto"
	}
}

// Value is a small typed n-dimensional value.
//
// It is used both for custom data handed to AddStructure/SetArray and for
// data returned by GetArray. Exactly one payload slice is populated,
// determined by Kind; Shape describes the value's dimensions, with nil
// meaning scalar. The number of payload elements always equals the product
// of Shape.
//
// Values returned by accessors may alias the container's internal buffers;
// mutate them only through SetArray, or Clone first.
type Value struct {
	Kind  Kind
	Per   Per
	Shape []int
	F64   []float64
	I64   []int64
	S     []string
	B     []bool
}

// Float returns a scalar float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: []float64{v}} }

// Int returns a scalar int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: []int64{v}} }

// String returns a scalar string Value.
func String(v string) Value { return Value{Kind: KindString, S: []string{v}} }

// Bool returns a scalar boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: []bool{v}} }

// Floats returns a float64 array Value with the given shape.
// With no shape given, the value is one-dimensional.
func Floats(data []float64, shape ...int) Value {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return Value{Kind: KindFloat, Shape: shape, F64: data}
}

// Ints returns an int64 array Value with the given shape.
func Ints(data []int64, shape ...int) Value {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return Value{Kind: KindInt, Shape: shape, I64: data}
}

// Strings returns a string array Value with the given shape.
func Strings(data []string, shape ...int) Value {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return Value{Kind: KindString, Shape: shape, S: data}
}

// Bools returns a boolean array Value with the given shape.
func Bools(data []bool, shape ...int) Value {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return Value{Kind: KindBool, Shape: shape, B: data}
}

// Tag returns a copy of the value with an explicit per kind, bypassing
// leading-dimension inference in AddStructure.
func (v Value) Tag(per Per) Value {
	v.Per = per
	return v
}

// IsScalar reports whether the value has no dimensions.
func (v Value) IsScalar() bool { return len(v.Shape) == 0 }

// NumElements returns the number of payload elements.
func (v Value) NumElements() int {
	switch v.Kind {
	case KindFloat:
		return len(v.F64)
	case KindInt:
		return len(v.I64)
	case KindString:
		return len(v.S)
	case KindBool:
		return len(v.B)
	default:
		return 0
	}
}

// AsFloat64 returns the scalar float64 payload if Kind is KindFloat and the
// value is scalar.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat || len(v.F64) != 1 || !v.IsScalar() {
		return 0, false
	}
	return v.F64[0], true
}

// AsInt64 returns the scalar int64 payload if Kind is KindInt and the value
// is scalar.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt || len(v.I64) != 1 || !v.IsScalar() {
		return 0, false
	}
	return v.I64[0], true
}

// AsString returns the scalar string payload if Kind is KindString and the
// value is scalar.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString || len(v.S) != 1 || !v.IsScalar() {
		return "", false
	}
	return v.S[0], true
}

// AsBool returns the scalar boolean payload if Kind is KindBool and the
// value is scalar.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool || len(v.B) != 1 || !v.IsScalar() {
		return false, false
	}
	return v.B[0], true
}

// Equal reports whether two values hold the same kind, shape and payload.
// The per tag is ignored.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind || !slices.Equal(v.Shape, other.Shape) {
		return false
	}
	switch v.Kind {
	case KindFloat:
		return slices.Equal(v.F64, other.F64)
	case KindInt:
		return slices.Equal(v.I64, other.I64)
	case KindString:
		return slices.Equal(v.S, other.S)
	case KindBool:
		return slices.Equal(v.B, other.B)
	default:
		return true
	}
}

// Clone creates a deep copy of the value.
//
// Accessors return aliasing views into the container; Clone detaches a value
// from the backing buffers.
func (v Value) Clone() Value {
	v.Shape = slices.Clone(v.Shape)
	v.F64 = slices.Clone(v.F64)
	v.I64 = slices.Clone(v.I64)
	v.S = slices.Clone(v.S)
	v.B = slices.Clone(v.B)
	return v
}

// validate reports whether the payload is consistent with kind and shape.
func (v Value) validate() bool {
	if v.Kind == KindInvalid || v.Kind > KindBool {
		return false
	}
	return v.NumElements() == numElems(v.Shape)
}

// numElems returns the product of the dimensions; a nil shape is scalar.
func numElems(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}
