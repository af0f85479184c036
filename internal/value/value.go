// Package value is the property-value sum type: a property value is one of
// signed integer, boolean, string, enumerator reference, or reference to
// another elaborated node, with structural equality. It is a closed Kind
// plus one field per kind rather than a tagged-union struct.
//
// The Int/Bool/Str kinds are backed by github.com/zclconf/go-cty's
// cty.Value, the typed-value representation HCL-based tooling elsewhere in
// this stack threads through its own expression evaluation.
package value

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// Kind is the closed set of property value kinds.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindStr
	KindEnum
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStr:
		return "string"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// PathSegment is one step of a NodePath: an instance name plus, for array
// instances, the element indices selected at that step.
type PathSegment struct {
	Name    string
	Indices []int
}

// NodePath is a stable, ordered path from the elaboration root to a node,
// used in place of a raw pointer for Ref values and for dynamic-assignment
// targets.
type NodePath []PathSegment

func (p NodePath) String() string {
	s := ""
	for i, seg := range p {
		if i > 0 {
			s += "."
		}
		s += seg.Name
		for _, idx := range seg.Indices {
			s += fmt.Sprintf("[%d]", idx)
		}
	}
	return s
}

// Equal reports structural equality between two paths.
func (p NodePath) Equal(o NodePath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i].Name != o[i].Name || len(p[i].Indices) != len(o[i].Indices) {
			return false
		}
		for j := range p[i].Indices {
			if p[i].Indices[j] != o[i].Indices[j] {
				return false
			}
		}
	}
	return true
}

// EnumVal is an enumerator reference: a qualified type name plus its
// integer value.
type EnumVal struct {
	TypeName string
	Name     string
	Val      int64
}

// Value is a concrete SystemRDL property value.
type Value struct {
	kind Kind
	cty  cty.Value // valid for KindInt, KindBool, KindStr
	enum EnumVal   // valid for KindEnum
	ref  NodePath  // valid for KindRef

	// width is the bit width an integer literal carried explicitly, or 0
	// if the value is unwidthed.
	width int
}

// Int builds an unwidthed signed-integer value.
func Int(n int64) Value {
	return Value{kind: KindInt, cty: cty.NumberIntVal(n)}
}

// WidthedInt builds a signed-integer value that carries an explicit bit
// width, as produced by a literal like 8'hFF.
func WidthedInt(n int64, width int) Value {
	return Value{kind: KindInt, cty: cty.NumberIntVal(n), width: width}
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, cty: cty.BoolVal(b)}
}

// Str builds a string value.
func Str(s string) Value {
	return Value{kind: KindStr, cty: cty.StringVal(s)}
}

// Enum builds an enumerator-reference value.
func Enum(e EnumVal) Value {
	return Value{kind: KindEnum, enum: e}
}

// Ref builds a node-reference value.
func Ref(p NodePath) Value {
	return Value{kind: KindRef, ref: p}
}

// Kind reports the value's dynamic kind.
func (v Value) Kind() Kind { return v.kind }

// Width reports the explicit bit width an integer value carries, or 0 if
// none was given.
func (v Value) Width() int { return v.width }

// Int64 returns the integer value, panicking if Kind() != KindInt.
func (v Value) Int64() int64 {
	if v.kind != KindInt {
		panic("value: Int64 on non-int Value")
	}
	bf := v.cty.AsBigFloat()
	i, _ := bf.Int64()
	return i
}

// BigFloat exposes the underlying arbitrary-precision magnitude.
func (v Value) BigFloat() *big.Float {
	if v.kind != KindInt {
		panic("value: BigFloat on non-int Value")
	}
	return v.cty.AsBigFloat()
}

// Bool returns the boolean value, panicking if Kind() != KindBool.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic("value: Bool on non-bool Value")
	}
	return v.cty.True()
}

// Str returns the string value, panicking if Kind() != KindStr.
func (v Value) Str() string {
	if v.kind != KindStr {
		panic("value: Str on non-string Value")
	}
	return v.cty.AsString()
}

// EnumVal returns the enumerator reference, panicking if Kind() != KindEnum.
func (v Value) EnumVal() EnumVal {
	if v.kind != KindEnum {
		panic("value: EnumVal on non-enum Value")
	}
	return v.enum
}

// Ref returns the node path, panicking if Kind() != KindRef.
func (v Value) Ref() NodePath {
	if v.kind != KindRef {
		panic("value: Ref on non-ref Value")
	}
	return v.ref
}

// AsBool converts a 0/1 integer to boolean, the one cross-kind conversion
// allowed when assigning an integer to a boolean property. A boolean value
// is returned as is; any other value reports ok=false.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.Bool(), true
	case KindInt:
		n := v.Int64()
		if n == 0 {
			return false, true
		}
		if n == 1 {
			return true, true
		}
	}
	return false, false
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.width == o.width && v.cty.RawEquals(o.cty)
	case KindBool, KindStr:
		return v.cty.RawEquals(o.cty)
	case KindEnum:
		return v.enum == o.enum
	case KindRef:
		return v.ref.Equal(o.ref)
	}
	return false
}

// String renders a value for diagnostics and debugging.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return v.cty.AsBigFloat().Text('d', 0)
	case KindBool:
		return fmt.Sprintf("%v", v.Bool())
	case KindStr:
		return fmt.Sprintf("%q", v.Str())
	case KindEnum:
		return fmt.Sprintf("%s::%s", v.enum.TypeName, v.enum.Name)
	case KindRef:
		return v.ref.String()
	}
	return "<invalid>"
}

// MarshalJSON serializes a value as its JSON-native form: number for an
// int, bool for a bool, and string for a string or an enum (the
// enumerator's plain name).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(v.cty.AsBigFloat().Text('f', 0)), nil
	case KindBool:
		if v.Bool() {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindStr:
		return jsonString(v.Str()), nil
	case KindEnum:
		return jsonString(v.enum.Name), nil
	case KindRef:
		return jsonString(v.ref.String()), nil
	}
	return []byte("null"), nil
}

func jsonString(s string) []byte {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	for _, r := range s {
		switch r {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		default:
			b = append(b, string(r)...)
		}
	}
	b = append(b, '"')
	return b
}
