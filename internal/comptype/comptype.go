// Package comptype is the store of declared but not yet instantiated
// component types, each retaining its unresolved body.
package comptype

import (
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
)

// Param is a formal parameter on a component type: a name, its declared
// SystemRDL type (carried as the grammar's own type-name text; this core
// does not re-implement SystemRDL's parameter type system beyond what the
// evaluator needs to bind a value), and an optional default expression.
type Param struct {
	Name        string
	DeclaredType string
	Default     ast.Node // nil if the parameter has no default
}

// RangeForm distinguishes field bit-range suffix spellings.
type RangeForm int

const (
	RangeNone RangeForm = iota
	RangeMSBLSB
	RangeWidth
)

// RangeSuffix is a field's `[msb:lsb]` or `[width]` suffix.
type RangeSuffix struct {
	Form  RangeForm
	MSB   ast.Node
	LSB   ast.Node
	Width ast.Node
}

// Actual is one actual parameter at an instantiation site, bound either by
// position (Name == "") or by name.
type Actual struct {
	Name string
	Expr ast.Node
}

// InstanceDecl is an unresolved instance declaration within a component
// body: `T inst(<params>) [<dims>] @ <offset> += <stride> %= <align>`
//.
type InstanceDecl struct {
	TypeName     string // "" if AnonType is set instead
	AnonType     *Type
	InstanceName string
	Actuals      []Actual
	ArrayDims    []ast.Node // outer-to-inner dimension size expressions
	OffsetExpr   ast.Node
	StrideExpr   ast.Node
	AlignExpr    ast.Node
	Range        RangeSuffix // only meaningful for field instances
	Src          ast.Node
}

// PropAssign is a local (`p = expr;`), default (`default p = expr;`), or
// dynamic (`a.b.p = expr;`) property assignment. TargetPath is nil for
// local/default assignments and holds the dotted instance path's
// identifiers for dynamic assignments.
type PropAssign struct {
	TargetPath []string
	PropName   string
	Expr       ast.Node
	Src        ast.Node
}

// BodyItemKind is the closed set of things that can appear in a component
// body.
type BodyItemKind int

const (
	BodyNestedType BodyItemKind = iota
	BodyInstance
	BodyLocalProp
	BodyDynamicProp
	BodyDefaultProp
	BodyEnumDef
	BodyStructDef
)

// BodyItem is one ordered entry in a component type's body.
type BodyItem struct {
	Kind       BodyItemKind
	NestedType *Type
	Instance   *InstanceDecl
	Prop       *PropAssign
	EnumDef    *EnumDef
	StructDef  *StructDef
}

// EnumDef is a named or locally-scoped enum definition.
type EnumDef struct {
	Name        string
	Enumerators []Enumerator
	Src         ast.Node
}

// Enumerator is one `name = value` member of an EnumDef.
type Enumerator struct {
	Name  string
	Value ast.Node
}

// StructDef is a named struct definition: an ordered list of typed fields.
type StructDef struct {
	Name   string
	Fields []StructField
	Src    ast.Node
}

// StructField is one `type name;` member of a StructDef.
type StructField struct {
	Name         string
	DeclaredType string
}

// Type is a declared but uninstantiated component blueprint. Types are
// immutable once registered and capture no addresses.
type Type struct {
	Kind   string // one of addrmap, regfile, reg, field, mem
	Name   string // "" if anonymous
	Params []Param
	Body   []BodyItem
	Src    ast.Node
}

// legalChildKinds is the closed table of which component kinds may
// directly contain which other kinds.
var legalChildKinds = map[string]map[string]bool{
	"addrmap": {"addrmap": true, "regfile": true, "reg": true, "mem": true},
	"regfile": {"regfile": true, "reg": true},
	"reg":     {"field": true},
	"mem":     {"reg": true},
	"field":   {},
}

// LegalChild reports whether childKind may be instantiated directly inside
// a component of kind parentKind.
func LegalChild(parentKind, childKind string) bool {
	allowed, ok := legalChildKinds[parentKind]
	if !ok {
		return false
	}
	return allowed[childKind]
}
