// Package scope is a lexically scoped name resolver for component types,
// parameter bindings, enum/struct definitions, and in-progress elaborated
// siblings.
package scope

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/propschema"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

// Kind is the closed set of things a name can be bound to: a component
// type, a parameter value, an enum/struct definition, an elaborated node
// (for in-progress siblings), or a property alias.
type Kind int

const (
	KindComponentType Kind = iota
	KindParam
	KindEnumDef
	KindStructDef
	KindNode
	KindPropertyAlias
	KindBuiltinKind
)

// Binding is one scope entry. Payload's concrete type depends on Kind and
// is owned by the caller (internal/comptype for KindComponentType,
// internal/value for KindParam, etc.) so this package has no import-cycle
// dependency on them.
type Binding struct {
	Kind    Kind
	Payload interface{}
}

// EnumDef is the payload of a KindEnumDef binding: an ordered set of
// (name, value) enumerators sharing a type name.
type EnumDef struct {
	TypeName    string
	Enumerators []value.EnumVal
}

// Lookup finds an enumerator by simple name within this definition.
func (e EnumDef) Lookup(name string) (value.EnumVal, bool) {
	for _, en := range e.Enumerators {
		if en.Name == name {
			return en, true
		}
	}
	return value.EnumVal{}, false
}

// DuplicateNameError reports declare() finding name already bound in the
// current scope.
type DuplicateNameError struct{ Name string }

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("name %q already declared in this scope", e.Name)
}

// UnresolvedNameError reports lookup() finding no scope with a matching
// declaration. Suggestion is a nearest-match name from the
// visible scope chain, computed with a Levenshtein distance the way a
// "did you mean" hint is computed, or "" if nothing is close enough.
type UnresolvedNameError struct {
	Name       string
	Suggestion string
}

func (e *UnresolvedNameError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unresolved name %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unresolved name %q", e.Name)
}

type frame struct {
	bindings map[string]Binding
}

// Table is a stack of scopes; lookups walk inward (top of stack) to
// outward (root, at index 0).
type Table struct {
	frames []*frame
}

// NewRoot builds the lexical root scope: the built-in component kinds, the
// built-in properties' enum domains (sw/hw access values, onread/onwrite
// behaviors, addressing modes), all pre-populated from the same schema the
// elaborator's property type-checking uses.
func NewRoot(schema *propschema.Schema) *Table {
	t := &Table{}
	root := &frame{bindings: make(map[string]Binding)}
	t.frames = append(t.frames, root)

	for _, kind := range []string{"addrmap", "regfile", "reg", "field", "mem"} {
		root.bindings[kind] = Binding{Kind: KindBuiltinKind, Payload: kind}
	}

	for _, enumName := range []string{"sw", "hw", "onread", "onwrite", "addressing"} {
		domain, ok := schema.EnumDomain(enumName)
		if !ok {
			continue
		}
		def := EnumDef{TypeName: enumName}
		for i, name := range domain {
			ev := value.EnumVal{TypeName: enumName, Name: name, Val: int64(i)}
			def.Enumerators = append(def.Enumerators, ev)
			// Access/behavior keywords (rw, r, w, na, rclr, woset, ...) are
			// written bare in property assignments, not qualified as
			// "sw::rw", so each member name must also resolve directly as
			// an identifier.
			if _, taken := root.bindings[name]; !taken {
				root.bindings[name] = Binding{Kind: KindParam, Payload: value.Enum(ev)}
			}
		}
		root.bindings[enumName] = Binding{Kind: KindEnumDef, Payload: def}
	}

	return t
}

// Enter pushes a new empty scope and returns a Leave function. Callers
// should use it as:
//
//	leave := table.Enter()
//	defer leave()
//
// which guarantees release on all exit paths, including panics and early
// returns on error.
func (t *Table) Enter() (leave func()) {
	t.frames = append(t.frames, &frame{bindings: make(map[string]Binding)})
	depth := len(t.frames)
	return func() {
		if len(t.frames) >= depth {
			t.frames = t.frames[:depth-1]
		}
	}
}

// Declare binds name in the current (innermost) scope. Shadowing an outer
// scope's binding is allowed; redeclaring within the same scope is not.
func (t *Table) Declare(name string, b Binding) error {
	cur := t.frames[len(t.frames)-1]
	if _, exists := cur.bindings[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	cur.bindings[name] = b
	return nil
}

// Lookup resolves a simple identifier by walking scopes from innermost to
// the lexical root.
func (t *Table) Lookup(name string) (Binding, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if b, ok := t.frames[i].bindings[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// MustLookup resolves name or returns an UnresolvedNameError carrying a
// best-effort suggestion drawn from every name currently visible.
func (t *Table) MustLookup(name string) (Binding, error) {
	if b, ok := t.Lookup(name); ok {
		return b, nil
	}
	return Binding{}, &UnresolvedNameError{Name: name, Suggestion: t.suggest(name)}
}

// VisibleNames returns every identifier bound in any currently active
// scope, innermost bindings first.
func (t *Table) VisibleNames() []string {
	seen := make(map[string]bool)
	var out []string
	for i := len(t.frames) - 1; i >= 0; i-- {
		names := make([]string, 0, len(t.frames[i].bindings))
		for n := range t.frames[i].bindings {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// suggest returns the visible name with the smallest Levenshtein distance
// to name, provided that distance is small relative to name's length
// (otherwise no suggestion is worth showing).
func (t *Table) suggest(name string) string {
	best := ""
	bestDist := -1
	for _, candidate := range t.VisibleNames() {
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	maxLen := len(name)
	if len(best) > maxLen {
		maxLen = len(best)
	}
	if bestDist < 0 || maxLen == 0 || bestDist > (maxLen+1)/2 {
		return ""
	}
	return best
}
