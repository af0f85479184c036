// Package elaborate is the central algorithm that walks instance
// declarations in source order, materializing elaborated nodes from
// registered component types under fresh parameter bindings, and runs the
// post-elaboration validation checks that happen at register and parent
// scope.
package elaborate

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/comptype"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/diag"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/eval"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/node"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/propschema"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/scope"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/validate"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

// Elaborator drives a single elaboration run. It is a short-lived,
// single-invocation object and is not safe to reuse concurrently.
type Elaborator struct {
	schema *propschema.Schema
}

// New builds an Elaborator against the given property schema.
func New(schema *propschema.Schema) *Elaborator {
	return &Elaborator{schema: schema}
}

// Elaborate consumes root and produces the root elaborated node, or a
// non-empty diagnostic list on failure.
func (el *Elaborator) Elaborate(root ast.Node) (*node.Node, diag.Diagnostics) {
	var diags diag.Diagnostics
	sc := scope.NewRoot(el.schema)

	topItems, regDiags := comptype.RegisterPass1(root, sc)
	diags = append(diags, regDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	topDecl, topType, resolveDiags := findTopLevel(topItems, sc)
	diags = append(diags, resolveDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	inst := &instantiator{schema: el.schema, diags: &diags}
	n := inst.instantiateTop(topDecl, topType, sc)
	if diags.HasErrors() {
		return nil, diags
	}

	diags = append(diags, validate.Tree(n)...)
	if diags.HasErrors() {
		return nil, diags
	}
	return n, diags
}

// findTopLevel locates the instance to drive Pass 2 from: an
// explicit top-level instance declaration if present, else the sole
// top-level addrmap type, auto-instantiated at its own name and address 0.
func findTopLevel(topItems []ast.Node, sc *scope.Table) (*comptype.InstanceDecl, *comptype.Type, diag.Diagnostics) {
	var diags diag.Diagnostics
	for _, item := range topItems {
		if item.Kind() == ast.RuleExplicitComponentInst {
			decl := comptype.ParseTopInstance(item, sc, &diags)
			t, err := resolveType(decl, sc)
			if err != nil {
				diags.Add(eval.ToDiagnostic(err, item))
				return nil, nil, diags
			}
			return decl, t, diags
		}
	}

	var addrmaps []*comptype.Type
	for _, item := range topItems {
		if item.Kind() != ast.RuleComponentNamedDef {
			continue
		}
		b, ok := sc.Lookup(nameOf(item))
		if !ok {
			continue
		}
		if t, ok := b.Payload.(*comptype.Type); ok && t.Kind == "addrmap" {
			addrmaps = append(addrmaps, t)
		}
	}
	if len(addrmaps) != 1 {
		diags.Add(diag.New(diag.Unsupported, hcl.Range{}, "expected exactly one top-level addrmap type when no explicit top-level instance is given, found %d", len(addrmaps)))
		return nil, nil, diags
	}
	t := addrmaps[0]
	decl := &comptype.InstanceDecl{TypeName: t.Name, InstanceName: t.Name, Src: t.Src}
	return decl, t, diags
}

func nameOf(n ast.Node) string {
	if nn := ast.ChildByField(n, ast.FieldName_); nn != nil {
		return nn.Text()
	}
	return ""
}

func resolveType(decl *comptype.InstanceDecl, sc *scope.Table) (*comptype.Type, error) {
	if decl.AnonType != nil {
		return decl.AnonType, nil
	}
	b, err := sc.MustLookup(decl.TypeName)
	if err != nil {
		return nil, &eval.Error{Kind: diag.UnresolvedType, Msg: err.Error()}
	}
	t, ok := b.Payload.(*comptype.Type)
	if b.Kind != scope.KindComponentType || !ok {
		return nil, &eval.Error{Kind: diag.TypeMismatch, Msg: (&typeMismatchError{decl.TypeName}).Error()}
	}
	return t, nil
}

type typeMismatchError struct{ name string }

func (e *typeMismatchError) Error() string { return "\"" + e.name + "\" does not name a component type" }

// propSet is an ordered accumulation of explicit property assignments,
// preserving first-assignment order for stable JSON serialization.
type propSet struct {
	order []string
	vals  map[string]value.Value
}

func newPropSet() *propSet {
	return &propSet{vals: make(map[string]value.Value)}
}

func (p *propSet) set(name string, v value.Value) {
	if _, exists := p.vals[name]; !exists {
		p.order = append(p.order, name)
	}
	p.vals[name] = v
}

func (p *propSet) get(name string) (value.Value, bool) {
	v, ok := p.vals[name]
	return v, ok
}

func (p *propSet) merge(base *propSet) *propSet {
	out := newPropSet()
	if base != nil {
		for _, k := range base.order {
			out.set(k, base.vals[k])
		}
	}
	for _, k := range p.order {
		out.set(k, p.vals[k])
	}
	return out
}

func (p *propSet) toMap() map[string]value.Value {
	if p == nil || len(p.order) == 0 {
		return nil
	}
	out := make(map[string]value.Value, len(p.order))
	for _, k := range p.order {
		out[k] = p.vals[k]
	}
	return out
}
