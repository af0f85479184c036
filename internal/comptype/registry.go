package comptype

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/diag"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/scope"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

// RegisterPass1 walks root once, registering every named component type,
// enum definition, and struct definition into sc.
//
// It returns the ordered top-level body items (the named type definitions
// and, if present, the trailing top-level instance) for the Instantiator
// to drive Pass 2 from.
func RegisterPass1(root ast.Node, sc *scope.Table) ([]ast.Node, diag.Diagnostics) {
	var diags diag.Diagnostics
	var top []ast.Node
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		top = append(top, child)
		if child.Kind() == ast.RuleComponentNamedDef {
			registerNamedDef(child, sc, &diags)
		}
	}
	return top, diags
}

func registerNamedDef(n ast.Node, sc *scope.Table, diags *diag.Diagnostics) *Type {
	t := parseNamedDef(n, sc, diags)
	if t.Name != "" {
		if err := sc.Declare(t.Name, scope.Binding{Kind: scope.KindComponentType, Payload: t}); err != nil {
			diags.Add(diag.New(diag.DuplicateType, rangeOf(n), "%s", err.Error()))
		}
	}
	return t
}

func parseNamedDef(n ast.Node, sc *scope.Table, diags *diag.Diagnostics) *Type {
	kindNode := ast.ChildByField(n, ast.FieldKind)
	nameNode := ast.ChildByField(n, ast.FieldName_)
	t := &Type{Src: n}
	if kindNode != nil {
		t.Kind = kindNode.Text()
	}
	if nameNode != nil {
		t.Name = nameNode.Text()
	}
	if pl := ast.ChildByField(n, "params"); pl != nil {
		t.Params = parseParamDeclList(pl)
	}

	// Nested type declarations and enum/struct definitions must be visible
	// inside this body (and any inner scope) but not above it:
	// use a scratch scope for registration bookkeeping only — body-item
	// ordering/content comes from the AST regardless.
	leave := sc.Enter()
	defer leave()

	if body := ast.ChildByField(n, "body"); body != nil {
		t.Body = parseBody(body, sc, diags)
	}
	return t
}

func parseBody(body ast.Node, sc *scope.Table, diags *diag.Diagnostics) []BodyItem {
	var items []BodyItem
	for i := 0; i < body.ChildCount(); i++ {
		c := body.Child(i)
		switch c.Kind() {
		case ast.RuleComponentNamedDef:
			nested := registerNamedDef(c, sc, diags)
			items = append(items, BodyItem{Kind: BodyNestedType, NestedType: nested})
		case ast.RuleComponentInst, ast.RuleExplicitComponentInst:
			items = append(items, BodyItem{Kind: BodyInstance, Instance: parseInstanceDecl(c, sc, diags)})
		case ast.RuleLocalPropertyAssignment:
			items = append(items, BodyItem{Kind: BodyLocalProp, Prop: parsePropAssign(c, false)})
		case ast.RuleDynamicPropertyAssignment:
			items = append(items, BodyItem{Kind: BodyDynamicProp, Prop: parsePropAssign(c, true)})
		case ast.RuleDefaultPropertyAssignment:
			items = append(items, BodyItem{Kind: BodyDefaultProp, Prop: parsePropAssign(c, false)})
		case ast.RuleEnumDef:
			ed := parseEnumDef(c)
			registerEnum(ed, sc, diags)
			items = append(items, BodyItem{Kind: BodyEnumDef, EnumDef: ed})
		case ast.RuleStructDef:
			sd := parseStructDef(c)
			items = append(items, BodyItem{Kind: BodyStructDef, StructDef: sd})
		}
	}
	return items
}

func registerEnum(ed *EnumDef, sc *scope.Table, diags *diag.Diagnostics) {
	if ed.Name == "" {
		return
	}
	def := scope.EnumDef{TypeName: ed.Name}
	for i, m := range ed.Enumerators {
		val := int64(i)
		// Explicit enumerator values are folded by the Instantiator during
		// Pass 2 (they may reference parameters); Pass 1 seeds sequential
		// defaults so Type::name references made before Pass 2 completes
		// its own re-registration still resolve to *something* consistent.
		def.Enumerators = append(def.Enumerators, value.EnumVal{TypeName: ed.Name, Name: m.Name, Val: val})
	}
	if err := sc.Declare(ed.Name, scope.Binding{Kind: scope.KindEnumDef, Payload: def}); err != nil {
		diags.Add(diag.New(diag.DuplicateType, rangeOf(ed.Src), "%s", err.Error()))
	}
}

func parseParamDeclList(n ast.Node) []Param {
	var params []Param
	for _, p := range ast.ChildrenByField(n, "param") {
		param := Param{}
		if tn := ast.ChildByField(p, ast.FieldType); tn != nil {
			param.DeclaredType = tn.Text()
		}
		if nn := ast.ChildByField(p, ast.FieldName_); nn != nil {
			param.Name = nn.Text()
		}
		param.Default = ast.ChildByField(p, "default")
		params = append(params, param)
	}
	return params
}

func parseActualParamList(n ast.Node) []Actual {
	if n == nil {
		return nil
	}
	var actuals []Actual
	for _, a := range ast.ChildrenByField(n, "actual") {
		act := Actual{Expr: ast.ChildByField(a, ast.FieldValue)}
		if nn := ast.ChildByField(a, ast.FieldName_); nn != nil {
			act.Name = nn.Text()
		}
		actuals = append(actuals, act)
	}
	return actuals
}

func parseInstanceDecl(n ast.Node, sc *scope.Table, diags *diag.Diagnostics) *InstanceDecl {
	d := &InstanceDecl{Src: n}
	if tn := ast.ChildByField(n, ast.FieldType); tn != nil {
		d.TypeName = tn.Text()
	}
	if an := ast.ChildByField(n, "anon"); an != nil {
		d.AnonType = parseNamedDef(an, sc, diags)
	}
	d.Actuals = parseActualParamList(ast.ChildByField(n, "actuals"))
	if nn := ast.ChildByField(n, "instname"); nn != nil {
		d.InstanceName = nn.Text()
	}
	for _, dim := range ast.ChildrenByField(n, "dim") {
		d.ArrayDims = append(d.ArrayDims, ast.ChildByField(dim, ast.FieldValue))
	}
	if off := ast.ChildByField(n, "offset"); off != nil {
		d.OffsetExpr = ast.ChildByField(off, ast.FieldValue)
	}
	if st := ast.ChildByField(n, "stride"); st != nil {
		d.StrideExpr = ast.ChildByField(st, ast.FieldValue)
	}
	if al := ast.ChildByField(n, "align"); al != nil {
		d.AlignExpr = ast.ChildByField(al, ast.FieldValue)
	}
	if rs := ast.ChildByField(n, "range"); rs != nil {
		d.Range = parseRangeSuffix(rs)
	}
	return d
}

func parseRangeSuffix(n ast.Node) RangeSuffix {
	if w := ast.ChildByField(n, ast.FieldWidth); w != nil {
		return RangeSuffix{Form: RangeWidth, Width: w}
	}
	msb := ast.ChildByField(n, ast.FieldMSB)
	lsb := ast.ChildByField(n, ast.FieldLSB)
	if msb != nil && lsb != nil {
		return RangeSuffix{Form: RangeMSBLSB, MSB: msb, LSB: lsb}
	}
	return RangeSuffix{Form: RangeNone}
}

func parsePropAssign(n ast.Node, dynamic bool) *PropAssign {
	pa := &PropAssign{Src: n, Expr: ast.ChildByField(n, ast.FieldValue)}
	if pn := ast.ChildByField(n, "prop"); pn != nil {
		pa.PropName = pn.Text()
	}
	if dynamic {
		if pathNode := ast.ChildByField(n, "path"); pathNode != nil {
			for _, seg := range ast.ChildrenByField(pathNode, "seg") {
				pa.TargetPath = append(pa.TargetPath, seg.Text())
			}
		}
	}
	return pa
}

func parseEnumDef(n ast.Node) *EnumDef {
	ed := &EnumDef{Src: n}
	if nn := ast.ChildByField(n, ast.FieldName_); nn != nil {
		ed.Name = nn.Text()
	}
	for _, m := range ast.ChildrenByField(n, "member") {
		e := Enumerator{}
		if nn := ast.ChildByField(m, ast.FieldName_); nn != nil {
			e.Name = nn.Text()
		}
		e.Value = ast.ChildByField(m, ast.FieldValue)
		ed.Enumerators = append(ed.Enumerators, e)
	}
	return ed
}

func parseStructDef(n ast.Node) *StructDef {
	sd := &StructDef{Src: n}
	if nn := ast.ChildByField(n, ast.FieldName_); nn != nil {
		sd.Name = nn.Text()
	}
	for _, f := range ast.ChildrenByField(n, "field") {
		sf := StructField{}
		if tn := ast.ChildByField(f, ast.FieldType); tn != nil {
			sf.DeclaredType = tn.Text()
		}
		if nn := ast.ChildByField(f, ast.FieldName_); nn != nil {
			sf.Name = nn.Text()
		}
		sd.Fields = append(sd.Fields, sf)
	}
	return sd
}

// ParseTopInstance parses a root-level explicit_component_inst node the
// same way an instance declaration inside a body is parsed, for the
// Instantiator's top-level entry point. sc is the already-populated Pass 1 scope table.
func ParseTopInstance(n ast.Node, sc *scope.Table, diags *diag.Diagnostics) *InstanceDecl {
	return parseInstanceDecl(n, sc, diags)
}

func rangeOf(n ast.Node) hcl.Range {
	return diag.RangeAt(n.SourcePath(), n.StartLine(), n.StartColumn(), n.StopLine(), n.StopColumn())
}
