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

// instantiator carries the per-run state the recursive Pass 2 walk threads
// through: the property schema (for type-checking), and the accumulated
// diagnostic list. Per-register diagnostics do not abort the run: a failure
// short-circuits that register's synthesis and moves on to the next.
type instantiator struct {
	schema *propschema.Schema
	diags  *diag.Diagnostics
}

func (in *instantiator) fail(kind diag.Kind, n ast.Node, format string, args ...interface{}) {
	rng := rangeOf(n)
	in.diags.Add(diag.New(kind, rng, format, args...))
}

func (in *instantiator) failErr(err error, n ast.Node) {
	in.diags.Add(eval.ToDiagnostic(err, n))
}

func rangeOf(n ast.Node) hcl.Range {
	return diag.RangeAt(n.SourcePath(), n.StartLine(), n.StartColumn(), n.StopLine(), n.StopColumn())
}

// instantiateTop drives Pass 2 from the root instance declaration.
func (in *instantiator) instantiateTop(decl *comptype.InstanceDecl, t *comptype.Type, sc *scope.Table) *node.Node {
	ctx := &ictx{sc: sc, schema: in.schema, parentPath: nil, cursor: 0, defaults: newPropSet(), addressing: "regalign"}
	return in.instantiateInstance(decl, t, ctx)
}

// ictx is the ambient instantiation context threaded through one container
// body's worth of recursive instance elaboration: the active scope, the
// byte cursor, the inherited default-property cascade, the path of the
// node currently being built (for "this"/"parent" references and for
// dynamic-assignment resolution against already-elaborated siblings), and
// the addressing mode this container declared for its own children's
// cursor-advance policy.
type ictx struct {
	sc         *scope.Table
	schema     *propschema.Schema
	parentPath value.NodePath
	cursor     uint64
	defaults   *propSet
	addressing string
}

// addressingModeOf reads a container's own "addressing" property
// (compact/regalign/fullalign), defaulting to "regalign" when absent.
func addressingModeOf(props map[string]value.Value) string {
	if v, ok := props["addressing"]; ok && v.Kind() == value.KindEnum {
		return v.EnumVal().Name
	}
	return "regalign"
}

// naturalAlign rounds size up to the next power of two, the "natural
// alignment" spec.md §4.4 calls for when a stride or cursor-advance
// boundary is derived rather than declared explicitly.
func naturalAlign(size uint64) uint64 {
	if size <= 1 {
		return 1
	}
	p := uint64(1)
	for p < size {
		p <<= 1
	}
	return p
}

// instantiateInstance materializes one elaborated node from an instance
// declaration bound against its resolved type.
func (in *instantiator) instantiateInstance(decl *comptype.InstanceDecl, t *comptype.Type, parentCtx *ictx) *node.Node {
	leave := parentCtx.sc.Enter()
	defer leave()

	selfPath := node.ChildPath(parentCtx.parentPath, decl.InstanceName, nil)
	evalCtx := eval.Context{Scope: parentCtx.sc, SelfPath: selfPath, ParentPath: parentCtx.parentPath}

	// Array dimensions take logical form: one node carries its whole shape.
	// A dimension of 0 or less is a BadParameter, not silently skipped.
	var dims []int
	for _, dimExpr := range decl.ArrayDims {
		v, err := eval.Eval(dimExpr, evalCtx)
		if err != nil {
			in.failErr(err, dimExpr)
			continue
		}
		if v.Kind() != value.KindInt {
			in.fail(diag.TypeMismatch, dimExpr, "array dimension must be an integer")
			continue
		}
		n := int(v.Int64())
		if n <= 0 {
			in.fail(diag.BadParameter, dimExpr, "array dimension must be a positive integer, got %d", n)
			continue
		}
		dims = append(dims, n)
	}

	n := &node.Node{
		Kind:         node.Kind(t.Kind),
		InstanceName: decl.InstanceName,
		TypeName:     t.Name,
		ArrayDims:    dims,
		Path:         selfPath,
	}

	// Bind actual parameters to formals.
	in.bindParams(t, decl, evalCtx)

	// Nested named types/enums/structs declared directly in this type's
	// body are only visible inside this instantiation.
	in.declareNested(t, parentCtx.sc)

	// Gather this type body's own local/default property assignments into
	// the node's own property set, honoring the inherited default cascade
	//.
	own, childDefaults := in.gatherOwnProperties(t, selfPath, parentCtx.parentPath, parentCtx.sc, parentCtx.defaults)
	n.Properties = own.toMap()

	in.typeCheckProperties(n, decl.Src)

	// Elaborate the body: nested instances advance a fresh cursor scoped to
	// this node; dynamic assignments are applied once all children exist.
	// This node's own absolute address is deliberately not needed by any of
	// this — a child's placement only depends on its local cursor within
	// this body — so it is safe to finalize address/stride below, once this
	// node's own byte size (needed for an implicit array stride and for
	// regalign/fullalign cursor advance) is actually known.
	bodyCtx := &ictx{sc: parentCtx.sc, schema: in.schema, parentPath: selfPath, cursor: 0, defaults: childDefaults, addressing: addressingModeOf(n.Properties)}
	var children []*node.Node
	for _, item := range t.Body {
		switch item.Kind {
		case comptype.BodyInstance:
			childType, err := resolveType(item.Instance, parentCtx.sc)
			if err != nil {
				in.failErr(err, item.Instance.Src)
				continue
			}
			if !comptype.LegalChild(t.Kind, childType.Kind) {
				in.fail(diag.IllegalChild, item.Instance.Src, "%s is not a legal child of %s", childType.Kind, t.Kind)
				continue
			}
			child := in.instantiateInstance(item.Instance, childType, bodyCtx)
			children = append(children, child)
			bodyCtx.cursor = child.AbsoluteAddress + childSpan(child)
		}
	}

	in.applyDynamicAssignments(t, children, selfPath, parentCtx.parentPath, parentCtx.sc)

	switch n.Kind {
	case node.KindReg:
		regWidth := in.regWidthBits(n)
		finalFields, regDiags := validate.Register(regWidth, children, rangeOf(decl.Src))
		*in.diags = append(*in.diags, regDiags...)
		n.Children = finalFields
		n.Size = uint64((regWidth + 7) / 8)
	case node.KindAddrmap, node.KindRegfile, node.KindMem:
		sortedChildren, contDiags := validate.Container(children, rangeOf(decl.Src))
		*in.diags = append(*in.diags, contDiags...)
		n.Children = sortedChildren
		n.Size = containerSpan(sortedChildren)
	default:
		n.Children = children
	}

	if n.Kind == node.KindField {
		applyFieldRange(n, decl, evalCtx, in)
		return n
	}

	// Fields occupy bit positions only and never consume byte addresses;
	// every other kind is placed against the parent's cursor now that its
	// own size (the natural-alignment basis for an implicit stride or a
	// regalign/fullalign cursor advance) is known.
	stride, align, explicitOffset, hasOffset := in.computeAddressing(decl, parentCtx, n.Size)
	if hasOffset {
		n.AbsoluteAddress = explicitOffset
		if align > 1 && explicitOffset%align != 0 {
			in.fail(diag.MisalignedAddress, decl.Src, "instance %q at 0x%x is not aligned to its %d-byte natural boundary", n.InstanceName, explicitOffset, align)
		}
	} else {
		n.AbsoluteAddress = alignUp(parentCtx.cursor, align)
	}
	n.Stride = stride

	if n.ArrayDims != nil {
		if n.Stride < n.Size {
			in.fail(diag.InstanceOverlap, decl.Src, "instance %q declares a stride of %d bytes, smaller than its %d-byte element size; array elements overlap", n.InstanceName, n.Stride, n.Size)
		}
	}

	return n
}

func childSpan(n *node.Node) uint64 {
	if n.ArrayDims != nil {
		count := uint64(1)
		for _, d := range n.ArrayDims {
			count *= uint64(d)
		}
		return n.Stride * count
	}
	if n.Size == 0 {
		return n.Stride
	}
	return n.Size
}

func containerSpan(children []*node.Node) uint64 {
	var maxEnd uint64
	for _, c := range children {
		end := c.AbsoluteAddress + childSpan(c)
		if end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd
}

func alignUp(addr, align uint64) uint64 {
	if align <= 1 {
		return addr
	}
	rem := addr % align
	if rem == 0 {
		return addr
	}
	return addr + (align - rem)
}

// computeAddressing resolves an instance's explicit offset (if any), its
// declared or implied stride, and the alignment (from `%= A` or the
// parent's addressing mode). elemSize is this instance's own computed byte
// size, the natural-alignment basis for both an implicit array stride and
// a regalign/fullalign cursor advance.
func (in *instantiator) computeAddressing(decl *comptype.InstanceDecl, ctx *ictx, elemSize uint64) (stride, align, offset uint64, hasOffset bool) {
	evalCtx := eval.Context{Scope: ctx.sc, ParentPath: ctx.parentPath}
	if decl.OffsetExpr != nil {
		v, err := eval.Eval(decl.OffsetExpr, evalCtx)
		if err != nil {
			in.failErr(err, decl.OffsetExpr)
		} else if v.Kind() == value.KindInt {
			offset = uint64(v.Int64())
			hasOffset = true
		}
	}
	if decl.StrideExpr != nil {
		v, err := eval.Eval(decl.StrideExpr, evalCtx)
		if err != nil {
			in.failErr(err, decl.StrideExpr)
		} else if v.Kind() == value.KindInt {
			stride = uint64(v.Int64())
		}
	}
	if stride == 0 {
		// No explicit `+=`: the element's own natural size, rounded up to
		// its natural alignment (reg_width/8 for registers, since a
		// register's Size already carries that; sum-of-children size for
		// containers).
		stride = naturalAlign(elemSize)
	}

	if decl.AlignExpr != nil {
		v, err := eval.Eval(decl.AlignExpr, evalCtx)
		if err != nil {
			in.failErr(err, decl.AlignExpr)
		} else if v.Kind() == value.KindInt {
			align = uint64(v.Int64())
		}
	} else {
		switch ctx.addressing {
		case "regalign":
			align = elemSize
		case "fullalign":
			align = naturalAlign(elemSize)
		default: // "compact"
			align = 0
		}
	}
	return stride, align, offset, hasOffset
}

func (in *instantiator) bindParams(t *comptype.Type, decl *comptype.InstanceDecl, evalCtx eval.Context) {
	byName := make(map[string]comptype.Actual)
	var positional []comptype.Actual
	for _, a := range decl.Actuals {
		if a.Name != "" {
			byName[a.Name] = a
		} else {
			positional = append(positional, a)
		}
	}
	for i, p := range t.Params {
		var actual *comptype.Actual
		if a, ok := byName[p.Name]; ok {
			actual = &a
		} else if i < len(positional) {
			actual = &positional[i]
		}

		var v value.Value
		switch {
		case actual != nil:
			val, err := eval.Eval(actual.Expr, evalCtx)
			if err != nil {
				in.failErr(err, actual.Expr)
				continue
			}
			v = val
		case p.Default != nil:
			val, err := eval.Eval(p.Default, evalCtx)
			if err != nil {
				in.failErr(err, p.Default)
				continue
			}
			v = val
		default:
			in.fail(diag.BadParameter, decl.Src, "missing required parameter %q", p.Name)
			continue
		}
		if err := evalCtx.Scope.Declare(p.Name, scope.Binding{Kind: scope.KindParam, Payload: v}); err != nil {
			in.fail(diag.DuplicateName, decl.Src, "%s", err.Error())
		}
	}
}

func (in *instantiator) declareNested(t *comptype.Type, sc *scope.Table) {
	for _, item := range t.Body {
		switch item.Kind {
		case comptype.BodyNestedType:
			if item.NestedType.Name != "" {
				_ = sc.Declare(item.NestedType.Name, scope.Binding{Kind: scope.KindComponentType, Payload: item.NestedType})
			}
		case comptype.BodyEnumDef:
			in.declareEnum(item.EnumDef, sc)
		}
	}
}

func (in *instantiator) declareEnum(ed *comptype.EnumDef, sc *scope.Table) {
	if ed.Name == "" {
		return
	}
	def := scope.EnumDef{TypeName: ed.Name}
	evalCtx := eval.Context{Scope: sc}
	next := int64(0)
	for _, m := range ed.Enumerators {
		val := next
		if m.Value != nil {
			v, err := eval.Eval(m.Value, evalCtx)
			if err == nil && v.Kind() == value.KindInt {
				val = v.Int64()
			}
		}
		def.Enumerators = append(def.Enumerators, value.EnumVal{TypeName: ed.Name, Name: m.Name, Val: val})
		next = val + 1
	}
	_ = sc.Declare(ed.Name, scope.Binding{Kind: scope.KindEnumDef, Payload: def})
}

// gatherOwnProperties evaluates the local and default property assignments
// that sit directly in t's body (not inside a nested instance's own body)
// and become this node's own properties.
func (in *instantiator) gatherOwnProperties(t *comptype.Type, selfPath, parentPath value.NodePath, sc *scope.Table, inherited *propSet) (*propSet, *propSet) {
	evalCtx := eval.Context{Scope: sc, SelfPath: selfPath, ParentPath: parentPath}
	localDefaults := newPropSet()
	own := newPropSet()
	for _, item := range t.Body {
		switch item.Kind {
		case comptype.BodyDefaultProp:
			v, err := eval.Eval(item.Prop.Expr, evalCtx)
			if err != nil {
				in.failErr(err, item.Prop.Expr)
				continue
			}
			localDefaults.set(item.Prop.PropName, v)
		case comptype.BodyLocalProp:
			v, err := eval.Eval(item.Prop.Expr, evalCtx)
			if err != nil {
				in.failErr(err, item.Prop.Expr)
				continue
			}
			own.set(item.Prop.PropName, v)
		}
	}
	effectiveDefaults := localDefaults.merge(inherited)
	// Explicit assignments win over defaults; anything not explicitly set
	// falls back to the nearest enclosing default.
	final := effectiveDefaults.merge(nil)
	for _, k := range own.order {
		final.set(k, own.vals[k])
	}
	return final, effectiveDefaults
}

func (in *instantiator) typeCheckProperties(n *node.Node, src ast.Node) {
	for name, v := range n.Properties {
		wantKind, isBuiltin := in.schema.PropertyKind(name)
		if !isBuiltin {
			continue
		}
		if v.Kind() != wantKind {
			if wantKind == value.KindBool {
				if _, ok := v.AsBool(); ok {
					continue
				}
			}
			in.fail(diag.TypeMismatch, src, "property %q expects a %s value, got %s", name, wantKind, v.Kind())
		}
	}
}

// applyDynamicAssignments resolves and applies `a.b.p = expr;` assignments
// against already-elaborated children.
func (in *instantiator) applyDynamicAssignments(t *comptype.Type, children []*node.Node, selfPath, parentPath value.NodePath, sc *scope.Table) {
	evalCtx := eval.Context{Scope: sc, SelfPath: selfPath, ParentPath: parentPath}
	for _, item := range t.Body {
		if item.Kind != comptype.BodyDynamicProp {
			continue
		}
		target := resolveDynamicTarget(children, item.Prop.TargetPath)
		if target == nil {
			in.fail(diag.ForwardReference, item.Prop.Src, "dynamic assignment target %v is not yet elaborated", item.Prop.TargetPath)
			continue
		}
		v, err := eval.Eval(item.Prop.Expr, evalCtx)
		if err != nil {
			in.failErr(err, item.Prop.Expr)
			continue
		}
		if target.Properties == nil {
			target.Properties = make(map[string]value.Value)
		}
		target.Properties[item.Prop.PropName] = v
	}
}

func resolveDynamicTarget(children []*node.Node, path []string) *node.Node {
	if len(path) == 0 {
		return nil
	}
	var cur *node.Node
	pool := children
	for _, seg := range path {
		var found *node.Node
		for _, c := range pool {
			if c.InstanceName == seg {
				found = c
				break
			}
		}
		if found == nil {
			return nil
		}
		cur = found
		pool = found.Children
	}
	return cur
}

// regWidthBits returns the declared regwidth property, defaulting to 32.
func (in *instantiator) regWidthBits(n *node.Node) int {
	if v, ok := n.Properties["regwidth"]; ok && v.Kind() == value.KindInt {
		return int(v.Int64())
	}
	return 32
}

// applyFieldRange derives a field's msb/lsb/width from its range suffix or
// declared properties.
func applyFieldRange(n *node.Node, decl *comptype.InstanceDecl, evalCtx eval.Context, in *instantiator) {
	switch decl.Range.Form {
	case comptype.RangeMSBLSB:
		msb, lsb := evalInt(decl.Range.MSB, evalCtx, in), evalInt(decl.Range.LSB, evalCtx, in)
		n.MSB, n.LSB = msb, lsb
		n.Width = msb - lsb + 1
	case comptype.RangeWidth:
		w := evalInt(decl.Range.Width, evalCtx, in)
		n.LSB = 0
		n.Width = w
		n.MSB = w - 1
	default:
		if len(n.ArrayDims) == 1 {
			// `name[width];` arrives as a one-dimensional array suffix;
			// fields are never arrays, so it is the width form.
			n.LSB, n.Width, n.MSB = 0, n.ArrayDims[0], n.ArrayDims[0]-1
			n.ArrayDims = nil
			break
		}
		if v, ok := n.Properties["msb"]; ok && v.Kind() == value.KindInt {
			n.MSB = int(v.Int64())
		}
		if v, ok := n.Properties["lsb"]; ok && v.Kind() == value.KindInt {
			n.LSB = int(v.Int64())
		}
		n.Width = n.MSB - n.LSB + 1
	}
	if n.Width <= 0 || n.LSB < 0 {
		in.fail(diag.BitRangeInconsistent, decl.Src, "field %q has an inconsistent bit range [%d:%d]", n.InstanceName, n.MSB, n.LSB)
	}
}

func evalInt(n ast.Node, ctx eval.Context, in *instantiator) int {
	if n == nil {
		return 0
	}
	v, err := eval.Eval(n, ctx)
	if err != nil {
		in.failErr(err, n)
		return 0
	}
	if v.Kind() != value.KindInt {
		in.fail(diag.TypeMismatch, n, "expected an integer")
		return 0
	}
	return int(v.Int64())
}
