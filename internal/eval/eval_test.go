package eval

import (
	"testing"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/propschema"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/scope"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

const testPath = "x.rdl"

func intLit(text string) *ast.Tree {
	return ast.NewLeaf(ast.RuleExprLiteralInt, text, testPath, 1, 1)
}

func ident(text string) *ast.Tree {
	return ast.NewLeaf(ast.RuleExprIdentifier, text, testPath, 1, 1)
}

func binary(op string, lhs, rhs *ast.Tree) *ast.Tree {
	n := ast.NewRule(ast.RuleExprBinary, testPath, 1, 1, 1, 1)
	n.AddChild(ast.FieldOp, ast.NewTerminal(op, testPath, 1, 1))
	n.AddChild(ast.FieldLHS, lhs)
	n.AddChild(ast.FieldRHS, rhs)
	return n
}

func unary(op string, operand *ast.Tree) *ast.Tree {
	n := ast.NewRule(ast.RuleExprUnary, testPath, 1, 1, 1, 1)
	n.AddChild(ast.FieldOp, ast.NewTerminal(op, testPath, 1, 1))
	n.AddChild(ast.FieldOperand, operand)
	return n
}

func ternary(cond, then, els *ast.Tree) *ast.Tree {
	n := ast.NewRule(ast.RuleExprTernary, testPath, 1, 1, 1, 1)
	n.AddChild(ast.FieldCond, cond)
	n.AddChild(ast.FieldThen, then)
	n.AddChild(ast.FieldElse, els)
	return n
}

func concat(parts ...*ast.Tree) *ast.Tree {
	n := ast.NewRule(ast.RuleExprConcat, testPath, 1, 1, 1, 1)
	for _, p := range parts {
		n.AddChild("", p)
	}
	return n
}

func replicate(count, val *ast.Tree) *ast.Tree {
	n := ast.NewRule(ast.RuleExprReplicate, testPath, 1, 1, 1, 1)
	n.AddChild("count", count)
	n.AddChild(ast.FieldValue, val)
	return n
}

func enumRef(typeName, member string) *ast.Tree {
	n := ast.NewRule(ast.RuleExprEnumRef, testPath, 1, 1, 1, 1)
	n.AddChild(ast.FieldType, ast.NewTerminal(typeName, testPath, 1, 1))
	n.AddChild(ast.FieldName_, ast.NewTerminal(member, testPath, 1, 1))
	return n
}

func emptyCtx(t *testing.T) Context {
	t.Helper()
	schema, err := propschema.New()
	if err != nil {
		t.Fatalf("propschema.New failed: %v", err)
	}
	return Context{Scope: scope.NewRoot(schema)}
}

func mustEval(t *testing.T, n ast.Node, ctx Context) value.Value {
	t.Helper()
	v, err := Eval(n, ctx)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	return v
}

func TestEvalLiterals(t *testing.T) {
	ctx := emptyCtx(t)
	v := mustEval(t, intLit("8'hFF"), ctx)
	if v.Kind() != value.KindInt || v.Int64() != 0xFF || v.Width() != 8 {
		t.Fatalf("expected widthed int 0xFF/8, got %+v", v)
	}
	plain := mustEval(t, intLit("42"), ctx)
	if plain.Width() != 0 || plain.Int64() != 42 {
		t.Fatalf("expected unwidthed int 42, got %+v", plain)
	}
}

func TestEvalArithmetic(t *testing.T) {
	ctx := emptyCtx(t)
	tests := []struct {
		name string
		expr ast.Node
		want int64
	}{
		{"add", binary("+", intLit("2"), intLit("3")), 5},
		{"sub", binary("-", intLit("5"), intLit("3")), 2},
		{"mul", binary("*", intLit("4"), intLit("3")), 12},
		{"div", binary("/", intLit("7"), intLit("2")), 3},
		{"mod", binary("%", intLit("7"), intLit("2")), 1},
		{"band", binary("&", intLit("0xF0"), intLit("0xFF")), 0xF0},
		{"bor", binary("|", intLit("0x0F"), intLit("0xF0")), 0xFF},
		{"bxor", binary("^", intLit("0xFF"), intLit("0x0F")), 0xF0},
		{"pow", binary("**", intLit("2"), intLit("5")), 32},
		{"shl", binary("<<", intLit("1"), intLit("4")), 16},
		{"shr", binary(">>", intLit("16"), intLit("4")), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := mustEval(t, tc.expr, ctx)
			if v.Int64() != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, v.Int64())
			}
		})
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	ctx := emptyCtx(t)
	_, err := Eval(binary("/", intLit("1"), intLit("0")), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "DivisionByZero" {
		t.Fatalf("expected a DivisionByZero error, got %#v", err)
	}
	_, err = Eval(binary("%", intLit("1"), intLit("0")), ctx)
	e, ok = err.(*Error)
	if !ok || e.Kind != "DivisionByZero" {
		t.Fatalf("expected a DivisionByZero error for modulo, got %#v", err)
	}
}

func TestEvalNegativeShiftIsBadShift(t *testing.T) {
	ctx := emptyCtx(t)
	_, err := Eval(binary("<<", intLit("1"), unary("-", intLit("1"))), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "BadShift" {
		t.Fatalf("expected a BadShift error, got %#v", err)
	}
}

func TestEvalShiftOf64OrMoreIsZero(t *testing.T) {
	ctx := emptyCtx(t)
	v := mustEval(t, binary("<<", intLit("1"), intLit("64")), ctx)
	if v.Int64() != 0 {
		t.Fatalf("expected shifting by >= 64 to saturate to 0, got %d", v.Int64())
	}
}

func TestEvalComparisons(t *testing.T) {
	ctx := emptyCtx(t)
	tests := []struct {
		name string
		expr ast.Node
		want bool
	}{
		{"lt-true", binary("<", intLit("1"), intLit("2")), true},
		{"lt-false", binary("<", intLit("2"), intLit("1")), false},
		{"le", binary("<=", intLit("2"), intLit("2")), true},
		{"gt", binary(">", intLit("3"), intLit("2")), true},
		{"ge", binary(">=", intLit("2"), intLit("2")), true},
		{"eq", binary("==", intLit("2"), intLit("2")), true},
		{"neq", binary("!=", intLit("2"), intLit("3")), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := mustEval(t, tc.expr, ctx)
			if v.Kind() != value.KindBool {
				t.Fatalf("expected a bool result, got %+v", v)
			}
			if b, _ := v.AsBool(); b != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, b)
			}
		})
	}
}

func TestEvalLogicalShortCircuit(t *testing.T) {
	ctx := emptyCtx(t)
	// The rhs is an unresolved identifier; && with a false lhs must never
	// evaluate it.
	v := mustEval(t, binary("&&", intLit("0"), ident("nonexistent")), ctx)
	if b, _ := v.AsBool(); b != false {
		t.Fatalf("expected short-circuited && to be false, got %v", b)
	}
	v = mustEval(t, binary("||", intLit("1"), ident("nonexistent")), ctx)
	if b, _ := v.AsBool(); b != true {
		t.Fatalf("expected short-circuited || to be true, got %v", b)
	}
}

func TestEvalUnaryOperators(t *testing.T) {
	ctx := emptyCtx(t)
	v := mustEval(t, unary("-", intLit("5")), ctx)
	if v.Int64() != -5 {
		t.Fatalf("expected -5, got %d", v.Int64())
	}
	v = mustEval(t, unary("~", intLit("8'h0F")), ctx)
	if v.Int64() != 0xF0 {
		t.Fatalf("expected ~0x0F masked to 8 bits == 0xF0, got 0x%x", v.Int64())
	}
	v = mustEval(t, unary("!", intLit("0")), ctx)
	if b, _ := v.AsBool(); !b {
		t.Fatalf("expected !0 == true")
	}
}

func TestEvalTypeMismatchErrors(t *testing.T) {
	ctx := emptyCtx(t)
	lit := ast.NewLeaf(ast.RuleExprLiteralString, "hello", testPath, 1, 1)
	_, err := Eval(binary("+", lit, intLit("1")), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "TypeMismatch" {
		t.Fatalf("expected a TypeMismatch error adding a string to an int, got %#v", err)
	}
}

func TestEvalTernary(t *testing.T) {
	ctx := emptyCtx(t)
	trueLit := ast.NewLeaf(ast.RuleExprLiteralBool, "true", testPath, 1, 1)
	v := mustEval(t, ternary(trueLit, intLit("1"), intLit("2")), ctx)
	if v.Int64() != 1 {
		t.Fatalf("expected the then-branch, got %d", v.Int64())
	}
	falseLit := ast.NewLeaf(ast.RuleExprLiteralBool, "false", testPath, 1, 1)
	v = mustEval(t, ternary(falseLit, intLit("1"), intLit("2")), ctx)
	if v.Int64() != 2 {
		t.Fatalf("expected the else-branch, got %d", v.Int64())
	}
}

func TestEvalConcat(t *testing.T) {
	ctx := emptyCtx(t)
	v := mustEval(t, concat(intLit("4'hA"), intLit("4'hB")), ctx)
	if v.Width() != 8 || v.Int64() != 0xAB {
		t.Fatalf("expected {0xAB, width 8}, got %+v", v)
	}
}

func TestEvalConcatRejectsUnwidthedOperand(t *testing.T) {
	ctx := emptyCtx(t)
	_, err := Eval(concat(intLit("4'hA"), intLit("5")), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "TypeMismatch" {
		t.Fatalf("expected TypeMismatch for an unwidthed concat operand, got %#v", err)
	}
}

func TestEvalReplicate(t *testing.T) {
	ctx := emptyCtx(t)
	v := mustEval(t, replicate(intLit("3"), intLit("2'b10")), ctx)
	if v.Width() != 6 {
		t.Fatalf("expected width 6 (3 * 2), got %d", v.Width())
	}
	if v.Int64() != 0b101010 {
		t.Fatalf("expected 0b101010, got %b", v.Int64())
	}
}

func TestEvalReplicateRejectsNegativeCount(t *testing.T) {
	ctx := emptyCtx(t)
	_, err := Eval(replicate(unary("-", intLit("1")), intLit("2'b10")), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "BadParameter" {
		t.Fatalf("expected BadParameter for a negative replication count, got %#v", err)
	}
}

func TestEvalIdentifierResolvesParamBinding(t *testing.T) {
	ctx := emptyCtx(t)
	leave := ctx.Scope.Enter()
	defer leave()
	if err := ctx.Scope.Declare("WIDTH", scope.Binding{Kind: scope.KindParam, Payload: value.Int(8)}); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	v := mustEval(t, ident("WIDTH"), ctx)
	if v.Int64() != 8 {
		t.Fatalf("expected 8, got %d", v.Int64())
	}
}

func TestEvalIdentifierUnresolvedNameError(t *testing.T) {
	ctx := emptyCtx(t)
	_, err := Eval(ident("totally_unknown"), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "UnresolvedName" {
		t.Fatalf("expected an UnresolvedName error, got %#v", err)
	}
}

func TestEvalIdentifierResolvesBareAccessKeyword(t *testing.T) {
	ctx := emptyCtx(t)
	v := mustEval(t, ident("rw"), ctx)
	if v.Kind() != value.KindEnum {
		t.Fatalf("expected the bare keyword rw to resolve to an enum value, got %+v", v)
	}
}

func TestEvalEnumRef(t *testing.T) {
	ctx := emptyCtx(t)
	leave := ctx.Scope.Enter()
	defer leave()
	def := scope.EnumDef{TypeName: "state_t", Enumerators: []value.EnumVal{
		{TypeName: "state_t", Name: "idle", Val: 0},
		{TypeName: "state_t", Name: "busy", Val: 1},
	}}
	if err := ctx.Scope.Declare("state_t", scope.Binding{Kind: scope.KindEnumDef, Payload: def}); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	v := mustEval(t, enumRef("state_t", "busy"), ctx)
	if v.Kind() != value.KindEnum {
		t.Fatalf("expected an enum value, got %+v", v)
	}
}

func TestEvalEnumRefUnknownMember(t *testing.T) {
	ctx := emptyCtx(t)
	leave := ctx.Scope.Enter()
	defer leave()
	def := scope.EnumDef{TypeName: "state_t", Enumerators: []value.EnumVal{
		{TypeName: "state_t", Name: "idle", Val: 0},
	}}
	if err := ctx.Scope.Declare("state_t", scope.Binding{Kind: scope.KindEnumDef, Payload: def}); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	_, err := Eval(enumRef("state_t", "nonexistent"), ctx)
	e, ok := err.(*Error)
	if !ok || e.Kind != "UnresolvedName" {
		t.Fatalf("expected an UnresolvedName error for an unknown enum member, got %#v", err)
	}
}

func TestEvalThisAndParentYieldRefs(t *testing.T) {
	ctx := emptyCtx(t)
	ctx.SelfPath = value.NodePath{{Name: "top"}, {Name: "r"}}
	ctx.ParentPath = value.NodePath{{Name: "top"}}
	this := ast.NewRule(ast.RuleExprThis, testPath, 1, 1, 1, 1)
	v := mustEval(t, this, ctx)
	if v.Kind() != value.KindRef {
		t.Fatalf("expected a ref value for 'this', got %+v", v)
	}
	parent := ast.NewRule(ast.RuleExprParent, testPath, 1, 1, 1, 1)
	v = mustEval(t, parent, ctx)
	if v.Kind() != value.KindRef {
		t.Fatalf("expected a ref value for 'parent', got %+v", v)
	}
}
