// Package eval reduces a SystemRDL constant expression AST to a concrete
// value.Value.
package eval

import (
	"fmt"
	"math/big"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/diag"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/scope"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

// Error is a diagnostic-shaped evaluation failure. Eval returns *Error so
// callers holding the ast.Node can attach a source range and build a
// diag.Diagnostic (see ToDiagnostic).
type Error struct {
	Kind diag.Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errf(kind diag.Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ToDiagnostic converts an evaluation Error into a positioned diagnostic.
func ToDiagnostic(err error, n ast.Node) diag.Diagnostic {
	kind := diag.Unsupported
	msg := err.Error()
	if e, ok := err.(*Error); ok {
		kind = e.Kind
		msg = e.Msg
	}
	rng := diag.RangeAt(n.SourcePath(), n.StartLine(), n.StartColumn(), n.StopLine(), n.StopColumn())
	return diag.New(kind, rng, "%s", msg)
}

// Context carries the ambient state an expression may reference: the
// active scope for parameter/enum lookup, and the "this"/"parent"
// navigational references allowed wherever the grammar permits them.
type Context struct {
	Scope      *scope.Table
	SelfPath   value.NodePath
	ParentPath value.NodePath
}

// Eval reduces n to a concrete value.Value.
func Eval(n ast.Node, ctx Context) (value.Value, error) {
	if n == nil {
		return value.Value{}, errf(diag.Unsupported, "nil expression node")
	}
	switch n.Kind() {
	case ast.RuleExprLiteralInt:
		lit, err := parseIntLiteral(n.Text())
		if err != nil {
			if _, ok := err.(errOverflowWidth); ok {
				return value.Value{}, errf(diag.OverflowInWidth, "%s", err.Error())
			}
			return value.Value{}, errf(diag.Unsupported, "%s", err.Error())
		}
		if lit.width > 0 {
			return value.WidthedInt(lit.value, lit.width), nil
		}
		return value.Int(lit.value), nil

	case ast.RuleExprLiteralString:
		return value.Str(n.Text()), nil

	case ast.RuleExprLiteralBool:
		return value.Bool(n.Text() == "true" || n.Text() == "1"), nil

	case ast.RuleExprIdentifier:
		return evalIdentifier(n, ctx)

	case ast.RuleExprEnumRef:
		return evalEnumRef(n, ctx)

	case ast.RuleExprThis:
		return value.Ref(ctx.SelfPath), nil

	case ast.RuleExprParent:
		return value.Ref(ctx.ParentPath), nil

	case ast.RuleExprParen:
		return Eval(n.Child(0), ctx)

	case ast.RuleExprUnary:
		return evalUnary(n, ctx)

	case ast.RuleExprBinary:
		return evalBinary(n, ctx)

	case ast.RuleExprTernary:
		return evalTernary(n, ctx)

	case ast.RuleExprConcat:
		return evalConcat(n, ctx)

	case ast.RuleExprReplicate:
		return evalReplicate(n, ctx)

	default:
		return value.Value{}, errf(diag.Unsupported, "unsupported expression node kind %q", n.Kind())
	}
}

func evalIdentifier(n ast.Node, ctx Context) (value.Value, error) {
	name := n.Text()
	b, err := ctx.Scope.MustLookup(name)
	if err != nil {
		if ue, ok := err.(*scope.UnresolvedNameError); ok {
			msg := fmt.Sprintf("unresolved name %q", ue.Name)
			if ue.Suggestion != "" {
				msg = fmt.Sprintf("unresolved name %q (did you mean %q?)", ue.Name, ue.Suggestion)
			}
			return value.Value{}, errf(diag.UnresolvedName, "%s", msg)
		}
		return value.Value{}, errf(diag.UnresolvedName, "%s", err.Error())
	}
	switch b.Kind {
	case scope.KindParam:
		v, ok := b.Payload.(value.Value)
		if !ok {
			return value.Value{}, errf(diag.TypeMismatch, "parameter %q has no bound value", name)
		}
		return v, nil
	case scope.KindNode:
		p, ok := b.Payload.(value.NodePath)
		if !ok {
			return value.Value{}, errf(diag.TypeMismatch, "%q is not a value", name)
		}
		return value.Ref(p), nil
	default:
		return value.Value{}, errf(diag.TypeMismatch, "%q does not name a value", name)
	}
}

func evalEnumRef(n ast.Node, ctx Context) (value.Value, error) {
	typeName := ast.ChildByField(n, ast.FieldType)
	member := ast.ChildByField(n, ast.FieldName_)
	if typeName == nil || member == nil {
		return value.Value{}, errf(diag.Unsupported, "malformed enum reference")
	}
	b, ok := ctx.Scope.Lookup(typeName.Text())
	if !ok {
		return value.Value{}, errf(diag.UnresolvedType, "unresolved enum type %q", typeName.Text())
	}
	def, ok := b.Payload.(scope.EnumDef)
	if b.Kind != scope.KindEnumDef || !ok {
		return value.Value{}, errf(diag.TypeMismatch, "%q is not an enum type", typeName.Text())
	}
	ev, ok := def.Lookup(member.Text())
	if !ok {
		return value.Value{}, errf(diag.UnresolvedName, "enum %q has no member %q", typeName.Text(), member.Text())
	}
	return value.Enum(ev), nil
}

func evalUnary(n ast.Node, ctx Context) (value.Value, error) {
	opNode := ast.ChildByField(n, ast.FieldOp)
	if opNode == nil {
		return value.Value{}, errf(diag.Unsupported, "unary expression missing operator")
	}
	op := opNode.Text()
	operand := ast.ChildByField(n, ast.FieldOperand)
	v, err := Eval(operand, ctx)
	if err != nil {
		return value.Value{}, err
	}
	switch op {
	case "-":
		if v.Kind() != value.KindInt {
			return value.Value{}, errf(diag.TypeMismatch, "unary - requires an integer operand")
		}
		return maskWidth(-v.Int64(), v.Width()), nil
	case "+":
		if v.Kind() != value.KindInt {
			return value.Value{}, errf(diag.TypeMismatch, "unary + requires an integer operand")
		}
		return v, nil
	case "~":
		if v.Kind() != value.KindInt {
			return value.Value{}, errf(diag.TypeMismatch, "unary ~ requires an integer operand")
		}
		return maskWidth(^v.Int64(), v.Width()), nil
	case "!":
		b, ok := v.AsBool()
		if !ok {
			return value.Value{}, errf(diag.TypeMismatch, "unary ! requires a boolean or 0/1 operand")
		}
		return value.Bool(!b), nil
	}
	return value.Value{}, errf(diag.Unsupported, "unsupported unary operator %q", op)
}

func maskWidth(v int64, width int) value.Value {
	if width <= 0 {
		return value.Int(v)
	}
	mask := int64(1)<<uint(width) - 1
	if width >= 63 {
		return value.WidthedInt(v, width)
	}
	return value.WidthedInt(v&mask, width)
}

func maxWidth(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func evalBinary(n ast.Node, ctx Context) (value.Value, error) {
	opNode := ast.ChildByField(n, ast.FieldOp)
	if opNode == nil {
		return value.Value{}, errf(diag.Unsupported, "binary expression missing operator")
	}
	op := opNode.Text()
	lhsN := ast.ChildByField(n, ast.FieldLHS)
	rhsN := ast.ChildByField(n, ast.FieldRHS)
	lhs, err := Eval(lhsN, ctx)
	if err != nil {
		return value.Value{}, err
	}

	// Logical operators short-circuit.
	if op == "&&" || op == "||" {
		lb, ok := lhs.AsBool()
		if !ok {
			return value.Value{}, errf(diag.TypeMismatch, "%s requires boolean operands", op)
		}
		if op == "&&" && !lb {
			return value.Bool(false), nil
		}
		if op == "||" && lb {
			return value.Bool(true), nil
		}
		rhs, err := Eval(rhsN, ctx)
		if err != nil {
			return value.Value{}, err
		}
		rb, ok := rhs.AsBool()
		if !ok {
			return value.Value{}, errf(diag.TypeMismatch, "%s requires boolean operands", op)
		}
		return value.Bool(rb), nil
	}

	rhs, err := Eval(rhsN, ctx)
	if err != nil {
		return value.Value{}, err
	}

	switch op {
	case "==":
		return value.Bool(lhs.Equal(rhs)), nil
	case "!=":
		return value.Bool(!lhs.Equal(rhs)), nil
	}

	if lhs.Kind() != value.KindInt || rhs.Kind() != value.KindInt {
		return value.Value{}, errf(diag.TypeMismatch, "operator %q requires integer operands", op)
	}
	a, b := lhs.Int64(), rhs.Int64()
	w := maxWidth(lhs.Width(), rhs.Width())

	switch op {
	case "+":
		return maskWidth(a+b, w), nil
	case "-":
		return maskWidth(a-b, w), nil
	case "*":
		return maskWidth(a*b, w), nil
	case "/":
		if b == 0 {
			return value.Value{}, errf(diag.DivisionByZero, "division by zero")
		}
		return maskWidth(a/b, w), nil
	case "%":
		if b == 0 {
			return value.Value{}, errf(diag.DivisionByZero, "modulo by zero")
		}
		return maskWidth(a%b, w), nil
	case "&":
		return maskWidth(a&b, w), nil
	case "|":
		return maskWidth(a|b, w), nil
	case "^":
		return maskWidth(a^b, w), nil
	case "**":
		res, err := intPow(a, b)
		if err != nil {
			return value.Value{}, err
		}
		return maskWidth(res, w), nil
	case "<<":
		if b < 0 {
			return value.Value{}, errf(diag.BadShift, "negative shift count %d", b)
		}
		if b >= 64 {
			return maskWidth(0, w), nil
		}
		return maskWidth(a<<uint(b), lhs.Width()), nil
	case ">>":
		if b < 0 {
			return value.Value{}, errf(diag.BadShift, "negative shift count %d", b)
		}
		if b >= 64 {
			return maskWidth(0, w), nil
		}
		return maskWidth(int64(uint64(a)>>uint(b)), lhs.Width()), nil
	case "<":
		return value.Bool(a < b), nil
	case "<=":
		return value.Bool(a <= b), nil
	case ">":
		return value.Bool(a > b), nil
	case ">=":
		return value.Bool(a >= b), nil
	}
	return value.Value{}, errf(diag.Unsupported, "unsupported binary operator %q", op)
}

func intPow(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, errf(diag.BadShift, "negative exponent %d", exp)
	}
	result := big.NewInt(1)
	b := big.NewInt(base)
	for i := int64(0); i < exp; i++ {
		result.Mul(result, b)
		if result.BitLen() > 64 {
			return 0, errf(diag.OverflowInWidth, "exponentiation result exceeds the 64-bit implementation limit")
		}
	}
	return result.Int64(), nil
}

func evalTernary(n ast.Node, ctx Context) (value.Value, error) {
	cond, err := Eval(ast.ChildByField(n, ast.FieldCond), ctx)
	if err != nil {
		return value.Value{}, err
	}
	b, ok := cond.AsBool()
	if !ok {
		return value.Value{}, errf(diag.TypeMismatch, "ternary condition must be boolean or 0/1")
	}
	if b {
		return Eval(ast.ChildByField(n, ast.FieldThen), ctx)
	}
	return Eval(ast.ChildByField(n, ast.FieldElse), ctx)
}

func evalConcat(n ast.Node, ctx Context) (value.Value, error) {
	var total int64
	width := 0
	for i := 0; i < n.ChildCount(); i++ {
		v, err := Eval(n.Child(i), ctx)
		if err != nil {
			return value.Value{}, err
		}
		if v.Kind() != value.KindInt || v.Width() == 0 {
			return value.Value{}, errf(diag.TypeMismatch, "concatenation operands must be integers with an explicit width")
		}
		total = (total << uint(v.Width())) | (v.Int64() & ((int64(1) << uint(v.Width())) - 1))
		width += v.Width()
		if width > 64 {
			return value.Value{}, errf(diag.OverflowInWidth, "concatenation result exceeds the 64-bit implementation limit")
		}
	}
	return value.WidthedInt(total, width), nil
}

func evalReplicate(n ast.Node, ctx Context) (value.Value, error) {
	countN := ast.ChildByField(n, "count")
	exprN := ast.ChildByField(n, ast.FieldValue)
	countV, err := Eval(countN, ctx)
	if err != nil {
		return value.Value{}, err
	}
	if countV.Kind() != value.KindInt {
		return value.Value{}, errf(diag.TypeMismatch, "replication count must be an integer")
	}
	count := countV.Int64()
	if count < 0 {
		return value.Value{}, errf(diag.BadParameter, "negative replication count %d", count)
	}
	v, err := Eval(exprN, ctx)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindInt || v.Width() == 0 {
		return value.Value{}, errf(diag.TypeMismatch, "replication operand must be an integer with an explicit width")
	}
	var total int64
	width := 0
	unit := v.Int64() & ((int64(1) << uint(v.Width())) - 1)
	for i := int64(0); i < count; i++ {
		total = (total << uint(v.Width())) | unit
		width += v.Width()
		if width > 64 {
			return value.Value{}, errf(diag.OverflowInWidth, "replication result exceeds the 64-bit implementation limit")
		}
	}
	return value.WidthedInt(total, width), nil
}
