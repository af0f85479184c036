package parse

import (
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
)

// parseExpr parses a SystemRDL constant expression using precedence
// climbing, from ternary (lowest) down through primary (highest). The
// operator tiers and associativity mirror the arithmetic/logical/relational
// subset eval.Eval understands (internal/eval/eval.go's evalBinary switch).
func (p *parser) parseExpr() (*ast.Tree, error) {
	return p.parseTernary()
}

func (p *parser) parseTernary() (*ast.Tree, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.atPunct("?") {
		startTok := p.advance()
		thenExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		elseExpr, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		n := ast.NewRule(ast.RuleExprTernary, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
		n.AddChild(ast.FieldCond, cond)
		n.AddChild(ast.FieldThen, thenExpr)
		n.AddChild(ast.FieldElse, elseExpr)
		return n, nil
	}
	return cond, nil
}

// binaryTier parses one left-associative precedence level given the set of
// operator tokens it handles and the next-higher-precedence parser.
func (p *parser) binaryTier(ops []string, next func() (*ast.Tree, error)) (*ast.Tree, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range ops {
			if p.atPunct(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return lhs, nil
		}
		opTok := p.advance()
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		n := ast.NewRule(ast.RuleExprBinary, p.path, opTok.line, opTok.column, opTok.line, opTok.column)
		n.AddChild(ast.FieldOp, ast.NewTerminal(matched, p.path, opTok.line, opTok.column))
		n.AddChild(ast.FieldLHS, lhs)
		n.AddChild(ast.FieldRHS, rhs)
		lhs = n
	}
}

func (p *parser) parseLogicalOr() (*ast.Tree, error) {
	return p.binaryTier([]string{"||"}, p.parseLogicalAnd)
}

func (p *parser) parseLogicalAnd() (*ast.Tree, error) {
	return p.binaryTier([]string{"&&"}, p.parseBitOr)
}

func (p *parser) parseBitOr() (*ast.Tree, error) {
	return p.binaryTier([]string{"|"}, p.parseBitXor)
}

func (p *parser) parseBitXor() (*ast.Tree, error) {
	return p.binaryTier([]string{"^"}, p.parseBitAnd)
}

func (p *parser) parseBitAnd() (*ast.Tree, error) {
	return p.binaryTier([]string{"&"}, p.parseEquality)
}

func (p *parser) parseEquality() (*ast.Tree, error) {
	return p.binaryTier([]string{"==", "!="}, p.parseRelational)
}

func (p *parser) parseRelational() (*ast.Tree, error) {
	return p.binaryTier([]string{"<=", ">=", "<", ">"}, p.parseShift)
}

func (p *parser) parseShift() (*ast.Tree, error) {
	return p.binaryTier([]string{"<<", ">>"}, p.parseAdditive)
}

func (p *parser) parseAdditive() (*ast.Tree, error) {
	return p.binaryTier([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (*ast.Tree, error) {
	return p.binaryTier([]string{"*", "/", "%"}, p.parsePower)
}

func (p *parser) parsePower() (*ast.Tree, error) {
	return p.binaryTier([]string{"**"}, p.parseUnary)
}

func (p *parser) parseUnary() (*ast.Tree, error) {
	if p.atPunct("-") || p.atPunct("+") || p.atPunct("~") || p.atPunct("!") {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := ast.NewRule(ast.RuleExprUnary, p.path, opTok.line, opTok.column, opTok.line, opTok.column)
		n.AddChild(ast.FieldOp, ast.NewTerminal(opTok.text, p.path, opTok.line, opTok.column))
		n.AddChild(ast.FieldOperand, operand)
		return n, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*ast.Tree, error) {
	tok := p.cur()
	switch {
	case tok.kind == tokInt:
		p.advance()
		return ast.NewLeaf(ast.RuleExprLiteralInt, tok.text, p.path, tok.line, tok.column), nil

	case tok.kind == tokString:
		p.advance()
		return ast.NewLeaf(ast.RuleExprLiteralString, tok.text, p.path, tok.line, tok.column), nil

	case tok.kind == tokPunct && tok.text == "(":
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		n := ast.NewRule(ast.RuleExprParen, p.path, tok.line, tok.column, tok.line, tok.column)
		n.AddChild("", inner)
		return n, nil

	case tok.kind == tokPunct && tok.text == "{":
		return p.parseBraceExpr()

	case tok.kind == tokIdent && (tok.text == "true" || tok.text == "false"):
		p.advance()
		return ast.NewLeaf(ast.RuleExprLiteralBool, tok.text, p.path, tok.line, tok.column), nil

	case tok.kind == tokIdent && tok.text == "this":
		p.advance()
		return ast.NewRule(ast.RuleExprThis, p.path, tok.line, tok.column, tok.line, tok.column), nil

	case tok.kind == tokIdent && tok.text == "parent":
		p.advance()
		return ast.NewRule(ast.RuleExprParent, p.path, tok.line, tok.column, tok.line, tok.column), nil

	case tok.kind == tokIdent:
		p.advance()
		if p.atPunct("::") {
			p.advance()
			memberTok := p.advance()
			n := ast.NewRule(ast.RuleExprEnumRef, p.path, tok.line, tok.column, tok.line, tok.column)
			n.AddChild(ast.FieldType, ast.NewTerminal(tok.text, p.path, tok.line, tok.column))
			n.AddChild(ast.FieldName_, ast.NewTerminal(memberTok.text, p.path, memberTok.line, memberTok.column))
			return n, nil
		}
		return ast.NewLeaf(ast.RuleExprIdentifier, tok.text, p.path, tok.line, tok.column), nil
	}
	return nil, p.errorf("unexpected token %q in expression", tok.text)
}

// parseBraceExpr parses either a replication `{N{expr}}` or a concatenation
// `{expr, expr, ...}`, disambiguated by whether a second "{" immediately
// follows the first expression (eval.evalReplicate / eval.evalConcat).
func (p *parser) parseBraceExpr() (*ast.Tree, error) {
	startTok := p.advance() // '{'
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atPunct("{") {
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		n := ast.NewRule(ast.RuleExprReplicate, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
		n.AddChild("count", first)
		n.AddChild(ast.FieldValue, inner)
		return n, nil
	}
	n := ast.NewRule(ast.RuleExprConcat, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	n.AddChild("", first)
	for p.atPunct(",") {
		p.advance()
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.AddChild("", item)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return n, nil
}
