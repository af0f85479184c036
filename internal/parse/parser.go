package parse

import (
	"fmt"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
)

// SyntaxError reports a parse failure at a source position.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

type parser struct {
	path string
	toks []token
	pos  int
}

// Parse tokenizes and parses src, returning the root ast.Tree or a
// *SyntaxError.
func Parse(src, path string) (*ast.Tree, error) {
	lx := newLexer(src, path)
	var toks []token
	for {
		t := lx.next()
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	p := &parser{path: path, toks: toks}
	root := ast.NewRule(ast.RuleRoot, path, 1, 1, p.last().line, p.last().column)
	for !p.atEOF() {
		item, err := p.parseTopItem()
		if err != nil {
			return nil, err
		}
		root.AddChild("", item)
	}
	return root, nil
}

func (p *parser) last() token { return p.toks[len(p.toks)-1] }

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	t := p.cur()
	return &SyntaxError{Path: p.path, Line: t.line, Column: t.column, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expectPunct(s string) (token, error) {
	if p.cur().kind == tokPunct && p.cur().text == s {
		return p.advance(), nil
	}
	return token{}, p.errorf("expected %q, found %q", s, p.cur().text)
}

func (p *parser) atPunct(s string) bool {
	return p.cur().kind == tokPunct && p.cur().text == s
}

func (p *parser) atIdent(s string) bool {
	return p.cur().kind == tokIdent && p.cur().text == s
}

var componentKinds = map[string]bool{"addrmap": true, "regfile": true, "reg": true, "field": true, "mem": true}

func (p *parser) parseTopItem() (*ast.Tree, error) {
	if p.cur().kind == tokIdent && componentKinds[p.cur().text] {
		return p.parseComponentDefOrTopInst()
	}
	if p.cur().kind == tokIdent {
		return p.parseTopInstance()
	}
	return nil, p.errorf("unexpected token %q at top level", p.cur().text)
}

// parseComponentDefOrTopInst handles `kind name { body };` (a named type
// definition, optionally instantiated inline as `kind name { body } inst;`)
// and the bare `kind { body } inst;` anonymous top-level instance form.
func (p *parser) parseComponentDefOrTopInst() (*ast.Tree, error) {
	def, err := p.parseComponentDef()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokIdent {
		// Trailing instance name: this definition doubles as the top-level
		// instantiation, e.g. `addrmap simple_chip { ... } top;` both
		// defines simple_chip and instantiates it as top in one statement.
		return p.parseTopInstanceFromDef(def)
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return def, nil
}

func (p *parser) parseTopInstanceFromDef(def *ast.Tree) (*ast.Tree, error) {
	startTok := p.cur()
	inst := ast.NewRule(ast.RuleExplicitComponentInst, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	inst.AddChild("anon", def)
	instNameTok := p.advance()
	inst.AddChild("instname", ast.NewTerminal(instNameTok.text, p.path, instNameTok.line, instNameTok.column))
	if err := p.parseInstanceTail(inst); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return inst, nil
}

func (p *parser) parseTopInstance() (*ast.Tree, error) {
	typeTok := p.advance()
	inst := ast.NewRule(ast.RuleExplicitComponentInst, p.path, typeTok.line, typeTok.column, typeTok.line, typeTok.column)
	inst.AddChild(ast.FieldType, ast.NewTerminal(typeTok.text, p.path, typeTok.line, typeTok.column))
	if p.atPunct("#") {
		actuals, err := p.parseActualParamList()
		if err != nil {
			return nil, err
		}
		inst.AddChild("actuals", actuals)
	}
	instNameTok := p.advance()
	inst.AddChild("instname", ast.NewTerminal(instNameTok.text, p.path, instNameTok.line, instNameTok.column))
	if err := p.parseInstanceTail(inst); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return inst, nil
}

// parseComponentDef parses `kind [name] ["#" "(" params ")"] "{" body "}"`.
func (p *parser) parseComponentDef() (*ast.Tree, error) {
	kindTok := p.advance()
	ruleKind := ast.RuleComponentAnonDef
	var nameTok *token
	if p.cur().kind == tokIdent {
		t := p.advance()
		nameTok = &t
		ruleKind = ast.RuleComponentNamedDef
	}
	def := ast.NewRule(ruleKind, p.path, kindTok.line, kindTok.column, kindTok.line, kindTok.column)
	def.AddChild(ast.FieldKind, ast.NewTerminal(kindTok.text, p.path, kindTok.line, kindTok.column))
	if nameTok != nil {
		def.AddChild(ast.FieldName_, ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
	}
	if p.atPunct("#") {
		params, err := p.parseParamDeclList()
		if err != nil {
			return nil, err
		}
		def.AddChild("params", params)
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body := ast.NewRule(ast.RuleComponentBody, p.path, p.cur().line, p.cur().column, p.cur().line, p.cur().column)
	for !p.atPunct("}") {
		if p.atEOF() {
			return nil, p.errorf("unexpected end of input inside component body")
		}
		item, err := p.parseBodyItem(kindTok.text)
		if err != nil {
			return nil, err
		}
		body.AddChild("", item)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	def.AddChild("body", body)
	return def, nil
}

func (p *parser) parseParamDeclList() (*ast.Tree, error) {
	startTok := p.advance() // '#'
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	list := ast.NewRule(ast.RuleParamDeclList, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	for !p.atPunct(")") {
		typeTok := p.advance()
		nameTok := p.advance()
		decl := ast.NewRule(ast.RuleParamDecl, p.path, typeTok.line, typeTok.column, nameTok.line, nameTok.column)
		decl.AddChild(ast.FieldType, ast.NewTerminal(typeTok.text, p.path, typeTok.line, typeTok.column))
		decl.AddChild(ast.FieldName_, ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
		if p.atPunct("=") {
			p.advance()
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			decl.AddChild("default", expr)
		}
		list.AddChild("param", decl)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *parser) parseActualParamList() (*ast.Tree, error) {
	startTok := p.advance() // '#'
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	list := ast.NewRule(ast.RuleActualParamList, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	for !p.atPunct(")") {
		actual := ast.NewRule(ast.RuleActualParam, p.path, p.cur().line, p.cur().column, p.cur().line, p.cur().column)
		if p.atPunct(".") {
			p.advance()
			nameTok := p.advance()
			actual.AddChild(ast.FieldName_, ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
			if _, err := p.expectPunct("("); err != nil {
				return nil, err
			}
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			actual.AddChild(ast.FieldValue, expr)
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		} else {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			actual.AddChild(ast.FieldValue, expr)
		}
		list.AddChild("actual", actual)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return list, nil
}

// parseBodyItem parses one item of a component body: a nested type
// definition, an instance declaration, a property assignment, or an
// enum/struct definition.
func (p *parser) parseBodyItem(parentKind string) (*ast.Tree, error) {
	switch {
	case p.cur().kind == tokIdent && componentKinds[p.cur().text]:
		def, err := p.parseComponentDef()
		if err != nil {
			return nil, err
		}
		if p.cur().kind == tokIdent {
			return p.parseInstanceOfDef(def)
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return def, nil

	case p.atIdent("enum"):
		return p.parseEnumDef()

	case p.atIdent("struct"):
		return p.parseStructDef()

	case p.atIdent("default"):
		return p.parseDefaultAssignment()

	case p.cur().kind == tokIdent:
		return p.parseIdentLedStatement(parentKind)
	}
	return nil, p.errorf("unexpected token %q in component body", p.cur().text)
}

func (p *parser) parseInstanceOfDef(def *ast.Tree) (*ast.Tree, error) {
	startTok := p.cur()
	inst := ast.NewRule(ast.RuleComponentInst, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	inst.AddChild("anon", def)
	nameTok := p.advance()
	inst.AddChild("instname", ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
	if err := p.parseInstanceTail(inst); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return inst, nil
}

// parseIdentLedStatement disambiguates `TypeName inst ...;` (instance decl),
// `prop = expr;` (local assignment), and `a.b.prop = expr;` /
// `a.b->prop = expr;` (dynamic assignment), all of which start with a bare
// identifier.
func (p *parser) parseIdentLedStatement(parentKind string) (*ast.Tree, error) {
	next := p.peekAt(1)
	if next.kind == tokPunct && next.text == "=" {
		return p.parseLocalAssignment()
	}
	if next.kind == tokPunct && (next.text == "." || next.text == "->") {
		return p.parseDynamicAssignment()
	}
	return p.parseNamedTypeInstance()
}

func (p *parser) parseLocalAssignment() (*ast.Tree, error) {
	propTok := p.advance()
	p.advance() // "="
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	n := ast.NewRule(ast.RuleLocalPropertyAssignment, p.path, propTok.line, propTok.column, propTok.line, propTok.column)
	n.AddChild("prop", ast.NewTerminal(propTok.text, p.path, propTok.line, propTok.column))
	n.AddChild(ast.FieldValue, expr)
	return n, nil
}

func (p *parser) parseDefaultAssignment() (*ast.Tree, error) {
	startTok := p.advance() // "default"
	propTok := p.advance()
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	n := ast.NewRule(ast.RuleDefaultPropertyAssignment, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	n.AddChild("prop", ast.NewTerminal(propTok.text, p.path, propTok.line, propTok.column))
	n.AddChild(ast.FieldValue, expr)
	return n, nil
}

func (p *parser) parseDynamicAssignment() (*ast.Tree, error) {
	startTok := p.cur()
	path := ast.NewRule("path", p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	var segs []token
	for {
		segs = append(segs, p.advance())
		if p.atPunct(".") {
			p.advance()
			continue
		}
		break
	}
	propTok := segs[len(segs)-1]
	if len(segs) > 1 && p.atPunct("=") {
		segs = segs[:len(segs)-1] // `a.b.prop = expr;`
	} else if _, err := p.expectPunct("->"); err != nil {
		return nil, err
	} else {
		propTok = p.advance()
	}
	for _, segTok := range segs {
		path.AddChild("seg", ast.NewTerminal(segTok.text, p.path, segTok.line, segTok.column))
	}
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	n := ast.NewRule(ast.RuleDynamicPropertyAssignment, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	n.AddChild("path", path)
	n.AddChild("prop", ast.NewTerminal(propTok.text, p.path, propTok.line, propTok.column))
	n.AddChild(ast.FieldValue, expr)
	return n, nil
}

func (p *parser) parseNamedTypeInstance() (*ast.Tree, error) {
	typeTok := p.advance()
	inst := ast.NewRule(ast.RuleComponentInst, p.path, typeTok.line, typeTok.column, typeTok.line, typeTok.column)
	inst.AddChild(ast.FieldType, ast.NewTerminal(typeTok.text, p.path, typeTok.line, typeTok.column))
	if p.atPunct("#") {
		actuals, err := p.parseActualParamList()
		if err != nil {
			return nil, err
		}
		inst.AddChild("actuals", actuals)
	}
	nameTok := p.advance()
	inst.AddChild("instname", ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
	if err := p.parseInstanceTail(inst); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return inst, nil
}

// parseInstanceTail parses the shared suffix after an instance name: array
// dimensions, address operators, and a field bit-range suffix:
// `[<dims>] @ <offset> += <stride> %= <align>`.
func (p *parser) parseInstanceTail(inst *ast.Tree) error {
	for p.atPunct("[") {
		startTok := p.advance()
		lo, err := p.parseExpr()
		if err != nil {
			return err
		}
		if p.atPunct(":") {
			p.advance()
			hi, err := p.parseExpr()
			if err != nil {
				return err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return err
			}
			rng := ast.NewRule(ast.RuleRangeSuffix, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
			rng.AddChild(ast.FieldMSB, lo)
			rng.AddChild(ast.FieldLSB, hi)
			inst.AddChild("range", rng)
			continue
		}
		if _, err := p.expectPunct("]"); err != nil {
			return err
		}
		if p.atPunct("@") || p.atPunct("+=") || p.atPunct("%=") || p.atPunct(";") || p.atPunct("[") {
			dim := ast.NewRule(ast.RuleArraySuffix, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
			dim.AddChild(ast.FieldValue, lo)
			inst.AddChild("dim", dim)
			continue
		}
		rng := ast.NewRule(ast.RuleRangeSuffix, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
		rng.AddChild(ast.FieldWidth, lo)
		inst.AddChild("range", rng)
	}
	if p.atPunct("@") {
		startTok := p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return err
		}
		off := ast.NewRule(ast.RuleInstAddrFixed, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
		off.AddChild(ast.FieldValue, expr)
		inst.AddChild("offset", off)
	}
	if p.atPunct("+=") {
		startTok := p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return err
		}
		st := ast.NewRule(ast.RuleInstAddrStride, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
		st.AddChild(ast.FieldValue, expr)
		inst.AddChild("stride", st)
	}
	if p.atPunct("%=") {
		startTok := p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return err
		}
		al := ast.NewRule(ast.RuleInstAddrAlign, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
		al.AddChild(ast.FieldValue, expr)
		inst.AddChild("align", al)
	}
	return nil
}

func (p *parser) parseEnumDef() (*ast.Tree, error) {
	startTok := p.advance() // "enum"
	nameTok := p.advance()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	def := ast.NewRule(ast.RuleEnumDef, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	def.AddChild(ast.FieldName_, ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
	for !p.atPunct("}") {
		memberTok := p.advance()
		m := ast.NewRule(ast.RuleEnumerator, p.path, memberTok.line, memberTok.column, memberTok.line, memberTok.column)
		m.AddChild(ast.FieldName_, ast.NewTerminal(memberTok.text, p.path, memberTok.line, memberTok.column))
		if p.atPunct("=") {
			p.advance()
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			m.AddChild(ast.FieldValue, expr)
		}
		def.AddChild("member", m)
		if p.atPunct(",") || p.atPunct(";") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return def, nil
}

func (p *parser) parseStructDef() (*ast.Tree, error) {
	startTok := p.advance() // "struct"
	nameTok := p.advance()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	def := ast.NewRule(ast.RuleStructDef, p.path, startTok.line, startTok.column, startTok.line, startTok.column)
	def.AddChild(ast.FieldName_, ast.NewTerminal(nameTok.text, p.path, nameTok.line, nameTok.column))
	for !p.atPunct("}") {
		typeTok := p.advance()
		fieldNameTok := p.advance()
		f := ast.NewRule(ast.RuleStructField, p.path, typeTok.line, typeTok.column, fieldNameTok.line, fieldNameTok.column)
		f.AddChild(ast.FieldType, ast.NewTerminal(typeTok.text, p.path, typeTok.line, typeTok.column))
		f.AddChild(ast.FieldName_, ast.NewTerminal(fieldNameTok.text, p.path, fieldNameTok.line, fieldNameTok.column))
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		def.AddChild("field", f)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return def, nil
}
