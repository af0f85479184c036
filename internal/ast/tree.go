package ast

// Tree is an in-memory Node implementation. It is what tests build by hand
// to stand in for a parsed SystemRDL file, and what ParseASTJSON reconstructs
// from the secondary AST JSON interface.
type Tree struct {
	kind        string
	terminal    bool
	text        string
	path        string
	startLine   int
	startColumn int
	stopLine    int
	stopColumn  int
	children    []*Tree
	fieldNames  []string
}

var _ Node = (*Tree)(nil)

// NewRule builds a rule node at the given source range.
func NewRule(kind, path string, startLine, startColumn, stopLine, stopColumn int) *Tree {
	return &Tree{
		kind:        kind,
		path:        path,
		startLine:   startLine,
		startColumn: startColumn,
		stopLine:    stopLine,
		stopColumn:  stopColumn,
	}
}

// NewTerminal builds a token node.
func NewTerminal(text, path string, line, column int) *Tree {
	return &Tree{
		terminal:    true,
		text:        text,
		path:        path,
		startLine:   line,
		startColumn: column,
		stopLine:    line,
		stopColumn:  column + len(text),
	}
}

// NewLeaf builds a rule-kinded node that carries its own text directly and
// has no children, used for expression forms whose value lives entirely in
// the token (identifiers, literals) but which still need a specific Kind().
func NewLeaf(kind, text, path string, line, column int) *Tree {
	return &Tree{
		kind:        kind,
		text:        text,
		path:        path,
		startLine:   line,
		startColumn: column,
		stopLine:    line,
		stopColumn:  column + len(text),
	}
}

// AddChild appends a child, optionally under a named grammar field.
func (t *Tree) AddChild(field string, child *Tree) *Tree {
	t.children = append(t.children, child)
	t.fieldNames = append(t.fieldNames, field)
	return t
}

func (t *Tree) Kind() string     { return t.kind }
func (t *Tree) IsTerminal() bool { return t.terminal }
func (t *Tree) Text() string     { return t.text }
func (t *Tree) ChildCount() int  { return len(t.children) }
func (t *Tree) SourcePath() string { return t.path }
func (t *Tree) StartLine() int   { return t.startLine }
func (t *Tree) StartColumn() int { return t.startColumn }
func (t *Tree) StopLine() int    { return t.stopLine }
func (t *Tree) StopColumn() int  { return t.stopColumn }

func (t *Tree) Child(i int) Node {
	if i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

func (t *Tree) FieldName(i int) string {
	if i < 0 || i >= len(t.fieldNames) {
		return ""
	}
	return t.fieldNames[i]
}
