// Package ast defines the opaque parse-tree interface the elaboration core
// consumes, plus Tree, the in-memory implementation built by the
// hand-written lexer/parser in internal/parse and by the AST JSON reader
// (ParseASTJSON). treesitter.go adapts a go-tree-sitter parse tree to the
// same interface.
package ast

// Node is a single node in a parsed syntax tree: either a labeled rule with
// ordered children, or a terminal token. Every node carries the source
// location the grammar assigned it so diagnostics can point back at the
// original text.
type Node interface {
	// Kind returns the rule label for a rule node, or "" for a terminal.
	Kind() string

	// IsTerminal reports whether this node is a token rather than a rule.
	IsTerminal() bool

	// Text returns the node's source text.
	Text() string

	// ChildCount returns the number of ordered children (0 for terminals).
	ChildCount() int

	// Child returns the i'th child, or nil if out of range.
	Child(i int) Node

	// FieldName returns the grammar's field name for the i'th child, or ""
	// if the grammar assigned none.
	FieldName(i int) string

	// SourcePath returns the file path this node's tokens came from.
	SourcePath() string

	// StartLine, StartColumn, StopLine, StopColumn are 1-based source
	// locations bounding this node's text.
	StartLine() int
	StartColumn() int
	StopLine() int
	StopColumn() int
}

// ChildByField returns the first child whose FieldName matches name, or nil.
func ChildByField(n Node, name string) Node {
	if n == nil {
		return nil
	}
	for i := 0; i < n.ChildCount(); i++ {
		if n.FieldName(i) == name {
			return n.Child(i)
		}
	}
	return nil
}

// ChildrenByField returns every direct child registered under field name,
// in order. Grammars may attach a repeatable field (e.g. "dim" for each
// array-suffix clause) to more than one child.
func ChildrenByField(n Node, name string) []Node {
	if n == nil {
		return nil
	}
	var out []Node
	for i := 0; i < n.ChildCount(); i++ {
		if n.FieldName(i) == name {
			out = append(out, n.Child(i))
		}
	}
	return out
}

// ChildrenByKind returns every direct child whose Kind matches kind.
func ChildrenByKind(n Node, kind string) []Node {
	if n == nil {
		return nil
	}
	var out []Node
	for i := 0; i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// Children returns every direct child in order.
func Children(n Node) []Node {
	if n == nil {
		return nil
	}
	out := make([]Node, 0, n.ChildCount())
	for i := 0; i < n.ChildCount(); i++ {
		out = append(out, n.Child(i))
	}
	return out
}
