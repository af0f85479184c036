package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// treeSitterNode adapts a *sitter.Node, backed by its original source
// bytes, to the Node interface. This is the boundary a caller running a
// tree-sitter-based SystemRDL grammar crosses to hand this core a parse
// tree, the same role github.com/smacker/go-tree-sitter plays for the VHDL
// grammar this core's teacher walks in its own extractor.
type treeSitterNode struct {
	n    *sitter.Node
	src  []byte
	path string
}

var _ Node = (*treeSitterNode)(nil)

// FromTreeSitter wraps a tree-sitter root (or any) node as an ast.Node.
func FromTreeSitter(n *sitter.Node, src []byte, path string) Node {
	if n == nil {
		return nil
	}
	return &treeSitterNode{n: n, src: src, path: path}
}

func (w *treeSitterNode) Kind() string {
	if w.n.IsNamed() {
		return w.n.Type()
	}
	return ""
}

func (w *treeSitterNode) IsTerminal() bool {
	return !w.n.IsNamed() || w.n.ChildCount() == 0
}

func (w *treeSitterNode) Text() string {
	return w.n.Content(w.src)
}

func (w *treeSitterNode) ChildCount() int {
	return int(w.n.ChildCount())
}

func (w *treeSitterNode) Child(i int) Node {
	c := w.n.Child(i)
	if c == nil {
		return nil
	}
	return FromTreeSitter(c, w.src, w.path)
}

func (w *treeSitterNode) FieldName(i int) string {
	return w.n.FieldNameForChild(i)
}

func (w *treeSitterNode) SourcePath() string { return w.path }

func (w *treeSitterNode) StartLine() int   { return int(w.n.StartPoint().Row) + 1 }
func (w *treeSitterNode) StartColumn() int { return int(w.n.StartPoint().Column) + 1 }
func (w *treeSitterNode) StopLine() int    { return int(w.n.EndPoint().Row) + 1 }
func (w *treeSitterNode) StopColumn() int  { return int(w.n.EndPoint().Column) + 1 }
