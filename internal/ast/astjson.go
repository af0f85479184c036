package ast

import "encoding/json"

// astDoc is the top-level envelope of the secondary AST JSON interchange
// form, used by cmd/rdl-ast and by tools that want the parse tree without
// running elaboration.
type astDoc struct {
	Format string    `json:"format"`
	Version string   `json:"version"`
	AST     []jsonNode `json:"ast"`
}

type jsonNode struct {
	Type        string     `json:"type"`
	RuleName    string     `json:"rule_name,omitempty"`
	Field       string     `json:"field,omitempty"`
	Text        string     `json:"text"`
	StartLine   int        `json:"start_line,omitempty"`
	StartColumn int        `json:"start_column,omitempty"`
	StopLine    int        `json:"stop_line,omitempty"`
	StopColumn  int        `json:"stop_column,omitempty"`
	Line        int        `json:"line,omitempty"`
	Column      int        `json:"column,omitempty"`
	Children    []jsonNode `json:"children,omitempty"`
}

func toJSONNode(n Node) jsonNode {
	if n.IsTerminal() {
		return jsonNode{
			Type:   "terminal",
			Text:   n.Text(),
			Line:   n.StartLine(),
			Column: n.StartColumn(),
		}
	}
	jn := jsonNode{
		Type:        "rule",
		RuleName:    n.Kind(),
		Text:        n.Text(),
		StartLine:   n.StartLine(),
		StartColumn: n.StartColumn(),
		StopLine:    n.StopLine(),
		StopColumn:  n.StopColumn(),
	}
	for i := 0; i < n.ChildCount(); i++ {
		child := toJSONNode(n.Child(i))
		child.Field = n.FieldName(i)
		jn.Children = append(jn.Children, child)
	}
	return jn
}

// MarshalAST renders root as the AST JSON interchange form.
func MarshalAST(root Node) ([]byte, error) {
	doc := astDoc{
		Format:  "SystemRDL_AST",
		Version: "1.0",
		AST:     []jsonNode{toJSONNode(root)},
	}
	return json.MarshalIndent(doc, "", "  ")
}

func fromJSONNode(jn jsonNode, path string) *Tree {
	if jn.Type == "terminal" {
		return NewTerminal(jn.Text, path, jn.Line, jn.Column)
	}
	t := NewRule(jn.RuleName, path, jn.StartLine, jn.StartColumn, jn.StopLine, jn.StopColumn)
	t.text = jn.Text
	for _, c := range jn.Children {
		t.AddChild(c.Field, fromJSONNode(c, path))
	}
	return t
}

// ParseASTJSON reconstructs an in-memory tree from the AST JSON interchange
// form. path is attributed to every reconstructed node since the wire form
// does not repeat the source file per node.
func ParseASTJSON(data []byte, path string) (*Tree, error) {
	var doc astDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.AST) == 0 {
		return nil, errEmptyAST
	}
	return fromJSONNode(doc.AST[0], path), nil
}

var errEmptyAST = jsonASTError("ast: empty \"ast\" array in AST JSON document")

type jsonASTError string

func (e jsonASTError) Error() string { return string(e) }
