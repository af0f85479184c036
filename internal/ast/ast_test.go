package ast

import "testing"

func buildSample() *Tree {
	root := NewRule("component_named_def", "x.rdl", 1, 1, 3, 1)
	root.AddChild(FieldKind, NewTerminal("reg", "x.rdl", 1, 1))
	root.AddChild(FieldName_, NewTerminal("ctrl", "x.rdl", 1, 5))
	body := NewRule("component_body", "x.rdl", 2, 1, 2, 1)
	root.AddChild("body", body)
	return root
}

func TestChildByFieldAndChildrenByField(t *testing.T) {
	root := buildSample()
	if k := ChildByField(root, FieldKind); k == nil || k.Text() != "reg" {
		t.Fatalf("expected kind field 'reg', got %#v", k)
	}
	if n := ChildByField(root, FieldName_); n == nil || n.Text() != "ctrl" {
		t.Fatalf("expected name field 'ctrl', got %#v", n)
	}
	if ChildByField(root, "nonexistent") != nil {
		t.Fatalf("expected nil for a field that was never attached")
	}
}

func TestNewLeafCarriesTextWithoutChildren(t *testing.T) {
	leaf := NewLeaf(RuleExprIdentifier, "FOO", "x.rdl", 4, 2)
	if leaf.Kind() != RuleExprIdentifier {
		t.Fatalf("expected kind %q, got %q", RuleExprIdentifier, leaf.Kind())
	}
	if leaf.IsTerminal() {
		t.Fatalf("a leaf built with NewLeaf should not report IsTerminal")
	}
	if leaf.Text() != "FOO" {
		t.Fatalf("expected text FOO, got %q", leaf.Text())
	}
	if leaf.ChildCount() != 0 {
		t.Fatalf("expected no children, got %d", leaf.ChildCount())
	}
}

func TestMarshalASTRoundTripPreservesFields(t *testing.T) {
	root := buildSample()
	data, err := MarshalAST(root)
	if err != nil {
		t.Fatalf("MarshalAST failed: %v", err)
	}
	back, err := ParseASTJSON(data, "x.rdl")
	if err != nil {
		t.Fatalf("ParseASTJSON failed: %v", err)
	}
	if back.Kind() != root.Kind() {
		t.Fatalf("expected kind %q, got %q", root.Kind(), back.Kind())
	}
	if k := ChildByField(back, FieldKind); k == nil || k.Text() != "reg" {
		t.Fatalf("round-tripped tree lost its %q field, got %#v", FieldKind, k)
	}
	if n := ChildByField(back, FieldName_); n == nil || n.Text() != "ctrl" {
		t.Fatalf("round-tripped tree lost its %q field, got %#v", FieldName_, n)
	}
	if b := ChildByField(back, "body"); b == nil || b.Kind() != "component_body" {
		t.Fatalf("round-tripped tree lost its %q field, got %#v", "body", b)
	}
}
