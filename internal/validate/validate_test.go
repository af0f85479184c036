package validate

import (
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/node"
)

func field(name string, msb, lsb int) *node.Node {
	return &node.Node{Kind: node.KindField, InstanceName: name, MSB: msb, LSB: lsb, Width: msb - lsb + 1}
}

func TestRegisterSynthesizesReservedGaps(t *testing.T) {
	fields := []*node.Node{field("low", 1, 0), field("high", 7, 4)}
	out, diags := Register(8, fields, hcl.Range{})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	var names []string
	for _, f := range out {
		names = append(names, f.InstanceName)
	}
	want := []string{"low", "RESERVED_3_2", "high"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestRegisterFlagsOverlap(t *testing.T) {
	fields := []*node.Node{field("a", 3, 0), field("b", 5, 2)}
	_, diags := Register(8, fields, hcl.Range{})
	if len(diags) == 0 {
		t.Fatalf("expected an overlap diagnostic")
	}
	if !strings.Contains(diags[0].Message, "overlaps") {
		t.Fatalf("expected overlap message, got %q", diags[0].Message)
	}
}

func TestRegisterFlagsOutOfRange(t *testing.T) {
	fields := []*node.Node{field("a", 9, 8)}
	_, diags := Register(8, fields, hcl.Range{})
	if len(diags) == 0 {
		t.Fatalf("expected a field-out-of-range diagnostic")
	}
}

func TestContainerSortsAndFlagsOverlap(t *testing.T) {
	a := &node.Node{InstanceName: "a", AbsoluteAddress: 4, Size: 4}
	b := &node.Node{InstanceName: "b", AbsoluteAddress: 0, Size: 8}
	sorted, diags := Container([]*node.Node{a, b}, hcl.Range{})
	if sorted[0].InstanceName != "b" || sorted[1].InstanceName != "a" {
		t.Fatalf("expected sorted order [b, a], got %v", []string{sorted[0].InstanceName, sorted[1].InstanceName})
	}
	if len(diags) == 0 {
		t.Fatalf("expected an overlap diagnostic (b spans 0-7, a starts at 4)")
	}
}

func TestTreeFlagsChildBeyondParent(t *testing.T) {
	root := &node.Node{InstanceName: "top", AbsoluteAddress: 0, Size: 4}
	child := &node.Node{InstanceName: "c", AbsoluteAddress: 8, Size: 1}
	root.Children = []*node.Node{child}
	diags := Tree(root)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for a child extending beyond its parent's span")
	}
}
