// Package validate runs post-elaboration checks: per-register bit-range
// legality and reserved-field synthesis, per-parent address-overlap
// checks, and the final tree-wide consistency pass.
package validate

import (
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/diag"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/node"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

// Register checks a fully-instantiated register's field set and returns the
// final, ordered field list with reserved fields synthesized for any
// uncovered bit range. When a field is out of range or overlaps another, the
// sorted fields are returned with the diagnostics and no reserved field is
// synthesized.
func Register(regWidthBits int, fields []*node.Node, rng hcl.Range) ([]*node.Node, diag.Diagnostics) {
	var diags diag.Diagnostics

	sorted := append([]*node.Node(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LSB < sorted[j].LSB })

	for i, f := range sorted {
		if f.MSB >= regWidthBits {
			diags.Add(diag.New(diag.FieldOutOfRange, rng, "field %q: msb %d exceeds register width %d", f.InstanceName, f.MSB, regWidthBits))
		}
		if i > 0 && sorted[i-1].MSB >= f.LSB {
			diags.Add(diag.New(diag.FieldOverlap, rng, "field %q overlaps field %q", sorted[i-1].InstanceName, f.InstanceName))
		}
	}
	if len(diags) > 0 {
		return sorted, diags
	}

	var out []*node.Node
	cursor := 0
	for _, f := range sorted {
		if f.LSB > cursor {
			out = append(out, reservedField(cursor, f.LSB-1))
		}
		out = append(out, f)
		if f.MSB+1 > cursor {
			cursor = f.MSB + 1
		}
	}
	if cursor <= regWidthBits-1 {
		out = append(out, reservedField(cursor, regWidthBits-1))
	}

	return out, diags
}

// reservedField synthesizes a RESERVED_<msb>_<lsb> field covering [lsb, msb].
func reservedField(lsb, msb int) *node.Node {
	return &node.Node{
		Kind:         node.KindField,
		InstanceName: reservedName(msb, lsb),
		LSB:          lsb,
		MSB:          msb,
		Width:        msb - lsb + 1,
		Properties: map[string]value.Value{
			"sw":   value.Enum(value.EnumVal{TypeName: "sw", Name: "r"}),
			"hw":   value.Enum(value.EnumVal{TypeName: "hw", Name: "na"}),
			"desc": value.Str("reserved"),
		},
	}
}

func reservedName(msb, lsb int) string {
	return "RESERVED_" + itoa(msb) + "_" + itoa(lsb)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Container checks a container's (addrmap/regfile/mem) children for address
// overlap and returns them sorted by absolute address.
func Container(children []*node.Node, rng hcl.Range) ([]*node.Node, diag.Diagnostics) {
	var diags diag.Diagnostics
	sorted := append([]*node.Node(nil), children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AbsoluteAddress < sorted[j].AbsoluteAddress })

	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		prevEnd := prev.AbsoluteAddress + spanOf(prev)
		if prevEnd > next.AbsoluteAddress {
			diags.Add(diag.New(diag.AddressOverlap, rng, "instance %q overlaps instance %q", prev.InstanceName, next.InstanceName))
		}
	}
	return sorted, diags
}

func spanOf(n *node.Node) uint64 {
	size := n.Size
	if size == 0 {
		size = 1
	}
	if n.ArrayDims != nil {
		count := uint64(1)
		for _, d := range n.ArrayDims {
			count *= uint64(d)
		}
		return (count-1)*n.Stride + size
	}
	return size
}

// Tree walks the fully elaborated root and asserts monotonic address
// consistency: every non-field node's absolute address falls within its
// parent's span.
func Tree(root *node.Node) diag.Diagnostics {
	var diags diag.Diagnostics
	var walk func(n *node.Node)
	walk = func(n *node.Node) {
		for _, c := range n.Children {
			if c.Kind == node.KindField {
				continue
			}
			if c.AbsoluteAddress < n.AbsoluteAddress {
				diags.Add(diag.New(diag.AddressOverlap, hcl.Range{}, "instance %q address precedes parent %q", c.InstanceName, n.InstanceName))
			}
			if n.Size != 0 && c.AbsoluteAddress+spanOf(c) > n.AbsoluteAddress+n.Size {
				diags.Add(diag.New(diag.AddressOverlap, hcl.Range{}, "instance %q extends beyond parent %q", c.InstanceName, n.InstanceName))
			}
			walk(c)
		}
	}
	walk(root)
	return diags
}
