// Package node is the elaborated-model output: a concrete, addressed
// instance tree with no remaining parameters or unresolved expressions.
package node

import (
	"encoding/json"
	"fmt"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

// Kind is the elaborated node's component kind, carried forward from its
// originating comptype.Type.Kind.
type Kind string

const (
	KindAddrmap Kind = "addrmap"
	KindRegfile Kind = "regfile"
	KindReg     Kind = "reg"
	KindField   Kind = "field"
	KindMem     Kind = "mem"
)

// Node is one instance in the elaborated tree. An array instance is a
// single Node carrying its whole shape in ArrayDims and its element stride
// in Stride; its Children describe one element.
type Node struct {
	Kind         Kind
	InstanceName string
	TypeName     string // the originating component type's name, "" if anonymous

	// AbsoluteAddress is meaningful for addrmap/regfile/reg/mem nodes
	// (byte address from the elaboration root). Fields instead carry
	// MSB/LSB/Width within their parent register.
	AbsoluteAddress uint64
	Size            uint64 // span in bytes of one instance, of one element for an array (0 for fields)

	// ArrayDims is the element count of each dimension of an array
	// instance; nil for non-array instances. The elaborator leaves
	// ArrayIndex nil.
	ArrayDims  []int
	ArrayIndex []int
	Stride     uint64 // byte stride between array elements, meaningful when ArrayDims != nil

	MSB, LSB int // fields only
	Width    int // fields only, derived from MSB/LSB

	Properties map[string]value.Value
	Children   []*Node

	Path value.NodePath
}

// ChildPath builds a child's stable NodePath given its parent's path, its
// instance name, and (for array elements) its selected indices.
func ChildPath(parent value.NodePath, instanceName string, arrayIndex []int) value.NodePath {
	seg := value.PathSegment{Name: instanceName, Indices: arrayIndex}
	out := make(value.NodePath, len(parent)+1)
	copy(out, parent)
	out[len(parent)] = seg
	return out
}

// Walk calls fn for n and every descendant, depth first, pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// jsonDoc mirrors the output_schema.cue #Model shape.
type jsonDoc struct {
	Format string        `json:"format"`
	Version string       `json:"version"`
	Model  []*jsonNode   `json:"model"`
}

type jsonNode struct {
	NodeType        string                    `json:"node_type"`
	InstName        string                    `json:"inst_name"`
	AbsoluteAddress string                    `json:"absolute_address,omitempty"`
	Size            *uint64                   `json:"size,omitempty"`
	ArrayDimensions []arrayDim                `json:"array_dimensions,omitempty"`
	MSB             *int                      `json:"msb,omitempty"`
	LSB             *int                      `json:"lsb,omitempty"`
	Width           *int                      `json:"width,omitempty"`
	Properties      map[string]value.Value    `json:"properties,omitempty"`
	Children        []*jsonNode               `json:"children,omitempty"`
}

// arrayDim is one dimension of an array instance's shape, serialized as its
// own object per dimension rather than a bare integer.
type arrayDim struct {
	Size int `json:"size"`
}

const schemaFormat = "SystemRDL_ElaboratedModel"
const schemaVersion = "1.0"

// MarshalModel serializes root as the elaborated-model JSON format.
func MarshalModel(root *Node) ([]byte, error) {
	doc := jsonDoc{Format: schemaFormat, Version: schemaVersion, Model: []*jsonNode{toJSONNode(root)}}
	return json.MarshalIndent(doc, "", "  ")
}

func toJSONNode(n *Node) *jsonNode {
	jn := &jsonNode{
		NodeType: string(n.Kind),
		InstName: n.InstanceName,
	}
	switch n.Kind {
	case KindField:
		msb, lsb, w := n.MSB, n.LSB, n.Width
		jn.MSB, jn.LSB, jn.Width = &msb, &lsb, &w
	default:
		jn.AbsoluteAddress = fmt.Sprintf("0x%x", n.AbsoluteAddress)
		size := n.Size
		jn.Size = &size
	}
	if n.ArrayDims != nil {
		jn.ArrayDimensions = make([]arrayDim, len(n.ArrayDims))
		for i, d := range n.ArrayDims {
			jn.ArrayDimensions[i] = arrayDim{Size: d}
		}
	}
	if len(n.Properties) > 0 {
		jn.Properties = n.Properties
	}
	for _, c := range n.Children {
		jn.Children = append(jn.Children, toJSONNode(c))
	}
	return jn
}
