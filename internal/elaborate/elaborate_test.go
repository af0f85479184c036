package elaborate

import (
	"strings"
	"testing"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/node"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/parse"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/propschema"
)

func mustElaborate(t *testing.T, src string) (*node.Node, []string) {
	t.Helper()
	root, err := parse.Parse(src, "t.rdl")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	schema, err := propschema.New()
	if err != nil {
		t.Fatalf("propschema.New failed: %v", err)
	}
	model, diags := New(schema).Elaborate(root)
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	return model, msgs
}

func TestElaborateSimpleRegisterMap(t *testing.T) {
	src := `
reg ctrl_reg {
    field {
        sw = rw;
        hw = r;
    } value[7:0] = 0x0;
};

addrmap simple_chip {
    ctrl_reg ctrl @ 0x0;
    ctrl_reg status @ 0x4;
};
`
	model, msgs := mustElaborate(t, src)
	if model == nil {
		t.Fatalf("expected a model, diagnostics: %v", msgs)
	}
	for _, m := range msgs {
		if strings.Contains(m, "error") {
			t.Fatalf("unexpected error diagnostic: %s", m)
		}
	}
	if model.InstanceName != "simple_chip" {
		t.Fatalf("expected top instance simple_chip, got %q", model.InstanceName)
	}
	if len(model.Children) != 2 {
		t.Fatalf("expected 2 registers, got %d: %#v", len(model.Children), model.Children)
	}
	ctrl := model.Children[0]
	if ctrl.AbsoluteAddress != 0 {
		t.Fatalf("expected ctrl at address 0, got 0x%x", ctrl.AbsoluteAddress)
	}
	status := model.Children[1]
	if status.AbsoluteAddress != 4 {
		t.Fatalf("expected status at address 4, got 0x%x", status.AbsoluteAddress)
	}
	if len(ctrl.Children) != 2 || ctrl.Children[1].InstanceName != "RESERVED_31_8" {
		t.Fatalf("expected field value plus synthesized RESERVED_31_8, got %d children", len(ctrl.Children))
	}
	field := ctrl.Children[0]
	if field.MSB != 7 || field.LSB != 0 || field.Width != 8 {
		t.Fatalf("expected field [7:0] width 8, got msb=%d lsb=%d width=%d", field.MSB, field.LSB, field.Width)
	}
}

func TestElaborateAddressOverlapDiagnostic(t *testing.T) {
	src := `
reg r_t {
    field { sw = rw; hw = r; } f[0:0];
};
addrmap m {
    r_t a @ 0x0;
    r_t b @ 0x0;
};
`
	_, msgs := mustElaborate(t, src)
	found := false
	for _, m := range msgs {
		if strings.Contains(m, "overlap") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an address overlap diagnostic, got %v", msgs)
	}
}

func TestElaborateReservedFieldGapSynthesis(t *testing.T) {
	src := `
reg r_t {
    regwidth = 8;
    field { sw = rw; hw = r; } low[1:0];
};
addrmap m {
    r_t x @ 0x0;
};
`
	model, _ := mustElaborate(t, src)
	reg := model.Children[0]
	foundReserved := false
	for _, f := range reg.Children {
		if strings.HasPrefix(f.InstanceName, "RESERVED_") {
			foundReserved = true
		}
	}
	if !foundReserved {
		t.Fatalf("expected a synthesized reserved field for the gap above bit 1, got %#v", reg.Children)
	}
}

func TestElaborateArrayDefaultStrideMatchesRegWidth(t *testing.T) {
	src := `
reg r32 {
    regwidth = 32;
    field { sw = rw; hw = r; } f[31:0];
};
addrmap m {
    r32 regs[8];
};
`
	model, msgs := mustElaborate(t, src)
	if model == nil {
		t.Fatalf("expected a model, diagnostics: %v", msgs)
	}
	arr := model.Children[0]
	if arr.Stride != 4 {
		t.Fatalf("expected a 4-byte default stride for an 8-element array of 32-bit registers, got %d", arr.Stride)
	}
}

func TestElaborateAddrmapDefaultsToRegalignCursorAdvance(t *testing.T) {
	src := `
reg r8 {
    regwidth = 8;
    field { sw = rw; hw = r; } f[7:0];
};
reg r32 {
    regwidth = 32;
    field { sw = rw; hw = r; } f[31:0];
};
addrmap m {
    r8 a;
    r32 b;
};
`
	model, msgs := mustElaborate(t, src)
	if model == nil {
		t.Fatalf("expected a model, diagnostics: %v", msgs)
	}
	a, b := model.Children[0], model.Children[1]
	if a.AbsoluteAddress != 0 {
		t.Fatalf("expected a at address 0, got 0x%x", a.AbsoluteAddress)
	}
	// Default addressing is regalign: b (4 bytes wide) must land on its own
	// 4-byte boundary, not packed immediately after a's 1-byte span.
	if b.AbsoluteAddress != 4 {
		t.Fatalf("expected b regalign'd to address 4, got 0x%x", b.AbsoluteAddress)
	}
}

func TestElaborateCompactAddressingPacksTightly(t *testing.T) {
	src := `
reg r8 {
    regwidth = 8;
    field { sw = rw; hw = r; } f[7:0];
};
reg r32 {
    regwidth = 32;
    field { sw = rw; hw = r; } f[31:0];
};
addrmap m {
    addressing = compact;
    r8 a;
    r32 b;
};
`
	model, msgs := mustElaborate(t, src)
	if model == nil {
		t.Fatalf("expected a model, diagnostics: %v", msgs)
	}
	b := model.Children[1]
	if b.AbsoluteAddress != 1 {
		t.Fatalf("expected compact addressing to pack b immediately after a's 1-byte span at address 1, got 0x%x", b.AbsoluteAddress)
	}
}

func TestElaborateExplicitStrideSmallerThanElementOverlaps(t *testing.T) {
	src := `
reg r32 {
    regwidth = 32;
    field { sw = rw; hw = r; } f[31:0];
};
addrmap m {
    r32 regs[4] += 2;
};
`
	_, msgs := mustElaborate(t, src)
	found := false
	for _, m := range msgs {
		if strings.Contains(m, "overlap") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an instance-overlap diagnostic for a stride smaller than the element size, got %v", msgs)
	}
}

func TestElaborateMisalignedExplicitOffsetWarns(t *testing.T) {
	src := `
reg r32 {
    regwidth = 32;
    field { sw = rw; hw = r; } f[31:0];
};
addrmap m {
    r32 x @ 0x1;
};
`
	_, msgs := mustElaborate(t, src)
	found := false
	for _, m := range msgs {
		if strings.Contains(m, "MisalignedAddress") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a MisalignedAddress diagnostic for an explicit offset off its natural boundary, got %v", msgs)
	}
}
