package eval

import "testing"

func TestParseIntLiteralPlainDecimal(t *testing.T) {
	lit, err := parseIntLiteral("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit.value != 42 || lit.width != 0 {
		t.Fatalf("expected {42, 0}, got %+v", lit)
	}
}

func TestParseIntLiteralPrefixedBases(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"0x2A", 42},
		{"0o52", 42},
		{"0b101010", 42},
	}
	for _, tc := range tests {
		lit, err := parseIntLiteral(tc.text)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.text, err)
		}
		if lit.value != tc.want || lit.width != 0 {
			t.Fatalf("%s: expected {%d, 0}, got %+v", tc.text, tc.want, lit)
		}
	}
}

func TestParseIntLiteralWidthAndBase(t *testing.T) {
	tests := []struct {
		text      string
		wantValue int64
		wantWidth int
	}{
		{"8'hFF", 0xFF, 8},
		{"4'b1010", 0xA, 4},
		{"3'o7", 7, 3},
		{"16'd1234", 1234, 16},
	}
	for _, tc := range tests {
		lit, err := parseIntLiteral(tc.text)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.text, err)
		}
		if lit.value != tc.wantValue || lit.width != tc.wantWidth {
			t.Fatalf("%s: expected {%d, %d}, got %+v", tc.text, tc.wantValue, tc.wantWidth, lit)
		}
	}
}

func TestParseIntLiteralMasksOverflowingDigits(t *testing.T) {
	// 4'hFF has more bits set than the declared width allows; the value is
	// masked down to the low 4 bits rather than rejected.
	lit, err := parseIntLiteral("4'hFF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit.value != 0xF {
		t.Fatalf("expected masked value 0xF, got 0x%x", lit.value)
	}
}

func TestParseIntLiteralRejectsWidthBeyond64(t *testing.T) {
	_, err := parseIntLiteral("65'hFF")
	if _, ok := err.(errOverflowWidth); !ok {
		t.Fatalf("expected errOverflowWidth, got %T (%v)", err, err)
	}
}

func TestParseIntLiteralRejectsMalformedDigits(t *testing.T) {
	if _, err := parseIntLiteral("8'hZZ"); err == nil {
		t.Fatalf("expected an error for invalid hex digits")
	}
	if _, err := parseIntLiteral(""); err == nil {
		t.Fatalf("expected an error for an empty literal")
	}
}
