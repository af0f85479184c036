package eval

import (
	"fmt"
	"strconv"
	"strings"
)

// parsedLiteral is the result of parsing a SystemRDL integer literal token,
// which is either a plain decimal number or a width-and-base form
// <width>'<base><digits>.
type parsedLiteral struct {
	value int64
	width int // 0 if the literal carried no explicit width
}

// parseIntLiteral parses the literal text carried by an expr_literal_int
// terminal. Supported forms: "42", "0x2A", "0o52", "0b101010",
// "8'hFF", "4'b1010", "3'o7", "16'd1234".
func parseIntLiteral(text string) (parsedLiteral, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return parsedLiteral{}, fmt.Errorf("empty integer literal")
	}

	if idx := strings.IndexByte(text, '\''); idx >= 0 {
		widthPart := text[:idx]
		rest := text[idx+1:]
		if len(rest) == 0 {
			return parsedLiteral{}, fmt.Errorf("malformed width literal %q", text)
		}
		width, err := strconv.Atoi(widthPart)
		if err != nil {
			return parsedLiteral{}, fmt.Errorf("malformed width in literal %q: %w", text, err)
		}
		if width <= 0 || width > 64 {
			return parsedLiteral{}, errOverflowWidth{width: width}
		}
		base := 10
		digits := rest
		switch rest[0] {
		case 'h', 'H':
			base = 16
			digits = rest[1:]
		case 'b', 'B':
			base = 2
			digits = rest[1:]
		case 'o', 'O':
			base = 8
			digits = rest[1:]
		case 'd', 'D':
			base = 10
			digits = rest[1:]
		}
		digits = strings.ReplaceAll(digits, "_", "")
		u, err := strconv.ParseUint(digits, base, 64)
		if err != nil {
			return parsedLiteral{}, fmt.Errorf("malformed digits in literal %q: %w", text, err)
		}
		mask := uint64(1)<<uint(width) - 1
		if width == 64 {
			mask = ^uint64(0)
		}
		return parsedLiteral{value: int64(u & mask), width: width}, nil
	}

	digits := strings.ReplaceAll(text, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X"):
		base = 16
		digits = digits[2:]
	case strings.HasPrefix(digits, "0o") || strings.HasPrefix(digits, "0O"):
		base = 8
		digits = digits[2:]
	case strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B"):
		base = 2
		digits = digits[2:]
	}
	i, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(digits, base, 64)
		if uerr != nil {
			return parsedLiteral{}, fmt.Errorf("malformed integer literal %q: %w", text, err)
		}
		i = int64(u)
	}
	return parsedLiteral{value: i, width: 0}, nil
}

// errOverflowWidth is raised when a literal declares a width beyond what
// this 64-bit-capped implementation can represent.
type errOverflowWidth struct{ width int }

func (e errOverflowWidth) Error() string {
	return fmt.Sprintf("width %d exceeds the 64-bit implementation limit", e.width)
}
