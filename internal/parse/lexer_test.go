package parse

import "testing"

func TestLexerTokenizesPunctsAndComments(t *testing.T) {
	src := "a += b // comment\n/* block */ c <<= 2"
	lx := newLexer(src, "x.rdl")
	var kinds []string
	for {
		tok := lx.next()
		if tok.kind == tokEOF {
			break
		}
		kinds = append(kinds, tok.text)
	}
	want := []string{"a", "+=", "b", "c", "<<=", "2"}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], kinds[i])
		}
	}
}

func TestLexerIntLiteralWithWidth(t *testing.T) {
	lx := newLexer("8'hFF", "x.rdl")
	tok := lx.next()
	if tok.kind != tokInt || tok.text != "8'hFF" {
		t.Fatalf("expected single int token 8'hFF, got %+v", tok)
	}
}

func TestLexerString(t *testing.T) {
	lx := newLexer(`"hello world"`, "x.rdl")
	tok := lx.next()
	if tok.kind != tokString || tok.text != "hello world" {
		t.Fatalf("expected string token, got %+v", tok)
	}
}
