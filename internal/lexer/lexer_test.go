package lexer

import (
	"testing"

	"github.com/tstword/mipsasm/internal/token"
)

func tokenKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	lx := New("test.s", []byte(src))
	var kinds []token.Kind
	for {
		tok := lx.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EndOfInput {
			return kinds
		}
	}
}

func TestPunctuationAndLayout(t *testing.T) {
	kinds := tokenKinds(t, "main:\n\tadd $t0, $t1, $t2 # comment\n")
	want := []token.Kind{
		token.Identifier, token.Colon, token.EndOfLine,
		token.Mnemonic, token.Register, token.Comma, token.Register, token.Comma, token.Register,
		token.EndOfLine, token.EndOfInput,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %v tokens, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestIdentifierOnlyLeadingDotOrDollar(t *testing.T) {
	lx := New("t.s", []byte(".foo"))
	tok := lx.Next()
	if tok.Kind != token.Directive && tok.Kind != token.Identifier {
		t.Fatalf("unexpected kind %v for .foo", tok.Kind)
	}
	if tok.Lexeme != ".foo" {
		t.Errorf("Lexeme = %q, want %q", tok.Lexeme, ".foo")
	}

	lx2 := New("t.s", []byte("label1"))
	tok2 := lx2.Next()
	if tok2.Kind != token.Identifier || tok2.Lexeme != "label1" {
		t.Errorf("got %v %q, want identifier %q", tok2.Kind, tok2.Lexeme, "label1")
	}
}

func TestIntegerLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"42", 42},
		{"-7", -7},
		{"0x1F", 31},
		{"0xFFFFFFFF", 4294967295},
	}
	for _, c := range cases {
		lx := New("t.s", []byte(c.src))
		tok := lx.Next()
		if tok.Kind != token.Integer {
			t.Fatalf("%q: kind = %v, want Integer", c.src, tok.Kind)
		}
		if tok.IntVal != c.want {
			t.Errorf("%q: IntVal = %d, want %d", c.src, tok.IntVal, c.want)
		}
	}
}

func TestIntegerOutOfRange(t *testing.T) {
	lx := New("t.s", []byte("99999999999"))
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Errorf("kind = %v, want Invalid", tok.Kind)
	}
}

func TestStringEscapes(t *testing.T) {
	lx := New("t.s", []byte(`"a\nb\t\"c"`))
	tok := lx.Next()
	if tok.Kind != token.String {
		t.Fatalf("kind = %v, want String", tok.Kind)
	}
	want := "a\nb\t\"c"
	if tok.Lexeme != want {
		t.Errorf("Lexeme = %q, want %q", tok.Lexeme, want)
	}
}

func TestUnterminatedString(t *testing.T) {
	lx := New("t.s", []byte(`"unterminated`))
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Errorf("kind = %v, want Invalid", tok.Kind)
	}
}

func TestCharLiteral(t *testing.T) {
	lx := New("t.s", []byte(`'\n'`))
	tok := lx.Next()
	if tok.Kind != token.Integer || tok.IntVal != '\n' {
		t.Errorf("got kind %v val %d, want Integer %d", tok.Kind, tok.IntVal, int('\n'))
	}
}

func TestRegisterToken(t *testing.T) {
	lx := New("t.s", []byte("$t3"))
	tok := lx.Next()
	if tok.Kind != token.Register || tok.RegNum != 11 {
		t.Errorf("got kind %v reg %d, want Register 11", tok.Kind, tok.RegNum)
	}
}
