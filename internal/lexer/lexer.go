// Package lexer implements a character-class FSM tokenizer: one token
// per call, a stack of instances supports .include, whitespace and
// comments are skipped transparently, and unrecognized input is
// reported as an Invalid token rather than aborting so the grammar
// driver can resynchronize on the next end-of-line.
package lexer

import (
	"fmt"
	"os"
	"unicode"

	"github.com/tstword/mipsasm/internal/reserved"
	"github.com/tstword/mipsasm/internal/token"
)

// Lexer tokenizes a single source file held entirely in memory. The
// assembler keeps a stack of these to implement .include.
type Lexer struct {
	Filename string
	src      []byte
	pos      int
	line     int
	col      int
}

// New constructs a Lexer over in-memory source, attributed to filename
// for diagnostics (used for tests that don't want a real file).
func New(filename string, src []byte) *Lexer {
	return &Lexer{Filename: filename, src: src, pos: 0, line: 1, col: 1}
}

// Open constructs a Lexer by reading path. Fails with a cannot-open
// error if the file cannot be read.
func Open(path string) (*Lexer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return New(path, data), nil
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.peek()
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '.' || c == '$' || unicode.IsLetter(rune(c))
}
func isIdentBody(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func escapeByte(c byte) (byte, bool) {
	switch c {
	case 'a':
		return 0x07, true
	case 'b':
		return 0x08, true
	case 'f':
		return 0x0C, true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return 0x0B, true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	case '?':
		return '?', true
	case '0':
		return 0x00, true
	default:
		return 0, false
	}
}

// Next produces the next token. At end of input it returns
// token.EndOfInput; it never returns a Go error - lexical failures are
// surfaced as token.Invalid tokens carrying a message so the caller can
// report and resynchronize instead of aborting.
func (l *Lexer) Next() token.Token {
	for {
		c := l.peek()
		switch {
		case c == 0:
			return token.Token{Kind: token.EndOfInput, Line: l.line, Col: l.col}
		case c == ' ' || c == '\t' || c == '\r':
			l.advance()
			continue
		case c == '#':
			for l.peek() != '\n' && l.peek() != 0 {
				l.advance()
			}
			continue
		case c == '\n':
			line, col := l.line, l.col
			l.advance()
			return token.Token{Kind: token.EndOfLine, Line: line, Col: col}
		case c == ':':
			line, col := l.line, l.col
			l.advance()
			return token.Token{Kind: token.Colon, Line: line, Col: col}
		case c == ',':
			line, col := l.line, l.col
			l.advance()
			return token.Token{Kind: token.Comma, Line: line, Col: col}
		case c == '(':
			line, col := l.line, l.col
			l.advance()
			return token.Token{Kind: token.LeftParen, Line: line, Col: col}
		case c == ')':
			line, col := l.line, l.col
			l.advance()
			return token.Token{Kind: token.RightParen, Line: line, Col: col}
		case c == '"':
			return l.lexString()
		case c == '\'':
			return l.lexChar()
		case c == '-' && isDigit(l.peekAt(1)):
			return l.lexNumber()
		case isDigit(c):
			return l.lexNumber()
		case isIdentStart(c):
			return l.lexIdentifier()
		default:
			line, col := l.line, l.col
			l.advance()
			return token.Token{Kind: token.Invalid, Lexeme: fmt.Sprintf("unrecognized character %q", c), Line: line, Col: col}
		}
	}
}

func (l *Lexer) lexIdentifier() token.Token {
	line, col := l.line, l.col
	start := l.pos
	l.advance()
	for isIdentBody(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])

	if e := reserved.Lookup(lexeme); e != nil {
		switch e.Kind {
		case token.Register:
			return token.Token{Kind: token.Register, RegNum: e.RegNum, Lexeme: lexeme, Line: line, Col: col}
		case token.Mnemonic, token.Directive:
			return token.Token{Kind: e.Kind, Ref: e, Lexeme: lexeme, Line: line, Col: col}
		}
	}
	return token.Token{Kind: token.Identifier, Lexeme: lexeme, Line: line, Col: col}
}

func (l *Lexer) lexNumber() token.Token {
	line, col := l.line, l.col
	neg := false
	if l.peek() == '-' {
		neg = true
		l.advance()
	}

	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		start := l.pos
		for isHex(l.peek()) {
			l.advance()
		}
		if l.pos == start {
			return token.Token{Kind: token.Invalid, Lexeme: "malformed hex literal", Line: line, Col: col}
		}
		var v int64
		for _, c := range l.src[start:l.pos] {
			v = v*16 + int64(hexDigit(c))
		}
		if neg {
			v = -v
		}
		return l.numberToken(v, line, col)
	}

	start := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}
	var v int64
	for _, c := range l.src[start:l.pos] {
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return l.numberToken(v, line, col)
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

func (l *Lexer) numberToken(v int64, line, col int) token.Token {
	if v < -(1 << 31) || v > (1<<32-1) {
		return token.Token{Kind: token.Invalid, Lexeme: "integer literal out of 32-bit range", Line: line, Col: col}
	}
	return token.Token{Kind: token.Integer, IntVal: v, Line: line, Col: col}
}

func (l *Lexer) lexChar() token.Token {
	line, col := l.line, l.col
	l.advance() // opening quote
	var v byte
	if l.peek() == '\\' {
		l.advance()
		esc, ok := escapeByte(l.peek())
		if !ok {
			return token.Token{Kind: token.Invalid, Lexeme: fmt.Sprintf("unknown escape sequence '\\%c'", l.peek()), Line: line, Col: col}
		}
		v = esc
		l.advance()
	} else if l.peek() == 0 || l.peek() == '\n' {
		return token.Token{Kind: token.Invalid, Lexeme: "unterminated character literal", Line: line, Col: col}
	} else {
		v = l.advance()
	}
	if l.peek() != '\'' {
		return token.Token{Kind: token.Invalid, Lexeme: "unterminated character literal", Line: line, Col: col}
	}
	l.advance()
	return token.Token{Kind: token.Integer, IntVal: int64(v), Line: line, Col: col}
}

func (l *Lexer) lexString() token.Token {
	line, col := l.line, l.col
	l.advance() // opening quote
	buf := make([]byte, 0, 32)
	for {
		c := l.peek()
		if c == 0 || c == '\n' {
			return token.Token{Kind: token.Invalid, Lexeme: "unterminated string literal", Line: line, Col: col}
		}
		if c == '"' {
			l.advance()
			return token.Token{Kind: token.String, Lexeme: string(buf), Line: line, Col: col}
		}
		if c == '\\' {
			l.advance()
			esc, ok := escapeByte(l.peek())
			if !ok {
				return token.Token{Kind: token.Invalid, Lexeme: fmt.Sprintf("unknown escape sequence '\\%c'", l.peek()), Line: line, Col: col}
			}
			buf = append(buf, esc)
			l.advance()
			continue
		}
		buf = append(buf, l.advance())
	}
}
