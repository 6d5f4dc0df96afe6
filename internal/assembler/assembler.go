// Package assembler drives the recursive-descent grammar over the
// token stream, dispatches to the encoder in encoder.go and the
// directive handlers in directives.go, and performs end-of-pass
// deferred-reference resolution for forward-referenced labels.
package assembler

import (
	"fmt"
	"path/filepath"

	"github.com/tstword/mipsasm/internal/lexer"
	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/operand"
	"github.com/tstword/mipsasm/internal/reserved"
	"github.com/tstword/mipsasm/internal/segment"
	"github.com/tstword/mipsasm/internal/symtab"
	"github.com/tstword/mipsasm/internal/token"
)

// ErrorKind classifies a reported diagnostic.
type ErrorKind int

const (
	LexInvalid ErrorKind = iota
	ParseUnexpected
	OperandMismatch
	LabelRedefined
	LabelUndefined
	SegmentMisuse
	SegmentOverflow
	IncludeOpenFailed
	AlignOutOfRange
	Fatal
)

func (k ErrorKind) String() string {
	names := [...]string{
		"lex-invalid", "parse-unexpected", "operand-mismatch", "label-redefined",
		"label-undefined", "segment-misuse", "segment-overflow", "include-open-failed",
		"align-out-of-range", "fatal",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// AssemblyError is one reported diagnostic.
type AssemblyError struct {
	Kind ErrorKind
	File string
	Line int
	Col  int
	Msg  string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Col, e.Kind, e.Msg)
}

// Assembler is the explicit, threaded assembler state: every grammar
// and encoder routine is a method on this struct rather than reaching
// for file-scoped globals, so one process can run independent
// assemblies concurrently if it ever needs to.
type Assembler struct {
	Mem    *segment.Memory
	Sym    *symtab.Table
	files  []*lexer.Lexer // stack; files[len(files)-1] is active
	look   token.Token
	status bool // true == ok
	Errors []*AssemblyError
}

func New() *Assembler {
	return &Assembler{Mem: segment.NewMemory(), Sym: symtab.New(), status: true}
}

func (a *Assembler) Failed() bool { return !a.status }

func (a *Assembler) curFile() string {
	if len(a.files) == 0 {
		return "<eof>"
	}
	return a.files[len(a.files)-1].Filename
}

func (a *Assembler) report(kind ErrorKind, line, col int, format string, args ...interface{}) {
	a.status = false
	a.Errors = append(a.Errors, &AssemblyError{Kind: kind, File: a.curFile(), Line: line, Col: col, Msg: fmt.Sprintf(format, args...)})
}

// Assemble opens each input file (processed in order) and runs the
// grammar to completion, then performs deferred-reference resolution.
// It never aborts on a non-fatal error: it accumulates diagnostics and
// returns a non-nil error only if Failed() at the end.
func (a *Assembler) Assemble(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}
	for i := len(paths) - 1; i >= 0; i-- {
		lx, err := lexer.Open(paths[i])
		if err != nil {
			a.report(IncludeOpenFailed, 0, 0, "%v", err)
			continue
		}
		a.files = append(a.files, lx)
	}
	if len(a.files) == 0 {
		return fmt.Errorf("no input files could be opened")
	}

	a.look = a.files[len(a.files)-1].Next()
	a.instructionList()
	a.resolveDeferred()

	if a.Failed() {
		return fmt.Errorf("assembly failed with %d error(s)", len(a.Errors))
	}
	return nil
}

// match advances the lookahead if it equals kind, otherwise reports a
// parse-unexpected error.
func (a *Assembler) match(kind token.Kind) bool {
	if a.look.Kind == kind {
		a.advance()
		return true
	}
	a.report(ParseUnexpected, a.look.Line, a.look.Col, "expected %s, saw %s", kind, a.look.Kind)
	return false
}

// advance pulls the next lookahead token, popping exhausted tokenizers
// from the include stack: every .include push is undone by the next
// end-of-input pop on that file.
func (a *Assembler) advance() {
	for {
		if len(a.files) == 0 {
			a.look = token.Token{Kind: token.EndOfInput}
			return
		}
		top := a.files[len(a.files)-1]
		t := top.Next()
		if t.Kind == token.EndOfInput {
			a.files = a.files[:len(a.files)-1]
			if len(a.files) == 0 {
				a.look = t
				return
			}
			continue
		}
		a.look = t
		return
	}
}

// recover drains tokens to the next end-of-line so a malformed
// instruction doesn't desynchronize the rest of the file.
func (a *Assembler) recover() {
	for a.look.Kind != token.EndOfLine && a.look.Kind != token.EndOfInput {
		a.advance()
	}
}

func (a *Assembler) endLine() {
	switch a.look.Kind {
	case token.EndOfLine:
		a.advance()
	case token.EndOfInput:
		// fall through: nothing to consume
	default:
		a.report(ParseUnexpected, a.look.Line, a.look.Col, "unexpected %s", a.look.Kind)
		a.recover()
		if a.look.Kind == token.EndOfLine {
			a.advance()
		}
	}
}

// instructionList := instruction instructionList | ε
func (a *Assembler) instructionList() {
	for a.look.Kind != token.EndOfInput {
		a.instruction()
	}
}

// instruction := label EOL
//             | label mnemonic operand_list EOL
//             | label directive operand_list EOL
//             | EOL
func (a *Assembler) instruction() {
	if a.look.Kind == token.Identifier {
		a.label()
	}

	switch a.look.Kind {
	case token.Directive:
		d := a.look.Ref.(*reserved.Entry).Descriptor
		line, col := a.look.Line, a.look.Col
		seg := a.Mem.Active
		offset := a.Mem.Current().Cursor
		a.advance()
		a.skipStrayCommas()
		ops := a.maybeOperandList()
		a.dispatchDirective(d, ops, seg, offset, line, col)
		a.endLine()
	case token.Mnemonic:
		d := a.look.Ref.(*reserved.Entry).Descriptor
		line, col := a.look.Line, a.look.Col
		seg := a.Mem.Active
		offset := a.Mem.Current().Cursor
		a.advance()
		a.skipStrayCommas()
		ops := a.maybeOperandList()
		a.dispatchInstruction(d, ops, seg, offset, line, col)
		a.endLine()
	case token.EndOfLine, token.EndOfInput:
		a.endLine()
	case token.Invalid:
		a.report(LexInvalid, a.look.Line, a.look.Col, "%s", a.look.Lexeme)
		a.recover()
		a.endLine()
	default:
		a.report(ParseUnexpected, a.look.Line, a.look.Col, "unexpected %s", a.look.Kind)
		a.recover()
		a.endLine()
	}
}

func (a *Assembler) skipStrayCommas() {
	for a.look.Kind == token.Comma {
		a.advance()
	}
}

func (a *Assembler) maybeOperandList() []operand.Operand {
	switch a.look.Kind {
	case token.Identifier, token.Integer, token.Register, token.String, token.LeftParen, token.Invalid:
		return a.operandList()
	default:
		return nil
	}
}

// label := identifier COLON | ε
func (a *Assembler) label() {
	name := a.look.Lexeme
	line, col := a.look.Line, a.look.Col
	a.advance()
	if a.look.Kind != token.Colon {
		a.report(ParseUnexpected, line, col, "expected ':' after identifier %q used as a label", name)
		return
	}
	a.advance()

	// Auto-align before a label that immediately precedes .word/.half.
	if a.look.Kind == token.Directive {
		d := a.look.Ref.(*reserved.Entry).Descriptor
		switch d.Ordinal {
		case opcode.DirWord:
			a.alignCurrent(2)
		case opcode.DirHalf:
			a.alignCurrent(1)
		}
	}

	seg := a.Mem.Active
	offset := a.Mem.Current().Cursor

	entry := a.Sym.Lookup(name)
	if entry == nil {
		entry = a.Sym.Insert(name)
	}
	switch entry.Status {
	case symtab.Defined:
		entry.Status = symtab.Doubly
		a.report(LabelRedefined, line, col, "label %q redefined", name)
	default:
		entry.Status = symtab.Defined
		entry.Segment = seg
		entry.Offset = offset
	}
}

func (a *Assembler) alignCurrent(n uint) {
	if err := a.Mem.Current().Align(n); err != nil {
		a.report(SegmentOverflow, a.look.Line, a.look.Col, "%v", err)
	}
}

// operandList := operand (COMMA operand)*
func (a *Assembler) operandList() []operand.Operand {
	ops := make([]operand.Operand, 0, 3)
	ops = append(ops, a.operand())
	for a.look.Kind == token.Comma {
		a.advance()
		if !a.startsOperand() {
			break
		}
		ops = append(ops, a.operand())
	}
	return ops
}

func (a *Assembler) startsOperand() bool {
	switch a.look.Kind {
	case token.Register, token.Identifier, token.String, token.Integer, token.LeftParen, token.Invalid:
		return true
	default:
		return false
	}
}

// operand := register | identifier | string | integer
//         | integer LPAREN register RPAREN
//         | LPAREN register RPAREN
func (a *Assembler) operand() operand.Operand {
	line, col := a.look.Line, a.look.Col
	switch a.look.Kind {
	case token.Register:
		reg := a.look.RegNum
		a.advance()
		return operand.NewRegister(reg, line, col)
	case token.Identifier:
		name := a.look.Lexeme
		a.advance()
		return operand.NewLabel(name, line, col)
	case token.String:
		s := a.look.Lexeme
		a.advance()
		return operand.NewString(s, line, col)
	case token.Integer:
		v := int32(a.look.IntVal)
		a.advance()
		if a.look.Kind == token.LeftParen {
			a.advance()
			reg := 0
			if a.look.Kind == token.Register {
				reg = a.look.RegNum
				a.advance()
			} else {
				a.report(ParseUnexpected, a.look.Line, a.look.Col, "expected register, saw %s", a.look.Kind)
			}
			a.match(token.RightParen)
			return operand.NewAddress(v, reg, line, col)
		}
		return operand.NewImmediate(v, line, col)
	case token.LeftParen:
		a.advance()
		reg := 0
		if a.look.Kind == token.Register {
			reg = a.look.RegNum
			a.advance()
		} else {
			a.report(ParseUnexpected, a.look.Line, a.look.Col, "expected register, saw %s", a.look.Kind)
		}
		a.match(token.RightParen)
		return operand.NewAddress(0, reg, line, col)
	case token.Invalid:
		a.report(LexInvalid, a.look.Line, a.look.Col, "%s", a.look.Lexeme)
		a.advance()
		return operand.Operand{}
	default:
		a.report(ParseUnexpected, a.look.Line, a.look.Col, "unexpected %s in operand", a.look.Kind)
		a.advance()
		return operand.Operand{}
	}
}

// verifyOperandList validates operands against a descriptor's pattern
// triple, honoring the Repeat and Optional slot modifiers.
func verifyOperandList(pat opcode.Pattern, ops []operand.Operand) error {
	oi := 0
	for slot := 0; slot < 3; slot++ {
		mask := pat[slot]
		if mask == 0 {
			break
		}
		if mask&operand.Repeat != 0 {
			for oi < len(ops) {
				if !ops[oi].Matches(mask) {
					return fmt.Errorf("operand %d does not match expected pattern", oi+1)
				}
				oi++
			}
			continue
		}
		if oi >= len(ops) {
			if mask&operand.Optional != 0 {
				continue
			}
			return fmt.Errorf("missing operand %d", slot+1)
		}
		if !ops[oi].Matches(mask) {
			return fmt.Errorf("operand %d does not match expected pattern", oi+1)
		}
		oi++
	}
	if oi < len(ops) {
		return fmt.Errorf("too many operands")
	}
	return nil
}

// includeFile implements .include: push a new lexer on top of the file
// stack so its tokens are consumed before resuming the parent file. It
// must not touch a.look: the caller still has the parent's pending
// end-of-line token as lookahead, and endLine() needs to consume that
// before advance() pulls the first token of the newly-pushed file.
func (a *Assembler) includeFile(relTo string, path string, line, col int) {
	full := path
	if !filepath.IsAbs(path) && relTo != "" {
		full = filepath.Join(filepath.Dir(relTo), path)
	}
	lx, err := lexer.Open(full)
	if err != nil {
		a.report(IncludeOpenFailed, line, col, "%v", err)
		return
	}
	a.files = append(a.files, lx)
}
