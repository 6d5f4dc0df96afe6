package assembler

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/tstword/mipsasm/internal/segment"
)

func assembleSource(t *testing.T, src string) *Assembler {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.s")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a := New()
	a.Assemble([]string{path})
	return a
}

// writeFile writes src to name inside dir, failing the test on error.
func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// TestIncludeDoesNotCorruptParentParsing covers .include resuming the
// parent file correctly: the parent's pending end-of-line token must
// be consumed before the included file's first token becomes
// lookahead, or the included file's first line is misparsed as a
// continuation of the .include line.
func TestIncludeDoesNotCorruptParentParsing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "child.s", ".text\nincluded: addu $t0, $t1, $t2\n")
	parentPath := writeFile(t, dir, "parent.s", ".text\n.include \"child.s\"\nmain: addu $t3, $t4, $t5\n")

	a := New()
	a.Assemble([]string{parentPath})
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	if sym := a.Sym.Lookup("included"); sym == nil {
		t.Errorf("label %q from included file was not defined", "included")
	}
	if sym := a.Sym.Lookup("main"); sym == nil {
		t.Errorf("label %q after .include was not defined", "main")
	}
	im := a.Mem.Images[segment.Text]
	if im.HighWater != 8 {
		t.Fatalf("HighWater = %d, want 8 (one word from the include, one from the parent)", im.HighWater)
	}
}

// TestLexInvalidSurfacesAsLexInvalid checks that a lexer-reported
// Invalid token (here, an unterminated string) is reported with the
// lex-invalid error kind and the lexer's own diagnostic message, not
// as a generic parse-unexpected.
func TestLexInvalidSurfacesAsLexInvalid(t *testing.T) {
	a := assembleSource(t, ".data\nmsg: .asciiz \"unterminated\n")
	if !a.Failed() {
		t.Fatalf("expected failure for unterminated string")
	}
	found := false
	for _, e := range a.Errors {
		if e.Kind == LexInvalid {
			found = true
			if e.Msg == "" {
				t.Errorf("LexInvalid error carries no message")
			}
		}
	}
	if !found {
		t.Errorf("expected a LexInvalid error, got %v", a.Errors)
	}
}

func word(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i*4 : i*4+4])
}

func TestSimpleRType(t *testing.T) {
	a := assembleSource(t, ".text\nmain: addu $t0, $t1, $t2\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	im := a.Mem.Images[segment.Text]
	if im.HighWater != 4 {
		t.Fatalf("HighWater = %d, want 4", im.HighWater)
	}
	if got := word(im.Bytes, 0); got != 0x012A4021 {
		t.Errorf("word = %#08x, want 0x012a4021", got)
	}
	sym := a.Sym.Lookup("main")
	if sym == nil || sym.Offset != segment.Base[segment.Text] {
		t.Errorf("main offset = %#x, want %#x", sym.Offset, segment.Base[segment.Text])
	}
}

func TestBranchSelfReference(t *testing.T) {
	a := assembleSource(t, ".text\nloop: beq $t0, $t1, loop\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	im := a.Mem.Images[segment.Text]
	if got := word(im.Bytes, 0); got != 0x1109FFFF {
		t.Errorf("word = %#08x, want 0x1109ffff", got)
	}
}

func TestLaForwardReferenceIntoData(t *testing.T) {
	a := assembleSource(t, ".text\nla $t0, msg\n.data\nmsg: .asciiz \"hi\"\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	text := a.Mem.Images[segment.Text]
	hi := word(text.Bytes, 0)
	lo := word(text.Bytes, 1)
	// lui $1, (0x10010000>>16) ; ori $t0, $1, 0x0000
	if hi != 0x3C011001 {
		t.Errorf("lui word = %#08x, want 0x3c011001", hi)
	}
	if lo != 0x34280000 {
		t.Errorf("ori word = %#08x, want 0x34280000", lo)
	}
	data := a.Mem.Images[segment.Data]
	want := []byte{'h', 'i', 0}
	for i, b := range want {
		if data.Bytes[i] != b {
			t.Errorf("data byte %d = %#x, want %#x", i, data.Bytes[i], b)
		}
	}
}

func TestLiExpansionVariants(t *testing.T) {
	a := assembleSource(t, ".text\nli $t0, 0x12345678\nli $t1, 5\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	im := a.Mem.Images[segment.Text]
	if got := word(im.Bytes, 0); got != 0x3C011234 {
		t.Errorf("lui word = %#08x, want 0x3c011234", got)
	}
	if got := word(im.Bytes, 1); got != 0x34285678 {
		t.Errorf("ori word = %#08x, want 0x34285678", got)
	}
	if got := word(im.Bytes, 2); got != 0x24090005 {
		t.Errorf("addiu word = %#08x, want 0x24090005", got)
	}
}

func TestAlignThenWordInData(t *testing.T) {
	a := assembleSource(t, ".data\n.align 2\nw: .word 1,2,3\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	im := a.Mem.Images[segment.Data]
	want := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}
	for i, b := range want {
		if im.Bytes[i] != b {
			t.Errorf("byte %d = %#x, want %#x", i, im.Bytes[i], b)
		}
	}
	sym := a.Sym.Lookup("w")
	if sym == nil || sym.Offset != segment.Base[segment.Data] {
		t.Errorf("w offset = %#x, want %#x", sym.Offset, segment.Base[segment.Data])
	}
}

func TestForwardJumpResolvesAndUnresolvedFails(t *testing.T) {
	a := assembleSource(t, ".text\nj end\nsll $0, $0, 0\nend: syscall\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}

	b := assembleSource(t, ".text\nj nowhere\n")
	if !b.Failed() {
		t.Fatalf("expected failure for reference to an undefined label")
	}
	found := false
	for _, e := range b.Errors {
		if e.Kind == LabelUndefined {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a LabelUndefined error, got %v", b.Errors)
	}
}

// TestTrailingForwardReferenceExtendsHighWater covers the case where a
// deferred instruction's patched bytes are the last thing emitted in a
// segment: replay must still extend the high-water mark, or the final
// dump would silently drop them.
func TestTrailingForwardReferenceExtendsHighWater(t *testing.T) {
	a := assembleSource(t, ".text\nb end\nend:\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	im := a.Mem.Images[segment.Text]
	if im.HighWater != 4 {
		t.Fatalf("HighWater = %d, want 4 (trailing deferred branch must count)", im.HighWater)
	}
	if got := word(im.Bytes, 0); got != 0x04010000 {
		t.Errorf("word = %#08x, want 0x04010000 (bgez $0, end at offset 4, branch offset 0)", got)
	}
}

// TestIdempotentReplay checks that, with no forward references,
// resolveDeferred's pass over Touched appends nothing beyond what pass
// one already emitted.
func TestIdempotentReplay(t *testing.T) {
	a := assembleSource(t, ".text\nstart: addu $t0, $t1, $t2\nback: beq $t0,$t1,start\n")
	if a.Failed() {
		t.Fatalf("errors: %v", a.Errors)
	}
	im := a.Mem.Images[segment.Text]
	if im.HighWater != 8 {
		t.Errorf("HighWater = %d, want 8 (no extra bytes from replay)", im.HighWater)
	}
}
