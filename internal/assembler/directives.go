// Directive dispatch: .include, the four segment-select directives,
// .align, the data-emitting directives (.word/.half/.byte/.ascii/
// .asciiz), and .space.
package assembler

import (
	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/operand"
	"github.com/tstword/mipsasm/internal/segment"
	"github.com/tstword/mipsasm/internal/symtab"
)

func (a *Assembler) dispatchDirective(d *opcode.Descriptor, ops []operand.Operand, seg segment.ID, offset uint32, line, col int) {
	if err := verifyOperandList(d.Pattern, ops); err != nil {
		a.report(OperandMismatch, line, col, "%s: %v", d.Mnemonic, err)
		return
	}

	switch d.Ordinal {
	case opcode.DirInclude:
		a.includeFile(a.curFile(), ops[0].Str, line, col)
		return
	case opcode.DirText:
		a.Mem.Active = segment.Text
		return
	case opcode.DirData:
		a.Mem.Active = segment.Data
		return
	case opcode.DirKtext:
		a.Mem.Active = segment.KText
		return
	case opcode.DirKdata:
		a.Mem.Active = segment.KData
		return
	case opcode.DirAlign:
		n := ops[0].Imm
		if n < 0 || n > 31 {
			a.report(AlignOutOfRange, line, col, ".align %d out of range", n)
			return
		}
		if err := a.Mem.Images[seg].Align(uint(n)); err != nil {
			a.report(SegmentOverflow, line, col, "%v", err)
		}
		return
	}

	if seg != segment.Data && seg != segment.KData {
		a.report(SegmentMisuse, line, col, "%s not allowed outside a data segment", d.Mnemonic)
		return
	}

	switch d.Ordinal {
	case opcode.DirWord:
		a.directiveWord(ops, seg, offset, line, col)
	case opcode.DirHalf:
		a.directiveFixed(ops, seg, 2, line, col)
	case opcode.DirByte:
		a.directiveFixed(ops, seg, 1, line, col)
	case opcode.DirAscii:
		a.directiveAscii(ops, seg, line, col, false)
	case opcode.DirAsciiz:
		a.directiveAscii(ops, seg, line, col, true)
	case opcode.DirSpace:
		n := uint32(ops[0].Imm)
		if err := a.Mem.Images[seg].Space(n); err != nil {
			a.report(SegmentOverflow, line, col, "%v", err)
		}
	}
}

// directiveWord emits each operand as a little-endian 4-byte word.
// Labels are permitted; the first undefined label defers the whole
// directive onto that symbol's pending list, reserving 4 bytes per
// operand regardless of resolution state.
func (a *Assembler) directiveWord(ops []operand.Operand, seg segment.ID, offset uint32, line, col int) {
	im := a.Mem.Images[seg]
	if err := im.Align(2); err != nil {
		a.report(SegmentOverflow, line, col, "%v", err)
		return
	}
	offset = im.Cursor

	var deferred *symtab.Entry
	for _, op := range ops {
		if op.Kind == operand.Label {
			entry := a.resolveLabel(op.Label)
			if entry.Status == symtab.Undefined && deferred == nil {
				deferred = entry
			}
		}
	}

	size := uint32(4 * len(ops))
	if deferred != nil {
		d := &opcode.Table[opcode.DirWord]
		pending := &opcode.PendingInstruction{Descriptor: d, Operands: ops, Segment: int(seg), Offset: offset, Line: line, Col: col}
		deferred.Deferred = append(deferred.Deferred, pending)
		if _, err := reserve(im, size); err != nil {
			a.report(SegmentOverflow, line, col, "%v", err)
		}
		return
	}

	buf := make([]byte, 0, size)
	for _, op := range ops {
		var v uint32
		if op.Kind == operand.Label {
			v = a.resolveLabel(op.Label).Offset
		} else {
			v = uint32(op.Imm)
		}
		buf = append(buf, wordBytes(v)...)
	}
	if err := im.Write(buf); err != nil {
		a.report(SegmentOverflow, line, col, "%v", err)
	}
}

// directiveFixed emits .half/.byte: no label support, per spec.
func (a *Assembler) directiveFixed(ops []operand.Operand, seg segment.ID, width int, line, col int) {
	im := a.Mem.Images[seg]
	if width == 2 {
		if err := im.Align(1); err != nil {
			a.report(SegmentOverflow, line, col, "%v", err)
			return
		}
	}
	buf := make([]byte, 0, width*len(ops))
	for _, op := range ops {
		v := uint32(op.Imm)
		switch width {
		case 2:
			buf = append(buf, byte(v), byte(v>>8))
		case 1:
			buf = append(buf, byte(v))
		}
	}
	if err := im.Write(buf); err != nil {
		a.report(SegmentOverflow, line, col, "%v", err)
	}
}

// directiveAscii emits a string operand's already escape-decoded bytes
// (the lexer resolves the \a\b\f\n\r\t\v\\\'\"\?\0 alphabet at token
// time), optionally followed by a trailing NUL for .asciiz.
func (a *Assembler) directiveAscii(ops []operand.Operand, seg segment.ID, line, col int, nul bool) {
	im := a.Mem.Images[seg]
	var buf []byte
	for _, op := range ops {
		buf = append(buf, []byte(op.Str)...)
	}
	if nul {
		buf = append(buf, 0)
	}
	if err := im.Write(buf); err != nil {
		a.report(SegmentOverflow, line, col, "%v", err)
	}
}
