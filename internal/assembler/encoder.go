// Encoder: the three dispatch paths (core-with-funct, core-with-opcode,
// pseudo) and the R/I/J bit-layout helpers, one bit-packing expression
// per instruction word.
package assembler

import (
	"encoding/binary"
	"fmt"

	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/operand"
	"github.com/tstword/mipsasm/internal/segment"
	"github.com/tstword/mipsasm/internal/symtab"
)

func rFormat(op, rs, rt, rd, shamt, funct uint32) uint32 {
	return (op&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | (rd&0x1F)<<11 | (shamt&0x1F)<<6 | (funct & 0x3F)
}

func iFormat(op, rs, rt uint32, imm int32) uint32 {
	return (op&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | (uint32(imm) & 0xFFFF)
}

func jFormat(op, addr uint32) uint32 {
	return (op&0x3F)<<26 | (addr & 0x03FFFFFF)
}

func wordBytes(w uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, w)
	return b
}

// branchOffset computes the 16-bit branch immediate: the target minus
// the address of the instruction after the branch, in 4-byte units,
// under 32-bit wraparound arithmetic. The shift must be arithmetic (sign
// preserving), so the subtraction is done in the signed domain before
// shifting rather than as a uint32 logical shift.
func branchOffset(target, pc uint32) int32 {
	diff := int32(target) - int32(pc+4)
	return diff >> 2
}

func jumpField(target uint32) uint32 { return (target >> 2) & 0x03FFFFFF }

// asmResult is the outcome of attempting to encode one instruction or
// directive operand list at a given program counter. Size is always
// populated (even when Defer != nil) so the cursor can be reserved
// before the referenced symbol resolves.
type asmResult struct {
	Bytes []byte
	Defer *symtab.Entry
	Size  int
}

// resolveLabel looks up, or creates on first forward reference, the
// symbol table entry for a label operand.
func (a *Assembler) resolveLabel(name string) *symtab.Entry {
	e := a.Sym.Lookup(name)
	if e == nil {
		e = a.Sym.Insert(name)
	}
	return e
}

// dispatchInstruction is the grammar driver's entry point for a
// mnemonic instruction: verify operands, encode (possibly deferring),
// and either write bytes now or register a pending record.
func (a *Assembler) dispatchInstruction(d *opcode.Descriptor, ops []operand.Operand, seg segment.ID, offset uint32, line, col int) {
	if err := verifyOperandList(d.Pattern, ops); err != nil {
		a.report(OperandMismatch, line, col, "%s: %v", d.Mnemonic, err)
		return
	}
	if seg == segment.Data || seg == segment.KData {
		a.report(SegmentMisuse, line, col, "instruction %q not allowed in a data segment", d.Mnemonic)
		return
	}

	res, err := a.encodeInstruction(d, ops, offset)
	if err != nil {
		a.report(OperandMismatch, line, col, "%s: %v", d.Mnemonic, err)
		return
	}
	a.finishEncode(d, ops, seg, offset, line, col, res)
}

func (a *Assembler) finishEncode(d *opcode.Descriptor, ops []operand.Operand, seg segment.ID, offset uint32, line, col int, res asmResult) {
	if res.Defer != nil {
		pending := &opcode.PendingInstruction{Descriptor: d, Operands: ops, Segment: int(seg), Offset: offset, Line: line, Col: col}
		res.Defer.Deferred = append(res.Defer.Deferred, pending)
		im := a.Mem.Images[seg]
		if _, err := reserve(im, uint32(res.Size)); err != nil {
			a.report(SegmentOverflow, line, col, "%v", err)
		}
		return
	}
	im := a.Mem.Images[seg]
	if err := im.Write(res.Bytes); err != nil {
		a.report(SegmentOverflow, line, col, "%v", err)
	}
}

// reserve advances a segment's cursor by n bytes without writing,
// leaving the backing buffer and high-water mark untouched until the
// deferred record is replayed.
func reserve(im *segment.Image, n uint32) (uint32, error) {
	start := im.Cursor
	im.Cursor += n
	if im.Cursor > segment.Limit[im.ID] {
		return start, fmt.Errorf("segment %s overflow: cursor 0x%08X exceeds limit 0x%08X", im.ID, im.Cursor, segment.Limit[im.ID])
	}
	return start, nil
}

// encodeInstruction builds the byte sequence for a core or pseudo
// mnemonic at program counter pc (the address the instruction starts
// at). If a referenced label is undefined, it returns an asmResult with
// Defer set and Size equal to the bytes that must be reserved.
func (a *Assembler) encodeInstruction(d *opcode.Descriptor, ops []operand.Operand, pc uint32) (asmResult, error) {
	if d.Kind == opcode.Pseudo {
		return a.encodePseudo(d, ops, pc)
	}
	if d.Op == 0x00 || d.Ordinal == opcode.MUL {
		return a.encodeFunct(d, ops, pc)
	}
	return a.encodeOpcode(d, ops, pc)
}

// encodeFunct handles the funct-dispatched core instructions: the
// primary-opcode-zero ones (R-type ALU, shifters, JR, SYSCALL,
// MFHI/MFLO, MULT/MULTU/DIV/DIVU) plus MUL, whose primary opcode is 0x1C.
func (a *Assembler) encodeFunct(d *opcode.Descriptor, ops []operand.Operand, pc uint32) (asmResult, error) {
	switch d.Ordinal {
	case opcode.ADD, opcode.ADDU, opcode.AND, opcode.NOR, opcode.OR, opcode.SLT, opcode.SLTU,
		opcode.SUB, opcode.SUBU, opcode.XOR, opcode.MUL:
		w := rFormat(uint32(d.Op), uint32(ops[1].Reg), uint32(ops[2].Reg), uint32(ops[0].Reg), 0, uint32(d.Funct))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil
	case opcode.SLL, opcode.SRA, opcode.SRL:
		w := rFormat(0, 0, uint32(ops[1].Reg), uint32(ops[0].Reg), uint32(ops[2].Imm)&0x1F, uint32(d.Funct))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil
	case opcode.JR:
		w := rFormat(0, uint32(ops[0].Reg), 0, 0, 0, uint32(d.Funct))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil
	case opcode.SYSCALL:
		w := rFormat(0, 0, 0, 0, 0, uint32(d.Funct))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil
	case opcode.MFHI, opcode.MFLO:
		w := rFormat(0, 0, 0, uint32(ops[0].Reg), 0, uint32(d.Funct))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil
	case opcode.DIV, opcode.DIVU, opcode.MULT, opcode.MULTU:
		w := rFormat(0, uint32(ops[0].Reg), uint32(ops[1].Reg), 0, 0, uint32(d.Funct))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil
	default:
		return asmResult{}, fmt.Errorf("unhandled funct instruction %q", d.Mnemonic)
	}
}

func fitsSigned16(v int32) bool  { return v >= -32768 && v <= 32767 }
func fitsUnsigned16(v int32) bool { return v >= 0 && v <= 65535 }

// encodeOpcode handles nonzero-primary-opcode core instructions: the
// ALU-immediate overflow expansion, LUI, the branch families, jumps,
// and the memory-access family.
func (a *Assembler) encodeOpcode(d *opcode.Descriptor, ops []operand.Operand, pc uint32) (asmResult, error) {
	switch d.Ordinal {
	case opcode.ADDI, opcode.ADDIU, opcode.SLTI, opcode.SLTIU:
		imm := ops[2].Imm
		if fitsSigned16(imm) {
			w := iFormat(uint32(d.Op), uint32(ops[1].Reg), uint32(ops[0].Reg), imm)
			return asmResult{Bytes: wordBytes(w), Size: 4}, nil
		}
		return aluExpand(d, ops, imm), nil

	case opcode.ANDI, opcode.ORI, opcode.XORI:
		imm := ops[2].Imm
		if fitsUnsigned16(imm) {
			w := iFormat(uint32(d.Op), uint32(ops[1].Reg), uint32(ops[0].Reg), imm)
			return asmResult{Bytes: wordBytes(w), Size: 4}, nil
		}
		return aluExpand(d, ops, imm), nil

	case opcode.LUI:
		w := iFormat(uint32(d.Op), 0, uint32(ops[0].Reg), ops[1].Imm)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.BGEZ, opcode.BGEZAL, opcode.BGTZ, opcode.BLEZ, opcode.BLTZ, opcode.BLTZAL:
		entry := a.resolveLabel(ops[1].Label)
		if entry.Status == symtab.Undefined {
			return asmResult{Defer: entry, Size: 4}, nil
		}
		off := branchOffset(entry.Offset, pc)
		w := iFormat(uint32(d.Op), uint32(ops[0].Reg), uint32(d.Rt), off)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.BEQ, opcode.BNE:
		return a.encodeCoreBranch(d, ops, pc), nil

	case opcode.JMP, opcode.JAL:
		entry := a.resolveLabel(ops[0].Label)
		if entry.Status == symtab.Undefined {
			return asmResult{Defer: entry, Size: 4}, nil
		}
		w := jFormat(uint32(d.Op), jumpField(entry.Offset))
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.LB, opcode.LBU, opcode.LH, opcode.LHU, opcode.LW, opcode.SB, opcode.SH, opcode.SW:
		return a.encodeMemory(d, ops, pc), nil

	default:
		return asmResult{}, fmt.Errorf("unhandled opcode instruction %q", d.Mnemonic)
	}
}

// aluExpand builds the three-instruction LUI/ORI/<RR-op> overflow
// sequence shared by the sign- and zero-extend I-type ALU families.
func aluExpand(d *opcode.Descriptor, ops []operand.Operand, imm int32) asmResult {
	hi := (uint32(imm) >> 16) & 0xFFFF
	lo := uint32(imm) & 0xFFFF
	w1 := iFormat(0x0F, 0, 1, int32(hi))
	w2 := iFormat(0x0D, 1, 1, int32(lo))
	w3 := rFormat(0, uint32(ops[1].Reg), 1, uint32(ops[0].Reg), 0, uint32(d.Op)+0x18)
	buf := append(wordBytes(w1), wordBytes(w2)...)
	buf = append(buf, wordBytes(w3)...)
	return asmResult{Bytes: buf, Size: 12}
}

func (a *Assembler) encodeCoreBranch(d *opcode.Descriptor, ops []operand.Operand, pc uint32) asmResult {
	rtImm := ops[1].Kind == operand.Immediate
	size := 4
	if rtImm {
		size = 8
	}
	entry := a.resolveLabel(ops[2].Label)
	if entry.Status == symtab.Undefined {
		return asmResult{Defer: entry, Size: size}
	}
	var buf []byte
	rt := uint32(ops[1].Reg)
	branchPC := pc
	if rtImm {
		buf = append(buf, wordBytes(iFormat(0x09, 0, 1, ops[1].Imm))...)
		rt = 1
		branchPC = pc + 4
	}
	off := branchOffset(entry.Offset, branchPC)
	buf = append(buf, wordBytes(iFormat(uint32(d.Op), uint32(ops[0].Reg), rt, off))...)
	return asmResult{Bytes: buf, Size: size}
}

func (a *Assembler) encodeMemory(d *opcode.Descriptor, ops []operand.Operand, pc uint32) asmResult {
	addr := ops[1]
	if addr.Kind == operand.Label {
		entry := a.resolveLabel(addr.Label)
		if entry.Status == symtab.Undefined {
			return asmResult{Defer: entry, Size: 8}
		}
		target := entry.Offset
		hi := int32((target >> 16) & 0xFFFF)
		lo := int32(target & 0xFFFF)
		buf := wordBytes(iFormat(0x0F, 0, 1, hi))
		buf = append(buf, wordBytes(iFormat(uint32(d.Op), 1, uint32(ops[0].Reg), lo))...)
		return asmResult{Bytes: buf, Size: 8}
	}
	w := iFormat(uint32(d.Op), uint32(addr.Reg), uint32(ops[0].Reg), addr.Imm)
	return asmResult{Bytes: wordBytes(w), Size: 4}
}
