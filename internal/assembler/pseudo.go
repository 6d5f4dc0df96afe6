// Pseudo-instruction expansion: every pseudo mnemonic lowers to one or
// more core-instruction words here. SNE expands as XOR followed by
// SLTU against zero, and the BGE/BLE/BLT/BGT (+ unsigned) family shares
// one uniform SLT-then-branch shape, with the deferred-size reservation
// computed from the actual operand kind (register vs. immediate)
// rather than a fixed size.
package assembler

import (
	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/operand"
	"github.com/tstword/mipsasm/internal/symtab"
)

func (a *Assembler) encodePseudo(d *opcode.Descriptor, ops []operand.Operand, pc uint32) (asmResult, error) {
	switch d.Ordinal {
	case opcode.MOVE:
		w := rFormat(0, 0, uint32(ops[1].Reg), uint32(ops[0].Reg), 0, 0x21)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.LI:
		return a.encodeLI(ops), nil

	case opcode.LA:
		entry := a.resolveLabel(ops[1].Label)
		if entry.Status == symtab.Undefined {
			return asmResult{Defer: entry, Size: 8}, nil
		}
		target := entry.Offset
		hi := int32((target >> 16) & 0xFFFF)
		lo := int32(target & 0xFFFF)
		buf := wordBytes(iFormat(0x0F, 0, 1, hi))
		buf = append(buf, wordBytes(iFormat(0x0D, 1, uint32(ops[0].Reg), lo))...)
		return asmResult{Bytes: buf, Size: 8}, nil

	case opcode.NOT:
		w := rFormat(0, uint32(ops[1].Reg), 0, uint32(ops[0].Reg), 0, 0x27)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.NEG:
		w := rFormat(0, 0, uint32(ops[1].Reg), uint32(ops[0].Reg), 0, 0x22)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.ABS:
		rd, rs := uint32(ops[0].Reg), uint32(ops[1].Reg)
		buf := wordBytes(rFormat(0, 0, rs, 1, 31, 0x03)) // sra $1, rs, 31
		buf = append(buf, wordBytes(rFormat(0, 1, rs, rd, 0, 0x26))...) // xor rd, $1, rs
		buf = append(buf, wordBytes(rFormat(0, rd, 1, rd, 0, 0x22))...) // sub rd, rd, $1
		return asmResult{Bytes: buf, Size: 12}, nil

	case opcode.ROR:
		rd, rs, n := uint32(ops[0].Reg), uint32(ops[1].Reg), uint32(ops[2].Imm)&0x1F
		buf := wordBytes(rFormat(0, 0, rs, 1, (32-n)&0x1F, 0x02))  // srl $1, rs, 32-n
		buf = append(buf, wordBytes(rFormat(0, 0, rs, rd, n, 0x00))...) // sll rd, rs, n
		buf = append(buf, wordBytes(rFormat(0, rd, 1, rd, 0, 0x25))...) // or rd, rd, $1
		return asmResult{Bytes: buf, Size: 12}, nil

	case opcode.ROL:
		rd, rs, n := uint32(ops[0].Reg), uint32(ops[1].Reg), uint32(ops[2].Imm)&0x1F
		buf := wordBytes(rFormat(0, 0, rs, 1, (32-n)&0x1F, 0x00))  // sll $1, rs, 32-n
		buf = append(buf, wordBytes(rFormat(0, 0, rs, rd, n, 0x02))...) // srl rd, rs, n
		buf = append(buf, wordBytes(rFormat(0, rd, 1, rd, 0, 0x25))...) // or rd, rd, $1
		return asmResult{Bytes: buf, Size: 12}, nil

	case opcode.SGT:
		w := rFormat(0, uint32(ops[2].Reg), uint32(ops[1].Reg), uint32(ops[0].Reg), 0, 0x2A)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.SNE:
		rd, rs, rt := uint32(ops[0].Reg), uint32(ops[1].Reg), uint32(ops[2].Reg)
		buf := wordBytes(rFormat(0, rs, rt, rd, 0, 0x26))  // xor rd, rs, rt
		buf = append(buf, wordBytes(rFormat(0, 0, rd, rd, 0, 0x2B))...) // sltu rd, $0, rd
		return asmResult{Bytes: buf, Size: 8}, nil

	case opcode.B:
		entry := a.resolveLabel(ops[0].Label)
		if entry.Status == symtab.Undefined {
			return asmResult{Defer: entry, Size: 4}, nil
		}
		off := branchOffset(entry.Offset, pc)
		w := iFormat(0x01, 0, 0x01, off)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.BEQZ, opcode.BNEZ:
		entry := a.resolveLabel(ops[1].Label)
		if entry.Status == symtab.Undefined {
			return asmResult{Defer: entry, Size: 4}, nil
		}
		off := branchOffset(entry.Offset, pc)
		op := uint32(0x04)
		if d.Ordinal == opcode.BNEZ {
			op = 0x05
		}
		w := iFormat(op, uint32(ops[0].Reg), 0, off)
		return asmResult{Bytes: wordBytes(w), Size: 4}, nil

	case opcode.BGE, opcode.BLE, opcode.BLT, opcode.BGT, opcode.BGEU, opcode.BLEU, opcode.BLTU, opcode.BGTU:
		return a.encodeCompareBranch(d, ops, pc), nil

	default:
		panic("unhandled pseudo-instruction ordinal")
	}
}

func (a *Assembler) encodeLI(ops []operand.Operand) asmResult {
	rd := uint32(ops[0].Reg)
	imm := ops[1].Imm
	switch {
	case fitsSigned16(imm):
		w := iFormat(0x09, 0, rd, imm) // addiu rd, $0, imm
		return asmResult{Bytes: wordBytes(w), Size: 4}
	case fitsUnsigned16(imm):
		w := iFormat(0x0D, 0, rd, imm) // ori rd, $0, imm (avoid sign-extension)
		return asmResult{Bytes: wordBytes(w), Size: 4}
	default:
		hi := int32((uint32(imm) >> 16) & 0xFFFF)
		lo := int32(uint32(imm) & 0xFFFF)
		buf := wordBytes(iFormat(0x0F, 0, 1, hi))
		buf = append(buf, wordBytes(iFormat(0x0D, 1, rd, lo))...)
		return asmResult{Bytes: buf, Size: 8}
	}
}

// encodeCompareBranch implements the uniform BGE/BLE/BLT/BGT(+U) shape:
// materialize an immediate second operand via ADDIU $1,$0,imm when
// present, compute the comparison with SLT/SLTU into $1, then branch
// against $1 with BEQ (>=, <=) or BNE (<, >).
func (a *Assembler) encodeCompareBranch(d *opcode.Descriptor, ops []operand.Operand, pc uint32) asmResult {
	unsigned := d.Ordinal == opcode.BGEU || d.Ordinal == opcode.BLEU || d.Ordinal == opcode.BLTU || d.Ordinal == opcode.BGTU
	swapped := d.Ordinal == opcode.BLE || d.Ordinal == opcode.BGT || d.Ordinal == opcode.BLEU || d.Ordinal == opcode.BGTU
	useBEQ := d.Ordinal == opcode.BGE || d.Ordinal == opcode.BLE || d.Ordinal == opcode.BGEU || d.Ordinal == opcode.BLEU

	rtImm := ops[1].Kind == operand.Immediate
	size := 8
	if rtImm {
		size = 12
	}

	entry := a.resolveLabel(ops[2].Label)
	if entry.Status == symtab.Undefined {
		return asmResult{Defer: entry, Size: size}
	}

	var buf []byte
	rs := uint32(ops[0].Reg)
	rt := uint32(ops[1].Reg)
	branchPC := pc
	if rtImm {
		buf = append(buf, wordBytes(iFormat(0x09, 0, 1, ops[1].Imm))...) // addiu $1, $0, imm
		rt = 1
		branchPC = pc + 4
	}

	sltFunct := uint32(0x2A)
	if unsigned {
		sltFunct = 0x2B
	}
	a1, a2 := rs, rt
	if swapped {
		a1, a2 = rt, rs
	}
	buf = append(buf, wordBytes(rFormat(0, a1, a2, 1, 0, sltFunct))...) // slt/sltu $1, a1, a2

	off := branchOffset(entry.Offset, branchPC+4)
	branchOp := uint32(0x05) // bne
	if useBEQ {
		branchOp = 0x04 // beq
	}
	buf = append(buf, wordBytes(iFormat(branchOp, 1, 0, off))...)
	return asmResult{Bytes: buf, Size: size}
}
