// Package opcode holds the statically indexed table of instruction and
// directive descriptors: primary opcode, secondary funct, fixed rt
// field, accepted operand pattern, instruction kind, and emitted size.
package opcode

import "github.com/tstword/mipsasm/internal/operand"

// Kind classifies a descriptor's dispatch path.
type Kind uint8

const (
	Core Kind = iota
	Pseudo
	Directive
)

// Pattern is the fixed three-slot operand pattern a descriptor accepts.
type Pattern [3]operand.Mask

// Descriptor is a single reserved-table/opcode-table entry.
type Descriptor struct {
	Mnemonic string
	Ordinal  int
	Op       uint8
	Funct    uint8
	Rt       uint8
	Kind     Kind
	Pattern  Pattern
	// Size is the declared size in bytes. Core descriptors all declare 4
	// (the encoder's multi-word expansions of some core forms size
	// themselves and do not read this field); pseudo-instructions declare
	// their own (possibly variable) size; directives leave this 0
	// (directives size themselves per-operand).
	Size int
}

// RefName gives *Descriptor the token.Ref method without opcode
// importing the token package. Mnemonic/Directive tokens carry the
// *reserved.Entry that points at the descriptor, not the descriptor.
func (d *Descriptor) RefName() string { return d.Mnemonic }

// Mnemonic ordinals, stable so the encoder can switch on them.
const (
	ADD = iota
	ADDU
	AND
	NOR
	OR
	SLT
	SLTU
	SUB
	SUBU
	XOR
	SLL
	SRA
	SRL
	BEQ
	BGEZ
	BGEZAL
	BGTZ
	BLEZ
	BLTZ
	BLTZAL
	BNE
	JMP
	JAL
	JR
	SYSCALL
	LB
	LBU
	LH
	LHU
	LW
	SB
	SH
	SW
	ADDI
	ADDIU
	ANDI
	LUI
	ORI
	SLTI
	SLTIU
	XORI
	MOVE
	LI
	LA
	NOT
	BEQZ
	BGE
	BLE
	BNEZ
	BLT
	BGT
	DIV
	DIVU
	MFHI
	MFLO
	MULT
	MULTU
	MUL
	ABS
	NEG
	ROR
	ROL
	SGT
	B
	SNE
	BLEU
	BGEU
	BLTU
	BGTU

	DirInclude
	DirText
	DirData
	DirKtext
	DirKdata
	DirAlign
	DirWord
	DirHalf
	DirByte
	DirAscii
	DirAsciiz
	DirSpace

	numOrdinals
)

const (
	mReg  = operand.MaskRegister
	mLab  = operand.MaskLabel
	mImm  = operand.MaskImmediate
	mAddr = operand.MaskAddress
	mStr  = operand.MaskString
	opt   = operand.Optional
	rep   = operand.Repeat
)

// rType3 is the pattern for a 3-register instruction (2 source, 1 dest);
// rType2opt also accepts 2 registers with the third slot empty.
func rType3() Pattern     { return Pattern{mReg, mReg, mReg} }
func rType2opt() Pattern  { return Pattern{mReg, mReg, mReg | opt} }
func rType2() Pattern     { return Pattern{mReg, mReg, 0} }
func rType1() Pattern     { return Pattern{mReg, 0, 0} }
func rType0() Pattern     { return Pattern{0, 0, 0} }
func iType() Pattern      { return Pattern{mReg, mReg, mImm} }
func iAddrType() Pattern  { return Pattern{mReg, mAddr, 0} }
func branch2() Pattern    { return Pattern{mReg, mReg, mLab} }
func branch2Imm() Pattern { return Pattern{mReg, mReg | mImm, mLab} }
func branch1() Pattern    { return Pattern{mReg, mLab, 0} }
func jType() Pattern      { return Pattern{mLab, 0, 0} }
func regImm() Pattern     { return Pattern{mReg, mImm, 0} }
func regLab() Pattern     { return Pattern{mReg, mLab, 0} }
func regReg() Pattern     { return Pattern{mReg, mReg, 0} }
func strOnly() Pattern    { return Pattern{mStr, 0, 0} }
func immOnly() Pattern    { return Pattern{mImm, 0, 0} }
func repImm() Pattern     { return Pattern{mImm | rep, 0, 0} }
func repImmLab() Pattern  { return Pattern{(mImm | mLab) | rep, 0, 0} }
func repStr() Pattern     { return Pattern{mStr | rep, 0, 0} }

// Table is the complete, static, read-only opcode/directive table
// shared process-wide. Index == Ordinal.
var Table [numOrdinals]Descriptor

func core(ord int, name string, op, funct uint8, pat Pattern) {
	Table[ord] = Descriptor{Mnemonic: name, Ordinal: ord, Op: op, Funct: funct, Kind: Core, Pattern: pat, Size: 4}
}

func coreRt(ord int, name string, op, funct, rt uint8, pat Pattern) {
	Table[ord] = Descriptor{Mnemonic: name, Ordinal: ord, Op: op, Funct: funct, Rt: rt, Kind: Core, Pattern: pat, Size: 4}
}

func pseudo(ord int, name string, pat Pattern, size int) {
	Table[ord] = Descriptor{Mnemonic: name, Ordinal: ord, Kind: Pseudo, Pattern: pat, Size: size}
}

func directive(ord int, name string, pat Pattern) {
	Table[ord] = Descriptor{Mnemonic: name, Ordinal: ord, Kind: Directive, Pattern: pat}
}

func init() {
	// R-type, funct-dispatched (primary opcode 0).
	core(ADD, "add", 0x00, 0x20, rType3())
	core(ADDU, "addu", 0x00, 0x21, rType3())
	core(AND, "and", 0x00, 0x24, rType3())
	core(NOR, "nor", 0x00, 0x27, rType3())
	core(OR, "or", 0x00, 0x25, rType3())
	core(SLT, "slt", 0x00, 0x2A, rType3())
	core(SLTU, "sltu", 0x00, 0x2B, rType3())
	core(SUB, "sub", 0x00, 0x22, rType3())
	core(SUBU, "subu", 0x00, 0x23, rType3())
	core(XOR, "xor", 0x00, 0x26, rType3())

	// Shifters: R-layout with shamt, but the accepted operand pattern is
	// two registers plus a 5-bit immediate shift amount, not the
	// register-register pattern.
	core(SLL, "sll", 0x00, 0x00, iType())
	core(SRA, "sra", 0x00, 0x03, iType())
	core(SRL, "srl", 0x00, 0x02, iType())

	coreRt(BGEZ, "bgez", 0x01, 0, 0x01, branch1())
	coreRt(BGEZAL, "bgezal", 0x01, 0, 0x11, branch1())
	coreRt(BGTZ, "bgtz", 0x07, 0, 0x00, branch1())
	coreRt(BLEZ, "blez", 0x06, 0, 0x00, branch1())
	coreRt(BLTZ, "bltz", 0x01, 0, 0x00, branch1())
	coreRt(BLTZAL, "bltzal", 0x01, 0, 0x10, branch1())
	core(BEQ, "beq", 0x04, 0, branch2Imm())
	core(BNE, "bne", 0x05, 0, branch2Imm())

	core(JMP, "j", 0x02, 0, jType())
	core(JAL, "jal", 0x03, 0, jType())
	core(JR, "jr", 0x00, 0x08, rType1())
	core(SYSCALL, "syscall", 0x00, 0x0C, rType0())

	core(LB, "lb", 0x20, 0, iAddrType())
	core(LBU, "lbu", 0x24, 0, iAddrType())
	core(LH, "lh", 0x21, 0, iAddrType())
	core(LHU, "lhu", 0x25, 0, iAddrType())
	core(LW, "lw", 0x23, 0, iAddrType())
	core(SB, "sb", 0x28, 0, iAddrType())
	core(SH, "sh", 0x29, 0, iAddrType())
	core(SW, "sw", 0x2B, 0, iAddrType())

	core(ADDI, "addi", 0x08, 0, iType())
	core(ADDIU, "addiu", 0x09, 0, iType())
	core(ANDI, "andi", 0x0C, 0, iType())
	core(LUI, "lui", 0x0F, 0, regImm())
	core(ORI, "ori", 0x0D, 0, iType())
	core(SLTI, "slti", 0x0A, 0, iType())
	core(SLTIU, "sltiu", 0x0B, 0, iType())
	core(XORI, "xori", 0x0E, 0, iType())

	core(DIV, "div", 0x00, 0x1A, regReg())
	core(DIVU, "divu", 0x00, 0x1B, regReg())
	core(MFHI, "mfhi", 0x00, 0x10, rType1())
	core(MFLO, "mflo", 0x00, 0x12, rType1())
	core(MULT, "mult", 0x00, 0x18, regReg())
	core(MULTU, "multu", 0x00, 0x19, regReg())

	// MUL is treated as a core instruction rather than a MULT+MFLO
	// pseudo-expansion: opcode 0x1C, funct 0x02.
	core(MUL, "mul", 0x1C, 0x02, rType3())

	// Pseudo-instructions.
	pseudo(MOVE, "move", regReg(), 4)
	pseudo(LI, "li", regImm(), 8)
	pseudo(LA, "la", regLab(), 8)
	pseudo(NOT, "not", regReg(), 4)
	pseudo(NEG, "neg", regReg(), 4)
	pseudo(ABS, "abs", regReg(), 12)
	pseudo(ROR, "ror", iType(), 12)
	pseudo(ROL, "rol", iType(), 12)
	pseudo(SGT, "sgt", rType3(), 4)
	pseudo(SNE, "sne", rType3(), 8)
	pseudo(B, "b", jType(), 4)
	pseudo(BEQZ, "beqz", branch1(), 4)
	pseudo(BNEZ, "bnez", branch1(), 4)
	pseudo(BGE, "bge", branch2Imm(), 8)
	pseudo(BLE, "ble", branch2Imm(), 8)
	pseudo(BLT, "blt", branch2Imm(), 8)
	pseudo(BGT, "bgt", branch2Imm(), 8)
	pseudo(BGEU, "bgeu", branch2Imm(), 8)
	pseudo(BLEU, "bleu", branch2Imm(), 8)
	pseudo(BLTU, "bltu", branch2Imm(), 8)
	pseudo(BGTU, "bgtu", branch2Imm(), 8)

	directive(DirInclude, ".include", strOnly())
	directive(DirText, ".text", rType0())
	directive(DirData, ".data", rType0())
	directive(DirKtext, ".ktext", rType0())
	directive(DirKdata, ".kdata", rType0())
	directive(DirAlign, ".align", immOnly())
	directive(DirWord, ".word", repImmLab())
	directive(DirHalf, ".half", repImm())
	directive(DirByte, ".byte", repImm())
	directive(DirAscii, ".ascii", repStr())
	directive(DirAsciiz, ".asciiz", repStr())
	directive(DirSpace, ".space", immOnly())
}

// PendingInstruction is a snapshot sufficient to re-encode a deferred
// instruction once the symbol it depends on is resolved. It lives in
// this package (rather than the assembler package) so that the symbol
// table can hold a deferred list without an import cycle.
type PendingInstruction struct {
	Descriptor *Descriptor
	Operands   []operand.Operand
	Segment    int
	Offset     uint32
	Line       int
	Col        int
}
