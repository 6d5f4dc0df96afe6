// Package operand defines the tagged operand values produced by the
// grammar driver and the per-slot masks used to validate them against
// an opcode descriptor's accepted pattern.
package operand

// Kind tags the payload actually carried by an Operand value.
type Kind uint8

const (
	None Kind = iota
	Register
	Label
	Immediate
	Address
	String
)

// Mask is a bitset over Kind plus two pattern modifiers. A Descriptor's
// operand pattern is three Masks, one per slot.
type Mask uint16

const (
	MaskRegister Mask = 1 << iota
	MaskLabel
	MaskImmediate
	MaskAddress
	MaskString
	// Repeat: this slot consumes zero or more operands of the given
	// kinds; once it stops matching, the pattern is complete.
	Repeat
	// Optional: this slot may be entirely absent.
	Optional
)

func kindMask(k Kind) Mask {
	switch k {
	case Register:
		return MaskRegister
	case Label:
		return MaskLabel
	case Immediate:
		return MaskImmediate
	case Address:
		return MaskAddress
	case String:
		return MaskString
	default:
		return 0
	}
}

// Operand is a sum type: the fields populated depend on Kind.
type Operand struct {
	Kind  Kind
	Reg   int    // Register, and the base register of an Address
	Imm   int32  // Immediate, and the displacement of an Address
	Label string // Label
	Str   string // String
	Line  int
	Col   int
}

// Matches reports whether this operand's kind satisfies the slot mask.
func (o Operand) Matches(m Mask) bool {
	return kindMask(o.Kind)&m != 0
}

func NewRegister(reg, line, col int) Operand {
	return Operand{Kind: Register, Reg: reg, Line: line, Col: col}
}

func NewImmediate(v int32, line, col int) Operand {
	return Operand{Kind: Immediate, Imm: v, Line: line, Col: col}
}

func NewLabel(name string, line, col int) Operand {
	return Operand{Kind: Label, Label: name, Line: line, Col: col}
}

func NewAddress(disp int32, reg, line, col int) Operand {
	return Operand{Kind: Address, Reg: reg, Imm: disp, Line: line, Col: col}
}

func NewString(s string, line, col int) Operand {
	return Operand{Kind: String, Str: s, Line: line, Col: col}
}
