// Deferred-reference resolution: once the token stream is exhausted,
// walk every symbol ever referenced in touched-order. Still-undefined
// symbols report one diagnostic per pending instruction and discard
// the list; defined symbols replay each pending instruction once,
// re-invoking the encoder now that the label resolves.
package assembler

import (
	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/operand"
	"github.com/tstword/mipsasm/internal/segment"
	"github.com/tstword/mipsasm/internal/symtab"
)

// resolveDeferred walks the touched-order symbol list once. Still-
// undefined symbols report label-undefined for each pending record;
// defined symbols replay their pending records in insertion order,
// writing the now-resolvable bytes directly at the snapshot offset.
func (a *Assembler) resolveDeferred() {
	for _, entry := range a.Sym.Touched {
		if entry.Status == symtab.Undefined {
			for _, p := range entry.Deferred {
				a.report(LabelUndefined, p.Line, p.Col, "undefined symbol %q", entry.Key)
			}
			entry.Deferred = nil
			continue
		}
		for _, p := range entry.Deferred {
			a.replay(p)
		}
		entry.Deferred = nil
	}
}

func (a *Assembler) replay(p *opcode.PendingInstruction) {
	seg := segment.ID(p.Segment)
	im := a.Mem.Images[seg]

	var res asmResult
	var err error
	if p.Descriptor.Kind == opcode.Directive {
		res = a.encodeDirectiveBytes(p.Operands)
	} else {
		res, err = a.encodeInstruction(p.Descriptor, p.Operands, p.Offset)
	}
	if err != nil {
		a.report(OperandMismatch, p.Line, p.Col, "%s: %v", p.Descriptor.Mnemonic, err)
		return
	}
	if res.Defer != nil {
		// Still unresolved at replay time (e.g. a multi-label .word
		// where a sibling label never got defined): report rather than
		// re-deferring, since this is the terminal pass.
		a.report(LabelUndefined, p.Line, p.Col, "undefined symbol referenced by %s", p.Descriptor.Mnemonic)
		return
	}
	im.WriteAt(p.Offset, res.Bytes)
}

// encodeDirectiveBytes resolves a deferred .word operand list (the only
// directive that defers, per directiveWord) once every label is known.
// A label that is still undefined comes back as Defer.
func (a *Assembler) encodeDirectiveBytes(ops []operand.Operand) asmResult {
	buf := make([]byte, 0, 4*len(ops))
	for _, op := range ops {
		var v uint32
		if op.Kind == operand.Label {
			entry := a.resolveLabel(op.Label)
			if entry.Status == symtab.Undefined {
				return asmResult{Defer: entry, Size: 4 * len(ops)}
			}
			v = entry.Offset
		} else {
			v = uint32(op.Imm)
		}
		buf = append(buf, wordBytes(v)...)
	}
	return asmResult{Bytes: buf, Size: len(buf)}
}
