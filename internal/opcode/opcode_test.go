package opcode

import "testing"

func TestTableEntriesHaveMnemonics(t *testing.T) {
	for i := 0; i < numOrdinals; i++ {
		d := Table[i]
		if d.Mnemonic == "" {
			t.Errorf("ordinal %d has no mnemonic", i)
		}
		if d.Ordinal != i {
			t.Errorf("Table[%d].Ordinal = %d, want %d", i, d.Ordinal, i)
		}
	}
}

func TestCoreInstructionsAreFourBytes(t *testing.T) {
	for i := 0; i < numOrdinals; i++ {
		d := Table[i]
		if d.Kind == Core && d.Size != 4 {
			t.Errorf("core instruction %q has Size %d, want 4", d.Mnemonic, d.Size)
		}
	}
}

func TestMulIsCoreNotPseudo(t *testing.T) {
	d := Table[MUL]
	if d.Kind != Core {
		t.Errorf("mul: Kind = %v, want Core", d.Kind)
	}
	if d.Op != 0x1C || d.Funct != 0x02 {
		t.Errorf("mul: op=%#x funct=%#x, want op=0x1C funct=0x02", d.Op, d.Funct)
	}
}

func TestDirectivesCarryNoEncodedSize(t *testing.T) {
	for i := 0; i < numOrdinals; i++ {
		d := Table[i]
		if d.Kind == Directive && d.Size != 0 {
			t.Errorf("directive %q has nonzero Size %d", d.Mnemonic, d.Size)
		}
	}
}
