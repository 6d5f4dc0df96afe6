// Package reserved holds the statically sorted table of identifier
// strings (registers, mnemonics, directives) looked up by the tokenizer
// via binary search.
package reserved

import (
	"sort"
	"strconv"

	"github.com/tstword/mipsasm/internal/opcode"
	"github.com/tstword/mipsasm/internal/token"
)

// Entry is one reserved-table row: a register alias, a mnemonic, or a
// directive. Exactly one of RegNum/Descriptor is meaningful, selected
// by Kind.
type Entry struct {
	Name       string
	Kind       token.Kind // token.Register, token.Mnemonic, or token.Directive
	RegNum     int
	Descriptor *opcode.Descriptor
}

func (e *Entry) RefName() string { return e.Name }

var table []*Entry

func register(name string, num int) {
	table = append(table, &Entry{Name: name, Kind: token.Register, RegNum: num})
}

func instructionOrDirective(d *opcode.Descriptor) {
	kind := token.Mnemonic
	if d.Kind == opcode.Directive {
		kind = token.Directive
	}
	table = append(table, &Entry{Name: d.Mnemonic, Kind: kind, Descriptor: d})
}

var abiNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func init() {
	for n := 0; n < 32; n++ {
		register("$"+strconv.Itoa(n), n)
		register("$"+abiNames[n], n)
	}
	// fp is also commonly spelled s8.
	register("$s8", 30)

	for i := range opcode.Table {
		d := &opcode.Table[i]
		if d.Mnemonic == "" {
			continue
		}
		instructionOrDirective(d)
	}

	sort.Slice(table, func(i, j int) bool { return table[i].Name < table[j].Name })
}

// Lookup performs a case-sensitive binary search for name and returns
// the matching entry, or nil.
func Lookup(name string) *Entry {
	i := sort.Search(len(table), func(i int) bool { return table[i].Name >= name })
	if i < len(table) && table[i].Name == name {
		return table[i]
	}
	return nil
}

// LookupLinear is the reference O(n) scan used by tests to verify the
// binary search returns identical results to a straightforward linear
// scan for every key in the table.
func LookupLinear(name string) *Entry {
	for _, e := range table {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Len reports the number of reserved entries, for test iteration.
func Len() int { return len(table) }

// At returns the i'th entry in sorted order, for test iteration.
func At(i int) *Entry { return table[i] }
