// Command mipsasm is the two-pass MIPS32 assembler's CLI entry point:
// parse flags, assemble the given input files, optionally dump
// individual segments, and write the linked object file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tstword/mipsasm/internal/assembler"
	"github.com/tstword/mipsasm/internal/objfile"
	"github.com/tstword/mipsasm/internal/segment"
)

var (
	outPath      string
	textDump     string
	dataDump     string
	ktextDump    string
	kdataDump    string
	assembleOnly bool
	verbose      bool
)

func main() {
	root := &cobra.Command{
		Use:           "mipsasm [flags] file...",
		Short:         "Two-pass MIPS32 assembler",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          run,
	}

	flags := root.Flags()
	flags.StringVarP(&outPath, "output", "o", "a.out", "object file to write")
	flags.StringVarP(&textDump, "text-dump", "t", "", "dump the user-text segment to FILE")
	flags.StringVarP(&dataDump, "data-dump", "d", "", "dump the user-data segment to FILE")
	flags.StringVar(&ktextDump, "ktext-dump", "", "dump the kernel-text segment to FILE")
	flags.StringVar(&kdataDump, "kdata-dump", "", "dump the kernel-data segment to FILE")
	flags.BoolVarP(&assembleOnly, "assemble-only", "a", false, "assemble without writing an object file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print a segment/symbol table dump to stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mipsasm: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	a := assembler.New()
	if err := a.Assemble(args); err != nil {
		for _, e := range a.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return err
	}

	if verbose {
		dumpState(a)
	}

	if textDump != "" {
		if err := objfile.DumpSegment(a.Mem, segment.Text, textDump); err != nil {
			return err
		}
	}
	if dataDump != "" {
		if err := objfile.DumpSegment(a.Mem, segment.Data, dataDump); err != nil {
			return err
		}
	}
	if ktextDump != "" {
		if err := objfile.DumpSegment(a.Mem, segment.KText, ktextDump); err != nil {
			return err
		}
	}
	if kdataDump != "" {
		if err := objfile.DumpSegment(a.Mem, segment.KData, kdataDump); err != nil {
			return err
		}
	}

	if assembleOnly {
		return nil
	}
	return objfile.WriteObject(a.Mem, outPath)
}

func dumpState(a *assembler.Assembler) {
	for id := segment.ID(0); id < segment.Count; id++ {
		im := a.Mem.Images[id]
		fmt.Fprintf(os.Stderr, "segment %-5s base=0x%08X cursor=0x%08X high_water=0x%08X\n",
			im.ID, segment.Base[id], im.Cursor, im.HighWater)
	}
	for _, e := range a.Sym.Touched {
		fmt.Fprintf(os.Stderr, "symbol %-24s status=%d segment=%s offset=0x%08X\n",
			e.Key, e.Status, e.Segment, e.Offset)
	}
}
