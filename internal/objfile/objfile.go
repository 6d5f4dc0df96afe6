// Package objfile writes the assembled segment images to disk: either
// as a single linked object file (an 8-byte file header followed by a
// 12-byte section header plus raw bytes per non-empty segment), or as
// a raw single-segment dump.
package objfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tstword/mipsasm/internal/segment"
)

const (
	magicMips       = "mips"
	endianLittle    = 0x01
	formatVersion   = 0x01
	fileHeaderSize  = 8
	sectHeaderSize  = 12
)

// WriteObject links every non-empty segment's high-water bytes into a
// single object file: one file header naming the section count,
// followed by one section header plus raw bytes per segment.
func WriteObject(mem *segment.Memory, path string) error {
	var buf bytes.Buffer

	var shnum uint8
	for id := segment.ID(0); id < segment.Count; id++ {
		if mem.Images[id].HighWater > 0 {
			shnum++
		}
	}

	buf.WriteString(magicMips)
	buf.WriteByte(endianLittle)
	buf.WriteByte(formatVersion)
	buf.WriteByte(shnum)
	buf.WriteByte(0) // padding

	fileOffset := uint32(fileHeaderSize)
	for id := segment.ID(0); id < segment.Count; id++ {
		im := mem.Images[id]
		if im.HighWater == 0 {
			continue
		}
		buf.WriteByte(byte(id))
		buf.Write([]byte{0, 0, 0}) // padding
		var off, size [4]byte
		binary.LittleEndian.PutUint32(off[:], fileOffset)
		binary.LittleEndian.PutUint32(size[:], im.HighWater)
		buf.Write(off[:])
		buf.Write(size[:])
		buf.Write(im.Bytes[:im.HighWater])
		fileOffset += sectHeaderSize + im.HighWater
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing object file %q: %w", path, err)
	}
	return nil
}

// DumpSegment writes one segment's high-water bytes verbatim, with no
// header, for the -t/-d/--ktext-dump/--kdata-dump raw-dump flags.
func DumpSegment(mem *segment.Memory, id segment.ID, path string) error {
	im := mem.Images[id]
	if err := os.WriteFile(path, im.Bytes[:im.HighWater], 0o644); err != nil {
		return fmt.Errorf("dumping segment %s to %q: %w", id, path, err)
	}
	return nil
}
