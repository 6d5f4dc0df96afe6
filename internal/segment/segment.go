// Package segment implements the four segmented memory images the
// assembler writes into: a growable byte buffer per segment with a
// cursor, a high-water mark, and base/limit enforcement.
package segment

import "fmt"

// ID identifies one of the four fixed memory segments.
type ID int

const (
	Text ID = iota
	Data
	KText
	KData
	Count
)

func (id ID) String() string {
	switch id {
	case Text:
		return "text"
	case Data:
		return "data"
	case KText:
		return "ktext"
	case KData:
		return "kdata"
	default:
		return "unknown"
	}
}

// Base and Limit addresses, fixed per segment.
var (
	Base  = [Count]uint32{Text: 0x00400000, Data: 0x10010000, KText: 0x80000000, KData: 0x90000000}
	Limit = [Count]uint32{Text: 0x0FFFFFFF, Data: 0x7FFFFFFF, KText: 0x8FFFFFFF, KData: 0xFFFEFFFF}
)

const growIncrement = 1024

// Image is one segment's backing image: bytes written so far, a
// high-water offset from Base, and the current emit cursor (an address,
// not an offset). .align/.space move the high-water mark along with the
// cursor; the cursor runs ahead of high-water only while a deferred
// instruction's bytes are reserved and not yet written.
type Image struct {
	ID        ID
	Bytes     []byte
	HighWater uint32
	Cursor    uint32
}

func NewImage(id ID) *Image {
	return &Image{ID: id, Cursor: Base[id]}
}

// ensure grows Bytes (zero-filled) so indices [0, need) are valid.
func (im *Image) ensure(need uint32) {
	if uint32(len(im.Bytes)) >= need {
		return
	}
	grown := uint32(len(im.Bytes))
	for grown < need {
		grown += growIncrement
	}
	buf := make([]byte, grown)
	copy(buf, im.Bytes)
	im.Bytes = buf
}

// Write appends bytes at the current cursor, growing the buffer in
// 1024-byte increments and zero-filling new regions, then advances the
// cursor and high-water mark. Returns an error if the cursor would
// exceed the segment limit.
func (im *Image) Write(data []byte) error {
	offset := im.Cursor - Base[im.ID]
	need := offset + uint32(len(data))
	im.ensure(need)
	copy(im.Bytes[offset:need], data)

	im.Cursor += uint32(len(data))
	if need > im.HighWater {
		im.HighWater = need
	}
	if im.Cursor > Limit[im.ID] {
		return fmt.Errorf("segment %s overflow: cursor 0x%08X exceeds limit 0x%08X", im.ID, im.Cursor, Limit[im.ID])
	}
	return nil
}

// WriteAt patches bytes at an absolute address reserved by an earlier
// cursor advance (used to replay a deferred instruction at its snapshot
// cursor). It never moves the cursor, but it must extend the high-water
// mark when the patched range lies past it: reserve() advances Cursor
// without writing, so a deferred instruction that is the last thing
// emitted in a segment would otherwise be cut off by the final dump.
func (im *Image) WriteAt(addr uint32, data []byte) {
	offset := addr - Base[im.ID]
	need := offset + uint32(len(data))
	im.ensure(need)
	copy(im.Bytes[offset:need], data)
	if need > im.HighWater {
		im.HighWater = need
	}
}

// Space advances the cursor by n bytes without writing, but still
// ensures the backing buffer covers the advance (zero-filled), so a
// later WriteAt into that range never needs to grow the buffer.
func (im *Image) Space(n uint32) error {
	offset := im.Cursor - Base[im.ID]
	im.ensure(offset + n)
	im.Cursor += n
	if offset+n > im.HighWater {
		im.HighWater = offset + n
	}
	if im.Cursor > Limit[im.ID] {
		return fmt.Errorf("segment %s overflow: cursor 0x%08X exceeds limit 0x%08X", im.ID, im.Cursor, Limit[im.ID])
	}
	return nil
}

// Align advances the cursor to the next multiple of 2^n. n must be in
// [0,31]; n == 0 is a no-op placeholder reserved for future
// "disable auto-align" semantics, per spec.
func (im *Image) Align(n uint) error {
	if n > 31 {
		return fmt.Errorf("align out of range: %d", n)
	}
	if n == 0 {
		return nil
	}
	mod := uint32(1) << n
	rem := im.Cursor % mod
	if rem == 0 {
		return nil
	}
	return im.Space(mod - rem)
}

// Memory bundles all four segment images with the currently active
// segment selector.
type Memory struct {
	Images  [Count]*Image
	Active  ID
}

func NewMemory() *Memory {
	m := &Memory{Active: Text}
	for id := ID(0); id < Count; id++ {
		m.Images[id] = NewImage(id)
	}
	return m
}

func (m *Memory) Current() *Image { return m.Images[m.Active] }
