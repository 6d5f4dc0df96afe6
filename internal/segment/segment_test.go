package segment

import "testing"

func TestWriteAdvancesCursorAndHighWater(t *testing.T) {
	im := NewImage(Text)
	start := im.Cursor
	if err := im.Write([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if im.Cursor != start+4 {
		t.Errorf("Cursor = 0x%X, want 0x%X", im.Cursor, start+4)
	}
	if im.HighWater != 4 {
		t.Errorf("HighWater = %d, want 4", im.HighWater)
	}
}

func TestWriteAtDoesNotMoveCursor(t *testing.T) {
	im := NewImage(Data)
	if err := im.Write([]byte{0, 0, 0, 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cursor := im.Cursor
	im.WriteAt(Base[Data], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	if im.Cursor != cursor {
		t.Errorf("WriteAt moved cursor: got 0x%X, want 0x%X", im.Cursor, cursor)
	}
	if im.Bytes[0] != 0xDE || im.Bytes[3] != 0xEF {
		t.Errorf("WriteAt did not patch bytes: %v", im.Bytes[:4])
	}
}

func TestWriteAtExtendsHighWaterPastReservedCursor(t *testing.T) {
	im := NewImage(Text)
	im.Cursor += 4 // simulate a reserved-but-unwritten deferred instruction
	if im.HighWater != 0 {
		t.Fatalf("HighWater = %d, want 0 before WriteAt", im.HighWater)
	}
	im.WriteAt(Base[Text], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	if im.HighWater != 4 {
		t.Errorf("HighWater = %d, want 4: WriteAt must extend it past a reserved region", im.HighWater)
	}
}

func TestAlign(t *testing.T) {
	im := NewImage(Data)
	if err := im.Write([]byte{1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := im.Align(2); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if im.Cursor%4 != 0 {
		t.Errorf("Cursor 0x%X not aligned to 4", im.Cursor)
	}
	before := im.Cursor
	if err := im.Align(2); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if im.Cursor != before {
		t.Errorf("Align on already-aligned cursor moved it: 0x%X -> 0x%X", before, im.Cursor)
	}
}

func TestAlignOutOfRange(t *testing.T) {
	im := NewImage(Text)
	if err := im.Align(32); err == nil {
		t.Error("Align(32) should error")
	}
}

func TestSpaceGrowsAndZeroFills(t *testing.T) {
	im := NewImage(Data)
	if err := im.Space(16); err != nil {
		t.Fatalf("Space: %v", err)
	}
	if im.HighWater != 16 {
		t.Errorf("HighWater = %d, want 16", im.HighWater)
	}
	for i, b := range im.Bytes[:16] {
		if b != 0 {
			t.Errorf("byte %d = %#x, want 0", i, b)
		}
	}
}

func TestOverflow(t *testing.T) {
	im := NewImage(Text)
	im.Cursor = Limit[Text] - 1
	if err := im.Write([]byte{1, 2, 3, 4}); err == nil {
		t.Error("Write past segment limit should error")
	}
}
