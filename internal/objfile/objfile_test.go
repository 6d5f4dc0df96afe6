package objfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tstword/mipsasm/internal/segment"
)

func TestWriteObjectHeaderAndSections(t *testing.T) {
	mem := segment.NewMemory()
	if err := mem.Images[segment.Text].Write([]byte{0xDE, 0xAD, 0xBE, 0xEF}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mem.Images[segment.Data].Write([]byte{1, 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.obj")
	if err := WriteObject(mem, path); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(data[0:4]) != "mips" {
		t.Fatalf("magic = %q, want mips", data[0:4])
	}
	if data[4] != endianLittle {
		t.Errorf("endianness byte = %d, want %d", data[4], endianLittle)
	}
	if data[5] != formatVersion {
		t.Errorf("version byte = %d, want %d", data[5], formatVersion)
	}
	if data[6] != 2 {
		t.Errorf("section count = %d, want 2 (text + data)", data[6])
	}

	wantLen := fileHeaderSize + sectHeaderSize + 4 + sectHeaderSize + 2
	if len(data) != wantLen {
		t.Errorf("file length = %d, want %d", len(data), wantLen)
	}
}

func TestDumpSegmentRawBytes(t *testing.T) {
	mem := segment.NewMemory()
	if err := mem.Images[segment.Text].Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(t.TempDir(), "text.bin")
	if err := DumpSegment(mem, segment.Text, path); err != nil {
		t.Fatalf("DumpSegment: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := []byte{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
