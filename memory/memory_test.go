package memory

import (
	"os"
	"path/filepath"
	"testing"
)

// TestMemoryTrivial just does basic get/set tests.
func TestMemoryTrivial(t *testing.T) {

	mem := new(Memory)

	// Set
	mem.Set(0x00, 0x01)
	mem.Set(0x01, 0x02)

	// Get
	if mem.Get(0x00) != 0x01 {
		t.Fatalf("failed to get expected result")
	}
	if mem.Get(0x01) != 0x02 {
		t.Fatalf("failed to get expected result")
	}

	// GetU16 is little-endian
	if mem.GetU16(0x00) != 0x0201 {
		t.Fatalf("failed to get expected result")
	}

	// SetU16 stores low byte first
	mem.SetU16(0x10, 0x1234)
	if mem.Get(0x10) != 0x34 || mem.Get(0x11) != 0x12 {
		t.Fatalf("SetU16 stored the wrong layout")
	}

	// Fill with 0xCD
	mem.FillRange(0x00, 0xFFFF, 0xCD)

	if mem.Get(0xFFFE) != 0xCD {
		t.Fatalf("failed to get expected result")
	}

	// Get a random range
	out := mem.GetRange(0x300, 0x00FF)
	for _, d := range out {
		if d != 0xCD {
			t.Fatalf("wrong result in GetRange")
		}
	}

	// Put a (small) range
	mem.SetRange(0x0000, 0x01, 0x02, 0x03)
	if mem.Get(0x00) != 0x01 || mem.Get(0x02) != 0x03 {
		t.Fatalf("failed to get expected result")
	}
}

// TestAddressWrap confirms word reads wrap around the top of memory.
func TestAddressWrap(t *testing.T) {
	mem := new(Memory)

	mem.Set(0xFFFF, 0x34)
	mem.Set(0x0000, 0x12)

	if mem.GetU16(0xFFFF) != 0x1234 {
		t.Fatalf("wrapped word read failed: 0x%04X", mem.GetU16(0xFFFF))
	}
}

// TestLoadImage loads a small image, and an over-sized one.
func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	// A small image loads verbatim.
	small := filepath.Join(dir, "small.com")
	if err := os.WriteFile(small, []byte{0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatalf("failed to write file: %s", err)
	}

	mem := new(Memory)
	if err := mem.LoadImage(0x0100, small); err != nil {
		t.Fatalf("failed to load image: %s", err)
	}
	if mem.Get(0x0100) != 0x01 || mem.Get(0x0102) != 0x03 {
		t.Fatalf("image not loaded at the expected address")
	}

	// An image bigger than the space available is truncated, with
	// no error reported.
	big := filepath.Join(dir, "big.com")
	data := make([]byte, 70000)
	for i := range data {
		data[i] = 0xEE
	}
	if err := os.WriteFile(big, data, 0o644); err != nil {
		t.Fatalf("failed to write file: %s", err)
	}

	mem = new(Memory)
	if err := mem.LoadImage(0x0100, big); err != nil {
		t.Fatalf("over-sized image should load: %s", err)
	}
	if mem.Get(0xFFFF) != 0xEE {
		t.Fatalf("truncated image missing its last byte")
	}
	if mem.Get(0x0000) != 0x00 {
		t.Fatalf("truncated image wrapped around memory")
	}

	// A missing file is an error.
	if err := mem.LoadImage(0x0100, filepath.Join(dir, "missing.com")); err == nil {
		t.Fatalf("expected an error loading a missing file")
	}
}
