package shaderbin

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAlignPadsToBoundary(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{1, 256},
		{255, 256},
		{256, 256},
		{257, 512},
	}
	for _, tc := range cases {
		out := Align(make([]byte, tc.in))
		if len(out) != tc.want {
			t.Errorf("Align(len %d) = len %d, want %d", tc.in, len(out), tc.want)
		}
	}
}

func TestAlignCopiesAndZeroFills(t *testing.T) {
	in := []byte{1, 2, 3}
	out := Align(in)
	if !bytes.Equal(out[:3], in) {
		t.Errorf("prefix = %v", out[:3])
	}
	for i := 3; i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("tail byte %d = %d, want 0", i, out[i])
		}
	}
	// The input must not be aliased.
	out[0] = 9
	if in[0] != 1 {
		t.Error("Align aliased the input slice")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shader.spv")
	if err := os.WriteFile(path, []byte{7, 7, 7}, 0o644); err != nil {
		t.Fatal(err)
	}
	blob, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(blob) != 256 || blob[0] != 7 {
		t.Errorf("blob len %d first %d", len(blob), blob[0])
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.spv")); err == nil {
		t.Error("missing file loaded")
	}

	empty := filepath.Join(dir, "empty.spv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(empty); err == nil {
		t.Error("empty file loaded")
	}
}

func TestWordsLittleEndian(t *testing.T) {
	blob := []byte{0x03, 0x02, 0x23, 0x07, 0xFF, 0x00, 0x00, 0x00}
	words := Words(blob)
	if len(words) != 2 {
		t.Fatalf("len(words) = %d, want 2", len(words))
	}
	if words[0] != 0x07230203 {
		t.Errorf("words[0] = %#x, want the SPIR-V magic", words[0])
	}
	if words[1] != 0xFF {
		t.Errorf("words[1] = %#x, want 0xFF", words[1])
	}
}
