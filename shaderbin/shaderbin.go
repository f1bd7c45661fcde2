// Package shaderbin handles compiled shader binaries: the runtime compiler
// collaborator, the precompiled-blob file loader, and the alignment rule
// both must satisfy before upload.
//
// Both sources converge on the same contract: an opaque byte blob handed to
// the driver's shader load call, padded so its length is a whole multiple
// of the 256-byte upload alignment.
package shaderbin

import (
	"fmt"
	"os"

	"github.com/gogpu/glshim"
	"github.com/gogpu/naga"
)

// Alignment is the byte alignment compiled binaries must satisfy before
// GPU upload; the blob's internal pointer encoding requires it.
const Alignment = 256

// Align pads a blob to a whole multiple of Alignment. The input is copied;
// zero bytes fill the tail.
func Align(blob []byte) []byte {
	padded := (len(blob) + Alignment - 1) / Alignment * Alignment
	out := make([]byte, padded)
	copy(out, blob)
	return out
}

// LoadFile reads a precompiled shader blob from disk and pads it to the
// upload alignment.
func LoadFile(path string) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shaderbin: load %s: %w", path, err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("shaderbin: %s is empty", path)
	}
	return Align(blob), nil
}

// NagaCompiler compiles shader source through the naga compiler to SPIR-V.
// naga consumes WGSL; use it for contexts whose shaders are authored in (or
// already translated to) WGSL, or pair the context with a GLSL-capable
// compiler instead.
//
// The zero value is ready to use.
type NagaCompiler struct{}

// Compile implements glshim.ShaderCompiler.
func (NagaCompiler) Compile(source string, stage glshim.ShaderType) ([]byte, error) {
	blob, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shaderbin: naga compile failed: %w", err)
	}
	return Align(blob), nil
}

// Words converts a SPIR-V byte blob to its little-endian 32-bit word form,
// which is what device APIs consume. The blob length must be a multiple
// of 4; padding from Align keeps it so.
func Words(blob []byte) []uint32 {
	words := make([]uint32, len(blob)/4)
	for i := range words {
		words[i] = uint32(blob[i*4]) |
			uint32(blob[i*4+1])<<8 |
			uint32(blob[i*4+2])<<16 |
			uint32(blob[i*4+3])<<24
	}
	return words
}
