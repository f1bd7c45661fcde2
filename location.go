package glshim

// Location is the public uniform address handed to applications by
// GetUniformLocation and accepted by every Uniform* call. It is a bit-packed
// 32-bit value that applications must treat as opaque, but the packing is a
// stable wire contract:
//
//	bit 31 set (packed mode):   bits 24-30 stage, 16-23 binding, 0-15 byte offset
//	bit 31 clear (legacy mode): bits 16-30 stage, 0-15 slot index
//
// -1 means "not found". Internally the value is decoded into a variant type
// at the first boundary; no code beyond decodeLocation touches the bits.
type Location int32

// LocationNone is the failed-lookup sentinel.
const LocationNone Location = -1

const (
	locPackedFlag = 1 << 31

	locPackedStageShift   = 24
	locPackedStageMask    = 0x7F
	locPackedBindingShift = 16
	locPackedBindingMask  = 0xFF
	locOffsetMask         = 0xFFFF

	locLegacyStageShift = 16
	locLegacyStageMask  = 0x7FFF
	locSlotMask         = 0xFFFF
)

// PackedLocation encodes a packed-mode address (stage, block binding, byte
// offset within the block).
func PackedLocation(stage ShaderType, binding, offset int) Location {
	v := uint32(locPackedFlag)
	v |= (uint32(stageIndex(stage)) & locPackedStageMask) << locPackedStageShift
	v |= (uint32(binding) & locPackedBindingMask) << locPackedBindingShift
	v |= uint32(offset) & locOffsetMask
	return Location(v)
}

// LegacyLocation encodes a legacy-mode address (stage, slot index).
func LegacyLocation(stage ShaderType, slot int) Location {
	v := (uint32(stageIndex(stage)) & locLegacyStageMask) << locLegacyStageShift
	v |= uint32(slot) & locSlotMask
	return Location(v)
}

// uniformAddr is the decoded form of a Location.
type uniformAddr interface {
	isUniformAddr()
}

// legacyAddr addresses a per-program legacy uniform slot.
type legacyAddr struct {
	stage int // 0 vertex, 1 fragment
	slot  int
}

// packedAddr addresses a byte range inside a packed uniform block.
type packedAddr struct {
	stage   int
	binding int
	offset  int
}

func (legacyAddr) isUniformAddr() {}
func (packedAddr) isUniformAddr() {}

// decodeLocation splits a Location into its variant. Reports false for
// LocationNone and out-of-range stage indices. Packed-mode values carry
// bit 31 and read as negative int32s, so only the exact sentinel is
// rejected up front.
func decodeLocation(loc Location) (uniformAddr, bool) {
	if loc == LocationNone {
		return nil, false
	}
	v := uint32(loc)
	if v&locPackedFlag != 0 {
		a := packedAddr{
			stage:   int((v >> locPackedStageShift) & locPackedStageMask),
			binding: int((v >> locPackedBindingShift) & locPackedBindingMask),
			offset:  int(v & locOffsetMask),
		}
		if a.stage >= stageCount {
			return nil, false
		}
		return a, true
	}
	a := legacyAddr{
		stage: int((v >> locLegacyStageShift) & locLegacyStageMask),
		slot:  int(v & locSlotMask),
	}
	if a.stage >= stageCount {
		return nil, false
	}
	return a, true
}

// stageCount is the number of programmable stages.
const stageCount = 2

// stageIndex maps a ShaderType to its array index (vertex 0, fragment 1).
func stageIndex(t ShaderType) int {
	if t == FragmentShader {
		return 1
	}
	return 0
}
