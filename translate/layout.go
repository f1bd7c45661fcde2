package translate

// std140 layout rules, as fixed by the uniform block specification:
//
//   - scalars (float/int/bool) align to 4 bytes
//   - vec2 aligns to 8; vec3 and vec4 align to 16
//   - a matrix is laid out as an array of column vectors, each column
//     occupying a full 16-byte slot
//   - every array element is padded to a 16-byte stride regardless of the
//     element's natural size
//   - the block size is rounded up to a multiple of 16
//
// The offsets computed here are the single source of truth: the emitted
// shader text and the uniform binding registry both derive from the same
// Reflection, so a mismatch cannot arise between what the shader reads and
// where the CPU writes.

// std140Slot is the array element stride and the block size granule.
const std140Slot = 16

// baseAlignment returns the std140 base alignment of a non-array member.
func baseAlignment(t DataType) int {
	switch t {
	case TypeFloat, TypeInt, TypeBool:
		return 4
	case TypeVec2, TypeIVec2, TypeBVec2:
		return 8
	case TypeVec3, TypeVec4, TypeIVec3, TypeIVec4, TypeBVec3, TypeBVec4:
		return 16
	case TypeMat2, TypeMat3, TypeMat4:
		return std140Slot
	default:
		return 4
	}
}

// baseSize returns the std140 size of a non-array member.
func baseSize(t DataType) int {
	switch t {
	case TypeFloat, TypeInt, TypeBool:
		return 4
	case TypeVec2, TypeIVec2, TypeBVec2:
		return 8
	case TypeVec3, TypeIVec3, TypeBVec3:
		return 12
	case TypeVec4, TypeIVec4, TypeBVec4:
		return 16
	case TypeMat2:
		return 2 * std140Slot
	case TypeMat3:
		return 3 * std140Slot
	case TypeMat4:
		return 4 * std140Slot
	default:
		return 4
	}
}

// matrixColumns returns the column count of a matrix type, or 0.
func matrixColumns(t DataType) int {
	switch t {
	case TypeMat2:
		return 2
	case TypeMat3:
		return 3
	case TypeMat4:
		return 4
	default:
		return 0
	}
}

// alignUp rounds v up to the next multiple of align.
func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

// memberLayout returns the (alignment, size) of one block member,
// accounting for array stride padding.
func memberLayout(u Uniform) (align, size int) {
	if u.ArrayLen > 0 {
		// Array elements always occupy full 16-byte slots. Matrices count
		// one slot per column.
		slots := 1
		if c := matrixColumns(u.Type); c > 0 {
			slots = c
		}
		return std140Slot, u.ArrayLen * slots * std140Slot
	}
	return baseAlignment(u.Type), baseSize(u.Type)
}

// layoutStd140 places members (already in block order) and returns them with
// Offset and Size filled in, plus the rounded-up block size.
func layoutStd140(members []Uniform) ([]Uniform, int) {
	offset := 0
	out := make([]Uniform, len(members))
	for i, m := range members {
		align, size := memberLayout(m)
		offset = alignUp(offset, align)
		m.Offset = offset
		m.Size = size
		offset += size
		out[i] = m
	}
	if offset == 0 {
		return out, 0
	}
	return out, alignUp(offset, std140Slot)
}
