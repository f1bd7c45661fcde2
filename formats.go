package glshim

// CompressedFormat identifies a block-compressed texture format.
type CompressedFormat int

const (
	CompressedNone CompressedFormat = iota
	CompressedDXT1RGB
	CompressedDXT1RGBA
	CompressedDXT3RGBA
	CompressedDXT5RGBA
	CompressedETC1RGB8
	CompressedETC2RGB8
	CompressedETC2RGBA8
	CompressedASTC4x4
)

// blockInfo is the geometry of one compressed format.
type blockInfo struct {
	blockWidth    int
	blockHeight   int
	bytesPerBlock int
}

// compressedFormats is the fixed table of supported block-compressed
// formats. It answers capability queries and sizes uploads; it is a static
// lookup, never computed.
var compressedFormats = map[CompressedFormat]blockInfo{
	CompressedDXT1RGB:   {4, 4, 8},
	CompressedDXT1RGBA:  {4, 4, 8},
	CompressedDXT3RGBA:  {4, 4, 16},
	CompressedDXT5RGBA:  {4, 4, 16},
	CompressedETC1RGB8:  {4, 4, 8},
	CompressedETC2RGB8:  {4, 4, 8},
	CompressedETC2RGBA8: {4, 4, 16},
	CompressedASTC4x4:   {4, 4, 16},
}

// IsCompressedFormat reports whether f is in the supported format table.
func IsCompressedFormat(f CompressedFormat) bool {
	_, ok := compressedFormats[f]
	return ok
}

// CompressedImageSize returns the byte size of one mip level of the given
// dimensions in format f, or 0 if f is not a supported compressed format.
// Partial blocks at the right/bottom edges round up to whole blocks.
func CompressedImageSize(f CompressedFormat, width, height int) int {
	info, ok := compressedFormats[f]
	if !ok || width <= 0 || height <= 0 {
		return 0
	}
	bw := (width + info.blockWidth - 1) / info.blockWidth
	bh := (height + info.blockHeight - 1) / info.blockHeight
	return bw * bh * info.bytesPerBlock
}

// SupportedCompressedFormats returns the format identifiers in the table,
// in a stable order.
func SupportedCompressedFormats() []CompressedFormat {
	out := make([]CompressedFormat, 0, len(compressedFormats))
	for f := CompressedDXT1RGB; f <= CompressedASTC4x4; f++ {
		if _, ok := compressedFormats[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
