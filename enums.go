package glshim

// Capability names a toggleable pipeline feature for Enable/Disable.
type Capability int

const (
	CapBlend Capability = iota + 1
	CapDepthTest
	CapStencilTest
	CapCullFace
	CapScissorTest
)

// BlendFactor selects a blend coefficient.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcAlphaSaturate
)

// BlendEquation selects how source and destination terms combine.
type BlendEquation int

const (
	BlendAdd BlendEquation = iota
	BlendSubtract
	BlendReverseSubtract
)

// CompareFunc is a depth or stencil comparison function.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is a stencil update operation.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncr
	StencilIncrWrap
	StencilDecr
	StencilDecrWrap
	StencilInvert
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullFrontAndBack
)

// FrontFace selects the winding order considered front-facing.
type FrontFace int

const (
	FrontCCW FrontFace = iota
	FrontCW
)

// PrimitiveMode is the draw primitive topology.
type PrimitiveMode int

const (
	Points PrimitiveMode = iota
	Lines
	LineStrip
	LineLoop
	Triangles
	TriangleStrip
	TriangleFan
)

func (m PrimitiveMode) valid() bool {
	return m >= Points && m <= TriangleFan
}

// IndexType is the element type of an index buffer.
type IndexType int

const (
	IndexUint8 IndexType = iota
	IndexUint16
	IndexUint32
)

// Size returns the byte width of one index.
func (t IndexType) Size() int {
	switch t {
	case IndexUint8:
		return 1
	case IndexUint16:
		return 2
	case IndexUint32:
		return 4
	default:
		return 0
	}
}

// BufferTarget is a buffer bind point.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota + 1
	ElementArrayBuffer
)

// BufferUsage is the declared update frequency of buffer contents.
type BufferUsage int

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
	StreamDraw
)

// TextureTarget is a texture bind point.
type TextureTarget int

const (
	Texture2D TextureTarget = iota + 1
	TextureCubeMap
)

// TextureFormat is the uncompressed pixel format of uploaded image data.
type TextureFormat int

const (
	FormatRGBA TextureFormat = iota + 1
	FormatRGB
	FormatAlpha
	FormatLuminance
	FormatLuminanceAlpha
)

// bytesPerPixel returns the tightly packed source pixel width.
func (f TextureFormat) bytesPerPixel() int {
	switch f {
	case FormatRGBA:
		return 4
	case FormatRGB:
		return 3
	case FormatLuminanceAlpha:
		return 2
	case FormatAlpha, FormatLuminance:
		return 1
	default:
		return 0
	}
}

// TextureFilter selects minification/magnification sampling.
type TextureFilter int

const (
	FilterNearest TextureFilter = iota
	FilterLinear
)

// TextureWrap selects coordinate wrapping outside [0,1].
type TextureWrap int

const (
	WrapRepeat TextureWrap = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// AttribType is the component type of a vertex attribute array.
type AttribType int

const (
	AttribFloat AttribType = iota
	AttribByte
	AttribUnsignedByte
	AttribShort
	AttribUnsignedShort
)

// Size returns the byte width of one component.
func (t AttribType) Size() int {
	switch t {
	case AttribFloat:
		return 4
	case AttribShort, AttribUnsignedShort:
		return 2
	case AttribByte, AttribUnsignedByte:
		return 1
	default:
		return 0
	}
}

// ShaderType distinguishes the two programmable stages.
type ShaderType int

const (
	VertexShader ShaderType = iota + 1
	FragmentShader
)

// RenderbufferFormat is the internal format of renderbuffer storage.
type RenderbufferFormat int

const (
	RenderbufferRGBA8 RenderbufferFormat = iota + 1
	RenderbufferDepth16
	RenderbufferDepth24Stencil8
	RenderbufferStencil8
)

// Attachment is a framebuffer attachment point.
type Attachment int

const (
	ColorAttachment0 Attachment = iota + 1
	DepthAttachment
	StencilAttachment
	DepthStencilAttachment
)

// FramebufferStatus is the result of a completeness check.
type FramebufferStatus int

const (
	FramebufferComplete FramebufferStatus = iota + 1
	FramebufferIncompleteAttachment
	FramebufferIncompleteMissingAttachment
	FramebufferIncompleteDimensions
	FramebufferUnsupported
)

// String returns the conventional status name.
func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "FRAMEBUFFER_COMPLETE"
	case FramebufferIncompleteAttachment:
		return "FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case FramebufferIncompleteMissingAttachment:
		return "FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case FramebufferIncompleteDimensions:
		return "FRAMEBUFFER_INCOMPLETE_DIMENSIONS"
	case FramebufferUnsupported:
		return "FRAMEBUFFER_UNSUPPORTED"
	default:
		return "FRAMEBUFFER_STATUS_UNKNOWN"
	}
}

// ClearMask selects which buffers Clear touches. Values combine with |.
type ClearMask uint32

const (
	ColorBufferBit ClearMask = 1 << iota
	DepthBufferBit
	StencilBufferBit
)
