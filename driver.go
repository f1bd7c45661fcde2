package glshim

// Driver is the fixed operation table the state model and draw path call
// through. GL-semantics code depends only on this interface; concrete
// drivers live in the backend packages, so the seam is enforced by the
// package boundary, not by convention.
//
// Object identifiers passed to a Driver are the Context's handles. The
// Context guarantees a handle is created before use and destroyed exactly
// once; drivers map handles to native resources internally.
//
// A Driver is driven from the Context's goroutine only. Any CPU/GPU overlap
// (frames in flight) is the driver's internal concern and must be fenced
// inside the driver.
type Driver interface {
	// Name returns the driver identifier (e.g. "wgpu", "noop").
	Name() string

	// Init brings the device up. Called once by NewContext.
	Init() error

	// Close releases every native resource. The driver must not be used
	// afterwards.
	Close()

	// Caps reports the fixed capability set of the device.
	Caps() Caps

	// Buffers.
	CreateBuffer(id uint32) error
	BufferData(id uint32, data []byte, usage BufferUsage) error
	BufferSubData(id uint32, offset int, data []byte) error
	DestroyBuffer(id uint32)

	// Textures. TextureData uploads one mip level of tightly packed pixel
	// rows; compressed payloads arrive pre-sized per the format table.
	CreateTexture(id uint32, desc TextureDesc) error
	TextureData(id uint32, level, layer int, data []byte) error
	SetSamplerState(id uint32, params SamplerParams) error
	DestroyTexture(id uint32)

	// Renderbuffers.
	CreateRenderbuffer(id uint32, format RenderbufferFormat, width, height int) error
	DestroyRenderbuffer(id uint32)

	// Shaders and programs. LoadShaderBinary receives the compiled blob
	// already padded to the 256-byte alignment the upload path requires.
	LoadShaderBinary(id uint32, stage ShaderType, binary []byte) error
	DestroyShader(id uint32)
	LinkProgram(id uint32, vertexShader, fragmentShader uint32, layout *ProgramLayout) error
	DestroyProgram(id uint32)

	// BindFramebuffer switches the render target. A nil binding selects
	// the default (swapchain) framebuffer.
	BindFramebuffer(binding *FramebufferBinding) error

	// State application. Called only when the corresponding group changed,
	// and once per group at begin-frame to re-establish the full state.
	ApplyBlend(BlendState)
	ApplyDepthStencil(DepthStencilState)
	ApplyRaster(RasterState)
	ApplyColorMask(ColorMaskState)
	ApplyViewport(ViewportState)
	ApplyScissor(ScissorState)

	// AllocUniform places std140-padded bytes at a fresh offset in the
	// uniform memory region and returns that offset. Offsets are never
	// reused within a region cycle; in-flight draws reference earlier
	// offsets by address.
	AllocUniform(data []byte) (offset uint32, err error)

	// AllocVertexData places client-array vertex bytes in the per-frame
	// staging region, fresh offset per call, same hazard rule as uniforms.
	AllocVertexData(data []byte) (offset uint32, err error)

	// Frame lifecycle.
	BeginFrame() error
	Clear(mask ClearMask, color [4]float32, depth float32, stencil int32) error
	Draw(cmd *DrawCommand) error
	EndFrame() error
	Present() error

	// Finish blocks until all submitted GPU work completes.
	Finish() error

	// ReadPixels copies a rectangle of the current render target into dst
	// as tightly packed RGBA bytes, bottom-left origin.
	ReadPixels(x, y, width, height int, dst []byte) error
}

// Caps is the fixed capability set reported by a driver.
type Caps struct {
	MaxTextureSize    int
	MaxVertexAttribs  int
	MaxTextureUnits   int
	CompressedFormats []CompressedFormat
}

// TextureDesc describes texture storage at creation time.
type TextureDesc struct {
	Target     TextureTarget
	Width      int
	Height     int
	Format     TextureFormat
	Compressed CompressedFormat // 0 when uncompressed
	Levels     int
}

// SamplerParams is the filter/wrap tuple of a texture object.
type SamplerParams struct {
	MinFilter TextureFilter
	MagFilter TextureFilter
	WrapS     TextureWrap
	WrapT     TextureWrap
}

// FramebufferBinding is the resolved attachment set of a complete
// framebuffer object handed to the driver.
type FramebufferBinding struct {
	Color        AttachmentRef
	Depth        AttachmentRef
	Stencil      AttachmentRef
	Width        int
	Height       int
}

// AttachmentRef points at one attached image.
type AttachmentRef struct {
	// Texture or Renderbuffer holds the handle; at most one is nonzero.
	Texture      uint32
	Renderbuffer uint32
}

// ProgramLayout carries the translator's reflection output to the driver so
// pipeline creation can mirror the exact locations and block sizes the
// uniform layer registered.
type ProgramLayout struct {
	Attribs []AttribLayout

	// BlockSizes is the configured std140 block size per stage (index 0
	// vertex, 1 fragment); 0 when the stage has no block.
	BlockSizes [2]int

	// SamplerCount is the number of sampler bindings per stage.
	SamplerCount [2]int
}

// AttribLayout is one vertex input of a linked program.
type AttribLayout struct {
	Name     string
	Location int
}

// DrawCommand is one resolved draw request. All GL state that varies per
// draw (program, vertex sources, textures, uniform data) travels in the
// command; cross-draw state travels through the Apply* calls.
type DrawCommand struct {
	Mode  PrimitiveMode
	First int
	Count int

	Indexed     bool
	IndexType   IndexType
	IndexBuffer uint32 // 0 when indices came from client memory
	IndexOffset int    // byte offset into the index source

	Program uint32

	Attribs  []AttribBinding
	Textures []TextureBinding

	// Uniforms are the program's live legacy slots, resolved to region
	// offsets. Blocks are the configured packed blocks; every configured
	// block is listed on every draw, dirty or not, because command buffers
	// are rebuilt per frame and the GPU-visible copy must be re-pushed.
	Uniforms []UniformSegment
	Blocks   []BlockPush
}

// AttribBinding is one enabled vertex attribute for a draw.
type AttribBinding struct {
	Location   int
	Buffer     uint32 // 0 means the client staging region
	Size       int    // components, 1..4
	Type       AttribType
	Normalized bool
	Stride     int
	Offset     int // byte offset into the buffer or staging region
}

// TextureBinding maps one sampler binding to a texture object.
type TextureBinding struct {
	Stage   ShaderType
	Binding int
	Texture uint32
}

// UniformSegment is one legacy uniform slot resolved to its current region
// offset.
type UniformSegment struct {
	Stage  ShaderType
	Slot   int
	Offset uint32
	Size   int
}

// BlockPush is one packed uniform block flushed as a unit.
type BlockPush struct {
	Stage   ShaderType
	Binding int
	Data    []byte
}
