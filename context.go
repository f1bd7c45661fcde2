package glshim

import (
	"fmt"

	"github.com/gogpu/glshim/internal/handle"
)

// Fixed table capacities. Handle tables are preallocated arenas; exhaustion
// surfaces as OutOfMemory on the polled error channel, never as growth.
const (
	MaxBuffers       = 512
	MaxTextures      = 512
	MaxShaders       = 256
	MaxPrograms      = 128
	MaxFramebuffers  = 64
	MaxRenderbuffers = 64

	// MaxVertexAttribs is the size of the vertex attribute array.
	MaxVertexAttribs = 16

	// MaxTextureUnits is the number of texture units.
	MaxTextureUnits = 8
)

// ShaderCompiler turns shader text into the opaque binary blob the driver
// loads. It is an external collaborator: the reference implementation lives
// in the shaderbin package. A nil compiler makes CompileShader fail; the
// precompiled-binary path works without one.
type ShaderCompiler interface {
	Compile(source string, stage ShaderType) ([]byte, error)
}

// Config configures a new Context.
type Config struct {
	// Width and Height size the default framebuffer, the initial viewport
	// and the initial scissor rectangle.
	Width  int
	Height int

	// Compiler compiles shader text at runtime. Optional.
	Compiler ShaderCompiler
}

// Context is the single active GL state machine. It owns all state groups,
// the resource tables, the vertex attribute array, pixel store flags, one
// polled error code, and a reference to one Driver.
//
// A Context is not safe for concurrent use: exactly one goroutine may drive
// it at a time. This is the explicit form of the classic "current context"
// precondition.
type Context struct {
	drv      Driver
	compiler ShaderCompiler
	caps     Caps

	width  int
	height int

	err ErrorCode

	buffers       *handle.Table
	textures      *handle.Table
	shaders       *handle.Table
	programs      *handle.Table
	framebuffers  *handle.Table
	renderbuffers *handle.Table

	bufferObjs       []bufferObject
	textureObjs      []textureObject
	shaderObjs       []shaderObject
	programObjs      []programObject
	framebufferObjs  []framebufferObject
	renderbufferObjs []renderbufferObject

	blend        BlendState
	depthStencil DepthStencilState
	raster       RasterState
	viewport     ViewportState
	scissor      ScissorState
	colorMask    ColorMaskState

	boundArrayBuffer   uint32
	boundElementBuffer uint32
	boundFramebuffer   uint32
	boundRenderbuffer  uint32
	currentProgram     uint32

	activeUnit    int
	boundTextures [MaxTextureUnits]uint32

	attribs [MaxVertexAttribs]vertexAttrib

	unpackAlignment int

	// Application-registrable uniform name table and the size-by-
	// (stage,binding) table used to lazily configure packed blocks.
	uniformBindings map[string]Location
	blockSizes      map[blockKey]int

	frameOpen bool
	destroyed bool
}

// blockKey identifies one packed block across programs.
type blockKey struct {
	stage   int
	binding int
}

// NewContext creates a context over the given driver and initializes the
// device. The driver must not be shared between contexts.
func NewContext(drv Driver, cfg Config) (*Context, error) {
	if drv == nil {
		return nil, ErrNoDriver
	}
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	if err := drv.Init(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDriverInit, drv.Name(), err)
	}

	c := &Context{
		drv:      drv,
		compiler: cfg.Compiler,
		caps:     drv.Caps(),
		width:    cfg.Width,
		height:   cfg.Height,

		buffers:       handle.NewTable("buffer", MaxBuffers),
		textures:      handle.NewTable("texture", MaxTextures),
		shaders:       handle.NewTable("shader", MaxShaders),
		programs:      handle.NewTable("program", MaxPrograms),
		framebuffers:  handle.NewTable("framebuffer", MaxFramebuffers),
		renderbuffers: handle.NewTable("renderbuffer", MaxRenderbuffers),

		bufferObjs:       make([]bufferObject, MaxBuffers+1),
		textureObjs:      make([]textureObject, MaxTextures+1),
		shaderObjs:       make([]shaderObject, MaxShaders+1),
		programObjs:      make([]programObject, MaxPrograms+1),
		framebufferObjs:  make([]framebufferObject, MaxFramebuffers+1),
		renderbufferObjs: make([]renderbufferObject, MaxRenderbuffers+1),

		blend:        defaultBlendState(),
		depthStencil: defaultDepthStencilState(),
		raster:       defaultRasterState(),
		viewport:     defaultViewportState(int32(cfg.Width), int32(cfg.Height)),
		scissor:      defaultScissorState(int32(cfg.Width), int32(cfg.Height)),
		colorMask:    defaultColorMaskState(),

		unpackAlignment: 4,

		uniformBindings: make(map[string]Location),
		blockSizes:      make(map[blockKey]int),
	}
	Logger().Info("context created", "driver", drv.Name(),
		"width", cfg.Width, "height", cfg.Height)
	return c, nil
}

// Destroy releases the driver and every native resource. The context must
// not be used afterwards.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.drv.Close()
}

// Driver returns the underlying driver. Intended for tests and tooling.
func (c *Context) Driver() Driver { return c.drv }

// ensureFrame opens the driver frame lazily on the first state application,
// clear or draw after a present. Opening re-applies every cached state
// group because each slot's command buffer starts from device defaults,
// not from the context's last-known state.
func (c *Context) ensureFrame() bool {
	if c.frameOpen {
		return true
	}
	if err := c.drv.BeginFrame(); err != nil {
		Logger().Warn("begin frame failed", "err", err)
		c.setError(OutOfMemory)
		return false
	}
	c.frameOpen = true

	c.drv.ApplyBlend(c.blend)
	c.drv.ApplyDepthStencil(c.depthStencil)
	c.drv.ApplyRaster(c.raster)
	c.drv.ApplyColorMask(c.colorMask)
	c.drv.ApplyViewport(c.viewport)
	c.drv.ApplyScissor(c.scissor)
	if c.boundFramebuffer != 0 {
		c.applyFramebufferBinding()
	}
	return true
}

// Enable turns a capability on.
func (c *Context) Enable(cap Capability) { c.setCapability(cap, true) }

// Disable turns a capability off.
func (c *Context) Disable(cap Capability) { c.setCapability(cap, false) }

// IsEnabled reports whether a capability is on.
func (c *Context) IsEnabled(cap Capability) bool {
	switch cap {
	case CapBlend:
		return c.blend.Enabled
	case CapDepthTest:
		return c.depthStencil.DepthTest
	case CapStencilTest:
		return c.depthStencil.StencilTest
	case CapCullFace:
		return c.raster.CullEnabled
	case CapScissorTest:
		return c.scissor.Enabled
	default:
		c.setError(InvalidEnum)
		return false
	}
}

func (c *Context) setCapability(cap Capability, on bool) {
	switch cap {
	case CapBlend:
		if c.blend.setEnabled(on) {
			c.applyBlend()
		}
	case CapDepthTest:
		if c.depthStencil.setDepthTest(on) {
			c.applyDepthStencil()
		}
	case CapStencilTest:
		if c.depthStencil.setStencilTest(on) {
			c.applyDepthStencil()
		}
	case CapCullFace:
		if c.raster.setCullEnabled(on) {
			c.applyRaster()
		}
	case CapScissorTest:
		if c.scissor.setEnabled(on) {
			c.applyScissor()
		}
	default:
		c.setError(InvalidEnum)
	}
}

// Apply helpers. State mutations outside an open frame only update the
// cached groups; the full set is re-applied when the next frame opens.

func (c *Context) applyBlend() {
	if c.frameOpen {
		c.drv.ApplyBlend(c.blend)
	}
}

func (c *Context) applyDepthStencil() {
	if c.frameOpen {
		c.drv.ApplyDepthStencil(c.depthStencil)
	}
}

func (c *Context) applyRaster() {
	if c.frameOpen {
		c.drv.ApplyRaster(c.raster)
	}
}

func (c *Context) applyColorMask() {
	if c.frameOpen {
		c.drv.ApplyColorMask(c.colorMask)
	}
}

func (c *Context) applyViewport() {
	if c.frameOpen {
		c.drv.ApplyViewport(c.viewport)
	}
}

func (c *Context) applyScissor() {
	if c.frameOpen {
		c.drv.ApplyScissor(c.scissor)
	}
}

// BlendFunc sets one factor pair for both RGB and alpha.
func (c *Context) BlendFunc(src, dst BlendFactor) {
	c.BlendFuncSeparate(src, dst, src, dst)
}

// BlendFuncSeparate sets independent RGB and alpha factor pairs.
func (c *Context) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor) {
	if !validBlendFactor(srcRGB) || !validBlendFactor(dstRGB) ||
		!validBlendFactor(srcAlpha) || !validBlendFactor(dstAlpha) {
		c.setError(InvalidEnum)
		return
	}
	if c.blend.setFunc(srcRGB, dstRGB, srcAlpha, dstAlpha) {
		c.applyBlend()
	}
}

// BlendEquation sets one equation for both RGB and alpha.
func (c *Context) BlendEquation(eq BlendEquation) {
	c.BlendEquationSeparate(eq, eq)
}

// BlendEquationSeparate sets independent RGB and alpha equations.
func (c *Context) BlendEquationSeparate(rgb, alpha BlendEquation) {
	if !validBlendEquation(rgb) || !validBlendEquation(alpha) {
		c.setError(InvalidEnum)
		return
	}
	if c.blend.setEquation(rgb, alpha) {
		c.applyBlend()
	}
}

// BlendColor sets the constant blend color.
func (c *Context) BlendColor(r, g, b, a float32) {
	if c.blend.setColor(r, g, b, a) {
		c.applyBlend()
	}
}

// DepthFunc sets the depth comparison.
func (c *Context) DepthFunc(f CompareFunc) {
	if !validCompareFunc(f) {
		c.setError(InvalidEnum)
		return
	}
	if c.depthStencil.setDepthFunc(f) {
		c.applyDepthStencil()
	}
}

// DepthMask enables or disables depth writes.
func (c *Context) DepthMask(write bool) {
	if c.depthStencil.setDepthWrite(write) {
		c.applyDepthStencil()
	}
}

// StencilFunc sets the stencil comparison, reference value and read mask.
func (c *Context) StencilFunc(f CompareFunc, ref int32, mask uint32) {
	if !validCompareFunc(f) {
		c.setError(InvalidEnum)
		return
	}
	if c.depthStencil.setStencilFunc(f, ref, mask) {
		c.applyDepthStencil()
	}
}

// StencilOp sets the three stencil update operations.
func (c *Context) StencilOp(fail, depthFail, pass StencilOp) {
	if !validStencilOp(fail) || !validStencilOp(depthFail) || !validStencilOp(pass) {
		c.setError(InvalidEnum)
		return
	}
	if c.depthStencil.setStencilOp(fail, depthFail, pass) {
		c.applyDepthStencil()
	}
}

// StencilMask sets the stencil write mask.
func (c *Context) StencilMask(mask uint32) {
	if c.depthStencil.setStencilWriteMask(mask) {
		c.applyDepthStencil()
	}
}

// CullFace selects which faces are culled when CapCullFace is enabled.
func (c *Context) CullFace(mode CullMode) {
	if mode < CullBack || mode > CullFrontAndBack {
		c.setError(InvalidEnum)
		return
	}
	if c.raster.setCullMode(mode) {
		c.applyRaster()
	}
}

// FrontFace selects the front-facing winding order.
func (c *Context) FrontFace(f FrontFace) {
	if f != FrontCW && f != FrontCCW {
		c.setError(InvalidEnum)
		return
	}
	if c.raster.setFrontFace(f) {
		c.applyRaster()
	}
}

// LineWidth sets the rasterized line width.
func (c *Context) LineWidth(w float32) {
	if w <= 0 {
		c.setError(InvalidValue)
		return
	}
	if c.raster.setLineWidth(w) {
		c.applyRaster()
	}
}

// Viewport sets the viewport rectangle.
func (c *Context) Viewport(x, y, w, h int32) {
	if w < 0 || h < 0 {
		c.setError(InvalidValue)
		return
	}
	if c.viewport.setRect(x, y, w, h) {
		c.applyViewport()
	}
}

// DepthRange sets the viewport depth mapping.
func (c *Context) DepthRange(near, far float32) {
	if c.viewport.setDepthRange(near, far) {
		c.applyViewport()
	}
}

// Scissor sets the scissor rectangle.
func (c *Context) Scissor(x, y, w, h int32) {
	if w < 0 || h < 0 {
		c.setError(InvalidValue)
		return
	}
	if c.scissor.setRect(x, y, w, h) {
		c.applyScissor()
	}
}

// ColorMask sets the per-channel write mask.
func (c *Context) ColorMask(r, g, b, a bool) {
	if c.colorMask.setMask(r, g, b, a) {
		c.applyColorMask()
	}
}

// ClearColor sets the color buffer clear value.
func (c *Context) ClearColor(r, g, b, a float32) {
	c.colorMask.setClearColor(r, g, b, a)
}

// ClearDepth sets the depth buffer clear value.
func (c *Context) ClearDepth(d float32) {
	c.colorMask.setClearDepth(d)
}

// ClearStencil sets the stencil buffer clear value.
func (c *Context) ClearStencil(v int32) {
	c.colorMask.setClearStencil(v)
}

// Clear clears the selected buffers of the current render target.
func (c *Context) Clear(mask ClearMask) {
	if mask == 0 {
		return
	}
	if mask&^(ColorBufferBit|DepthBufferBit|StencilBufferBit) != 0 {
		c.setError(InvalidValue)
		return
	}
	if !c.ensureFrame() {
		return
	}
	if err := c.drv.Clear(mask, c.colorMask.ClearColor, c.colorMask.ClearDepth, c.colorMask.ClearStencil); err != nil {
		Logger().Warn("clear failed", "err", err)
		c.setError(OutOfMemory)
	}
}

// SwapBuffers finalizes the frame and presents it. If nothing was recorded
// since the last present, presentation is skipped and the previous image
// stays on screen.
func (c *Context) SwapBuffers() {
	if !c.frameOpen {
		return
	}
	c.frameOpen = false
	if err := c.drv.EndFrame(); err != nil {
		Logger().Warn("end frame failed", "err", err)
		c.setError(OutOfMemory)
		return
	}
	if err := c.drv.Present(); err != nil {
		Logger().Warn("present failed", "err", err)
		c.setError(OutOfMemory)
	}
}

// Finish blocks until all submitted GPU work completes.
func (c *Context) Finish() {
	if c.frameOpen {
		c.frameOpen = false
		if err := c.drv.EndFrame(); err != nil {
			Logger().Warn("end frame failed", "err", err)
			c.setError(OutOfMemory)
			return
		}
	}
	if err := c.drv.Finish(); err != nil {
		Logger().Warn("finish failed", "err", err)
		c.setError(OutOfMemory)
	}
}

// PixelStoreUnpackAlignment sets the row alignment of uploaded pixel data.
// Accepted values are 1, 2, 4 and 8.
func (c *Context) PixelStoreUnpackAlignment(n int) {
	switch n {
	case 1, 2, 4, 8:
		c.unpackAlignment = n
	default:
		c.setError(InvalidValue)
	}
}

func validBlendFactor(f BlendFactor) bool {
	return f >= BlendZero && f <= BlendSrcAlphaSaturate
}

func validBlendEquation(e BlendEquation) bool {
	return e >= BlendAdd && e <= BlendReverseSubtract
}

func validCompareFunc(f CompareFunc) bool {
	return f >= CompareNever && f <= CompareAlways
}

func validStencilOp(o StencilOp) bool {
	return o >= StencilKeep && o <= StencilInvert
}
