// Package noop provides a headless recording driver. It performs no GPU
// work; it keeps the same region-allocation and frame-lifecycle semantics
// as a real driver and records every operation, which makes it the driver
// of choice for tests and CI.
package noop

import (
	"errors"
	"fmt"

	"github.com/gogpu/glshim"
	"github.com/gogpu/glshim/backend"
)

func init() {
	backend.Register(backend.DriverNoop, func() glshim.Driver {
		return New()
	})
}

// Region capacities, sized like a real driver's fixed memory regions.
const (
	uniformRegionSize = 1 << 20
	vertexRegionSize  = 1 << 20
)

// Driver errors.
var (
	ErrNotInitialized = errors.New("noop: not initialized")
	ErrRegionFull     = errors.New("noop: memory region exhausted")
)

// Driver is the recording driver. Exported fields and accessors expose the
// recorded stream to tests.
type Driver struct {
	initialized bool
	frameOpen   bool

	uniformOffset uint32
	vertexOffset  uint32

	drawsInFrame    int
	presentedFrames int
	skippedPresents int

	// Ops is the flat operation log: one human-readable entry per driver
	// call that mutates state.
	Ops []string

	// Draws keeps a deep copy of every submitted draw command.
	Draws []glshim.DrawCommand

	buffers       map[uint32][]byte
	textures      map[uint32]glshim.TextureDesc
	renderbuffers map[uint32]struct{}
	shaders       map[uint32][]byte
	programs      map[uint32]*glshim.ProgramLayout

	clearColor [4]float32
	target     *glshim.FramebufferBinding
}

// New creates an unstarted recording driver.
func New() *Driver {
	return &Driver{
		buffers:       make(map[uint32][]byte),
		textures:      make(map[uint32]glshim.TextureDesc),
		renderbuffers: make(map[uint32]struct{}),
		shaders:       make(map[uint32][]byte),
		programs:      make(map[uint32]*glshim.ProgramLayout),
	}
}

func (d *Driver) record(format string, args ...any) {
	d.Ops = append(d.Ops, fmt.Sprintf(format, args...))
}

// Name implements glshim.Driver.
func (d *Driver) Name() string { return backend.DriverNoop }

// Init implements glshim.Driver.
func (d *Driver) Init() error {
	d.initialized = true
	d.record("init")
	return nil
}

// Close implements glshim.Driver.
func (d *Driver) Close() {
	d.initialized = false
	d.record("close")
}

// Caps implements glshim.Driver. The noop driver accepts every format in
// the fixed table.
func (d *Driver) Caps() glshim.Caps {
	return glshim.Caps{
		MaxTextureSize:    8192,
		MaxVertexAttribs:  16,
		MaxTextureUnits:   8,
		CompressedFormats: glshim.SupportedCompressedFormats(),
	}
}

// CreateBuffer implements glshim.Driver.
func (d *Driver) CreateBuffer(id uint32) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.buffers[id] = nil
	d.record("buffer create %d", id)
	return nil
}

// BufferData implements glshim.Driver.
func (d *Driver) BufferData(id uint32, data []byte, usage glshim.BufferUsage) error {
	d.buffers[id] = append([]byte(nil), data...)
	d.record("buffer data %d len %d", id, len(data))
	return nil
}

// BufferSubData implements glshim.Driver.
func (d *Driver) BufferSubData(id uint32, offset int, data []byte) error {
	stored := d.buffers[id]
	if offset+len(data) > len(stored) {
		return fmt.Errorf("noop: subdata range %d+%d exceeds buffer %d", offset, len(data), len(stored))
	}
	copy(stored[offset:], data)
	d.record("buffer subdata %d at %d len %d", id, offset, len(data))
	return nil
}

// DestroyBuffer implements glshim.Driver.
func (d *Driver) DestroyBuffer(id uint32) {
	delete(d.buffers, id)
	d.record("buffer destroy %d", id)
}

// BufferContents returns the recorded contents of a buffer.
func (d *Driver) BufferContents(id uint32) []byte { return d.buffers[id] }

// CreateTexture implements glshim.Driver.
func (d *Driver) CreateTexture(id uint32, desc glshim.TextureDesc) error {
	d.textures[id] = desc
	d.record("texture create %d %dx%d", id, desc.Width, desc.Height)
	return nil
}

// TextureData implements glshim.Driver.
func (d *Driver) TextureData(id uint32, level, layer int, data []byte) error {
	if _, ok := d.textures[id]; !ok {
		return fmt.Errorf("noop: texture %d not created", id)
	}
	d.record("texture data %d level %d layer %d len %d", id, level, layer, len(data))
	return nil
}

// SetSamplerState implements glshim.Driver.
func (d *Driver) SetSamplerState(id uint32, params glshim.SamplerParams) error {
	d.record("sampler %d min %d mag %d wrap %d/%d", id, params.MinFilter, params.MagFilter, params.WrapS, params.WrapT)
	return nil
}

// DestroyTexture implements glshim.Driver.
func (d *Driver) DestroyTexture(id uint32) {
	delete(d.textures, id)
	d.record("texture destroy %d", id)
}

// CreateRenderbuffer implements glshim.Driver.
func (d *Driver) CreateRenderbuffer(id uint32, format glshim.RenderbufferFormat, width, height int) error {
	d.renderbuffers[id] = struct{}{}
	d.record("renderbuffer create %d %dx%d", id, width, height)
	return nil
}

// DestroyRenderbuffer implements glshim.Driver.
func (d *Driver) DestroyRenderbuffer(id uint32) {
	delete(d.renderbuffers, id)
	d.record("renderbuffer destroy %d", id)
}

// LoadShaderBinary implements glshim.Driver.
func (d *Driver) LoadShaderBinary(id uint32, stage glshim.ShaderType, binary []byte) error {
	if len(binary)%256 != 0 {
		return fmt.Errorf("noop: shader binary length %d not 256-byte aligned", len(binary))
	}
	d.shaders[id] = append([]byte(nil), binary...)
	d.record("shader load %d len %d", id, len(binary))
	return nil
}

// DestroyShader implements glshim.Driver.
func (d *Driver) DestroyShader(id uint32) {
	delete(d.shaders, id)
	d.record("shader destroy %d", id)
}

// LinkProgram implements glshim.Driver.
func (d *Driver) LinkProgram(id uint32, vertexShader, fragmentShader uint32, layout *glshim.ProgramLayout) error {
	if _, ok := d.shaders[vertexShader]; !ok {
		return fmt.Errorf("noop: vertex shader %d not loaded", vertexShader)
	}
	if _, ok := d.shaders[fragmentShader]; !ok {
		return fmt.Errorf("noop: fragment shader %d not loaded", fragmentShader)
	}
	d.programs[id] = layout
	d.record("program link %d", id)
	return nil
}

// DestroyProgram implements glshim.Driver.
func (d *Driver) DestroyProgram(id uint32) {
	delete(d.programs, id)
	d.record("program destroy %d", id)
}

// ProgramLayout returns the layout recorded at link time.
func (d *Driver) ProgramLayout(id uint32) *glshim.ProgramLayout { return d.programs[id] }

// BindFramebuffer implements glshim.Driver.
func (d *Driver) BindFramebuffer(binding *glshim.FramebufferBinding) error {
	d.target = binding
	if binding == nil {
		d.record("bind default framebuffer")
	} else {
		d.record("bind framebuffer %dx%d", binding.Width, binding.Height)
	}
	return nil
}

// ApplyBlend implements glshim.Driver.
func (d *Driver) ApplyBlend(s glshim.BlendState) { d.record("apply blend enabled %t", s.Enabled) }

// ApplyDepthStencil implements glshim.Driver.
func (d *Driver) ApplyDepthStencil(s glshim.DepthStencilState) {
	d.record("apply depthstencil depth %t stencil %t", s.DepthTest, s.StencilTest)
}

// ApplyRaster implements glshim.Driver.
func (d *Driver) ApplyRaster(s glshim.RasterState) { d.record("apply raster cull %t", s.CullEnabled) }

// ApplyColorMask implements glshim.Driver.
func (d *Driver) ApplyColorMask(s glshim.ColorMaskState) {
	d.record("apply colormask %t%t%t%t", s.R, s.G, s.B, s.A)
}

// ApplyViewport implements glshim.Driver.
func (d *Driver) ApplyViewport(s glshim.ViewportState) {
	d.record("apply viewport %d,%d %dx%d", s.X, s.Y, s.Width, s.Height)
}

// ApplyScissor implements glshim.Driver.
func (d *Driver) ApplyScissor(s glshim.ScissorState) {
	d.record("apply scissor %d,%d %dx%d", s.X, s.Y, s.Width, s.Height)
}

// AllocUniform implements glshim.Driver. Offsets advance monotonically
// within the region cycle; nothing is ever overwritten in place.
func (d *Driver) AllocUniform(data []byte) (uint32, error) {
	aligned := (uint32(len(data)) + 255) &^ 255
	if d.uniformOffset+aligned > uniformRegionSize {
		return 0, ErrRegionFull
	}
	offset := d.uniformOffset
	d.uniformOffset += aligned
	d.record("uniform alloc %d at %d", len(data), offset)
	return offset, nil
}

// AllocVertexData implements glshim.Driver.
func (d *Driver) AllocVertexData(data []byte) (uint32, error) {
	aligned := (uint32(len(data)) + 255) &^ 255
	if d.vertexOffset+aligned > vertexRegionSize {
		return 0, ErrRegionFull
	}
	offset := d.vertexOffset
	d.vertexOffset += aligned
	d.record("vertex alloc %d at %d", len(data), offset)
	return offset, nil
}

// BeginFrame implements glshim.Driver.
func (d *Driver) BeginFrame() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.frameOpen = true
	d.drawsInFrame = 0
	d.record("begin frame")
	return nil
}

// Clear implements glshim.Driver.
func (d *Driver) Clear(mask glshim.ClearMask, color [4]float32, depth float32, stencil int32) error {
	if !d.frameOpen {
		return fmt.Errorf("noop: clear outside frame")
	}
	if mask&glshim.ColorBufferBit != 0 {
		d.clearColor = color
	}
	d.drawsInFrame++
	d.record("clear mask %d", mask)
	return nil
}

// Draw implements glshim.Driver.
func (d *Driver) Draw(cmd *glshim.DrawCommand) error {
	if !d.frameOpen {
		return fmt.Errorf("noop: draw outside frame")
	}
	d.drawsInFrame++
	d.Draws = append(d.Draws, copyDrawCommand(cmd))
	d.record("draw mode %d count %d", cmd.Mode, cmd.Count)
	return nil
}

// EndFrame implements glshim.Driver.
func (d *Driver) EndFrame() error {
	if !d.frameOpen {
		return fmt.Errorf("noop: end frame without begin")
	}
	d.frameOpen = false
	d.record("end frame")
	return nil
}

// Present implements glshim.Driver. Presentation is skipped when the frame
// recorded no work; the previous image stays visible.
func (d *Driver) Present() error {
	if d.drawsInFrame == 0 {
		d.skippedPresents++
		d.record("present skipped")
		return nil
	}
	d.presentedFrames++
	// The staging regions recycle once the frame's work is retired.
	d.uniformOffset = 0
	d.vertexOffset = 0
	d.record("present")
	return nil
}

// Finish implements glshim.Driver.
func (d *Driver) Finish() error {
	d.record("finish")
	return nil
}

// ReadPixels implements glshim.Driver. The whole target reads back as the
// last clear color.
func (d *Driver) ReadPixels(x, y, width, height int, dst []byte) error {
	px := [4]byte{
		floatByte(d.clearColor[0]),
		floatByte(d.clearColor[1]),
		floatByte(d.clearColor[2]),
		floatByte(d.clearColor[3]),
	}
	for i := 0; i+4 <= len(dst); i += 4 {
		copy(dst[i:], px[:])
	}
	d.record("read pixels %d,%d %dx%d", x, y, width, height)
	return nil
}

// PresentedFrames returns how many frames actually reached the display.
func (d *Driver) PresentedFrames() int { return d.presentedFrames }

// SkippedPresents returns how many presents were elided for empty frames.
func (d *Driver) SkippedPresents() int { return d.skippedPresents }

func floatByte(f float32) byte {
	v := int(f*255 + 0.5)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}

// copyDrawCommand deep-copies the slices so later context mutations cannot
// alter the recorded command.
func copyDrawCommand(cmd *glshim.DrawCommand) glshim.DrawCommand {
	out := *cmd
	out.Attribs = append([]glshim.AttribBinding(nil), cmd.Attribs...)
	out.Textures = append([]glshim.TextureBinding(nil), cmd.Textures...)
	out.Uniforms = append([]glshim.UniformSegment(nil), cmd.Uniforms...)
	out.Blocks = make([]glshim.BlockPush, len(cmd.Blocks))
	for i, b := range cmd.Blocks {
		b.Data = append([]byte(nil), b.Data...)
		out.Blocks[i] = b
	}
	return out
}
