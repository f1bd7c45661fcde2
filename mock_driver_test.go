package glshim

import "testing"

// mockDriver is an in-package recording Driver for Context tests. The
// backend/noop driver cannot serve here because its package imports glshim.
// Region offsets advance monotonically and are never handed out twice, so
// the fresh-offset guarantees of the uniform and staging paths are
// observable from the recorded commands.
type mockDriver struct {
	initErr error
	closed  bool

	buffers       map[uint32][]byte
	textures      map[uint32]TextureDesc
	texUploads    []mockTexUpload
	samplers      map[uint32]SamplerParams
	renderbuffers map[uint32]mockStorage
	shaders       map[uint32][]byte
	programs      map[uint32]ProgramLayout

	// bindings records every BindFramebuffer call; nil entries are
	// default-framebuffer binds.
	bindings []*FramebufferBinding

	blend        BlendState
	depthStencil DepthStencilState
	raster       RasterState
	colorMask    ColorMaskState
	viewport     ViewportState
	scissor      ScissorState
	applies      map[string]int

	uniformNext uint32
	vertexNext  uint32
	allocErr    error

	compressed []CompressedFormat

	frameOpen bool
	frames    int
	ends      int
	presents  int
	finishes  int

	clears []mockClear
	draws  []DrawCommand

	pixel [4]byte
}

type mockTexUpload struct {
	id    uint32
	level int
	layer int
	data  []byte
}

type mockStorage struct {
	format RenderbufferFormat
	width  int
	height int
}

type mockClear struct {
	mask    ClearMask
	color   [4]float32
	depth   float32
	stencil int32
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		buffers:       make(map[uint32][]byte),
		textures:      make(map[uint32]TextureDesc),
		samplers:      make(map[uint32]SamplerParams),
		renderbuffers: make(map[uint32]mockStorage),
		shaders:       make(map[uint32][]byte),
		programs:      make(map[uint32]ProgramLayout),
		applies:       make(map[string]int),
		compressed:    SupportedCompressedFormats(),
		pixel:         [4]byte{10, 20, 30, 40},
	}
}

func (d *mockDriver) Name() string { return "mock" }

func (d *mockDriver) Init() error { return d.initErr }

func (d *mockDriver) Close() { d.closed = true }

func (d *mockDriver) Caps() Caps {
	return Caps{
		MaxTextureSize:    4096,
		MaxVertexAttribs:  16,
		MaxTextureUnits:   8,
		CompressedFormats: d.compressed,
	}
}

func (d *mockDriver) CreateBuffer(id uint32) error {
	d.buffers[id] = nil
	return nil
}

func (d *mockDriver) BufferData(id uint32, data []byte, usage BufferUsage) error {
	d.buffers[id] = append([]byte(nil), data...)
	return nil
}

func (d *mockDriver) BufferSubData(id uint32, offset int, data []byte) error {
	copy(d.buffers[id][offset:], data)
	return nil
}

func (d *mockDriver) DestroyBuffer(id uint32) { delete(d.buffers, id) }

func (d *mockDriver) CreateTexture(id uint32, desc TextureDesc) error {
	d.textures[id] = desc
	return nil
}

func (d *mockDriver) TextureData(id uint32, level, layer int, data []byte) error {
	d.texUploads = append(d.texUploads, mockTexUpload{
		id: id, level: level, layer: layer, data: append([]byte(nil), data...),
	})
	return nil
}

func (d *mockDriver) SetSamplerState(id uint32, params SamplerParams) error {
	d.samplers[id] = params
	return nil
}

func (d *mockDriver) DestroyTexture(id uint32) { delete(d.textures, id) }

func (d *mockDriver) CreateRenderbuffer(id uint32, format RenderbufferFormat, width, height int) error {
	d.renderbuffers[id] = mockStorage{format: format, width: width, height: height}
	return nil
}

func (d *mockDriver) DestroyRenderbuffer(id uint32) { delete(d.renderbuffers, id) }

func (d *mockDriver) LoadShaderBinary(id uint32, stage ShaderType, binary []byte) error {
	d.shaders[id] = append([]byte(nil), binary...)
	return nil
}

func (d *mockDriver) DestroyShader(id uint32) { delete(d.shaders, id) }

func (d *mockDriver) LinkProgram(id uint32, vertexShader, fragmentShader uint32, layout *ProgramLayout) error {
	d.programs[id] = *layout
	return nil
}

func (d *mockDriver) DestroyProgram(id uint32) { delete(d.programs, id) }

func (d *mockDriver) BindFramebuffer(binding *FramebufferBinding) error {
	if binding != nil {
		cp := *binding
		binding = &cp
	}
	d.bindings = append(d.bindings, binding)
	return nil
}

func (d *mockDriver) ApplyBlend(s BlendState) {
	d.blend = s
	d.applies["blend"]++
}

func (d *mockDriver) ApplyDepthStencil(s DepthStencilState) {
	d.depthStencil = s
	d.applies["depthStencil"]++
}

func (d *mockDriver) ApplyRaster(s RasterState) {
	d.raster = s
	d.applies["raster"]++
}

func (d *mockDriver) ApplyColorMask(s ColorMaskState) {
	d.colorMask = s
	d.applies["colorMask"]++
}

func (d *mockDriver) ApplyViewport(s ViewportState) {
	d.viewport = s
	d.applies["viewport"]++
}

func (d *mockDriver) ApplyScissor(s ScissorState) {
	d.scissor = s
	d.applies["scissor"]++
}

func (d *mockDriver) AllocUniform(data []byte) (uint32, error) {
	if d.allocErr != nil {
		return 0, d.allocErr
	}
	offset := d.uniformNext
	d.uniformNext += uint32((len(data) + 255) &^ 255)
	if len(data) == 0 {
		d.uniformNext += 256
	}
	return offset, nil
}

func (d *mockDriver) AllocVertexData(data []byte) (uint32, error) {
	if d.allocErr != nil {
		return 0, d.allocErr
	}
	offset := d.vertexNext
	d.vertexNext += uint32((len(data) + 15) &^ 15)
	if len(data) == 0 {
		d.vertexNext += 16
	}
	return offset, nil
}

func (d *mockDriver) BeginFrame() error {
	d.frameOpen = true
	d.frames++
	return nil
}

func (d *mockDriver) Clear(mask ClearMask, color [4]float32, depth float32, stencil int32) error {
	d.clears = append(d.clears, mockClear{mask: mask, color: color, depth: depth, stencil: stencil})
	return nil
}

// Draw deep-copies the command: the Context may reuse backing storage, and
// tests assert against what the driver saw at call time.
func (d *mockDriver) Draw(cmd *DrawCommand) error {
	cp := *cmd
	cp.Attribs = append([]AttribBinding(nil), cmd.Attribs...)
	cp.Textures = append([]TextureBinding(nil), cmd.Textures...)
	cp.Uniforms = append([]UniformSegment(nil), cmd.Uniforms...)
	cp.Blocks = make([]BlockPush, len(cmd.Blocks))
	for i, b := range cmd.Blocks {
		cp.Blocks[i] = BlockPush{Stage: b.Stage, Binding: b.Binding, Data: append([]byte(nil), b.Data...)}
	}
	d.draws = append(d.draws, cp)
	return nil
}

func (d *mockDriver) EndFrame() error {
	d.frameOpen = false
	d.ends++
	return nil
}

func (d *mockDriver) Present() error {
	d.presents++
	return nil
}

func (d *mockDriver) Finish() error {
	d.finishes++
	return nil
}

func (d *mockDriver) ReadPixels(x, y, width, height int, dst []byte) error {
	for i := 0; i+4 <= len(dst); i += 4 {
		copy(dst[i:], d.pixel[:])
	}
	return nil
}

// newTestContext builds a Context over a fresh mock driver with a small
// default target.
func newTestContext(t *testing.T) (*Context, *mockDriver) {
	t.Helper()
	drv := newMockDriver()
	c, err := NewContext(drv, Config{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return c, drv
}

// linkTestProgram links a program through the precompiled-binary path so no
// translator or compiler is needed.
func linkTestProgram(t *testing.T, c *Context) uint32 {
	t.Helper()
	vs := c.CreateShader(VertexShader)
	fs := c.CreateShader(FragmentShader)
	c.ShaderBinary(vs, []byte{1, 2, 3, 4})
	c.ShaderBinary(fs, []byte{5, 6, 7, 8})
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)
	if !c.GetProgramLinkStatus(prog) {
		t.Fatalf("link failed: %s", c.GetProgramInfoLog(prog))
	}
	c.UseProgram(prog)
	return prog
}
