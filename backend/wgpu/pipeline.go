package wgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/glshim"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Descriptor layout contract shared with the shader compiler: bind group 0
// holds vertex-stage resources, group 1 fragment-stage resources. Within a
// group, binding 0 is the stage's packed uniform block, bindings 1..64 are
// the legacy slots (binding = 1 + slot), and sampled textures sit above
// them as view/sampler pairs.
const (
	blockBinding   = 0
	legacyBindBase = 1
	textureBase    = 65
)

// programRes is one linked GL program. Pipelines are built lazily per draw
// because the vertex layout and render state are only known then.
type programRes struct {
	vs     uint32
	fs     uint32
	layout glshim.ProgramLayout

	pipelines map[string]*pipelineEntry
}

type pipelineEntry struct {
	bgls       [2]hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// LinkProgram implements glshim.Driver.
func (d *Driver) LinkProgram(id uint32, vertexShader, fragmentShader uint32, layout *glshim.ProgramLayout) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if _, ok := d.shaders[vertexShader]; !ok {
		return fmt.Errorf("wgpu: program %d: vertex shader %d not loaded", id, vertexShader)
	}
	if _, ok := d.shaders[fragmentShader]; !ok {
		return fmt.Errorf("wgpu: program %d: fragment shader %d not loaded", id, fragmentShader)
	}
	if old, ok := d.programs[id]; ok {
		d.releaseProgram(old)
	}
	res := &programRes{
		vs:        vertexShader,
		fs:        fragmentShader,
		pipelines: make(map[string]*pipelineEntry),
	}
	if layout != nil {
		res.layout = *layout
	}
	d.programs[id] = res
	return nil
}

// DestroyProgram implements glshim.Driver.
func (d *Driver) DestroyProgram(id uint32) {
	if res, ok := d.programs[id]; ok {
		d.releaseProgram(res)
		delete(d.programs, id)
	}
}

func (d *Driver) releaseProgram(res *programRes) {
	for _, e := range res.pipelines {
		if e.pipeline != nil {
			d.device.DestroyRenderPipeline(e.pipeline)
		}
		if e.pipeLayout != nil {
			d.device.DestroyPipelineLayout(e.pipeLayout)
		}
		for _, bgl := range e.bgls {
			if bgl != nil {
				d.device.DestroyBindGroupLayout(bgl)
			}
		}
	}
	res.pipelines = nil
}

// Draw implements glshim.Driver.
func (d *Driver) Draw(cmd *glshim.DrawCommand) error {
	f := d.frame
	if f == nil {
		return fmt.Errorf("wgpu: draw outside frame")
	}
	prog, ok := d.programs[cmd.Program]
	if !ok {
		return fmt.Errorf("wgpu: draw with unknown program %d", cmd.Program)
	}
	var indexFormat gputypes.IndexFormat
	if cmd.Indexed {
		var supported bool
		indexFormat, supported = indexFormatFor(cmd.IndexType)
		if !supported {
			d.log().Warn("8-bit index buffers are not supported, draw dropped",
				"program", cmd.Program)
			return nil
		}
	}

	// Push the configured packed blocks into the uniform region first so
	// the bind groups below can reference the fresh offsets.
	type blockRef struct {
		stage  glshim.ShaderType
		offset uint32
		size   int
	}
	blockRefs := make([]blockRef, 0, len(cmd.Blocks))
	for _, blk := range cmd.Blocks {
		offset, err := d.AllocUniform(blk.Data)
		if err != nil {
			return fmt.Errorf("wgpu: push uniform block: %w", err)
		}
		blockRefs = append(blockRefs, blockRef{stage: blk.Stage, offset: offset, size: len(blk.Data)})
	}

	entry, err := d.pipelineFor(prog, cmd)
	if err != nil {
		return err
	}

	d.ensurePass()
	rp := f.pass
	rp.SetPipeline(entry.pipeline)
	rp.SetBlendConstant(&gputypes.Color{
		R: float64(d.state.blend.Color[0]), G: float64(d.state.blend.Color[1]),
		B: float64(d.state.blend.Color[2]), A: float64(d.state.blend.Color[3]),
	})
	rp.SetStencilReference(uint32(d.state.depthStencil.StencilRef))

	for group, stage := range []glshim.ShaderType{glshim.VertexShader, glshim.FragmentShader} {
		entries := []gputypes.BindGroupEntry{}
		for _, ref := range blockRefs {
			if ref.stage != stage {
				continue
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding: blockBinding,
				Resource: gputypes.BufferBinding{
					Buffer: d.uniformBuf.NativeHandle(),
					Offset: uint64(ref.offset),
					Size:   uint64(ref.size),
				},
			})
		}
		for _, seg := range cmd.Uniforms {
			if seg.Stage != stage {
				continue
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding: uint32(legacyBindBase + seg.Slot),
				Resource: gputypes.BufferBinding{
					Buffer: d.uniformBuf.NativeHandle(),
					Offset: uint64(seg.Offset),
					Size:   uint64(seg.Size),
				},
			})
		}
		for _, tb := range cmd.Textures {
			if tb.Stage != stage {
				continue
			}
			tex, ok := d.textures[tb.Texture]
			if !ok {
				return fmt.Errorf("wgpu: draw references unknown texture %d", tb.Texture)
			}
			entries = append(entries,
				gputypes.BindGroupEntry{
					Binding:  uint32(textureBase + 2*tb.Binding),
					Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()},
				},
				gputypes.BindGroupEntry{
					Binding:  uint32(textureBase + 2*tb.Binding + 1),
					Resource: gputypes.SamplerBinding{Sampler: tex.sampler.NativeHandle()},
				},
			)
		}
		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("glshim_draw_bg%d", group),
			Layout:  entry.bgls[group],
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create bind group: %w", err)
		}
		f.slot.retired = append(f.slot.retired, bg)
		rp.SetBindGroup(uint32(group), bg, nil)
	}

	for slot, ab := range cmd.Attribs {
		buf := d.vertexBuf
		if ab.Buffer != 0 {
			res, ok := d.buffers[ab.Buffer]
			if !ok || res.buf == nil {
				return fmt.Errorf("wgpu: draw references buffer %d with no storage", ab.Buffer)
			}
			buf = res.buf
		}
		rp.SetVertexBuffer(uint32(slot), buf, uint64(ab.Offset))
	}

	if cmd.Indexed {
		indexBuf := d.vertexBuf
		if cmd.IndexBuffer != 0 {
			res, ok := d.buffers[cmd.IndexBuffer]
			if !ok || res.buf == nil {
				return fmt.Errorf("wgpu: draw references index buffer %d with no storage", cmd.IndexBuffer)
			}
			indexBuf = res.buf
		}
		rp.SetIndexBuffer(indexBuf, indexFormat, uint64(cmd.IndexOffset))
		rp.DrawIndexed(uint32(cmd.Count), 1, 0, 0, 0)
	} else {
		rp.Draw(uint32(cmd.Count), 1, uint32(cmd.First), 0)
	}
	f.draws++
	return nil
}

// pipelineFor returns the cached pipeline for the program under the current
// render state and the command's vertex/resource shape, building it on the
// first encounter.
func (d *Driver) pipelineFor(prog *programRes, cmd *glshim.DrawCommand) (*pipelineEntry, error) {
	key := d.pipelineKey(cmd)
	if e, ok := prog.pipelines[key]; ok {
		return e, nil
	}

	entry := &pipelineEntry{}
	for group, stage := range []glshim.ShaderType{glshim.VertexShader, glshim.FragmentShader} {
		vis := gputypes.ShaderStageVertex
		if stage == glshim.FragmentShader {
			vis = gputypes.ShaderStageFragment
		}
		entries := []gputypes.BindGroupLayoutEntry{}
		for _, blk := range cmd.Blocks {
			if blk.Stage == stage {
				entries = append(entries, gputypes.BindGroupLayoutEntry{
					Binding:    blockBinding,
					Visibility: vis,
					Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
				})
			}
		}
		for _, seg := range cmd.Uniforms {
			if seg.Stage == stage {
				entries = append(entries, gputypes.BindGroupLayoutEntry{
					Binding:    uint32(legacyBindBase + seg.Slot),
					Visibility: vis,
					Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
				})
			}
		}
		for _, tb := range cmd.Textures {
			if tb.Stage == stage {
				entries = append(entries,
					gputypes.BindGroupLayoutEntry{
						Binding:    uint32(textureBase + 2*tb.Binding),
						Visibility: vis,
						Texture: &gputypes.TextureBindingLayout{
							SampleType:    gputypes.TextureSampleTypeFloat,
							ViewDimension: gputypes.TextureViewDimension2D,
						},
					},
					gputypes.BindGroupLayoutEntry{
						Binding:    uint32(textureBase + 2*tb.Binding + 1),
						Visibility: vis,
						Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
					},
				)
			}
		}
		bgl, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("glshim_bgl%d", group),
			Entries: entries,
		})
		if err != nil {
			d.releasePartial(entry)
			return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
		}
		entry.bgls[group] = bgl
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glshim_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{entry.bgls[0], entry.bgls[1]},
	})
	if err != nil {
		d.releasePartial(entry)
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	entry.pipeLayout = pipeLayout

	vertexLayouts := make([]gputypes.VertexBufferLayout, len(cmd.Attribs))
	for i, ab := range cmd.Attribs {
		stride := ab.Stride
		if stride == 0 {
			stride = ab.Size * ab.Type.Size()
		}
		vertexLayouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{{
				Format:         vertexFormatFor(ab.Type, ab.Size, ab.Normalized),
				Offset:         0,
				ShaderLocation: uint32(ab.Location),
			}},
		}
	}

	colorFormat, hasDepth := d.targetFormats()
	target := gputypes.ColorTargetState{
		Format:    colorFormat,
		WriteMask: colorWriteMaskFor(d.state.colorMask),
	}
	if d.state.blend.Enabled {
		b := d.state.blend
		target.Blend = &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: blendFactorFor(b.SrcRGB),
				DstFactor: blendFactorFor(b.DstRGB),
				Operation: blendOpFor(b.EqRGB),
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: blendFactorFor(b.SrcAlpha),
				DstFactor: blendFactorFor(b.DstAlpha),
				Operation: blendOpFor(b.EqAlpha),
			},
		}
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  "glshim_pipeline",
		Layout: entry.pipeLayout,
		Vertex: hal.VertexState{
			Module:     d.shaders[prog.vs],
			EntryPoint: "main",
			Buffers:    vertexLayouts,
		},
		Fragment: &hal.FragmentState{
			Module:     d.shaders[prog.fs],
			EntryPoint: "main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  topologyFor(cmd.Mode),
			CullMode:  cullModeFor(d.state.raster),
			FrontFace: frontFaceFor(d.state.raster.FrontFace),
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	}
	if hasDepth {
		desc.DepthStencil = d.depthStencilFor()
	}

	pipeline, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		d.releasePartial(entry)
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	entry.pipeline = pipeline
	prog.pipelines[key] = entry
	return entry, nil
}

func (d *Driver) releasePartial(entry *pipelineEntry) {
	if entry.pipeLayout != nil {
		d.device.DestroyPipelineLayout(entry.pipeLayout)
	}
	for _, bgl := range entry.bgls {
		if bgl != nil {
			d.device.DestroyBindGroupLayout(bgl)
		}
	}
}

// depthStencilFor converts the cached depth/stencil group. A disabled
// depth test passes everything and writes nothing; a disabled stencil test
// likewise.
func (d *Driver) depthStencilFor() *hal.DepthStencilState {
	s := d.state.depthStencil
	ds := &hal.DepthStencilState{
		Format:            gputypes.TextureFormatDepth24PlusStencil8,
		DepthWriteEnabled: s.DepthTest && s.DepthWrite,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront: hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		},
		StencilReadMask:  s.StencilReadMask,
		StencilWriteMask: s.StencilWriteMask,
	}
	if s.DepthTest {
		ds.DepthCompare = compareFor(s.DepthFunc)
	}
	if s.StencilTest {
		face := hal.StencilFaceState{
			Compare:     compareFor(s.StencilFunc),
			FailOp:      stencilOpFor(s.StencilFail),
			DepthFailOp: stencilOpFor(s.StencilDepthFail),
			PassOp:      stencilOpFor(s.StencilPass),
		}
		ds.StencilFront = face
	}
	ds.StencilBack = ds.StencilFront
	return ds
}

// pipelineKey folds everything that shapes a pipeline into a cache key:
// render state, topology, target formats, vertex layout, and the bind
// group shape of the command.
func (d *Driver) pipelineKey(cmd *glshim.DrawCommand) string {
	var b strings.Builder
	s := &d.state
	colorFormat, hasDepth := d.targetFormats()
	fmt.Fprintf(&b, "m%d|t%d.%v|", cmd.Mode, colorFormat, hasDepth)
	if s.blend.Enabled {
		fmt.Fprintf(&b, "b%d.%d.%d.%d.%d.%d|",
			s.blend.SrcRGB, s.blend.DstRGB, s.blend.SrcAlpha, s.blend.DstAlpha,
			s.blend.EqRGB, s.blend.EqAlpha)
	}
	ds := s.depthStencil
	fmt.Fprintf(&b, "d%v.%v.%d|", ds.DepthTest, ds.DepthWrite, ds.DepthFunc)
	if ds.StencilTest {
		fmt.Fprintf(&b, "s%d.%d.%d.%d.%x.%x|",
			ds.StencilFunc, ds.StencilFail, ds.StencilDepthFail, ds.StencilPass,
			ds.StencilReadMask, ds.StencilWriteMask)
	}
	fmt.Fprintf(&b, "r%v.%d.%d|c%v%v%v%v|",
		s.raster.CullEnabled, s.raster.CullMode, s.raster.FrontFace,
		s.colorMask.R, s.colorMask.G, s.colorMask.B, s.colorMask.A)
	for _, ab := range cmd.Attribs {
		fmt.Fprintf(&b, "a%d.%d.%d.%v.%d|", ab.Location, ab.Size, ab.Type, ab.Normalized, ab.Stride)
	}
	for _, blk := range cmd.Blocks {
		fmt.Fprintf(&b, "u%d|", blk.Stage)
	}
	for _, seg := range cmd.Uniforms {
		fmt.Fprintf(&b, "l%d.%d|", seg.Stage, seg.Slot)
	}
	for _, tb := range cmd.Textures {
		fmt.Fprintf(&b, "x%d.%d|", tb.Stage, tb.Binding)
	}
	return b.String()
}
