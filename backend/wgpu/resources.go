package wgpu

import (
	"fmt"

	"github.com/gogpu/glshim"
	"github.com/gogpu/glshim/shaderbin"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// bufferRes is one GL buffer object. The native buffer is allocated lazily
// at the first BufferData, since GL names carry no size at creation.
type bufferRes struct {
	buf  hal.Buffer
	size int
}

// textureRes is one GL texture or renderbuffer object. Every uploadable
// format lands in RGBA8; the upload path expands narrower source formats.
type textureRes struct {
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	width     int
	height    int
	levels    int
	layers    int
	glFormat  glshim.TextureFormat
	halFormat gputypes.TextureFormat
	isDepth   bool
}

// CreateBuffer implements glshim.Driver.
func (d *Driver) CreateBuffer(id uint32) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	d.buffers[id] = &bufferRes{}
	return nil
}

// BufferData implements glshim.Driver. A full respecification orphans the
// old native buffer so in-flight draws keep their data.
func (d *Driver) BufferData(id uint32, data []byte, usage glshim.BufferUsage) error {
	res, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown buffer %d", id)
	}
	if res.buf != nil {
		d.device.DestroyBuffer(res.buf)
		res.buf = nil
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("glshim_buffer_%d", id),
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create buffer %d: %w", id, err)
	}
	res.buf = buf
	res.size = len(data)
	if len(data) > 0 {
		d.queue.WriteBuffer(buf, 0, data)
	}
	return nil
}

// BufferSubData implements glshim.Driver.
func (d *Driver) BufferSubData(id uint32, offset int, data []byte) error {
	res, ok := d.buffers[id]
	if !ok || res.buf == nil {
		return fmt.Errorf("wgpu: buffer %d has no storage", id)
	}
	d.queue.WriteBuffer(res.buf, uint64(offset), data)
	return nil
}

// DestroyBuffer implements glshim.Driver.
func (d *Driver) DestroyBuffer(id uint32) {
	res, ok := d.buffers[id]
	if !ok {
		return
	}
	if res.buf != nil {
		d.device.DestroyBuffer(res.buf)
	}
	delete(d.buffers, id)
}

// CreateTexture implements glshim.Driver.
func (d *Driver) CreateTexture(id uint32, desc glshim.TextureDesc) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if desc.Compressed != 0 {
		return fmt.Errorf("wgpu: compressed format %d not supported", desc.Compressed)
	}
	if old, ok := d.textures[id]; ok {
		d.releaseTexture(old)
		delete(d.textures, id)
	}

	levels := desc.Levels
	if levels < 1 {
		levels = 1
	}
	layers := 1
	viewDim := gputypes.TextureViewDimension2D
	if desc.Target == glshim.TextureCubeMap {
		layers = 6
		viewDim = gputypes.TextureViewDimensionCube
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("glshim_texture_%d", id),
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: uint32(layers)},
		MipLevelCount: uint32(levels),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create texture %d: %w", id, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("glshim_texture_%d_view", id),
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     viewDim,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: uint32(levels),
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create texture view %d: %w", id, err)
	}
	res := &textureRes{
		tex:       tex,
		view:      view,
		width:     desc.Width,
		height:    desc.Height,
		levels:    levels,
		layers:    layers,
		glFormat:  desc.Format,
		halFormat: gputypes.TextureFormatRGBA8Unorm,
	}
	if err := d.setSampler(res, id, glshim.SamplerParams{
		MinFilter: glshim.FilterLinear,
		MagFilter: glshim.FilterLinear,
	}); err != nil {
		d.releaseTexture(res)
		return err
	}
	d.textures[id] = res
	return nil
}

// TextureData implements glshim.Driver. Source rows arrive tightly packed
// in the GL client format and are expanded to RGBA before upload.
func (d *Driver) TextureData(id uint32, level, layer int, data []byte) error {
	res, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown texture %d", id)
	}
	w := res.width >> level
	h := res.height >> level
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	rgba := expandRGBA(res.glFormat, data)
	if len(rgba) < w*h*4 {
		return fmt.Errorf("wgpu: texture %d level %d: short upload (%d of %d bytes)", id, level, len(rgba), w*h*4)
	}
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  res.tex,
			MipLevel: uint32(level),
			Origin:   hal.Origin3D{Z: uint32(layer)},
			Aspect:   gputypes.TextureAspectAll,
		},
		rgba,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * 4),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	return nil
}

// SetSamplerState implements glshim.Driver.
func (d *Driver) SetSamplerState(id uint32, params glshim.SamplerParams) error {
	res, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: unknown texture %d", id)
	}
	return d.setSampler(res, id, params)
}

func (d *Driver) setSampler(res *textureRes, id uint32, params glshim.SamplerParams) error {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("glshim_sampler_%d", id),
		AddressModeU: addressModeFor(params.WrapS),
		AddressModeV: addressModeFor(params.WrapT),
		AddressModeW: addressModeFor(params.WrapT),
		MagFilter:    filterFor(params.MagFilter),
		MinFilter:    filterFor(params.MinFilter),
		MipmapFilter: filterFor(params.MinFilter),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create sampler %d: %w", id, err)
	}
	if res.sampler != nil {
		d.device.DestroySampler(res.sampler)
	}
	res.sampler = sampler
	return nil
}

// DestroyTexture implements glshim.Driver.
func (d *Driver) DestroyTexture(id uint32) {
	if res, ok := d.textures[id]; ok {
		d.releaseTexture(res)
		delete(d.textures, id)
	}
}

func (d *Driver) releaseTexture(res *textureRes) {
	if res.sampler != nil {
		d.device.DestroySampler(res.sampler)
	}
	if res.view != nil {
		d.device.DestroyTextureView(res.view)
	}
	if res.tex != nil {
		d.device.DestroyTexture(res.tex)
	}
}

// CreateRenderbuffer implements glshim.Driver. Color storage lands in
// RGBA8; every depth or stencil format shares the combined depth/stencil
// target format.
func (d *Driver) CreateRenderbuffer(id uint32, format glshim.RenderbufferFormat, width, height int) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if old, ok := d.renderbuffers[id]; ok {
		d.releaseTexture(old)
		delete(d.renderbuffers, id)
	}

	halFormat := gputypes.TextureFormatRGBA8Unorm
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
	isDepth := format != glshim.RenderbufferRGBA8
	if isDepth {
		halFormat = gputypes.TextureFormatDepth24PlusStencil8
		usage = gputypes.TextureUsageRenderAttachment
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("glshim_renderbuffer_%d", id),
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        halFormat,
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create renderbuffer %d: %w", id, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("glshim_renderbuffer_%d_view", id),
		Format:        halFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create renderbuffer view %d: %w", id, err)
	}
	d.renderbuffers[id] = &textureRes{
		tex:       tex,
		view:      view,
		width:     width,
		height:    height,
		levels:    1,
		layers:    1,
		halFormat: halFormat,
		isDepth:   isDepth,
	}
	return nil
}

// DestroyRenderbuffer implements glshim.Driver.
func (d *Driver) DestroyRenderbuffer(id uint32) {
	if res, ok := d.renderbuffers[id]; ok {
		d.releaseTexture(res)
		delete(d.renderbuffers, id)
	}
}

// LoadShaderBinary implements glshim.Driver. The blob is alignment-padded
// SPIR-V; the zero-filled tail is trimmed back off before module creation.
func (d *Driver) LoadShaderBinary(id uint32, stage glshim.ShaderType, binary []byte) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if len(binary) == 0 || len(binary)%4 != 0 {
		return fmt.Errorf("wgpu: shader %d: bad binary length %d", id, len(binary))
	}
	words := shaderbin.Words(binary)
	for len(words) > 0 && words[len(words)-1] == 0 {
		words = words[:len(words)-1]
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("glshim_shader_%d", id),
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module %d: %w", id, err)
	}
	if old, ok := d.shaders[id]; ok {
		d.device.DestroyShaderModule(old)
	}
	d.shaders[id] = module
	return nil
}

// DestroyShader implements glshim.Driver.
func (d *Driver) DestroyShader(id uint32) {
	if mod, ok := d.shaders[id]; ok {
		d.device.DestroyShaderModule(mod)
		delete(d.shaders, id)
	}
}

// BindFramebuffer implements glshim.Driver. Switching targets ends any
// open pass; the next clear or draw begins one on the new attachments.
func (d *Driver) BindFramebuffer(binding *glshim.FramebufferBinding) error {
	d.endPass()
	if binding == nil {
		d.state.fbColor = nil
		d.state.fbColorTex = nil
		d.state.fbColorFormat = 0
		d.state.fbDepth = nil
		d.state.fbWidth = 0
		d.state.fbHeight = 0
		return nil
	}

	color := d.attachmentView(binding.Color)
	if color == nil {
		return fmt.Errorf("wgpu: framebuffer color attachment missing")
	}
	depth := d.attachmentView(binding.Depth)
	if depth == nil {
		depth = d.attachmentView(binding.Stencil)
	}
	d.state.fbColor = color.view
	d.state.fbColorTex = color.tex
	d.state.fbColorFormat = color.halFormat
	if depth != nil {
		d.state.fbDepth = depth.view
	} else {
		d.state.fbDepth = nil
	}
	d.state.fbWidth = uint32(binding.Width)
	d.state.fbHeight = uint32(binding.Height)
	return nil
}

func (d *Driver) attachmentView(ref glshim.AttachmentRef) *textureRes {
	if ref.Texture != 0 {
		return d.textures[ref.Texture]
	}
	if ref.Renderbuffer != 0 {
		return d.renderbuffers[ref.Renderbuffer]
	}
	return nil
}

// expandRGBA widens tightly packed source pixels to RGBA8. RGBA input is
// returned as-is.
func expandRGBA(format glshim.TextureFormat, data []byte) []byte {
	switch format {
	case glshim.FormatRGB:
		n := len(data) / 3
		out := make([]byte, n*4)
		for i := 0; i < n; i++ {
			out[i*4+0] = data[i*3+0]
			out[i*4+1] = data[i*3+1]
			out[i*4+2] = data[i*3+2]
			out[i*4+3] = 0xFF
		}
		return out
	case glshim.FormatLuminance:
		out := make([]byte, len(data)*4)
		for i, v := range data {
			out[i*4+0] = v
			out[i*4+1] = v
			out[i*4+2] = v
			out[i*4+3] = 0xFF
		}
		return out
	case glshim.FormatAlpha:
		out := make([]byte, len(data)*4)
		for i, v := range data {
			out[i*4+3] = v
		}
		return out
	case glshim.FormatLuminanceAlpha:
		n := len(data) / 2
		out := make([]byte, n*4)
		for i := 0; i < n; i++ {
			l, a := data[i*2], data[i*2+1]
			out[i*4+0] = l
			out[i*4+1] = l
			out[i*4+2] = l
			out[i*4+3] = a
		}
		return out
	default:
		return data
	}
}
