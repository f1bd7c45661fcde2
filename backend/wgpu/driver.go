// Package wgpu implements the GPU driver on the explicit wgpu HAL device
// API: manual command-buffer recording per swapchain slot, fenced triple
// buffering, bump-allocated uniform and vertex staging regions, and a
// pipeline cache keyed by program and render state.
package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/glshim"
	"github.com/gogpu/glshim/backend"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func init() {
	backend.Register(backend.DriverWGPU, func() glshim.Driver {
		return New(Options{})
	})
}

// Driver errors.
var (
	ErrNoAdapter      = errors.New("wgpu: no GPU adapters found")
	ErrNotInitialized = errors.New("wgpu: not initialized")
	ErrRegionFull     = errors.New("wgpu: memory region exhausted")
	ErrBadProvider    = errors.New("wgpu: provider does not expose HAL types")
	ErrNilProvider    = errors.New("wgpu: device provider is nil")
)

// frameSlots is the number of frames that may be in flight.
const frameSlots = 3

// Region sizes. Each frame slot owns one partition of each region, so a
// frame still executing on the GPU never shares bytes with the frame being
// recorded.
const (
	uniformRegionSize = 4 << 20
	vertexRegionSize  = 4 << 20
	uniformSlotSize   = uniformRegionSize / frameSlots
	vertexSlotSize    = vertexRegionSize / frameSlots
)

// minUniformAlign is the dynamic-offset alignment uniform allocations
// honor.
const minUniformAlign = 256

// Options configure the driver.
type Options struct {
	// Width and Height size the offscreen render target.
	Width  int
	Height int

	// Provider shares an existing device instead of opening one. It must
	// expose HalDevice() any and HalQueue() any returning hal.Device and
	// hal.Queue (the gpucontext.DeviceProvider contract).
	Provider any

	// Backend selects the HAL backend. Zero means Vulkan.
	Backend gputypes.Backend
}

// Driver is the wgpu implementation of glshim.Driver.
type Driver struct {
	opts Options

	instance       hal.Instance
	device         hal.Device
	queue          hal.Queue
	externalDevice bool
	initialized    bool

	width  uint32
	height uint32

	// Offscreen render target shared by all slots.
	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView

	slots          [frameSlots]frameSlot
	slotIndex      int
	frame          *frameState
	lastFrameEmpty bool

	uniformBuf hal.Buffer
	vertexBuf  hal.Buffer

	buffers       map[uint32]*bufferRes
	textures      map[uint32]*textureRes
	renderbuffers map[uint32]*textureRes
	shaders       map[uint32]hal.ShaderModule
	programs      map[uint32]*programRes

	state renderState

	logPtr atomic.Pointer[slog.Logger]
}

// New creates an unstarted driver.
func New(opts Options) *Driver {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	d := &Driver{
		opts:          opts,
		width:         uint32(opts.Width),
		height:        uint32(opts.Height),
		buffers:       make(map[uint32]*bufferRes),
		textures:      make(map[uint32]*textureRes),
		renderbuffers: make(map[uint32]*textureRes),
		shaders:       make(map[uint32]hal.ShaderModule),
		programs:      make(map[uint32]*programRes),
	}
	d.logPtr.Store(glshim.Logger())
	return d
}

// NewShared creates a driver over a host application's GPU device instead
// of opening its own. The provider comes from the windowing layer (for
// example gogpu.App.GPUContextProvider) and must also expose the HAL
// device and queue through HalDevice and HalQueue.
func NewShared(provider gpucontext.DeviceProvider, opts Options) (*Driver, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if _, ok := provider.(halProvider); !ok {
		return nil, ErrBadProvider
	}
	opts.Provider = provider
	return New(opts), nil
}

// SetLogger updates the driver's logger; glshim.SetLogger propagates here.
func (d *Driver) SetLogger(l *slog.Logger) {
	if l == nil {
		l = glshim.Logger()
	}
	d.logPtr.Store(l)
}

func (d *Driver) log() *slog.Logger { return d.logPtr.Load() }

// Name implements glshim.Driver.
func (d *Driver) Name() string { return backend.DriverWGPU }

// Init implements glshim.Driver. With a provider the device is shared;
// otherwise an instance is created and the best adapter opened.
func (d *Driver) Init() error {
	if d.initialized {
		return nil
	}
	if d.opts.Provider != nil {
		if err := d.adoptProvider(d.opts.Provider); err != nil {
			return err
		}
	} else if err := d.openDevice(); err != nil {
		return err
	}

	if err := d.createTargets(); err != nil {
		d.teardownDevice()
		return err
	}
	if err := d.createRegions(); err != nil {
		d.destroyTargets()
		d.teardownDevice()
		return err
	}
	for i := range d.slots {
		fence, err := d.device.CreateFence()
		if err != nil {
			d.Close()
			return fmt.Errorf("wgpu: create fence: %w", err)
		}
		d.slots[i].fence = fence
	}
	d.initialized = true
	d.log().Info("wgpu driver initialized", "width", d.width, "height", d.height,
		"shared", d.externalDevice)
	return nil
}

// halProvider is the shape a shared-device provider must have underneath
// the gpucontext.DeviceProvider surface.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

func (d *Driver) adoptProvider(provider any) error {
	hp, ok := provider.(halProvider)
	if !ok {
		return ErrBadProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("%w: HalDevice is not hal.Device", ErrBadProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("%w: HalQueue is not hal.Queue", ErrBadProvider)
	}
	d.device = device
	d.queue = queue
	d.externalDevice = true
	return nil
}

func (d *Driver) openDevice() error {
	be := d.opts.Backend
	if be == 0 {
		be = gputypes.BackendVulkan
	}
	halBackend, ok := hal.GetBackend(be)
	if !ok {
		return fmt.Errorf("wgpu: backend %v not available", be)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		d.instance = nil
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		d.instance = nil
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.log().Info("wgpu adapter selected", "adapter", selected.Info.Name)
	return nil
}

func (d *Driver) teardownDevice() {
	if !d.externalDevice && d.device != nil {
		d.device.Destroy()
	}
	d.device = nil
	d.queue = nil
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// Close implements glshim.Driver.
func (d *Driver) Close() {
	if d.device == nil {
		return
	}
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id, mod := range d.shaders {
		d.device.DestroyShaderModule(mod)
		delete(d.shaders, id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	for id := range d.renderbuffers {
		d.DestroyRenderbuffer(id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	if d.uniformBuf != nil {
		d.device.DestroyBuffer(d.uniformBuf)
		d.uniformBuf = nil
	}
	if d.vertexBuf != nil {
		d.device.DestroyBuffer(d.vertexBuf)
		d.vertexBuf = nil
	}
	d.destroyTargets()
	for i := range d.slots {
		d.retireSlot(&d.slots[i])
		if d.slots[i].fence != nil {
			d.device.DestroyFence(d.slots[i].fence)
			d.slots[i].fence = nil
		}
	}
	d.teardownDevice()
	d.initialized = false
}

// Caps implements glshim.Driver. Compressed formats are not advertised:
// the shim's fixed table is CPU-side and upload support varies per HAL
// backend, so capability queries report none until a format is verified.
func (d *Driver) Caps() glshim.Caps {
	return glshim.Caps{
		MaxTextureSize:   8192,
		MaxVertexAttribs: 16,
		MaxTextureUnits:  8,
	}
}

func (d *Driver) createTargets() error {
	colorTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glshim_color",
		Size:          hal.Extent3D{Width: d.width, Height: d.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create color target: %w", err)
	}
	colorView, err := d.device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label:         "glshim_color_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(colorTex)
		return fmt.Errorf("wgpu: create color view: %w", err)
	}
	depthTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glshim_depth",
		Size:          hal.Extent3D{Width: d.width, Height: d.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		d.device.DestroyTextureView(colorView)
		d.device.DestroyTexture(colorTex)
		return fmt.Errorf("wgpu: create depth target: %w", err)
	}
	depthView, err := d.device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label:         "glshim_depth_view",
		Format:        gputypes.TextureFormatDepth24PlusStencil8,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(depthTex)
		d.device.DestroyTextureView(colorView)
		d.device.DestroyTexture(colorTex)
		return fmt.Errorf("wgpu: create depth view: %w", err)
	}
	d.colorTex, d.colorView = colorTex, colorView
	d.depthTex, d.depthView = depthTex, depthView
	return nil
}

func (d *Driver) destroyTargets() {
	if d.depthView != nil {
		d.device.DestroyTextureView(d.depthView)
		d.depthView = nil
	}
	if d.depthTex != nil {
		d.device.DestroyTexture(d.depthTex)
		d.depthTex = nil
	}
	if d.colorView != nil {
		d.device.DestroyTextureView(d.colorView)
		d.colorView = nil
	}
	if d.colorTex != nil {
		d.device.DestroyTexture(d.colorTex)
		d.colorTex = nil
	}
}

func (d *Driver) createRegions() error {
	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glshim_uniform_region",
		Size:  uniformRegionSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform region: %w", err)
	}
	vertexBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glshim_vertex_region",
		Size:  vertexRegionSize,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.device.DestroyBuffer(uniformBuf)
		return fmt.Errorf("wgpu: create vertex region: %w", err)
	}
	d.uniformBuf = uniformBuf
	d.vertexBuf = vertexBuf
	return nil
}
