package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/glshim"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fenceWaitTimeout bounds the wait on a slot's previous submission.
const fenceWaitTimeout = 5 * time.Second

// frameSlot is one of the rotating command-buffer slots. A slot is in
// flight from submission until its fence reaches the submitted value; the
// fence must be waited before the slot's regions and command buffer are
// reused.
type frameSlot struct {
	fence      hal.Fence
	fenceValue uint64
	inFlight   bool

	// retired holds bind groups referenced by the slot's last submission;
	// they are destroyed once the fence confirms the GPU is done with them.
	retired []hal.BindGroup
}

// frameState is the recording state of the currently open frame.
type frameState struct {
	encoder  hal.CommandEncoder
	pass     hal.RenderPassEncoder
	passOpen bool

	slot *frameSlot

	uniformBase   uint32
	uniformOffset uint32
	vertexBase    uint32
	vertexOffset  uint32

	draws int
}

// renderState caches the applied GL state groups for pipeline creation and
// dynamic pass state.
type renderState struct {
	blend        glshim.BlendState
	depthStencil glshim.DepthStencilState
	raster       glshim.RasterState
	colorMask    glshim.ColorMaskState
	viewport     glshim.ViewportState
	scissor      glshim.ScissorState

	// Current render target views and size; nil fbColor selects the
	// default offscreen target.
	fbColor       hal.TextureView
	fbColorTex    hal.Texture
	fbColorFormat gputypes.TextureFormat
	fbDepth       hal.TextureView
	fbWidth       uint32
	fbHeight      uint32
}

// targetFormats returns the color format and depth presence of the active
// render target, which key pipeline creation.
func (d *Driver) targetFormats() (color gputypes.TextureFormat, hasDepth bool) {
	if d.state.fbColor != nil {
		return d.state.fbColorFormat, d.state.fbDepth != nil
	}
	return gputypes.TextureFormatBGRA8Unorm, true
}

// target returns the active color/depth views and dimensions.
func (d *Driver) target() (color, depth hal.TextureView, w, h uint32) {
	if d.state.fbColor != nil {
		return d.state.fbColor, d.state.fbDepth, d.state.fbWidth, d.state.fbHeight
	}
	return d.colorView, d.depthView, d.width, d.height
}

// BeginFrame implements glshim.Driver. It waits for the slot's previous
// submission before reusing its command buffer and region partitions.
func (d *Driver) BeginFrame() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if d.frame != nil {
		return fmt.Errorf("wgpu: frame already open")
	}
	slot := &d.slots[d.slotIndex]
	if slot.inFlight {
		ok, err := d.device.Wait(slot.fence, slot.fenceValue, fenceWaitTimeout)
		if err != nil || !ok {
			return fmt.Errorf("wgpu: slot fence wait: ok=%v err=%w", ok, err)
		}
		slot.inFlight = false
	}
	d.retireSlot(slot)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "glshim_frame",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glshim_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	d.frame = &frameState{
		encoder:     encoder,
		slot:        slot,
		uniformBase: uint32(d.slotIndex) * uniformSlotSize,
		vertexBase:  uint32(d.slotIndex) * vertexSlotSize,
	}
	return nil
}

// Clear implements glshim.Driver. A clear ends the open pass and begins a
// new one whose load ops clear the selected buffers.
func (d *Driver) Clear(mask glshim.ClearMask, color [4]float32, depth float32, stencil int32) error {
	f := d.frame
	if f == nil {
		return fmt.Errorf("wgpu: clear outside frame")
	}
	d.endPass()

	colorView, depthView, _, _ := d.target()
	desc := &hal.RenderPassDescriptor{
		Label: "glshim_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    colorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	}
	if mask&glshim.ColorBufferBit != 0 {
		desc.ColorAttachments[0].LoadOp = gputypes.LoadOpClear
		desc.ColorAttachments[0].ClearValue = gputypes.Color{
			R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3]),
		}
	}
	if depthView != nil {
		att := &hal.RenderPassDepthStencilAttachment{
			View:           depthView,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		}
		if mask&glshim.DepthBufferBit != 0 {
			att.DepthLoadOp = gputypes.LoadOpClear
			att.DepthClearValue = depth
		}
		if mask&glshim.StencilBufferBit != 0 {
			att.StencilLoadOp = gputypes.LoadOpClear
			att.StencilClearValue = uint32(stencil)
		}
		desc.DepthStencilAttachment = att
	}

	f.pass = f.encoder.BeginRenderPass(desc)
	f.passOpen = true
	f.draws++
	d.applyPassState()
	return nil
}

// ensurePass opens a load-preserving render pass if none is open.
func (d *Driver) ensurePass() {
	f := d.frame
	if f.passOpen {
		return
	}
	colorView, depthView, _, _ := d.target()
	desc := &hal.RenderPassDescriptor{
		Label: "glshim_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    colorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:           depthView,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		}
	}
	f.pass = f.encoder.BeginRenderPass(desc)
	f.passOpen = true
	d.applyPassState()
}

// endPass closes the open render pass, if any.
func (d *Driver) endPass() {
	f := d.frame
	if f != nil && f.passOpen {
		f.pass.End()
		f.pass = nil
		f.passOpen = false
	}
}

// applyPassState re-establishes the dynamic pass state (viewport and
// scissor) after a pass begins. The viewport rectangle flips from the GL
// bottom-left origin to the target API's top-left origin.
func (d *Driver) applyPassState() {
	f := d.frame
	if f == nil || !f.passOpen {
		return
	}
	_, _, w, h := d.target()
	v := d.state.viewport
	vy := int32(h) - v.Y - v.Height
	f.pass.SetViewport(float32(v.X), float32(vy), float32(v.Width), float32(v.Height), v.Near, v.Far)

	s := d.state.scissor
	if !s.Enabled {
		f.pass.SetScissorRect(0, 0, w, h)
		return
	}
	sy := int32(h) - s.Y - s.Height
	f.pass.SetScissorRect(clampU32(s.X, w), clampU32(sy, h), clampU32(s.Width, w), clampU32(s.Height, h))
}

func clampU32(v int32, max uint32) uint32 {
	if v < 0 {
		return 0
	}
	if uint32(v) > max {
		return max
	}
	return uint32(v)
}

// retireSlot destroys bind groups whose last referencing submission has
// completed.
func (d *Driver) retireSlot(slot *frameSlot) {
	for _, bg := range slot.retired {
		d.device.DestroyBindGroup(bg)
	}
	slot.retired = slot.retired[:0]
}

// EndFrame implements glshim.Driver. It finalizes and submits the slot's
// command buffer, signaling the slot's fence.
func (d *Driver) EndFrame() error {
	f := d.frame
	if f == nil {
		return fmt.Errorf("wgpu: end frame without begin")
	}
	d.endPass()
	d.frame = nil

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if f.draws == 0 {
		// Nothing recorded: skip submission entirely and keep the slot,
		// so the next present continues to show the previous image.
		d.lastFrameEmpty = true
		return nil
	}
	d.lastFrameEmpty = false

	f.slot.fenceValue++
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, f.slot.fence, f.slot.fenceValue); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	f.slot.inFlight = true
	return nil
}

// Present implements glshim.Driver. An empty frame skips presentation and
// slot rotation; the previously presented image remains current.
func (d *Driver) Present() error {
	if d.lastFrameEmpty {
		return nil
	}
	d.slotIndex = (d.slotIndex + 1) % frameSlots
	return nil
}

// Finish implements glshim.Driver. It blocks until every in-flight slot's
// fence signals.
func (d *Driver) Finish() error {
	for i := range d.slots {
		slot := &d.slots[i]
		if !slot.inFlight {
			continue
		}
		ok, err := d.device.Wait(slot.fence, slot.fenceValue, fenceWaitTimeout)
		if err != nil || !ok {
			return fmt.Errorf("wgpu: finish wait: ok=%v err=%w", ok, err)
		}
		slot.inFlight = false
		d.retireSlot(slot)
	}
	return nil
}

// AllocUniform implements glshim.Driver. Allocation bump-advances within
// the slot's partition; nothing is overwritten in place while the slot's
// commands are unexecuted.
func (d *Driver) AllocUniform(data []byte) (uint32, error) {
	f := d.frame
	if f == nil {
		return 0, fmt.Errorf("wgpu: uniform alloc outside frame")
	}
	size := (uint32(len(data)) + minUniformAlign - 1) &^ (minUniformAlign - 1)
	if f.uniformOffset+size > uniformSlotSize {
		return 0, ErrRegionFull
	}
	offset := f.uniformBase + f.uniformOffset
	f.uniformOffset += size
	d.queue.WriteBuffer(d.uniformBuf, uint64(offset), data)
	return offset, nil
}

// AllocVertexData implements glshim.Driver.
func (d *Driver) AllocVertexData(data []byte) (uint32, error) {
	f := d.frame
	if f == nil {
		return 0, fmt.Errorf("wgpu: vertex alloc outside frame")
	}
	size := (uint32(len(data)) + 15) &^ 15
	if f.vertexOffset+size > vertexSlotSize {
		return 0, ErrRegionFull
	}
	offset := f.vertexBase + f.vertexOffset
	f.vertexOffset += size
	d.queue.WriteBuffer(d.vertexBuf, uint64(offset), data)
	return offset, nil
}
