package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment texture-to-buffer copies must
// satisfy.
const copyPitchAlignment = 256

// ReadPixels implements glshim.Driver. The Context has already finished
// the frame; the copy is encoded and fenced on its own command buffer. The
// rectangle and the returned rows use the bottom-left origin, so rows flip
// during the repack, and the default target's BGRA order swizzles to RGBA.
func (d *Driver) ReadPixels(x, y, width, height int, dst []byte) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	srcTex := d.colorTex
	srcFormat := gputypes.TextureFormatBGRA8Unorm
	targetH := int(d.height)
	if d.state.fbColor != nil {
		srcTex = d.state.fbColorTex
		srcFormat = d.state.fbColorFormat
		targetH = int(d.state.fbHeight)
	}
	if srcTex == nil {
		return fmt.Errorf("wgpu: read target has no color storage")
	}

	bytesPerRow := width * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(height)

	stagingBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glshim_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create readback buffer: %w", err)
	}
	defer d.device.DestroyBuffer(stagingBuf)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "glshim_readback",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create readback encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glshim_readback"); err != nil {
		return fmt.Errorf("wgpu: begin readback encoding: %w", err)
	}

	// The color target sits in attachment layout after the last pass;
	// the copy needs transfer-source layout, and the target must return
	// afterwards so the next frame's pass remains valid.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: srcTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	// GL's bottom-left rectangle origin becomes a top-left row index.
	top := targetH - y - height
	if top < 0 {
		top = 0
	}
	encoder.CopyTextureToBuffer(srcTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(alignedBytesPerRow),
			RowsPerImage: uint32(height),
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  srcTex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(top)},
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: srcTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end readback encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create readback fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit readback: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceWaitTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wgpu: readback wait: ok=%v err=%w", ok, err)
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("wgpu: read staging buffer: %w", err)
	}

	swizzle := srcFormat == gputypes.TextureFormatBGRA8Unorm
	for row := 0; row < height; row++ {
		src := readback[row*alignedBytesPerRow : row*alignedBytesPerRow+bytesPerRow]
		dstRow := dst[(height-1-row)*bytesPerRow : (height-row)*bytesPerRow]
		if swizzle {
			for p := 0; p < bytesPerRow; p += 4 {
				dstRow[p+0] = src[p+2]
				dstRow[p+1] = src[p+1]
				dstRow[p+2] = src[p+0]
				dstRow[p+3] = src[p+3]
			}
		} else {
			copy(dstRow, src)
		}
	}
	return nil
}
