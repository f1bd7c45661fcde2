package glshim

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// textureObject is the table record of one texture name.
type textureObject struct {
	target     TextureTarget
	width      int
	height     int
	format     TextureFormat
	compressed CompressedFormat
	params     SamplerParams
	allocated  bool
}

// GenTextures allocates n texture names.
func (c *Context) GenTextures(n int) []uint32 {
	if n < 0 {
		c.setError(InvalidValue)
		return nil
	}
	ids := make([]uint32, n)
	for i := range ids {
		h := c.textures.Alloc()
		if h == 0 {
			c.setError(OutOfMemory)
			break
		}
		c.textureObjs[h] = textureObject{
			params: SamplerParams{MinFilter: FilterLinear, MagFilter: FilterLinear},
		}
		ids[i] = h
	}
	return ids
}

// DeleteTextures frees texture names. Invalid names are ignored; bound
// textures and framebuffer attachments referencing them are unbound.
func (c *Context) DeleteTextures(ids ...uint32) {
	for _, h := range ids {
		if !c.textures.InUse(h) {
			continue
		}
		for i := range c.boundTextures {
			if c.boundTextures[i] == h {
				c.boundTextures[i] = 0
			}
		}
		for fb := uint32(1); fb <= MaxFramebuffers; fb++ {
			if c.framebuffers.InUse(fb) {
				c.framebufferObjs[fb].detachImage(h, false)
			}
		}
		if c.textureObjs[h].allocated {
			c.drv.DestroyTexture(h)
		}
		c.textureObjs[h] = textureObject{}
		c.textures.Free(h)
	}
}

// IsTexture reports whether id names a live texture.
func (c *Context) IsTexture(id uint32) bool {
	return c.textures.InUse(id)
}

// ActiveTexture selects the active texture unit.
func (c *Context) ActiveTexture(unit int) {
	if unit < 0 || unit >= MaxTextureUnits {
		c.setError(InvalidEnum)
		return
	}
	c.activeUnit = unit
}

// BindTexture binds a texture to the active unit. Binding 0 unbinds.
func (c *Context) BindTexture(target TextureTarget, id uint32) {
	if target != Texture2D && target != TextureCubeMap {
		c.setError(InvalidEnum)
		return
	}
	if id != 0 {
		if !c.textures.InUse(id) {
			c.setError(InvalidOperation)
			return
		}
		obj := &c.textureObjs[id]
		if obj.target != 0 && obj.target != target {
			c.setError(InvalidOperation)
			return
		}
		obj.target = target
	}
	c.boundTextures[c.activeUnit] = id
}

// TexImage2D defines one mip level of the bound texture from tightly or
// row-aligned packed pixels. A nil pixel slice allocates storage without
// uploading. layer selects a cube face for cube-map textures (0 for 2D).
func (c *Context) TexImage2D(target TextureTarget, level, layer, width, height int, format TextureFormat, pixels []byte) {
	id := c.textureForUpload(target)
	if id == 0 {
		return
	}
	if width <= 0 || height <= 0 || width > c.caps.MaxTextureSize || height > c.caps.MaxTextureSize || level < 0 {
		c.setError(InvalidValue)
		return
	}
	bpp := format.bytesPerPixel()
	if bpp == 0 {
		c.setError(InvalidEnum)
		return
	}
	obj := &c.textureObjs[id]
	if level == 0 && (!obj.allocated || obj.width != width || obj.height != height || obj.format != format) {
		if obj.allocated {
			c.drv.DestroyTexture(id)
		}
		desc := TextureDesc{Target: target, Width: width, Height: height, Format: format, Levels: 1}
		if err := c.drv.CreateTexture(id, desc); err != nil {
			Logger().Warn("texture create failed", "id", id, "err", err)
			obj.allocated = false
			c.setError(OutOfMemory)
			return
		}
		obj.width, obj.height, obj.format = width, height, format
		obj.compressed = CompressedNone
		obj.allocated = true
		c.drv.SetSamplerState(id, obj.params)
	}
	if pixels == nil {
		return
	}
	tight := c.tightRows(pixels, width, height, bpp)
	if tight == nil {
		c.setError(InvalidValue)
		return
	}
	if err := c.drv.TextureData(id, level, layer, tight); err != nil {
		Logger().Warn("texture upload failed", "id", id, "err", err)
		c.setError(OutOfMemory)
	}
}

// CompressedTexImage2D defines one mip level from block-compressed data.
// The payload size must match the format table exactly.
func (c *Context) CompressedTexImage2D(target TextureTarget, level, layer, width, height int, format CompressedFormat, data []byte) {
	id := c.textureForUpload(target)
	if id == 0 {
		return
	}
	// Unknown formats and formats the driver does not advertise are both
	// enum errors; the upload must never reach the driver.
	if !IsCompressedFormat(format) || !c.compressedSupported(format) {
		c.setError(InvalidEnum)
		return
	}
	if width <= 0 || height <= 0 || level < 0 {
		c.setError(InvalidValue)
		return
	}
	if len(data) != CompressedImageSize(format, width, height) {
		c.setError(InvalidValue)
		return
	}
	obj := &c.textureObjs[id]
	if level == 0 && (!obj.allocated || obj.width != width || obj.height != height || obj.compressed != format) {
		if obj.allocated {
			c.drv.DestroyTexture(id)
		}
		desc := TextureDesc{Target: target, Width: width, Height: height, Compressed: format, Levels: 1}
		if err := c.drv.CreateTexture(id, desc); err != nil {
			Logger().Warn("texture create failed", "id", id, "err", err)
			obj.allocated = false
			c.setError(OutOfMemory)
			return
		}
		obj.width, obj.height = width, height
		obj.format, obj.compressed = 0, format
		obj.allocated = true
		c.drv.SetSamplerState(id, obj.params)
	}
	if err := c.drv.TextureData(id, level, layer, data); err != nil {
		Logger().Warn("compressed upload failed", "id", id, "err", err)
		c.setError(OutOfMemory)
	}
}

// TexImageFromImage uploads any image.Image as level 0 of the bound
// texture, converting (and scaling when width/height differ from the image
// bounds) into tightly packed RGBA.
func (c *Context) TexImageFromImage(target TextureTarget, img image.Image, width, height int) {
	if img == nil {
		c.setError(InvalidValue)
		return
	}
	b := img.Bounds()
	if width <= 0 {
		width = b.Dx()
	}
	if height <= 0 {
		height = b.Dy()
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == b.Dx() && height == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	}
	// NewRGBA storage is tightly packed, stride == 4*width.
	c.TexImage2D(target, 0, 0, width, height, FormatRGBA, dst.Pix)
}

// TexParameterFilter sets the min/mag filters of the bound texture.
func (c *Context) TexParameterFilter(target TextureTarget, min, mag TextureFilter) {
	id := c.textureForUpload(target)
	if id == 0 {
		return
	}
	if min < FilterNearest || min > FilterLinear || mag < FilterNearest || mag > FilterLinear {
		c.setError(InvalidEnum)
		return
	}
	obj := &c.textureObjs[id]
	if obj.params.MinFilter == min && obj.params.MagFilter == mag {
		return
	}
	obj.params.MinFilter, obj.params.MagFilter = min, mag
	if obj.allocated {
		c.drv.SetSamplerState(id, obj.params)
	}
}

// TexParameterWrap sets the S/T wrap modes of the bound texture.
func (c *Context) TexParameterWrap(target TextureTarget, s, t TextureWrap) {
	id := c.textureForUpload(target)
	if id == 0 {
		return
	}
	if s < WrapRepeat || s > WrapMirroredRepeat || t < WrapRepeat || t > WrapMirroredRepeat {
		c.setError(InvalidEnum)
		return
	}
	obj := &c.textureObjs[id]
	if obj.params.WrapS == s && obj.params.WrapT == t {
		return
	}
	obj.params.WrapS, obj.params.WrapT = s, t
	if obj.allocated {
		c.drv.SetSamplerState(id, obj.params)
	}
}

// textureForUpload resolves the texture bound to the active unit for the
// given target, recording errors for invalid targets or an empty binding.
func (c *Context) textureForUpload(target TextureTarget) uint32 {
	if target != Texture2D && target != TextureCubeMap {
		c.setError(InvalidEnum)
		return 0
	}
	id := c.boundTextures[c.activeUnit]
	if id == 0 {
		c.setError(InvalidOperation)
		return 0
	}
	if c.textureObjs[id].target != target {
		c.setError(InvalidOperation)
		return 0
	}
	return id
}

// tightRows returns pixels repacked to tight rows per the unpack alignment.
// Returns the input slice unchanged when rows are already tight, nil when
// the input is too small.
func (c *Context) tightRows(pixels []byte, width, height, bpp int) []byte {
	rowBytes := width * bpp
	srcStride := alignIntUp(rowBytes, c.unpackAlignment)
	if srcStride == rowBytes {
		if len(pixels) < rowBytes*height {
			return nil
		}
		return pixels[:rowBytes*height]
	}
	// Last row may omit the alignment padding.
	if len(pixels) < srcStride*(height-1)+rowBytes {
		return nil
	}
	out := make([]byte, rowBytes*height)
	for y := 0; y < height; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], pixels[y*srcStride:y*srcStride+rowBytes])
	}
	return out
}

func alignIntUp(v, align int) int {
	return (v + align - 1) / align * align
}
