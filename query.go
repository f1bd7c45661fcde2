package glshim

// MaxTextureSize returns the largest supported texture dimension.
func (c *Context) MaxTextureSize() int { return c.caps.MaxTextureSize }

// MaxVertexAttribCount returns the number of usable vertex attributes,
// the smaller of the context's array size and the device limit.
func (c *Context) MaxVertexAttribCount() int {
	if c.caps.MaxVertexAttribs > 0 && c.caps.MaxVertexAttribs < MaxVertexAttribs {
		return c.caps.MaxVertexAttribs
	}
	return MaxVertexAttribs
}

// CompressedTextureFormats returns the block-compressed formats the
// context accepts, the intersection of the fixed format table and what the
// driver advertises.
func (c *Context) CompressedTextureFormats() []CompressedFormat {
	var out []CompressedFormat
	for _, f := range c.caps.CompressedFormats {
		if IsCompressedFormat(f) {
			out = append(out, f)
		}
	}
	return out
}

// compressedSupported reports whether the driver advertises f.
func (c *Context) compressedSupported(f CompressedFormat) bool {
	for _, cf := range c.caps.CompressedFormats {
		if cf == f {
			return true
		}
	}
	return false
}

// ReadPixels reads a rectangle of the current render target as tightly
// packed RGBA bytes with a bottom-left origin. It blocks until all
// submitted GPU work affecting the target has completed.
func (c *Context) ReadPixels(x, y, width, height int) []byte {
	if width <= 0 || height <= 0 || x < 0 || y < 0 {
		c.setError(InvalidValue)
		return nil
	}
	if c.CheckFramebufferStatus() != FramebufferComplete {
		c.setError(InvalidFramebufferOperation)
		return nil
	}
	// Pending recorded commands must reach the GPU before the copy.
	if c.frameOpen {
		c.frameOpen = false
		if err := c.drv.EndFrame(); err != nil {
			Logger().Warn("end frame failed", "err", err)
			c.setError(OutOfMemory)
			return nil
		}
	}
	if err := c.drv.Finish(); err != nil {
		Logger().Warn("finish failed", "err", err)
		c.setError(OutOfMemory)
		return nil
	}
	dst := make([]byte, width*height*4)
	if err := c.drv.ReadPixels(x, y, width, height, dst); err != nil {
		Logger().Warn("readback failed", "err", err)
		c.setError(InvalidOperation)
		return nil
	}
	return dst
}
