package glshim

// bufferObject is the table record of one buffer name.
type bufferObject struct {
	size  int
	usage BufferUsage
}

// GenBuffers allocates n buffer names. On table exhaustion the remaining
// entries are 0 and OutOfMemory is recorded.
func (c *Context) GenBuffers(n int) []uint32 {
	if n < 0 {
		c.setError(InvalidValue)
		return nil
	}
	ids := make([]uint32, n)
	for i := range ids {
		h := c.buffers.Alloc()
		if h == 0 {
			c.setError(OutOfMemory)
			break
		}
		c.bufferObjs[h] = bufferObject{}
		if err := c.drv.CreateBuffer(h); err != nil {
			Logger().Warn("buffer create failed", "id", h, "err", err)
			c.buffers.Free(h)
			c.setError(OutOfMemory)
			break
		}
		ids[i] = h
	}
	return ids
}

// DeleteBuffers frees buffer names. Invalid and already-freed names are
// ignored. Deleting a bound buffer unbinds it first.
func (c *Context) DeleteBuffers(ids ...uint32) {
	for _, h := range ids {
		if !c.buffers.InUse(h) {
			continue
		}
		if c.boundArrayBuffer == h {
			c.boundArrayBuffer = 0
		}
		if c.boundElementBuffer == h {
			c.boundElementBuffer = 0
		}
		for i := range c.attribs {
			if c.attribs[i].buffer == h {
				c.attribs[i].buffer = 0
				c.attribs[i].enabled = false
			}
		}
		c.drv.DestroyBuffer(h)
		c.bufferObjs[h] = bufferObject{}
		c.buffers.Free(h)
	}
}

// IsBuffer reports whether id names a live buffer.
func (c *Context) IsBuffer(id uint32) bool {
	return c.buffers.InUse(id)
}

// BindBuffer binds a buffer to a target. Binding 0 unbinds.
func (c *Context) BindBuffer(target BufferTarget, id uint32) {
	if target != ArrayBuffer && target != ElementArrayBuffer {
		c.setError(InvalidEnum)
		return
	}
	if id != 0 && !c.buffers.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	switch target {
	case ArrayBuffer:
		c.boundArrayBuffer = id
	case ElementArrayBuffer:
		c.boundElementBuffer = id
	}
}

// BufferData defines the full contents of the bound buffer, replacing any
// previous storage (the old storage may still back in-flight draws; the
// driver orphans it rather than overwriting).
func (c *Context) BufferData(target BufferTarget, data []byte, usage BufferUsage) {
	id := c.bufferForTarget(target)
	if id == 0 {
		return
	}
	if usage < StaticDraw || usage > StreamDraw {
		c.setError(InvalidEnum)
		return
	}
	if err := c.drv.BufferData(id, data, usage); err != nil {
		Logger().Warn("buffer data failed", "id", id, "err", err)
		c.setError(OutOfMemory)
		return
	}
	c.bufferObjs[id] = bufferObject{size: len(data), usage: usage}
}

// BufferSubData replaces a sub-range of the bound buffer. The range must
// lie within the storage defined by the last BufferData.
func (c *Context) BufferSubData(target BufferTarget, offset int, data []byte) {
	id := c.bufferForTarget(target)
	if id == 0 {
		return
	}
	if offset < 0 || offset+len(data) > c.bufferObjs[id].size {
		c.setError(InvalidValue)
		return
	}
	if len(data) == 0 {
		return
	}
	if err := c.drv.BufferSubData(id, offset, data); err != nil {
		Logger().Warn("buffer subdata failed", "id", id, "err", err)
		c.setError(OutOfMemory)
	}
}

// bufferForTarget resolves the bound buffer of a target, recording the
// appropriate error when the target is invalid or nothing is bound.
func (c *Context) bufferForTarget(target BufferTarget) uint32 {
	switch target {
	case ArrayBuffer:
		if c.boundArrayBuffer == 0 {
			c.setError(InvalidOperation)
		}
		return c.boundArrayBuffer
	case ElementArrayBuffer:
		if c.boundElementBuffer == 0 {
			c.setError(InvalidOperation)
		}
		return c.boundElementBuffer
	default:
		c.setError(InvalidEnum)
		return 0
	}
}
