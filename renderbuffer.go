package glshim

// renderbufferObject is the table record of one renderbuffer name.
type renderbufferObject struct {
	format    RenderbufferFormat
	width     int
	height    int
	allocated bool
}

// GenRenderbuffers allocates n renderbuffer names.
func (c *Context) GenRenderbuffers(n int) []uint32 {
	if n < 0 {
		c.setError(InvalidValue)
		return nil
	}
	ids := make([]uint32, n)
	for i := range ids {
		h := c.renderbuffers.Alloc()
		if h == 0 {
			c.setError(OutOfMemory)
			break
		}
		c.renderbufferObjs[h] = renderbufferObject{}
		ids[i] = h
	}
	return ids
}

// DeleteRenderbuffers frees renderbuffer names, detaching them from any
// framebuffer first. Invalid names are ignored.
func (c *Context) DeleteRenderbuffers(ids ...uint32) {
	for _, h := range ids {
		if !c.renderbuffers.InUse(h) {
			continue
		}
		if c.boundRenderbuffer == h {
			c.boundRenderbuffer = 0
		}
		for fb := uint32(1); fb <= MaxFramebuffers; fb++ {
			if c.framebuffers.InUse(fb) {
				c.framebufferObjs[fb].detachImage(h, true)
			}
		}
		if c.renderbufferObjs[h].allocated {
			c.drv.DestroyRenderbuffer(h)
		}
		c.renderbufferObjs[h] = renderbufferObject{}
		c.renderbuffers.Free(h)
	}
}

// IsRenderbuffer reports whether id names a live renderbuffer.
func (c *Context) IsRenderbuffer(id uint32) bool {
	return c.renderbuffers.InUse(id)
}

// BindRenderbuffer binds a renderbuffer for storage definition.
func (c *Context) BindRenderbuffer(id uint32) {
	if id != 0 && !c.renderbuffers.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	c.boundRenderbuffer = id
}

// RenderbufferStorage defines the storage of the bound renderbuffer.
func (c *Context) RenderbufferStorage(format RenderbufferFormat, width, height int) {
	id := c.boundRenderbuffer
	if id == 0 {
		c.setError(InvalidOperation)
		return
	}
	if format < RenderbufferRGBA8 || format > RenderbufferStencil8 {
		c.setError(InvalidEnum)
		return
	}
	if width <= 0 || height <= 0 || width > c.caps.MaxTextureSize || height > c.caps.MaxTextureSize {
		c.setError(InvalidValue)
		return
	}
	obj := &c.renderbufferObjs[id]
	if obj.allocated {
		c.drv.DestroyRenderbuffer(id)
		obj.allocated = false
	}
	if err := c.drv.CreateRenderbuffer(id, format, width, height); err != nil {
		Logger().Warn("renderbuffer create failed", "id", id, "err", err)
		c.setError(OutOfMemory)
		return
	}
	obj.format, obj.width, obj.height = format, width, height
	obj.allocated = true
}
