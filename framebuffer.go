package glshim

// fbAttachment is one attachment point of a framebuffer object. The
// isRenderbuffer flag drives the completeness and dimension-match rules.
type fbAttachment struct {
	set            bool
	isRenderbuffer bool
	image          uint32
}

// framebufferObject is the table record of one framebuffer name.
type framebufferObject struct {
	color   fbAttachment
	depth   fbAttachment
	stencil fbAttachment
}

// detachImage clears every attachment point referencing the given image.
func (f *framebufferObject) detachImage(image uint32, isRenderbuffer bool) {
	for _, a := range []*fbAttachment{&f.color, &f.depth, &f.stencil} {
		if a.set && a.isRenderbuffer == isRenderbuffer && a.image == image {
			*a = fbAttachment{}
		}
	}
}

// GenFramebuffers allocates n framebuffer names.
func (c *Context) GenFramebuffers(n int) []uint32 {
	if n < 0 {
		c.setError(InvalidValue)
		return nil
	}
	ids := make([]uint32, n)
	for i := range ids {
		h := c.framebuffers.Alloc()
		if h == 0 {
			c.setError(OutOfMemory)
			break
		}
		c.framebufferObjs[h] = framebufferObject{}
		ids[i] = h
	}
	return ids
}

// DeleteFramebuffers frees framebuffer names. Deleting the bound one
// rebinds the default framebuffer. Invalid names are ignored.
func (c *Context) DeleteFramebuffers(ids ...uint32) {
	for _, h := range ids {
		if !c.framebuffers.InUse(h) {
			continue
		}
		if c.boundFramebuffer == h {
			c.boundFramebuffer = 0
			c.applyFramebufferBinding()
		}
		c.framebufferObjs[h] = framebufferObject{}
		c.framebuffers.Free(h)
	}
}

// IsFramebuffer reports whether id names a live framebuffer.
func (c *Context) IsFramebuffer(id uint32) bool {
	return c.framebuffers.InUse(id)
}

// BindFramebuffer selects the render target. 0 binds the default
// framebuffer, which is always complete.
func (c *Context) BindFramebuffer(id uint32) {
	if id != 0 && !c.framebuffers.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	if c.boundFramebuffer == id {
		return
	}
	c.boundFramebuffer = id
	c.applyFramebufferBinding()
}

// FramebufferTexture2D attaches a texture image to the bound framebuffer.
// Texture 0 detaches.
func (c *Context) FramebufferTexture2D(attachment Attachment, texture uint32) {
	fb := c.boundFramebufferObject()
	if fb == nil {
		return
	}
	if texture != 0 && !c.textures.InUse(texture) {
		c.setError(InvalidOperation)
		return
	}
	c.attach(fb, attachment, fbAttachment{set: texture != 0, image: texture})
}

// FramebufferRenderbuffer attaches a renderbuffer to the bound framebuffer.
// Renderbuffer 0 detaches.
func (c *Context) FramebufferRenderbuffer(attachment Attachment, renderbuffer uint32) {
	fb := c.boundFramebufferObject()
	if fb == nil {
		return
	}
	if renderbuffer != 0 && !c.renderbuffers.InUse(renderbuffer) {
		c.setError(InvalidOperation)
		return
	}
	c.attach(fb, attachment, fbAttachment{set: renderbuffer != 0, isRenderbuffer: true, image: renderbuffer})
}

func (c *Context) attach(fb *framebufferObject, attachment Attachment, a fbAttachment) {
	switch attachment {
	case ColorAttachment0:
		fb.color = a
	case DepthAttachment:
		fb.depth = a
	case StencilAttachment:
		fb.stencil = a
	case DepthStencilAttachment:
		fb.depth = a
		fb.stencil = a
	default:
		c.setError(InvalidEnum)
		return
	}
	if c.frameOpen {
		c.applyFramebufferBinding()
	}
}

// boundFramebufferObject returns the bound FBO record, recording
// InvalidOperation when the default framebuffer is bound (its attachments
// cannot be edited).
func (c *Context) boundFramebufferObject() *framebufferObject {
	if c.boundFramebuffer == 0 {
		c.setError(InvalidOperation)
		return nil
	}
	return &c.framebufferObjs[c.boundFramebuffer]
}

// CheckFramebufferStatus evaluates the completeness of the bound
// framebuffer. The default framebuffer is always complete.
func (c *Context) CheckFramebufferStatus() FramebufferStatus {
	if c.boundFramebuffer == 0 {
		return FramebufferComplete
	}
	return c.framebufferStatus(&c.framebufferObjs[c.boundFramebuffer])
}

// framebufferStatus applies the completeness rules: a color attachment must
// exist, every attached image must have defined storage, and all attached
// images must share the same dimensions.
func (c *Context) framebufferStatus(fb *framebufferObject) FramebufferStatus {
	if !fb.color.set {
		return FramebufferIncompleteMissingAttachment
	}
	cw, ch, ok := c.imageDimensions(fb.color)
	if !ok {
		return FramebufferIncompleteAttachment
	}
	for _, a := range []fbAttachment{fb.depth, fb.stencil} {
		if !a.set {
			continue
		}
		w, h, ok := c.imageDimensions(a)
		if !ok {
			return FramebufferIncompleteAttachment
		}
		if w != cw || h != ch {
			return FramebufferIncompleteDimensions
		}
	}
	return FramebufferComplete
}

// imageDimensions resolves the storage dimensions of an attached image.
// ok is false when the image no longer exists or has no storage.
func (c *Context) imageDimensions(a fbAttachment) (w, h int, ok bool) {
	if a.isRenderbuffer {
		if !c.renderbuffers.InUse(a.image) {
			return 0, 0, false
		}
		rb := &c.renderbufferObjs[a.image]
		if !rb.allocated {
			return 0, 0, false
		}
		return rb.width, rb.height, true
	}
	if !c.textures.InUse(a.image) {
		return 0, 0, false
	}
	t := &c.textureObjs[a.image]
	if !t.allocated {
		return 0, 0, false
	}
	return t.width, t.height, true
}

// applyFramebufferBinding pushes the current render target to the driver.
// Incomplete FBOs are not pushed; the draw path raises the GL error.
func (c *Context) applyFramebufferBinding() {
	if c.boundFramebuffer == 0 {
		if err := c.drv.BindFramebuffer(nil); err != nil {
			Logger().Warn("default framebuffer bind failed", "err", err)
			c.setError(OutOfMemory)
		}
		return
	}
	fb := &c.framebufferObjs[c.boundFramebuffer]
	if c.framebufferStatus(fb) != FramebufferComplete {
		return
	}
	w, h, _ := c.imageDimensions(fb.color)
	binding := &FramebufferBinding{Width: w, Height: h}
	for _, pair := range []struct {
		src fbAttachment
		dst *AttachmentRef
	}{
		{fb.color, &binding.Color},
		{fb.depth, &binding.Depth},
		{fb.stencil, &binding.Stencil},
	} {
		if !pair.src.set {
			continue
		}
		if pair.src.isRenderbuffer {
			pair.dst.Renderbuffer = pair.src.image
		} else {
			pair.dst.Texture = pair.src.image
		}
	}
	if err := c.drv.BindFramebuffer(binding); err != nil {
		Logger().Warn("framebuffer bind failed", "id", c.boundFramebuffer, "err", err)
		c.setError(OutOfMemory)
	}
}
