package glshim

// vertexAttrib is one entry of the context's vertex attribute array. The
// source is either a buffer object (captured from the array-buffer binding
// at pointer time, as the classic API does) or a client-memory slice staged
// per draw.
type vertexAttrib struct {
	enabled    bool
	buffer     uint32
	size       int
	typ        AttribType
	normalized bool
	stride     int
	offset     int

	// clientData holds the application slice when buffer is 0. It is
	// re-staged on every draw; the staging region allocates fresh offsets
	// so earlier draws keep their own copy.
	clientData []byte
}

// EnableVertexAttribArray enables one attribute index.
func (c *Context) EnableVertexAttribArray(index int) {
	if index < 0 || index >= MaxVertexAttribs {
		c.setError(InvalidValue)
		return
	}
	c.attribs[index].enabled = true
}

// DisableVertexAttribArray disables one attribute index.
func (c *Context) DisableVertexAttribArray(index int) {
	if index < 0 || index >= MaxVertexAttribs {
		c.setError(InvalidValue)
		return
	}
	c.attribs[index].enabled = false
}

// VertexAttribPointer sources an attribute from the buffer currently bound
// to the array-buffer target. The binding is captured now; rebinding the
// target later does not affect this attribute.
func (c *Context) VertexAttribPointer(index, size int, typ AttribType, normalized bool, stride, offset int) {
	if !c.validAttribPointerArgs(index, size, typ, stride, offset) {
		return
	}
	if c.boundArrayBuffer == 0 {
		c.setError(InvalidOperation)
		return
	}
	a := &c.attribs[index]
	a.buffer = c.boundArrayBuffer
	a.size = size
	a.typ = typ
	a.normalized = normalized
	a.stride = stride
	a.offset = offset
	a.clientData = nil
}

// VertexAttribPointerClient sources an attribute from client memory. The
// slice is staged into GPU-visible memory at draw time; the caller may
// reuse it after the draw call returns.
func (c *Context) VertexAttribPointerClient(index, size int, typ AttribType, normalized bool, stride int, data []byte) {
	if !c.validAttribPointerArgs(index, size, typ, stride, 0) {
		return
	}
	if len(data) == 0 {
		c.setError(InvalidValue)
		return
	}
	a := &c.attribs[index]
	a.buffer = 0
	a.size = size
	a.typ = typ
	a.normalized = normalized
	a.stride = stride
	a.offset = 0
	a.clientData = data
}

func (c *Context) validAttribPointerArgs(index, size int, typ AttribType, stride, offset int) bool {
	if index < 0 || index >= MaxVertexAttribs {
		c.setError(InvalidValue)
		return false
	}
	if size < 1 || size > 4 || stride < 0 || offset < 0 {
		c.setError(InvalidValue)
		return false
	}
	if typ.Size() == 0 {
		c.setError(InvalidEnum)
		return false
	}
	return true
}
