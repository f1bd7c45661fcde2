package glshim

// DrawArrays draws count vertices starting at first with the current
// program and vertex attribute array.
func (c *Context) DrawArrays(mode PrimitiveMode, first, count int) {
	if first < 0 || count < 0 {
		c.setError(InvalidValue)
		return
	}
	if count == 0 {
		return
	}
	cmd := c.beginDraw(mode)
	if cmd == nil {
		return
	}
	cmd.First = first
	cmd.Count = count
	c.submitDraw(cmd)
}

// DrawElements draws count indexed vertices using the bound element array
// buffer, reading indices of the given type from the given byte offset.
func (c *Context) DrawElements(mode PrimitiveMode, count int, typ IndexType, offset int) {
	if count < 0 || offset < 0 {
		c.setError(InvalidValue)
		return
	}
	if typ.Size() == 0 {
		c.setError(InvalidEnum)
		return
	}
	if count == 0 {
		return
	}
	if c.boundElementBuffer == 0 {
		c.setError(InvalidOperation)
		return
	}
	cmd := c.beginDraw(mode)
	if cmd == nil {
		return
	}
	cmd.Count = count
	cmd.Indexed = true
	cmd.IndexType = typ
	cmd.IndexBuffer = c.boundElementBuffer
	cmd.IndexOffset = offset
	c.submitDraw(cmd)
}

// DrawElementsWithIndexData draws indexed vertices from a client-memory
// index slice, staged per draw like client vertex arrays.
func (c *Context) DrawElementsWithIndexData(mode PrimitiveMode, typ IndexType, indices []byte) {
	if typ.Size() == 0 {
		c.setError(InvalidEnum)
		return
	}
	if len(indices) == 0 || len(indices)%typ.Size() != 0 {
		c.setError(InvalidValue)
		return
	}
	cmd := c.beginDraw(mode)
	if cmd == nil {
		return
	}
	offset, err := c.drv.AllocVertexData(indices)
	if err != nil {
		Logger().Warn("index staging exhausted", "err", err)
		c.setError(OutOfMemory)
		return
	}
	cmd.Count = len(indices) / typ.Size()
	cmd.Indexed = true
	cmd.IndexType = typ
	cmd.IndexBuffer = 0
	cmd.IndexOffset = int(offset)
	c.submitDraw(cmd)
}

// beginDraw validates the shared draw preconditions and assembles the
// state-independent parts of the command. Returns nil after recording a GL
// error (or when the frame cannot open).
func (c *Context) beginDraw(mode PrimitiveMode) *DrawCommand {
	if !mode.valid() {
		c.setError(InvalidEnum)
		return nil
	}
	if c.currentProgram == 0 || !c.programObjs[c.currentProgram].linked {
		c.setError(InvalidOperation)
		return nil
	}
	if c.CheckFramebufferStatus() != FramebufferComplete {
		c.setError(InvalidFramebufferOperation)
		return nil
	}
	if !c.ensureFrame() {
		return nil
	}
	cmd := &DrawCommand{Mode: mode, Program: c.currentProgram}
	if !c.gatherAttribs(cmd) {
		return nil
	}
	c.gatherUniforms(cmd)
	return cmd
}

// gatherAttribs resolves the enabled vertex attributes, staging client
// arrays into the per-frame region with a fresh offset per draw.
func (c *Context) gatherAttribs(cmd *DrawCommand) bool {
	for i := range c.attribs {
		a := &c.attribs[i]
		if !a.enabled {
			continue
		}
		b := AttribBinding{
			Location:   i,
			Buffer:     a.buffer,
			Size:       a.size,
			Type:       a.typ,
			Normalized: a.normalized,
			Stride:     a.stride,
			Offset:     a.offset,
		}
		if a.buffer == 0 {
			if a.clientData == nil {
				c.setError(InvalidOperation)
				return false
			}
			offset, err := c.drv.AllocVertexData(a.clientData)
			if err != nil {
				Logger().Warn("vertex staging exhausted", "err", err)
				c.setError(OutOfMemory)
				return false
			}
			b.Offset = int(offset)
		}
		cmd.Attribs = append(cmd.Attribs, b)
	}
	return true
}

// gatherUniforms collects the program's uniform state for one draw.
//
// Every live legacy slot is listed, not just ones written since the last
// draw: the command references region offsets, and each draw's descriptor
// set is rebuilt from scratch. Likewise every configured packed block is
// pushed whole, dirty or not, because the GPU-visible copy exists only for
// the duration of one frame's commands; the dirty flag only tracks
// host-side patching between draws.
func (c *Context) gatherUniforms(cmd *DrawCommand) {
	p := &c.programObjs[c.currentProgram]
	for si := 0; si < stageCount; si++ {
		stage := stageFromIndex(si)
		for slotIdx := range p.legacy[si] {
			slot := &p.legacy[si][slotIdx]
			if !slot.used {
				continue
			}
			if slot.isSampler {
				cmd.Textures = append(cmd.Textures, TextureBinding{
					Stage:   stage,
					Binding: slot.samplerBinding,
					Texture: c.boundTextures[slot.unit],
				})
				continue
			}
			cmd.Uniforms = append(cmd.Uniforms, UniformSegment{
				Stage:  stage,
				Slot:   slotIdx,
				Offset: slot.offset,
				Size:   slot.alignedSize,
			})
			slot.dirty = false
		}
		for binding := range p.blocks[si] {
			blk := &p.blocks[si][binding]
			if !blk.valid {
				continue
			}
			cmd.Blocks = append(cmd.Blocks, BlockPush{
				Stage:   stage,
				Binding: binding,
				Data:    blk.data[:blk.size],
			})
			blk.dirty = false
		}
	}
}

// submitDraw hands the finished command to the driver.
func (c *Context) submitDraw(cmd *DrawCommand) {
	if err := c.drv.Draw(cmd); err != nil {
		Logger().Warn("draw failed", "err", err)
		c.setError(OutOfMemory)
	}
}
