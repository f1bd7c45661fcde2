package glshim

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/glshim/translate"
)

// Uniform delivery has two parallel paths.
//
// Legacy path: every write allocates a fresh offset in the driver's uniform
// memory region and stores std140-padded bytes there. Offsets are never
// reused in place: a command buffer recorded for an earlier draw references
// the earlier write's address, and an in-place overwrite would corrupt that
// draw before the GPU executes it.
//
// Packed path: a write patches the program's shadow block in host memory at
// the registered byte offset and marks the block dirty. No GPU memory is
// touched until draw time, when each configured block is pushed whole.

// uniformSlotBytes is the legacy element stride: vectors of up to four
// components always round up to one 16-byte slot, matrices take one slot
// per column.
const uniformSlotBytes = 16

// maxTransposedMatrices bounds the scratch used when a matrix write
// requests transposition.
const maxTransposedMatrices = 4

// builtinUniforms is the fixed table of well-known uniform names, resolved
// after the application table and the program's reflection registry. The
// legacy slots it hands out sit below samplerSlotBase, so link-time sampler
// allocation never collides with them.
var builtinUniforms = map[string]Location{
	"u_mvpMatrix":    LegacyLocation(VertexShader, 0),
	"u_modelView":    LegacyLocation(VertexShader, 1),
	"u_projection":   LegacyLocation(VertexShader, 2),
	"u_normalMatrix": LegacyLocation(VertexShader, 3),
	"u_color":        LegacyLocation(FragmentShader, 0),
	"u_texture":      LegacyLocation(FragmentShader, 1),
}

// RegisterUniformBinding adds an entry to the application name table
// consulted first by GetUniformLocation. Both legacy and packed locations
// are accepted. Registering LocationNone removes the entry.
func (c *Context) RegisterUniformBinding(name string, loc Location) {
	if name == "" {
		c.setError(InvalidValue)
		return
	}
	if loc == LocationNone {
		delete(c.uniformBindings, name)
		return
	}
	if _, ok := decodeLocation(loc); !ok {
		c.setError(InvalidValue)
		return
	}
	c.uniformBindings[name] = loc
}

// RegisterBlockSize records the configured size of a packed block for
// lazy configuration when no translator reflection supplies one (the
// precompiled-binary path).
func (c *Context) RegisterBlockSize(stage ShaderType, binding, size int) {
	if binding < 0 || binding >= maxPackedBlocks || size <= 0 || size > packedBlockCap {
		c.setError(InvalidValue)
		return
	}
	c.blockSizes[blockKey{stage: stageIndex(stage), binding: binding}] = size
}

// GetUniformLocation resolves a uniform name against, in order: the
// application-registered table, the program's reflection registry, and the
// built-in name table. Returns LocationNone when all three miss.
//
// Resolving a packed location lazily configures (sizes and zeroes) the
// program's shadow block. A block that is written without ever being
// resolved here stays unconfigured and its writes are dropped.
func (c *Context) GetUniformLocation(program uint32, name string) Location {
	if !c.programs.InUse(program) {
		c.setError(InvalidOperation)
		return LocationNone
	}
	p := &c.programObjs[program]

	loc, ok := c.uniformBindings[name]
	if !ok {
		loc, ok = p.locations[name]
	}
	if !ok {
		loc, ok = builtinUniforms[name]
	}
	if !ok {
		return LocationNone
	}

	if addr, valid := decodeLocation(loc); valid {
		if pa, packed := addr.(packedAddr); packed {
			c.configureBlock(p, pa.stage, pa.binding)
		}
	}
	return loc
}

// configureBlock sizes and zeroes a packed block on first resolution. The
// size comes from the program's reflection when present, else from the
// registered size table.
func (c *Context) configureBlock(p *programObject, stage, binding int) {
	if binding < 0 || binding >= maxPackedBlocks {
		return
	}
	blk := &p.blocks[stage][binding]
	if blk.valid {
		return
	}
	size := 0
	if binding == translate.UniformBlockBinding {
		size = p.refl[stage].BlockSize
	}
	if size == 0 {
		size = c.blockSizes[blockKey{stage: stage, binding: binding}]
	}
	if size <= 0 || size > packedBlockCap {
		Logger().Warn("packed block not configurable", "stage", stage, "binding", binding, "size", size)
		return
	}
	blk.size = size
	clear(blk.data[:size])
	blk.valid = true
	blk.dirty = false
}

// Uniform1f writes one float.
func (c *Context) Uniform1f(loc Location, x float32) {
	c.uniformFloats(loc, 1, []float32{x})
}

// Uniform2f writes one vec2.
func (c *Context) Uniform2f(loc Location, x, y float32) {
	c.uniformFloats(loc, 2, []float32{x, y})
}

// Uniform3f writes one vec3.
func (c *Context) Uniform3f(loc Location, x, y, z float32) {
	c.uniformFloats(loc, 3, []float32{x, y, z})
}

// Uniform4f writes one vec4.
func (c *Context) Uniform4f(loc Location, x, y, z, w float32) {
	c.uniformFloats(loc, 4, []float32{x, y, z, w})
}

// Uniform1fv writes an array of floats.
func (c *Context) Uniform1fv(loc Location, v []float32) { c.uniformFloats(loc, 1, v) }

// Uniform2fv writes an array of vec2.
func (c *Context) Uniform2fv(loc Location, v []float32) { c.uniformFloats(loc, 2, v) }

// Uniform3fv writes an array of vec3.
func (c *Context) Uniform3fv(loc Location, v []float32) { c.uniformFloats(loc, 3, v) }

// Uniform4fv writes an array of vec4.
func (c *Context) Uniform4fv(loc Location, v []float32) { c.uniformFloats(loc, 4, v) }

// Uniform1i writes one int. On a sampler location the value selects the
// texture unit the sampler reads from.
func (c *Context) Uniform1i(loc Location, x int32) {
	if loc == LocationNone {
		return
	}
	addr, ok := decodeLocation(loc)
	if !ok {
		c.setError(InvalidOperation)
		return
	}
	p := c.currentProgramObject()
	if p == nil {
		return
	}
	if la, legacy := addr.(legacyAddr); legacy && la.slot < maxLegacySlots {
		slot := &p.legacy[la.stage][la.slot]
		if slot.isSampler {
			if x < 0 || x >= MaxTextureUnits {
				c.setError(InvalidValue)
				return
			}
			slot.unit = int(x)
			return
		}
	}
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(x))
	c.writeUniform(p, addr, raw, padElements(raw, 4), raw, 1)
}

// UniformMatrix2fv writes mat2 values, optionally transposed.
func (c *Context) UniformMatrix2fv(loc Location, transpose bool, v []float32) {
	c.uniformMatrices(loc, 2, transpose, v)
}

// UniformMatrix3fv writes mat3 values, optionally transposed.
func (c *Context) UniformMatrix3fv(loc Location, transpose bool, v []float32) {
	c.uniformMatrices(loc, 3, transpose, v)
}

// UniformMatrix4fv writes mat4 values, optionally transposed.
func (c *Context) UniformMatrix4fv(loc Location, transpose bool, v []float32) {
	c.uniformMatrices(loc, 4, transpose, v)
}

// uniformFloats is the shared vector write path. comps is the component
// count per element (1..4); len(v) must be a whole number of elements.
func (c *Context) uniformFloats(loc Location, comps int, v []float32) {
	if loc == LocationNone {
		return
	}
	if len(v) == 0 || len(v)%comps != 0 {
		c.setError(InvalidValue)
		return
	}
	addr, ok := decodeLocation(loc)
	if !ok {
		c.setError(InvalidOperation)
		return
	}
	p := c.currentProgramObject()
	if p == nil {
		return
	}
	raw := floatBytes(v)
	padded := padElements(raw, comps*4)
	// Inside a block a single vector occupies its natural size; only
	// arrays use the 16-byte element stride.
	packedData := raw
	if len(v)/comps > 1 {
		packedData = padded
	}
	c.writeUniform(p, addr, raw, padded, packedData, comps)
}

// uniformMatrices is the shared matrix write path. dim is the matrix
// dimension (2..4); each column pads to one 16-byte slot. Transposition is
// clamped to a fixed number of matrices to bound scratch usage.
func (c *Context) uniformMatrices(loc Location, dim int, transpose bool, v []float32) {
	if loc == LocationNone {
		return
	}
	elems := dim * dim
	if len(v) == 0 || len(v)%elems != 0 {
		c.setError(InvalidValue)
		return
	}
	addr, ok := decodeLocation(loc)
	if !ok {
		c.setError(InvalidOperation)
		return
	}
	p := c.currentProgramObject()
	if p == nil {
		return
	}
	count := len(v) / elems
	if transpose {
		if count > maxTransposedMatrices {
			count = maxTransposedMatrices
			v = v[:count*elems]
		}
		t := make([]float32, len(v))
		for m := 0; m < count; m++ {
			base := m * elems
			for col := 0; col < dim; col++ {
				for row := 0; row < dim; row++ {
					t[base+col*dim+row] = v[base+row*dim+col]
				}
			}
		}
		v = t
	}
	raw := floatBytes(v)
	padded := make([]byte, count*dim*uniformSlotBytes)
	for m := 0; m < count; m++ {
		for col := 0; col < dim; col++ {
			src := (m*elems + col*dim) * 4
			dst := (m*dim + col) * uniformSlotBytes
			copy(padded[dst:dst+dim*4], raw[src:src+dim*4])
		}
	}
	// Matrix columns keep the 16-byte stride inside blocks too.
	c.writeUniform(p, addr, raw, padded, padded, dim)
}

// writeUniform dispatches a resolved write. legacyData is the always
// slot-padded form for the region; packedData is the form matching the
// std140 placement inside a block.
func (c *Context) writeUniform(p *programObject, addr uniformAddr, raw, legacyData, packedData []byte, comps int) {
	switch a := addr.(type) {
	case legacyAddr:
		c.writeLegacy(p, a, raw, legacyData, comps)
	case packedAddr:
		c.writePacked(p, a, packedData)
	}
}

// writeLegacy allocates a fresh region offset and records the slot state.
func (c *Context) writeLegacy(p *programObject, a legacyAddr, raw, padded []byte, comps int) {
	if a.slot < 0 || a.slot >= maxLegacySlots {
		c.setError(InvalidOperation)
		return
	}
	slot := &p.legacy[a.stage][a.slot]
	if slot.isSampler {
		c.setError(InvalidOperation)
		return
	}
	offset, err := c.drv.AllocUniform(padded)
	if err != nil {
		Logger().Warn("uniform region exhausted", "err", err)
		c.setError(OutOfMemory)
		return
	}
	slot.used = true
	slot.dirty = true
	slot.offset = offset
	slot.alignedSize = len(padded)
	slot.dataSize = len(raw)
	slot.shadow = append(slot.shadow[:0], raw...)
	slot.components = comps
}

// writePacked patches the shadow block in place. Writes to an unconfigured
// block are silently dropped; out-of-bounds writes are dropped without
// touching adjacent blocks.
func (c *Context) writePacked(p *programObject, a packedAddr, data []byte) {
	if a.binding < 0 || a.binding >= maxPackedBlocks {
		return
	}
	blk := &p.blocks[a.stage][a.binding]
	if !blk.valid {
		Logger().Debug("write to unconfigured block dropped", "stage", a.stage, "binding", a.binding)
		return
	}
	if a.offset < 0 || a.offset+len(data) > blk.size {
		Logger().Warn("packed write out of bounds", "offset", a.offset, "size", len(data), "block", blk.size)
		return
	}
	copy(blk.data[a.offset:], data)
	blk.dirty = true
}

// GetUniformfv reads back the shadow copy of a uniform into dst. For a
// legacy location the raw bytes of the last write are returned; for a
// packed location the block shadow is read at the registered offset.
// Reports false when nothing readable exists.
func (c *Context) GetUniformfv(program uint32, loc Location, dst []float32) bool {
	if !c.programs.InUse(program) {
		c.setError(InvalidOperation)
		return false
	}
	addr, ok := decodeLocation(loc)
	if !ok {
		return false
	}
	p := &c.programObjs[program]
	switch a := addr.(type) {
	case legacyAddr:
		if a.slot < 0 || a.slot >= maxLegacySlots {
			return false
		}
		slot := &p.legacy[a.stage][a.slot]
		if !slot.used || slot.isSampler || len(slot.shadow) < len(dst)*4 {
			return false
		}
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(slot.shadow[i*4:]))
		}
		return true
	case packedAddr:
		if a.binding < 0 || a.binding >= maxPackedBlocks {
			return false
		}
		blk := &p.blocks[a.stage][a.binding]
		if !blk.valid || a.offset+len(dst)*4 > blk.size {
			return false
		}
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(blk.data[a.offset+i*4:]))
		}
		return true
	}
	return false
}

// currentProgramObject returns the current program record, recording
// InvalidOperation when no program is in use.
func (c *Context) currentProgramObject() *programObject {
	if c.currentProgram == 0 {
		c.setError(InvalidOperation)
		return nil
	}
	return &c.programObjs[c.currentProgram]
}

// floatBytes converts floats to little-endian bytes.
func floatBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// padElements rounds each element of elemSize bytes up to one 16-byte
// slot, the legacy region's element stride.
func padElements(raw []byte, elemSize int) []byte {
	if elemSize <= 0 {
		return nil
	}
	count := len(raw) / elemSize
	out := make([]byte, count*uniformSlotBytes)
	for i := 0; i < count; i++ {
		copy(out[i*uniformSlotBytes:], raw[i*elemSize:(i+1)*elemSize])
	}
	return out
}
