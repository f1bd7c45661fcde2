package glshim

import (
	"fmt"

	"github.com/gogpu/glshim/translate"
)

const (
	// maxLegacySlots is the per-stage legacy uniform slot array size.
	maxLegacySlots = 64

	// maxPackedBlocks is the per-stage packed block array size.
	maxPackedBlocks = 2

	// packedBlockCap is the fixed shadow capacity of one packed block.
	// Configured sizes beyond this leave the block unconfigured.
	packedBlockCap = 4096

	// samplerSlotBase is the first legacy slot used for sampler uniforms
	// at link time. Slots below it are reserved for the built-in name
	// table so the two allocation schemes never collide.
	samplerSlotBase = 8
)

// legacySlot is one per-stage legacy uniform binding. Besides the current
// GPU region offset it keeps a shadow copy of the raw write, enabling
// read-back queries without touching GPU memory.
type legacySlot struct {
	used  bool
	dirty bool

	// offset is the region offset of the most recent write. Every write
	// allocates a fresh offset; earlier offsets stay valid for draws
	// already recorded against them.
	offset      uint32
	alignedSize int
	dataSize    int

	shadow     []byte
	components int

	// isSampler marks slots that carry a texture unit index instead of
	// region data.
	isSampler      bool
	samplerBinding int
	unit           int
}

// packedBlock is one per-stage shadow uniform block. Writes patch data in
// place; the whole block is pushed as one unit at draw time.
type packedBlock struct {
	valid bool
	dirty bool
	size  int
	data  [packedBlockCap]byte
}

// programObject is the table record of one program name.
type programObject struct {
	vertexShader   uint32
	fragmentShader uint32
	linked         bool
	infoLog        string

	// attribBindings holds BindAttribLocation requests applied at link.
	attribBindings map[string]int

	refl [stageCount]translate.Reflection

	// locations is the reflection-derived name registry consulted by
	// GetUniformLocation after the application table.
	locations map[string]Location

	legacy [stageCount][maxLegacySlots]legacySlot
	blocks [stageCount][maxPackedBlocks]packedBlock
}

// CreateProgram allocates a program name. Returns 0 on table exhaustion.
func (c *Context) CreateProgram() uint32 {
	h := c.programs.Alloc()
	if h == 0 {
		c.setError(OutOfMemory)
		return 0
	}
	c.programObjs[h] = programObject{
		attribBindings: make(map[string]int),
		locations:      make(map[string]Location),
	}
	return h
}

// DeleteProgram frees a program name. Invalid names are ignored; deleting
// the current program unbinds it.
func (c *Context) DeleteProgram(id uint32) {
	if !c.programs.InUse(id) {
		return
	}
	if c.currentProgram == id {
		c.currentProgram = 0
	}
	if c.programObjs[id].linked {
		c.drv.DestroyProgram(id)
	}
	c.programObjs[id] = programObject{}
	c.programs.Free(id)
}

// IsProgram reports whether id names a live program.
func (c *Context) IsProgram(id uint32) bool {
	return c.programs.InUse(id)
}

// AttachShader attaches a shader to a program, replacing any shader of the
// same type.
func (c *Context) AttachShader(program, shader uint32) {
	if !c.programs.InUse(program) || !c.shaders.InUse(shader) {
		c.setError(InvalidOperation)
		return
	}
	p := &c.programObjs[program]
	switch c.shaderObjs[shader].typ {
	case VertexShader:
		p.vertexShader = shader
	case FragmentShader:
		p.fragmentShader = shader
	}
}

// BindAttribLocation pins an attribute name to a location for the next
// link. It has no effect on an already linked program until relink.
func (c *Context) BindAttribLocation(program uint32, location int, name string) {
	if !c.programs.InUse(program) {
		c.setError(InvalidOperation)
		return
	}
	if location < 0 || location >= MaxVertexAttribs || name == "" {
		c.setError(InvalidValue)
		return
	}
	c.programObjs[program].attribBindings[name] = location
}

// GetAttribLocation returns the linked location of a vertex attribute, or
// -1 when the name is unknown or the program is not linked.
func (c *Context) GetAttribLocation(program uint32, name string) int {
	if !c.programs.InUse(program) {
		c.setError(InvalidOperation)
		return -1
	}
	p := &c.programObjs[program]
	if !p.linked {
		return -1
	}
	for _, a := range p.refl[0].Attributes {
		if a.Name == name {
			return a.Location
		}
	}
	return -1
}

// LinkProgram translates both attached shaders, compiles them through the
// configured compiler (or loads their precompiled binaries), registers the
// reflection-derived uniform locations and hands the resolved layout to
// the driver. Failure is recorded in the program info log; the program
// stays unlinked and draws with it raise InvalidOperation.
func (c *Context) LinkProgram(id uint32) {
	if !c.programs.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	p := &c.programObjs[id]
	p.linked = false
	p.infoLog = ""
	if err := c.linkProgram(id, p); err != nil {
		p.infoLog = err.Error()
		Logger().Debug("program link failed", "id", id, "err", err)
		return
	}
	p.linked = true
}

func (c *Context) linkProgram(id uint32, p *programObject) error {
	if p.vertexShader == 0 || p.fragmentShader == 0 {
		return fmt.Errorf("both shader stages must be attached")
	}
	vs := &c.shaderObjs[p.vertexShader]
	fs := &c.shaderObjs[p.fragmentShader]

	var vsBin, fsBin []byte
	p.refl = [stageCount]translate.Reflection{}

	if vs.hasBinary && fs.hasBinary {
		// Precompiled path: no reflection exists; uniforms resolve only
		// through the application-registered tables.
		vsBin = alignShaderBinary(vs.binary)
		fsBin = alignShaderBinary(fs.binary)
	} else {
		if vs.source == "" || fs.source == "" {
			return fmt.Errorf("attached shader has no source")
		}
		vres, err := translate.Translate(vs.source, translate.Options{
			Stage:           translate.StageVertex,
			AttribLocations: p.attribBindings,
		})
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		varyings := make(map[string]int, len(vres.Reflection.Varyings))
		for _, v := range vres.Reflection.Varyings {
			varyings[v.Name] = v.Location
		}
		fres, err := translate.Translate(fs.source, translate.Options{
			Stage:            translate.StageFragment,
			VaryingLocations: varyings,
		})
		if err != nil {
			return fmt.Errorf("fragment: %w", err)
		}
		p.refl[0] = vres.Reflection
		p.refl[1] = fres.Reflection

		if vsBin, err = c.compileStageBinary(vres.Source, VertexShader); err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		if fsBin, err = c.compileStageBinary(fres.Source, FragmentShader); err != nil {
			return fmt.Errorf("fragment: %w", err)
		}
	}

	if err := c.drv.LoadShaderBinary(p.vertexShader, VertexShader, vsBin); err != nil {
		return fmt.Errorf("vertex binary load: %w", err)
	}
	if err := c.drv.LoadShaderBinary(p.fragmentShader, FragmentShader, fsBin); err != nil {
		return fmt.Errorf("fragment binary load: %w", err)
	}

	p.locations = make(map[string]Location)
	p.legacy = [stageCount][maxLegacySlots]legacySlot{}
	p.blocks = [stageCount][maxPackedBlocks]packedBlock{}
	layout := &ProgramLayout{}

	for si := 0; si < stageCount; si++ {
		stage := stageFromIndex(si)
		refl := &p.refl[si]

		// Block members register the exact std140 offsets the translator
		// emitted. These are packed-mode locations; the block itself is
		// configured lazily on first resolution.
		for _, u := range refl.Uniforms {
			p.locations[u.Name] = PackedLocation(stage, translate.UniformBlockBinding, u.Offset)
		}
		layout.BlockSizes[si] = refl.BlockSize

		// Samplers occupy legacy slots above the built-in reserve.
		for i, s := range refl.Samplers {
			slot := samplerSlotBase + i
			if slot >= maxLegacySlots {
				return fmt.Errorf("too many samplers in %s stage", stage.stageName())
			}
			p.legacy[si][slot] = legacySlot{
				used:           true,
				isSampler:      true,
				samplerBinding: s.Binding,
			}
			p.locations[s.Name] = LegacyLocation(stage, slot)
		}
		layout.SamplerCount[si] = len(refl.Samplers)
	}

	for _, a := range p.refl[0].Attributes {
		layout.Attribs = append(layout.Attribs, AttribLayout{Name: a.Name, Location: a.Location})
	}

	if err := c.drv.LinkProgram(id, p.vertexShader, p.fragmentShader, layout); err != nil {
		return fmt.Errorf("driver link: %w", err)
	}
	return nil
}

// GetProgramLinkStatus reports whether the last link succeeded.
func (c *Context) GetProgramLinkStatus(id uint32) bool {
	if !c.programs.InUse(id) {
		c.setError(InvalidOperation)
		return false
	}
	return c.programObjs[id].linked
}

// GetProgramInfoLog returns the diagnostics of the last link.
func (c *Context) GetProgramInfoLog(id uint32) string {
	if !c.programs.InUse(id) {
		c.setError(InvalidOperation)
		return ""
	}
	return c.programObjs[id].infoLog
}

// UseProgram selects the program subsequent uniform writes and draws
// target. Program 0 unbinds.
func (c *Context) UseProgram(id uint32) {
	if id != 0 {
		if !c.programs.InUse(id) {
			c.setError(InvalidOperation)
			return
		}
		if !c.programObjs[id].linked {
			c.setError(InvalidOperation)
			return
		}
	}
	c.currentProgram = id
}

// stageFromIndex is the inverse of stageIndex.
func stageFromIndex(i int) ShaderType {
	if i == 1 {
		return FragmentShader
	}
	return VertexShader
}

// stageName returns the lower-case stage name for diagnostics.
func (t ShaderType) stageName() string {
	if t == FragmentShader {
		return "fragment"
	}
	return "vertex"
}
