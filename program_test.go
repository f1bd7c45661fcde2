package glshim

import (
	"strings"
	"testing"
)

// staticCompiler stands in for the SPIR-V compiler collaborator; the mock
// driver never inspects the blob.
type staticCompiler struct{}

func (staticCompiler) Compile(source string, stage ShaderType) ([]byte, error) {
	return []byte(source), nil
}

const testVertexSource = `attribute vec3 a_position;
attribute vec2 a_texCoord;
varying vec2 v_texCoord;
uniform mat4 u_mvp;
void main() {
    v_texCoord = a_texCoord;
    gl_Position = u_mvp * vec4(a_position, 1.0);
}`

const testFragmentSource = `precision mediump float;
varying vec2 v_texCoord;
uniform sampler2D u_tex;
uniform vec4 u_tint;
void main() {
    gl_FragColor = texture2D(u_tex, v_texCoord) * u_tint;
}`

// newSourceContext builds a context with a compiler so source-path linking
// works, then links the canonical textured program.
func newSourceContext(t *testing.T) (*Context, *mockDriver, uint32) {
	t.Helper()
	drv := newMockDriver()
	c, err := NewContext(drv, Config{Width: 64, Height: 64, Compiler: staticCompiler{}})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	vs := c.CreateShader(VertexShader)
	fs := c.CreateShader(FragmentShader)
	c.ShaderSource(vs, testVertexSource)
	c.ShaderSource(fs, testFragmentSource)
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)
	if !c.GetProgramLinkStatus(prog) {
		t.Fatalf("link failed: %s", c.GetProgramInfoLog(prog))
	}
	c.UseProgram(prog)
	return c, drv, prog
}

func TestLinkRequiresBothStages(t *testing.T) {
	c, _ := newTestContext(t)
	vs := c.CreateShader(VertexShader)
	c.ShaderBinary(vs, []byte{1})
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.LinkProgram(prog)
	if c.GetProgramLinkStatus(prog) {
		t.Fatal("link succeeded with one stage")
	}
	if log := c.GetProgramInfoLog(prog); !strings.Contains(log, "stages") {
		t.Errorf("info log = %q", log)
	}
}

func TestPrecompiledBinariesArePaddedForUpload(t *testing.T) {
	c, drv := newTestContext(t)
	vs := c.CreateShader(VertexShader)
	fs := c.CreateShader(FragmentShader)
	c.ShaderBinary(vs, make([]byte, 300))
	c.ShaderBinary(fs, []byte{9})
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)
	if !c.GetProgramLinkStatus(prog) {
		t.Fatalf("link failed: %s", c.GetProgramInfoLog(prog))
	}
	if got := len(drv.shaders[vs]); got != 512 {
		t.Errorf("vertex binary uploaded as %d bytes, want 512", got)
	}
	if got := len(drv.shaders[fs]); got != 256 {
		t.Errorf("fragment binary uploaded as %d bytes, want 256", got)
	}
}

func TestUseProgramRequiresLinked(t *testing.T) {
	c, _ := newTestContext(t)
	prog := c.CreateProgram()
	c.UseProgram(prog)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("error = %v, want InvalidOperation", got)
	}
	c.UseProgram(0) // unbinding is always allowed
	if got := c.GetError(); got != NoError {
		t.Errorf("UseProgram(0) error = %v", got)
	}
}

func TestSourceLinkRegistersReflection(t *testing.T) {
	c, drv, prog := newSourceContext(t)

	if loc := c.GetAttribLocation(prog, "a_position"); loc != 0 {
		t.Errorf("a_position location = %d, want 0", loc)
	}
	if loc := c.GetAttribLocation(prog, "a_texCoord"); loc != 1 {
		t.Errorf("a_texCoord location = %d, want 1", loc)
	}
	if loc := c.GetAttribLocation(prog, "a_missing"); loc != -1 {
		t.Errorf("unknown attribute location = %d, want -1", loc)
	}

	// The block member resolves to a packed location at the translator's
	// std140 offset, and resolution configures the block.
	loc := c.GetUniformLocation(prog, "u_mvp")
	addr, ok := decodeLocation(loc)
	if !ok {
		t.Fatal("u_mvp did not resolve")
	}
	pa, isPacked := addr.(packedAddr)
	if !isPacked {
		t.Fatalf("u_mvp resolved to %T, want packedAddr", addr)
	}
	if pa.stage != 0 || pa.offset != 0 {
		t.Errorf("u_mvp address = %+v", pa)
	}

	layout := drv.programs[prog]
	if layout.BlockSizes[0] != 64 {
		t.Errorf("vertex block size = %d, want 64 (one mat4)", layout.BlockSizes[0])
	}
	if layout.SamplerCount[1] != 1 {
		t.Errorf("fragment sampler count = %d, want 1", layout.SamplerCount[1])
	}
	if len(layout.Attribs) != 2 {
		t.Errorf("layout attribs = %d, want 2", len(layout.Attribs))
	}
}

func TestSamplerUniformSelectsTextureUnit(t *testing.T) {
	c, drv, prog := newSourceContext(t)

	texLoc := c.GetUniformLocation(prog, "u_tex")
	if texLoc == LocationNone {
		t.Fatal("u_tex did not resolve")
	}

	ids := c.GenTextures(1)
	c.ActiveTexture(2)
	c.BindTexture(Texture2D, ids[0])
	c.TexImage2D(Texture2D, 0, 0, 4, 4, FormatRGBA, make([]byte, 64))

	c.Uniform1i(texLoc, 2)
	c.EnableVertexAttribArray(0)
	c.VertexAttribPointerClient(0, 3, AttribFloat, false, 0, make([]byte, 36))
	c.EnableVertexAttribArray(1)
	c.VertexAttribPointerClient(1, 2, AttribFloat, false, 0, make([]byte, 24))
	c.DrawArrays(Triangles, 0, 3)

	if len(drv.draws) != 1 {
		t.Fatalf("draws = %d, want 1 (err=%v)", len(drv.draws), c.GetError())
	}
	texBinds := drv.draws[0].Textures
	if len(texBinds) != 1 {
		t.Fatalf("texture bindings = %d, want 1", len(texBinds))
	}
	tb := texBinds[0]
	if tb.Stage != FragmentShader || tb.Binding != 0 || tb.Texture != ids[0] {
		t.Errorf("texture binding = %+v", tb)
	}

	// Out-of-range unit indices are rejected.
	c.Uniform1i(texLoc, MaxTextureUnits)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("bad unit error = %v, want InvalidValue", got)
	}
}

func TestBindAttribLocationAppliesAtLink(t *testing.T) {
	drv := newMockDriver()
	c, err := NewContext(drv, Config{Compiler: staticCompiler{}})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	vs := c.CreateShader(VertexShader)
	fs := c.CreateShader(FragmentShader)
	c.ShaderSource(vs, testVertexSource)
	c.ShaderSource(fs, testFragmentSource)
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.BindAttribLocation(prog, 3, "a_position")
	c.LinkProgram(prog)
	if !c.GetProgramLinkStatus(prog) {
		t.Fatalf("link failed: %s", c.GetProgramInfoLog(prog))
	}
	if loc := c.GetAttribLocation(prog, "a_position"); loc != 3 {
		t.Errorf("pinned location = %d, want 3", loc)
	}
	// The unpinned attribute avoids the occupied slot.
	if loc := c.GetAttribLocation(prog, "a_texCoord"); loc == 3 {
		t.Error("a_texCoord collided with the pinned slot")
	}
}

func TestDeleteProgramUnbindsCurrent(t *testing.T) {
	c, drv := newTestContext(t)
	prog := linkTestProgram(t, c)

	c.DeleteProgram(prog)
	if c.IsProgram(prog) {
		t.Error("program still live after delete")
	}
	if _, ok := drv.programs[prog]; ok {
		t.Error("driver program not destroyed")
	}

	// The current binding was cleared, so a draw now fails.
	c.DrawArrays(Triangles, 0, 3)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("draw after delete error = %v, want InvalidOperation", got)
	}
}

func TestCompileShaderReportsTranslationFailure(t *testing.T) {
	c, _ := newTestContext(t)
	vs := c.CreateShader(VertexShader)
	c.ShaderSource(vs, "uniform unknowntype u_x;\nvoid main() {}")
	c.CompileShader(vs)
	if c.GetShaderCompileStatus(vs) {
		t.Fatal("compile succeeded on an unsupported type")
	}
	if log := c.GetShaderInfoLog(vs); log == "" {
		t.Error("empty info log after failed compile")
	}
	// Compile failures never touch the GL error channel.
	if got := c.GetError(); got != NoError {
		t.Errorf("error = %v, want NoError", got)
	}
}
