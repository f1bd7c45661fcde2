package glshim

import "testing"

func TestUniformWriteRequiresProgram(t *testing.T) {
	c, _ := newTestContext(t)
	c.Uniform1f(LegacyLocation(VertexShader, 0), 1)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("error = %v, want InvalidOperation", got)
	}
}

func TestUniformLocationNoneIsIgnored(t *testing.T) {
	c, _ := newTestContext(t)
	linkTestProgram(t, c)
	c.Uniform4f(LocationNone, 1, 2, 3, 4)
	c.UniformMatrix4fv(LocationNone, false, make([]float32, 16))
	c.Uniform1i(LocationNone, 3)
	if got := c.GetError(); got != NoError {
		t.Errorf("error = %v, want NoError", got)
	}
}

func TestUniformVectorLengthValidation(t *testing.T) {
	c, _ := newTestContext(t)
	linkTestProgram(t, c)
	loc := LegacyLocation(VertexShader, 0)

	c.Uniform3fv(loc, []float32{1, 2}) // not a whole vec3
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("ragged vec3 error = %v, want InvalidValue", got)
	}
	c.UniformMatrix4fv(loc, false, make([]float32, 15))
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("ragged mat4 error = %v, want InvalidValue", got)
	}
}

func TestLegacyWritesAllocateFreshOffsets(t *testing.T) {
	c, drv := newTestContext(t)
	linkTestProgram(t, c)
	c.EnableVertexAttribArray(0)
	c.VertexAttribPointerClient(0, 3, AttribFloat, false, 0, make([]byte, 36))

	mat := make([]float32, 16)
	loc := builtinUniforms["u_mvpMatrix"]

	c.UniformMatrix4fv(loc, false, mat)
	c.DrawArrays(Triangles, 0, 3)
	c.UniformMatrix4fv(loc, false, mat)
	c.DrawArrays(Triangles, 0, 3)

	if len(drv.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(drv.draws))
	}
	first := drv.draws[0].Uniforms
	second := drv.draws[1].Uniforms
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("uniform segments = %d,%d, want 1,1", len(first), len(second))
	}
	if first[0].Offset == second[0].Offset {
		t.Error("rewrite reused the previous region offset")
	}
	if first[0].Size != 64 {
		t.Errorf("mat4 segment size = %d, want 64", first[0].Size)
	}
	if first[0].Stage != VertexShader || first[0].Slot != 0 {
		t.Errorf("segment address = %+v, want vertex slot 0", first[0])
	}
}

func TestGetUniformfvReadsLegacyShadow(t *testing.T) {
	c, _ := newTestContext(t)
	prog := linkTestProgram(t, c)

	loc := builtinUniforms["u_color"]
	c.Uniform4f(loc, 0.25, 0.5, 0.75, 1)

	got := make([]float32, 4)
	if !c.GetUniformfv(prog, loc, got) {
		t.Fatal("GetUniformfv reported no data")
	}
	want := [4]float32{0.25, 0.5, 0.75, 1}
	if [4]float32(got) != want {
		t.Errorf("readback = %v, want %v", got, want)
	}

	// An unwritten slot has nothing readable.
	if c.GetUniformfv(prog, LegacyLocation(VertexShader, 7), got) {
		t.Error("readback succeeded on an unwritten slot")
	}
}

func TestMatrixTransposeSwapsRowsAndColumns(t *testing.T) {
	c, _ := newTestContext(t)
	prog := linkTestProgram(t, c)
	loc := builtinUniforms["u_mvpMatrix"]

	c.UniformMatrix2fv(loc, true, []float32{1, 2, 3, 4})

	got := make([]float32, 4)
	if !c.GetUniformfv(prog, loc, got) {
		t.Fatal("no shadow data")
	}
	want := [4]float32{1, 3, 2, 4}
	if [4]float32(got) != want {
		t.Errorf("transposed mat2 = %v, want %v", got, want)
	}
}

func TestPackedWriteToUnconfiguredBlockDropped(t *testing.T) {
	c, _ := newTestContext(t)
	prog := linkTestProgram(t, c)

	loc := PackedLocation(VertexShader, 1, 0)
	c.Uniform4f(loc, 1, 2, 3, 4)
	if got := c.GetError(); got != NoError {
		t.Errorf("unconfigured write recorded error %v", got)
	}
	if c.GetUniformfv(prog, loc, make([]float32, 4)) {
		t.Error("unconfigured block returned data")
	}
}

func TestRegisterBlockSizeConfiguresLazily(t *testing.T) {
	c, drv := newTestContext(t)
	prog := linkTestProgram(t, c)

	c.RegisterBlockSize(VertexShader, 1, 64)
	c.RegisterUniformBinding("u_material", PackedLocation(VertexShader, 1, 16))

	// Resolution through GetUniformLocation is what configures the block.
	loc := c.GetUniformLocation(prog, "u_material")
	if loc == LocationNone {
		t.Fatal("registered name did not resolve")
	}
	c.Uniform4f(loc, 5, 6, 7, 8)

	got := make([]float32, 4)
	if !c.GetUniformfv(prog, loc, got) {
		t.Fatal("packed readback failed")
	}
	if [4]float32(got) != [4]float32{5, 6, 7, 8} {
		t.Errorf("packed readback = %v", got)
	}

	c.DrawArrays(Triangles, 0, 3)
	if len(drv.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(drv.draws))
	}
	blocks := drv.draws[0].Blocks
	if len(blocks) != 1 {
		t.Fatalf("block pushes = %d, want 1", len(blocks))
	}
	b := blocks[0]
	if b.Stage != VertexShader || b.Binding != 1 || len(b.Data) != 64 {
		t.Errorf("block push = stage %v binding %d len %d", b.Stage, b.Binding, len(b.Data))
	}
}

func TestPackedWriteOutOfBoundsDropped(t *testing.T) {
	c, _ := newTestContext(t)
	prog := linkTestProgram(t, c)

	c.RegisterBlockSize(FragmentShader, 1, 32)
	c.RegisterUniformBinding("u_edge", PackedLocation(FragmentShader, 1, 24))
	loc := c.GetUniformLocation(prog, "u_edge")

	// A vec4 at offset 24 would run past the 32-byte block.
	c.Uniform4f(loc, 1, 2, 3, 4)
	if got := c.GetError(); got != NoError {
		t.Errorf("out-of-bounds packed write recorded error %v", got)
	}
	got := make([]float32, 2)
	if !c.GetUniformfv(prog, loc, got) {
		t.Fatal("in-bounds readback failed")
	}
	if got[0] != 0 || got[1] != 0 {
		t.Errorf("dropped write left data %v", got)
	}
}

func TestRegisterUniformBindingOverridesAndRemoves(t *testing.T) {
	c, _ := newTestContext(t)
	prog := linkTestProgram(t, c)

	// The application table shadows the built-in name.
	override := LegacyLocation(FragmentShader, 5)
	c.RegisterUniformBinding("u_color", override)
	if loc := c.GetUniformLocation(prog, "u_color"); loc != override {
		t.Errorf("resolved %#x, want the registered override", uint32(loc))
	}

	// Registering LocationNone removes the entry; the builtin shows again.
	c.RegisterUniformBinding("u_color", LocationNone)
	if loc := c.GetUniformLocation(prog, "u_color"); loc != builtinUniforms["u_color"] {
		t.Errorf("resolved %#x after removal, want the builtin", uint32(loc))
	}

	c.RegisterUniformBinding("", LegacyLocation(VertexShader, 0))
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("empty name error = %v, want InvalidValue", got)
	}
}

func TestGetUniformLocationMissReturnsNone(t *testing.T) {
	c, _ := newTestContext(t)
	prog := linkTestProgram(t, c)
	if loc := c.GetUniformLocation(prog, "u_doesNotExist"); loc != LocationNone {
		t.Errorf("unknown name resolved to %#x", uint32(loc))
	}
	if got := c.GetError(); got != NoError {
		t.Errorf("miss recorded error %v", got)
	}

	c.GetUniformLocation(999, "u_color")
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("bad program error = %v, want InvalidOperation", got)
	}
}
