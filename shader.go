package glshim

import (
	"fmt"

	"github.com/gogpu/glshim/translate"
)

// shaderObject is the table record of one shader name.
type shaderObject struct {
	typ      ShaderType
	source   string
	infoLog  string
	compiled bool

	// binary holds a precompiled blob loaded via ShaderBinary; it bypasses
	// translation and the runtime compiler entirely.
	binary    []byte
	hasBinary bool
}

// CreateShader allocates a shader name of the given type. Returns 0 on
// table exhaustion or an invalid type.
func (c *Context) CreateShader(typ ShaderType) uint32 {
	if typ != VertexShader && typ != FragmentShader {
		c.setError(InvalidEnum)
		return 0
	}
	h := c.shaders.Alloc()
	if h == 0 {
		c.setError(OutOfMemory)
		return 0
	}
	c.shaderObjs[h] = shaderObject{typ: typ}
	return h
}

// DeleteShader frees a shader name. Invalid names are ignored.
func (c *Context) DeleteShader(id uint32) {
	if !c.shaders.InUse(id) {
		return
	}
	c.drv.DestroyShader(id)
	c.shaderObjs[id] = shaderObject{}
	c.shaders.Free(id)
}

// IsShader reports whether id names a live shader.
func (c *Context) IsShader(id uint32) bool {
	return c.shaders.InUse(id)
}

// ShaderSource replaces the source text of a shader.
func (c *Context) ShaderSource(id uint32, source string) {
	if !c.shaders.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	obj := &c.shaderObjs[id]
	obj.source = source
	obj.compiled = false
	obj.hasBinary = false
	obj.infoLog = ""
}

// ShaderBinary supplies a precompiled shader blob, bypassing translation
// and the runtime compiler. The blob is padded to the required 256-byte
// alignment at link time.
func (c *Context) ShaderBinary(id uint32, binary []byte) {
	if !c.shaders.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	if len(binary) == 0 {
		c.setError(InvalidValue)
		return
	}
	obj := &c.shaderObjs[id]
	obj.binary = append([]byte(nil), binary...)
	obj.hasBinary = true
	obj.compiled = true
	obj.infoLog = ""
}

// CompileShader checks the shader source against the translator. A failure
// is recorded in the info log only; it never sets the GL error code. The
// caller's subsequent link attempt is what surfaces as a GL-level failure.
func (c *Context) CompileShader(id uint32) {
	if !c.shaders.InUse(id) {
		c.setError(InvalidOperation)
		return
	}
	obj := &c.shaderObjs[id]
	if obj.hasBinary {
		return
	}
	if obj.source == "" {
		obj.compiled = false
		obj.infoLog = "no source"
		return
	}
	_, err := translate.Translate(obj.source, translate.Options{Stage: translateStage(obj.typ)})
	if err != nil {
		obj.compiled = false
		obj.infoLog = err.Error()
		Logger().Debug("shader translation failed", "id", id, "err", err)
		return
	}
	obj.compiled = true
	obj.infoLog = ""
}

// GetShaderCompileStatus reports whether the last compile succeeded.
func (c *Context) GetShaderCompileStatus(id uint32) bool {
	if !c.shaders.InUse(id) {
		c.setError(InvalidOperation)
		return false
	}
	return c.shaderObjs[id].compiled
}

// GetShaderInfoLog returns the diagnostics of the last compile.
func (c *Context) GetShaderInfoLog(id uint32) string {
	if !c.shaders.InUse(id) {
		c.setError(InvalidOperation)
		return ""
	}
	return c.shaderObjs[id].infoLog
}

// translateStage maps a shader type to the translator's stage.
func translateStage(t ShaderType) translate.Stage {
	if t == FragmentShader {
		return translate.StageFragment
	}
	return translate.StageVertex
}

// shaderBinaryAlign is the alignment compiled binaries must satisfy before
// upload; the blob's internal pointer encoding requires it.
const shaderBinaryAlign = 256

// alignShaderBinary pads a compiled blob to a whole multiple of the upload
// alignment, copying so the caller's slice is never retained.
func alignShaderBinary(blob []byte) []byte {
	padded := (len(blob) + shaderBinaryAlign - 1) / shaderBinaryAlign * shaderBinaryAlign
	out := make([]byte, padded)
	copy(out, blob)
	return out
}

// compileStageBinary converts translated source to a device binary through
// the configured compiler.
func (c *Context) compileStageBinary(source string, typ ShaderType) ([]byte, error) {
	if c.compiler == nil {
		return nil, fmt.Errorf("no shader compiler configured")
	}
	blob, err := c.compiler.Compile(source, typ)
	if err != nil {
		return nil, err
	}
	return alignShaderBinary(blob), nil
}
