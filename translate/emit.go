package translate

import (
	"fmt"
	"strings"
)

// emit renders the translated source. Declaration lines are rewritten in
// place; every other line is preserved verbatim apart from identifier
// substitutions. The uniform block is emitted at the position of the first
// non-sampler uniform declaration (members are in block layout order, not
// declaration order, so individual uniform lines cannot be rewritten 1:1).
func emit(lines []string, decls []decl, declAt map[int]int, refl *Reflection, opts Options) string {
	attribLoc := map[string]int{}
	for _, a := range refl.Attributes {
		attribLoc[a.Name] = a.Location
	}
	varyingLoc := map[string]int{}
	for _, v := range refl.Varyings {
		varyingLoc[v.Name] = v.Location
	}
	samplerBinding := map[string]int{}
	for _, s := range refl.Samplers {
		samplerBinding[s.Name] = s.Binding
	}

	usesFragColor := opts.Stage == StageFragment && referencesFragColor(lines)

	var b strings.Builder
	b.WriteString("#version 450\n")
	if usesFragColor {
		fmt.Fprintf(&b, "layout(location = 0) out vec4 %s;\n", fragColorName)
	}

	blockEmitted := false
	for i, line := range lines {
		di, isDecl := declAt[i]
		if !isDecl {
			b.WriteString(substituteLine(line, usesFragColor))
			b.WriteByte('\n')
			continue
		}
		d := decls[di]
		switch d.kind {
		case declVersion, declExtension, declPrecision:
			// Dropped; the emitted header replaces them.
		case declAttribute:
			for _, n := range d.names {
				fmt.Fprintf(&b, "layout(location = %d) in %s %s;\n", attribLoc[n.name], d.typ, n.name)
			}
		case declVarying:
			dir := "out"
			if opts.Stage == StageFragment {
				dir = "in"
			}
			for _, n := range d.names {
				fmt.Fprintf(&b, "layout(location = %d) %s %s %s;\n", varyingLoc[n.name], dir, d.typ, n.name)
			}
		case declUniform:
			if d.typ.IsSampler() {
				for _, n := range d.names {
					fmt.Fprintf(&b, "layout(binding = %d) uniform %s %s;\n", samplerBinding[n.name], d.typ, n.name)
				}
				continue
			}
			if blockEmitted || len(refl.Uniforms) == 0 {
				continue
			}
			emitUniformBlock(&b, refl, opts.Stage)
			blockEmitted = true
		}
	}

	// Trailing newline handling: strings.Split of "a\nb\n" yields a final
	// empty element which the loop re-emits, so trim one duplicate.
	out := b.String()
	if strings.HasSuffix(out, "\n\n") && strings.HasSuffix(strings.Join(lines, "\n"), "\n") {
		out = out[:len(out)-1]
	}
	return out
}

// emitUniformBlock writes the per-stage std140 block. Members appear in
// layout order; the block has no instance name so body references remain
// unqualified.
func emitUniformBlock(b *strings.Builder, refl *Reflection, stage Stage) {
	name := "VertexUniforms"
	if stage == StageFragment {
		name = "FragmentUniforms"
	}
	fmt.Fprintf(b, "layout(std140, binding = %d) uniform %s {\n", UniformBlockBinding, name)
	for _, u := range refl.Uniforms {
		if u.ArrayLen > 0 {
			fmt.Fprintf(b, "    %s %s[%d];\n", u.Type, u.Name, u.ArrayLen)
		} else {
			fmt.Fprintf(b, "    %s %s;\n", u.Type, u.Name)
		}
	}
	b.WriteString("};\n")
}

// referencesFragColor reports whether any body line mentions gl_FragColor
// or gl_FragData[0].
func referencesFragColor(lines []string) bool {
	for _, line := range lines {
		if containsIdent(line, "gl_FragColor") || strings.Contains(line, "gl_FragData[0]") {
			return true
		}
	}
	return false
}

// substituteLine applies the identifier-level rewrites to a body line:
// deprecated texture sampling call names, and the legacy fragment output
// variable when the shader references it.
func substituteLine(line string, renameFragColor bool) string {
	line = replaceIdent(line, "texture2DProj", "textureProj")
	line = replaceIdent(line, "texture2D", "texture")
	line = replaceIdent(line, "textureCube", "texture")
	if renameFragColor {
		line = strings.ReplaceAll(line, "gl_FragData[0]", fragColorName)
		line = replaceIdent(line, "gl_FragColor", fragColorName)
	}
	return line
}

// identByte reports whether c can appear in a GLSL identifier.
func identByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// containsIdent reports whether line contains ident as a whole identifier.
func containsIdent(line, ident string) bool {
	for from := 0; ; {
		i := strings.Index(line[from:], ident)
		if i < 0 {
			return false
		}
		i += from
		before := i == 0 || !identByte(line[i-1])
		afterIdx := i + len(ident)
		after := afterIdx >= len(line) || !identByte(line[afterIdx])
		if before && after {
			return true
		}
		from = i + 1
	}
}

// replaceIdent replaces whole-identifier occurrences of old with new.
// Substrings of longer identifiers are left alone.
func replaceIdent(line, old, new string) string {
	var b strings.Builder
	from := 0
	for {
		i := strings.Index(line[from:], old)
		if i < 0 {
			b.WriteString(line[from:])
			return b.String()
		}
		i += from
		before := i == 0 || !identByte(line[i-1])
		afterIdx := i + len(old)
		after := afterIdx >= len(line) || !identByte(line[afterIdx])
		b.WriteString(line[from:i])
		if before && after {
			b.WriteString(new)
		} else {
			b.WriteString(old)
		}
		from = afterIdx
	}
}
