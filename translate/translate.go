// Package translate converts legacy GLSL ES 1.00 shader source into the
// explicit-binding dialect consumed by the shader compiler collaborator
// (#version 450, layout-qualified inputs/outputs, one std140 uniform block
// per stage, numbered sampler bindings).
//
// Translate is a pure function: text in, text plus reflection out, no shared
// state. The reflection carries the exact attribute/varying locations and
// std140 member offsets the emitted source was built with; the uniform
// binding layer registers these offsets verbatim, so the two sides can never
// disagree about layout.
//
// The parser is a line scanner, not a grammar. It recognizes declaration
// lines (attribute, varying, uniform, precision, #version, #extension) and
// passes every other line through unchanged except for identifier-level
// substitutions (texture2D/textureCube call names, gl_FragColor).
package translate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	// StageVertex is the vertex shader stage.
	StageVertex Stage = iota

	// StageFragment is the fragment shader stage.
	StageFragment
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// DataType enumerates the GLSL types the translator understands.
type DataType int

// Data types. Sampler types never join the uniform block; they receive
// sequential binding numbers instead.
const (
	TypeFloat DataType = iota + 1
	TypeInt
	TypeBool
	TypeVec2
	TypeVec3
	TypeVec4
	TypeIVec2
	TypeIVec3
	TypeIVec4
	TypeBVec2
	TypeBVec3
	TypeBVec4
	TypeMat2
	TypeMat3
	TypeMat4
	TypeSampler2D
	TypeSamplerCube
)

var typeNames = map[string]DataType{
	"float":       TypeFloat,
	"int":         TypeInt,
	"bool":        TypeBool,
	"vec2":        TypeVec2,
	"vec3":        TypeVec3,
	"vec4":        TypeVec4,
	"ivec2":       TypeIVec2,
	"ivec3":       TypeIVec3,
	"ivec4":       TypeIVec4,
	"bvec2":       TypeBVec2,
	"bvec3":       TypeBVec3,
	"bvec4":       TypeBVec4,
	"mat2":        TypeMat2,
	"mat3":        TypeMat3,
	"mat4":        TypeMat4,
	"sampler2D":   TypeSampler2D,
	"samplerCube": TypeSamplerCube,
}

var typeSpellings = map[DataType]string{
	TypeFloat:       "float",
	TypeInt:         "int",
	TypeBool:        "bool",
	TypeVec2:        "vec2",
	TypeVec3:        "vec3",
	TypeVec4:        "vec4",
	TypeIVec2:       "ivec2",
	TypeIVec3:       "ivec3",
	TypeIVec4:       "ivec4",
	TypeBVec2:       "bvec2",
	TypeBVec3:       "bvec3",
	TypeBVec4:       "bvec4",
	TypeMat2:        "mat2",
	TypeMat3:        "mat3",
	TypeMat4:        "mat4",
	TypeSampler2D:   "sampler2D",
	TypeSamplerCube: "samplerCube",
}

// IsSampler reports whether t is a sampler type.
func (t DataType) IsSampler() bool {
	return t == TypeSampler2D || t == TypeSamplerCube
}

// String returns the GLSL spelling of the type.
func (t DataType) String() string {
	if s, ok := typeSpellings[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Attribute is a vertex input with its assigned location.
type Attribute struct {
	Name     string
	Type     DataType
	Location int
}

// Varying is a vertex output / fragment input with its assigned location.
type Varying struct {
	Name     string
	Type     DataType
	Location int
}

// Uniform is one member of the stage's std140 uniform block.
type Uniform struct {
	Name string
	Type DataType

	// ArrayLen is the declared element count, or 0 for a non-array.
	ArrayLen int

	// Offset and Size are the std140 placement within the block, in bytes.
	Offset int
	Size   int
}

// Sampler is a sampler uniform with its assigned binding number.
type Sampler struct {
	Name    string
	Type    DataType
	Binding int
}

// Reflection describes the layout the translated source was emitted with.
type Reflection struct {
	Attributes []Attribute
	Varyings   []Varying

	// Uniforms are the non-sampler uniforms in block layout order
	// (alphabetical by name).
	Uniforms []Uniform

	// BlockSize is the std140 size of the uniform block, rounded up to 16.
	// Zero when the stage declares no non-sampler uniforms.
	BlockSize int

	Samplers []Sampler
}

// Uniform returns the named block member and whether it exists.
func (r *Reflection) Uniform(name string) (Uniform, bool) {
	for _, u := range r.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}

// Options control translation of a single compilation unit.
type Options struct {
	// Stage selects vertex or fragment translation rules.
	Stage Stage

	// AttribLocations pins attribute names to locations. Explicit entries
	// always win; unpinned attributes receive the next free slot in
	// declaration order.
	AttribLocations map[string]int

	// VaryingLocations pins varying names to locations. This is how the
	// vertex stage's assignments are carried into the fragment stage so
	// both sides agree without direct communication. Unpinned varyings
	// are assigned in alphabetical order.
	VaryingLocations map[string]int
}

// Result is the output of Translate.
type Result struct {
	// Source is the translated text, or the input verbatim when
	// PassThrough is set.
	Source string

	// PassThrough is set when the input already targets the new dialect
	// (#version >= 300, not an ES profile) and was returned unchanged.
	PassThrough bool

	Reflection Reflection
}

// UniformBlockBinding is the std140 block binding number the translator
// assigns to the per-stage uniform block. Both stages use binding 0 within
// their own stage namespace.
const UniformBlockBinding = 0

// fragColorName replaces the legacy gl_FragColor output variable.
const fragColorName = "fragColor"

// declKind distinguishes the recognized declaration line forms.
type declKind int

const (
	declNone declKind = iota
	declVersion
	declExtension
	declPrecision
	declAttribute
	declVarying
	declUniform
)

// declName holds one declared identifier with its optional array length.
type declName struct {
	name     string
	arrayLen int
}

// decl is one parsed declaration line.
type decl struct {
	kind  declKind
	typ   DataType
	names []declName
	line  int // index into the source lines
}

// Translate converts one shader compilation unit. It never modifies shared
// state and may be called concurrently with distinct arguments.
func Translate(source string, opts Options) (*Result, error) {
	if ver, es, ok := scanVersion(source); ok && ver >= 300 && !es {
		return &Result{Source: source, PassThrough: true}, nil
	}

	lines := strings.Split(source, "\n")
	decls := make([]decl, 0, 16)
	declAt := make(map[int]int, 16) // line index -> decls index

	for i, line := range lines {
		d, err := parseDeclLine(line)
		if err != nil {
			return nil, fmt.Errorf("translate: line %d: %w", i+1, err)
		}
		if d.kind == declNone {
			continue
		}
		d.line = i
		declAt[i] = len(decls)
		decls = append(decls, d)
	}

	refl, err := buildReflection(decls, opts)
	if err != nil {
		return nil, err
	}

	out := emit(lines, decls, declAt, refl, opts)
	return &Result{Source: out, Reflection: *refl}, nil
}

// scanVersion finds a #version directive and reports (version, esProfile).
func scanVersion(source string) (ver int, es bool, ok bool) {
	for _, line := range strings.Split(source, "\n") {
		t := strings.TrimSpace(line)
		if !strings.HasPrefix(t, "#version") {
			continue
		}
		fields := strings.Fields(t)
		if len(fields) < 2 {
			return 0, false, false
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, false, false
		}
		es = len(fields) >= 3 && strings.EqualFold(fields[2], "es")
		return v, es, true
	}
	return 0, false, false
}

// parseDeclLine classifies one source line. Lines that are not recognized
// declarations return declNone and pass through the translator verbatim.
func parseDeclLine(line string) (decl, error) {
	t := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(t, "#version"):
		return decl{kind: declVersion}, nil
	case strings.HasPrefix(t, "#extension"):
		return decl{kind: declExtension}, nil
	case strings.HasPrefix(t, "precision "):
		return decl{kind: declPrecision}, nil
	}

	var kind declKind
	var rest string
	switch {
	case strings.HasPrefix(t, "attribute "):
		kind, rest = declAttribute, t[len("attribute "):]
	case strings.HasPrefix(t, "varying "):
		kind, rest = declVarying, t[len("varying "):]
	case strings.HasPrefix(t, "uniform "):
		kind, rest = declUniform, t[len("uniform "):]
	default:
		return decl{kind: declNone}, nil
	}

	// Strip any trailing comment, then the statement terminator.
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, ";")

	fields := strings.Fields(rest)
	// Precision qualifiers are legal in the legacy dialect; drop them.
	for len(fields) > 0 && (fields[0] == "highp" || fields[0] == "mediump" || fields[0] == "lowp") {
		fields = fields[1:]
	}
	if len(fields) < 2 {
		return decl{}, fmt.Errorf("malformed declaration %q", strings.TrimSpace(line))
	}

	typ, ok := typeNames[fields[0]]
	if !ok {
		return decl{}, fmt.Errorf("unsupported type %q", fields[0])
	}

	nameText := strings.Join(fields[1:], " ")
	var names []declName
	for _, part := range strings.Split(nameText, ",") {
		n, err := parseDeclName(strings.TrimSpace(part))
		if err != nil {
			return decl{}, err
		}
		names = append(names, n)
	}
	return decl{kind: kind, typ: typ, names: names}, nil
}

// parseDeclName splits "name" or "name[N]".
func parseDeclName(s string) (declName, error) {
	if s == "" {
		return declName{}, fmt.Errorf("empty declarator")
	}
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return declName{name: s}, nil
	}
	end := strings.IndexByte(s, ']')
	if end < open {
		return declName{}, fmt.Errorf("malformed array declarator %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[open+1 : end]))
	if err != nil || n <= 0 {
		return declName{}, fmt.Errorf("bad array length in %q", s)
	}
	return declName{name: strings.TrimSpace(s[:open]), arrayLen: n}, nil
}

// buildReflection assigns attribute/varying locations, sampler bindings, and
// the std140 uniform block layout.
func buildReflection(decls []decl, opts Options) (*Reflection, error) {
	refl := &Reflection{}

	// Attributes: explicit bindings win, the rest take the next free slot
	// in declaration order.
	usedAttribSlots := map[int]bool{}
	for _, loc := range opts.AttribLocations {
		usedAttribSlots[loc] = true
	}
	nextAttrib := 0
	for _, d := range decls {
		if d.kind != declAttribute {
			continue
		}
		for _, n := range d.names {
			loc, explicit := opts.AttribLocations[n.name]
			if !explicit {
				for usedAttribSlots[nextAttrib] {
					nextAttrib++
				}
				loc = nextAttrib
				usedAttribSlots[loc] = true
			}
			refl.Attributes = append(refl.Attributes, Attribute{Name: n.name, Type: d.typ, Location: loc})
		}
	}

	// Varyings: explicit bindings (fed forward from the vertex stage) win;
	// the rest are assigned alphabetically so two independently translated
	// stages that declare the same set agree on every slot.
	type pendingVarying struct {
		name string
		typ  DataType
	}
	var varyings []pendingVarying
	seen := map[string]bool{}
	for _, d := range decls {
		if d.kind != declVarying {
			continue
		}
		for _, n := range d.names {
			if seen[n.name] {
				return nil, fmt.Errorf("translate: varying %q declared twice", n.name)
			}
			seen[n.name] = true
			varyings = append(varyings, pendingVarying{name: n.name, typ: d.typ})
		}
	}
	usedVaryingSlots := map[int]bool{}
	assigned := map[string]int{}
	for _, v := range varyings {
		if loc, ok := opts.VaryingLocations[v.name]; ok {
			assigned[v.name] = loc
			usedVaryingSlots[loc] = true
		}
	}
	names := make([]string, 0, len(varyings))
	for _, v := range varyings {
		if _, ok := assigned[v.name]; !ok {
			names = append(names, v.name)
		}
	}
	sort.Strings(names)
	next := 0
	for _, name := range names {
		for usedVaryingSlots[next] {
			next++
		}
		assigned[name] = next
		usedVaryingSlots[next] = true
	}
	for _, v := range varyings {
		refl.Varyings = append(refl.Varyings, Varying{Name: v.name, Type: v.typ, Location: assigned[v.name]})
	}

	// Uniforms: samplers get sequential bindings in declaration order;
	// everything else joins the std140 block, laid out alphabetically.
	var members []Uniform
	samplerBinding := 0
	for _, d := range decls {
		if d.kind != declUniform {
			continue
		}
		for _, n := range d.names {
			if d.typ.IsSampler() {
				refl.Samplers = append(refl.Samplers, Sampler{
					Name:    n.name,
					Type:    d.typ,
					Binding: samplerBinding,
				})
				samplerBinding++
				continue
			}
			members = append(members, Uniform{Name: n.name, Type: d.typ, ArrayLen: n.arrayLen})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	refl.Uniforms, refl.BlockSize = layoutStd140(members)

	return refl, nil
}
