package glshim

// State groups. Each group is an independent record carrying GL default
// initial values, with one change-detecting mutator per settable field.
// Mutators report whether the stored value actually changed; the Context
// uses that signal to skip re-applying unchanged state to the driver, since
// a driver apply is not free (it may touch a command buffer).

// BlendState is the blending state group.
type BlendState struct {
	Enabled  bool
	SrcRGB   BlendFactor
	DstRGB   BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
	EqRGB    BlendEquation
	EqAlpha  BlendEquation
	Color    [4]float32
}

func defaultBlendState() BlendState {
	return BlendState{
		SrcRGB:   BlendOne,
		DstRGB:   BlendZero,
		SrcAlpha: BlendOne,
		DstAlpha: BlendZero,
	}
}

func (s *BlendState) setEnabled(on bool) bool {
	if s.Enabled == on {
		return false
	}
	s.Enabled = on
	return true
}

func (s *BlendState) setFunc(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor) bool {
	if s.SrcRGB == srcRGB && s.DstRGB == dstRGB && s.SrcAlpha == srcAlpha && s.DstAlpha == dstAlpha {
		return false
	}
	s.SrcRGB, s.DstRGB, s.SrcAlpha, s.DstAlpha = srcRGB, dstRGB, srcAlpha, dstAlpha
	return true
}

func (s *BlendState) setEquation(rgb, alpha BlendEquation) bool {
	if s.EqRGB == rgb && s.EqAlpha == alpha {
		return false
	}
	s.EqRGB, s.EqAlpha = rgb, alpha
	return true
}

func (s *BlendState) setColor(r, g, b, a float32) bool {
	c := [4]float32{r, g, b, a}
	if s.Color == c {
		return false
	}
	s.Color = c
	return true
}

// DepthStencilState is the combined depth and stencil state group. Depth
// and stencil are one record, applied through one driver call, because the
// explicit API underneath holds them in a single GPU state object; applying
// them separately would make the second apply overwrite the first.
type DepthStencilState struct {
	DepthTest  bool
	DepthWrite bool
	DepthFunc  CompareFunc

	StencilTest      bool
	StencilFunc      CompareFunc
	StencilRef       int32
	StencilReadMask  uint32
	StencilWriteMask uint32
	StencilFail      StencilOp
	StencilDepthFail StencilOp
	StencilPass      StencilOp
}

func defaultDepthStencilState() DepthStencilState {
	return DepthStencilState{
		DepthWrite:       true,
		DepthFunc:        CompareLess,
		StencilFunc:      CompareAlways,
		StencilReadMask:  0xFFFFFFFF,
		StencilWriteMask: 0xFFFFFFFF,
		StencilFail:      StencilKeep,
		StencilDepthFail: StencilKeep,
		StencilPass:      StencilKeep,
	}
}

func (s *DepthStencilState) setDepthTest(on bool) bool {
	if s.DepthTest == on {
		return false
	}
	s.DepthTest = on
	return true
}

func (s *DepthStencilState) setDepthWrite(on bool) bool {
	if s.DepthWrite == on {
		return false
	}
	s.DepthWrite = on
	return true
}

func (s *DepthStencilState) setDepthFunc(f CompareFunc) bool {
	if s.DepthFunc == f {
		return false
	}
	s.DepthFunc = f
	return true
}

func (s *DepthStencilState) setStencilTest(on bool) bool {
	if s.StencilTest == on {
		return false
	}
	s.StencilTest = on
	return true
}

func (s *DepthStencilState) setStencilFunc(f CompareFunc, ref int32, mask uint32) bool {
	if s.StencilFunc == f && s.StencilRef == ref && s.StencilReadMask == mask {
		return false
	}
	s.StencilFunc, s.StencilRef, s.StencilReadMask = f, ref, mask
	return true
}

func (s *DepthStencilState) setStencilOp(fail, depthFail, pass StencilOp) bool {
	if s.StencilFail == fail && s.StencilDepthFail == depthFail && s.StencilPass == pass {
		return false
	}
	s.StencilFail, s.StencilDepthFail, s.StencilPass = fail, depthFail, pass
	return true
}

func (s *DepthStencilState) setStencilWriteMask(mask uint32) bool {
	if s.StencilWriteMask == mask {
		return false
	}
	s.StencilWriteMask = mask
	return true
}

// RasterState is the rasterizer state group.
type RasterState struct {
	CullEnabled bool
	CullMode    CullMode
	FrontFace   FrontFace
	LineWidth   float32
}

func defaultRasterState() RasterState {
	return RasterState{CullMode: CullBack, FrontFace: FrontCCW, LineWidth: 1}
}

func (s *RasterState) setCullEnabled(on bool) bool {
	if s.CullEnabled == on {
		return false
	}
	s.CullEnabled = on
	return true
}

func (s *RasterState) setCullMode(m CullMode) bool {
	if s.CullMode == m {
		return false
	}
	s.CullMode = m
	return true
}

func (s *RasterState) setFrontFace(f FrontFace) bool {
	if s.FrontFace == f {
		return false
	}
	s.FrontFace = f
	return true
}

func (s *RasterState) setLineWidth(w float32) bool {
	if s.LineWidth == w {
		return false
	}
	s.LineWidth = w
	return true
}

// ViewportState is the viewport rectangle plus the depth range.
type ViewportState struct {
	X, Y          int32
	Width, Height int32
	Near, Far     float32
}

func defaultViewportState(w, h int32) ViewportState {
	return ViewportState{Width: w, Height: h, Far: 1}
}

func (s *ViewportState) setRect(x, y, w, h int32) bool {
	if s.X == x && s.Y == y && s.Width == w && s.Height == h {
		return false
	}
	s.X, s.Y, s.Width, s.Height = x, y, w, h
	return true
}

func (s *ViewportState) setDepthRange(near, far float32) bool {
	if s.Near == near && s.Far == far {
		return false
	}
	s.Near, s.Far = near, far
	return true
}

// ScissorState is the scissor test state group.
type ScissorState struct {
	Enabled       bool
	X, Y          int32
	Width, Height int32
}

func defaultScissorState(w, h int32) ScissorState {
	return ScissorState{Width: w, Height: h}
}

func (s *ScissorState) setEnabled(on bool) bool {
	if s.Enabled == on {
		return false
	}
	s.Enabled = on
	return true
}

func (s *ScissorState) setRect(x, y, w, h int32) bool {
	if s.X == x && s.Y == y && s.Width == w && s.Height == h {
		return false
	}
	s.X, s.Y, s.Width, s.Height = x, y, w, h
	return true
}

// ColorMaskState is the per-channel write mask plus clear values.
type ColorMaskState struct {
	R, G, B, A bool

	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil int32
}

func defaultColorMaskState() ColorMaskState {
	return ColorMaskState{R: true, G: true, B: true, A: true, ClearDepth: 1}
}

func (s *ColorMaskState) setMask(r, g, b, a bool) bool {
	if s.R == r && s.G == g && s.B == b && s.A == a {
		return false
	}
	s.R, s.G, s.B, s.A = r, g, b, a
	return true
}

func (s *ColorMaskState) setClearColor(r, g, b, a float32) bool {
	c := [4]float32{r, g, b, a}
	if s.ClearColor == c {
		return false
	}
	s.ClearColor = c
	return true
}

func (s *ColorMaskState) setClearDepth(d float32) bool {
	if s.ClearDepth == d {
		return false
	}
	s.ClearDepth = d
	return true
}

func (s *ColorMaskState) setClearStencil(v int32) bool {
	if s.ClearStencil == v {
		return false
	}
	s.ClearStencil = v
	return true
}
