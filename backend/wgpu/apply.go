package wgpu

import (
	"github.com/gogpu/glshim"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// State application. Each group is cached on the driver; pipeline-static
// groups (blend, depth/stencil, raster, color mask) take effect through the
// pipeline cache key at the next draw, while pass-dynamic groups (viewport,
// scissor) also update the open pass immediately.

// ApplyBlend implements glshim.Driver.
func (d *Driver) ApplyBlend(s glshim.BlendState) {
	d.state.blend = s
	if f := d.frame; f != nil && f.passOpen {
		f.pass.SetBlendConstant(&gputypes.Color{
			R: float64(s.Color[0]), G: float64(s.Color[1]),
			B: float64(s.Color[2]), A: float64(s.Color[3]),
		})
	}
}

// ApplyDepthStencil implements glshim.Driver.
func (d *Driver) ApplyDepthStencil(s glshim.DepthStencilState) {
	d.state.depthStencil = s
	if f := d.frame; f != nil && f.passOpen {
		f.pass.SetStencilReference(uint32(s.StencilRef))
	}
}

// ApplyRaster implements glshim.Driver.
func (d *Driver) ApplyRaster(s glshim.RasterState) {
	d.state.raster = s
}

// ApplyColorMask implements glshim.Driver.
func (d *Driver) ApplyColorMask(s glshim.ColorMaskState) {
	d.state.colorMask = s
}

// ApplyViewport implements glshim.Driver.
func (d *Driver) ApplyViewport(s glshim.ViewportState) {
	d.state.viewport = s
	d.applyPassState()
}

// ApplyScissor implements glshim.Driver.
func (d *Driver) ApplyScissor(s glshim.ScissorState) {
	d.state.scissor = s
	d.applyPassState()
}

func blendFactorFor(f glshim.BlendFactor) gputypes.BlendFactor {
	switch f {
	case glshim.BlendZero:
		return gputypes.BlendFactorZero
	case glshim.BlendOne:
		return gputypes.BlendFactorOne
	case glshim.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case glshim.BlendOneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case glshim.BlendDstColor:
		return gputypes.BlendFactorDst
	case glshim.BlendOneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case glshim.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case glshim.BlendOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case glshim.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case glshim.BlendOneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	case glshim.BlendSrcAlphaSaturate:
		return gputypes.BlendFactorSrcAlphaSaturated
	default:
		return gputypes.BlendFactorOne
	}
}

func blendOpFor(e glshim.BlendEquation) gputypes.BlendOperation {
	switch e {
	case glshim.BlendSubtract:
		return gputypes.BlendOperationSubtract
	case glshim.BlendReverseSubtract:
		return gputypes.BlendOperationReverseSubtract
	default:
		return gputypes.BlendOperationAdd
	}
}

func compareFor(f glshim.CompareFunc) gputypes.CompareFunction {
	switch f {
	case glshim.CompareNever:
		return gputypes.CompareFunctionNever
	case glshim.CompareLess:
		return gputypes.CompareFunctionLess
	case glshim.CompareEqual:
		return gputypes.CompareFunctionEqual
	case glshim.CompareLessEqual:
		return gputypes.CompareFunctionLessEqual
	case glshim.CompareGreater:
		return gputypes.CompareFunctionGreater
	case glshim.CompareNotEqual:
		return gputypes.CompareFunctionNotEqual
	case glshim.CompareGreaterEqual:
		return gputypes.CompareFunctionGreaterEqual
	default:
		return gputypes.CompareFunctionAlways
	}
}

func stencilOpFor(op glshim.StencilOp) hal.StencilOperation {
	switch op {
	case glshim.StencilZero:
		return hal.StencilOperationZero
	case glshim.StencilReplace:
		return hal.StencilOperationReplace
	case glshim.StencilIncr:
		return hal.StencilOperationIncrementClamp
	case glshim.StencilIncrWrap:
		return hal.StencilOperationIncrementWrap
	case glshim.StencilDecr:
		return hal.StencilOperationDecrementClamp
	case glshim.StencilDecrWrap:
		return hal.StencilOperationDecrementWrap
	case glshim.StencilInvert:
		return hal.StencilOperationInvert
	default:
		return hal.StencilOperationKeep
	}
}

func topologyFor(m glshim.PrimitiveMode) gputypes.PrimitiveTopology {
	switch m {
	case glshim.Points:
		return gputypes.PrimitiveTopologyPointList
	case glshim.Lines:
		return gputypes.PrimitiveTopologyLineList
	case glshim.LineStrip, glshim.LineLoop:
		// Loops draw as strips; the closing segment is dropped.
		return gputypes.PrimitiveTopologyLineStrip
	case glshim.TriangleStrip, glshim.TriangleFan:
		// Fans draw as strips; callers needing exact fan semantics must
		// re-index.
		return gputypes.PrimitiveTopologyTriangleStrip
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

func cullModeFor(s glshim.RasterState) gputypes.CullMode {
	if !s.CullEnabled {
		return gputypes.CullModeNone
	}
	switch s.CullMode {
	case glshim.CullFront:
		return gputypes.CullModeFront
	default:
		return gputypes.CullModeBack
	}
}

func frontFaceFor(f glshim.FrontFace) gputypes.FrontFace {
	if f == glshim.FrontCW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

func addressModeFor(w glshim.TextureWrap) gputypes.AddressMode {
	switch w {
	case glshim.WrapClampToEdge:
		return gputypes.AddressModeClampToEdge
	case glshim.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeRepeat
	}
}

func filterFor(f glshim.TextureFilter) gputypes.FilterMode {
	if f == glshim.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func indexFormatFor(t glshim.IndexType) (gputypes.IndexFormat, bool) {
	switch t {
	case glshim.IndexUint16:
		return gputypes.IndexFormatUint16, true
	case glshim.IndexUint32:
		return gputypes.IndexFormatUint32, true
	default:
		// 8-bit indices have no device format; the draw is rejected.
		return 0, false
	}
}

func colorWriteMaskFor(s glshim.ColorMaskState) gputypes.ColorWriteMask {
	if s.R && s.G && s.B && s.A {
		return gputypes.ColorWriteMaskAll
	}
	var mask gputypes.ColorWriteMask
	if s.R {
		mask |= gputypes.ColorWriteMaskRed
	}
	if s.G {
		mask |= gputypes.ColorWriteMaskGreen
	}
	if s.B {
		mask |= gputypes.ColorWriteMaskBlue
	}
	if s.A {
		mask |= gputypes.ColorWriteMaskAlpha
	}
	return mask
}

// vertexFormatFor maps a GL attribute component type and count to a device
// vertex format. Integer component counts of 1 and 3 have no device format
// and round up to the next supported width; the extra components are junk
// the shader must not read.
func vertexFormatFor(t glshim.AttribType, size int, normalized bool) gputypes.VertexFormat {
	switch t {
	case glshim.AttribFloat:
		switch size {
		case 1:
			return gputypes.VertexFormatFloat32
		case 2:
			return gputypes.VertexFormatFloat32x2
		case 3:
			return gputypes.VertexFormatFloat32x3
		default:
			return gputypes.VertexFormatFloat32x4
		}
	case glshim.AttribByte:
		if size <= 2 {
			if normalized {
				return gputypes.VertexFormatSnorm8x2
			}
			return gputypes.VertexFormatSint8x2
		}
		if normalized {
			return gputypes.VertexFormatSnorm8x4
		}
		return gputypes.VertexFormatSint8x4
	case glshim.AttribUnsignedByte:
		if size <= 2 {
			if normalized {
				return gputypes.VertexFormatUnorm8x2
			}
			return gputypes.VertexFormatUint8x2
		}
		if normalized {
			return gputypes.VertexFormatUnorm8x4
		}
		return gputypes.VertexFormatUint8x4
	case glshim.AttribShort:
		if size <= 2 {
			if normalized {
				return gputypes.VertexFormatSnorm16x2
			}
			return gputypes.VertexFormatSint16x2
		}
		if normalized {
			return gputypes.VertexFormatSnorm16x4
		}
		return gputypes.VertexFormatSint16x4
	case glshim.AttribUnsignedShort:
		if size <= 2 {
			if normalized {
				return gputypes.VertexFormatUnorm16x2
			}
			return gputypes.VertexFormatUint16x2
		}
		if normalized {
			return gputypes.VertexFormatUnorm16x4
		}
		return gputypes.VertexFormatUint16x4
	default:
		return gputypes.VertexFormatFloat32x4
	}
}
