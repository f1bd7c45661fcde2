package glshim

import (
	"errors"
	"testing"
)

func TestNewContextRequiresDriver(t *testing.T) {
	if _, err := NewContext(nil, Config{}); !errors.Is(err, ErrNoDriver) {
		t.Fatalf("NewContext(nil) err = %v, want ErrNoDriver", err)
	}
}

func TestNewContextWrapsInitFailure(t *testing.T) {
	drv := newMockDriver()
	drv.initErr = errors.New("no device")
	if _, err := NewContext(drv, Config{}); !errors.Is(err, ErrDriverInit) {
		t.Fatalf("err = %v, want ErrDriverInit", err)
	}
}

func TestFirstErrorWins(t *testing.T) {
	c, _ := newTestContext(t)

	c.Enable(Capability(99))   // InvalidEnum
	c.Viewport(0, 0, -1, -1)   // InvalidValue, dropped
	c.BindBuffer(ArrayBuffer, 7) // InvalidOperation, dropped

	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("GetError() = %v, want InvalidEnum", got)
	}
	if got := c.GetError(); got != NoError {
		t.Errorf("second GetError() = %v, want NoError", got)
	}

	// The channel re-arms after a poll.
	c.Viewport(0, 0, -1, -1)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("GetError() after re-arm = %v, want InvalidValue", got)
	}
}

func TestEnableDisableCapabilities(t *testing.T) {
	c, _ := newTestContext(t)

	caps := []Capability{CapBlend, CapDepthTest, CapStencilTest, CapCullFace, CapScissorTest}
	for _, cap := range caps {
		if c.IsEnabled(cap) {
			t.Errorf("capability %d enabled by default", cap)
		}
		c.Enable(cap)
		if !c.IsEnabled(cap) {
			t.Errorf("capability %d not enabled after Enable", cap)
		}
		c.Disable(cap)
		if c.IsEnabled(cap) {
			t.Errorf("capability %d still enabled after Disable", cap)
		}
	}
	if got := c.GetError(); got != NoError {
		t.Fatalf("GetError() = %v after valid toggles", got)
	}

	c.Enable(Capability(0))
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("Enable(0) error = %v, want InvalidEnum", got)
	}
	c.IsEnabled(Capability(42))
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("IsEnabled(42) error = %v, want InvalidEnum", got)
	}
}

func TestStateSettersValidateEnums(t *testing.T) {
	c, _ := newTestContext(t)

	cases := []struct {
		name string
		call func()
		want ErrorCode
	}{
		{"BlendFunc", func() { c.BlendFunc(BlendFactor(-1), BlendZero) }, InvalidEnum},
		{"BlendEquation", func() { c.BlendEquation(BlendEquation(9)) }, InvalidEnum},
		{"DepthFunc", func() { c.DepthFunc(CompareFunc(8)) }, InvalidEnum},
		{"StencilFunc", func() { c.StencilFunc(CompareFunc(-1), 0, 0xFF) }, InvalidEnum},
		{"StencilOp", func() { c.StencilOp(StencilOp(99), StencilKeep, StencilKeep) }, InvalidEnum},
		{"CullFace", func() { c.CullFace(CullMode(7)) }, InvalidEnum},
		{"FrontFace", func() { c.FrontFace(FrontFace(3)) }, InvalidEnum},
		{"LineWidth", func() { c.LineWidth(0) }, InvalidValue},
		{"Viewport", func() { c.Viewport(0, 0, -1, 4) }, InvalidValue},
		{"Scissor", func() { c.Scissor(0, 0, 4, -1) }, InvalidValue},
		{"PixelStore", func() { c.PixelStoreUnpackAlignment(3) }, InvalidValue},
	}
	for _, tc := range cases {
		tc.call()
		if got := c.GetError(); got != tc.want {
			t.Errorf("%s: error = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStateMutationOutsideFrameIsCachedOnly(t *testing.T) {
	c, drv := newTestContext(t)

	c.Enable(CapBlend)
	c.BlendFunc(BlendSrcAlpha, BlendOneMinusSrcAlpha)
	if drv.applies["blend"] != 0 {
		t.Fatalf("blend applied %d times before any frame", drv.applies["blend"])
	}

	// Opening the frame re-applies every group exactly once.
	c.Clear(ColorBufferBit)
	for _, group := range []string{"blend", "depthStencil", "raster", "colorMask", "viewport", "scissor"} {
		if drv.applies[group] != 1 {
			t.Errorf("group %s applied %d times at frame open, want 1", group, drv.applies[group])
		}
	}
	if !drv.blend.Enabled || drv.blend.SrcRGB != BlendSrcAlpha {
		t.Errorf("driver blend state = %+v, want cached enable and factors", drv.blend)
	}
}

func TestRedundantStateChangeSkipsApply(t *testing.T) {
	c, drv := newTestContext(t)
	c.Clear(ColorBufferBit) // opens the frame

	base := drv.applies["depthStencil"]
	c.DepthFunc(CompareLess) // already the default
	if drv.applies["depthStencil"] != base {
		t.Error("unchanged DepthFunc reached the driver")
	}
	c.DepthFunc(CompareGreater)
	if drv.applies["depthStencil"] != base+1 {
		t.Error("changed DepthFunc did not reach the driver")
	}
}

func TestClearValidatesMask(t *testing.T) {
	c, drv := newTestContext(t)

	c.Clear(0)
	if len(drv.clears) != 0 {
		t.Error("Clear(0) reached the driver")
	}
	c.Clear(ClearMask(1 << 10))
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("bad mask error = %v, want InvalidValue", got)
	}

	c.ClearColor(0.1, 0.2, 0.3, 1)
	c.ClearDepth(0.5)
	c.ClearStencil(3)
	c.Clear(ColorBufferBit | DepthBufferBit | StencilBufferBit)
	if len(drv.clears) != 1 {
		t.Fatalf("clears recorded = %d, want 1", len(drv.clears))
	}
	cl := drv.clears[0]
	if cl.color != [4]float32{0.1, 0.2, 0.3, 1} || cl.depth != 0.5 || cl.stencil != 3 {
		t.Errorf("clear values = %+v", cl)
	}
}

func TestSwapBuffersEndsAndPresents(t *testing.T) {
	c, drv := newTestContext(t)

	// No frame open: a swap is a no-op.
	c.SwapBuffers()
	if drv.ends != 0 || drv.presents != 0 {
		t.Fatalf("swap without frame: ends=%d presents=%d", drv.ends, drv.presents)
	}

	c.Clear(ColorBufferBit)
	c.SwapBuffers()
	if drv.ends != 1 || drv.presents != 1 {
		t.Fatalf("ends=%d presents=%d, want 1,1", drv.ends, drv.presents)
	}

	// The next clear opens a fresh frame and re-applies state again.
	c.Clear(ColorBufferBit)
	if drv.frames != 2 {
		t.Errorf("frames = %d, want 2", drv.frames)
	}
	if drv.applies["viewport"] != 2 {
		t.Errorf("viewport applies = %d, want one per frame open", drv.applies["viewport"])
	}
}

func TestFinishEndsOpenFrame(t *testing.T) {
	c, drv := newTestContext(t)
	c.Clear(ColorBufferBit)
	c.Finish()
	if drv.ends != 1 || drv.finishes != 1 {
		t.Errorf("ends=%d finishes=%d, want 1,1", drv.ends, drv.finishes)
	}
	// Without an open frame Finish still drains the device.
	c.Finish()
	if drv.ends != 1 || drv.finishes != 2 {
		t.Errorf("second Finish: ends=%d finishes=%d", drv.ends, drv.finishes)
	}
}

func TestDestroyClosesDriverOnce(t *testing.T) {
	c, drv := newTestContext(t)
	c.Destroy()
	if !drv.closed {
		t.Fatal("driver not closed")
	}
	c.Destroy() // must not panic or double-close
}

func TestReadPixelsValidatesAndDrains(t *testing.T) {
	c, drv := newTestContext(t)

	if got := c.ReadPixels(0, 0, 0, 4); got != nil {
		t.Error("zero-width read returned data")
	}
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("error = %v, want InvalidValue", got)
	}

	c.Clear(ColorBufferBit)
	pix := c.ReadPixels(0, 0, 2, 2)
	if len(pix) != 16 {
		t.Fatalf("len(pix) = %d, want 16", len(pix))
	}
	if drv.ends != 1 || drv.finishes != 1 {
		t.Errorf("read did not drain: ends=%d finishes=%d", drv.ends, drv.finishes)
	}
	if pix[0] != 10 || pix[1] != 20 || pix[2] != 30 || pix[3] != 40 {
		t.Errorf("pixel = %v", pix[:4])
	}
}
