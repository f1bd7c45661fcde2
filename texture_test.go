package glshim

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestBindTextureLocksTarget(t *testing.T) {
	c, _ := newTestContext(t)
	ids := c.GenTextures(1)

	c.BindTexture(Texture2D, ids[0])
	if got := c.GetError(); got != NoError {
		t.Fatalf("first bind error = %v", got)
	}

	// The first bind fixes the target for the texture's lifetime.
	c.BindTexture(TextureCubeMap, ids[0])
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("target mismatch error = %v, want InvalidOperation", got)
	}

	c.BindTexture(TextureTarget(5), ids[0])
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("bad target error = %v, want InvalidEnum", got)
	}
	c.BindTexture(Texture2D, 77)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("dead name error = %v, want InvalidOperation", got)
	}
}

func TestTexImage2DAllocatesStorageOnce(t *testing.T) {
	c, drv := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])

	c.TexImage2D(Texture2D, 0, 0, 4, 4, FormatRGBA, make([]byte, 64))
	c.TexImage2D(Texture2D, 0, 0, 4, 4, FormatRGBA, make([]byte, 64))
	if got := c.GetError(); got != NoError {
		t.Fatalf("upload error = %v", got)
	}

	desc, ok := drv.textures[ids[0]]
	if !ok {
		t.Fatal("driver texture missing")
	}
	if desc.Width != 4 || desc.Height != 4 || desc.Format != FormatRGBA {
		t.Errorf("desc = %+v", desc)
	}
	if len(drv.texUploads) != 2 {
		t.Errorf("uploads = %d, want 2", len(drv.texUploads))
	}
	// Same dimensions reuse the storage; the driver default sampler was set.
	if _, ok := drv.samplers[ids[0]]; !ok {
		t.Error("sampler state never pushed")
	}
}

func TestTexImage2DValidation(t *testing.T) {
	c, _ := newTestContext(t)
	ids := c.GenTextures(1)

	// No binding on the active unit.
	c.TexImage2D(Texture2D, 0, 0, 4, 4, FormatRGBA, nil)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("unbound upload error = %v, want InvalidOperation", got)
	}

	c.BindTexture(Texture2D, ids[0])
	c.TexImage2D(Texture2D, 0, 0, 0, 4, FormatRGBA, nil)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("zero width error = %v, want InvalidValue", got)
	}
	c.TexImage2D(Texture2D, 0, 0, 5000, 4, FormatRGBA, nil)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("oversize error = %v, want InvalidValue", got)
	}
	c.TexImage2D(Texture2D, 0, 0, 4, 4, TextureFormat(99), nil)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("bad format error = %v, want InvalidEnum", got)
	}
	// A too-small pixel slice is caught by the row repack.
	c.TexImage2D(Texture2D, 0, 0, 4, 4, FormatRGBA, make([]byte, 10))
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("short pixels error = %v, want InvalidValue", got)
	}
}

func TestUnpackAlignmentRepacksRows(t *testing.T) {
	c, drv := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])

	// 3-wide RGB rows are 9 bytes; at the default alignment of 4 the source
	// stride is 12, and the last row may omit its padding.
	src := make([]byte, 12+9)
	for i := range src {
		src[i] = byte(i)
	}
	c.TexImage2D(Texture2D, 0, 0, 3, 2, FormatRGB, src)
	if got := c.GetError(); got != NoError {
		t.Fatalf("upload error = %v", got)
	}
	if len(drv.texUploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(drv.texUploads))
	}
	got := drv.texUploads[0].data
	want := append(append([]byte{}, src[0:9]...), src[12:21]...)
	if !bytes.Equal(got, want) {
		t.Errorf("repacked rows = %v, want %v", got, want)
	}

	// With alignment 1 the same rows are already tight.
	c.PixelStoreUnpackAlignment(1)
	c.TexImage2D(Texture2D, 0, 0, 3, 2, FormatRGB, src[:18])
	if got := c.GetError(); got != NoError {
		t.Fatalf("tight upload error = %v", got)
	}
	if !bytes.Equal(drv.texUploads[1].data, src[:18]) {
		t.Error("tight rows were modified")
	}
}

func TestCompressedTexImage2DSizeMustMatchTable(t *testing.T) {
	c, drv := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])

	size := CompressedImageSize(CompressedETC2RGB8, 8, 8) // 4 blocks of 8 bytes
	if size != 32 {
		t.Fatalf("CompressedImageSize = %d, want 32", size)
	}

	c.CompressedTexImage2D(Texture2D, 0, 0, 8, 8, CompressedETC2RGB8, make([]byte, size-1))
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("short payload error = %v, want InvalidValue", got)
	}

	c.CompressedTexImage2D(Texture2D, 0, 0, 8, 8, CompressedETC2RGB8, make([]byte, size))
	if got := c.GetError(); got != NoError {
		t.Fatalf("upload error = %v", got)
	}
	desc := drv.textures[ids[0]]
	if desc.Compressed != CompressedETC2RGB8 {
		t.Errorf("desc = %+v, want compressed format recorded", desc)
	}

	c.CompressedTexImage2D(Texture2D, 0, 0, 8, 8, CompressedNone, make([]byte, size))
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("bad format error = %v, want InvalidEnum", got)
	}
}

func TestCompressedUploadRequiresDriverSupport(t *testing.T) {
	drv := newMockDriver()
	drv.compressed = nil
	c, err := NewContext(drv, Config{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if got := c.CompressedTextureFormats(); len(got) != 0 {
		t.Fatalf("CompressedTextureFormats = %v, want none", got)
	}

	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])
	size := CompressedImageSize(CompressedETC2RGB8, 8, 8)
	c.CompressedTexImage2D(Texture2D, 0, 0, 8, 8, CompressedETC2RGB8, make([]byte, size))
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("unadvertised format error = %v, want InvalidEnum", got)
	}
	if _, created := drv.textures[ids[0]]; created {
		t.Error("rejected upload still created driver storage")
	}
}

func TestTexImageFromImageConvertsToRGBA(t *testing.T) {
	c, drv := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	c.TexImageFromImage(Texture2D, img, 0, 0)
	if got := c.GetError(); got != NoError {
		t.Fatalf("upload error = %v", got)
	}
	desc := drv.textures[ids[0]]
	if desc.Width != 2 || desc.Height != 2 || desc.Format != FormatRGBA {
		t.Errorf("desc = %+v", desc)
	}
	if len(drv.texUploads) != 1 || len(drv.texUploads[0].data) != 16 {
		t.Fatal("converted upload missing")
	}
	px := drv.texUploads[0].data
	if px[0] != 255 || px[3] != 255 {
		t.Errorf("first pixel = %v, want opaque red", px[:4])
	}
}

func TestTexParametersReachDriverWhenAllocated(t *testing.T) {
	c, drv := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])

	// Before allocation the change is cached only.
	c.TexParameterFilter(Texture2D, FilterNearest, FilterNearest)
	if _, ok := drv.samplers[ids[0]]; ok {
		t.Error("sampler pushed before storage exists")
	}

	c.TexImage2D(Texture2D, 0, 0, 2, 2, FormatRGBA, nil)
	if p := drv.samplers[ids[0]]; p.MinFilter != FilterNearest {
		t.Errorf("allocation pushed %+v, want the cached filter", p)
	}

	c.TexParameterWrap(Texture2D, WrapMirroredRepeat, WrapClampToEdge)
	p := drv.samplers[ids[0]]
	if p.WrapS != WrapMirroredRepeat || p.WrapT != WrapClampToEdge {
		t.Errorf("wrap = %+v", p)
	}

	c.TexParameterFilter(Texture2D, TextureFilter(9), FilterLinear)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("bad filter error = %v, want InvalidEnum", got)
	}
}

func TestActiveTextureSelectsUnit(t *testing.T) {
	c, _ := newTestContext(t)
	ids := c.GenTextures(2)

	c.ActiveTexture(1)
	c.BindTexture(Texture2D, ids[0])
	c.ActiveTexture(0)
	c.BindTexture(Texture2D, ids[1])

	if c.boundTextures[1] != ids[0] || c.boundTextures[0] != ids[1] {
		t.Errorf("unit bindings = %v", c.boundTextures[:2])
	}

	c.ActiveTexture(MaxTextureUnits)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("bad unit error = %v, want InvalidEnum", got)
	}
}

func TestDeleteTexturesClearsUnitBindings(t *testing.T) {
	c, drv := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])
	c.TexImage2D(Texture2D, 0, 0, 2, 2, FormatRGBA, nil)

	c.DeleteTextures(ids[0])
	if c.IsTexture(ids[0]) {
		t.Error("texture still live after delete")
	}
	if c.boundTextures[0] != 0 {
		t.Error("unit binding survived the delete")
	}
	if _, ok := drv.textures[ids[0]]; ok {
		t.Error("driver texture not destroyed")
	}
}
