package enumconv

import (
	"testing"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

func TestTextureFormatGL(t *testing.T) {
	cases := [...]struct {
		format rhi.TextureFormat
		gen    rhi.BackendGeneration
		wantIF uint32
		wantErr bool
	}{
		{rhi.FormatRGBA8Unorm, rhi.Gen2x, gl.RGBA8, false},
		{rhi.FormatRGBA8Unorm, rhi.Gen1x, gl.RGBA, false},
		{rhi.FormatR8Unorm, rhi.Gen1x, gl.LUMINANCE, false},
		{rhi.FormatR8Unorm, rhi.Gen2x, gl.R8, false},
		{rhi.FormatDepth24PlusStencil8, rhi.Gen2x, gl.DEPTH24_STENCIL8, false},
		{rhi.FormatDepth24PlusStencil8, rhi.Gen1x, gl.DEPTH_STENCIL, false},
		{rhi.FormatBC1RGBAUnorm, rhi.Gen2x, 0, true},
	}
	noExt := func(string) bool { return false }
	for _, c := range cases {
		internalFormat, _, _, err := TextureFormatGL(c.format, c.gen, noExt)
		if c.wantErr {
			if err == nil {
				t.Errorf("TextureFormatGL(%v, %v): want error, got nil", c.format, c.gen)
			}
			continue
		}
		if err != nil {
			t.Errorf("TextureFormatGL(%v, %v): unexpected error %v", c.format, c.gen, err)
			continue
		}
		if internalFormat != c.wantIF {
			t.Errorf("TextureFormatGL(%v, %v) internalFormat\nhave 0x%x\nwant 0x%x", c.format, c.gen, internalFormat, c.wantIF)
		}
	}
}

func TestTextureFormatGLCompressedFallback(t *testing.T) {
	haveExt := func(name string) bool { return name == "GL_EXT_texture_compression_s3tc" }
	if _, _, _, err := TextureFormatGL(rhi.FormatBC1RGBAUnorm, rhi.Gen2x, haveExt); err != nil {
		t.Fatalf("TextureFormatGL with extension present: unexpected error %v", err)
	}
	if _, _, _, err := TextureFormatGL(rhi.FormatBC7RGBAUnorm, rhi.Gen2x, haveExt); err == nil {
		t.Fatalf("TextureFormatGL without extension: want error, got nil")
	}
}

func TestAddressModeGL(t *testing.T) {
	if v, degraded := AddressModeGL(rhi.AddressClampToBorder, true); v != gl.CLAMP_TO_BORDER || degraded {
		t.Errorf("AddressModeGL(ClampToBorder, true) = (0x%x, %v), want (0x%x, false)", v, degraded, gl.CLAMP_TO_BORDER)
	}
	if v, degraded := AddressModeGL(rhi.AddressClampToBorder, false); v != gl.CLAMP_TO_EDGE || !degraded {
		t.Errorf("AddressModeGL(ClampToBorder, false) = (0x%x, %v), want (0x%x, true)", v, degraded, gl.CLAMP_TO_EDGE)
	}
	if v, degraded := AddressModeGL(rhi.AddressRepeat, false); v != gl.REPEAT || degraded {
		t.Errorf("AddressModeGL(Repeat, false) = (0x%x, %v), want (0x%x, false)", v, degraded, gl.REPEAT)
	}
}

func TestMinFilterGL(t *testing.T) {
	cases := [...]struct {
		min, mipmap rhi.FilterMode
		useMipmap   bool
		want        uint32
	}{
		{rhi.FilterLinear, rhi.FilterLinear, false, gl.LINEAR},
		{rhi.FilterNearest, rhi.FilterNearest, false, gl.NEAREST},
		{rhi.FilterNearest, rhi.FilterNearest, true, gl.NEAREST_MIPMAP_NEAREST},
		{rhi.FilterNearest, rhi.FilterLinear, true, gl.NEAREST_MIPMAP_LINEAR},
		{rhi.FilterLinear, rhi.FilterNearest, true, gl.LINEAR_MIPMAP_NEAREST},
		{rhi.FilterLinear, rhi.FilterLinear, true, gl.LINEAR_MIPMAP_LINEAR},
	}
	for _, c := range cases {
		if got := MinFilterGL(c.min, c.mipmap, c.useMipmap); got != c.want {
			t.Errorf("MinFilterGL(%v, %v, %v) = 0x%x, want 0x%x", c.min, c.mipmap, c.useMipmap, got, c.want)
		}
	}
}

func TestCullModeGL(t *testing.T) {
	if enable, _ := CullModeGL(rhi.CullNone); enable {
		t.Errorf("CullModeGL(CullNone): want enable=false")
	}
	if enable, face := CullModeGL(rhi.CullFront); !enable || face != gl.FRONT {
		t.Errorf("CullModeGL(CullFront) = (%v, 0x%x), want (true, 0x%x)", enable, face, gl.FRONT)
	}
	if enable, face := CullModeGL(rhi.CullBack); !enable || face != gl.BACK {
		t.Errorf("CullModeGL(CullBack) = (%v, 0x%x), want (true, 0x%x)", enable, face, gl.BACK)
	}
}

func TestIndexFormatGL(t *testing.T) {
	if got := IndexFormatGL(rhi.IndexUint16); got != gl.UNSIGNED_SHORT {
		t.Errorf("IndexFormatGL(IndexUint16) = 0x%x, want 0x%x", got, gl.UNSIGNED_SHORT)
	}
	if got := IndexFormatGL(rhi.IndexUint32); got != gl.UNSIGNED_INT {
		t.Errorf("IndexFormatGL(IndexUint32) = 0x%x, want 0x%x", got, gl.UNSIGNED_INT)
	}
}

func TestPrimitiveTopologyGL(t *testing.T) {
	cases := [...]struct {
		topology rhi.PrimitiveTopology
		want     uint32
	}{
		{rhi.TopologyPointList, gl.POINTS},
		{rhi.TopologyLineList, gl.LINES},
		{rhi.TopologyLineStrip, gl.LINE_STRIP},
		{rhi.TopologyTriangleList, gl.TRIANGLES},
		{rhi.TopologyTriangleStrip, gl.TRIANGLE_STRIP},
	}
	for _, c := range cases {
		if got := PrimitiveTopologyGL(c.topology); got != c.want {
			t.Errorf("PrimitiveTopologyGL(%v) = 0x%x, want 0x%x", c.topology, got, c.want)
		}
	}
}
