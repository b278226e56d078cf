package rhi_test

import (
	"testing"

	"github.com/kestrelgpu/rhi/rhi"
)

// Two layouts with identical texture-entry sequences must produce
// identical binding->unit maps (spec §8 property 4).
func TestBindGroupLayoutTextureUnitDeterminism(t *testing.T) {
	d := newTestDevice(t)
	mk := func() rhi.BindGroupLayoutDescriptor {
		return rhi.BindGroupLayoutDescriptor{Entries: []rhi.BindGroupLayoutEntry{
			{Binding: 0, HasTexture: true, Name: "albedo"},
			{Binding: 1, HasSampler: true, AssociatedTextureBinding: 0, Name: "albedoSampler"},
			{Binding: 2, HasTexture: true, Name: "normal"},
		}}
	}
	a, err := d.CreateBindGroupLayout(mk())
	if err != nil {
		t.Fatalf("layout a: %v", err)
	}
	b, err := d.CreateBindGroupLayout(mk())
	if err != nil {
		t.Fatalf("layout b: %v", err)
	}
	for _, binding := range []int{0, 2} {
		ua, _ := a.TextureUnit(binding)
		ub, _ := b.TextureUnit(binding)
		if ua != ub {
			t.Errorf("binding %d: unit %d != %d", binding, ua, ub)
		}
	}
}

func TestBindGroupLayoutRejectsDuplicateBinding(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateBindGroupLayout(rhi.BindGroupLayoutDescriptor{Entries: []rhi.BindGroupLayoutEntry{
		{Binding: 0, HasBuffer: true},
		{Binding: 0, HasTexture: true},
	}})
	if err == nil {
		t.Fatal("expected an error for duplicate binding index")
	}
}

func TestBindGroupLayoutSamplerAssociationRequiresExplicitDeclaration(t *testing.T) {
	d := newTestDevice(t)
	layout, err := d.CreateBindGroupLayout(rhi.BindGroupLayoutDescriptor{
		AllowImplicitSamplerAssociation: false,
		Entries: []rhi.BindGroupLayoutEntry{
			{Binding: 0, HasTexture: true},
			{Binding: 1, HasSampler: true, AssociatedTextureBinding: -1},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	if _, ok := layout.AssociatedTexture(1); ok {
		t.Fatal("expected no association without explicit declaration or the implicit-association flag")
	}
}

func TestBindGroupConformance(t *testing.T) {
	d := newTestDevice(t)
	layout, err := d.CreateBindGroupLayout(rhi.BindGroupLayoutDescriptor{Entries: []rhi.BindGroupLayoutEntry{
		{Binding: 0, HasBuffer: true, Name: "params"},
	}})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	buf, err := d.CreateBuffer(rhi.BufferDescriptor{Size: 16, Usage: rhi.UsageUniform}, nil)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	// Conformant: a buffer bound where a buffer was declared.
	if _, err := d.CreateBindGroup(layout, []rhi.BindGroupEntry{
		{Binding: 0, Kind: rhi.EntryBuffer, Buffer: buf},
	}, "bg"); err != nil {
		t.Fatalf("expected conformant bind group to succeed: %v", err)
	}
	// Non-conformant: a sampler where a buffer was declared.
	sampler, err := d.CreateSampler(rhi.SamplerDescriptor{})
	if err != nil {
		t.Fatalf("CreateSampler: %v", err)
	}
	if _, err := d.CreateBindGroup(layout, []rhi.BindGroupEntry{
		{Binding: 0, Kind: rhi.EntrySampler, Sampler: sampler},
	}, "bg-bad"); err == nil {
		t.Fatal("expected a kind mismatch to be rejected")
	}
}

func TestTextureViewContainment(t *testing.T) {
	d := newTestDevice(t)
	tex, err := d.CreateTexture(rhi.TextureDescriptor{
		Width: 256, Height: 256, DepthOrArrayLayers: 1,
		MipLevelCount: 4, Dimension: rhi.Dimension2D, Format: rhi.FormatRGBA8Unorm,
		Usage: rhi.UsageSampled,
	}, nil)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if _, err := tex.CreateView(rhi.TextureViewDescriptor{BaseMipLevel: 0, MipLevelCount: 4}); err != nil {
		t.Fatalf("expected in-range view to succeed: %v", err)
	}
	if _, err := tex.CreateView(rhi.TextureViewDescriptor{BaseMipLevel: 2, MipLevelCount: 3}); err == nil {
		t.Fatal("expected out-of-range view (2+3 > 4 mips) to fail")
	}
}

func TestCubeTextureRequiresSixLayers(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateTexture(rhi.TextureDescriptor{
		Width: 64, Height: 64, DepthOrArrayLayers: 1,
		Dimension: rhi.DimensionCube, Format: rhi.FormatRGBA8Unorm, Usage: rhi.UsageSampled,
	}, nil)
	if err == nil {
		t.Fatal("expected cube texture with depthOrArrayLayers != 6 to fail")
	}
}
