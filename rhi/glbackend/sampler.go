package glbackend

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/glbackend/internal/enumconv"
)

// sampler is a native GL sampler object on Gen2x (core since GL 3.3,
// which is also this backend's Gen2x floor). On Gen1x, sampler
// objects do not exist; the descriptor is kept and applied directly
// to whichever texture object the sampler is bound alongside, via
// bindGroup.apply in bindgroup.go. Every capability-dependent choice
// (border-clamp degradation, anisotropy availability) is resolved
// once at creation so apply itself only issues GL calls.
type sampler struct {
	gen  rhi.BackendGeneration
	id   uint32 // 0 on Gen1x
	desc rhi.SamplerDescriptor

	minFilter, magFilter uint32
	wrapS, wrapT, wrapR  uint32
	useAnisotropy        bool
	anisotropy           float32
	useBorderColor       bool
}

func (b *Backend) NewSampler(desc rhi.SamplerDescriptor) (rhi.Sampler, error) {
	haveBorder := b.caps.Features.Has(rhi.FeatureBorderClamp)
	wrapS, degradedS := enumconv.AddressModeGL(desc.AddressU, haveBorder)
	wrapT, degradedT := enumconv.AddressModeGL(desc.AddressV, haveBorder)
	wrapR, degradedR := enumconv.AddressModeGL(desc.AddressW, haveBorder)
	if degradedS || degradedT || degradedR {
		b.logger.Warnf("sampler %q: clamp-to-border unsupported, degraded to clamp-to-edge", desc.Label)
	}

	aniso := float32(desc.MaxAnisotropy)
	if b.caps.MaxAnisotropy > 0 && aniso > b.caps.MaxAnisotropy {
		b.logger.Warnf("sampler %q: requested anisotropy %v clamped to backend maximum %v", desc.Label, aniso, b.caps.MaxAnisotropy)
		aniso = b.caps.MaxAnisotropy
	}

	s := &sampler{
		gen:            b.gen,
		desc:           desc,
		minFilter:      enumconv.MinFilterGL(desc.MinFilter, desc.MipmapFilter, desc.UseMipmap),
		magFilter:      enumconv.MagFilterGL(desc.MagFilter),
		wrapS:          wrapS,
		wrapT:          wrapT,
		wrapR:          wrapR,
		useAnisotropy:  desc.MaxAnisotropy > 1 && b.caps.Features.Has(rhi.FeatureAnisotropicFiltering),
		anisotropy:     aniso,
		useBorderColor: desc.AddressU == rhi.AddressClampToBorder || desc.AddressV == rhi.AddressClampToBorder,
	}
	if b.gen == rhi.Gen2x {
		gl.GenSamplers(1, &s.id)
		s.applyTo(s.id, gl.SamplerParameteri, gl.SamplerParameterf, gl.SamplerParameterfv)
	}
	return s, nil
}

// applyTo pushes the sampler's resolved parameters through either
// glSamplerParameter* (target is a sampler object name) or
// glTexParameter* (target is the currently-bound texture target),
// letting Gen1x's per-texture application reuse the same parameter
// set a Gen2x sampler object would otherwise hold.
func (s *sampler) applyTo(target uint32,
	paramI func(uint32, uint32, int32),
	paramF func(uint32, uint32, float32),
	paramFv func(uint32, uint32, *float32)) {

	paramI(target, gl.TEXTURE_MIN_FILTER, int32(s.minFilter))
	paramI(target, gl.TEXTURE_MAG_FILTER, int32(s.magFilter))
	paramI(target, gl.TEXTURE_WRAP_S, int32(s.wrapS))
	paramI(target, gl.TEXTURE_WRAP_T, int32(s.wrapT))
	paramI(target, gl.TEXTURE_WRAP_R, int32(s.wrapR))
	paramF(target, gl.TEXTURE_MIN_LOD, s.desc.LODMinClamp)
	paramF(target, gl.TEXTURE_MAX_LOD, s.desc.LODMaxClamp)

	if s.desc.CompareEnabled {
		paramI(target, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		paramI(target, gl.TEXTURE_COMPARE_FUNC, int32(enumconv.CompareFuncGL(s.desc.Compare)))
	} else {
		paramI(target, gl.TEXTURE_COMPARE_MODE, gl.NONE)
	}

	if s.useAnisotropy {
		paramF(target, gl.TEXTURE_MAX_ANISOTROPY_EXT, s.anisotropy)
	}
	if s.useBorderColor {
		c := s.desc.BorderColor
		paramFv(target, gl.TEXTURE_BORDER_COLOR, &c[0])
	}
}

func (s *sampler) Destroy() {
	if s == nil || s.id == 0 {
		return
	}
	gl.DeleteSamplers(1, &s.id)
	*s = sampler{}
}

func (s *sampler) Label() string { return s.desc.Label }
