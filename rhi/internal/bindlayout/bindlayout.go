// Package bindlayout implements the pure, backend-independent part of
// BindGroupLayout construction described in spec §4.5: entry
// validation, deterministic texture-unit assignment, and the
// sampler-to-texture association map. Both glbackend's real
// BindGroupLayout and rhitest's fake one build on this so the
// algorithm is exercised identically whether or not a real GL context
// is available.
package bindlayout

import "errors"

// ErrDuplicateBinding means two entries declared the same binding
// index.
var ErrDuplicateBinding = errors.New("bindlayout: duplicate binding index")

// ErrNegativeBinding means an entry declared a negative binding
// index.
var ErrNegativeBinding = errors.New("bindlayout: negative binding index")

// ErrNoResourceKind means an entry declared none of
// buffer/texture/sampler/storage-texture.
var ErrNoResourceKind = errors.New("bindlayout: entry has no resource kind")

// Entry is the subset of rhi.BindGroupLayoutEntry this package needs
// in order to stay free of a dependency on the rhi package.
type Entry struct {
	Binding                  int
	HasBuffer                bool
	HasTexture               bool
	HasSampler                bool
	HasStorageTexture         bool
	AssociatedTextureBinding int // -1 if undeclared
}

// Result is the derived state spec §4.5 calls for.
type Result struct {
	// TextureUnits maps a texture entry's binding to its assigned
	// texture unit, in declaration order starting at 0.
	TextureUnits map[int]int

	// SamplerAssociations maps a sampler entry's binding to the
	// texture binding it is associated with, when one could be
	// determined.
	SamplerAssociations map[int]int

	// Exhausted is true if more texture entries were declared than
	// maxTextureUnits allows; entries beyond the limit are left
	// unassigned and a warning should be logged by the caller.
	Exhausted bool
}

// Build validates entries and derives texture-unit assignment and
// sampler association. allowImplicitAssociation enables the
// "preceding texture binding" fallback heuristic for sampler entries
// that left AssociatedTextureBinding at -1; when false (the
// recommended default per spec §9's Open Question), such entries are
// simply left unassociated.
func Build(entries []Entry, maxTextureUnits int, allowImplicitAssociation bool) (Result, error) {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Binding < 0 {
			return Result{}, ErrNegativeBinding
		}
		if seen[e.Binding] {
			return Result{}, ErrDuplicateBinding
		}
		seen[e.Binding] = true
		if !e.HasBuffer && !e.HasTexture && !e.HasSampler && !e.HasStorageTexture {
			return Result{}, ErrNoResourceKind
		}
	}

	res := Result{
		TextureUnits:        make(map[int]int),
		SamplerAssociations: make(map[int]int),
	}

	unit := 0
	// lastTextureBinding tracks the heuristic fallback: the texture
	// binding immediately preceding the current position in
	// declaration order.
	lastTextureBinding := -1
	haveLastTexture := false

	for _, e := range entries {
		if e.HasTexture {
			if unit < maxTextureUnits {
				res.TextureUnits[e.Binding] = unit
				unit++
			} else {
				res.Exhausted = true
			}
			lastTextureBinding = e.Binding
			haveLastTexture = true
			continue
		}
		if e.HasSampler {
			if e.AssociatedTextureBinding >= 0 {
				res.SamplerAssociations[e.Binding] = e.AssociatedTextureBinding
			} else if allowImplicitAssociation && haveLastTexture {
				res.SamplerAssociations[e.Binding] = lastTextureBinding
			}
		}
	}
	return res, nil
}
