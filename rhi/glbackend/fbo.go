package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

// depthBuildMode selects how assembleFramebuffer attaches a pass's
// depth-stencil state, from most to least faithful: the caller's own
// view, a throwaway renderbuffer sized to match, or nothing at all.
// The fallbacks only kick in when the prior attempt left the
// framebuffer incomplete (spec §4.9 recovery path).
type depthBuildMode int

const (
	depthFromView depthBuildMode = iota
	depthFromRenderbuffer
	depthNone
)

// assembleFramebuffer builds a one-shot FBO for desc's attachments. A
// RenderPassDescriptor always names explicit TextureViews (spec
// §4.9); the Device's own default framebuffer is only ever touched
// through CopyTextureToCanvas, never through a RenderPass. On an
// incomplete result it retries with a renderbuffer depth attachment,
// then color-only, before giving up (spec §4.9: "attempt a recovery
// path ... then either proceed or abandon the pass with a logged
// error"). The second return value is a renderbuffer that
// cmdEndRenderPass must delete alongside the framebuffer, 0 if none
// was created.
func assembleFramebuffer(desc rhi.RenderPassDescriptor, logger rhi.Logger) (uint32, uint32, error) {
	if fbo, rb, err := buildFramebuffer(desc, depthFromView); err == nil {
		applyDefaultViewport(desc)
		return fbo, rb, nil
	} else if desc.HasDepthStencil {
		logger.Warnf("render pass: %v; retrying with a renderbuffer depth attachment", err)
	}
	if desc.HasDepthStencil {
		if fbo, rb, err := buildFramebuffer(desc, depthFromRenderbuffer); err == nil {
			applyDefaultViewport(desc)
			return fbo, rb, nil
		}
		logger.Warnf("render pass: renderbuffer depth attachment still incomplete; retrying color-only")
	}
	fbo, rb, err := buildFramebuffer(desc, depthNone)
	if err != nil {
		return 0, 0, err
	}
	applyDefaultViewport(desc)
	return fbo, rb, nil
}

func buildFramebuffer(desc rhi.RenderPassDescriptor, mode depthBuildMode) (uint32, uint32, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	abort := func(rb uint32) (uint32, uint32, error) {
		if rb != 0 {
			gl.DeleteRenderbuffers(1, &rb)
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &fbo)
		return 0, 0, rhi.ErrConfiguration
	}

	drawBuffers := make([]uint32, 0, len(desc.ColorAttachments))
	for i, ca := range desc.ColorAttachments {
		tv, ok := ca.View.(*textureView)
		if !ok {
			return abort(0)
		}
		attachTextureView(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), tv)
		drawBuffers = append(drawBuffers, gl.COLOR_ATTACHMENT0+uint32(i))
	}
	if len(drawBuffers) > 0 {
		gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])
	} else {
		gl.DrawBuffer(gl.NONE)
	}

	var rb uint32
	if desc.HasDepthStencil && mode != depthNone {
		switch mode {
		case depthFromView:
			tv, ok := desc.DepthStencil.View.(*textureView)
			if !ok {
				return abort(0)
			}
			attachTextureView(gl.FRAMEBUFFER, depthAttachmentPoint(tv.src.desc.Format), tv)
		case depthFromRenderbuffer:
			w, h, format := depthRenderbufferDims(desc)
			gl.GenRenderbuffers(1, &rb)
			gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
			gl.RenderbufferStorage(gl.RENDERBUFFER, depthRenderbufferFormatGL(format), int32(w), int32(h))
			gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
			gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, depthAttachmentPoint(format), gl.RENDERBUFFER, rb)
		}
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return abort(rb)
	}
	return fbo, rb, nil
}

// depthRenderbufferDims picks the size and format for a fallback depth
// renderbuffer: the declared depth-stencil view's own texture when
// usable, else the first color attachment's size with a combined
// depth-stencil format as a reasonable default.
func depthRenderbufferDims(desc rhi.RenderPassDescriptor) (w, h int, format rhi.TextureFormat) {
	if tv, ok := desc.DepthStencil.View.(*textureView); ok {
		return tv.src.desc.Width, tv.src.desc.Height, tv.src.desc.Format
	}
	if len(desc.ColorAttachments) > 0 {
		if tv, ok := desc.ColorAttachments[0].View.(*textureView); ok {
			return tv.src.desc.Width, tv.src.desc.Height, rhi.FormatDepth24PlusStencil8
		}
	}
	return 1, 1, rhi.FormatDepth24PlusStencil8
}

func depthAttachmentPoint(format rhi.TextureFormat) uint32 {
	switch format {
	case rhi.FormatDepth24PlusStencil8:
		return gl.DEPTH_STENCIL_ATTACHMENT
	case rhi.FormatStencil8:
		return gl.STENCIL_ATTACHMENT
	default:
		return gl.DEPTH_ATTACHMENT
	}
}

func depthRenderbufferFormatGL(format rhi.TextureFormat) uint32 {
	switch format {
	case rhi.FormatDepth24PlusStencil8:
		return gl.DEPTH24_STENCIL8
	case rhi.FormatStencil8:
		return gl.STENCIL_INDEX8
	case rhi.FormatDepth32Float:
		return gl.DEPTH_COMPONENT32F
	case rhi.FormatDepth16Unorm:
		return gl.DEPTH_COMPONENT16
	default:
		return gl.DEPTH_COMPONENT24
	}
}

// applyDefaultViewport sets the viewport/scissor to the first color
// attachment's full extent, the default a pass starts with absent an
// explicit SetViewport/SetScissor command (spec §4.9).
func applyDefaultViewport(desc rhi.RenderPassDescriptor) {
	if len(desc.ColorAttachments) == 0 {
		return
	}
	tv, ok := desc.ColorAttachments[0].View.(*textureView)
	if !ok {
		return
	}
	w, h := int32(tv.src.desc.Width), int32(tv.src.desc.Height)
	gl.Viewport(0, 0, w, h)
	gl.DepthRange(0, 1)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Scissor(0, 0, w, h)
}

// attachTextureView attaches tv to attachment on fbTarget. fbTarget is
// normally GL_FRAMEBUFFER, which as an attachment target addresses
// the draw binding point; callers that must attach to a specific
// binding (a canvas blit, where read and draw framebuffers differ) pass
// GL_READ_FRAMEBUFFER/GL_DRAW_FRAMEBUFFER explicitly instead.
func attachTextureView(fbTarget, attachment uint32, tv *textureView) {
	t := tv.src
	level := int32(tv.desc.BaseMipLevel)
	switch t.glTarget {
	case gl.TEXTURE_CUBE_MAP:
		face := gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(tv.desc.BaseArrayLayer)
		gl.FramebufferTexture2D(fbTarget, attachment, face, t.id, level)
	case gl.TEXTURE_3D:
		gl.FramebufferTexture3D(fbTarget, attachment, gl.TEXTURE_3D, t.id, level, int32(tv.desc.BaseArrayLayer))
	case gl.TEXTURE_1D:
		gl.FramebufferTexture1D(fbTarget, attachment, gl.TEXTURE_1D, t.id, level)
	default:
		gl.FramebufferTexture2D(fbTarget, attachment, gl.TEXTURE_2D, t.id, level)
	}
}

// clearFramebuffer issues glClear* for every attachment whose Load op
// is LoadClear. Store ops (in particular StoreDiscard) have no
// effect on this backend: glInvalidateFramebuffer is core only since
// GL 4.3, past the Gen2x floor, so a discarded attachment is simply
// left as rendered (a correctness-neutral, performance-only gap noted
// in DESIGN.md).
func clearFramebuffer(desc rhi.RenderPassDescriptor) {
	for i, ca := range desc.ColorAttachments {
		if ca.Load != rhi.LoadClear {
			continue
		}
		c := ca.Clear.Color
		gl.ColorMask(true, true, true, true)
		gl.ClearBufferfv(gl.COLOR, int32(i), &c[0])
	}
	if desc.HasDepthStencil {
		ds := desc.DepthStencil
		clearDepth := ds.DepthLoad == rhi.LoadClear
		clearStencil := ds.StencilLoad == rhi.LoadClear
		switch {
		case clearDepth && clearStencil:
			gl.DepthMask(true)
			gl.StencilMask(0xFFFFFFFF)
			gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, ds.Clear.Depth, int32(ds.Clear.Stencil))
		case clearDepth:
			gl.DepthMask(true)
			depth := ds.Clear.Depth
			gl.ClearBufferfv(gl.DEPTH, 0, &depth)
		case clearStencil:
			gl.StencilMask(0xFFFFFFFF)
			stencil := int32(ds.Clear.Stencil)
			gl.ClearBufferiv(gl.STENCIL, 0, &stencil)
		}
	}
}

// blitToDefaultFramebuffer implements CopyTextureToCanvas: it blits
// src's base mip into framebuffer object 0, the context's default
// framebuffer (the GLFW window's; an OffscreenSurface's FBO is never
// the destination). The
// source attachment is made on GL_READ_FRAMEBUFFER specifically:
// GL_FRAMEBUFFER as an attachment target resolves to the draw
// binding point, which must stay bound to 0 (the blit's destination),
// not to readFBO.
func blitToDefaultFramebuffer(src *textureView) error {
	t := src.src
	var readFBO uint32
	gl.GenFramebuffers(1, &readFBO)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, readFBO)
	attachTextureView(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, src)
	if status := gl.CheckFramebufferStatus(gl.READ_FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &readFBO)
		return fmt.Errorf("glbackend: incomplete source framebuffer for canvas copy (status 0x%x)", status)
	}
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)

	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	w, h := t.desc.Width, t.desc.Height
	gl.BlitFramebuffer(0, 0, int32(w), int32(h), 0, 0, int32(w), int32(h), gl.COLOR_BUFFER_BIT, gl.NEAREST)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(1, &readFBO)
	return nil
}
