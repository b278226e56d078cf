package glbackend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/glbackend/internal/enumconv"
)

// cmdKind tags one recorded command. Recording only ever appends to a
// flat slice shared by the encoder and every pass nested within it;
// BeginRenderPass/End are themselves recorded commands, so replay
// reconstructs the nesting by bracketing framebuffer setup/teardown
// around the commands between them (spec §4.9).
type cmdKind int

const (
	cmdBeginRenderPass cmdKind = iota
	cmdEndRenderPass
	cmdSetPipeline
	cmdSetBindGroup
	cmdSetVertexBuffer
	cmdSetIndexBuffer
	cmdSetViewport
	cmdSetScissor
	cmdSetBlendConstant
	cmdSetStencilReference
	cmdBeginOcclusionQuery
	cmdEndOcclusionQuery
	cmdDraw
	cmdDrawIndexed
	cmdDrawIndirect
	cmdDrawIndexedIndirect
	cmdCopyBufferToBuffer
	cmdCopyTextureToTexture
	cmdCopyBufferToTexture
	cmdCopyTextureToBuffer
	cmdCustom
)

func (k cmdKind) String() string {
	names := [...]string{
		"BeginRenderPass", "EndRenderPass", "SetPipeline", "SetBindGroup",
		"SetVertexBuffer", "SetIndexBuffer", "SetViewport", "SetScissor",
		"SetBlendConstant", "SetStencilReference", "BeginOcclusionQuery",
		"EndOcclusionQuery", "Draw", "DrawIndexed", "DrawIndirect",
		"DrawIndexedIndirect", "CopyBufferToBuffer", "CopyTextureToTexture",
		"CopyBufferToTexture", "CopyTextureToBuffer", "Custom",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// command is the tagged-sum recorded unit. Only the fields relevant
// to kind are populated; everything else is the zero value.
type command struct {
	kind cmdKind

	passDesc rhi.RenderPassDescriptor

	pipeline *renderPipeline

	bgSlot int
	bg     *bindGroup

	vbSlot   int
	vbBuffer *buffer
	vbOffset int64

	ibBuffer *buffer
	ibFormat rhi.IndexFormat
	ibOffset int64

	viewport rhi.Viewport
	scissor  rhi.Scissor

	blendR, blendG, blendB, blendA float32
	stencilRef                     uint32

	querySet   *querySet
	queryIndex int

	vertexCount, instanceCount, firstVertex, firstInstance int
	indexCount, baseVertex                                 int
	indirectBuf                                            *buffer
	indirectOffset                                         int64

	bufferCopy        rhi.BufferCopy
	textureCopy       rhi.TextureCopy
	bufferTextureCopy rhi.BufferTextureCopy

	custom func(*Backend) error
}

// encoder accumulates commands. It never touches GL state itself;
// only CommandBuffer.Execute does, on whichever goroutine calls it
// (spec §5: all backend calls happen on the context's bound
// goroutine).
type encoder struct {
	backend  *Backend
	commands []command
	finished bool
	inPass   bool
}

func (b *Backend) NewCommandEncoder() (rhi.CommandEncoder, error) {
	return &encoder{backend: b}, nil
}

func (e *encoder) Destroy()      {}
func (e *encoder) Label() string { return "" }

func (e *encoder) BeginRenderPass(desc rhi.RenderPassDescriptor) (rhi.RenderPass, error) {
	if e.finished {
		return nil, rhi.ErrEncoderFinished
	}
	e.commands = append(e.commands, command{kind: cmdBeginRenderPass, passDesc: desc})
	e.inPass = true
	return &pass{enc: e}, nil
}

func (e *encoder) CopyBufferToBuffer(c rhi.BufferCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	e.commands = append(e.commands, command{kind: cmdCopyBufferToBuffer, bufferCopy: c})
	return nil
}

func (e *encoder) CopyTextureToTexture(c rhi.TextureCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	e.commands = append(e.commands, command{kind: cmdCopyTextureToTexture, textureCopy: c})
	return nil
}

func (e *encoder) CopyBufferToTexture(c rhi.BufferTextureCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	e.commands = append(e.commands, command{kind: cmdCopyBufferToTexture, bufferTextureCopy: c})
	return nil
}

func (e *encoder) CopyTextureToBuffer(c rhi.BufferTextureCopy) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	e.commands = append(e.commands, command{kind: cmdCopyTextureToBuffer, bufferTextureCopy: c})
	return nil
}

// CopyTextureToCanvas is the one operation recorded as a closure
// rather than a tagged struct: it blits into the Device's default
// framebuffer, which this encoder has no typed handle for, so it
// captures src and replays through a direct GL blit into framebuffer
// 0 (see blitToDefaultFramebuffer) when the owning CommandBuffer
// executes.
func (e *encoder) CopyTextureToCanvas(src rhi.TextureView) error {
	if e.finished {
		return rhi.ErrEncoderFinished
	}
	tv, ok := src.(*textureView)
	if !ok {
		return rhi.ErrConfiguration
	}
	e.commands = append(e.commands, command{kind: cmdCustom, custom: func(b *Backend) error {
		return blitToDefaultFramebuffer(tv)
	}})
	return nil
}

func (e *encoder) Finish() (rhi.CommandBuffer, error) {
	if e.finished {
		return nil, rhi.ErrEncoderFinished
	}
	e.finished = true
	return &commandBuffer{backend: e.backend, commands: e.commands}, nil
}

// pass is a thin recording handle: every call just appends to the
// owning encoder's flat command list, tagged the same way encoder
// commands are, with cmdEndRenderPass closing the bracket opened by
// BeginRenderPass.
type pass struct {
	enc   *encoder
	ended bool
}

func (p *pass) checkOpen() error {
	if p.ended {
		return rhi.ErrPassEnded
	}
	if p.enc.finished {
		return rhi.ErrEncoderFinished
	}
	return nil
}

func (p *pass) SetPipeline(rp rhi.RenderPipeline) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	pp, ok := rp.(*renderPipeline)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetPipeline, pipeline: pp})
	return nil
}

func (p *pass) SetBindGroup(slot int, bg rhi.BindGroup, dynamicOffsets []int64) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	bbg, ok := bg.(*bindGroup)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetBindGroup, bgSlot: slot, bg: bbg})
	return nil
}

func (p *pass) SetVertexBuffer(slot int, buf rhi.Buffer, offset int64) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetVertexBuffer, vbSlot: slot, vbBuffer: b, vbOffset: offset})
	return nil
}

func (p *pass) SetIndexBuffer(buf rhi.Buffer, format rhi.IndexFormat, offset int64) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetIndexBuffer, ibBuffer: b, ibFormat: format, ibOffset: offset})
	return nil
}

func (p *pass) SetViewport(v rhi.Viewport) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetViewport, viewport: v})
	return nil
}

func (p *pass) SetScissor(s rhi.Scissor) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetScissor, scissor: s})
	return nil
}

func (p *pass) SetBlendConstant(r, g, bch, a float32) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetBlendConstant, blendR: r, blendG: g, blendB: bch, blendA: a})
	return nil
}

func (p *pass) SetStencilReference(value uint32) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdSetStencilReference, stencilRef: value})
	return nil
}

func (p *pass) BeginOcclusionQuery(set rhi.QuerySet, index int) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	qs, ok := set.(*querySet)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdBeginOcclusionQuery, querySet: qs, queryIndex: index})
	return nil
}

func (p *pass) EndOcclusionQuery() error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdEndOcclusionQuery})
	return nil
}

func (p *pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{
		kind: cmdDraw, vertexCount: vertexCount, instanceCount: instanceCount,
		firstVertex: firstVertex, firstInstance: firstInstance,
	})
	return nil
}

func (p *pass) DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance int) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.enc.commands = append(p.enc.commands, command{
		kind: cmdDrawIndexed, indexCount: indexCount, instanceCount: instanceCount,
		firstVertex: firstIndex, baseVertex: baseVertex, firstInstance: firstInstance,
	})
	return nil
}

// DrawIndirect/DrawIndexedIndirect are rejected on Gen1x; on Gen2x
// without GL_ARB_draw_indirect they still record, and replay falls
// back to reading the indirect buffer's arguments back to the CPU
// and issuing the equivalent direct draw (spec §10 supplement).
func (p *pass) DrawIndirect(indirectBuf rhi.Buffer, offset int64) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if p.enc.backend.gen == rhi.Gen1x {
		return rhi.ErrUnsupportedFeature
	}
	b, ok := indirectBuf.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdDrawIndirect, indirectBuf: b, indirectOffset: offset})
	return nil
}

func (p *pass) DrawIndexedIndirect(indirectBuf rhi.Buffer, offset int64) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if p.enc.backend.gen == rhi.Gen1x {
		return rhi.ErrUnsupportedFeature
	}
	b, ok := indirectBuf.(*buffer)
	if !ok {
		return rhi.ErrConfiguration
	}
	p.enc.commands = append(p.enc.commands, command{kind: cmdDrawIndexedIndirect, indirectBuf: b, indirectOffset: offset})
	return nil
}

func (p *pass) End() error {
	if p.ended {
		return rhi.ErrPassEnded
	}
	p.ended = true
	p.enc.inPass = false
	p.enc.commands = append(p.enc.commands, command{kind: cmdEndRenderPass})
	return nil
}

// commandBuffer is an immutable recorded sequence, replayed in order
// against b's current context.
type commandBuffer struct {
	backend  *Backend
	commands []command
}

// replayState tracks the handful of things one pass needs to thread
// between commands during replay: the current pipeline (for its
// topology and program), the bound index buffer and format, and the
// framebuffer assembled for the currently-open pass.
type replayState struct {
	fbo                            uint32
	rb                             uint32
	pipeline                       *renderPipeline
	boundIndexBuf                  *buffer
	indexFormat                    rhi.IndexFormat
	activeQuery                    uint32
	blendR, blendG, blendB, blendA float32
}

func (cb *commandBuffer) Execute() error {
	var st replayState
	var firstErr error
	for _, c := range cb.commands {
		if err := cb.backend.execOne(&st, c); err != nil {
			wrapped := &rhi.ReplayError{Label: "", Op: c.kind.String(), Err: err}
			cb.backend.logger.Errorf("%v", wrapped)
			if firstErr == nil {
				firstErr = wrapped
			}
		}
	}
	return firstErr
}

func (b *Backend) execOne(st *replayState, c command) error {
	switch c.kind {
	case cmdBeginRenderPass:
		fbo, rb, err := assembleFramebuffer(c.passDesc, b.logger)
		if err != nil {
			return err
		}
		st.fbo = fbo
		st.rb = rb
		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		clearFramebuffer(c.passDesc)
		return nil

	case cmdEndRenderPass:
		if st.rb != 0 {
			gl.DeleteRenderbuffers(1, &st.rb)
			st.rb = 0
		}
		if st.fbo != 0 {
			gl.DeleteFramebuffers(1, &st.fbo)
			st.fbo = 0
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return nil

	case cmdSetPipeline:
		st.pipeline = c.pipeline
		c.pipeline.apply()
		gl.BlendColor(st.blendR, st.blendG, st.blendB, st.blendA)
		return nil

	case cmdSetBindGroup:
		if st.pipeline == nil {
			return fmt.Errorf("glbackend: SetBindGroup with no pipeline bound")
		}
		c.bg.apply(b.gen, st.pipeline.program, b.logger)
		return nil

	case cmdSetVertexBuffer:
		if st.pipeline == nil {
			return fmt.Errorf("glbackend: SetVertexBuffer with no pipeline bound")
		}
		st.pipeline.applyVertexBufferLayout(c.vbSlot, c.vbBuffer, c.vbOffset)
		return nil

	case cmdSetIndexBuffer:
		st.boundIndexBuf = c.ibBuffer
		st.indexFormat = c.ibFormat
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.ibBuffer.id)
		return nil

	case cmdSetViewport:
		v := c.viewport
		gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
		gl.DepthRange(float64(v.MinDepth), float64(v.MaxDepth))
		return nil

	case cmdSetScissor:
		s := c.scissor
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(int32(s.X), int32(s.Y), int32(s.Width), int32(s.Height))
		return nil

	case cmdSetBlendConstant:
		st.blendR, st.blendG, st.blendB, st.blendA = c.blendR, c.blendG, c.blendB, c.blendA
		gl.BlendColor(st.blendR, st.blendG, st.blendB, st.blendA)
		return nil

	case cmdSetStencilReference:
		if st.pipeline != nil && st.pipeline.hasDepthStencil && st.pipeline.depthStencil.StencilTest {
			front, back := st.pipeline.depthStencil.Front, st.pipeline.depthStencil.Back
			gl.StencilFuncSeparate(gl.FRONT, enumconv.CompareFuncGL(front.Compare), int32(c.stencilRef), front.ReadMask)
			gl.StencilFuncSeparate(gl.BACK, enumconv.CompareFuncGL(back.Compare), int32(c.stencilRef), back.ReadMask)
		}
		return nil

	case cmdBeginOcclusionQuery:
		if c.queryIndex < 0 || c.queryIndex >= len(c.querySet.ids) {
			return rhi.ErrOutOfRange
		}
		id := c.querySet.ids[c.queryIndex]
		gl.BeginQuery(gl.SAMPLES_PASSED, id)
		st.activeQuery = id
		return nil

	case cmdEndOcclusionQuery:
		gl.EndQuery(gl.SAMPLES_PASSED)
		st.activeQuery = 0
		return nil

	case cmdDraw:
		gl.DrawArraysInstancedBaseInstance(st.topologyOr(gl.TRIANGLES),
			int32(c.firstVertex), int32(c.vertexCount), int32(c.instanceCount), uint32(c.firstInstance))
		return nil

	case cmdDrawIndexed:
		elemType := enumconv.IndexFormatGL(st.indexFormat)
		elemSize := 2
		if st.indexFormat == rhi.IndexUint32 {
			elemSize = 4
		}
		offset := c.firstVertex * elemSize
		gl.DrawElementsInstancedBaseVertexBaseInstance(st.topologyOr(gl.TRIANGLES),
			int32(c.indexCount), elemType, gl.PtrOffset(offset), int32(c.instanceCount),
			int32(c.baseVertex), uint32(c.firstInstance))
		return nil

	case cmdDrawIndirect:
		return replayIndirectDraw(b, st, c, false)

	case cmdDrawIndexedIndirect:
		return replayIndirectDraw(b, st, c, true)

	case cmdCopyBufferToBuffer:
		return copyBufferToBuffer(c.bufferCopy)

	case cmdCopyTextureToTexture:
		return copyTextureToTexture(c.textureCopy)

	case cmdCopyBufferToTexture:
		return copyBufferToTexture(c.bufferTextureCopy)

	case cmdCopyTextureToBuffer:
		return copyTextureToBuffer(c.bufferTextureCopy)

	case cmdCustom:
		return c.custom(b)
	}
	return fmt.Errorf("glbackend: unhandled command kind %v", c.kind)
}

func (st *replayState) topologyOr(fallback uint32) uint32 {
	if st.pipeline == nil {
		return fallback
	}
	return st.pipeline.topology
}

// replayIndirectDraw calls glDrawArraysIndirect/
// glDrawElementsIndirect when FeatureDrawIndirect is set; otherwise it
// emulates them by reading the 4-uint32 argument block back from
// indirectBuf and issuing the equivalent direct draw. This
// backend targets a GL 3.3 core floor where GL_ARB_draw_indirect is
// common but not guaranteed on every driver claiming that version;
// the emulation keeps DrawIndirect usable everywhere at the cost of a
// synchronous readback (spec §10 supplement).
func replayIndirectDraw(b *Backend, st *replayState, c command, indexed bool) error {
	if b.caps.Features.Has(rhi.FeatureDrawIndirect) {
		gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, c.indirectBuf.id)
		if indexed {
			gl.DrawElementsIndirect(st.topologyOr(gl.TRIANGLES), enumconv.IndexFormatGL(st.indexFormat), gl.PtrOffset(int(c.indirectOffset)))
		} else {
			gl.DrawArraysIndirect(st.topologyOr(gl.TRIANGLES), gl.PtrOffset(int(c.indirectOffset)))
		}
		gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)
		return nil
	}

	args := make([]byte, 16)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.indirectBuf.id)
	gl.GetBufferSubData(gl.ARRAY_BUFFER, int(c.indirectOffset), 16, gl.Ptr(args))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	a := (*[4]uint32)(unsafe.Pointer(&args[0]))

	if indexed {
		elemSize := 2
		if st.indexFormat == rhi.IndexUint32 {
			elemSize = 4
		}
		count, instances, firstIndex, baseVertex := a[0], a[1], a[2], a[3]
		gl.DrawElementsInstancedBaseVertex(st.topologyOr(gl.TRIANGLES), int32(count),
			enumconv.IndexFormatGL(st.indexFormat), gl.PtrOffset(int(firstIndex)*elemSize), int32(instances), int32(baseVertex))
		return nil
	}
	count, instances, first, _ := a[0], a[1], a[2], a[3]
	gl.DrawArraysInstanced(st.topologyOr(gl.TRIANGLES), int32(first), int32(count), int32(instances))
	return nil
}
