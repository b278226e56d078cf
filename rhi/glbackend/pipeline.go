package glbackend

import (
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/glbackend/internal/enumconv"
)

// pushConstantsBindingPoint is the reserved uniform-buffer binding
// index the hidden push-constants block is attached to, chosen clear
// of any binding a real BindGroupLayout would plausibly declare
// (spec §10 supplement: push constants are emulated via a hidden UBO,
// functional only on Gen2x where UBOs exist).
const pushConstantsBindingPoint = 15

// renderPipeline is a derived artifact: a linked GL program, a parsed
// vertex-buffer layout, and (Gen2x only) a VAO and an optional
// push-constants UBO.
type renderPipeline struct {
	gen     rhi.BackendGeneration
	program uint32
	vao     uint32 // 0 on Gen1x: attrib pointers are set per SetVertexBuffer instead

	vertexBuffers []rhi.VertexBufferLayout
	// attribLocations[slot][i] is the resolved GL attribute location
	// for vertexBuffers[slot].Attributes[i] — reflected by name when
	// the program links, falling back to the declared ShaderLocation
	// when no name was given, or -1 when neither resolves (spec
	// §4.7 step 2/applyVertexBufferLayout).
	attribLocations [][]int32
	topology        uint32
	raster          rhi.RasterState
	hasDepthStencil bool
	depthStencil    rhi.DepthStencilState
	colorTargets    []rhi.ColorTargetState

	hasPushConstants bool
	pushConstantBuf  uint32
	pushConstantSize int

	label string
}

func (b *Backend) NewRenderPipeline(desc rhi.RenderPipelineDescriptor) (rhi.RenderPipeline, error) {
	if desc.VertexShader == nil || desc.FragmentShader == nil {
		return nil, &rhi.LinkError{Label: desc.Label, Log: "missing vertex or fragment stage"}
	}
	vs, ok := desc.VertexShader.(*shaderModule)
	if !ok {
		return nil, &rhi.LinkError{Label: desc.Label, Log: "vertex shader not created by this backend"}
	}
	fs, ok := desc.FragmentShader.(*shaderModule)
	if !ok {
		return nil, &rhi.LinkError{Label: desc.Label, Log: "fragment shader not created by this backend"}
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs.id)
	gl.AttachShader(program, fs.id)

	gl.LinkProgram(program)
	var ok32 int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok32)
	if ok32 == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(infoLog))
		gl.DeleteProgram(program)
		return nil, &rhi.LinkError{Label: desc.Label, Log: infoLog}
	}

	p := &renderPipeline{
		gen:             b.gen,
		program:         program,
		vertexBuffers:   desc.VertexBuffers,
		topology:        enumconv.PrimitiveTopologyGL(desc.Topology),
		raster:          desc.Raster,
		hasDepthStencil: desc.HasDepthStencil,
		depthStencil:    desc.DepthStencil,
		colorTargets:    desc.ColorTargets,
		label:           desc.Label,
	}
	p.reflectAttribLocations(desc.Label, b.logger)

	if b.gen == rhi.Gen2x {
		gl.GenVertexArrays(1, &p.vao)
		p.probePushConstants()
	}

	return p, nil
}

// reflectAttribLocations resolves each vertex attribute's real GL
// location after linking: by reflected name when one is declared,
// else by the descriptor's own ShaderLocation, warning and marking
// the attribute unresolvable (-1, skipped at draw time) when neither
// yields a valid location (spec §4.7 step 2).
func (p *renderPipeline) reflectAttribLocations(label string, logger rhi.Logger) {
	p.attribLocations = make([][]int32, len(p.vertexBuffers))
	for slot, vb := range p.vertexBuffers {
		locs := make([]int32, len(vb.Attributes))
		for i, a := range vb.Attributes {
			loc := int32(-1)
			if a.Name != "" {
				loc = gl.GetAttribLocation(p.program, gl.Str(a.Name+"\x00"))
			}
			if loc < 0 {
				loc = int32(a.ShaderLocation)
			}
			if loc < 0 {
				logger.Warnf("render pipeline %q: attribute %q at slot %d has no reflected name and no shaderLocation; skipping", label, a.Name, slot)
			}
			locs[i] = loc
		}
		p.attribLocations[slot] = locs
	}
}

// applyVertexBufferLayout binds buf to slot and issues the
// glVertexAttribPointer calls for every attribute declared against
// that slot, additively layering slot after slot the way multiple
// vertex buffers combine into one vertex stream (spec §4.7). On
// Gen2x this records into whichever VAO renderPipeline.apply bound
// beforehand; on Gen1x there is no VAO, so the same calls simply set
// the global (per-context) vertex attrib state directly, reissued on
// every bind.
func (p *renderPipeline) applyVertexBufferLayout(slot int, buf *buffer, offset int64) {
	if slot < 0 || slot >= len(p.vertexBuffers) {
		return
	}
	vb := p.vertexBuffers[slot]
	locs := p.attribLocations[slot]
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
	for i, a := range vb.Attributes {
		loc := locs[i]
		if loc < 0 {
			continue
		}
		ctype, ccount, normalized := enumconv.VertexFormatGL(a.Format)
		gl.EnableVertexAttribArray(uint32(loc))
		ptrOffset := int(offset + a.Offset)
		gl.VertexAttribPointer(uint32(loc), ccount, ctype, normalized, int32(vb.Stride), gl.PtrOffset(ptrOffset))
		divisor := uint32(0)
		if vb.StepMode == rhi.StepInstance {
			divisor = 1
		}
		gl.VertexAttribDivisor(uint32(loc), divisor)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// probePushConstants looks for a uniform block named _PushConstants
// and, if found, creates a backing UBO sized to match and binds it at
// the reserved binding point.
func (p *renderPipeline) probePushConstants() {
	name := gl.Str("_PushConstants\x00")
	idx := gl.GetUniformBlockIndex(p.program, name)
	if idx == gl.INVALID_INDEX {
		return
	}
	var size int32
	gl.GetActiveUniformBlockiv(p.program, idx, gl.UNIFORM_BLOCK_DATA_SIZE, &size)
	gl.UniformBlockBinding(p.program, idx, pushConstantsBindingPoint)

	gl.GenBuffers(1, &p.pushConstantBuf)
	gl.BindBuffer(gl.UNIFORM_BUFFER, p.pushConstantBuf)
	gl.BufferData(gl.UNIFORM_BUFFER, int(size), nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, pushConstantsBindingPoint, p.pushConstantBuf)

	p.hasPushConstants = true
	p.pushConstantSize = int(size)
}

func (p *renderPipeline) Destroy() {
	if p == nil || p.program == 0 {
		return
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
	}
	if p.pushConstantBuf != 0 {
		gl.DeleteBuffers(1, &p.pushConstantBuf)
	}
	gl.DeleteProgram(p.program)
	*p = renderPipeline{}
}

func (p *renderPipeline) Label() string          { return p.label }
func (p *renderPipeline) HasPushConstants() bool { return p.hasPushConstants }

func (p *renderPipeline) UpdatePushConstants(offset int, data []byte) {
	if !p.hasPushConstants || p.gen != rhi.Gen2x {
		return
	}
	if offset < 0 || offset+len(data) > p.pushConstantSize {
		return
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, p.pushConstantBuf)
	gl.BufferSubData(gl.UNIFORM_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// apply binds the program and pushes the fixed-function raster,
// depth/stencil and blend state derived from the descriptor. Gen1x
// has no VAO to rebind; its vertex state is instead set per-buffer by
// RenderPass.SetVertexBuffer calling applyVertexBufferLayout directly.
func (p *renderPipeline) apply() {
	gl.UseProgram(p.program)
	if p.vao != 0 {
		gl.BindVertexArray(p.vao)
	}

	if enable, face := enumconv.CullModeGL(p.raster.Cull); enable {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(face)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	gl.FrontFace(enumconv.FrontFaceGL(p.raster.FrontFace))
	if p.raster.DepthBias {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(p.raster.BiasSlope, p.raster.BiasValue)
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}
	if p.raster.LineWidth > 0 {
		gl.LineWidth(p.raster.LineWidth)
	}

	if p.hasDepthStencil && p.depthStencil.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(enumconv.CompareFuncGL(p.depthStencil.DepthCompare))
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(p.hasDepthStencil && p.depthStencil.DepthWrite)

	if p.hasDepthStencil && p.depthStencil.StencilTest {
		gl.Enable(gl.STENCIL_TEST)
		applyStencilFace(gl.FRONT, p.depthStencil.Front)
		applyStencilFace(gl.BACK, p.depthStencil.Back)
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}

	for i, ct := range p.colorTargets {
		_ = i
		if ct.Blend {
			gl.Enable(gl.BLEND)
			gl.BlendEquationSeparate(enumconv.BlendOpGL(ct.ColorOp), enumconv.BlendOpGL(ct.AlphaOp))
			gl.BlendFuncSeparate(
				enumconv.BlendFactorGL(ct.SrcColor), enumconv.BlendFactorGL(ct.DstColor),
				enumconv.BlendFactorGL(ct.SrcAlpha), enumconv.BlendFactorGL(ct.DstAlpha))
		} else {
			gl.Disable(gl.BLEND)
		}
		gl.ColorMask(
			ct.WriteMask&rhi.ColorWriteRed != 0,
			ct.WriteMask&rhi.ColorWriteGreen != 0,
			ct.WriteMask&rhi.ColorWriteBlue != 0,
			ct.WriteMask&rhi.ColorWriteAlpha != 0)
		break // a single fixed-function blend state applies to all targets at once pre-GL4 (spec §4.7 note)
	}
}

func applyStencilFace(face uint32, s rhi.StencilFaceState) {
	gl.StencilFuncSeparate(face, enumconv.CompareFuncGL(s.Compare), 0, s.ReadMask)
	gl.StencilOpSeparate(face, enumconv.StencilOpGL(s.FailOp), enumconv.StencilOpGL(s.DepthFailOp), enumconv.StencilOpGL(s.PassOp))
	gl.StencilMaskSeparate(face, s.WriteMask)
}
