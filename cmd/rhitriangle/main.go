// Command rhitriangle renders a single spinning triangle through the
// rhi package, grounded on the teacher's Example_basicPresent: a setup
// phase that builds buffers/shaders/pipeline once, followed by a
// steady-state loop that records one command buffer per frame.
package main

import (
	"log"
	"math"
	"time"

	"github.com/chewxy/math32"

	"github.com/kestrelgpu/rhi/rhi"
	"github.com/kestrelgpu/rhi/rhi/glbackend"
)

const (
	width  = 800
	height = 600
)

const vertexSource = `#version 330 core
layout(location = 0) in vec2 aPos;
layout(location = 1) in vec3 aColor;
out vec3 vColor;
layout(std140) uniform _PushConstants { mat2 uRotation; };
void main() {
	vColor = aColor;
	vec2 p = uRotation * aPos;
	gl_Position = vec4(p, 0.0, 1.0);
}
`

const fragmentSource = `#version 330 core
in vec3 vColor;
out vec4 fragColor;
void main() {
	fragColor = vec4(vColor, 1.0);
}
`

var vertices = []float32{
	0.0, 0.6, 1, 0, 0,
	-0.6, -0.6, 0, 1, 0,
	0.6, -0.6, 0, 0, 1,
}

func main() {
	surface, err := glbackend.NewGLFWSurface(width, height, "rhitriangle", rhi.DefaultDeviceDescriptor())
	if err != nil {
		log.Fatal(err)
	}
	defer glbackend.Terminate()

	device, err := glbackend.OpenDevice(surface, rhi.DefaultDeviceDescriptor(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer device.Destroy()

	vs, err := device.CreateShaderModule(rhi.ShaderModuleDescriptor{
		Language: rhi.Glsl, Stage: rhi.StageVertex, Source: vertexSource, Label: "triangle.vert",
	})
	if err != nil {
		log.Fatal(err)
	}
	fs, err := device.CreateShaderModule(rhi.ShaderModuleDescriptor{
		Language: rhi.Glsl, Stage: rhi.StageFragment, Source: fragmentSource, Label: "triangle.frag",
	})
	if err != nil {
		log.Fatal(err)
	}

	vertexBytes := make([]byte, len(vertices)*4)
	for i, v := range vertices {
		bits := math.Float32bits(v)
		vertexBytes[i*4+0] = byte(bits)
		vertexBytes[i*4+1] = byte(bits >> 8)
		vertexBytes[i*4+2] = byte(bits >> 16)
		vertexBytes[i*4+3] = byte(bits >> 24)
	}
	vbuf, err := device.CreateBuffer(rhi.BufferDescriptor{
		Size: int64(len(vertexBytes)), Usage: rhi.UsageVertex, Hint: rhi.HintStatic, Label: "triangle.vbo",
	}, vertexBytes)
	if err != nil {
		log.Fatal(err)
	}

	pipeline, err := device.CreateRenderPipeline(rhi.RenderPipelineDescriptor{
		VertexShader:   vs,
		FragmentShader: fs,
		VertexBuffers: []rhi.VertexBufferLayout{{
			Stride:   5 * 4,
			StepMode: rhi.StepVertex,
			Attributes: []rhi.VertexAttribute{
				{Format: rhi.VertexFloat32x2, Offset: 0, ShaderLocation: 0, Name: "aPos"},
				{Format: rhi.VertexFloat32x3, Offset: 8, ShaderLocation: 1, Name: "aColor"},
			},
		}},
		Topology: rhi.TopologyTriangleList,
		Raster:   rhi.RasterState{FrontFace: rhi.FrontCCW, Cull: rhi.CullNone},
		ColorTargets: []rhi.ColorTargetState{{
			Format: rhi.FormatRGBA8Unorm, WriteMask: rhi.ColorWriteAll,
		}},
		Label: "triangle.pipeline",
	})
	if err != nil {
		log.Fatal(err)
	}

	target, err := device.CreateTexture(rhi.TextureDescriptor{
		Width: width, Height: height, DepthOrArrayLayers: 1, MipLevelCount: 1,
		Dimension: rhi.Dimension2D, Format: rhi.FormatRGBA8Unorm,
		Usage: rhi.UsageRenderTarget | rhi.UsageSampled, Label: "triangle.target",
	}, nil)
	if err != nil {
		log.Fatal(err)
	}
	targetView, err := target.CreateView(rhi.TextureViewDescriptor{Dimension: rhi.ViewDimension2D})
	if err != nil {
		log.Fatal(err)
	}

	surface.Show()
	start := time.Now()
	for !surface.ShouldClose() {
		glbackend.PollEvents()
		angle := float32(time.Since(start).Seconds())

		enc, err := device.CreateCommandEncoder("frame")
		if err != nil {
			log.Fatal(err)
		}

		pass, err := enc.BeginRenderPass(rhi.RenderPassDescriptor{
			ColorAttachments: []rhi.ColorAttachment{{
				View: targetView, Load: rhi.LoadClear, Store: rhi.StoreStore,
				Clear: rhi.ClearValue{Color: [4]float32{0.05, 0.05, 0.08, 1}},
			}},
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := pass.SetPipeline(pipeline); err != nil {
			log.Fatal(err)
		}
		if err := pass.SetVertexBuffer(0, vbuf, 0); err != nil {
			log.Fatal(err)
		}
		pushRotation(pipeline, angle)
		if err := pass.SetViewport(rhi.Viewport{Width: width, Height: height, MaxDepth: 1}); err != nil {
			log.Fatal(err)
		}
		if err := pass.Draw(3, 1, 0, 0); err != nil {
			log.Fatal(err)
		}
		if err := pass.End(); err != nil {
			log.Fatal(err)
		}
		if err := enc.CopyTextureToCanvas(targetView); err != nil {
			log.Fatal(err)
		}

		cmdBuf, err := enc.Finish()
		if err != nil {
			log.Fatal(err)
		}
		if err := device.Submit([]rhi.CommandBuffer{cmdBuf}); err != nil {
			log.Printf("submit: %v", err)
		}
		surface.SwapBuffers()
	}
}

func pushRotation(p rhi.RenderPipeline, angle float32) {
	if !p.HasPushConstants() {
		return
	}
	s, c := math32.Sincos(angle)
	// std140 gives each mat2 column its own 16-byte slot.
	m := [8]float32{c, s, 0, 0, -s, c, 0, 0}
	buf := make([]byte, 32)
	for i, v := range m {
		bits := math.Float32bits(v)
		buf[i*4+0] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	p.UpdatePushConstants(0, buf)
}
