package glbackend

import (
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

// shaderModule wraps one compiled GL shader object.
type shaderModule struct {
	id    uint32
	stage rhi.ShaderStage
	label string
}

func shaderStageGL(stage rhi.ShaderStage) uint32 {
	if stage&rhi.StageFragment != 0 {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

// NewShaderModule compiles source as glsl. rhi.Device already rejects
// any language other than Glsl before this is reached.
func (b *Backend) NewShaderModule(desc rhi.ShaderModuleDescriptor) (rhi.ShaderModule, error) {
	glType := shaderStageGL(desc.Stage)
	id := gl.CreateShader(glType)

	csources, free := gl.Strs(desc.Source + "\x00")
	gl.ShaderSource(id, 1, csources, nil)
	free()
	gl.CompileShader(id)

	var ok int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(id, logLen, nil, gl.Str(infoLog))
		gl.DeleteShader(id)
		return nil, &rhi.CompileError{Stage: desc.Stage, Label: desc.Label, Log: infoLog}
	}

	return &shaderModule{id: id, stage: desc.Stage, label: desc.Label}, nil
}

func (s *shaderModule) Destroy() {
	if s == nil || s.id == 0 {
		return
	}
	gl.DeleteShader(s.id)
	*s = shaderModule{}
}

func (s *shaderModule) Label() string          { return s.label }
func (s *shaderModule) Stage() rhi.ShaderStage { return s.stage }
