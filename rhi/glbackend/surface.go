package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/kestrelgpu/rhi/rhi"
)

// GLFWSurface is the on-screen rhi.Surface implementation, backed by
// a real window and context. Construct one with NewGLFWSurface before
// calling glbackend.OpenDevice.
type GLFWSurface struct {
	win      *glfw.Window
	resizeCB func(w, h int)
}

// NewGLFWSurface creates a hidden window sized width x height and
// initializes GLFW if this is the first surface created. Call Show
// once the Device is ready to present.
func NewGLFWSurface(width, height int, title string, desc rhi.DeviceDescriptor) (*GLFWSurface, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glbackend: glfw.Init: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)
	if desc.Depth {
		glfw.WindowHint(glfw.DepthBits, 24)
	}
	if desc.Stencil {
		glfw.WindowHint(glfw.StencilBits, 8)
	}
	if desc.Antialias {
		glfw.WindowHint(glfw.Samples, 4)
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glbackend: glfw.CreateWindow: %w", err)
	}
	s := &GLFWSurface{win: win}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		if s.resizeCB != nil {
			s.resizeCB(w, h)
		}
	})
	return s, nil
}

// Show makes the window visible. The application calls this once the
// first frame is ready to present; Device never does.
func (s *GLFWSurface) Show() { s.win.Show() }

func (s *GLFWSurface) MakeContextCurrent() { s.win.MakeContextCurrent() }
func (s *GLFWSurface) SwapBuffers()        { s.win.SwapBuffers() }

func (s *GLFWSurface) FramebufferSize() (int, int) { return s.win.GetFramebufferSize() }

func (s *GLFWSurface) SetFramebufferSizeCallback(fn func(w, h int)) { s.resizeCB = fn }

// ShouldClose reports whether the user requested the window close.
func (s *GLFWSurface) ShouldClose() bool { return s.win.ShouldClose() }

// PollEvents pumps the GLFW event queue. Input handling beyond this
// is out of scope (spec non-goal); GLFWSurface does not expose its
// window for key/mouse polling.
func PollEvents() { glfw.PollEvents() }

// Terminate releases all GLFW state. Call once, after every surface
// created by this process has been discarded.
func Terminate() { glfw.Terminate() }

// OffscreenSurface is a headless rhi.Surface backed by an FBO with a
// color renderbuffer and, optionally, a combined depth/stencil
// renderbuffer. It requires a real (possibly hidden) GL context to
// already be current, typically supplied by a throwaway GLFWSurface
// created with Visible=false. ReadPixels reads its color
// renderbuffer back; render passes draw into their own attachments and
// CopyTextureToCanvas blits into framebuffer 0, so neither writes into
// this FBO.
type OffscreenSurface struct {
	width, height int
	fbo           uint32
	color         uint32
	depthStencil  uint32
	resizeCB      func(w, h int)
	makeCurrent   func()
}

// NewOffscreenSurface allocates an FBO of the given size. makeCurrent
// must bind the same context the caller already created (e.g. a
// hidden GLFWSurface's MakeContextCurrent).
func NewOffscreenSurface(width, height int, desc rhi.DeviceDescriptor, makeCurrent func()) (*OffscreenSurface, error) {
	s := &OffscreenSurface{width: width, height: height, makeCurrent: makeCurrent}
	makeCurrent()
	if err := s.allocate(desc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *OffscreenSurface) allocate(desc rhi.DeviceDescriptor) error {
	gl.GenFramebuffers(1, &s.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)

	gl.GenRenderbuffers(1, &s.color)
	gl.BindRenderbuffer(gl.RENDERBUFFER, s.color)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, int32(s.width), int32(s.height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, s.color)

	if desc.Depth || desc.Stencil {
		gl.GenRenderbuffers(1, &s.depthStencil)
		gl.BindRenderbuffer(gl.RENDERBUFFER, s.depthStencil)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(s.width), int32(s.height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, s.depthStencil)
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("glbackend: offscreen framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (s *OffscreenSurface) MakeContextCurrent() {
	s.makeCurrent()
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
}

// SwapBuffers is a no-op: there is nothing to present off-screen.
func (s *OffscreenSurface) SwapBuffers() {}

func (s *OffscreenSurface) FramebufferSize() (int, int) { return s.width, s.height }

func (s *OffscreenSurface) SetFramebufferSizeCallback(fn func(w, h int)) { s.resizeCB = fn }

// ReadPixels reads back the color renderbuffer as tightly packed RGBA8.
func (s *OffscreenSurface) ReadPixels() []byte {
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	out := make([]byte, s.width*s.height*4)
	gl.ReadPixels(0, 0, int32(s.width), int32(s.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(out))
	return out
}

// Destroy releases the FBO and its renderbuffers. Idempotent.
func (s *OffscreenSurface) Destroy() {
	if s.fbo == 0 {
		return
	}
	gl.DeleteFramebuffers(1, &s.fbo)
	gl.DeleteRenderbuffers(1, &s.color)
	if s.depthStencil != 0 {
		gl.DeleteRenderbuffers(1, &s.depthStencil)
	}
	*s = OffscreenSurface{}
}
