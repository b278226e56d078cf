package rhi

// Surface abstracts the windowing/presentation surface a Device binds
// a context to. It is deliberately minimal: windowing and input are
// out of scope (spec §1 non-goals); this is only the seam a Backend
// needs to obtain and present a context. glbackend.GLFWSurface is the
// on-screen implementation; glbackend.OffscreenSurface backs onto an
// FBO instead of a window, and rhitest.Surface is a context-free fake
// for tests.
type Surface interface {
	// MakeContextCurrent binds the surface's context to the calling
	// goroutine. All backend calls must happen on this goroutine
	// (spec §5: the legacy backend is not thread-safe).
	MakeContextCurrent()

	// SwapBuffers presents the default framebuffer's contents.
	SwapBuffers()

	// FramebufferSize returns the current drawable size in pixels.
	FramebufferSize() (width, height int)

	// SetFramebufferSizeCallback installs a resize callback; pass nil
	// to clear it.
	SetFramebufferSizeCallback(fn func(width, height int))
}
