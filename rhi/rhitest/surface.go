package rhitest

// Surface is a fake rhi.Surface with no real window backing it,
// sufficient for Device construction in tests that never touch pixels.
type Surface struct {
	W, H int
	resizeCB func(w, h int)
}

func (s *Surface) MakeContextCurrent() {}
func (s *Surface) SwapBuffers()        {}

func (s *Surface) FramebufferSize() (int, int) {
	if s.W == 0 && s.H == 0 {
		return 1, 1
	}
	return s.W, s.H
}

func (s *Surface) SetFramebufferSizeCallback(fn func(w, h int)) { s.resizeCB = fn }
