package glbackend

import (
	"testing"

	"github.com/kestrelgpu/rhi/rhi"
)

func TestCmdKindString(t *testing.T) {
	cases := [...]struct {
		kind cmdKind
		want string
	}{
		{cmdBeginRenderPass, "BeginRenderPass"},
		{cmdDraw, "Draw"},
		{cmdCustom, "Custom"},
		{cmdKind(1000), "Unknown"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("cmdKind(%d).String() = %q, want %q", c.kind, got, c.want)
		}
	}
}

// Recording never touches GL state (only Execute does), so an
// encoder backed by a zero-value Backend can be exercised directly
// without a live context.
func newRecordingEncoder(gen rhi.BackendGeneration) *encoder {
	return &encoder{backend: &Backend{gen: gen}}
}

func TestEncoderFinishRejectsFurtherRecording(t *testing.T) {
	e := newRecordingEncoder(rhi.Gen2x)
	if _, err := e.Finish(); err != nil {
		t.Fatalf("Finish: unexpected error %v", err)
	}
	if _, err := e.Finish(); err != rhi.ErrEncoderFinished {
		t.Errorf("second Finish: got %v, want ErrEncoderFinished", err)
	}
	if err := e.CopyBufferToBuffer(rhi.BufferCopy{}); err != rhi.ErrEncoderFinished {
		t.Errorf("CopyBufferToBuffer after Finish: got %v, want ErrEncoderFinished", err)
	}
}

func TestPassRejectsCommandsAfterEnd(t *testing.T) {
	e := newRecordingEncoder(rhi.Gen2x)
	p, err := e.BeginRenderPass(rhi.RenderPassDescriptor{})
	if err != nil {
		t.Fatalf("BeginRenderPass: %v", err)
	}
	if err := p.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := p.End(); err != rhi.ErrPassEnded {
		t.Errorf("second End: got %v, want ErrPassEnded", err)
	}
	if err := p.SetViewport(rhi.Viewport{}); err != rhi.ErrPassEnded {
		t.Errorf("SetViewport after End: got %v, want ErrPassEnded", err)
	}
}

func TestDrawIndirectRejectedOnGen1x(t *testing.T) {
	e := newRecordingEncoder(rhi.Gen1x)
	p, err := e.BeginRenderPass(rhi.RenderPassDescriptor{})
	if err != nil {
		t.Fatalf("BeginRenderPass: %v", err)
	}
	if err := p.DrawIndirect(nil, 0); err != rhi.ErrUnsupportedFeature {
		t.Errorf("DrawIndirect on Gen1x: got %v, want ErrUnsupportedFeature", err)
	}
	if err := p.DrawIndexedIndirect(nil, 0); err != rhi.ErrUnsupportedFeature {
		t.Errorf("DrawIndexedIndirect on Gen1x: got %v, want ErrUnsupportedFeature", err)
	}
}

func TestRecordedCommandSequence(t *testing.T) {
	e := newRecordingEncoder(rhi.Gen2x)
	p, err := e.BeginRenderPass(rhi.RenderPassDescriptor{})
	if err != nil {
		t.Fatalf("BeginRenderPass: %v", err)
	}
	if err := p.SetViewport(rhi.Viewport{Width: 640, Height: 480}); err != nil {
		t.Fatalf("SetViewport: %v", err)
	}
	if err := p.Draw(3, 1, 0, 0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := p.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	cb, err := e.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	buf, ok := cb.(*commandBuffer)
	if !ok {
		t.Fatalf("Finish returned %T, want *commandBuffer", cb)
	}
	wantKinds := []cmdKind{cmdBeginRenderPass, cmdSetViewport, cmdDraw, cmdEndRenderPass}
	if len(buf.commands) != len(wantKinds) {
		t.Fatalf("recorded %d commands, want %d", len(buf.commands), len(wantKinds))
	}
	for i, want := range wantKinds {
		if buf.commands[i].kind != want {
			t.Errorf("commands[%d].kind = %v, want %v", i, buf.commands[i].kind, want)
		}
	}
}
