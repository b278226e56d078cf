package rhi

import (
	"fmt"
	"sync"

	"github.com/kestrelgpu/rhi/rhi/internal/tracker"
)

// State is the lifecycle state of a Device.
type State int

const (
	StateActive State = iota
	StateLost
	StateDestroyed
)

// Device is the root object: it owns the backend context, the
// capability record, and the resource tracker. It is a plain value —
// the application constructs and owns one directly, per spec §9's
// "no global mutable state" design note; there is no package-level
// singleton anywhere in this module.
type Device struct {
	mu      sync.Mutex
	backend Backend
	surface Surface
	desc    DeviceDescriptor
	logger  Logger
	trk     *tracker.Tracker
	caps    CapabilityRecord
	state   State

	onContextLost     func()
	onContextRestored func()
}

// NewDevice wraps an already-opened Backend (see
// glbackend.OpenDevice, the usual entry point) into a Device. backend
// must have already negotiated a context against surface using desc.
func NewDevice(backend Backend, surface Surface, desc DeviceDescriptor, logger Logger) *Device {
	if logger == nil {
		logger = defaultLogger
	}
	return &Device{
		backend: backend,
		surface: surface,
		desc:    desc,
		logger:  logger,
		trk:     tracker.New(),
		caps:    backend.Capabilities(),
		state:   StateActive,
	}
}

// Capabilities returns the Device's current capability record.
func (d *Device) Capabilities() CapabilityRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caps
}

// State returns the Device's current lifecycle state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetContextLostCallback installs the callback invoked when the
// Device transitions to StateLost.
func (d *Device) SetContextLostCallback(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onContextLost = fn
}

// SetContextRestoredCallback installs the callback invoked after a
// successful Restore.
func (d *Device) SetContextRestoredCallback(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onContextRestored = fn
}

func (d *Device) checkActive() error {
	return checkState(d.state)
}

func checkState(s State) error {
	switch s {
	case StateLost:
		return ErrContextLost
	case StateDestroyed:
		return ErrLifecycle
	}
	return nil
}

// SimulateContextLoss puts the Device in the Lost state and invokes
// the context-lost callback. Desktop GL has no spontaneous loss
// event, so this is the only way Lost is entered outside of Restore
// failing partway (spec §4.10, S5).
func (d *Device) SimulateContextLoss() {
	d.mu.Lock()
	if d.state != StateActive {
		d.mu.Unlock()
		return
	}
	d.state = StateLost
	cb := d.onContextLost
	d.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Restore re-acquires the backend context with the Device's original
// descriptor, rebuilds the capability record, clears the tracker (all
// previously registered resources are now invalid handles, per spec
// §4.10), and invokes the context-restored callback.
func (d *Device) Restore() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateLost {
		return fmt.Errorf("rhi: Restore called while Device is not Lost")
	}
	caps, err := d.backend.Recreate(d.surface, d.desc)
	if err != nil {
		return err
	}
	d.trk.DestroyAll(true) // invalid handles; nothing real to release
	d.trk = tracker.New()
	d.caps = caps
	d.state = StateActive
	if d.onContextRestored != nil {
		cb := d.onContextRestored
		d.mu.Unlock()
		cb()
		d.mu.Lock()
	}
	return nil
}

// --- resource creation -----------------------------------------------

// trackedBuffer re-exposes Buffer while routing Destroy through the
// tracker's Unregister, so an explicit destroy and the terminal sweep
// never race or double-destroy the same resource.
type trackedBuffer struct {
	Buffer
	id  int
	trk *tracker.Tracker
}

func (t *trackedBuffer) Destroy() {
	t.Buffer.Destroy()
	t.trk.Unregister(t.id)
}

// CreateBuffer creates and tracks a Buffer.
func (d *Device) CreateBuffer(desc BufferDescriptor, initial []byte) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	b, err := d.backend.NewBuffer(desc, initial)
	if err != nil {
		return nil, err
	}
	tb := &trackedBuffer{Buffer: b, trk: d.trk}
	tb.id = d.trk.Register(tracker.CategoryBuffer, desc.Label, tb)
	return tb, nil
}

type trackedTexture struct {
	Texture
	id  int
	trk *tracker.Tracker
}

func (t *trackedTexture) Destroy() {
	t.Texture.Destroy()
	t.trk.Unregister(t.id)
}

// CreateTexture creates and tracks a Texture.
func (d *Device) CreateTexture(desc TextureDescriptor, initial []TextureInitialData) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	tex, err := d.backend.NewTexture(desc, initial)
	if err != nil {
		return nil, err
	}
	tt := &trackedTexture{Texture: tex, trk: d.trk}
	tt.id = d.trk.Register(tracker.CategoryTexture, desc.Label, tt)
	return tt, nil
}

type trackedSampler struct {
	Sampler
	id  int
	trk *tracker.Tracker
}

func (t *trackedSampler) Destroy() {
	t.Sampler.Destroy()
	t.trk.Unregister(t.id)
}

// CreateSampler creates and tracks a Sampler.
func (d *Device) CreateSampler(desc SamplerDescriptor) (Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	s, err := d.backend.NewSampler(desc)
	if err != nil {
		return nil, err
	}
	ts := &trackedSampler{Sampler: s, trk: d.trk}
	ts.id = d.trk.Register(tracker.CategorySampler, desc.Label, ts)
	return ts, nil
}

type trackedShaderModule struct {
	ShaderModule
	id  int
	trk *tracker.Tracker
}

func (t *trackedShaderModule) Destroy() {
	t.ShaderModule.Destroy()
	t.trk.Unregister(t.id)
}

// CreateShaderModule creates and tracks a ShaderModule. Only glsl
// source is accepted; anything else fails with
// ErrUnsupportedLanguage (spec §6).
func (d *Device) CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	if desc.Language != Glsl {
		return nil, ErrUnsupportedLanguage
	}
	s, err := d.backend.NewShaderModule(desc)
	if err != nil {
		return nil, err
	}
	ts := &trackedShaderModule{ShaderModule: s, trk: d.trk}
	ts.id = d.trk.Register(tracker.CategoryShaderModule, desc.Label, ts)
	return ts, nil
}

type trackedBindGroupLayout struct {
	BindGroupLayout
	id  int
	trk *tracker.Tracker
}

func (t *trackedBindGroupLayout) Destroy() {
	t.BindGroupLayout.Destroy()
	t.trk.Unregister(t.id)
}

// CreateBindGroupLayout creates and tracks a BindGroupLayout.
func (d *Device) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	l, err := d.backend.NewBindGroupLayout(desc)
	if err != nil {
		return nil, err
	}
	tl := &trackedBindGroupLayout{BindGroupLayout: l, trk: d.trk}
	tl.id = d.trk.Register(tracker.CategoryBindGroupLayout, desc.Label, tl)
	return tl, nil
}

type trackedBindGroup struct {
	BindGroup
	id  int
	trk *tracker.Tracker
}

func (t *trackedBindGroup) Destroy() {
	t.BindGroup.Destroy()
	t.trk.Unregister(t.id)
}

// CreateBindGroup creates and tracks a BindGroup.
func (d *Device) CreateBindGroup(layout BindGroupLayout, entries []BindGroupEntry, label string) (BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	bg, err := d.backend.NewBindGroup(layout, entries)
	if err != nil {
		return nil, err
	}
	tbg := &trackedBindGroup{BindGroup: bg, trk: d.trk}
	tbg.id = d.trk.Register(tracker.CategoryBindGroup, label, tbg)
	return tbg, nil
}

type trackedPipelineLayout struct {
	PipelineLayout
	id  int
	trk *tracker.Tracker
}

func (t *trackedPipelineLayout) Destroy() {
	t.PipelineLayout.Destroy()
	t.trk.Unregister(t.id)
}

// CreatePipelineLayout creates and tracks a PipelineLayout.
func (d *Device) CreatePipelineLayout(layouts []BindGroupLayout, label string) (PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	pl, err := d.backend.NewPipelineLayout(layouts)
	if err != nil {
		return nil, err
	}
	tpl := &trackedPipelineLayout{PipelineLayout: pl, trk: d.trk}
	tpl.id = d.trk.Register(tracker.CategoryPipelineLayout, label, tpl)
	return tpl, nil
}

type trackedRenderPipeline struct {
	RenderPipeline
	id  int
	trk *tracker.Tracker
}

func (t *trackedRenderPipeline) Destroy() {
	t.RenderPipeline.Destroy()
	t.trk.Unregister(t.id)
}

// CreateRenderPipeline creates and tracks a RenderPipeline.
func (d *Device) CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	p, err := d.backend.NewRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	tp := &trackedRenderPipeline{RenderPipeline: p, trk: d.trk}
	tp.id = d.trk.Register(tracker.CategoryPipeline, desc.Label, tp)
	return tp, nil
}

// CreateComputePipeline always fails: the backend has no compute
// pipelines beyond this stub (spec §1 non-goal, §10 supplement).
func (d *Device) CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	return d.backend.NewComputePipeline(desc)
}

type trackedEncoder struct {
	CommandEncoder
	id  int
	trk *tracker.Tracker
}

func (t *trackedEncoder) Destroy() {
	t.CommandEncoder.Destroy()
	t.trk.Unregister(t.id)
}

// CreateCommandEncoder creates and tracks a CommandEncoder.
func (d *Device) CreateCommandEncoder(label string) (CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	e, err := d.backend.NewCommandEncoder()
	if err != nil {
		return nil, err
	}
	te := &trackedEncoder{CommandEncoder: e, trk: d.trk}
	te.id = d.trk.Register(tracker.CategoryEncoder, label, te)
	return te, nil
}

type trackedQuerySet struct {
	QuerySet
	id  int
	trk *tracker.Tracker
}

func (t *trackedQuerySet) Destroy() {
	t.QuerySet.Destroy()
	t.trk.Unregister(t.id)
}

// CreateQuerySet creates and tracks a QuerySet of count occlusion
// queries (spec §10 supplement). Unsupported on Gen1x.
func (d *Device) CreateQuerySet(count int, label string) (QuerySet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	q, err := d.backend.NewQuerySet(count)
	if err != nil {
		return nil, err
	}
	tq := &trackedQuerySet{QuerySet: q, trk: d.trk}
	tq.id = d.trk.Register(tracker.CategoryQuerySet, label, tq)
	return tq, nil
}

// --- submission -------------------------------------------------------

// Submit executes each command buffer's replay routine in recording
// order. A failure in one buffer is logged and does not abort the
// rest of the batch (spec §4.10/§7).
func (d *Device) Submit(buffers []CommandBuffer) error {
	d.mu.Lock()
	state := d.state
	logger := d.logger
	d.mu.Unlock()
	if err := checkState(state); err != nil {
		return err
	}
	var firstErr error
	for i, cb := range buffers {
		if err := cb.Execute(); err != nil {
			logger.Errorf("submit: command buffer %d: %v", i, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Destroy reports a leak summary, tears every remaining tracked
// resource down in the fixed category order, and releases the
// backend. Idempotent.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateDestroyed {
		return
	}
	report := d.trk.DestroyAll(true)
	if len(report.Leaks) > 0 {
		d.logger.Warnf("device destroy: %d resource(s) leaked", len(report.Leaks))
		for cat, n := range report.ByCategory() {
			d.logger.Warnf("  category %d: %d leaked", cat, n)
		}
	}
	d.backend.Destroy()
	d.state = StateDestroyed
}
