// Package tracker implements the process-wide-per-Device resource
// registry described in spec §4.2/§9: every first-class resource a
// Backend creates is registered here under its category, so that
// Device.Destroy can report a leak summary and tear resources down in
// a fixed order that avoids dangling references within the backend's
// reference graph.
package tracker

import "sync"

// Category is one of the resource kinds a Tracker accounts for.
type Category int

const (
	CategoryEncoder Category = iota
	CategoryBindGroup
	CategoryPipeline
	CategoryBindGroupLayout
	CategoryPipelineLayout
	CategoryQuerySet
	CategoryShaderModule
	CategorySampler
	CategoryTexture
	CategoryBuffer
	CategoryOther
)

// teardownOrder is the fixed sequence required by spec §9:
// encoders -> bindgroups -> pipelines -> bindgroup-layouts ->
// pipeline-layouts -> querysets -> shaders -> samplers -> textures ->
// buffers -> other.
var teardownOrder = []Category{
	CategoryEncoder,
	CategoryBindGroup,
	CategoryPipeline,
	CategoryBindGroupLayout,
	CategoryPipelineLayout,
	CategoryQuerySet,
	CategoryShaderModule,
	CategorySampler,
	CategoryTexture,
	CategoryBuffer,
	CategoryOther,
}

// Destroyer matches rhi.Destroyer without importing the rhi package,
// keeping this package free of a dependency cycle.
type Destroyer interface {
	Destroy()
	Label() string
}

type entry struct {
	id       int
	category Category
	label    string
	res      Destroyer
}

// Tracker is a live-resource registry. The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	nextID  int
	entries map[int]entry
}

// New returns a ready-to-use Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[int]entry)}
}

// Register records res under category with the given label and
// returns an id used to Unregister it later.
func (t *Tracker) Register(category Category, label string, res Destroyer) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries == nil {
		t.entries = make(map[int]entry)
	}
	t.nextID++
	id := t.nextID
	t.entries[id] = entry{id: id, category: category, label: label, res: res}
	return id
}

// Unregister removes id from the registry without destroying it. It
// is called by a resource's own Destroy method once it has torn
// itself down, so that an explicit destroy and the terminal sweep
// never double-destroy the same resource.
func (t *Tracker) Unregister(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Counts returns the number of currently-registered resources per
// category (spec §8 property 1).
func (t *Tracker) Counts() map[Category]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[Category]int)
	for _, e := range t.entries {
		counts[e.category]++
	}
	return counts
}

// Leak describes one resource still live when DestroyAll was called.
type Leak struct {
	Category Category
	Label    string
}

// LeakReport is the result of a terminal DestroyAll sweep.
type LeakReport struct {
	Leaks []Leak
}

// ByCategory partitions the report's leaks by category, for S6-style
// assertions.
func (r LeakReport) ByCategory() map[Category]int {
	counts := make(map[Category]int)
	for _, l := range r.Leaks {
		counts[l.Category]++
	}
	return counts
}

// DestroyAll destroys every remaining registered resource in the
// fixed teardown order, clears the registry, and returns a leak
// report describing what was still live. If silent is false, callers
// are expected to log the report themselves; DestroyAll never logs.
func (t *Tracker) DestroyAll(silent bool) LeakReport {
	t.mu.Lock()
	byCategory := make(map[Category][]entry)
	for _, e := range t.entries {
		byCategory[e.category] = append(byCategory[e.category], e)
	}
	t.entries = make(map[int]entry)
	t.mu.Unlock()

	var report LeakReport
	for _, cat := range teardownOrder {
		for _, e := range byCategory[cat] {
			report.Leaks = append(report.Leaks, Leak{Category: cat, Label: e.label})
			e.res.Destroy()
		}
	}
	_ = silent
	return report
}
