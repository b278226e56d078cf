package glbackend

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kestrelgpu/rhi/rhi"
)

// querySet is a set of occlusion queries (spec §10 supplement).
// Occlusion queries require ARB_occlusion_query2 / core GL 3.3
// behavior this backend only exposes on Gen2x.
type querySet struct {
	ids []uint32
}

func (b *Backend) NewQuerySet(count int) (rhi.QuerySet, error) {
	if b.gen != rhi.Gen2x || !b.caps.Features.Has(rhi.FeatureOcclusionQuery) {
		return nil, rhi.ErrUnsupportedFeature
	}
	q := &querySet{ids: make([]uint32, count)}
	if count > 0 {
		gl.GenQueries(int32(count), &q.ids[0])
	}
	return q, nil
}

func (q *querySet) Destroy() {
	if q == nil || len(q.ids) == 0 {
		return
	}
	gl.DeleteQueries(int32(len(q.ids)), &q.ids[0])
	q.ids = nil
}

func (q *querySet) Label() string { return "" }
func (q *querySet) Count() int    { return len(q.ids) }

// Resolve reads back the sample-passed count of every query in the
// set. A query never begun/ended (id still pending) resolves to 0,
// matching rhitest's fake and spec §10.
func (q *querySet) Resolve() ([]uint64, error) {
	out := make([]uint64, len(q.ids))
	for i, id := range q.ids {
		var available int32
		gl.GetQueryObjectiv(id, gl.QUERY_RESULT_AVAILABLE, &available)
		if available == gl.FALSE {
			continue
		}
		var result uint64
		gl.GetQueryObjectui64v(id, gl.QUERY_RESULT, &result)
		out[i] = result
	}
	return out, nil
}

// computePipeline is a stub: the legacy backend has no compute
// pipelines (spec §1 non-goal, §10 supplement).
type computePipeline struct{}

func (c *computePipeline) Destroy()      {}
func (c *computePipeline) Label() string { return "" }

func (b *Backend) NewComputePipeline(desc rhi.ComputePipelineDescriptor) (rhi.ComputePipeline, error) {
	return nil, rhi.ErrUnsupportedFeature
}
