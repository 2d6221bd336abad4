// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru2d/gfx"
)

// PushConstantSize holds the projection and view matrices.
const PushConstantSize = 128

// PipelineStats counts how the cache answered.
type PipelineStats struct {
	Hits     int
	Misses   int
	Rebuilds int
}

type retiredPipeline struct {
	pipeline gfx.Pipeline
	frame    uint64
}

// PipelineCache holds the pipeline of one shader for the layout it was
// last drawn with. Replaced pipelines are destroyed once no frame in
// flight can use them.
type PipelineCache struct {
	drv      gfx.Driver
	log      logrus.FieldLogger
	vertex   gfx.ShaderModule
	fragment gfx.ShaderModule
	layout   gfx.PipelineLayout
	pass     gfx.RenderPass

	key      uint64
	pipeline gfx.Pipeline
	retired  []retiredPipeline
	stats    PipelineStats
}

// NewPipelineCache returns an empty cache, nothing is built until Resolve.
func NewPipelineCache(drv gfx.Driver, vertex, fragment gfx.ShaderModule, layout gfx.PipelineLayout,
	pass gfx.RenderPass, log logrus.FieldLogger) *PipelineCache {
	return &PipelineCache{
		drv:      drv,
		log:      log.WithField("component", "pipeline"),
		vertex:   vertex,
		fragment: fragment,
		layout:   layout,
		pass:     pass,
	}
}

// Resolve returns the pipeline for the layouts, one per binding, and the
// topology. A different key than the cached one builds a new pipeline,
// frame is the number of the frame being recorded.
func (p *PipelineCache) Resolve(layouts []*VertexLayout, topology gfx.Topology, frame uint64) (gfx.Pipeline, error) {
	key := layoutsKey(layouts, topology)
	if p.pipeline != gfx.NullHandle && key == p.key {
		p.stats.Hits++
		return p.pipeline, nil
	}

	cfg := gfx.PipelineConfig{
		Vertex:     p.vertex,
		Fragment:   p.fragment,
		EntryPoint: "main",
		Topology:   topology,
		Cull:       gfx.CullNone,
		Blend:      gfx.BlendAlpha,
		Layout:     p.layout,
		RenderPass: p.pass,
	}
	for i, l := range layouts {
		binding, attrs, err := l.describe(uint32(i))
		if err != nil {
			return gfx.NullHandle, err
		}
		cfg.Bindings = append(cfg.Bindings, binding)
		cfg.Attributes = append(cfg.Attributes, attrs...)
	}

	pipeline, err := p.drv.CreatePipeline(cfg)
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "create pipeline")
	}

	if p.pipeline != gfx.NullHandle {
		p.stats.Rebuilds++
		p.retired = append(p.retired, retiredPipeline{pipeline: p.pipeline, frame: frame})
	} else {
		p.stats.Misses++
	}
	p.pipeline = pipeline
	p.key = key

	p.log.WithField("key", key).
		WithField("attributes", len(cfg.Attributes)).
		Debug("pipeline built")
	return pipeline, nil
}

// collect destroys retired pipelines whose frame has finished on the GPU,
// frame is the oldest frame that may still be in flight.
func (p *PipelineCache) collect(frame uint64) {
	kept := p.retired[:0]
	for _, r := range p.retired {
		if r.frame < frame {
			p.drv.DestroyPipeline(r.pipeline)
			continue
		}
		kept = append(kept, r)
	}
	p.retired = kept
}

// Stats returns the counters of the cache.
func (p *PipelineCache) Stats() PipelineStats {
	return p.stats
}

// Release destroys the current and every retired pipeline. The device
// must be idle.
func (p *PipelineCache) Release() {
	for _, r := range p.retired {
		p.drv.DestroyPipeline(r.pipeline)
	}
	p.retired = nil
	if p.pipeline != gfx.NullHandle {
		p.drv.DestroyPipeline(p.pipeline)
		p.pipeline = gfx.NullHandle
	}
}
