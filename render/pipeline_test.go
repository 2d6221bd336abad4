// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/gfx/gfxtest"
	"github.com/devblok/koru2d/render"
)

func TestLayoutKey(t *testing.T) {
	c := qt.New(t)
	a := positionLayout()
	b := positionLayout()
	c.Assert(a.Key(), qt.Equals, b.Key())

	changes := []func(*render.VertexAttribute){
		func(v *render.VertexAttribute) { v.Index = 1 },
		func(v *render.VertexAttribute) { v.Size = 3 },
		func(v *render.VertexAttribute) { v.Normalized = true },
		func(v *render.VertexAttribute) { v.Stride = 16 },
		func(v *render.VertexAttribute) { v.Offset = 4 },
		func(v *render.VertexAttribute) { v.Divisor = 1 },
	}
	for i, change := range changes {
		l := positionLayout()
		change(&l.Attributes[0])
		c.Assert(l.Key(), qt.Not(qt.Equals), a.Key(), qt.Commentf("change %d", i))
	}

	two := render.NewVertexLayout(a.Attributes[0], a.Attributes[0])
	c.Assert(two.Key(), qt.Not(qt.Equals), a.Key())
}

func TestLayoutStride(t *testing.T) {
	c := qt.New(t)
	c.Assert(render.NewVertexLayout().Stride(), qt.Equals, 0)
	c.Assert(positionLayout().Stride(), qt.Equals, 8)
	c.Assert(positionLayout().Instanced(), qt.IsFalse)
	c.Assert(render.NewVertexLayout(render.VertexAttribute{Divisor: 1}).Instanced(), qt.IsTrue)
}

func drawArray(c *qt.C, ctx *render.Context, layout *render.VertexLayout) *render.VertexArray {
	vb, err := ctx.CreateStaticBuffer(quad, layout)
	c.Assert(err, qt.IsNil)
	va := ctx.NewVertexArray()
	va.AddBuffer(vb)
	return va
}

func TestPipelineCacheHit(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	s := newShader(c, ctx)
	first := drawArray(c, ctx, positionLayout())
	second := drawArray(c, ctx, positionLayout())

	drv.ResetCalls()
	for i := 0; i < 3; i++ {
		c.Assert(ctx.BeginFrame(), qt.IsNil)
		c.Assert(ctx.Draw(first, s, render.Triangles), qt.IsNil)
		c.Assert(ctx.Draw(second, s, render.Triangles), qt.IsNil)
		c.Assert(ctx.Present(0), qt.IsNil)
	}
	c.Assert(drv.Count("CreatePipeline "), qt.Equals, 1)
	c.Assert(s.Pipelines().Stats(), qt.Equals, render.PipelineStats{Hits: 5, Misses: 1})

	var cfg gfx.PipelineConfig
	for _, p := range drv.Pipelines {
		cfg = p
	}
	c.Assert(cfg.EntryPoint, qt.Equals, "main")
	c.Assert(cfg.Cull, qt.Equals, gfx.CullNone)
	c.Assert(cfg.Blend, qt.Equals, gfx.BlendAlpha)
	c.Assert(cfg.Topology, qt.Equals, gfx.TopologyTriangleList)
	c.Assert(cfg.Attributes, qt.DeepEquals, []gfx.VertexAttribute{{
		Location: 0,
		Binding:  0,
		Format:   gfx.FormatR32G32SFloat,
		Offset:   0,
	}})
	c.Assert(cfg.Bindings, qt.DeepEquals, []gfx.VertexBinding{{Binding: 0, Stride: 8}})
}

func TestPipelineRebuild(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	s := newShader(c, ctx)
	flat := drawArray(c, ctx, positionLayout())
	colored := drawArray(c, ctx, render.NewVertexLayout(
		render.VertexAttribute{Index: 0, Size: 2, Type: render.Float, Stride: 24},
		render.VertexAttribute{Index: 1, Size: 4, Type: render.Float, Stride: 24, Offset: 8},
	))

	drv.ResetCalls()
	c.Assert(ctx.BeginFrame(), qt.IsNil)
	c.Assert(ctx.Draw(flat, s, render.Triangles), qt.IsNil)
	c.Assert(ctx.Draw(colored, s, render.Triangles), qt.IsNil)
	c.Assert(ctx.Present(0), qt.IsNil)

	c.Assert(drv.Count("CreatePipeline 1 3"), qt.Equals, 1)
	c.Assert(drv.Count("CreatePipeline 2 3"), qt.Equals, 1)
	c.Assert(s.Pipelines().Stats(), qt.Equals, render.PipelineStats{Misses: 1, Rebuilds: 1})
	// the replaced pipeline may still be read by the submitted frame
	c.Assert(drv.Count("DestroyPipeline"), qt.Equals, 0)
	c.Assert(drv.Live("Pipeline"), qt.Equals, 2)

	frame(c, ctx, nil, nil)
	c.Assert(drv.Count("DestroyPipeline"), qt.Equals, 0)
	// the slot that recorded the old pipeline has been waited on again
	frame(c, ctx, nil, nil)
	c.Assert(drv.Count("DestroyPipeline"), qt.Equals, 1)
	c.Assert(drv.Live("Pipeline"), qt.Equals, 1)

	wait := drv.Index("WaitFence", drv.Index("Present", 0))
	c.Assert(drv.Index("DestroyPipeline", 0) > wait, qt.IsTrue)
	assertClean(c, drv)
}

func TestPipelineTopology(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	s := newShader(c, ctx)
	va := drawArray(c, ctx, positionLayout())

	drv.ResetCalls()
	c.Assert(ctx.BeginFrame(), qt.IsNil)
	c.Assert(ctx.Draw(va, s, render.Lines), qt.IsNil)
	c.Assert(ctx.Draw(va, s, render.Points), qt.IsNil)
	c.Assert(ctx.Present(0), qt.IsNil)
	c.Assert(drv.Count("CreatePipeline 1 1"), qt.Equals, 1)
	c.Assert(drv.Count("CreatePipeline 1 0"), qt.Equals, 1)
}

func TestShaderMissing(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)

	_, err := ctx.CreateShader("2d/vert.glsl", "2d/none.glsl")
	c.Assert(err, qt.ErrorMatches, "load shader shaders/2d/none.spv: .*")
	// the vertex module was destroyed again
	c.Assert(drv.Live("ShaderModule"), qt.Equals, 0)
}

func TestShaderPushConstants(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	s := newShader(c, ctx)

	proj := mgl32.Ortho2D(0, 800, 0, 600)
	s.SetUniform(render.UniformProjection, proj)
	s.SetUniform(render.UniformView, mgl32.Ident4())
	s.SetUniform("uTexture", 0)
	c.Assert(s.Projection(), qt.Equals, proj)
	c.Assert(s.View(), qt.Equals, mgl32.Ident4())
}
