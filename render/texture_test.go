// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render_test

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/gfx/gfxtest"
	"github.com/devblok/koru2d/render"
)

func TestPixelsFromImage(t *testing.T) {
	c := qt.New(t)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})

	pixels, extent := render.PixelsFromImage(img)
	c.Assert(extent, qt.Equals, gfx.Extent{Width: 2, Height: 1})
	c.Assert(pixels, qt.DeepEquals, []byte{255, 0, 0, 255, 0, 0, 255, 255})
}

func TestPixelsFromOffsetImage(t *testing.T) {
	c := qt.New(t)
	img := image.NewGray(image.Rect(3, 3, 5, 4))
	img.Set(3, 3, color.Gray{Y: 10})
	img.Set(4, 3, color.Gray{Y: 20})

	pixels, extent := render.PixelsFromImage(img)
	c.Assert(extent, qt.Equals, gfx.Extent{Width: 2, Height: 1})
	c.Assert(pixels, qt.DeepEquals, []byte{10, 10, 10, 255, 20, 20, 20, 255})
}

func TestTextureUpload(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	drv.ResetCalls()

	tex, err := ctx.CreateTexture(make([]byte, 2*2*4), 2, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(tex.Extent(), qt.Equals, gfx.Extent{Width: 2, Height: 2})

	barrier := drv.Index("CmdImageBarrier", 0)
	c.Assert(barrier >= 0, qt.IsTrue)
	img := drv.Calls()[barrier]
	c.Assert(drv.Index("CmdCopyBufferToImage", barrier) > barrier, qt.IsTrue)
	c.Assert(drv.Count("CmdImageBarrier"), qt.Equals, 2)
	c.Assert(drv.Count("QueueWaitIdle"), qt.Equals, 1)
	c.Assert(drv.Live("Image"), qt.Equals, 1)
	c.Assert(drv.Live("Sampler"), qt.Equals, 1)
	c.Assert(drv.Live("DescriptorSet"), qt.Equals, 1)
	// only the staging buffer was created and it is gone
	c.Assert(drv.Live("Buffer"), qt.Equals, 0)
	var handle gfx.Image
	var from, to uint32
	_, err = fmt.Sscanf(img, "CmdImageBarrier %d %d %d", &handle, &from, &to)
	c.Assert(err, qt.IsNil)
	c.Assert(gfx.ImageLayout(from), qt.Equals, gfx.ImageLayoutUndefined)
	c.Assert(gfx.ImageLayout(to), qt.Equals, gfx.ImageLayoutTransferDst)
	c.Assert(drv.ImageLayout(handle), qt.Equals, gfx.ImageLayoutShaderReadOnly)

	c.Assert(drv.Descriptors, qt.HasLen, 1)
	c.Assert(ctx.Registry().Allocated(), qt.Equals, 1)
	assertClean(c, drv)
}

func TestTextureRecordFails(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	buffers := drv.Live("CommandBuffer")
	drv.ResetCalls()

	drv.Failures["CmdImageBarrier"] = errors.New("VK_ERROR_OUT_OF_HOST_MEMORY")
	_, err := ctx.CreateTexture(make([]byte, 4), 1, 1)
	c.Assert(errors.Is(err, gfx.ErrDevice), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "record upload: VK_ERROR_OUT_OF_HOST_MEMORY")

	// the upload buffer was still closed and handed back
	barrier := drv.Index("CmdImageBarrier", 0)
	c.Assert(drv.Index("EndCommandBuffer", barrier) > barrier, qt.IsTrue)
	c.Assert(drv.Count("Submit"), qt.Equals, 0)
	c.Assert(drv.Live("CommandBuffer"), qt.Equals, buffers)
	c.Assert(drv.Live("Image"), qt.Equals, 0)
	c.Assert(drv.Live("Buffer"), qt.Equals, 0)
	c.Assert(ctx.Registry().Allocated(), qt.Equals, 0)
}

func TestTextureBadPixels(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)

	_, err := ctx.CreateTexture(make([]byte, 3), 1, 1)
	c.Assert(errors.Is(err, gfx.ErrMisuse), qt.IsTrue)
	_, err = ctx.CreateTexture(nil, 0, 0)
	c.Assert(errors.Is(err, gfx.ErrMisuse), qt.IsTrue)
	c.Assert(drv.Live("Image"), qt.Equals, 0)
	c.Assert(ctx.Registry().Allocated(), qt.Equals, 0)
}

func TestTextureBind(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	s := newShader(c, ctx)
	va := drawArray(c, ctx, positionLayout())

	tex, err := ctx.CreateTexture(make([]byte, 4), 1, 1)
	c.Assert(err, qt.IsNil)
	tex.Bind()

	drv.ResetCalls()
	frame(c, ctx, va, s)
	c.Assert(drv.Count("CmdBindDescriptorSet"), qt.Equals, 1)
	c.Assert(drv.Index("CmdBindDescriptorSet", 0) < drv.Index("CmdDraw", 0), qt.IsTrue)

	tex.Release()
	drv.ResetCalls()
	frame(c, ctx, va, s)
	c.Assert(drv.Count("CmdBindDescriptorSet"), qt.Equals, 0)
	c.Assert(drv.Live("Image"), qt.Equals, 0)
}

func TestTextureExhaustion(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)

	pixel := []byte{255, 255, 255, 255}
	for i := 0; i < render.MaxTextureDescriptors; i++ {
		_, err := ctx.CreateTexture(pixel, 1, 1)
		c.Assert(err, qt.IsNil, qt.Commentf("texture %d", i))
	}
	c.Assert(ctx.Registry().Allocated(), qt.Equals, render.MaxTextureDescriptors)

	uploads := drv.Count("CreateImage")
	_, err := ctx.CreateTexture(pixel, 1, 1)
	c.Assert(errors.Is(err, gfx.ErrMisuse), qt.IsTrue)
	c.Assert(drv.Count("CreateImage"), qt.Equals, uploads)
	c.Assert(drv.Live("DescriptorSet"), qt.Equals, render.MaxTextureDescriptors)

	ctx.Dispose()
	c.Assert(drv.Leaks(), qt.HasLen, 0)
	assertClean(c, drv)
}
