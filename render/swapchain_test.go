// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/gfx/gfxtest"
	"github.com/devblok/koru2d/render"
)

func TestChooseFormat(t *testing.T) {
	c := qt.New(t)
	srgb := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8SRGB, ColorSpace: gfx.ColorSpaceSRGBNonlinear}
	unorm := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSRGBNonlinear}

	c.Assert(render.ChooseFormat([]gfx.SurfaceFormat{unorm, srgb}), qt.Equals, srgb)
	c.Assert(render.ChooseFormat([]gfx.SurfaceFormat{unorm}), qt.Equals, unorm)
	c.Assert(render.ChooseFormat(nil), qt.Equals, gfx.SurfaceFormat{})
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)
	both := []gfx.PresentMode{gfx.PresentModeFIFO, gfx.PresentModeMailbox}

	c.Assert(render.ChoosePresentMode(both, true), qt.Equals, gfx.PresentModeFIFO)
	c.Assert(render.ChoosePresentMode(both, false), qt.Equals, gfx.PresentModeMailbox)
	c.Assert(render.ChoosePresentMode([]gfx.PresentMode{gfx.PresentModeFIFO}, false), qt.Equals, gfx.PresentModeFIFO)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)
	free := gfx.SurfaceCapabilities{
		CurrentExtent: gfx.Extent{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent},
		MinExtent:     gfx.Extent{Width: 16, Height: 16},
		MaxExtent:     gfx.Extent{Width: 1920, Height: 1080},
	}
	tests := []struct {
		about string
		caps  gfx.SurfaceCapabilities
		size  gfx.Extent
		want  gfx.Extent
	}{{
		about: "surface decides",
		caps:  gfx.SurfaceCapabilities{CurrentExtent: gfx.Extent{Width: 640, Height: 480}},
		size:  gfx.Extent{Width: 800, Height: 600},
		want:  gfx.Extent{Width: 640, Height: 480},
	}, {
		about: "within bounds",
		caps:  free,
		size:  gfx.Extent{Width: 800, Height: 600},
		want:  gfx.Extent{Width: 800, Height: 600},
	}, {
		about: "too large",
		caps:  free,
		size:  gfx.Extent{Width: 4000, Height: 3000},
		want:  gfx.Extent{Width: 1920, Height: 1080},
	}, {
		about: "too small",
		caps:  free,
		size:  gfx.Extent{Width: 1, Height: 2},
		want:  gfx.Extent{Width: 16, Height: 16},
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			c.Assert(render.ChooseExtent(test.caps, test.size), qt.Equals, test.want)
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)
	c.Assert(render.ChooseImageCount(gfx.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}), qt.Equals, uint32(3))
	c.Assert(render.ChooseImageCount(gfx.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(render.ChooseImageCount(gfx.SurfaceCapabilities{MinImageCount: 2}), qt.Equals, uint32(3))
}

func TestSwapchainConfigSharing(t *testing.T) {
	c := qt.New(t)
	support := gfxtest.New().Support
	size := gfx.Extent{Width: 800, Height: 600}

	shared := render.NewSwapchainConfig(support, device.QueueFamilies{Graphics: 0, Present: 0}, size, true)
	c.Assert(shared.QueueFamilies, qt.IsNil)
	c.Assert(shared.PresentMode, qt.Equals, gfx.PresentModeFIFO)
	c.Assert(shared.Format.Format, qt.Equals, gfx.FormatB8G8R8A8SRGB)

	split := render.NewSwapchainConfig(support, device.QueueFamilies{Graphics: 0, Present: 1}, size, true)
	c.Assert(split.QueueFamilies, qt.DeepEquals, []uint32{0, 1})
}

func TestSwapchainBuild(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)

	sc := ctx.Swapchain()
	c.Assert(sc.Extent(), qt.Equals, gfx.Extent{Width: 800, Height: 600})
	c.Assert(sc.ImageCount(), qt.Equals, 3)
	c.Assert(sc.Config().PresentMode, qt.Equals, gfx.PresentModeMailbox)
	c.Assert(sc.Config().Format.Format, qt.Equals, gfx.FormatB8G8R8A8SRGB)
	c.Assert(sc.Views(), qt.HasLen, 3)
	c.Assert(sc.Framebuffers(), qt.HasLen, 3)
	for i, fb := range sc.Framebuffers() {
		got := drv.Framebuffers[fb]
		c.Assert(got.Pass, qt.Equals, sc.RenderPass())
		c.Assert(got.View, qt.Equals, sc.Views()[i])
		c.Assert(got.Extent, qt.Equals, sc.Extent())
	}
	cfg, ok := drv.SwapchainConfig(sc.Handle())
	c.Assert(ok, qt.IsTrue)
	c.Assert(cfg, qt.DeepEquals, sc.Config())
}

func TestSwapchainRecreate(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	ctx := newContext(c, drv)
	sc := ctx.Swapchain()
	old := sc.Handle()
	pass := sc.RenderPass()

	c.Assert(sc.Recreate(gfx.Extent{Width: 1280, Height: 720}), qt.IsNil)
	c.Assert(sc.Handle(), qt.Not(qt.Equals), old)
	c.Assert(sc.RenderPass(), qt.Equals, pass)
	c.Assert(sc.Extent(), qt.Equals, gfx.Extent{Width: 1280, Height: 720})
	c.Assert(drv.Live("Swapchain"), qt.Equals, 1)
	c.Assert(drv.Live("Framebuffer"), qt.Equals, sc.ImageCount())
	c.Assert(drv.Live("ImageView"), qt.Equals, sc.ImageCount())
	for _, fb := range sc.Framebuffers() {
		c.Assert(drv.Framebuffers[fb].Extent, qt.Equals, sc.Extent())
	}
	assertClean(c, drv)
}

func TestSwapchainCreateFails(t *testing.T) {
	c := qt.New(t)
	drv := gfxtest.New()
	drv.Failures["CreateSwapchain"] = errors.New("ERROR_SURFACE_LOST_KHR")

	ctx := render.New(func(gfx.Window) (gfx.Driver, error) { return drv, nil }, render.Options{Log: quietLog()})
	err := ctx.WindowCreated(&window{width: 800, height: 600}, 800, 600, false)
	c.Assert(errors.Is(err, gfx.ErrDevice), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, ".*ERROR_SURFACE_LOST_KHR")
	c.Assert(drv.Leaks(), qt.HasLen, 0)
	c.Assert(drv.Count("Close"), qt.Equals, 1)
}
