// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
)

// errMinimized is returned while the surface has no area to render to.
var errMinimized = errors.New("surface has an empty extent")

// ChooseFormat prefers B8G8R8A8 sRGB with a nonlinear sRGB color space
// and falls back to the first available format.
func ChooseFormat(formats []gfx.SurfaceFormat) gfx.SurfaceFormat {
	for _, f := range formats {
		if f.Format == gfx.FormatB8G8R8A8SRGB && f.ColorSpace == gfx.ColorSpaceSRGBNonlinear {
			return f
		}
	}
	if len(formats) == 0 {
		return gfx.SurfaceFormat{}
	}
	return formats[0]
}

// ChoosePresentMode returns FIFO for vsync, otherwise mailbox when the
// surface has it. FIFO is always available.
func ChoosePresentMode(modes []gfx.PresentMode, vsync bool) gfx.PresentMode {
	if vsync {
		return gfx.PresentModeFIFO
	}
	for _, m := range modes {
		if m == gfx.PresentModeMailbox {
			return m
		}
	}
	return gfx.PresentModeFIFO
}

// ChooseExtent uses the current extent of the surface, unless the surface
// leaves it to the swapchain, then size is clamped to the allowed bounds.
func ChooseExtent(caps gfx.SurfaceCapabilities, size gfx.Extent) gfx.Extent {
	if caps.CurrentExtent.Width != gfx.UndefinedExtent {
		return caps.CurrentExtent
	}
	return gfx.Extent{
		Width:  clamp(size.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(size.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// ChooseImageCount asks for one image above the minimum.
func ChooseImageCount(caps gfx.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// NewSwapchainConfig gathers the swapchain choices for a surface.
func NewSwapchainConfig(support gfx.SurfaceSupport, families device.QueueFamilies, size gfx.Extent, vsync bool) gfx.SwapchainConfig {
	cfg := gfx.SwapchainConfig{
		Format:      ChooseFormat(support.Formats),
		PresentMode: ChoosePresentMode(support.PresentModes, vsync),
		Extent:      ChooseExtent(support.Capabilities, size),
		ImageCount:  ChooseImageCount(support.Capabilities),
	}
	if !families.Shared() {
		cfg.QueueFamilies = []uint32{uint32(families.Graphics), uint32(families.Present)}
	}
	return cfg
}

// Swapchain is the set of presentable images, one view and one
// framebuffer each, and the render pass they are drawn with.
type Swapchain struct {
	drv      gfx.Driver
	log      logrus.FieldLogger
	families device.QueueFamilies
	vsync    bool

	handle       gfx.Swapchain
	config       gfx.SwapchainConfig
	pass         gfx.RenderPass
	images       []gfx.Image
	views        []gfx.ImageView
	framebuffers []gfx.Framebuffer
}

// NewSwapchain creates the swapchain and its render pass. The surface
// format picked here is kept for the lifetime of the swapchain.
func NewSwapchain(drv gfx.Driver, families device.QueueFamilies, size gfx.Extent, vsync bool, log logrus.FieldLogger) (*Swapchain, error) {
	s := &Swapchain{
		drv:      drv,
		log:      log.WithField("component", "swapchain"),
		families: families,
		vsync:    vsync,
	}

	cfg, err := s.configure(size)
	if err != nil {
		return nil, gfx.Fatal(err, "create swapchain")
	}
	if s.pass, err = drv.CreateRenderPass(cfg.Format.Format); err != nil {
		return nil, gfx.Fatal(err, "create render pass")
	}
	if err := s.build(cfg); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *Swapchain) configure(size gfx.Extent) (gfx.SwapchainConfig, error) {
	support, err := s.drv.SurfaceSupport()
	if err != nil {
		return gfx.SwapchainConfig{}, gfx.Fatal(err, "query surface support")
	}
	cfg := NewSwapchainConfig(support, s.families, size, s.vsync)
	if s.handle != gfx.NullHandle || s.pass != gfx.NullHandle {
		cfg.Format = s.config.Format
	}
	if cfg.Extent.Empty() {
		return cfg, errMinimized
	}
	return cfg, nil
}

func (s *Swapchain) build(cfg gfx.SwapchainConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	handle, err := s.drv.CreateSwapchain(cfg)
	if err != nil {
		return gfx.Fatal(err, "create swapchain")
	}
	s.handle = handle
	s.config = cfg

	if s.images, err = s.drv.SwapchainImages(handle); err != nil {
		return gfx.Fatal(err, "get swapchain images")
	}
	for _, img := range s.images {
		view, err := s.drv.CreateImageView(img, cfg.Format.Format)
		if err != nil {
			return gfx.Fatal(err, "create swapchain image view")
		}
		s.views = append(s.views, view)

		fb, err := s.drv.CreateFramebuffer(s.pass, view, cfg.Extent)
		if err != nil {
			return gfx.Fatal(err, "create framebuffer")
		}
		s.framebuffers = append(s.framebuffers, fb)
	}

	s.log.WithField("extent", cfg.Extent).
		WithField("images", len(s.images)).
		WithField("mode", cfg.PresentMode).
		Debug("swapchain built")
	return nil
}

// Recreate rebuilds the swapchain for size. Framebuffers, views and the
// swapchain are destroyed in that order first. The device must be idle.
func (s *Swapchain) Recreate(size gfx.Extent) error {
	cfg, err := s.configure(size)
	if err != nil {
		return err
	}
	s.destroy()
	return s.build(cfg)
}

func (s *Swapchain) destroy() {
	for _, fb := range s.framebuffers {
		s.drv.DestroyFramebuffer(fb)
	}
	for _, view := range s.views {
		s.drv.DestroyImageView(view)
	}
	if s.handle != gfx.NullHandle {
		s.drv.DestroySwapchain(s.handle)
	}
	s.framebuffers = nil
	s.views = nil
	s.images = nil
	s.handle = gfx.NullHandle
}

// Handle of the current swapchain.
func (s *Swapchain) Handle() gfx.Swapchain { return s.handle }

// Config the current swapchain was built with.
func (s *Swapchain) Config() gfx.SwapchainConfig { return s.config }

// Extent of the swapchain images.
func (s *Swapchain) Extent() gfx.Extent { return s.config.Extent }

// ImageCount is the number of images the driver created.
func (s *Swapchain) ImageCount() int { return len(s.images) }

// RenderPass the framebuffers belong to.
func (s *Swapchain) RenderPass() gfx.RenderPass { return s.pass }

// Framebuffer of image i.
func (s *Swapchain) Framebuffer(i uint32) gfx.Framebuffer { return s.framebuffers[i] }

// Framebuffers returns a copy of every framebuffer in image order.
func (s *Swapchain) Framebuffers() []gfx.Framebuffer {
	return append([]gfx.Framebuffer(nil), s.framebuffers...)
}

// Views returns a copy of every image view in image order.
func (s *Swapchain) Views() []gfx.ImageView {
	return append([]gfx.ImageView(nil), s.views...)
}

// Release destroys the swapchain and the render pass.
func (s *Swapchain) Release() {
	s.destroy()
	if s.pass != gfx.NullHandle {
		s.drv.DestroyRenderPass(s.pass)
		s.pass = gfx.NullHandle
	}
}
