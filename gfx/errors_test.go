// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
)

func TestFatal(t *testing.T) {
	c := qt.New(t)

	cause := errors.New("ERROR_OUT_OF_DEVICE_MEMORY")
	err := gfx.Fatal(cause, "vk.AllocateMemory()")
	c.Assert(err, qt.ErrorMatches, "vk.AllocateMemory\\(\\): ERROR_OUT_OF_DEVICE_MEMORY")
	c.Assert(errors.Is(err, gfx.ErrDevice), qt.IsTrue)
	c.Assert(errors.Is(err, gfx.ErrMisuse), qt.IsFalse)
	c.Assert(errors.Cause(err), qt.Equals, cause)

	wrapped := errors.Wrap(err, "create swapchain")
	c.Assert(errors.Is(wrapped, gfx.ErrDevice), qt.IsTrue)

	c.Assert(gfx.Fatal(nil, "nothing"), qt.IsNil)
}

func TestMisuse(t *testing.T) {
	c := qt.New(t)
	err := gfx.Misuse("update of static buffer %d", 3)
	c.Assert(err, qt.ErrorMatches, "update of static buffer 3: misuse")
	c.Assert(errors.Is(err, gfx.ErrMisuse), qt.IsTrue)
}

func TestUnsupportedIsDeviceSentinel(t *testing.T) {
	c := qt.New(t)
	_, err := device.Select(nil, nil)
	c.Assert(errors.Is(err, gfx.ErrUnsupported), qt.IsTrue)
}

func TestSwapchainConfigValidate(t *testing.T) {
	c := qt.New(t)
	good := gfx.SwapchainConfig{
		Format:      gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8SRGB},
		PresentMode: gfx.PresentModeFIFO,
		Extent:      gfx.Extent{Width: 800, Height: 600},
		ImageCount:  3,
	}
	c.Assert(good.Validate(), qt.IsNil)
	c.Assert(good.Concurrent(), qt.IsFalse)

	shared := good
	shared.QueueFamilies = []uint32{0, 1}
	c.Assert(shared.Validate(), qt.IsNil)
	c.Assert(shared.Concurrent(), qt.IsTrue)

	empty := good
	empty.Extent.Height = 0
	c.Assert(errors.Is(empty.Validate(), gfx.ErrDevice), qt.IsTrue)

	noImages := good
	noImages.ImageCount = 0
	c.Assert(noImages.Validate(), qt.ErrorMatches, "swapchain image count is zero: device failure")

	oneFamily := good
	oneFamily.QueueFamilies = []uint32{0}
	c.Assert(oneFamily.Validate(), qt.Not(qt.IsNil))
}
