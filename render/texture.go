// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/devblok/koru2d/gfx"
)

// PixelsFromImage draws any decoded image onto an RGBA canvas and returns
// its tightly packed pixels with the size of the image.
func PixelsFromImage(img image.Image) ([]byte, gfx.Extent) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas.Pix, gfx.Extent{Width: uint32(bounds.Dx()), Height: uint32(bounds.Dy())}
}

// Texture is an uploaded image together with its view, sampler and the
// descriptor set pointing at them. It is immutable.
type Texture struct {
	ctx     *Context
	image   gfx.Image
	view    gfx.ImageView
	sampler gfx.Sampler
	set     gfx.DescriptorSet
	extent  gfx.Extent
}

// Extent of the texture in pixels.
func (t *Texture) Extent() gfx.Extent {
	return t.extent
}

// Bind makes the texture the one the following draws sample.
func (t *Texture) Bind() {
	t.ctx.texture = t
}

// Release destroys the image, the view and the sampler. The descriptor
// set remains allocated until the registry goes.
func (t *Texture) Release() {
	drv := t.ctx.drv
	if t.ctx.texture == t {
		t.ctx.texture = nil
	}
	if t.sampler != gfx.NullHandle {
		drv.DestroySampler(t.sampler)
		t.sampler = gfx.NullHandle
	}
	if t.view != gfx.NullHandle {
		drv.DestroyImageView(t.view)
		t.view = gfx.NullHandle
	}
	if t.image != gfx.NullHandle {
		drv.DestroyImage(t.image)
		t.image = gfx.NullHandle
	}
}
