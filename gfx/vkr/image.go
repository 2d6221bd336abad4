// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// NewImage creates a device local, optimally tiled 2D image and binds memory to it.
func NewImage(dev vk.Device, cfg gfx.ImageConfig, ma *MemoryAllocator) (Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  cfg.Extent.Width,
			Height: cfg.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vk.Format(cfg.Format),
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(cfg.Usage),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(dev, &createInfo, nil, &image)); err != nil {
		return Image{}, gfx.Fatal(err, "vk.CreateImage()")
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, image, &req)
	req.Deref()

	memory, err := ma.Malloc(req, gfx.MemoryDeviceLocal)
	if err != nil {
		vk.DestroyImage(dev, image, nil)
		return Image{}, err
	}
	if err := vk.Error(vk.BindImageMemory(dev, image, memory.Get(), 0)); err != nil {
		vk.DestroyImage(dev, image, nil)
		memory.Release()
		return Image{}, gfx.Fatal(err, "vk.BindImageMemory()")
	}

	return Image{
		device: dev,
		image:  image,
		memory: &memory,
	}, nil
}

// Image implements and abstracts vulkan image primitive. Swapchain
// images have no memory of their own.
type Image struct {
	device vk.Device
	image  vk.Image
	memory *Memory
}

// Mem returns the underlying memory of the Image.
func (i *Image) Mem() *Memory {
	return i.memory
}

// Release destroys an owned image and its memory.
func (i *Image) Release() {
	if i.memory == nil {
		return
	}
	vk.DestroyImage(i.device, i.image, nil)
	i.memory.Release()
}

// CreateImage implements gfx.Allocator.
func (d *Driver) CreateImage(cfg gfx.ImageConfig) (gfx.Image, error) {
	img, err := NewImage(d.device, cfg, d.memory)
	if err != nil {
		return gfx.NullHandle, err
	}
	return gfx.Image(d.images.put(img)), nil
}

// DestroyImage implements gfx.Allocator.
func (d *Driver) DestroyImage(h gfx.Image) {
	if img, ok := d.images.take(uint64(h)); ok {
		img.Release()
	}
}

// CreateImageView implements gfx.Presenter.
func (d *Driver) CreateImageView(h gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(uint64(h)).image,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorRange(),
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateImageView()")
	}
	return gfx.ImageView(d.imageViews.put(view)), nil
}

// DestroyImageView implements gfx.Presenter.
func (d *Driver) DestroyImageView(h gfx.ImageView) {
	if view, ok := d.imageViews.take(uint64(h)); ok {
		vk.DestroyImageView(d.device, view, nil)
	}
}

// CreateSampler implements gfx.Allocator.
func (d *Driver) CreateSampler(cfg gfx.SamplerConfig) (gfx.Sampler, error) {
	address := vk.SamplerAddressMode(cfg.AddressMode)
	sci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.Filter(cfg.MagFilter),
		MinFilter:               vk.Filter(cfg.MinFilter),
		AddressModeU:            address,
		AddressModeV:            address,
		AddressModeW:            address,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeNearest,
	}

	var sampler vk.Sampler
	if err := vk.Error(vk.CreateSampler(d.device, &sci, nil, &sampler)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateSampler()")
	}
	return gfx.Sampler(d.samplers.put(sampler)), nil
}

// DestroySampler implements gfx.Allocator.
func (d *Driver) DestroySampler(h gfx.Sampler) {
	if s, ok := d.samplers.take(uint64(h)); ok {
		vk.DestroySampler(d.device, s, nil)
	}
}

func colorRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}
