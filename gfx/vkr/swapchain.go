// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// CreateSwapchain implements gfx.Presenter.
func (d *Driver) CreateSwapchain(cfg gfx.SwapchainConfig) (gfx.Swapchain, error) {
	if err := cfg.Validate(); err != nil {
		return gfx.NullHandle, err
	}

	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevice, d.surface, &caps)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	old := vk.NullSwapchain
	if cfg.Old != gfx.NullHandle {
		if sc := d.swapchains.get(uint64(cfg.Old)); sc != nil {
			old = sc.swapchain
		}
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    cfg.ImageCount,
		ImageFormat:      vk.Format(cfg.Format.Format),
		ImageColorSpace:  vk.ColorSpace(cfg.Format.ColorSpace),
		ImageExtent:      extentTo(cfg.Extent),
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentMode(cfg.PresentMode),
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     old,
	}
	if cfg.Concurrent() {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = uint32(len(cfg.QueueFamilies))
		scci.PQueueFamilyIndices = cfg.QueueFamilies
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateSwapchain()")
	}

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &numImages, nil)); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return gfx.NullHandle, gfx.Fatal(err, "vk.GetSwapchainImages(num)")
	}
	images := make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &numImages, images)); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return gfx.NullHandle, gfx.Fatal(err, "vk.GetSwapchainImages(images)")
	}

	obj := &swapchainObject{swapchain: swapchain}
	for _, img := range images {
		obj.images = append(obj.images, gfx.Image(d.images.put(Image{device: d.device, image: img})))
	}

	d.log.WithField("extent", cfg.Extent).
		WithField("images", numImages).
		WithField("mode", cfg.PresentMode).
		Debug("swapchain created")
	return gfx.Swapchain(d.swapchains.put(obj)), nil
}

// DestroySwapchain implements gfx.Presenter. The images go with it.
func (d *Driver) DestroySwapchain(h gfx.Swapchain) {
	sc, ok := d.swapchains.take(uint64(h))
	if !ok {
		return
	}
	for _, img := range sc.images {
		d.images.take(uint64(img))
	}
	vk.DestroySwapchain(d.device, sc.swapchain, nil)
}

// SwapchainImages implements gfx.Presenter.
func (d *Driver) SwapchainImages(h gfx.Swapchain) ([]gfx.Image, error) {
	sc := d.swapchains.get(uint64(h))
	if sc == nil {
		return nil, gfx.Misuse("unknown swapchain %d", h)
	}
	return append([]gfx.Image(nil), sc.images...), nil
}

// AcquireNextImage implements gfx.Presenter.
func (d *Driver) AcquireNextImage(h gfx.Swapchain, signal gfx.Semaphore) (uint32, gfx.Status, error) {
	sc := d.swapchains.get(uint64(h))
	if sc == nil {
		return 0, gfx.StatusSuccess, gfx.Misuse("unknown swapchain %d", h)
	}
	var idx uint32
	result := vk.AcquireNextImage(d.device, sc.swapchain, vk.MaxUint64,
		d.semaphores.get(uint64(signal)), vk.NullFence, &idx)
	st, err := status(result, "vk.AcquireNextImage()")
	return idx, st, err
}

// Present implements gfx.Presenter.
func (d *Driver) Present(q gfx.Queue, info gfx.PresentInfo) (gfx.Status, error) {
	sc := d.swapchains.get(uint64(info.Swapchain))
	if sc == nil {
		return gfx.StatusSuccess, gfx.Misuse("unknown swapchain %d", info.Swapchain)
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.semaphores.get(uint64(info.Wait))},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.swapchain},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return status(vk.QueuePresent(d.queues.get(uint64(q)), &presentInfo), "vk.QueuePresent()")
}
