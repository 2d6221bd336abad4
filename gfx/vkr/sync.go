// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// CreateSemaphore implements gfx.Syncer.
func (d *Driver) CreateSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateSemaphore()")
	}
	return gfx.Semaphore(d.semaphores.put(semaphore)), nil
}

// DestroySemaphore implements gfx.Syncer.
func (d *Driver) DestroySemaphore(h gfx.Semaphore) {
	if s, ok := d.semaphores.take(uint64(h)); ok {
		vk.DestroySemaphore(d.device, s, nil)
	}
}

// CreateFence implements gfx.Syncer.
func (d *Driver) CreateFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateFence()")
	}
	return gfx.Fence(d.fences.put(fence)), nil
}

// DestroyFence implements gfx.Syncer.
func (d *Driver) DestroyFence(h gfx.Fence) {
	if f, ok := d.fences.take(uint64(h)); ok {
		vk.DestroyFence(d.device, f, nil)
	}
}

// WaitFence implements gfx.Syncer.
func (d *Driver) WaitFence(h gfx.Fence) error {
	fences := []vk.Fence{d.fences.get(uint64(h))}
	if err := vk.Error(vk.WaitForFences(d.device, 1, fences, vk.True, vk.MaxUint64)); err != nil {
		return gfx.Fatal(err, "vk.WaitForFences()")
	}
	return nil
}

// ResetFence implements gfx.Syncer.
func (d *Driver) ResetFence(h gfx.Fence) error {
	fences := []vk.Fence{d.fences.get(uint64(h))}
	if err := vk.Error(vk.ResetFences(d.device, 1, fences)); err != nil {
		return gfx.Fatal(err, "vk.ResetFences()")
	}
	return nil
}
