// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"sync"

	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
)

// table maps opaque gfx handles to vulkan objects.
type table[T any] struct {
	mu    sync.Mutex
	next  uint64
	items map[uint64]T
}

func (t *table[T]) put(v T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.items == nil {
		t.items = make(map[uint64]T)
	}
	t.next++
	t.items[t.next] = v
	return t.next
}

func (t *table[T]) get(h uint64) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items[h]
}

func (t *table[T]) take(h uint64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[h]
	delete(t.items, h)
	return v, ok
}

// drop removes every entry matching fn.
func (t *table[T]) drop(fn func(T) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, v := range t.items {
		if fn(v) {
			delete(t.items, h)
		}
	}
}

func (t *table[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

type swapchainObject struct {
	swapchain vk.Swapchain
	images    []gfx.Image
}

type setObject struct {
	set  vk.DescriptorSet
	pool gfx.DescriptorPool
}

type pipelineLayoutObject struct {
	layout   vk.PipelineLayout
	pushSize uint32
}

// Driver implements gfx.Driver on top of vulkan.
type Driver struct {
	log logrus.FieldLogger

	instance vk.Instance
	surface  vk.Surface
	debug    vk.DebugReportCallback

	physicalDevices []vk.PhysicalDevice
	physicalDevice  vk.PhysicalDevice
	device          vk.Device
	families        device.QueueFamilies
	memory          *MemoryAllocator

	queues          table[vk.Queue]
	graphicsQueue   gfx.Queue
	presentQueue    gfx.Queue
	swapchains      table[*swapchainObject]
	images          table[Image]
	imageViews      table[vk.ImageView]
	renderPasses    table[vk.RenderPass]
	framebuffers    table[vk.Framebuffer]
	commandPools    table[vk.CommandPool]
	commandBuffers  table[vk.CommandBuffer]
	semaphores      table[vk.Semaphore]
	fences          table[vk.Fence]
	buffers         table[Buffer]
	samplers        table[vk.Sampler]
	setLayouts      table[vk.DescriptorSetLayout]
	descriptorPools table[vk.DescriptorPool]
	descriptorSets  table[setObject]
	shaderModules   table[vk.ShaderModule]
	pipelineLayouts table[pipelineLayoutObject]
	pipelines       table[vk.Pipeline]
	pipelineCache   vk.PipelineCache
}

var _ gfx.Driver = (*Driver)(nil)

// GraphicsQueue implements gfx.Instance.
func (d *Driver) GraphicsQueue() gfx.Queue {
	return d.graphicsQueue
}

// PresentQueue implements gfx.Instance.
func (d *Driver) PresentQueue() gfx.Queue {
	return d.presentQueue
}

// WaitIdle implements gfx.Instance.
func (d *Driver) WaitIdle() error {
	if d.device == nil {
		return nil
	}
	if err := vk.Error(vk.DeviceWaitIdle(d.device)); err != nil {
		return gfx.Fatal(err, "vk.DeviceWaitIdle()")
	}
	return nil
}

// Close implements gfx.Instance. Objects that the caller did not destroy
// are reported and released with the device.
func (d *Driver) Close() {
	if d.device != nil {
		vk.DeviceWaitIdle(d.device)
		if n := d.leaked(); n > 0 {
			d.log.WithField("objects", n).Warn("closing device with live objects")
		}
		vk.DestroyPipelineCache(d.device, d.pipelineCache, nil)
		vk.DestroyDevice(d.device, nil)
		d.device = nil
	}
	if d.debug != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.instance, d.debug, nil)
		d.debug = vk.NullDebugReportCallback
	}
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

func (d *Driver) leaked() int {
	return d.buffers.len() + d.images.len() + d.pipelines.len() + d.swapchains.len()
}
