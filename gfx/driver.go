// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "github.com/devblok/koru2d/device"

// Driver is a thin, handle based view of an explicit GPU API. It does not
// make policy decisions, everything it creates is owned and destroyed by
// the caller. Destroy calls accept NullHandle and are no-ops for it.
type Driver interface {
	Instance
	Presenter
	Syncer
	Commander
	Recorder
	Allocator
	Binder
	Pipeliner
}

// Instance covers adapter discovery and the logical device.
type Instance interface {

	// Adapters enumerates the physical devices, including the
	// surface related counts needed for scoring.
	Adapters() ([]device.PhysicalDeviceInfo, error)

	// OpenDevice creates the logical device on the adapter with one
	// queue per unique family and the swapchain extension enabled.
	OpenDevice(adapter device.PhysicalDeviceInfo, families device.QueueFamilies) error

	// SurfaceSupport queries the surface against the opened device.
	SurfaceSupport() (SurfaceSupport, error)

	GraphicsQueue() Queue
	PresentQueue() Queue

	// WaitIdle blocks until the device has finished all work.
	WaitIdle() error

	// Close destroys the device, surface and instance.
	Close()
}

// Presenter covers the swapchain and the objects built on its images.
type Presenter interface {
	CreateSwapchain(cfg SwapchainConfig) (Swapchain, error)
	DestroySwapchain(sc Swapchain)
	SwapchainImages(sc Swapchain) ([]Image, error)

	CreateImageView(img Image, format Format) (ImageView, error)
	DestroyImageView(view ImageView)

	// CreateRenderPass creates the single forward pass: one color
	// attachment that is cleared, stored and left ready to present.
	CreateRenderPass(format Format) (RenderPass, error)
	DestroyRenderPass(pass RenderPass)

	CreateFramebuffer(pass RenderPass, view ImageView, extent Extent) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	// AcquireNextImage waits without timeout for the next image and
	// has it signal the semaphore once it is usable.
	AcquireNextImage(sc Swapchain, signal Semaphore) (uint32, Status, error)
	Present(q Queue, info PresentInfo) (Status, error)
}

// Syncer covers semaphores and fences.
type Syncer interface {
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(s Semaphore)

	CreateFence(signaled bool) (Fence, error)
	DestroyFence(f Fence)

	// WaitFence waits without timeout.
	WaitFence(f Fence) error
	ResetFence(f Fence) error
}

// Commander covers command pools, buffers and queue submission.
type Commander interface {
	CreateCommandPool(family int) (CommandPool, error)
	DestroyCommandPool(pool CommandPool)

	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(pool CommandPool, cbs []CommandBuffer)
	ResetCommandBuffer(cb CommandBuffer) error
	BeginCommandBuffer(cb CommandBuffer, oneTime bool) error
	EndCommandBuffer(cb CommandBuffer) error

	Submit(q Queue, info SubmitInfo) error
	QueueWaitIdle(q Queue) error
}

// Recorder records commands into a begun command buffer.
type Recorder interface {
	CmdBeginRenderPass(cb CommandBuffer, pass RenderPass, fb Framebuffer, area Extent, clear Color)
	CmdEndRenderPass(cb CommandBuffer)
	CmdSetViewport(cb CommandBuffer, vp Viewport)
	CmdSetScissor(cb CommandBuffer, r Rect)
	CmdBindPipeline(cb CommandBuffer, p Pipeline)

	// CmdPushConstants pushes vertex stage constants.
	CmdPushConstants(cb CommandBuffer, layout PipelineLayout, offset uint32, data []byte)
	CmdBindDescriptorSet(cb CommandBuffer, layout PipelineLayout, set DescriptorSet)

	// CmdBindVertexBuffers binds buffers to consecutive bindings from 0.
	CmdBindVertexBuffers(cb CommandBuffer, buffers []Buffer)

	// CmdBindIndexBuffer binds a buffer of uint32 indices.
	CmdBindIndexBuffer(cb CommandBuffer, b Buffer)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount uint32)
	CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount uint32)

	CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, size uint64)
	CmdCopyBufferToImage(cb CommandBuffer, src Buffer, dst Image, extent Extent)

	// CmdImageBarrier transitions the whole color image between layouts.
	// Only UNDEFINED to TRANSFER_DST and TRANSFER_DST to SHADER_READ_ONLY
	// are supported.
	CmdImageBarrier(cb CommandBuffer, img Image, from, to ImageLayout) error
}

// Allocator covers buffers, images and samplers together with their memory.
type Allocator interface {
	CreateBuffer(cfg BufferConfig) (Buffer, error)
	DestroyBuffer(b Buffer)

	// WriteBuffer copies data into a host visible buffer.
	WriteBuffer(b Buffer, offset uint64, data []byte) error

	CreateImage(cfg ImageConfig) (Image, error)
	DestroyImage(img Image)

	CreateSampler(cfg SamplerConfig) (Sampler, error)
	DestroySampler(s Sampler)
}

// Binder covers descriptor sets.
type Binder interface {

	// CreateDescriptorSetLayout creates a layout with a combined image
	// sampler at binding 0, visible to the fragment stage.
	CreateDescriptorSetLayout() (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(l DescriptorSetLayout)

	// CreateDescriptorPool creates a pool of combined image sampler sets.
	CreateDescriptorPool(maxSets uint32) (DescriptorPool, error)

	// DestroyDescriptorPool destroys the pool and every set
	// allocated from it.
	DestroyDescriptorPool(pool DescriptorPool)
	AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error)
	WriteImageDescriptor(set DescriptorSet, view ImageView, sampler Sampler)
}

// Pipeliner covers shader modules and graphics pipelines.
type Pipeliner interface {
	CreateShaderModule(code []byte) (ShaderModule, error)
	DestroyShaderModule(m ShaderModule)

	// CreatePipelineLayout creates a layout with one descriptor set slot
	// and a vertex stage push constant range of the given size.
	CreatePipelineLayout(set DescriptorSetLayout, pushConstantSize uint32) (PipelineLayout, error)
	DestroyPipelineLayout(l PipelineLayout)

	CreatePipeline(cfg PipelineConfig) (Pipeline, error)
	DestroyPipeline(p Pipeline)
}
