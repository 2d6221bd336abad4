// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// CreateCommandPool implements gfx.Commander. Buffers from the pool
// can be reset one by one.
func (d *Driver) CreateCommandPool(family int) (gfx.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(family),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.device, &cpci, nil, &commandPool)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateCommandPool()")
	}
	return gfx.CommandPool(d.commandPools.put(commandPool)), nil
}

// DestroyCommandPool implements gfx.Commander.
func (d *Driver) DestroyCommandPool(h gfx.CommandPool) {
	if pool, ok := d.commandPools.take(uint64(h)); ok {
		vk.DestroyCommandPool(d.device, pool, nil)
	}
}

// AllocateCommandBuffers implements gfx.Commander.
func (d *Driver) AllocateCommandBuffers(pool gfx.CommandPool, count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPools.get(uint64(pool)),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, commandBuffers)); err != nil {
		return nil, gfx.Fatal(err, "vk.AllocateCommandBuffers()")
	}

	handles := make([]gfx.CommandBuffer, count)
	for i, cb := range commandBuffers {
		handles[i] = gfx.CommandBuffer(d.commandBuffers.put(cb))
	}
	return handles, nil
}

// FreeCommandBuffers implements gfx.Commander.
func (d *Driver) FreeCommandBuffers(pool gfx.CommandPool, handles []gfx.CommandBuffer) {
	var cbs []vk.CommandBuffer
	for _, h := range handles {
		if cb, ok := d.commandBuffers.take(uint64(h)); ok {
			cbs = append(cbs, cb)
		}
	}
	if len(cbs) > 0 {
		vk.FreeCommandBuffers(d.device, d.commandPools.get(uint64(pool)), uint32(len(cbs)), cbs)
	}
}

// ResetCommandBuffer implements gfx.Commander.
func (d *Driver) ResetCommandBuffer(h gfx.CommandBuffer) error {
	cb := d.commandBuffers.get(uint64(h))
	if err := vk.Error(vk.ResetCommandBuffer(cb, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))); err != nil {
		return gfx.Fatal(err, "vk.ResetCommandBuffer()")
	}
	return nil
}

// BeginCommandBuffer implements gfx.Commander.
func (d *Driver) BeginCommandBuffer(h gfx.CommandBuffer, oneTime bool) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTime {
		cbbi.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if err := vk.Error(vk.BeginCommandBuffer(d.commandBuffers.get(uint64(h)), &cbbi)); err != nil {
		return gfx.Fatal(err, "vk.BeginCommandBuffer()")
	}
	return nil
}

// EndCommandBuffer implements gfx.Commander.
func (d *Driver) EndCommandBuffer(h gfx.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(d.commandBuffers.get(uint64(h)))); err != nil {
		return gfx.Fatal(err, "vk.EndCommandBuffer()")
	}
	return nil
}

// Submit implements gfx.Commander.
func (d *Driver) Submit(q gfx.Queue, info gfx.SubmitInfo) error {
	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{d.commandBuffers.get(uint64(info.CommandBuffer))},
	}
	if info.Wait != gfx.NullHandle {
		si.WaitSemaphoreCount = 1
		si.PWaitSemaphores = []vk.Semaphore{d.semaphores.get(uint64(info.Wait))}
		si.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if info.Signal != gfx.NullHandle {
		si.SignalSemaphoreCount = 1
		si.PSignalSemaphores = []vk.Semaphore{d.semaphores.get(uint64(info.Signal))}
	}

	fence := vk.NullFence
	if info.Fence != gfx.NullHandle {
		fence = d.fences.get(uint64(info.Fence))
	}
	if err := vk.Error(vk.QueueSubmit(d.queues.get(uint64(q)), 1, []vk.SubmitInfo{si}, fence)); err != nil {
		return gfx.Fatal(err, "vk.QueueSubmit()")
	}
	return nil
}

// QueueWaitIdle implements gfx.Commander.
func (d *Driver) QueueWaitIdle(q gfx.Queue) error {
	if err := vk.Error(vk.QueueWaitIdle(d.queues.get(uint64(q)))); err != nil {
		return gfx.Fatal(err, "vk.QueueWaitIdle()")
	}
	return nil
}

// CmdBeginRenderPass implements gfx.Recorder.
func (d *Driver) CmdBeginRenderPass(h gfx.CommandBuffer, pass gfx.RenderPass, fb gfx.Framebuffer, area gfx.Extent, clear gfx.Color) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor([]float32{clear.R, clear.G, clear.B, clear.A})

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  d.renderPasses.get(uint64(pass)),
		Framebuffer: d.framebuffers.get(uint64(fb)),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extentTo(area),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(d.commandBuffers.get(uint64(h)), &rpbi, vk.SubpassContentsInline)
}

// CmdEndRenderPass implements gfx.Recorder.
func (d *Driver) CmdEndRenderPass(h gfx.CommandBuffer) {
	vk.CmdEndRenderPass(d.commandBuffers.get(uint64(h)))
}

// CmdSetViewport implements gfx.Recorder.
func (d *Driver) CmdSetViewport(h gfx.CommandBuffer, vp gfx.Viewport) {
	viewport := vk.Viewport{
		X:        vp.X,
		Y:        vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}
	vk.CmdSetViewport(d.commandBuffers.get(uint64(h)), 0, 1, []vk.Viewport{viewport})
}

// CmdSetScissor implements gfx.Recorder.
func (d *Driver) CmdSetScissor(h gfx.CommandBuffer, r gfx.Rect) {
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: extentTo(r.Extent),
	}
	vk.CmdSetScissor(d.commandBuffers.get(uint64(h)), 0, 1, []vk.Rect2D{scissor})
}

// CmdBindPipeline implements gfx.Recorder.
func (d *Driver) CmdBindPipeline(h gfx.CommandBuffer, p gfx.Pipeline) {
	vk.CmdBindPipeline(d.commandBuffers.get(uint64(h)), vk.PipelineBindPointGraphics, d.pipelines.get(uint64(p)))
}

// CmdPushConstants implements gfx.Recorder.
func (d *Driver) CmdPushConstants(h gfx.CommandBuffer, layout gfx.PipelineLayout, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(d.commandBuffers.get(uint64(h)), d.pipelineLayouts.get(uint64(layout)).layout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit), offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

// CmdBindDescriptorSet implements gfx.Recorder.
func (d *Driver) CmdBindDescriptorSet(h gfx.CommandBuffer, layout gfx.PipelineLayout, set gfx.DescriptorSet) {
	vk.CmdBindDescriptorSets(d.commandBuffers.get(uint64(h)), vk.PipelineBindPointGraphics,
		d.pipelineLayouts.get(uint64(layout)).layout, 0, 1,
		[]vk.DescriptorSet{d.descriptorSets.get(uint64(set)).set}, 0, nil)
}

// CmdBindVertexBuffers implements gfx.Recorder.
func (d *Driver) CmdBindVertexBuffers(h gfx.CommandBuffer, handles []gfx.Buffer) {
	buffers := make([]vk.Buffer, len(handles))
	offsets := make([]vk.DeviceSize, len(handles))
	for i, b := range handles {
		buffers[i] = d.buffers.get(uint64(b)).buffer
	}
	vk.CmdBindVertexBuffers(d.commandBuffers.get(uint64(h)), 0, uint32(len(buffers)), buffers, offsets)
}

// CmdBindIndexBuffer implements gfx.Recorder.
func (d *Driver) CmdBindIndexBuffer(h gfx.CommandBuffer, b gfx.Buffer) {
	vk.CmdBindIndexBuffer(d.commandBuffers.get(uint64(h)), d.buffers.get(uint64(b)).buffer, 0, vk.IndexTypeUint32)
}

// CmdDraw implements gfx.Recorder.
func (d *Driver) CmdDraw(h gfx.CommandBuffer, vertexCount, instanceCount uint32) {
	vk.CmdDraw(d.commandBuffers.get(uint64(h)), vertexCount, instanceCount, 0, 0)
}

// CmdDrawIndexed implements gfx.Recorder.
func (d *Driver) CmdDrawIndexed(h gfx.CommandBuffer, indexCount, instanceCount uint32) {
	vk.CmdDrawIndexed(d.commandBuffers.get(uint64(h)), indexCount, instanceCount, 0, 0, 0)
}

// CmdCopyBuffer implements gfx.Recorder.
func (d *Driver) CmdCopyBuffer(h gfx.CommandBuffer, src, dst gfx.Buffer, size uint64) {
	bc := vk.BufferCopy{
		Size: vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(d.commandBuffers.get(uint64(h)), d.buffers.get(uint64(src)).buffer,
		d.buffers.get(uint64(dst)).buffer, 1, []vk.BufferCopy{bc})
}

// CmdCopyBufferToImage implements gfx.Recorder. The image must be in
// the transfer destination layout.
func (d *Driver) CmdCopyBufferToImage(h gfx.CommandBuffer, src gfx.Buffer, dst gfx.Image, extent gfx.Extent) {
	bic := vk.BufferImageCopy{
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdCopyBufferToImage(d.commandBuffers.get(uint64(h)), d.buffers.get(uint64(src)).buffer,
		d.images.get(uint64(dst)).image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{bic})
}

// CmdImageBarrier implements gfx.Recorder.
func (d *Driver) CmdImageBarrier(h gfx.CommandBuffer, img gfx.Image, from, to gfx.ImageLayout) error {
	srcAccess, dstAccess, srcStage, dstStage, err := transition(from, to)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           vk.ImageLayout(from),
		NewLayout:           vk.ImageLayout(to),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               d.images.get(uint64(img)).image,
		SubresourceRange:    colorRange(),
	}
	vk.CmdPipelineBarrier(d.commandBuffers.get(uint64(h)), srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}
