// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// CreateRenderPass implements gfx.Presenter.
func (d *Driver) CreateRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.device, &rpci, nil, &renderPass)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateRenderPass()")
	}
	return gfx.RenderPass(d.renderPasses.put(renderPass)), nil
}

// DestroyRenderPass implements gfx.Presenter.
func (d *Driver) DestroyRenderPass(h gfx.RenderPass) {
	if rp, ok := d.renderPasses.take(uint64(h)); ok {
		vk.DestroyRenderPass(d.device, rp, nil)
	}
}

// CreateFramebuffer implements gfx.Presenter.
func (d *Driver) CreateFramebuffer(pass gfx.RenderPass, view gfx.ImageView, extent gfx.Extent) (gfx.Framebuffer, error) {
	renderPass := d.renderPasses.get(uint64(pass))
	if renderPass == nil {
		return gfx.NullHandle, gfx.Misuse("framebuffer without a render pass")
	}
	attachments := []vk.ImageView{d.imageViews.get(uint64(view))}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateFramebuffer()")
	}
	return gfx.Framebuffer(d.framebuffers.put(framebuffer)), nil
}

// DestroyFramebuffer implements gfx.Presenter.
func (d *Driver) DestroyFramebuffer(h gfx.Framebuffer) {
	if fb, ok := d.framebuffers.take(uint64(h)); ok {
		vk.DestroyFramebuffer(d.device, fb, nil)
	}
}
