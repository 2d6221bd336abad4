// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/core"
	"github.com/devblok/koru2d/gfx"
)

// CreateShaderModule implements gfx.Pipeliner.
func (d *Driver) CreateShaderModule(code []byte) (gfx.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return gfx.NullHandle, gfx.Misuse("shader code of %d bytes is not SPIR-V", len(code))
	}
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &shader)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateShaderModule()")
	}
	return gfx.ShaderModule(d.shaderModules.put(shader)), nil
}

// DestroyShaderModule implements gfx.Pipeliner.
func (d *Driver) DestroyShaderModule(h gfx.ShaderModule) {
	if sm, ok := d.shaderModules.take(uint64(h)); ok {
		vk.DestroyShaderModule(d.device, sm, nil)
	}
}

// CreatePipelineLayout implements gfx.Pipeliner. The push constant range
// is visible to the vertex stage only.
func (d *Driver) CreatePipelineLayout(set gfx.DescriptorSetLayout, pushConstantSize uint32) (gfx.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if set != gfx.NullHandle {
		plci.SetLayoutCount = 1
		plci.PSetLayouts = []vk.DescriptorSetLayout{d.setLayouts.get(uint64(set))}
	}
	if pushConstantSize > 0 {
		plci.PushConstantRangeCount = 1
		plci.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       pushConstantSize,
		}}
	}

	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.device, &plci, nil, &layout)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreatePipelineLayout()")
	}
	return gfx.PipelineLayout(d.pipelineLayouts.put(pipelineLayoutObject{
		layout:   layout,
		pushSize: pushConstantSize,
	})), nil
}

// DestroyPipelineLayout implements gfx.Pipeliner.
func (d *Driver) DestroyPipelineLayout(h gfx.PipelineLayout) {
	if pl, ok := d.pipelineLayouts.take(uint64(h)); ok {
		vk.DestroyPipelineLayout(d.device, pl.layout, nil)
	}
}

// CreatePipeline implements gfx.Pipeliner.
func (d *Driver) CreatePipeline(cfg gfx.PipelineConfig) (gfx.Pipeline, error) {
	entry := cfg.EntryPoint
	if entry == "" {
		entry = "main"
	}

	stages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: d.shaderModules.get(uint64(cfg.Vertex)),
		PName:  safeString(entry),
	}, {
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFragmentBit,
		Module: d.shaderModules.get(uint64(cfg.Fragment)),
		PName:  safeString(entry),
	}}

	bindings := make([]vk.VertexInputBindingDescription, len(cfg.Bindings))
	for i, b := range cfg.Bindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: inputRate(b.PerInstance),
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(cfg.Attributes))
	for i, a := range cfg.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	layout := d.pipelineLayouts.get(uint64(cfg.Layout))
	renderPass := d.renderPasses.get(uint64(cfg.RenderPass))
	if layout.layout == nil || renderPass == nil {
		return gfx.NullHandle, gfx.Misuse("pipeline without a layout or render pass")
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopology(cfg.Topology),
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(cfg.Cull),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlend(cfg.Blend)},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     layout.layout,
		RenderPass: renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(d.device, d.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateGraphicsPipelines()")
	}
	return gfx.Pipeline(d.pipelines.put(pipelines[0])), nil
}

// DestroyPipeline implements gfx.Pipeliner.
func (d *Driver) DestroyPipeline(h gfx.Pipeline) {
	if p, ok := d.pipelines.take(uint64(h)); ok {
		vk.DestroyPipeline(d.device, p, nil)
	}
}
