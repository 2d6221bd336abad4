// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// CreateDescriptorSetLayout implements gfx.Binder.
func (d *Driver) CreateDescriptorSetLayout() (gfx.DescriptorSetLayout, error) {
	bindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}}
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(d.device, &dslci, nil, &layout)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateDescriptorSetLayout()")
	}
	return gfx.DescriptorSetLayout(d.setLayouts.put(layout)), nil
}

// DestroyDescriptorSetLayout implements gfx.Binder.
func (d *Driver) DestroyDescriptorSetLayout(h gfx.DescriptorSetLayout) {
	if l, ok := d.setLayouts.take(uint64(h)); ok {
		vk.DestroyDescriptorSetLayout(d.device, l, nil)
	}
}

// CreateDescriptorPool implements gfx.Binder.
func (d *Driver) CreateDescriptorPool(maxSets uint32) (gfx.DescriptorPool, error) {
	poolSizes := []vk.DescriptorPoolSize{{
		Type:            vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: maxSets,
	}}
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(d.device, &dpci, nil, &pool)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.CreateDescriptorPool()")
	}
	return gfx.DescriptorPool(d.descriptorPools.put(pool)), nil
}

// DestroyDescriptorPool implements gfx.Binder.
func (d *Driver) DestroyDescriptorPool(h gfx.DescriptorPool) {
	pool, ok := d.descriptorPools.take(uint64(h))
	if !ok {
		return
	}
	d.descriptorSets.drop(func(s setObject) bool { return s.pool == h })
	vk.DestroyDescriptorPool(d.device, pool, nil)
}

// AllocateDescriptorSet implements gfx.Binder.
func (d *Driver) AllocateDescriptorSet(pool gfx.DescriptorPool, layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descriptorPools.get(uint64(pool)),
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{d.setLayouts.get(uint64(layout))},
	}

	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(d.device, &dsai, &set)); err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "vk.AllocateDescriptorSets()")
	}
	return gfx.DescriptorSet(d.descriptorSets.put(setObject{set: set, pool: pool})), nil
}

// WriteImageDescriptor implements gfx.Binder.
func (d *Driver) WriteImageDescriptor(h gfx.DescriptorSet, view gfx.ImageView, sampler gfx.Sampler) {
	dii := vk.DescriptorImageInfo{
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		ImageView:   d.imageViews.get(uint64(view)),
		Sampler:     d.samplers.get(uint64(sampler)),
	}
	wds := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          d.descriptorSets.get(uint64(h)).set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		PImageInfo:      []vk.DescriptorImageInfo{dii},
	}}
	vk.UpdateDescriptorSets(d.device, uint32(len(wds)), wds, 0, nil)
}
