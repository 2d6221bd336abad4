// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// Memory defines a usable memory region. Host visible memory stays mapped
// for its whole lifetime.
type Memory struct {
	device vk.Device
	memory vk.DeviceMemory
	size   uint64
	mapped unsafe.Pointer
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Write copies data into mapped memory at offset.
func (m *Memory) Write(offset uint64, data []byte) error {
	if m.mapped == nil {
		return gfx.Misuse("write into memory that is not host visible")
	}
	if offset+uint64(len(data)) > m.size {
		return gfx.Misuse("write of %d bytes at %d overflows %d bytes of memory", len(data), offset, m.size)
	}
	vk.Memcopy(unsafe.Add(m.mapped, offset), data)
	return nil
}

// Release frees memory.
func (m *Memory) Release() {
	if m.mapped != nil {
		vk.UnmapMemory(m.device, m.memory)
		m.mapped = nil
	}
	vk.FreeMemory(m.device, m.memory, nil)
}

// NewMemoryAllocator creates a new memory allocator. Allocates for the logical device,
// reads memory properties of the physical device to influence allocation.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) (*MemoryAllocator, error) {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()
	for idx := uint32(0); idx < memProperties.MemoryTypeCount; idx++ {
		memProperties.MemoryTypes[idx].Deref()
	}
	if memProperties.MemoryTypeCount == 0 {
		return nil, errors.Wrap(gfx.ErrDevice, "device reports no memory types")
	}

	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
	}, nil
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Malloc returns a usable memory chunk ready for use. Host visible
// memory comes back mapped.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop gfx.MemoryProperty) (Memory, error) {
	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return Memory{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return Memory{}, gfx.Fatal(err, "vk.AllocateMemory()")
	}
	mem := Memory{
		device: ma.device,
		memory: memory,
		size:   uint64(req.Size),
	}

	if prop&gfx.MemoryHostVisible != 0 {
		if err := vk.Error(vk.MapMemory(ma.device, memory, 0, req.Size, 0, &mem.mapped)); err != nil {
			vk.FreeMemory(ma.device, memory, nil)
			return Memory{}, gfx.Fatal(err, "vk.MapMemory()")
		}
	}
	return mem, nil
}

func (ma *MemoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		if filter&(1<<idx) != 0 && (ma.memProperties.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, errors.Wrapf(gfx.ErrDevice, "no memory type with properties %#x", uint32(prop))
}
