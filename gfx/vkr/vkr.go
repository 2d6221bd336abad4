// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the vulkan renderer.
package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

// NewBuffer creates, configures, allocates and binds a new buffer.
func NewBuffer(dev vk.Device, cfg gfx.BufferConfig, mode vk.SharingMode, ma *MemoryAllocator) (Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(cfg.Size),
		Usage:       vk.BufferUsageFlags(cfg.Usage),
		SharingMode: mode,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev, &createInfo, nil, &buffer)); err != nil {
		return Buffer{}, gfx.Fatal(err, "vk.CreateBuffer()")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, cfg.Memory)
	if err != nil {
		vk.DestroyBuffer(dev, buffer, nil)
		return Buffer{}, err
	}

	if err := vk.Error(vk.BindBufferMemory(dev, buffer, memory.Get(), 0)); err != nil {
		vk.DestroyBuffer(dev, buffer, nil)
		memory.Release()
		return Buffer{}, gfx.Fatal(err, "vk.BindBufferMemory()")
	}

	return Buffer{
		device: dev,
		buffer: buffer,
		memory: memory,
	}, nil
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer

	memory Memory
}

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return &b.memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.memory.Release()
}

// CreateBuffer implements gfx.Allocator.
func (d *Driver) CreateBuffer(cfg gfx.BufferConfig) (gfx.Buffer, error) {
	if cfg.Size == 0 {
		return gfx.NullHandle, gfx.Misuse("buffer of zero bytes")
	}
	b, err := NewBuffer(d.device, cfg, vk.SharingModeExclusive, d.memory)
	if err != nil {
		return gfx.NullHandle, err
	}
	return gfx.Buffer(d.buffers.put(b)), nil
}

// DestroyBuffer implements gfx.Allocator.
func (d *Driver) DestroyBuffer(h gfx.Buffer) {
	if b, ok := d.buffers.take(uint64(h)); ok {
		b.Release()
	}
}

// WriteBuffer implements gfx.Allocator.
func (d *Driver) WriteBuffer(h gfx.Buffer, offset uint64, data []byte) error {
	b := d.buffers.get(uint64(h))
	if b.buffer == nil {
		return gfx.Misuse("write into unknown buffer %d", h)
	}
	return b.Mem().Write(offset, data)
}
