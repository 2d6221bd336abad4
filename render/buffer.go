// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/devblok/koru2d/gfx"
)

// VertexBuffer is a buffer of float vertex data a vertex array draws from.
type VertexBuffer interface {
	gfx.Releasable

	// Layout of the vertices in the buffer.
	Layout() *VertexLayout

	// Len is the number of floats the buffer holds.
	Len() int

	// Update replaces the contents of the buffer.
	Update(data []float32) error

	// handle is the buffer the GPU reads in frame slot.
	handle(slot int) gfx.Buffer
}

// slotSource hands out the frame slot that may be written now. Calling it
// guarantees the GPU is done with that slot.
type slotSource interface {
	writeSlot() (int, error)
}

func floatBytes(data []float32) []byte {
	b := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func uintBytes(data []uint32) []byte {
	b := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

// StaticBuffer is vertex data uploaded once into device local memory.
type StaticBuffer struct {
	drv    gfx.Driver
	buffer gfx.Buffer
	layout *VertexLayout
	n      int
}

func newStaticBuffer(drv gfx.Driver, t *Transfer, data []float32, layout *VertexLayout) (*StaticBuffer, error) {
	buf, err := t.Buffer(floatBytes(data), gfx.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	return &StaticBuffer{drv: drv, buffer: buf, layout: layout, n: len(data)}, nil
}

// Layout implements VertexBuffer.
func (b *StaticBuffer) Layout() *VertexLayout { return b.layout }

// Len implements VertexBuffer.
func (b *StaticBuffer) Len() int { return b.n }

// Update implements VertexBuffer. Static buffers can not be written.
func (b *StaticBuffer) Update(data []float32) error {
	return gfx.Misuse("update of a static buffer")
}

func (b *StaticBuffer) handle(int) gfx.Buffer { return b.buffer }

// Release implements gfx.Releasable.
func (b *StaticBuffer) Release() {
	if b.buffer != gfx.NullHandle {
		b.drv.DestroyBuffer(b.buffer)
		b.buffer = gfx.NullHandle
	}
}

// DynamicBuffer keeps one host visible buffer per frame slot, so the CPU
// writes one slot while the GPU may still read the other.
type DynamicBuffer struct {
	drv      gfx.Driver
	slots    slotSource
	buffers  [FramesInFlight]gfx.Buffer
	layout   *VertexLayout
	capacity int
	n        int
}

func newDynamicBuffer(drv gfx.Driver, slots slotSource, layout *VertexLayout, capacity int) (*DynamicBuffer, error) {
	if capacity <= 0 {
		return nil, gfx.Misuse("dynamic buffer capacity %d", capacity)
	}
	b := &DynamicBuffer{drv: drv, slots: slots, layout: layout, capacity: capacity}
	for i := range b.buffers {
		buf, err := drv.CreateBuffer(gfx.BufferConfig{
			Size:   uint64(capacity) * 4,
			Usage:  gfx.BufferUsageVertex,
			Memory: gfx.MemoryHostVisible | gfx.MemoryHostCoherent,
		})
		if err != nil {
			b.Release()
			return nil, gfx.Fatal(err, "create dynamic buffer")
		}
		b.buffers[i] = buf
	}
	return b, nil
}

// Layout implements VertexBuffer.
func (b *DynamicBuffer) Layout() *VertexLayout { return b.layout }

// Len implements VertexBuffer.
func (b *DynamicBuffer) Len() int { return b.n }

// Capacity is the number of floats a single update may hold.
func (b *DynamicBuffer) Capacity() int { return b.capacity }

// Update implements VertexBuffer. The data goes into the buffer of the
// current frame slot.
func (b *DynamicBuffer) Update(data []float32) error {
	if len(data) > b.capacity {
		return gfx.Misuse("update of %d floats exceeds capacity %d", len(data), b.capacity)
	}
	slot, err := b.slots.writeSlot()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		if err := b.drv.WriteBuffer(b.buffers[slot], 0, floatBytes(data)); err != nil {
			return gfx.Fatal(err, "write dynamic buffer")
		}
	}
	b.n = len(data)
	return nil
}

func (b *DynamicBuffer) handle(slot int) gfx.Buffer { return b.buffers[slot%FramesInFlight] }

// Release implements gfx.Releasable.
func (b *DynamicBuffer) Release() {
	for i, buf := range b.buffers {
		if buf != gfx.NullHandle {
			b.drv.DestroyBuffer(buf)
			b.buffers[i] = gfx.NullHandle
		}
	}
}

// IndexBuffer holds uint32 indices in device local memory.
type IndexBuffer struct {
	drv    gfx.Driver
	buffer gfx.Buffer
	n      int
}

func newIndexBuffer(drv gfx.Driver, t *Transfer, indices []uint32) (*IndexBuffer, error) {
	buf, err := t.Buffer(uintBytes(indices), gfx.BufferUsageIndex)
	if err != nil {
		return nil, err
	}
	return &IndexBuffer{drv: drv, buffer: buf, n: len(indices)}, nil
}

// Len is the number of indices.
func (b *IndexBuffer) Len() int { return b.n }

// Release implements gfx.Releasable.
func (b *IndexBuffer) Release() {
	if b.buffer != gfx.NullHandle {
		b.drv.DestroyBuffer(b.buffer)
		b.buffer = gfx.NullHandle
	}
}
