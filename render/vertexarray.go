// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import "github.com/devblok/koru2d/gfx"

// VertexArray groups the buffers of one draw call. Buffer i is bound
// at binding i.
type VertexArray struct {
	buffers   []VertexBuffer
	index     *IndexBuffer
	instances int
}

// NewVertexArray returns an empty vertex array.
func NewVertexArray() *VertexArray {
	return &VertexArray{}
}

// AddBuffer appends a vertex buffer at the next binding.
func (va *VertexArray) AddBuffer(b VertexBuffer) {
	va.buffers = append(va.buffers, b)
}

// SetIndexBuffer makes draws indexed, nil makes them non-indexed.
func (va *VertexArray) SetIndexBuffer(ib *IndexBuffer) {
	va.index = ib
}

// SetInstanceCount sets how many instances an instanced draw renders.
func (va *VertexArray) SetInstanceCount(n int) {
	va.instances = n
}

// Buffers returns the vertex buffers in binding order.
func (va *VertexArray) Buffers() []VertexBuffer {
	return va.buffers
}

// Empty reports whether there is nothing to draw.
func (va *VertexArray) Empty() bool {
	return len(va.buffers) == 0 || va.buffers[0].Len() == 0
}

// Instanced reports whether any buffer advances per instance.
func (va *VertexArray) Instanced() bool {
	for _, b := range va.buffers {
		if b.Layout().Instanced() {
			return true
		}
	}
	return false
}

func (va *VertexArray) layouts() []*VertexLayout {
	layouts := make([]*VertexLayout, len(va.buffers))
	for i, b := range va.buffers {
		layouts[i] = b.Layout()
	}
	return layouts
}

func (va *VertexArray) handles(slot int) []gfx.Buffer {
	handles := make([]gfx.Buffer, len(va.buffers))
	for i, b := range va.buffers {
		handles[i] = b.handle(slot)
	}
	return handles
}

func (va *VertexArray) instanceCount() uint32 {
	if va.Instanced() && va.instances > 0 {
		return uint32(va.instances)
	}
	return 1
}

// vertexCount derives the vertex count from the float count and the
// stride of the first buffer.
func (va *VertexArray) vertexCount() uint32 {
	first := va.buffers[0]
	stride := first.Layout().Stride()
	if stride <= 0 {
		return 0
	}
	return uint32(first.Len() * 4 / stride)
}
