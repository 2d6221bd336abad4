// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/devblok/koru2d/gfx"
)

// AttributeType is the component type of a vertex attribute.
type AttributeType int

// Attribute component types. Only Float reaches the GPU.
const (
	Float AttributeType = iota
	Int
	UnsignedByte
)

// VertexAttribute describes one attribute inside a vertex buffer.
// Stride and Offset are in bytes, Size in components. A non-zero
// Divisor advances the attribute per instance instead of per vertex.
type VertexAttribute struct {
	Index      int
	Size       int
	Type       AttributeType
	Normalized bool
	Stride     int
	Offset     int
	Divisor    int
}

// VertexLayout is the attribute list of a vertex buffer. Two layouts
// with equal attributes are the same layout for pipeline caching.
type VertexLayout struct {
	Attributes []VertexAttribute
}

// NewVertexLayout returns a layout of the given attributes.
func NewVertexLayout(attrs ...VertexAttribute) *VertexLayout {
	return &VertexLayout{Attributes: append([]VertexAttribute(nil), attrs...)}
}

// Key is the FNV-1a hash of the attribute list.
func (l *VertexLayout) Key() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	put(len(l.Attributes))
	for _, a := range l.Attributes {
		put(a.Index)
		put(a.Size)
		put(int(a.Type))
		if a.Normalized {
			put(1)
		} else {
			put(0)
		}
		put(a.Stride)
		put(a.Offset)
		put(a.Divisor)
	}
	return h.Sum64()
}

// Stride of a vertex, taken from the first attribute.
func (l *VertexLayout) Stride() int {
	if len(l.Attributes) == 0 {
		return 0
	}
	return l.Attributes[0].Stride
}

// Instanced reports whether any attribute advances per instance.
func (l *VertexLayout) Instanced() bool {
	for _, a := range l.Attributes {
		if a.Divisor != 0 {
			return true
		}
	}
	return false
}

// describe translates the layout into the vertex input of one binding.
func (l *VertexLayout) describe(binding uint32) (gfx.VertexBinding, []gfx.VertexAttribute, error) {
	attrs := make([]gfx.VertexAttribute, 0, len(l.Attributes))
	for _, a := range l.Attributes {
		format, err := attributeFormat(a)
		if err != nil {
			return gfx.VertexBinding{}, nil, err
		}
		attrs = append(attrs, gfx.VertexAttribute{
			Location: uint32(a.Index),
			Binding:  binding,
			Format:   format,
			Offset:   uint32(a.Offset),
		})
	}
	return gfx.VertexBinding{
		Binding:     binding,
		Stride:      uint32(l.Stride()),
		PerInstance: l.Instanced(),
	}, attrs, nil
}

func attributeFormat(a VertexAttribute) (gfx.Format, error) {
	if a.Type != Float {
		return gfx.FormatUndefined, gfx.Misuse("attribute %d has unsupported type %d", a.Index, a.Type)
	}
	switch a.Size {
	case 1:
		return gfx.FormatR32SFloat, nil
	case 2:
		return gfx.FormatR32G32SFloat, nil
	case 3:
		return gfx.FormatR32G32B32SFloat, nil
	case 4:
		return gfx.FormatR32G32B32A32SFloat, nil
	}
	return gfx.FormatUndefined, gfx.Misuse("attribute %d has unsupported size %d", a.Index, a.Size)
}

// layoutsKey combines the keys of every bound layout with the topology.
func layoutsKey(layouts []*VertexLayout, topology gfx.Topology) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, l := range layouts {
		binary.LittleEndian.PutUint64(buf[:], l.Key())
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(topology))
	h.Write(buf[:])
	return h.Sum64()
}
