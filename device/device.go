// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device holds the description of physical rendering devices and the
// policy used to pick one of them.
package device

import "github.com/pkg/errors"

// ErrUnsupported is returned when no physical device can drive the renderer.
var ErrUnsupported = errors.New("unsupported")

// Type of the physical device, values mirror VkPhysicalDeviceType.
type Type int

// Physical device types.
const (
	TypeOther Type = iota
	TypeIntegrated
	TypeDiscrete
	TypeVirtual
	TypeCPU
)

func (t Type) String() string {
	switch t {
	case TypeIntegrated:
		return "integrated"
	case TypeDiscrete:
		return "discrete"
	case TypeVirtual:
		return "virtual"
	case TypeCPU:
		return "cpu"
	}
	return "other"
}

// QueueFamily describes the capabilities of one queue family.
type QueueFamily struct {
	Index    int
	Graphics bool
	Present  bool
}

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	// Index is the position of the device in enumeration order,
	// drivers use it to find the device again.
	Index         int
	ID            int
	VendorID      int
	DriverVersion int
	APIVersion    uint32
	Name          string
	Type          Type
	Invalid       bool
	Extensions    []string
	Layers        []string
	// Memory is the sum of all heaps.
	Memory uint64
	// DeviceLocalMemory is the size of the first device local heap.
	DeviceLocalMemory uint64
	QueueFamilies     []QueueFamily
	FormatCount       int
	PresentModeCount  int
}

// HasExtension reports whether the device advertises the extension.
func (p PhysicalDeviceInfo) HasExtension(name string) bool {
	for _, ext := range p.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}
