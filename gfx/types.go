// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "github.com/pkg/errors"

// Opaque GPU object handles. A driver keeps the mapping between a handle
// and the real backend object, zero is never a valid handle.
type (
	Queue               uint64
	Swapchain           uint64
	Image               uint64
	ImageView           uint64
	Framebuffer         uint64
	RenderPass          uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Semaphore           uint64
	Fence               uint64
	Buffer              uint64
	Sampler             uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	ShaderModule        uint64
	PipelineLayout      uint64
	Pipeline            uint64
)

// NullHandle is the zero value of every handle type.
const NullHandle = 0

// Format of image or vertex data. Values mirror the VkFormat enumerants.
type Format uint32

// Formats in use by the renderer.
const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8SRGB       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8SRGB       Format = 50
	FormatR32SFloat          Format = 100
	FormatR32G32SFloat       Format = 103
	FormatR32G32B32SFloat    Format = 106
	FormatR32G32B32A32SFloat Format = 109
)

// ColorSpace of a presentable surface format.
type ColorSpace uint32

// ColorSpaceSRGBNonlinear is the only color space every surface supports.
const ColorSpaceSRGBNonlinear ColorSpace = 0

// PresentMode values mirror VkPresentModeKHR.
type PresentMode uint32

// Present modes.
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// ImageLayout values mirror VkImageLayout.
type ImageLayout uint32

// Image layouts that the transfer engine moves between.
const (
	ImageLayoutUndefined       ImageLayout = 0
	ImageLayoutColorAttachment ImageLayout = 2
	ImageLayoutShaderReadOnly  ImageLayout = 5
	ImageLayoutTransferDst     ImageLayout = 7
	ImageLayoutPresentSrc      ImageLayout = 1000001002
)

// BufferUsage is a bitmask, values mirror VkBufferUsageFlagBits.
type BufferUsage uint32

// Buffer usages.
const (
	BufferUsageTransferSrc BufferUsage = 0x01
	BufferUsageTransferDst BufferUsage = 0x02
	BufferUsageIndex       BufferUsage = 0x40
	BufferUsageVertex      BufferUsage = 0x80
)

// MemoryProperty is a bitmask, values mirror VkMemoryPropertyFlagBits.
type MemoryProperty uint32

// Memory properties.
const (
	MemoryDeviceLocal  MemoryProperty = 0x1
	MemoryHostVisible  MemoryProperty = 0x2
	MemoryHostCoherent MemoryProperty = 0x4
)

// ImageUsage is a bitmask, values mirror VkImageUsageFlagBits.
type ImageUsage uint32

// Image usages.
const (
	ImageUsageTransferSrc     ImageUsage = 0x01
	ImageUsageTransferDst     ImageUsage = 0x02
	ImageUsageSampled         ImageUsage = 0x04
	ImageUsageColorAttachment ImageUsage = 0x10
)

// Filter used by samplers.
type Filter uint32

// Sampler filters.
const (
	FilterNearest Filter = 0
	FilterLinear  Filter = 1
)

// AddressMode used by samplers.
type AddressMode uint32

// Sampler address modes.
const (
	AddressModeRepeat         AddressMode = 0
	AddressModeMirroredRepeat AddressMode = 1
	AddressModeClampToEdge    AddressMode = 2
)

// Topology of the primitives assembled by a pipeline.
type Topology uint32

// Primitive topologies.
const (
	TopologyPointList    Topology = 0
	TopologyLineList     Topology = 1
	TopologyTriangleList Topology = 3
)

// CullMode of a pipeline.
type CullMode uint32

// Cull modes.
const (
	CullNone CullMode = 0
	CullBack CullMode = 2
)

// BlendMode of the single color attachment.
type BlendMode uint32

// Blend modes.
const (
	BlendNone BlendMode = iota
	// BlendAlpha is src*srcAlpha + dst*(1-srcAlpha) for color,
	// and src*1 + dst*0 for alpha.
	BlendAlpha
)

// Status is the outcome of acquire and present calls. Out of date and
// suboptimal are not errors, the caller is expected to recreate.
type Status int

// Presentation statuses.
const (
	StatusSuccess Status = iota
	StatusSuboptimal
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	}
	return "unknown"
}

// Extent is a two dimensional size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether any side is zero, which happens while minimized.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// Viewport maps normalized device coordinates to the framebuffer.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect is a scissor rectangle.
type Rect struct {
	X, Y   int32
	Extent Extent
}

// SurfaceFormat pairs an image format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// UndefinedExtent in CurrentExtent means the surface size is determined
// by the swapchain.
const UndefinedExtent = 0xFFFFFFFF

// SurfaceCapabilities of the presentation surface for the chosen device.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of 0 means there is no limit.
	MaxImageCount uint32
	CurrentExtent Extent
	MinExtent     Extent
	MaxExtent     Extent
}

// SurfaceSupport is everything the swapchain needs to know about a surface.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// InstanceConfig configures instance creation.
type InstanceConfig struct {
	ApplicationName string
	DebugMode       bool
	Extensions      []string
	Layers          []string
}

// SwapchainConfig is the validated result of the swapchain choices.
type SwapchainConfig struct {
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent
	ImageCount  uint32
	// QueueFamilies holds both family indices when graphics and present
	// differ, images are then shared concurrently. Otherwise it is empty
	// and images are exclusive.
	QueueFamilies []uint32
	Old           Swapchain
}

// Validate checks the config once before it reaches the driver.
func (c SwapchainConfig) Validate() error {
	if c.Format.Format == FormatUndefined {
		return errors.Wrap(ErrDevice, "swapchain format is undefined")
	}
	if c.Extent.Empty() {
		return errors.Wrapf(ErrDevice, "swapchain extent %dx%d is empty", c.Extent.Width, c.Extent.Height)
	}
	if c.ImageCount == 0 {
		return errors.Wrap(ErrDevice, "swapchain image count is zero")
	}
	if n := len(c.QueueFamilies); n != 0 && n != 2 {
		return errors.Wrapf(ErrDevice, "swapchain shared between %d queue families", n)
	}
	return nil
}

// Concurrent reports whether images are shared between two queue families.
func (c SwapchainConfig) Concurrent() bool {
	return len(c.QueueFamilies) == 2
}

// BufferConfig describes a buffer and the memory backing it.
type BufferConfig struct {
	Size   uint64
	Usage  BufferUsage
	Memory MemoryProperty
}

// ImageConfig describes a device local, optimally tiled 2D image.
type ImageConfig struct {
	Extent Extent
	Format Format
	Usage  ImageUsage
}

// SamplerConfig describes a texture sampler.
type SamplerConfig struct {
	MagFilter   Filter
	MinFilter   Filter
	AddressMode AddressMode
}

// SubmitInfo describes a single command buffer submission. Wait, Signal and
// Fence may be left as NullHandle.
type SubmitInfo struct {
	CommandBuffer CommandBuffer
	// Wait is waited upon at the color attachment output stage.
	Wait   Semaphore
	Signal Semaphore
	Fence  Fence
}

// PresentInfo describes a present request.
type PresentInfo struct {
	Wait       Semaphore
	Swapchain  Swapchain
	ImageIndex uint32
}

// VertexBinding describes one bound vertex buffer.
type VertexBinding struct {
	Binding     uint32
	Stride      uint32
	PerInstance bool
}

// VertexAttribute describes one attribute fetched from a binding.
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

// PipelineConfig describes a graphics pipeline for the single forward pass.
// Viewport and scissor are always dynamic.
type PipelineConfig struct {
	Vertex     ShaderModule
	Fragment   ShaderModule
	EntryPoint string
	Bindings   []VertexBinding
	Attributes []VertexAttribute
	Topology   Topology
	Cull       CullMode
	Blend      BlendMode
	Layout     PipelineLayout
	RenderPass RenderPass
}
