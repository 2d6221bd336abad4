// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
)

func (d *Driver) enumerateDevices() error {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(d.instance, &deviceCount, nil)); err != nil {
		return gfx.Fatal(err, "vk.EnumeratePhysicalDevices()")
	}
	d.physicalDevices = make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(d.instance, &deviceCount, d.physicalDevices)); err != nil {
		return gfx.Fatal(err, "vk.EnumeratePhysicalDevices()")
	}
	return nil
}

// Adapters implements gfx.Instance.
func (d *Driver) Adapters() ([]device.PhysicalDeviceInfo, error) {
	pdi := make([]device.PhysicalDeviceInfo, len(d.physicalDevices))
	for i, pd := range d.physicalDevices {
		pdi[i] = d.describe(i, pd)
	}
	return pdi, nil
}

func (d *Driver) describe(index int, pd vk.PhysicalDevice) device.PhysicalDeviceInfo {
	info := device.PhysicalDeviceInfo{Index: index}

	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	localFound := false
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		heap := memoryProperties.MemoryHeaps[iMem]
		heap.Deref()
		info.Memory += uint64(heap.Size)
		if !localFound && heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			info.DeviceLocalMemory = uint64(heap.Size)
			localFound = true
		}
	}

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	info.ID = int(props.DeviceID)
	info.VendorID = int(props.VendorID)
	info.Name = vk.ToString(props.DeviceName[:])
	info.DriverVersion = int(props.DriverVersion)
	info.APIVersion = props.ApiVersion
	info.Type = device.Type(props.DeviceType)

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)
	for i := range families {
		families[i].Deref()
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), d.surface, &present)
		info.QueueFamilies = append(info.QueueFamilies, device.QueueFamily{
			Index:    i,
			Graphics: families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Present:  present.B(),
		})
	}

	var formatCount, modeCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(pd, d.surface, &formatCount, nil)
	vk.GetPhysicalDeviceSurfacePresentModes(pd, d.surface, &modeCount, nil)
	info.FormatCount = int(formatCount)
	info.PresentModeCount = int(modeCount)

	return info
}

// OpenDevice implements gfx.Instance.
func (d *Driver) OpenDevice(adapter device.PhysicalDeviceInfo, families device.QueueFamilies) error {
	if adapter.Index < 0 || adapter.Index >= len(d.physicalDevices) {
		return errors.Wrapf(gfx.ErrUnsupported, "adapter %d not enumerated", adapter.Index)
	}
	if !families.Complete() {
		return errors.Wrap(gfx.ErrUnsupported, "incomplete queue families")
	}
	d.physicalDevice = d.physicalDevices[adapter.Index]
	d.families = families

	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range families.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(family),
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		})
	}

	extensions := []string{vk.KhrSwapchainExtensionName}
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	if err := vk.Error(vk.CreateDevice(d.physicalDevice, &dci, nil, &d.device)); err != nil {
		return gfx.Fatal(err, "vk.CreateDevice()")
	}

	var graphics, present vk.Queue
	vk.GetDeviceQueue(d.device, uint32(families.Graphics), 0, &graphics)
	vk.GetDeviceQueue(d.device, uint32(families.Present), 0, &present)
	d.graphicsQueue = gfx.Queue(d.queues.put(graphics))
	if families.Shared() {
		d.presentQueue = d.graphicsQueue
	} else {
		d.presentQueue = gfx.Queue(d.queues.put(present))
	}

	var err error
	if d.memory, err = NewMemoryAllocator(d.device, d.physicalDevice); err != nil {
		return err
	}

	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	if err := vk.Error(vk.CreatePipelineCache(d.device, &pcci, nil, &d.pipelineCache)); err != nil {
		return gfx.Fatal(err, "vk.CreatePipelineCache()")
	}

	d.log.WithFields(logrus.Fields{
		"name":     adapter.Name,
		"type":     adapter.Type,
		"api":      versionString(adapter.APIVersion),
		"graphics": families.Graphics,
		"present":  families.Present,
	}).Info("device opened")
	return nil
}

// SurfaceSupport implements gfx.Instance.
func (d *Driver) SurfaceSupport() (gfx.SurfaceSupport, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevice, d.surface, &caps)); err != nil {
		return gfx.SurfaceSupport{}, gfx.Fatal(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	support := gfx.SurfaceSupport{
		Capabilities: gfx.SurfaceCapabilities{
			MinImageCount: caps.MinImageCount,
			MaxImageCount: caps.MaxImageCount,
			CurrentExtent: extentFrom(caps.CurrentExtent),
			MinExtent:     extentFrom(caps.MinImageExtent),
			MaxExtent:     extentFrom(caps.MaxImageExtent),
		},
	}

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, d.surface, &formatCount, nil)); err != nil {
		return gfx.SurfaceSupport{}, gfx.Fatal(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, d.surface, &formatCount, formats)); err != nil {
		return gfx.SurfaceSupport{}, gfx.Fatal(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	for _, f := range formats {
		f.Deref()
		support.Formats = append(support.Formats, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physicalDevice, d.surface, &modeCount, nil)); err != nil {
		return gfx.SurfaceSupport{}, gfx.Fatal(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physicalDevice, d.surface, &modeCount, modes)); err != nil {
		return gfx.SurfaceSupport{}, gfx.Fatal(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	for _, m := range modes {
		support.PresentModes = append(support.PresentModes, gfx.PresentMode(m))
	}
	return support, nil
}
