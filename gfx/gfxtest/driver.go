// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides an in-memory gfx.Driver that records every call.
// The GPU finishes work the moment it is submitted, but the driver tracks
// what the CPU could know about it and reports protocol violations, such as
// resetting a command buffer whose fence was never waited upon.
package gfxtest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
)

// Buffer is the fake backing of a gfx.Buffer.
type Buffer struct {
	Config gfx.BufferConfig
	Data   []byte
}

// Framebuffer is the fake backing of a gfx.Framebuffer.
type Framebuffer struct {
	Pass   gfx.RenderPass
	View   gfx.ImageView
	Extent gfx.Extent
}

type commandBuffer struct {
	recording bool
	oneTime   bool
	// buffers read by the recorded commands
	reads []gfx.Buffer
}

type swapchain struct {
	config gfx.SwapchainConfig
	images []gfx.Image
	next   uint32
}

// Driver is a recording fake. Fields may be set before use to script
// the behaviour of the device.
type Driver struct {
	// Devices returned by Adapters.
	Devices []device.PhysicalDeviceInfo

	// Support returned by SurfaceSupport.
	Support gfx.SurfaceSupport

	// AcquireStatuses are consumed one per AcquireNextImage, an empty
	// queue means StatusSuccess.
	AcquireStatuses []gfx.Status

	// PresentStatuses are consumed one per Present.
	PresentStatuses []gfx.Status

	// Failures makes the named method return the error.
	Failures map[string]error

	Opened   device.PhysicalDeviceInfo
	Families device.QueueFamilies

	calls      []string
	violations []string
	next       uint64
	live       map[string]map[uint64]bool

	Buffers      map[gfx.Buffer]*Buffer
	Framebuffers map[gfx.Framebuffer]Framebuffer
	Pipelines    map[gfx.Pipeline]gfx.PipelineConfig
	Descriptors  map[gfx.DescriptorSet]gfx.ImageView

	fences     map[gfx.Fence]bool
	inFlight   map[gfx.Fence][]gfx.Buffer
	cbFence    map[gfx.CommandBuffer]gfx.Fence
	cbs        map[gfx.CommandBuffer]*commandBuffer
	swapchains map[gfx.Swapchain]*swapchain
	pools      map[gfx.DescriptorPool]uint32
	poolSets   map[gfx.DescriptorPool]uint32
	setPool    map[gfx.DescriptorSet]gfx.DescriptorPool
	images     map[gfx.Image]gfx.ImageLayout
}

// New returns a driver with one usable adapter and a typical surface.
func New() *Driver {
	return &Driver{
		Devices: []device.PhysicalDeviceInfo{{
			Name:              "Fake GPU",
			Type:              device.TypeDiscrete,
			Extensions:        device.DefaultExtensions,
			DeviceLocalMemory: 1 << 30,
			QueueFamilies:     []device.QueueFamily{{Index: 0, Graphics: true, Present: true}},
			FormatCount:       2,
			PresentModeCount:  2,
		}},
		Support: gfx.SurfaceSupport{
			Capabilities: gfx.SurfaceCapabilities{
				MinImageCount: 2,
				MaxImageCount: 8,
				CurrentExtent: gfx.Extent{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent},
				MinExtent:     gfx.Extent{Width: 1, Height: 1},
				MaxExtent:     gfx.Extent{Width: 4096, Height: 4096},
			},
			Formats: []gfx.SurfaceFormat{
				{Format: gfx.FormatB8G8R8A8Unorm},
				{Format: gfx.FormatB8G8R8A8SRGB},
			},
			PresentModes: []gfx.PresentMode{gfx.PresentModeFIFO, gfx.PresentModeMailbox},
		},
		Failures:     map[string]error{},
		live:         map[string]map[uint64]bool{},
		Buffers:      map[gfx.Buffer]*Buffer{},
		Framebuffers: map[gfx.Framebuffer]Framebuffer{},
		Pipelines:    map[gfx.Pipeline]gfx.PipelineConfig{},
		Descriptors:  map[gfx.DescriptorSet]gfx.ImageView{},
		fences:       map[gfx.Fence]bool{},
		inFlight:     map[gfx.Fence][]gfx.Buffer{},
		cbFence:      map[gfx.CommandBuffer]gfx.Fence{},
		cbs:          map[gfx.CommandBuffer]*commandBuffer{},
		swapchains:   map[gfx.Swapchain]*swapchain{},
		pools:        map[gfx.DescriptorPool]uint32{},
		poolSets:     map[gfx.DescriptorPool]uint32{},
		setPool:      map[gfx.DescriptorSet]gfx.DescriptorPool{},
		images:       map[gfx.Image]gfx.ImageLayout{},
	}
}

var _ gfx.Driver = (*Driver)(nil)

// Calls returns the log of calls in order, formatted as "Name arg...".
func (d *Driver) Calls() []string {
	return append([]string(nil), d.calls...)
}

// Count returns how many logged calls start with prefix.
func (d *Driver) Count(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Index returns the position of the first call starting with prefix
// at or after from, or -1.
func (d *Driver) Index(prefix string, from int) int {
	for i := from; i < len(d.calls); i++ {
		if strings.HasPrefix(d.calls[i], prefix) {
			return i
		}
	}
	return -1
}

// ResetCalls clears the call log.
func (d *Driver) ResetCalls() {
	d.calls = d.calls[:0]
}

// Violations returns the synchronization rules broken so far.
func (d *Driver) Violations() []string {
	return d.violations
}

// Live returns how many objects of a kind, such as "Fence", exist.
func (d *Driver) Live(kind string) int {
	return len(d.live[kind])
}

// Leaks lists every kind that still has live objects.
func (d *Driver) Leaks() []string {
	var kinds []string
	for k, objs := range d.live {
		if len(objs) > 0 {
			kinds = append(kinds, fmt.Sprintf("%s(%d)", k, len(objs)))
		}
	}
	sort.Strings(kinds)
	return kinds
}

func (d *Driver) record(name string, args ...interface{}) error {
	entry := name
	for _, a := range args {
		entry += fmt.Sprintf(" %v", a)
	}
	d.calls = append(d.calls, entry)
	if err, ok := d.Failures[name]; ok {
		return err
	}
	return nil
}

func (d *Driver) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *Driver) create(kind string) uint64 {
	d.next++
	if d.live[kind] == nil {
		d.live[kind] = map[uint64]bool{}
	}
	d.live[kind][d.next] = true
	return d.next
}

func (d *Driver) destroy(kind string, h uint64) {
	if h == gfx.NullHandle {
		return
	}
	if !d.live[kind][h] {
		d.violate("destroy of unknown %s %d", kind, h)
		return
	}
	delete(d.live[kind], h)
}

func (d *Driver) exists(kind string, h uint64) bool {
	return d.live[kind][h]
}

// Adapters implements gfx.Instance.
func (d *Driver) Adapters() ([]device.PhysicalDeviceInfo, error) {
	if err := d.record("Adapters"); err != nil {
		return nil, err
	}
	devices := make([]device.PhysicalDeviceInfo, len(d.Devices))
	for i, dev := range d.Devices {
		dev.Index = i
		devices[i] = dev
	}
	return devices, nil
}

// OpenDevice implements gfx.Instance.
func (d *Driver) OpenDevice(adapter device.PhysicalDeviceInfo, families device.QueueFamilies) error {
	if err := d.record("OpenDevice", adapter.Name, len(families.Unique())); err != nil {
		return err
	}
	d.Opened = adapter
	d.Families = families
	return nil
}

// SurfaceSupport implements gfx.Instance.
func (d *Driver) SurfaceSupport() (gfx.SurfaceSupport, error) {
	return d.Support, d.record("SurfaceSupport")
}

// GraphicsQueue implements gfx.Instance.
func (d *Driver) GraphicsQueue() gfx.Queue { return 1 }

// PresentQueue implements gfx.Instance.
func (d *Driver) PresentQueue() gfx.Queue {
	if d.Families.Shared() {
		return 1
	}
	return 2
}

// WaitIdle implements gfx.Instance. Every fence becomes known as finished.
func (d *Driver) WaitIdle() error {
	if err := d.record("WaitIdle"); err != nil {
		return err
	}
	d.inFlight = map[gfx.Fence][]gfx.Buffer{}
	return nil
}

// Close implements gfx.Instance.
func (d *Driver) Close() {
	d.record("Close")
}

// CreateSwapchain implements gfx.Presenter.
func (d *Driver) CreateSwapchain(cfg gfx.SwapchainConfig) (gfx.Swapchain, error) {
	if err := d.record("CreateSwapchain", cfg.Extent.Width, cfg.Extent.Height, cfg.ImageCount); err != nil {
		return gfx.NullHandle, err
	}
	if err := cfg.Validate(); err != nil {
		return gfx.NullHandle, err
	}
	sc := gfx.Swapchain(d.create("Swapchain"))
	state := &swapchain{config: cfg}
	for i := uint32(0); i < cfg.ImageCount; i++ {
		d.next++
		img := gfx.Image(d.next)
		state.images = append(state.images, img)
		d.images[img] = gfx.ImageLayoutUndefined
	}
	d.swapchains[sc] = state
	return sc, nil
}

// DestroySwapchain implements gfx.Presenter.
func (d *Driver) DestroySwapchain(sc gfx.Swapchain) {
	d.record("DestroySwapchain", sc)
	d.destroy("Swapchain", uint64(sc))
	delete(d.swapchains, sc)
}

// SwapchainConfig returns the config a live swapchain was created with.
func (d *Driver) SwapchainConfig(sc gfx.Swapchain) (gfx.SwapchainConfig, bool) {
	s, ok := d.swapchains[sc]
	if !ok {
		return gfx.SwapchainConfig{}, false
	}
	return s.config, true
}

// SwapchainImages implements gfx.Presenter.
func (d *Driver) SwapchainImages(sc gfx.Swapchain) ([]gfx.Image, error) {
	if err := d.record("SwapchainImages", sc); err != nil {
		return nil, err
	}
	s, ok := d.swapchains[sc]
	if !ok {
		return nil, errors.Errorf("unknown swapchain %d", sc)
	}
	return append([]gfx.Image(nil), s.images...), nil
}

// CreateImageView implements gfx.Presenter.
func (d *Driver) CreateImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	if err := d.record("CreateImageView", img, uint32(format)); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.ImageView(d.create("ImageView")), nil
}

// DestroyImageView implements gfx.Presenter.
func (d *Driver) DestroyImageView(view gfx.ImageView) {
	d.record("DestroyImageView", view)
	d.destroy("ImageView", uint64(view))
}

// CreateRenderPass implements gfx.Presenter.
func (d *Driver) CreateRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	if err := d.record("CreateRenderPass", uint32(format)); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.RenderPass(d.create("RenderPass")), nil
}

// DestroyRenderPass implements gfx.Presenter.
func (d *Driver) DestroyRenderPass(pass gfx.RenderPass) {
	d.record("DestroyRenderPass", pass)
	d.destroy("RenderPass", uint64(pass))
}

// CreateFramebuffer implements gfx.Presenter.
func (d *Driver) CreateFramebuffer(pass gfx.RenderPass, view gfx.ImageView, extent gfx.Extent) (gfx.Framebuffer, error) {
	if err := d.record("CreateFramebuffer", view, extent.Width, extent.Height); err != nil {
		return gfx.NullHandle, err
	}
	if !d.exists("RenderPass", uint64(pass)) {
		return gfx.NullHandle, errors.Errorf("framebuffer needs a render pass, got %d", pass)
	}
	fb := gfx.Framebuffer(d.create("Framebuffer"))
	d.Framebuffers[fb] = Framebuffer{Pass: pass, View: view, Extent: extent}
	return fb, nil
}

// DestroyFramebuffer implements gfx.Presenter.
func (d *Driver) DestroyFramebuffer(fb gfx.Framebuffer) {
	d.record("DestroyFramebuffer", fb)
	d.destroy("Framebuffer", uint64(fb))
	delete(d.Framebuffers, fb)
}

// AcquireNextImage implements gfx.Presenter.
func (d *Driver) AcquireNextImage(sc gfx.Swapchain, signal gfx.Semaphore) (uint32, gfx.Status, error) {
	status := gfx.StatusSuccess
	if len(d.AcquireStatuses) > 0 {
		status, d.AcquireStatuses = d.AcquireStatuses[0], d.AcquireStatuses[1:]
	}
	if err := d.record("AcquireNextImage", signal, status); err != nil {
		return 0, status, err
	}
	s, ok := d.swapchains[sc]
	if !ok {
		return 0, status, errors.Errorf("unknown swapchain %d", sc)
	}
	if status == gfx.StatusOutOfDate {
		return 0, status, nil
	}
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	return idx, status, nil
}

// Present implements gfx.Presenter.
func (d *Driver) Present(q gfx.Queue, info gfx.PresentInfo) (gfx.Status, error) {
	status := gfx.StatusSuccess
	if len(d.PresentStatuses) > 0 {
		status, d.PresentStatuses = d.PresentStatuses[0], d.PresentStatuses[1:]
	}
	return status, d.record("Present", info.ImageIndex, info.Wait, status)
}

// CreateSemaphore implements gfx.Syncer.
func (d *Driver) CreateSemaphore() (gfx.Semaphore, error) {
	if err := d.record("CreateSemaphore"); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.Semaphore(d.create("Semaphore")), nil
}

// DestroySemaphore implements gfx.Syncer.
func (d *Driver) DestroySemaphore(s gfx.Semaphore) {
	d.record("DestroySemaphore", s)
	d.destroy("Semaphore", uint64(s))
}

// CreateFence implements gfx.Syncer.
func (d *Driver) CreateFence(signaled bool) (gfx.Fence, error) {
	if err := d.record("CreateFence", signaled); err != nil {
		return gfx.NullHandle, err
	}
	f := gfx.Fence(d.create("Fence"))
	d.fences[f] = signaled
	return f, nil
}

// DestroyFence implements gfx.Syncer.
func (d *Driver) DestroyFence(f gfx.Fence) {
	d.record("DestroyFence", f)
	d.destroy("Fence", uint64(f))
	delete(d.fences, f)
	delete(d.inFlight, f)
}

// FenceSignaled reports the state of a fence.
func (d *Driver) FenceSignaled(f gfx.Fence) bool {
	return d.fences[f]
}

// WaitFence implements gfx.Syncer. Waiting on an unsignaled fence that
// nothing will signal is a deadlock on real hardware.
func (d *Driver) WaitFence(f gfx.Fence) error {
	if err := d.record("WaitFence", f); err != nil {
		return err
	}
	if !d.fences[f] {
		d.violate("wait on unsignaled fence %d never returns", f)
		return errors.Errorf("fence %d would block forever", f)
	}
	delete(d.inFlight, f)
	return nil
}

// ResetFence implements gfx.Syncer.
func (d *Driver) ResetFence(f gfx.Fence) error {
	if err := d.record("ResetFence", f); err != nil {
		return err
	}
	if _, pending := d.inFlight[f]; pending {
		d.violate("reset of fence %d before it was waited upon", f)
	}
	d.fences[f] = false
	return nil
}

// CreateCommandPool implements gfx.Commander.
func (d *Driver) CreateCommandPool(family int) (gfx.CommandPool, error) {
	if err := d.record("CreateCommandPool", family); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.CommandPool(d.create("CommandPool")), nil
}

// DestroyCommandPool implements gfx.Commander.
func (d *Driver) DestroyCommandPool(pool gfx.CommandPool) {
	d.record("DestroyCommandPool", pool)
	d.destroy("CommandPool", uint64(pool))
}

// AllocateCommandBuffers implements gfx.Commander.
func (d *Driver) AllocateCommandBuffers(pool gfx.CommandPool, count int) ([]gfx.CommandBuffer, error) {
	if err := d.record("AllocateCommandBuffers", count); err != nil {
		return nil, err
	}
	cbs := make([]gfx.CommandBuffer, count)
	for i := range cbs {
		cbs[i] = gfx.CommandBuffer(d.create("CommandBuffer"))
		d.cbs[cbs[i]] = &commandBuffer{}
	}
	return cbs, nil
}

// FreeCommandBuffers implements gfx.Commander.
func (d *Driver) FreeCommandBuffers(pool gfx.CommandPool, cbs []gfx.CommandBuffer) {
	for _, cb := range cbs {
		d.record("FreeCommandBuffer", cb)
		if f, ok := d.cbFence[cb]; ok {
			if _, pending := d.inFlight[f]; pending {
				d.violate("free of command buffer %d still in flight", cb)
			}
		}
		d.destroy("CommandBuffer", uint64(cb))
		delete(d.cbs, cb)
		delete(d.cbFence, cb)
	}
}

// ResetCommandBuffer implements gfx.Commander.
func (d *Driver) ResetCommandBuffer(cb gfx.CommandBuffer) error {
	if err := d.record("ResetCommandBuffer", cb); err != nil {
		return err
	}
	if f, ok := d.cbFence[cb]; ok {
		if _, pending := d.inFlight[f]; pending {
			d.violate("reset of command buffer %d before fence %d was waited upon", cb, f)
		}
	}
	d.cbs[cb] = &commandBuffer{}
	return nil
}

// BeginCommandBuffer implements gfx.Commander.
func (d *Driver) BeginCommandBuffer(cb gfx.CommandBuffer, oneTime bool) error {
	if err := d.record("BeginCommandBuffer", cb, oneTime); err != nil {
		return err
	}
	state, ok := d.cbs[cb]
	if !ok {
		return errors.Errorf("unknown command buffer %d", cb)
	}
	if state.recording {
		d.violate("begin of command buffer %d while recording", cb)
	}
	state.recording = true
	state.oneTime = oneTime
	return nil
}

// EndCommandBuffer implements gfx.Commander.
func (d *Driver) EndCommandBuffer(cb gfx.CommandBuffer) error {
	if err := d.record("EndCommandBuffer", cb); err != nil {
		return err
	}
	if state := d.cbs[cb]; state == nil || !state.recording {
		d.violate("end of command buffer %d that is not recording", cb)
	} else {
		state.recording = false
	}
	return nil
}

// Submit implements gfx.Commander. The work finishes immediately.
func (d *Driver) Submit(q gfx.Queue, info gfx.SubmitInfo) error {
	if err := d.record("Submit", info.CommandBuffer, info.Wait, info.Signal, info.Fence); err != nil {
		return err
	}
	state := d.cbs[info.CommandBuffer]
	if state == nil || state.recording {
		d.violate("submit of command buffer %d that is not executable", info.CommandBuffer)
	}
	if info.Fence != gfx.NullHandle {
		if d.fences[info.Fence] {
			d.violate("submit with fence %d that is still signaled", info.Fence)
		}
		d.fences[info.Fence] = true
		if state != nil {
			d.inFlight[info.Fence] = state.reads
		} else {
			d.inFlight[info.Fence] = nil
		}
		d.cbFence[info.CommandBuffer] = info.Fence
	}
	return nil
}

// QueueWaitIdle implements gfx.Commander.
func (d *Driver) QueueWaitIdle(q gfx.Queue) error {
	if err := d.record("QueueWaitIdle", q); err != nil {
		return err
	}
	d.inFlight = map[gfx.Fence][]gfx.Buffer{}
	return nil
}

func (d *Driver) recording(cb gfx.CommandBuffer, cmd string) *commandBuffer {
	state := d.cbs[cb]
	if state == nil || !state.recording {
		d.violate("%s into command buffer %d that is not recording", cmd, cb)
		return &commandBuffer{}
	}
	return state
}

// CmdBeginRenderPass implements gfx.Recorder.
func (d *Driver) CmdBeginRenderPass(cb gfx.CommandBuffer, pass gfx.RenderPass, fb gfx.Framebuffer, area gfx.Extent, clear gfx.Color) {
	d.record("CmdBeginRenderPass", fb, area.Width, area.Height, clear)
	d.recording(cb, "CmdBeginRenderPass")
}

// CmdEndRenderPass implements gfx.Recorder.
func (d *Driver) CmdEndRenderPass(cb gfx.CommandBuffer) {
	d.record("CmdEndRenderPass")
	d.recording(cb, "CmdEndRenderPass")
}

// CmdSetViewport implements gfx.Recorder.
func (d *Driver) CmdSetViewport(cb gfx.CommandBuffer, vp gfx.Viewport) {
	d.record("CmdSetViewport", vp.X, vp.Y, vp.Width, vp.Height)
	d.recording(cb, "CmdSetViewport")
}

// CmdSetScissor implements gfx.Recorder.
func (d *Driver) CmdSetScissor(cb gfx.CommandBuffer, r gfx.Rect) {
	d.record("CmdSetScissor", r.X, r.Y, r.Extent.Width, r.Extent.Height)
	d.recording(cb, "CmdSetScissor")
}

// CmdBindPipeline implements gfx.Recorder.
func (d *Driver) CmdBindPipeline(cb gfx.CommandBuffer, p gfx.Pipeline) {
	d.record("CmdBindPipeline", p)
	d.recording(cb, "CmdBindPipeline")
}

// CmdPushConstants implements gfx.Recorder.
func (d *Driver) CmdPushConstants(cb gfx.CommandBuffer, layout gfx.PipelineLayout, offset uint32, data []byte) {
	d.record("CmdPushConstants", offset, len(data))
	d.recording(cb, "CmdPushConstants")
}

// CmdBindDescriptorSet implements gfx.Recorder.
func (d *Driver) CmdBindDescriptorSet(cb gfx.CommandBuffer, layout gfx.PipelineLayout, set gfx.DescriptorSet) {
	d.record("CmdBindDescriptorSet", set)
	d.recording(cb, "CmdBindDescriptorSet")
}

// CmdBindVertexBuffers implements gfx.Recorder.
func (d *Driver) CmdBindVertexBuffers(cb gfx.CommandBuffer, buffers []gfx.Buffer) {
	d.record("CmdBindVertexBuffers", buffers)
	state := d.recording(cb, "CmdBindVertexBuffers")
	state.reads = append(state.reads, buffers...)
}

// CmdBindIndexBuffer implements gfx.Recorder.
func (d *Driver) CmdBindIndexBuffer(cb gfx.CommandBuffer, b gfx.Buffer) {
	d.record("CmdBindIndexBuffer", b)
	state := d.recording(cb, "CmdBindIndexBuffer")
	state.reads = append(state.reads, b)
}

// CmdDraw implements gfx.Recorder.
func (d *Driver) CmdDraw(cb gfx.CommandBuffer, vertexCount, instanceCount uint32) {
	d.record("CmdDraw", vertexCount, instanceCount)
	d.recording(cb, "CmdDraw")
}

// CmdDrawIndexed implements gfx.Recorder.
func (d *Driver) CmdDrawIndexed(cb gfx.CommandBuffer, indexCount, instanceCount uint32) {
	d.record("CmdDrawIndexed", indexCount, instanceCount)
	d.recording(cb, "CmdDrawIndexed")
}

// CmdCopyBuffer implements gfx.Recorder. The copy happens immediately.
func (d *Driver) CmdCopyBuffer(cb gfx.CommandBuffer, src, dst gfx.Buffer, size uint64) {
	d.record("CmdCopyBuffer", src, dst, size)
	d.recording(cb, "CmdCopyBuffer")
	from, to := d.Buffers[src], d.Buffers[dst]
	if from == nil || to == nil {
		d.violate("copy between unknown buffers %d and %d", src, dst)
		return
	}
	copy(to.Data, from.Data[:size])
}

// CmdCopyBufferToImage implements gfx.Recorder.
func (d *Driver) CmdCopyBufferToImage(cb gfx.CommandBuffer, src gfx.Buffer, dst gfx.Image, extent gfx.Extent) {
	d.record("CmdCopyBufferToImage", src, dst, extent.Width, extent.Height)
	d.recording(cb, "CmdCopyBufferToImage")
	if d.images[dst] != gfx.ImageLayoutTransferDst {
		d.violate("copy into image %d in layout %d", dst, d.images[dst])
	}
}

// CmdImageBarrier implements gfx.Recorder.
func (d *Driver) CmdImageBarrier(cb gfx.CommandBuffer, img gfx.Image, from, to gfx.ImageLayout) error {
	if err := d.record("CmdImageBarrier", img, uint32(from), uint32(to)); err != nil {
		return err
	}
	d.recording(cb, "CmdImageBarrier")
	switch {
	case from == gfx.ImageLayoutUndefined && to == gfx.ImageLayoutTransferDst:
	case from == gfx.ImageLayoutTransferDst && to == gfx.ImageLayoutShaderReadOnly:
	default:
		return errors.Errorf("unsupported layout transition %d to %d", from, to)
	}
	d.images[img] = to
	return nil
}

// ImageLayout returns the last layout an image was transitioned to.
func (d *Driver) ImageLayout(img gfx.Image) gfx.ImageLayout {
	return d.images[img]
}

// CreateBuffer implements gfx.Allocator.
func (d *Driver) CreateBuffer(cfg gfx.BufferConfig) (gfx.Buffer, error) {
	if err := d.record("CreateBuffer", cfg.Size, uint32(cfg.Usage), uint32(cfg.Memory)); err != nil {
		return gfx.NullHandle, err
	}
	if cfg.Size == 0 {
		return gfx.NullHandle, errors.New("buffer size is zero")
	}
	b := gfx.Buffer(d.create("Buffer"))
	d.Buffers[b] = &Buffer{Config: cfg, Data: make([]byte, cfg.Size)}
	return b, nil
}

// DestroyBuffer implements gfx.Allocator.
func (d *Driver) DestroyBuffer(b gfx.Buffer) {
	d.record("DestroyBuffer", b)
	for f, reads := range d.inFlight {
		for _, r := range reads {
			if r == b {
				d.violate("destroy of buffer %d in flight on fence %d", b, f)
			}
		}
	}
	d.destroy("Buffer", uint64(b))
	delete(d.Buffers, b)
}

// WriteBuffer implements gfx.Allocator.
func (d *Driver) WriteBuffer(b gfx.Buffer, offset uint64, data []byte) error {
	if err := d.record("WriteBuffer", b, offset, len(data)); err != nil {
		return err
	}
	buf, ok := d.Buffers[b]
	if !ok {
		return errors.Errorf("unknown buffer %d", b)
	}
	if buf.Config.Memory&gfx.MemoryHostVisible == 0 {
		return errors.Errorf("buffer %d is not host visible", b)
	}
	if offset+uint64(len(data)) > buf.Config.Size {
		return errors.Errorf("write of %d bytes at %d overflows buffer %d", len(data), offset, b)
	}
	for f, reads := range d.inFlight {
		for _, r := range reads {
			if r == b {
				d.violate("write to buffer %d in flight on fence %d", b, f)
			}
		}
	}
	copy(buf.Data[offset:], data)
	return nil
}

// CreateImage implements gfx.Allocator.
func (d *Driver) CreateImage(cfg gfx.ImageConfig) (gfx.Image, error) {
	if err := d.record("CreateImage", cfg.Extent.Width, cfg.Extent.Height, uint32(cfg.Format)); err != nil {
		return gfx.NullHandle, err
	}
	img := gfx.Image(d.create("Image"))
	d.images[img] = gfx.ImageLayoutUndefined
	return img, nil
}

// DestroyImage implements gfx.Allocator.
func (d *Driver) DestroyImage(img gfx.Image) {
	d.record("DestroyImage", img)
	d.destroy("Image", uint64(img))
	delete(d.images, img)
}

// CreateSampler implements gfx.Allocator.
func (d *Driver) CreateSampler(cfg gfx.SamplerConfig) (gfx.Sampler, error) {
	if err := d.record("CreateSampler", uint32(cfg.MagFilter), uint32(cfg.AddressMode)); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.Sampler(d.create("Sampler")), nil
}

// DestroySampler implements gfx.Allocator.
func (d *Driver) DestroySampler(s gfx.Sampler) {
	d.record("DestroySampler", s)
	d.destroy("Sampler", uint64(s))
}

// CreateDescriptorSetLayout implements gfx.Binder.
func (d *Driver) CreateDescriptorSetLayout() (gfx.DescriptorSetLayout, error) {
	if err := d.record("CreateDescriptorSetLayout"); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.DescriptorSetLayout(d.create("DescriptorSetLayout")), nil
}

// DestroyDescriptorSetLayout implements gfx.Binder.
func (d *Driver) DestroyDescriptorSetLayout(l gfx.DescriptorSetLayout) {
	d.record("DestroyDescriptorSetLayout", l)
	d.destroy("DescriptorSetLayout", uint64(l))
}

// CreateDescriptorPool implements gfx.Binder.
func (d *Driver) CreateDescriptorPool(maxSets uint32) (gfx.DescriptorPool, error) {
	if err := d.record("CreateDescriptorPool", maxSets); err != nil {
		return gfx.NullHandle, err
	}
	pool := gfx.DescriptorPool(d.create("DescriptorPool"))
	d.pools[pool] = maxSets
	return pool, nil
}

// DestroyDescriptorPool implements gfx.Binder.
func (d *Driver) DestroyDescriptorPool(pool gfx.DescriptorPool) {
	d.record("DestroyDescriptorPool", pool)
	d.destroy("DescriptorPool", uint64(pool))
	delete(d.pools, pool)
	delete(d.poolSets, pool)
	for set, owner := range d.setPool {
		if owner == pool {
			delete(d.live["DescriptorSet"], uint64(set))
			delete(d.Descriptors, set)
			delete(d.setPool, set)
		}
	}
}

// AllocateDescriptorSet implements gfx.Binder.
func (d *Driver) AllocateDescriptorSet(pool gfx.DescriptorPool, layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	if err := d.record("AllocateDescriptorSet", pool); err != nil {
		return gfx.NullHandle, err
	}
	limit, ok := d.pools[pool]
	if !ok {
		return gfx.NullHandle, errors.Errorf("unknown descriptor pool %d", pool)
	}
	if d.poolSets[pool] >= limit {
		return gfx.NullHandle, errors.New("ERROR_OUT_OF_POOL_MEMORY")
	}
	d.poolSets[pool]++
	set := gfx.DescriptorSet(d.create("DescriptorSet"))
	d.setPool[set] = pool
	return set, nil
}

// WriteImageDescriptor implements gfx.Binder.
func (d *Driver) WriteImageDescriptor(set gfx.DescriptorSet, view gfx.ImageView, sampler gfx.Sampler) {
	d.record("WriteImageDescriptor", set, view, sampler)
	if _, written := d.Descriptors[set]; written {
		d.violate("descriptor set %d written twice", set)
	}
	d.Descriptors[set] = view
}

// CreateShaderModule implements gfx.Pipeliner.
func (d *Driver) CreateShaderModule(code []byte) (gfx.ShaderModule, error) {
	if err := d.record("CreateShaderModule", len(code)); err != nil {
		return gfx.NullHandle, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return gfx.NullHandle, errors.Errorf("shader code of %d bytes is not SPIR-V", len(code))
	}
	return gfx.ShaderModule(d.create("ShaderModule")), nil
}

// DestroyShaderModule implements gfx.Pipeliner.
func (d *Driver) DestroyShaderModule(m gfx.ShaderModule) {
	d.record("DestroyShaderModule", m)
	d.destroy("ShaderModule", uint64(m))
}

// CreatePipelineLayout implements gfx.Pipeliner.
func (d *Driver) CreatePipelineLayout(set gfx.DescriptorSetLayout, pushConstantSize uint32) (gfx.PipelineLayout, error) {
	if err := d.record("CreatePipelineLayout", set, pushConstantSize); err != nil {
		return gfx.NullHandle, err
	}
	return gfx.PipelineLayout(d.create("PipelineLayout")), nil
}

// DestroyPipelineLayout implements gfx.Pipeliner.
func (d *Driver) DestroyPipelineLayout(l gfx.PipelineLayout) {
	d.record("DestroyPipelineLayout", l)
	d.destroy("PipelineLayout", uint64(l))
}

// CreatePipeline implements gfx.Pipeliner.
func (d *Driver) CreatePipeline(cfg gfx.PipelineConfig) (gfx.Pipeline, error) {
	if err := d.record("CreatePipeline", len(cfg.Attributes), uint32(cfg.Topology)); err != nil {
		return gfx.NullHandle, err
	}
	p := gfx.Pipeline(d.create("Pipeline"))
	d.Pipelines[p] = cfg
	return p, nil
}

// DestroyPipeline implements gfx.Pipeliner.
func (d *Driver) DestroyPipeline(p gfx.Pipeline) {
	d.record("DestroyPipeline", p)
	d.destroy("Pipeline", uint64(p))
	delete(d.Pipelines, p)
}
