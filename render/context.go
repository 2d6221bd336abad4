// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package render draws 2D geometry through a gfx.Driver. A Context owns
// the device, the swapchain and the frame slots, every resource is created
// through it and only used from the goroutine that records frames.
package render

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru2d/assets"
	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
)

// Opener connects a driver to a newly created window.
type Opener func(win gfx.Window) (gfx.Driver, error)

// Mode is the primitive a draw call assembles.
type Mode int

// Render modes.
const (
	Triangles Mode = iota
	Lines
	Points
)

func (m Mode) topology() gfx.Topology {
	switch m {
	case Lines:
		return gfx.TopologyLineList
	case Points:
		return gfx.TopologyPointList
	}
	return gfx.TopologyTriangleList
}

// Options configure a Context.
type Options struct {
	// Extensions the device must support, device.DefaultExtensions
	// when empty.
	Extensions []string

	// Loader resolves compiled shaders.
	Loader gfx.Loader

	// Log receives lifecycle events, the standard logger when nil.
	Log logrus.FieldLogger

	// ClearColor of every frame.
	ClearColor gfx.Color
}

// Stats describe the frames rendered so far.
type Stats struct {
	Presented     uint64
	Aborted       uint64
	Recreations   uint64
	LastFrameTime float64
}

type frameState struct {
	begun   bool
	aborted bool
	image   uint32
}

// Context is the frame orchestrator. It is not safe for concurrent use.
type Context struct {
	open       Opener
	extensions []string
	loader     gfx.Loader
	log        logrus.FieldLogger

	drv       gfx.Driver
	adapter   device.PhysicalDeviceInfo
	families  device.QueueFamilies
	pool      gfx.CommandPool
	swapchain *Swapchain
	sync      *Synchronizer
	transfer  *Transfer
	registry  *DescriptorRegistry
	layout    gfx.PipelineLayout
	shaders   []*Shader
	resources []gfx.Releasable
	texture   *Texture

	size    gfx.Extent
	vsync   bool
	invalid bool
	clear   gfx.Color

	slot    int
	waited  bool
	frame   uint64
	current frameState
	stats   Stats
}

// New returns a context that opens its driver once the window exists.
func New(open Opener, opts Options) *Context {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = device.DefaultExtensions
	}
	return &Context{
		open:       open,
		extensions: extensions,
		loader:     opts.Loader,
		log:        log.WithField("component", "render"),
		clear:      opts.ClearColor,
	}
}

// WindowPrepared is called before the window is created.
func (c *Context) WindowPrepared(h gfx.Hinter) {
	if h != nil {
		h.NoClientAPI()
	}
}

// WindowCreated opens the device for win and builds everything needed to
// render into it. Errors are fatal and match gfx.ErrUnsupported or
// gfx.ErrDevice.
func (c *Context) WindowCreated(win gfx.Window, width, height uint32, vsync bool) (err error) {
	if c.drv != nil {
		return gfx.Misuse("window created twice")
	}
	drv, err := c.open(win)
	if err != nil {
		return gfx.Fatal(err, "open driver")
	}
	c.drv = drv
	defer func() {
		if err != nil {
			c.Dispose()
		}
	}()

	c.vsync = vsync
	c.size = gfx.Extent{Width: width, Height: height}
	if fw, fh := win.FramebufferSize(); fw > 0 && fh > 0 {
		c.size = gfx.Extent{Width: fw, Height: fh}
	}

	adapters, err := drv.Adapters()
	if err != nil {
		return gfx.Fatal(err, "enumerate adapters")
	}
	idx, err := device.Select(adapters, c.extensions)
	if err != nil {
		return err
	}
	c.adapter = adapters[idx]
	c.families = device.FindQueueFamilies(c.adapter.QueueFamilies)
	if err := drv.OpenDevice(c.adapter, c.families); err != nil {
		return gfx.Fatal(err, "open device")
	}
	c.log.WithField("device", c.adapter.Name).
		WithField("type", c.adapter.Type).
		WithField("score", device.Score(c.adapter, c.extensions)).
		Debug("device chosen")

	if c.pool, err = drv.CreateCommandPool(c.families.Graphics); err != nil {
		return gfx.Fatal(err, "create command pool")
	}
	if c.registry, err = NewDescriptorRegistry(drv, c.log); err != nil {
		return err
	}
	if c.layout, err = drv.CreatePipelineLayout(c.registry.Layout(), PushConstantSize); err != nil {
		return gfx.Fatal(err, "create pipeline layout")
	}
	if c.swapchain, err = NewSwapchain(drv, c.families, c.size, vsync, c.log); err != nil {
		return err
	}
	if c.sync, err = NewSynchronizer(drv, c.pool, c.swapchain.ImageCount()); err != nil {
		return err
	}
	c.transfer = NewTransfer(drv, c.pool, drv.GraphicsQueue())
	return nil
}

// WindowResized records the new drawable size. The swapchain is rebuilt
// once, at the start of the next frame.
func (c *Context) WindowResized(width, height uint32) {
	c.size = gfx.Extent{Width: width, Height: height}
	c.invalid = true
}

// SetClearColor sets the color frames are cleared to.
func (c *Context) SetClearColor(color gfx.Color) {
	c.clear = color
}

// Adapter is the chosen physical device.
func (c *Context) Adapter() device.PhysicalDeviceInfo { return c.adapter }

// Swapchain returns the current swapchain.
func (c *Context) Swapchain() *Swapchain { return c.swapchain }

// Registry returns the texture descriptor registry.
func (c *Context) Registry() *DescriptorRegistry { return c.registry }

// Stats returns the frame counters.
func (c *Context) Stats() Stats { return c.stats }

func (c *Context) ready() error {
	if c.drv == nil || c.sync == nil {
		return gfx.Misuse("context used before the window was created")
	}
	return nil
}

// writeSlot implements slotSource, the fence of the current slot is awaited
// once per frame before anything writes into it.
func (c *Context) writeSlot() (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	if !c.waited {
		if err := c.sync.Wait(c.slot); err != nil {
			return 0, gfx.Fatal(err, "wait for frame slot")
		}
		c.waited = true
	}
	return c.slot, nil
}

func (c *Context) recreate() error {
	if c.size.Empty() {
		return errMinimized
	}
	if err := c.drv.WaitIdle(); err != nil {
		return gfx.Fatal(err, "wait for device idle")
	}
	if err := c.swapchain.Recreate(c.size); err != nil {
		return err
	}
	if err := c.sync.Resize(c.swapchain.ImageCount()); err != nil {
		return err
	}
	c.invalid = false
	c.stats.Recreations++
	return nil
}

func (c *Context) abort() {
	c.current.aborted = true
	c.stats.Aborted++
}

// BeginFrame waits for the current slot, acquires an image and starts
// recording into it. When the swapchain turns out stale the frame is
// aborted: draws are ignored and Present submits nothing.
func (c *Context) BeginFrame() error {
	if err := c.ready(); err != nil {
		return err
	}
	if c.current.begun {
		return gfx.Misuse("frame begun twice")
	}
	c.current = frameState{begun: true}

	if c.invalid {
		if err := c.recreate(); err != nil {
			if errors.Is(err, errMinimized) {
				c.abort()
				return nil
			}
			return err
		}
	}

	if err := c.sync.Wait(c.slot); err != nil {
		return gfx.Fatal(err, "wait for frame slot")
	}
	c.waited = true
	if c.frame+1 >= FramesInFlight {
		for _, s := range c.shaders {
			s.cache.collect(c.frame + 1 - FramesInFlight)
		}
	}

	slot := c.sync.slot(c.slot)
	img, status, err := c.drv.AcquireNextImage(c.swapchain.Handle(), slot.imageAvailable)
	if err != nil {
		return gfx.Fatal(err, "acquire swapchain image")
	}
	if status == gfx.StatusOutOfDate {
		c.invalid = true
		c.abort()
		return nil
	}
	c.current.image = img

	if err := c.sync.Reset(c.slot); err != nil {
		return gfx.Fatal(err, "reset frame slot")
	}

	cb := slot.commandBuffer
	extent := c.swapchain.Extent()
	c.drv.CmdBeginRenderPass(cb, c.swapchain.RenderPass(), c.swapchain.Framebuffer(img), extent, c.clear)
	c.drv.CmdSetViewport(cb, gfx.Viewport{
		X:        0,
		Y:        float32(extent.Height),
		Width:    float32(extent.Width),
		Height:   -float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	c.drv.CmdSetScissor(cb, gfx.Rect{Extent: extent})
	return nil
}

// Clear is BeginFrame.
func (c *Context) Clear() error {
	return c.BeginFrame()
}

// Draw records a draw of va with shader. Nothing is recorded for an
// empty vertex array or an aborted frame.
func (c *Context) Draw(va *VertexArray, shader *Shader, mode Mode) error {
	if !c.current.begun {
		return gfx.Misuse("draw outside of a frame")
	}
	if shader == nil {
		return gfx.Misuse("draw without a shader")
	}
	if c.current.aborted || va == nil || va.Empty() {
		return nil
	}

	pipeline, err := shader.cache.Resolve(va.layouts(), mode.topology(), c.frame)
	if err != nil {
		return err
	}

	cb := c.sync.slot(c.slot).commandBuffer
	c.drv.CmdBindPipeline(cb, pipeline)
	c.drv.CmdPushConstants(cb, c.layout, 0, shader.pushConstants())
	if c.texture != nil {
		c.drv.CmdBindDescriptorSet(cb, c.layout, c.texture.set)
	}
	c.drv.CmdBindVertexBuffers(cb, va.handles(c.slot))

	if va.index != nil {
		c.drv.CmdBindIndexBuffer(cb, va.index.buffer)
		c.drv.CmdDrawIndexed(cb, uint32(va.index.Len()), va.instanceCount())
		return nil
	}
	c.drv.CmdDraw(cb, va.vertexCount(), va.instanceCount())
	return nil
}

// EndFrame submits the recorded frame and presents it, then moves on to
// the next slot. An aborted frame only ends.
func (c *Context) EndFrame(frameTime float64) error {
	if !c.current.begun {
		return gfx.Misuse("present without a frame")
	}
	frame := c.current
	c.current = frameState{}
	c.stats.LastFrameTime = frameTime
	if frame.aborted {
		return nil
	}

	slot := c.sync.slot(c.slot)
	c.drv.CmdEndRenderPass(slot.commandBuffer)
	if err := c.drv.EndCommandBuffer(slot.commandBuffer); err != nil {
		return gfx.Fatal(err, "end frame")
	}

	renderFinished := c.sync.RenderFinished(frame.image)
	err := c.drv.Submit(c.drv.GraphicsQueue(), gfx.SubmitInfo{
		CommandBuffer: slot.commandBuffer,
		Wait:          slot.imageAvailable,
		Signal:        renderFinished,
		Fence:         slot.inFlight,
	})
	if err != nil {
		return gfx.Fatal(err, "submit frame")
	}

	status, err := c.drv.Present(c.drv.PresentQueue(), gfx.PresentInfo{
		Wait:       renderFinished,
		Swapchain:  c.swapchain.Handle(),
		ImageIndex: frame.image,
	})
	if err != nil {
		return gfx.Fatal(err, "present frame")
	}
	if status != gfx.StatusSuccess {
		c.invalid = true
	}

	c.slot = (c.slot + 1) % FramesInFlight
	c.waited = false
	c.frame++
	c.stats.Presented++
	return nil
}

// Present is EndFrame.
func (c *Context) Present(frameTime float64) error {
	return c.EndFrame(frameTime)
}

// CreateStaticBuffer uploads data once, it can not be updated later.
func (c *Context) CreateStaticBuffer(data []float32, layout *VertexLayout) (*StaticBuffer, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, gfx.Misuse("static buffer without a layout")
	}
	b, err := newStaticBuffer(c.drv, c.transfer, data, layout)
	if err != nil {
		return nil, err
	}
	c.resources = append(c.resources, b)
	return b, nil
}

// CreateDynamicBuffer allocates a buffer that holds up to capacity floats
// and may be updated every frame.
func (c *Context) CreateDynamicBuffer(layout *VertexLayout, capacity int) (*DynamicBuffer, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, gfx.Misuse("dynamic buffer without a layout")
	}
	b, err := newDynamicBuffer(c.drv, c, layout, capacity)
	if err != nil {
		return nil, err
	}
	c.resources = append(c.resources, b)
	return b, nil
}

// CreateIndexBuffer uploads uint32 indices.
func (c *Context) CreateIndexBuffer(indices []uint32) (*IndexBuffer, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	b, err := newIndexBuffer(c.drv, c.transfer, indices)
	if err != nil {
		return nil, err
	}
	c.resources = append(c.resources, b)
	return b, nil
}

// NewVertexArray returns an empty vertex array.
func (c *Context) NewVertexArray() *VertexArray {
	return NewVertexArray()
}

// CreateTexture uploads width*height RGBA pixels and registers the
// descriptor set the texture is sampled through.
func (c *Context) CreateTexture(pixels []byte, width, height uint32) (*Texture, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if c.registry.Allocated() >= MaxTextureDescriptors {
		return nil, gfx.Misuse("all %d texture descriptors are in use", MaxTextureDescriptors)
	}

	t := &Texture{ctx: c, extent: gfx.Extent{Width: width, Height: height}}
	var err error
	if t.image, err = c.transfer.Image(pixels, t.extent); err != nil {
		return nil, err
	}
	if t.view, err = c.drv.CreateImageView(t.image, TextureFormat); err != nil {
		t.Release()
		return nil, gfx.Fatal(err, "create texture view")
	}
	t.sampler, err = c.drv.CreateSampler(gfx.SamplerConfig{
		MagFilter:   gfx.FilterNearest,
		MinFilter:   gfx.FilterNearest,
		AddressMode: gfx.AddressModeRepeat,
	})
	if err != nil {
		t.Release()
		return nil, gfx.Fatal(err, "create texture sampler")
	}
	if t.set, err = c.registry.Allocate(t.view, t.sampler); err != nil {
		t.Release()
		return nil, err
	}
	c.resources = append(c.resources, t)
	return t, nil
}

// CreateShader loads the compiled forms of the named vertex and fragment
// shaders. The pipeline is built on the first draw.
func (c *Context) CreateShader(vertName, fragName string) (*Shader, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if c.loader == nil {
		return nil, gfx.Misuse("shader %s created without a loader", vertName)
	}

	s := &Shader{drv: c.drv}
	var err error
	if s.vertex, err = c.module(vertName); err != nil {
		return nil, err
	}
	if s.fragment, err = c.module(fragName); err != nil {
		c.drv.DestroyShaderModule(s.vertex)
		return nil, err
	}
	s.cache = NewPipelineCache(c.drv, s.vertex, s.fragment, c.layout, c.swapchain.RenderPass(), c.log)
	c.shaders = append(c.shaders, s)
	return s, nil
}

func (c *Context) module(name string) (gfx.ShaderModule, error) {
	path := assets.ShaderPath(name)
	code, err := c.loader.Load(path)
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "load shader "+path)
	}
	m, err := c.drv.CreateShaderModule(code)
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "create shader module "+path)
	}
	return m, nil
}

// WaitIdle blocks until the device has finished all work.
func (c *Context) WaitIdle() error {
	if c.drv == nil {
		return nil
	}
	return c.drv.WaitIdle()
}

// Dispose waits for the device and destroys everything the context
// created, then closes the driver.
func (c *Context) Dispose() {
	if c.drv == nil {
		return
	}
	if err := c.drv.WaitIdle(); err != nil {
		c.log.WithError(err).Warn("dispose without idle device")
	}
	for i := len(c.resources) - 1; i >= 0; i-- {
		c.resources[i].Release()
	}
	c.resources = nil
	c.texture = nil
	for _, s := range c.shaders {
		s.Release()
	}
	c.shaders = nil
	if c.layout != gfx.NullHandle {
		c.drv.DestroyPipelineLayout(c.layout)
		c.layout = gfx.NullHandle
	}
	if c.registry != nil {
		c.registry.Release()
		c.registry = nil
	}
	if c.sync != nil {
		c.sync.Release()
		c.sync = nil
	}
	if c.swapchain != nil {
		c.swapchain.Release()
		c.swapchain = nil
	}
	if c.pool != gfx.NullHandle {
		c.drv.DestroyCommandPool(c.pool)
		c.pool = gfx.NullHandle
	}
	c.drv.Close()
	c.drv = nil
	c.transfer = nil
}
