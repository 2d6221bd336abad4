// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"github.com/devblok/koru2d/gfx"
)

// FramesInFlight is the number of frame slots the CPU may record ahead
// of the GPU.
const FramesInFlight = 2

// frameSlot is one rotating set of per-frame objects. Slots do not
// depend on the swapchain image count.
type frameSlot struct {
	commandBuffer  gfx.CommandBuffer
	imageAvailable gfx.Semaphore
	inFlight       gfx.Fence
}

// Synchronizer owns the frame slots and one render finished semaphore
// per swapchain image.
type Synchronizer struct {
	drv            gfx.Driver
	pool           gfx.CommandPool
	slots          [FramesInFlight]frameSlot
	renderFinished []gfx.Semaphore
}

// NewSynchronizer allocates the frame slots from pool. Fences start
// signaled so the first wait of every slot returns at once.
func NewSynchronizer(drv gfx.Driver, pool gfx.CommandPool, imageCount int) (*Synchronizer, error) {
	s := &Synchronizer{drv: drv, pool: pool}

	cbs, err := drv.AllocateCommandBuffers(pool, FramesInFlight)
	if err != nil {
		return nil, gfx.Fatal(err, "allocate frame command buffers")
	}
	for i := range s.slots {
		s.slots[i].commandBuffer = cbs[i]
	}
	for i := range s.slots {
		if s.slots[i].imageAvailable, err = drv.CreateSemaphore(); err != nil {
			s.Release()
			return nil, gfx.Fatal(err, "create image available semaphore")
		}
		if s.slots[i].inFlight, err = drv.CreateFence(true); err != nil {
			s.Release()
			return nil, gfx.Fatal(err, "create in flight fence")
		}
	}
	if err := s.Resize(imageCount); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *Synchronizer) slot(i int) frameSlot {
	return s.slots[i%FramesInFlight]
}

// RenderFinished returns the semaphore signaled when rendering into the
// swapchain image img completes.
func (s *Synchronizer) RenderFinished(img uint32) gfx.Semaphore {
	return s.renderFinished[img]
}

// Resize rebuilds the render finished semaphores for a new image count.
// The device must be idle.
func (s *Synchronizer) Resize(imageCount int) error {
	if imageCount == len(s.renderFinished) {
		return nil
	}
	s.releaseRenderFinished()
	for i := 0; i < imageCount; i++ {
		sem, err := s.drv.CreateSemaphore()
		if err != nil {
			return gfx.Fatal(err, "create render finished semaphore")
		}
		s.renderFinished = append(s.renderFinished, sem)
	}
	return nil
}

// Wait blocks until the GPU is done with the last submission of slot i.
func (s *Synchronizer) Wait(i int) error {
	return s.drv.WaitFence(s.slot(i).inFlight)
}

// Reset unsignals the fence of slot i and restarts its command buffer.
// It may only follow Wait.
func (s *Synchronizer) Reset(i int) error {
	slot := s.slot(i)
	if err := s.drv.ResetFence(slot.inFlight); err != nil {
		return err
	}
	if err := s.drv.ResetCommandBuffer(slot.commandBuffer); err != nil {
		return err
	}
	return s.drv.BeginCommandBuffer(slot.commandBuffer, false)
}

func (s *Synchronizer) releaseRenderFinished() {
	for _, sem := range s.renderFinished {
		s.drv.DestroySemaphore(sem)
	}
	s.renderFinished = nil
}

// Release destroys every object of the synchronizer.
func (s *Synchronizer) Release() {
	s.releaseRenderFinished()
	var cbs []gfx.CommandBuffer
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.commandBuffer != gfx.NullHandle {
			cbs = append(cbs, slot.commandBuffer)
		}
		if slot.imageAvailable != gfx.NullHandle {
			s.drv.DestroySemaphore(slot.imageAvailable)
		}
		if slot.inFlight != gfx.NullHandle {
			s.drv.DestroyFence(slot.inFlight)
		}
		*slot = frameSlot{}
	}
	if len(cbs) > 0 {
		s.drv.FreeCommandBuffers(s.pool, cbs)
	}
}
