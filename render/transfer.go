// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"github.com/devblok/koru2d/gfx"
)

// TextureFormat is the format every uploaded texture is stored in.
const TextureFormat = gfx.FormatR8G8B8A8SRGB

// Transfer uploads data into device local memory through a staging
// buffer. Every upload blocks until the queue is idle.
type Transfer struct {
	drv   gfx.Driver
	pool  gfx.CommandPool
	queue gfx.Queue
}

// NewTransfer records uploads with command buffers from pool and submits
// them to queue.
func NewTransfer(drv gfx.Driver, pool gfx.CommandPool, queue gfx.Queue) *Transfer {
	return &Transfer{drv: drv, pool: pool, queue: queue}
}

// Buffer uploads data into a new device local buffer with the given usage.
func (t *Transfer) Buffer(data []byte, usage gfx.BufferUsage) (gfx.Buffer, error) {
	if len(data) == 0 {
		return gfx.NullHandle, gfx.Misuse("upload of an empty buffer")
	}
	staging, err := t.staging(data)
	if err != nil {
		return gfx.NullHandle, err
	}
	defer t.drv.DestroyBuffer(staging)

	dst, err := t.drv.CreateBuffer(gfx.BufferConfig{
		Size:   uint64(len(data)),
		Usage:  gfx.BufferUsageTransferDst | usage,
		Memory: gfx.MemoryDeviceLocal,
	})
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "create device local buffer")
	}

	err = t.oneShot(func(cb gfx.CommandBuffer) error {
		t.drv.CmdCopyBuffer(cb, staging, dst, uint64(len(data)))
		return nil
	})
	if err != nil {
		t.drv.DestroyBuffer(dst)
		return gfx.NullHandle, err
	}
	return dst, nil
}

// Image uploads RGBA pixels into a new sampled image, left in the shader
// read only layout.
func (t *Transfer) Image(pixels []byte, extent gfx.Extent) (gfx.Image, error) {
	if extent.Empty() {
		return gfx.NullHandle, gfx.Misuse("upload of an empty %dx%d image", extent.Width, extent.Height)
	}
	if want := int(extent.Width) * int(extent.Height) * 4; len(pixels) != want {
		return gfx.NullHandle, gfx.Misuse("%dx%d image needs %d bytes, got %d", extent.Width, extent.Height, want, len(pixels))
	}
	staging, err := t.staging(pixels)
	if err != nil {
		return gfx.NullHandle, err
	}
	defer t.drv.DestroyBuffer(staging)

	img, err := t.drv.CreateImage(gfx.ImageConfig{
		Extent: extent,
		Format: TextureFormat,
		Usage:  gfx.ImageUsageTransferDst | gfx.ImageUsageSampled,
	})
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "create texture image")
	}

	err = t.oneShot(func(cb gfx.CommandBuffer) error {
		if err := t.drv.CmdImageBarrier(cb, img, gfx.ImageLayoutUndefined, gfx.ImageLayoutTransferDst); err != nil {
			return err
		}
		t.drv.CmdCopyBufferToImage(cb, staging, img, extent)
		return t.drv.CmdImageBarrier(cb, img, gfx.ImageLayoutTransferDst, gfx.ImageLayoutShaderReadOnly)
	})
	if err != nil {
		t.drv.DestroyImage(img)
		return gfx.NullHandle, err
	}
	return img, nil
}

func (t *Transfer) staging(data []byte) (gfx.Buffer, error) {
	staging, err := t.drv.CreateBuffer(gfx.BufferConfig{
		Size:   uint64(len(data)),
		Usage:  gfx.BufferUsageTransferSrc,
		Memory: gfx.MemoryHostVisible | gfx.MemoryHostCoherent,
	})
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "create staging buffer")
	}
	if err := t.drv.WriteBuffer(staging, 0, data); err != nil {
		t.drv.DestroyBuffer(staging)
		return gfx.NullHandle, gfx.Fatal(err, "write staging buffer")
	}
	return staging, nil
}

// oneShot records commands into a throwaway command buffer, submits it
// and waits for the queue to drain.
func (t *Transfer) oneShot(record func(gfx.CommandBuffer) error) error {
	cbs, err := t.drv.AllocateCommandBuffers(t.pool, 1)
	if err != nil {
		return gfx.Fatal(err, "allocate upload command buffer")
	}
	defer t.drv.FreeCommandBuffers(t.pool, cbs)
	cb := cbs[0]

	if err := t.drv.BeginCommandBuffer(cb, true); err != nil {
		return gfx.Fatal(err, "begin upload")
	}
	if err := record(cb); err != nil {
		// the recording error is the one reported
		_ = t.drv.EndCommandBuffer(cb)
		return gfx.Fatal(err, "record upload")
	}
	if err := t.drv.EndCommandBuffer(cb); err != nil {
		return gfx.Fatal(err, "end upload")
	}
	if err := t.drv.Submit(t.queue, gfx.SubmitInfo{CommandBuffer: cb}); err != nil {
		return gfx.Fatal(err, "submit upload")
	}
	if err := t.drv.QueueWaitIdle(t.queue); err != nil {
		return gfx.Fatal(err, "wait for upload")
	}
	return nil
}
