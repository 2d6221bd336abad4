// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sdlwin adapts an SDL2 window to the renderer.
package sdlwin

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/koru2d/gfx"
)

// Window is an SDL window that is created after the renderer had a
// chance to hint it.
type Window struct {
	title         string
	width, height int32
	flags         uint32

	win *sdl.Window
}

var (
	_ gfx.Window = (*Window)(nil)
	_ gfx.Hinter = (*Window)(nil)
)

// New describes a resizable window, Create opens it.
func New(title string, width, height uint32) *Window {
	return &Window{
		title:  title,
		width:  int32(width),
		height: int32(height),
		flags:  sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI,
	}
}

// Hidden keeps the window from being shown.
func (w *Window) Hidden() {
	w.flags |= sdl.WINDOW_HIDDEN
}

// NoClientAPI implements gfx.Hinter, the window gets a vulkan
// instead of an OpenGL context.
func (w *Window) NoClientAPI() {
	w.flags |= sdl.WINDOW_VULKAN
}

// Create opens the window.
func (w *Window) Create() error {
	win, err := sdl.CreateWindow(w.title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		w.width,
		w.height,
		w.flags)
	if err != nil {
		return errors.Wrap(err, "sdl.CreateWindow()")
	}
	w.win = win
	return nil
}

// ID of the SDL window, as found in window events.
func (w *Window) ID() uint32 {
	id, _ := w.win.GetID()
	return id
}

// ProcAddr implements gfx.Window.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// RequiredExtensions implements gfx.Window.
func (w *Window) RequiredExtensions() []string {
	return w.win.VulkanGetInstanceExtensions()
}

// CreateSurface implements gfx.Window.
func (w *Window) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	surface, err := w.win.VulkanCreateSurface(instance)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return surface, nil
}

// FramebufferSize implements gfx.Window.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.win.VulkanGetDrawableSize()
	return uint32(width), uint32(height)
}

// Destroy closes the window.
func (w *Window) Destroy() {
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
}
