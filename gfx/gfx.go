// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
// Nothing in here talks to a GPU, the concrete backend lives in gfx/vkr and an
// in-memory one for tests in gfx/gfxtest.
package gfx

import "unsafe"

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Loader describes a resource loader mechanism.
type Loader interface {

	// Load tries to find and load the resource
	// asociated with the provided name.
	Load(name string) ([]byte, error)
}

// Hinter is implemented by window systems that need to be told, before the
// window exists, that no native client API context should be created for it.
type Hinter interface {

	// NoClientAPI disables creation of an incompatible native context.
	NoClientAPI()
}

// Window is the part of a platform window the renderer needs.
type Window interface {

	// ProcAddr returns the vkGetInstanceProcAddr the window system was
	// loaded with, nil means the default loader is used.
	ProcAddr() unsafe.Pointer

	// RequiredExtensions lists the instance extensions needed to present
	// onto this window.
	RequiredExtensions() []string

	// CreateSurface creates a presentation surface for the given instance
	// and returns a pointer to the native surface handle.
	CreateSurface(instance interface{}) (unsafe.Pointer, error)

	// FramebufferSize returns the drawable size in pixels, which
	// differs from the window size on HiDPI displays.
	FramebufferSize() (width, height uint32)
}
