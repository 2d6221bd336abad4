// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koru2d/gfx"
)

// Uniform names that reach the GPU as push constants.
const (
	UniformProjection = "uProjection"
	UniformView       = "uView"
)

// Shader is a vertex and fragment module pair with the pipeline it is
// drawn with and the matrices pushed on every draw.
type Shader struct {
	drv        gfx.Driver
	vertex     gfx.ShaderModule
	fragment   gfx.ShaderModule
	cache      *PipelineCache
	projection mgl32.Mat4
	view       mgl32.Mat4
}

// Pipelines returns the cache the shader draws through.
func (s *Shader) Pipelines() *PipelineCache {
	return s.cache
}

// SetUniform sets uProjection or uView from an mgl32.Mat4. Texture unit
// integers and unknown names are accepted and have no effect.
func (s *Shader) SetUniform(name string, value interface{}) {
	m, ok := value.(mgl32.Mat4)
	if !ok {
		return
	}
	switch name {
	case UniformProjection:
		s.projection = m
	case UniformView:
		s.view = m
	}
}

// Projection returns the projection matrix.
func (s *Shader) Projection() mgl32.Mat4 { return s.projection }

// View returns the view matrix.
func (s *Shader) View() mgl32.Mat4 { return s.view }

// pushConstants lays out the projection at offset 0 and the view at 64,
// both column major.
func (s *Shader) pushConstants() []byte {
	b := make([]byte, PushConstantSize)
	for i, f := range s.projection {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	for i, f := range s.view {
		binary.LittleEndian.PutUint32(b[64+i*4:], math.Float32bits(f))
	}
	return b
}

// Release destroys the pipelines and both modules. The device must be idle.
func (s *Shader) Release() {
	s.cache.Release()
	if s.vertex != gfx.NullHandle {
		s.drv.DestroyShaderModule(s.vertex)
		s.vertex = gfx.NullHandle
	}
	if s.fragment != gfx.NullHandle {
		s.drv.DestroyShaderModule(s.fragment)
		s.fragment = gfx.NullHandle
	}
}
