// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render_test

import (
	"fmt"
	"io"
	"unsafe"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/gfx/gfxtest"
	"github.com/devblok/koru2d/render"
)

type window struct {
	width, height uint32
	hinted        bool
}

func (w *window) NoClientAPI() { w.hinted = true }
func (w *window) ProcAddr() unsafe.Pointer { return nil }
func (w *window) RequiredExtensions() []string { return nil }
func (w *window) FramebufferSize() (uint32, uint32) { return w.width, w.height }
func (w *window) CreateSurface(interface{}) (unsafe.Pointer, error) {
	return nil, errors.New("no surface in tests")
}

type loader map[string][]byte

func (l loader) Load(name string) ([]byte, error) {
	if data, ok := l[name]; ok {
		return data, nil
	}
	return nil, errors.Errorf("no %s", name)
}

var shaders = loader{
	"shaders/2d/vert.spv": {0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00},
	"shaders/2d/frag.spv": {0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00},
}

func quietLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newContext returns a context ready to render into an 800x600 window.
func newContext(c *qt.C, drv *gfxtest.Driver) *render.Context {
	ctx := render.New(func(gfx.Window) (gfx.Driver, error) {
		return drv, nil
	}, render.Options{
		Loader: shaders,
		Log:    quietLog(),
	})
	win := &window{width: 800, height: 600}
	ctx.WindowPrepared(win)
	c.Assert(win.hinted, qt.IsTrue)
	c.Assert(ctx.WindowCreated(win, 800, 600, false), qt.IsNil)
	c.Cleanup(ctx.Dispose)
	return ctx
}

// quad is six vertices of two floats each.
var quad = []float32{
	0, 0, 1, 0, 1, 1,
	0, 0, 1, 1, 0, 1,
}

func positionLayout() *render.VertexLayout {
	return render.NewVertexLayout(render.VertexAttribute{
		Index:  0,
		Size:   2,
		Type:   render.Float,
		Stride: 8,
	})
}

func newShader(c *qt.C, ctx *render.Context) *render.Shader {
	s, err := ctx.CreateShader("2d/vert.glsl", "2d/frag.glsl")
	c.Assert(err, qt.IsNil)
	return s
}

// frame renders one frame, drawing va with s when both are set.
func frame(c *qt.C, ctx *render.Context, va *render.VertexArray, s *render.Shader) {
	c.Assert(ctx.Clear(), qt.IsNil)
	if va != nil {
		c.Assert(ctx.Draw(va, s, render.Triangles), qt.IsNil)
	}
	c.Assert(ctx.Present(1.0/60), qt.IsNil)
}

// writes returns the buffer handles written by WriteBuffer calls.
func writes(calls []string) []gfx.Buffer {
	var bufs []gfx.Buffer
	for _, call := range calls {
		var b gfx.Buffer
		var off, n int
		if _, err := fmt.Sscanf(call, "WriteBuffer %d %d %d", &b, &off, &n); err == nil {
			bufs = append(bufs, b)
		}
	}
	return bufs
}

func assertClean(c *qt.C, drv *gfxtest.Driver) {
	c.Helper()
	c.Assert(drv.Violations(), qt.HasLen, 0)
}
