// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:generate glslc -fshader-stage=vert ../../shaders/2d/vert.glsl -o ../../shaders/2d/vert.spv
//go:generate glslc -fshader-stage=frag ../../shaders/2d/frag.glsl -o ../../shaders/2d/frag.spv

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/koru2d/assets"
	"github.com/devblok/koru2d/core"
	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/gfx/vkr"
	"github.com/devblok/koru2d/internal/sdlwin"
	"github.com/devblok/koru2d/render"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	configFile   = flag.String("config", "koru.toml", "Configuration file")
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
)

const spriteCount = 64

var frameCounter int64

func main() {
	flag.Parse()

	configuration, err := core.LoadConfiguration(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *debug {
		configuration.Instance.DebugMode = true
	}
	logger, err := core.NewLogger(configuration.Log)
	if err != nil {
		log.Fatal(err)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			logger.Fatal(err)
		}
		if err := trace.Start(f); err != nil {
			logger.Fatal(err)
		}
		defer trace.Stop()
	}

	if err := run(configuration, logger); err != nil {
		logger.Fatal(err)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Fatal(err)
		}
	}
}

func run(configuration core.Configuration, logger *log.Logger) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "sdl.Init()")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	loader, err := assets.Open(configuration.Assets.Source, configuration.Assets.Location)
	if err != nil {
		return err
	}
	defer loader.Close()

	rc := render.New(func(win gfx.Window) (gfx.Driver, error) {
		return vkr.Open(gfx.InstanceConfig{
			ApplicationName: configuration.Instance.ApplicationName,
			DebugMode:       configuration.Instance.DebugMode,
		}, win, logger)
	}, render.Options{
		Extensions: configuration.Renderer.DeviceExtensions,
		Loader:     loader,
		Log:        logger,
		ClearColor: gfx.Color{R: 0.08, G: 0.08, B: 0.1, A: 1},
	})

	width, height := configuration.Renderer.ScreenWidth, configuration.Renderer.ScreenHeight
	window := sdlwin.New(configuration.Instance.ApplicationName, width, height)
	rc.WindowPrepared(window)
	if err := window.Create(); err != nil {
		return err
	}
	defer window.Destroy()

	if err := rc.WindowCreated(window, width, height, configuration.Renderer.VSync); err != nil {
		return err
	}
	defer rc.Dispose()

	scene, err := newScene(rc)
	if err != nil {
		return err
	}
	scene.resize(window.FramebufferSize())

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
		defer wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("\r\033[2KFrame count: %d\tCGO calls: %d", atomic.SwapInt64(&frameCounter, 0), runtime.NumCgoCall())
			}
		}
	}(ctx, &programSync)
	defer func() {
		cancel()
		programSync.Wait()
	}()

	/* Event and draw loop, both stay on the locked main thread */
	for {
		select {
		case <-ctx.Done():
			logger.Debug("event loop exited")
			return rc.WaitIdle()
		case <-timeService.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						cancel()
					}
				case *sdl.WindowEvent:
					if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED && et.WindowID == window.ID() {
						w, h := window.FramebufferSize()
						rc.WindowResized(w, h)
						scene.resize(w, h)
					}
				case *sdl.QuitEvent:
					cancel()
				}
			}
		case <-timeService.FpsTicker().C:
			if err := scene.frame(rc, timeService.FrameTime()); err != nil {
				if errors.Is(err, gfx.ErrDevice) {
					return err
				}
				logger.WithError(err).Error("frame")
			}
			atomic.AddInt64(&frameCounter, 1)
		}
	}
}

// scene is a checkered backdrop with sprites orbiting above it.
type scene struct {
	shader   *render.Shader
	backdrop *render.VertexArray
	sprites  *render.VertexArray
	batch    *render.DynamicBuffer
	texture  *render.Texture

	vertices []float32
	elapsed  float64
	width    float32
	height   float32
}

// quadLayout is a position and a texture coordinate per vertex.
var quadLayout = render.NewVertexLayout(
	render.VertexAttribute{Index: 0, Size: 2, Type: render.Float, Stride: 16, Offset: 0},
	render.VertexAttribute{Index: 1, Size: 2, Type: render.Float, Stride: 16, Offset: 8},
)

func newScene(rc *render.Context) (*scene, error) {
	s := &scene{}
	var err error
	if s.shader, err = rc.CreateShader("2d/vert.glsl", "2d/frag.glsl"); err != nil {
		return nil, err
	}
	s.shader.SetUniform(render.UniformView, glm.Ident4())

	pixels, extent := render.PixelsFromImage(checkers(64, 8))
	if s.texture, err = rc.CreateTexture(pixels, extent.Width, extent.Height); err != nil {
		return nil, err
	}
	s.texture.Bind()

	backdrop, err := rc.CreateStaticBuffer([]float32{
		0, 0, 0, 0,
		1, 0, 4, 0,
		1, 1, 4, 4,
		0, 1, 0, 4,
	}, quadLayout)
	if err != nil {
		return nil, err
	}
	indices, err := rc.CreateIndexBuffer([]uint32{0, 1, 2, 2, 3, 0})
	if err != nil {
		return nil, err
	}
	s.backdrop = rc.NewVertexArray()
	s.backdrop.AddBuffer(backdrop)
	s.backdrop.SetIndexBuffer(indices)

	s.vertices = make([]float32, 0, spriteCount*6*4)
	if s.batch, err = rc.CreateDynamicBuffer(quadLayout, cap(s.vertices)); err != nil {
		return nil, err
	}
	s.sprites = rc.NewVertexArray()
	s.sprites.AddBuffer(s.batch)
	return s, nil
}

func (s *scene) resize(width, height uint32) {
	s.width, s.height = float32(width), float32(height)
	s.shader.SetUniform(render.UniformProjection, glm.Ortho2D(0, s.width, 0, s.height))
}

func (s *scene) frame(rc *render.Context, frameTime float64) error {
	s.elapsed += frameTime
	if err := s.batch.Update(s.layout()); err != nil {
		return err
	}

	if err := rc.Clear(); err != nil {
		return err
	}
	s.shader.SetUniform(render.UniformView, glm.Scale3D(s.width, s.height, 1))
	if err := rc.Draw(s.backdrop, s.shader, render.Triangles); err != nil {
		rc.Present(frameTime)
		return err
	}
	s.shader.SetUniform(render.UniformView, glm.Ident4())
	if err := rc.Draw(s.sprites, s.shader, render.Triangles); err != nil {
		rc.Present(frameTime)
		return err
	}
	return rc.Present(frameTime)
}

// layout batches every sprite into one list of triangles.
func (s *scene) layout() []float32 {
	const size = 24
	cx, cy := s.width/2, s.height/2
	radius := float64(math.Min(float64(cx), float64(cy)) * 0.75)

	s.vertices = s.vertices[:0]
	for i := 0; i < spriteCount; i++ {
		angle := s.elapsed + float64(i)*2*math.Pi/spriteCount
		x := cx + float32(math.Cos(angle)*radius)
		y := cy + float32(math.Sin(angle)*radius)
		x0, y0, x1, y1 := x-size/2, y-size/2, x+size/2, y+size/2
		s.vertices = append(s.vertices,
			x0, y0, 0, 0,
			x1, y0, 1, 0,
			x1, y1, 1, 1,
			x1, y1, 1, 1,
			x0, y1, 0, 1,
			x0, y0, 0, 0,
		)
	}
	return s.vertices
}

// checkers draws a size by size board of cells by cells squares.
func checkers(size, cells int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{R: 200, G: 200, B: 210, A: 255}
	dark := color.RGBA{R: 60, G: 60, B: 80, A: 255}
	step := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/step+y/step)%2 == 0 {
				img.Set(x, y, light)
			} else {
				img.Set(x, y, dark)
			}
		}
	}
	return img
}
