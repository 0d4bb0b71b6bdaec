// Package desktop hosts the backdrop in a glfw window.
package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	gl21 "github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/B06o/muse-greet/internal/backdrop"
)

var errNoCoreContext = errors.New("desktop: no core 4.1 context")

// Config describes the window and the backdrop it shows.
type Config struct {
	Width   int
	Height  int
	Title   string
	Options backdrop.Options
}

// DefaultConfig returns the compiled-in window and backdrop settings.
func DefaultConfig() Config {
	return Config{
		Width:   backdrop.WindowWidth,
		Height:  backdrop.WindowHeight,
		Title:   backdrop.WindowTitle,
		Options: backdrop.DefaultOptions(),
	}
}

// glBackend opens backdrop surfaces on the window's current context.
type glBackend struct {
	kind contextKind
}

func (b glBackend) OpenDevice(width, height int) (backdrop.Device, error) {
	if b.kind != coreContext {
		return nil, errNoCoreContext
	}
	d, err := newDevice(width, height)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (b glBackend) OpenPresenter(width, height int) (backdrop.Presenter, error) {
	if b.kind == coreContext {
		p, err := newTexturePresenter()
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return pixelPresenter{}, nil
}

func initGL(kind contextKind) error {
	if kind == coreContext {
		if err := gl.Init(); err != nil {
			return fmt.Errorf("gl init: %w", err)
		}
		gl.Disable(gl.DEPTH_TEST)
		gl.Disable(gl.CULL_FACE)
		gl.Disable(gl.BLEND)
		backdrop.Logger().Info("desktop: gl ready", slog.String("context", kind.String()),
			slog.String("version", gl.GoStr(gl.GetString(gl.VERSION))))
		return nil
	}
	if err := gl21.Init(); err != nil {
		return fmt.Errorf("gl 2.1 init: %w", err)
	}
	gl21.Disable(gl21.DEPTH_TEST)
	backdrop.Logger().Info("desktop: gl ready", slog.String("context", kind.String()),
		slog.String("version", gl21.GoStr(gl21.GetString(gl21.VERSION))))
	return nil
}

// awaitFramebuffer waits until size reports a drawable framebuffer. It
// reports false if the window is closed first.
func awaitFramebuffer(size func() (int, int), wait func(), closed func() bool) (int, int, bool) {
	for {
		w, h := size()
		if w > 0 && h > 0 {
			return w, h, true
		}
		if closed() {
			return 0, 0, false
		}
		wait()
	}
}

// RunDesktop opens the window and renders the backdrop until the window
// is closed or Escape is pressed.
func RunDesktop(cfg Config) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	window, kind, err := initWindow(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := initGL(kind); err != nil {
		return err
	}

	// A window that starts minimised has an empty framebuffer until it is
	// restored; the surface needs a real size.
	fbW, fbH, ok := awaitFramebuffer(window.GetFramebufferSize,
		func() { glfw.WaitEventsTimeout(0.1) }, window.ShouldClose)
	if !ok {
		return nil
	}

	bd := backdrop.New(glBackend{kind: kind}, cfg.Options)
	if err := bd.Open(fbW, fbH, framebufferNotifier{window: window}, cursor{window: window}); err != nil {
		return fmt.Errorf("open backdrop: %w", err)
	}
	defer bd.Close()

	start := glfw.GetTime()
	for !window.ShouldClose() {
		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			// Minimised; nothing to draw into.
			glfw.WaitEventsTimeout(0.1)
			continue
		}

		elapsed := time.Duration((glfw.GetTime() - start) * float64(time.Second))
		bd.Tick(elapsed)
		window.SwapBuffers()
	}

	f := bd.Flags()
	backdrop.Logger().Info("desktop: window closed",
		slog.String("mode", f.Desired.String()),
		slog.String("acquisition", f.Acquisition.String()),
		slog.String("origin", bd.Origin().String()))
	return nil
}
