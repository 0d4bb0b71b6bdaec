package backdrop

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gg"
)

// ErrClosed is returned by operations on a closed surface.
var ErrClosed = errors.New("backdrop: surface closed")

// Device is the accelerated drawing surface. Programs it compiles belong
// to it and are deleted by Release or Close.
type Device interface {
	Compile(src Source) (Program, error)
	Release(p Program)
	Clear()
	Use(p Program) error
	SetUniforms(p Program, u Uniforms) error
	DrawQuad() error
	Resize(width, height int)
	Close()
}

// Presenter shows a software-rendered frame.
type Presenter interface {
	Present(pm *gg.Pixmap) error
	Close()
}

// Backend creates the surfaces a backdrop renders into.
type Backend interface {
	OpenDevice(width, height int) (Device, error)
	OpenPresenter(width, height int) (Presenter, error)
}

// ResizeNotifier delivers viewport size changes. The returned func
// unregisters fn.
type ResizeNotifier interface {
	OnResize(fn func(width, height int)) (release func())
}

// Pointer samples the cursor in surface pixel space.
type Pointer interface {
	Cursor() (x, y float64)
}

type discardPresenter struct{}

func (discardPresenter) Present(*gg.Pixmap) error { return nil }
func (discardPresenter) Close()                   {}

// Surface owns the one drawing surface: the accelerated device, or the 2D
// canvas once the backdrop has fallen back.
type Surface struct {
	backend Backend
	width   int
	height  int

	device Device
	canvas *Canvas

	release func()
	closed  bool
}

// OpenSurface creates the surface, preferring the accelerated device. When
// the device cannot be created a 2D canvas is used instead; check
// Accelerated.
func OpenSurface(backend Backend, width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	s := &Surface{backend: backend, width: width, height: height}

	dev, err := backend.OpenDevice(width, height)
	if err != nil {
		Logger().Warn("backdrop: accelerated surface unavailable", slog.Any("err", err))
		s.openCanvas()
		return s, nil
	}
	s.device = dev
	Logger().Info("backdrop: accelerated surface created", slog.Int("width", width), slog.Int("height", height))
	return s, nil
}

func (s *Surface) openCanvas() {
	p, err := s.backend.OpenPresenter(s.width, s.height)
	if err != nil {
		Logger().Warn("backdrop: no presenter, frames are discarded", slog.Any("err", err))
		p = discardPresenter{}
	}
	s.canvas = NewCanvas(s.width, s.height, p)
}

// Accelerated reports whether the surface is backed by the device.
func (s *Surface) Accelerated() bool { return s.device != nil }

// Device returns the accelerated device, or nil.
func (s *Surface) Device() Device { return s.device }

// Canvas returns the 2D canvas, or nil while accelerated.
func (s *Surface) Canvas() *Canvas { return s.canvas }

func (s *Surface) Size() (int, int) { return s.width, s.height }

// Downgrade replaces the device with a 2D canvas. It is a no-op when the
// surface is already 2D or closed.
func (s *Surface) Downgrade() {
	if s.closed || s.device == nil {
		return
	}
	s.device.Close()
	s.device = nil
	s.openCanvas()
	Logger().Info("backdrop: surface recreated as 2D canvas")
}

// Resize changes the surface size, keeping the current mode and any
// compiled program. Non-positive sizes (minimised windows) are ignored.
func (s *Surface) Resize(width, height int) {
	if s.closed || width <= 0 || height <= 0 {
		return
	}
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	if s.device != nil {
		s.device.Resize(width, height)
	}
	if s.canvas != nil {
		s.canvas.Resize(width, height)
	}
	Logger().Debug("backdrop: surface resized", slog.Int("width", width), slog.Int("height", height))
}

// Watch subscribes the surface to n. The subscription is released by Close.
func (s *Surface) Watch(n ResizeNotifier) error {
	if s.closed {
		return ErrClosed
	}
	if s.release != nil {
		s.release()
	}
	s.release = n.OnResize(s.Resize)
	return nil
}

// Close releases the resize listener and the device or canvas. It is
// idempotent.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.release != nil {
		s.release()
		s.release = nil
	}
	if s.device != nil {
		s.device.Close()
		s.device = nil
	}
	if s.canvas != nil {
		s.canvas.Close()
		s.canvas = nil
	}
}
