package backdrop

import (
	"log/slog"

	"github.com/gogpu/gg"
)

// Canvas is the plain 2D surface: a software gg context presented after
// every procedural frame.
type Canvas struct {
	dc        *gg.Context
	presenter Presenter
	passes    []Pass
}

// NewCanvas creates a width x height canvas drawing the procedural passes.
func NewCanvas(width, height int, p Presenter) *Canvas {
	return &Canvas{
		dc:        gg.NewContext(width, height),
		presenter: p,
		passes:    ProceduralPasses(),
	}
}

// Context exposes the underlying gg context.
func (c *Canvas) Context() *gg.Context { return c.dc }

// Pixmap returns the frame most recently drawn.
func (c *Canvas) Pixmap() *gg.Pixmap { return c.dc.ResizeTarget() }

// Draw runs every pass for time t (seconds) and presents the result.
// Presentation errors are logged; a procedural frame never fails.
func (c *Canvas) Draw(t float64) {
	for _, p := range c.passes {
		p.Draw(c.dc, t)
	}
	if err := c.dc.FlushGPU(); err != nil {
		Logger().Debug("backdrop: flush", slog.Any("err", err))
	}
	if err := c.presenter.Present(c.dc.ResizeTarget()); err != nil {
		Logger().Debug("backdrop: present", slog.Any("err", err))
	}
}

func (c *Canvas) Resize(width, height int) {
	if err := c.dc.Resize(width, height); err != nil {
		Logger().Warn("backdrop: canvas resize", slog.Any("err", err))
	}
}

func (c *Canvas) Close() {
	_ = c.dc.Close()
	c.presenter.Close()
}
