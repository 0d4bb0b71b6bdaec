package backdrop

import (
	"fmt"
	"log/slog"
	"time"
)

// Uniforms is the per-frame input bundle handed to the program.
type Uniforms struct {
	Resolution [2]float32
	Mouse      [2]float32 // normalised, [0,1]
	Time       float32    // seconds
	Col1       [4]float32
	Col2       [4]float32
}

// Snapshot builds the uniforms for a width x height surface with the
// pointer at (px, py) surface pixels and t seconds elapsed.
func Snapshot(width, height int, px, py, t float64) Uniforms {
	u := Uniforms{
		Resolution: [2]float32{float32(width), float32(height)},
		Time:       float32(t),
		Col1:       Palette.Top.Vec4(),
		Col2:       Palette.Bottom.Vec4(),
		Mouse:      [2]float32{0.5, 0.5},
	}
	if width > 0 && height > 0 {
		u.Mouse[0] = float32(clampF(px/float64(width), 0, 1))
		u.Mouse[1] = float32(clampF(py/float64(height), 0, 1))
	}
	return u
}

func cursor(p Pointer, width, height int) (float64, float64) {
	if p == nil {
		return float64(width) / 2, float64(height) / 2
	}
	return p.Cursor()
}

// drawAccelerated draws one frame with the active program. A panicking
// device is reported as an error like any other draw failure.
func drawAccelerated(dev Device, p Program, u Uniforms) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("draw panicked: %v", r)
		}
	}()

	dev.Clear()
	if err := dev.Use(p); err != nil {
		return fmt.Errorf("use program: %w", err)
	}
	if err := dev.SetUniforms(p, u); err != nil {
		return fmt.Errorf("set uniforms: %w", err)
	}
	if err := dev.DrawQuad(); err != nil {
		return fmt.Errorf("draw quad: %w", err)
	}
	return nil
}

// renderFrame draws one tick. Rules, first match wins:
//  1. program loaded and usable: draw it; on failure fall back for good
//     and draw procedurally in this same tick
//  2. still loading past the deadline: build the local program now and
//     draw it from the next tick
//  3. still loading: leave the surface blank
//  4. otherwise: procedural passes
//
// Errors never escape.
func renderFrame(s *Surface, st *State, acq *Acquirer, ptr Pointer, elapsed time.Duration) {
	t := elapsed.Seconds()
	w, h := s.Size()

	switch {
	case st.Drawable() && s.Device() != nil:
		px, py := cursor(ptr, w, h)
		err := drawAccelerated(s.Device(), st.Program, Snapshot(w, h, px, py, t))
		if err == nil {
			return
		}
		if p := st.MarkErrored(err); p != 0 {
			s.Device().Release(p)
		}
		s.Downgrade()

	case st.Accelerating() && st.Acquisition != Loaded:
		if elapsed > acq.opts.AcquireTimeout {
			if acq.ForceLocal(elapsed) {
				return
			}
			break
		}
		if dev := s.Device(); dev != nil {
			dev.Clear()
		}
		return
	}

	drawProcedural(s, st, t)
}

func drawProcedural(s *Surface, st *State, t float64) {
	if st.Desired != Procedural {
		st.FallBack("no usable program", nil)
	}
	if s.Canvas() == nil {
		s.Downgrade()
	}
	c := s.Canvas()
	if c == nil {
		return
	}
	c.Draw(t)
	Logger().Debug("backdrop: procedural frame", slog.Float64("t", t))
}
