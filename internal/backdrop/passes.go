package backdrop

import (
	"log/slog"
	"math"

	"github.com/gogpu/gg"
)

// Pass is one immediate-mode drawing routine of the procedural fallback.
// Passes read only the canvas size and the elapsed time.
type Pass struct {
	Name string
	Draw func(dc *gg.Context, t float64)
}

// ProceduralPasses returns the fallback passes in drawing order.
func ProceduralPasses() []Pass {
	return []Pass{
		{Name: "gradient", Draw: drawGradient},
		{Name: "grid", Draw: drawGrid},
		{Name: "circles", Draw: drawCircles},
		{Name: "lines", Draw: drawLines},
	}
}

// lerpRGBA interpolates two colours channel by channel, t in [0,1].
func lerpRGBA(a, b RGBA, t float64) RGBA {
	ch := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return RGBA{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: ch(a.A, b.A)}
}

// gradientRow is the background colour of row y on a canvas h rows tall.
func gradientRow(y, h int) RGBA {
	if h <= 1 {
		return Palette.Top
	}
	return lerpRGBA(Palette.Top, Palette.Bottom, float64(y)/float64(h))
}

// drawGradient fills one opaque band per row, so it also clears the
// previous frame. Rows are interpolated in sRGB; gg's gradient brushes
// blend in linear light and would shift the midtones.
func drawGradient(dc *gg.Context, _ float64) {
	w, h := float64(dc.Width()), dc.Height()

	dc.Push()
	defer dc.Pop()
	for y := 0; y < h; y++ {
		dc.SetFillBrush(gg.Solid(gradientRow(y, h).GG()))
		dc.DrawRectangle(0, float64(y), w, 1)
		logDrawErr("gradient", dc.Fill())
	}
}

func setStroke(dc *gg.Context, c RGBA, width float64) {
	dc.SetStrokeBrush(gg.Solid(c.GG()))
	dc.SetLineWidth(width)
}

// logDrawErr reports a failed fill or stroke. A pass keeps drawing after
// one; the frame is still presented.
func logDrawErr(pass string, err error) {
	if err != nil {
		Logger().Debug("backdrop: draw", slog.String("pass", pass), slog.Any("err", err))
	}
}

// gridOffset is how far the grid has scrolled at time t.
func gridOffset(t float64) float64 {
	return floorMod(t*GridSpeed, GridSize)
}

func drawGrid(dc *gg.Context, t float64) {
	w, h := float64(dc.Width()), float64(dc.Height())
	off := gridOffset(t)

	dc.Push()
	defer dc.Pop()
	setStroke(dc, Palette.Grid, 1)
	for y := off; y < h; y += GridSize {
		dc.DrawLine(0, y, w, y)
	}
	for x := off; x < w; x += GridSize {
		dc.DrawLine(x, 0, x, h)
	}
	logDrawErr("grid", dc.Stroke())
}

// ring is one concentric circle pair of the circles pass.
type ring struct {
	X, Y, Diameter float64
}

func ringAt(i int, w, h, t float64) ring {
	fi := float64(i)
	return ring{
		X:        w*0.5 + math.Cos(t*0.2+fi)*w*0.2,
		Y:        h*0.5 + math.Sin(t*0.3+fi)*h*0.2,
		Diameter: w*0.3 + math.Sin(t*0.5+fi)*50,
	}
}

func drawCircles(dc *gg.Context, t float64) {
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.Push()
	defer dc.Pop()
	for i := 0; i < RingCount; i++ {
		r := ringAt(i, w, h, t)
		if r.Diameter <= 0 {
			continue
		}
		setStroke(dc, Palette.RingOuter, 2)
		dc.DrawCircle(r.X, r.Y, r.Diameter/2)
		logDrawErr("circles", dc.Stroke())

		setStroke(dc, Palette.RingInner, 4)
		dc.DrawCircle(r.X, r.Y, r.Diameter*0.8/2)
		logDrawErr("circles", dc.Stroke())
	}
}

// sweepLine is one of the translucent horizontal lines.
type sweepLine struct {
	Y     float64
	Alpha uint8
}

func sweepLineAt(i int, h, t float64) sweepLine {
	fi := float64(i)
	return sweepLine{
		Y:     h*(0.3+fi*0.1) + math.Sin(t+fi)*20,
		Alpha: uint8(math.Round(wave(t*0.5+fi, 100, 200))),
	}
}

func drawLines(dc *gg.Context, t float64) {
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.Push()
	defer dc.Pop()
	for i := 0; i < LineCount; i++ {
		l := sweepLineAt(i, h, t)
		setStroke(dc, Palette.Line.WithAlpha(l.Alpha), 2)
		dc.DrawLine(0, l.Y, w, l.Y)
		logDrawErr("lines", dc.Stroke())
	}
}
