package backdrop

import "github.com/gogpu/gg"

// RGBA is an 8-bit per channel colour with alpha.
type RGBA struct {
	R, G, B, A uint8
}

// Vec4 returns the colour normalised to [0,1] per channel, as shader
// uniforms expect it.
func (c RGBA) Vec4() [4]float32 {
	return [4]float32{
		float32(c.R) / 255.0,
		float32(c.G) / 255.0,
		float32(c.B) / 255.0,
		float32(c.A) / 255.0,
	}
}

// GG converts the colour for the 2D canvas.
func (c RGBA) GG() gg.RGBA {
	return gg.RGBA2(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// WithAlpha returns c with its alpha replaced.
func (c RGBA) WithAlpha(a uint8) RGBA {
	c.A = a
	return c
}

var Palette = struct {
	Top         RGBA // #89ECEC
	Bottom      RGBA // #f5f5f5
	Grid        RGBA
	RingOuter   RGBA
	RingInner   RGBA
	Line        RGBA
	LoadingWait RGBA
}{
	Top:         RGBA{R: 137, G: 236, B: 236, A: 255},
	Bottom:      RGBA{R: 245, G: 245, B: 245, A: 255},
	Grid:        RGBA{R: 255, G: 100, B: 255, A: 100},
	RingOuter:   RGBA{R: 255, G: 130, B: 230, A: 40},
	RingInner:   RGBA{R: 100, G: 200, B: 255, A: 30},
	Line:        RGBA{R: 255, G: 100, B: 255, A: 255},
	LoadingWait: RGBA{},
}
