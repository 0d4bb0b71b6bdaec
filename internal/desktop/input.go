package desktop

import "github.com/go-gl/glfw/v3.3/glfw"

// cursor samples the pointer in framebuffer pixels, which is the space
// the backdrop surface is sized in.
type cursor struct {
	window *glfw.Window
}

func (c cursor) Cursor() (float64, float64) {
	cx, cy := c.window.GetCursorPos()
	winW, winH := c.window.GetSize()
	fbW, fbH := c.window.GetFramebufferSize()
	if winW <= 0 || winH <= 0 {
		return float64(fbW) * 0.5, float64(fbH) * 0.5
	}
	scaleX := float64(fbW) / float64(winW)
	scaleY := float64(fbH) / float64(winH)
	return cx * scaleX, cy * scaleY
}

// framebufferNotifier forwards framebuffer size changes. glfw keeps one
// callback per window, so release clears it.
type framebufferNotifier struct {
	window *glfw.Window
}

func (n framebufferNotifier) OnResize(fn func(width, height int)) func() {
	n.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		fn(width, height)
	})
	return func() { n.window.SetFramebufferSizeCallback(nil) }
}
