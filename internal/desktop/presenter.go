package desktop

import (
	"fmt"

	gl21 "github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gogpu/gg"
)

// texturePresenter shows the software canvas on a core context by
// uploading it into a texture and drawing a full-window quad.
type texturePresenter struct {
	prog uint32
	uTex int32
	vao  uint32
	vbo  uint32
	tex  uint32
	texW int
	texH int
}

func newTexturePresenter() (*texturePresenter, error) {
	prog, err := linkProgram(blitVertSrc, blitFragSrc)
	if err != nil {
		return nil, fmt.Errorf("blit program: %w", err)
	}
	p := &texturePresenter{prog: prog}

	gl.UseProgram(prog)
	p.uTex = gl.GetUniformLocation(prog, gl.Str("uTex\x00"))
	gl.Uniform1i(p.uTex, 0)
	gl.UseProgram(0)

	gl.GenVertexArrays(1, &p.vao)
	gl.GenBuffers(1, &p.vbo)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	quadVerts := [12]float32{
		0, 0, 1, 0, 1, 1,
		0, 0, 1, 1, 0, 1,
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVerts)*4, gl.Ptr(&quadVerts[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, glOffset(0))
	gl.BindVertexArray(0)

	gl.GenTextures(1, &p.tex)
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if err := checkGLError("blit setup"); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *texturePresenter) Present(pm *gg.Pixmap) error {
	w, h := pm.Width(), pm.Height()
	data := pm.Data()
	if w <= 0 || h <= 0 || len(data) < w*h*4 {
		return fmt.Errorf("present: bad pixmap %dx%d", w, h)
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if w != p.texW || h != p.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&data[0]))
		p.texW, p.texH = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&data[0]))
	}

	gl.Viewport(0, 0, int32(w), int32(h))
	gl.UseProgram(p.prog)
	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	return checkGLError("present")
}

func (p *texturePresenter) Close() {
	if p.tex != 0 {
		gl.DeleteTextures(1, &p.tex)
		p.tex = 0
	}
	if p.vbo != 0 {
		gl.DeleteBuffers(1, &p.vbo)
		p.vbo = 0
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
}

// pixelPresenter shows the software canvas on a legacy context with
// glDrawPixels, drawing rows top-down from the upper-left corner.
type pixelPresenter struct{}

func (pixelPresenter) Present(pm *gg.Pixmap) error {
	w, h := pm.Width(), pm.Height()
	data := pm.Data()
	if w <= 0 || h <= 0 || len(data) < w*h*4 {
		return fmt.Errorf("present: bad pixmap %dx%d", w, h)
	}

	gl21.Viewport(0, 0, int32(w), int32(h))
	gl21.Clear(gl21.COLOR_BUFFER_BIT)
	gl21.PixelStorei(gl21.UNPACK_ALIGNMENT, 1)
	gl21.WindowPos2i(0, int32(h))
	gl21.PixelZoom(1, -1)
	gl21.DrawPixels(int32(w), int32(h), gl21.RGBA, gl21.UNSIGNED_BYTE, gl21.Ptr(&data[0]))
	if code := gl21.GetError(); code != gl21.NO_ERROR {
		return fmt.Errorf("draw pixels: gl error 0x%04x", code)
	}
	return nil
}

func (pixelPresenter) Close() {}
