package desktop

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/B06o/muse-greet/internal/backdrop"
)

// Blit shaders: draw the software canvas as a full-window textured quad.
// The canvas stores its top row first, so v is flipped.
const blitVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos; // 0..1 quad vertex

out vec2 vUV;

void main() {
    vUV = vec2(aPos.x, 1.0 - aPos.y);
    gl_Position = vec4(aPos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const blitFragSrc = `#version 410 core

uniform sampler2D uTex;

in vec2 vUV;
out vec4 FragColor;

void main() {
    FragColor = texture(uTex, vUV);
}
` + "\x00"

// stageName labels a shader type in errors.
func stageName(shaderType uint32) string {
	switch shaderType {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	default:
		return fmt.Sprintf("shader 0x%04x", shaderType)
	}
}

// infoLogError turns a driver info log into an error. Drivers pad the log
// with NULs and trailing newlines, and some leave it empty.
func infoLogError(op string, raw []byte) error {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return fmt.Errorf("%s: no info log", op)
	}
	return fmt.Errorf("%s: %s", op, msg)
}

// infoLog reads a shader or program log of n bytes through get.
func infoLog(n int32, get func(size int32, buf *uint8)) []byte {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n+1)
	get(n, &buf[0])
	return buf
}

// compileShader compiles one NUL-terminated stage. A failed shader is
// deleted before returning.
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var ok int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &ok)
	if ok != gl.FALSE {
		return shader, nil
	}
	var n int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
	raw := infoLog(n, func(size int32, buf *uint8) { gl.GetShaderInfoLog(shader, size, nil, buf) })
	gl.DeleteShader(shader)
	return 0, infoLogError("compile "+stageName(shaderType), raw)
}

// linkProgram builds a program from NUL-terminated sources. Attribute 0
// is bound to aPosition before linking, for sources that do not pin it
// with a layout qualifier.
func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.BindAttribLocation(program, 0, gl.Str(backdrop.PositionAttrib+"\x00"))
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok != gl.FALSE {
		return program, nil
	}
	var n int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
	raw := infoLog(n, func(size int32, buf *uint8) { gl.GetProgramInfoLog(program, size, nil, buf) })
	gl.DeleteProgram(program)
	return 0, infoLogError("link program", raw)
}

// linkSource upgrades an ES 1.00 pair for the core context and links it.
func linkSource(src backdrop.Source) (uint32, error) {
	vert := backdrop.UpgradeGLSL(backdrop.VertexStage, src.Vertex) + "\x00"
	frag := backdrop.UpgradeGLSL(backdrop.FragmentStage, src.Fragment) + "\x00"
	return linkProgram(vert, frag)
}

// checkGLError drains the GL error queue and reports the first error.
func checkGLError(op string) error {
	first := uint32(gl.NO_ERROR)
	for i := 0; i < 8; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == gl.NO_ERROR {
			first = code
		}
	}
	if first != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%04x", op, first)
	}
	return nil
}
