package desktop

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/B06o/muse-greet/internal/backdrop"
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// program is a linked backdrop program with its uniform locations looked
// up once. A location of -1 means the program does not use that uniform.
type program struct {
	id          uint32
	uResolution int32
	uMouse      int32
	uTime       int32
	uCol1       int32
	uCol2       int32
}

func newProgram(id uint32) *program {
	loc := func(name string) int32 {
		l := gl.GetUniformLocation(id, gl.Str(name+"\x00"))
		if l < 0 {
			backdrop.Logger().Debug("desktop: uniform not used by program", slog.String("uniform", name))
		}
		return l
	}
	return &program{
		id:          id,
		uResolution: loc(backdrop.UniformResolution),
		uMouse:      loc(backdrop.UniformMouse),
		uTime:       loc(backdrop.UniformTime),
		uCol1:       loc(backdrop.UniformCol1),
		uCol2:       loc(backdrop.UniformCol2),
	}
}

// device is the accelerated surface on a core 4.1 context: one unit quad
// and the programs compiled for it.
type device struct {
	vao, vbo uint32
	width    int32
	height   int32
	programs map[backdrop.Program]*program
}

func newDevice(width, height int) (*device, error) {
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)

	// Unit quad (6 vertices, 2 triangles); the vertex stage maps 0..1 to clip space.
	quadVerts := [18]float32{
		0, 0, 0, 1, 0, 0, 1, 1, 0,
		0, 0, 0, 1, 1, 0, 0, 1, 0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVerts)*4, gl.Ptr(&quadVerts[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, glOffset(0))
	gl.BindVertexArray(0)

	d := &device{
		vao:      vao,
		vbo:      vbo,
		width:    int32(width),
		height:   int32(height),
		programs: make(map[backdrop.Program]*program),
	}
	if err := checkGLError("quad setup"); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *device) Compile(src backdrop.Source) (backdrop.Program, error) {
	id, err := linkSource(src)
	if err != nil {
		return 0, err
	}
	p := newProgram(id)
	d.programs[backdrop.Program(id)] = p
	backdrop.Logger().Debug("desktop: program linked", slog.Uint64("id", uint64(id)))
	return backdrop.Program(id), nil
}

func (d *device) Release(h backdrop.Program) {
	p, ok := d.programs[h]
	if !ok {
		return
	}
	gl.DeleteProgram(p.id)
	delete(d.programs, h)
}

func (d *device) Clear() {
	c := backdrop.Palette.LoadingWait.Vec4()
	gl.Viewport(0, 0, d.width, d.height)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *device) lookup(h backdrop.Program) (*program, error) {
	p, ok := d.programs[h]
	if !ok {
		return nil, fmt.Errorf("unknown program %d", h)
	}
	return p, nil
}

func (d *device) Use(h backdrop.Program) error {
	p, err := d.lookup(h)
	if err != nil {
		return err
	}
	gl.UseProgram(p.id)
	return checkGLError("use program")
}

func (d *device) SetUniforms(h backdrop.Program, u backdrop.Uniforms) error {
	p, err := d.lookup(h)
	if err != nil {
		return err
	}
	gl.Uniform2f(p.uResolution, u.Resolution[0], u.Resolution[1])
	gl.Uniform2f(p.uMouse, u.Mouse[0], u.Mouse[1])
	gl.Uniform1f(p.uTime, u.Time)
	gl.Uniform4f(p.uCol1, u.Col1[0], u.Col1[1], u.Col1[2], u.Col1[3])
	gl.Uniform4f(p.uCol2, u.Col2[0], u.Col2[1], u.Col2[2], u.Col2[3])
	return checkGLError("set uniforms")
}

func (d *device) DrawQuad() error {
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	return checkGLError("draw quad")
}

func (d *device) Resize(width, height int) {
	d.width, d.height = int32(width), int32(height)
}

func (d *device) Close() {
	for h, p := range d.programs {
		gl.DeleteProgram(p.id)
		delete(d.programs, h)
	}
	if d.vbo != 0 {
		gl.DeleteBuffers(1, &d.vbo)
		d.vbo = 0
	}
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	gl.UseProgram(0)
}
