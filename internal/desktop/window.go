package desktop

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/B06o/muse-greet/internal/backdrop"
)

// contextKind is the kind of GL context the window ended up with.
type contextKind int

const (
	coreContext   contextKind = iota // 4.1 core: shader programs and texture blits
	legacyContext                    // whatever the driver offers by default, 2D only
)

func (k contextKind) String() string {
	if k == coreContext {
		return "core 4.1"
	}
	return "legacy"
}

func initWindow(width, height int, title string) (*glfw.Window, contextKind, error) {
	if err := glfw.Init(); err != nil {
		return nil, 0, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Decorated, glfw.True)

	kind := coreContext
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		backdrop.Logger().Warn("desktop: core context unavailable, retrying with defaults", slog.Any("err", err))

		glfw.DefaultWindowHints()
		glfw.WindowHint(glfw.Resizable, glfw.True)
		kind = legacyContext
		window, err = glfw.CreateWindow(width, height, title, nil, nil)
		if err != nil {
			glfw.Terminate()
			return nil, 0, fmt.Errorf("create window: %w", err)
		}
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	return window, kind, nil
}
