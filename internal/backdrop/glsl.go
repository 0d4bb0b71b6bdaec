package backdrop

import (
	"regexp"
	"strings"
)

// Bundled program: GLSL ES 1.00, the dialect the remote pair is written in.
// aPosition spans the unit square; the vertex stage maps it to clip space.
const bundledVertSrc = `
precision mediump float;
attribute vec3 aPosition;

void main() {
  vec4 positionVec4 = vec4(aPosition, 1.0);
  positionVec4.xy = positionVec4.xy * 2.0 - 1.0;
  gl_Position = positionVec4;
}
`

const bundledFragSrc = `
precision mediump float;

uniform vec2 u_resolution;
uniform vec2 u_mouse;
uniform float u_time;
uniform vec4 u_col1;
uniform vec4 u_col2;

void main() {
  vec2 uv = gl_FragCoord.xy / u_resolution.xy;

  float time = u_time * 0.5;

  vec3 bg = mix(u_col1.rgb, u_col2.rgb, uv.y);

  vec2 grid = fract(uv * 10.0 - vec2(time * 0.1));
  float gridLine = smoothstep(0.05, 0.0, abs(grid.x - 0.5)) +
                  smoothstep(0.05, 0.0, abs(grid.y - 0.5));

  float wave = sin(uv.x * 10.0 + time) * sin(uv.y * 10.0 + time) * 0.1;

  float mouseEffect = smoothstep(0.3, 0.0, length(uv - u_mouse));

  vec3 finalColor = bg;
  finalColor += vec3(0.9, 0.7, 0.9) * gridLine * 0.3;
  finalColor += wave;
  finalColor += vec3(0.7, 0.9, 1.0) * mouseEffect * 0.5;

  gl_FragColor = vec4(finalColor, 1.0);
}
`

// BundledSource is the program used when the remote pair is unavailable.
var BundledSource = Source{Vertex: bundledVertSrc, Fragment: bundledFragSrc}

// Uniform names shared by the bundled and remote programs.
const (
	UniformResolution = "u_resolution"
	UniformMouse      = "u_mouse"
	UniformTime       = "u_time"
	UniformCol1       = "u_col1"
	UniformCol2       = "u_col2"
)

// PositionAttrib is bound to vertex attribute 0 before linking.
const PositionAttrib = "aPosition"

type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

// FragColorOut replaces gl_FragColor in upgraded fragment stages.
const FragColorOut = "fragColor_"

var (
	versionRe     = regexp.MustCompile(`(?m)^\s*#\s*version\b`)
	attributeRe   = regexp.MustCompile(`\battribute\b`)
	varyingRe     = regexp.MustCompile(`\bvarying\b`)
	fragColorRe   = regexp.MustCompile(`\bgl_FragColor\b`)
	texture2DRe   = regexp.MustCompile(`\btexture2D\b`)
	textureCubeRe = regexp.MustCompile(`\btextureCube\b`)
)

// UpgradeGLSL rewrites version-less GLSL ES 1.00 for a desktop 4.1 core
// context. Sources that declare a #version are returned unchanged.
func UpgradeGLSL(stage Stage, src string) string {
	if versionRe.MatchString(src) {
		return src
	}

	var b strings.Builder
	b.WriteString("#version 410 core\n")
	switch stage {
	case VertexStage:
		src = attributeRe.ReplaceAllString(src, "in")
		src = varyingRe.ReplaceAllString(src, "out")
	case FragmentStage:
		src = varyingRe.ReplaceAllString(src, "in")
		src = fragColorRe.ReplaceAllString(src, FragColorOut)
		b.WriteString("out vec4 " + FragColorOut + ";\n")
	}
	src = texture2DRe.ReplaceAllString(src, "texture")
	src = textureCubeRe.ReplaceAllString(src, "texture")
	b.WriteString(src)
	return b.String()
}
