package ui

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"
)

// window is an OpenGL window showing a single texture stretched over a quad.
// All methods must be called on the SDL main thread.
type window struct {
	*sdl.Window
	prog    uint32
	texture uint32
	vao     uint32
	context sdl.GLContext

	texw, texh int32
}

// create opengl window with a full screen texture buffer of size (texw, texh).
// The window is scaled by wscale.
func newWindow(title string, texw, texh, wscale int, vsync bool) (*window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %s", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	winw := int32(texw * wscale)
	winh := int32(texh * wscale)
	w, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		winw, winh,
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %s", err)
	}

	context, err := w.GLCreateContext()
	if err != nil {
		w.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create OpenGL context: %s", err)
	}
	if vsync {
		if err := sdl.GLSetSwapInterval(1); err != nil {
			modUI.WarnZ("Failed to enable vsync").Error("err", err).End()
		}
	} else {
		sdl.GLSetSwapInterval(0)
	}

	win := &window{
		Window:  w,
		context: context,
		texw:    int32(texw),
		texh:    int32(texh),
	}
	if err := win.initGL(); err != nil {
		win.Close()
		return nil, err
	}
	return win, nil
}

func (w *window) initGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize opengl: %s", err)
	}

	gl.GenTextures(1, &w.texture)
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w.texw, w.texh, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	var err error
	w.prog, err = buildProgram(vertexShader, fragmentShader)
	if err != nil {
		return err
	}

	// The quad corners are computed by the vertex shader, yet the core
	// profile requires a bound vertex array to draw anything.
	gl.GenVertexArrays(1, &w.vao)
	gl.ClearColor(0, 0, 0, 1)

	winw, winh := w.GetSize()
	w.resize(winw, winh)
	return nil
}

// draw uploads the RGBA pixels into the texture and presents it.
func (w *window) draw(video []byte) {
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(w.prog)
	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w.texw, w.texh, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(video))
	gl.BindVertexArray(w.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)

	w.GLSwap()
}

// resize letterboxes the picture in a window of the given size, keeping the
// texture aspect ratio.
func (w *window) resize(width, height int32) {
	x, y, vw, vh := letterbox(width, height, w.texw, w.texh)
	gl.Viewport(x, y, vw, vh)
}

func letterbox(width, height, texw, texh int32) (x, y, w, h int32) {
	w, h = width, height
	if width*texh > height*texw {
		w = height * texw / texh
	} else {
		h = width * texh / texw
	}
	return (width - w) / 2, (height - h) / 2, w, h
}

func (w *window) Close() error {
	if w.context != nil {
		sdl.GLDeleteContext(w.context)
	}
	err := w.Destroy()
	sdl.Quit()
	return err
}

// Vertex 0 to 3 are the corners of a triangle strip covering the viewport.
// Row 0 of the frame is at the top.
const vertexShader = `
#version 330 core
out vec2 uv;

void main() {
    vec2 corner = vec2(gl_VertexID & 1, gl_VertexID >> 1);
    uv = vec2(corner.x, 1.0 - corner.y);
    gl_Position = vec4(corner * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const fragmentShader = `
#version 330 core
in vec2 uv;
out vec4 color;

uniform sampler2D frame;

void main() {
    color = texture(frame, uv);
}
` + "\x00"

func buildProgram(vsrc, fsrc string) (uint32, error) {
	vs, err := compileShader(vsrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %s", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(fsrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %s", err)
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	if gl.GetProgramiv(prog, gl.LINK_STATUS, &status); status == gl.FALSE {
		var n int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &n)
		msg := make([]byte, n+1)
		gl.GetProgramInfoLog(prog, n, nil, &msg[0])
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link: %s", msg[:n])
	}
	return prog, nil
}

func compileShader(src string, typ uint32) (uint32, error) {
	sh := gl.CreateShader(typ)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	if gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status); status == gl.FALSE {
		var n int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &n)
		msg := make([]byte, n+1)
		gl.GetShaderInfoLog(sh, n, nil, &msg[0])
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("compile: %s", msg[:n])
	}
	return sh, nil
}
