package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW-backed platform state behind engineWindow.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool
}

// platformState returns the GLFW state, or nil before newPlatformWindow ran.
func platformState(w *engineWindow) *glfwWindow {
	if w.internalWindow == nil {
		return nil
	}
	return w.internalWindow.(*glfwWindow)
}

// newPlatformWindow initializes GLFW and creates the native window. GLFW
// requires all window calls on the same OS thread, so the calling goroutine
// is locked here and the engine keeps event polling on it.
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU owns the graphics API; no OpenGL context wanted.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		running: true,
	}
	w.internalWindow = gw

	// Resize tracking uses the framebuffer size, not the window size: the
	// surface configuration needs pixel dimensions, and the two differ on
	// high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformGetSurfaceDescriptor builds a wgpu.SurfaceDescriptor for the
// native window via the wgpuglfw bridge, which selects the right handle
// type per platform (HWND, Xlib, Wayland, Metal layer).
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	gw := platformState(w)
	if gw == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// platformIsRunningCheck reports whether the window is still open. A nil
// platform state, a cleared running flag, or a GLFW close request all count
// as stopped.
func platformIsRunningCheck(w *engineWindow) bool {
	gw := platformState(w)
	if gw == nil {
		return false
	}
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the native window and shuts GLFW down.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window was never initialized
func platformCloseWindow(w *engineWindow) error {
	gw := platformState(w)
	if gw == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls pending GLFW events without blocking and
// reports whether the window survived the poll.
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
