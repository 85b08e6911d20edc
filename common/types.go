// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Viewport describes the screen-space rectangle and depth range a view renders into.
// Coordinates are in pixels with the origin at the top-left of the target surface.
type Viewport struct {
	// X and Y are the top-left corner of the viewport in pixels.
	X, Y float32

	// Width and Height are the viewport dimensions in pixels.
	Width, Height float32

	// MinDepth and MaxDepth define the depth range mapped by the viewport.
	// Typical values are 0.0 and 1.0.
	MinDepth, MaxDepth float32
}

// Empty reports whether the viewport covers no pixels.
//
// Returns:
//   - bool: true if either dimension is zero or negative
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Aspect returns the viewport's width-to-height ratio, or 1 when the
// viewport is empty.
//
// Returns:
//   - float32: the aspect ratio
func (v Viewport) Aspect() float32 {
	if v.Empty() {
		return 1
	}
	return v.Width / v.Height
}

// Region returns the integer pixel rectangle covered by the viewport.
//
// Returns:
//   - Region: the viewport rounded to whole pixels
func (v Viewport) Region() Region {
	return Region{
		X:      int32(v.X),
		Y:      int32(v.Y),
		Width:  uint32(max(v.Width, 0)),
		Height: uint32(max(v.Height, 0)),
	}
}

// Region is an integer pixel rectangle. It identifies destination areas on a
// render target, such as the backbuffer area a view's output composites into.
type Region struct {
	// X and Y are the top-left corner in pixels.
	X, Y int32

	// Width and Height are the rectangle dimensions in pixels.
	Width, Height uint32
}

// Empty reports whether the region covers no pixels.
//
// Returns:
//   - bool: true if either dimension is zero
func (r Region) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Contains reports whether the pixel at (x, y) lies inside the region.
//
// Parameters:
//   - x, y: pixel coordinates to test
//
// Returns:
//   - bool: true if the pixel is inside the region
func (r Region) Contains(x, y int32) bool {
	return x >= r.X && y >= r.Y &&
		x < r.X+int32(r.Width) && y < r.Y+int32(r.Height)
}

// Color is an RGBA color with channels in the [0, 1] range.
// Channels are float64 to match the GPU backend's clear-value type.
type Color struct {
	R, G, B, A float64
}

// DefaultClearColor is the dark grey used when clearing render targets that
// have no explicit clear color configured.
var DefaultClearColor = Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0}
