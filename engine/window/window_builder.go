package window

// WindowBuilderOption configures an engineWindow during NewWindow. Options
// only stage values; defaults are resolved after all options run.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the text shown in the window's title bar.
//
// Parameters:
//   - title: the title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the requested framebuffer width. The platform may report a
// different size after creation on high-DPI displays.
//
// Parameters:
//   - width: requested width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the requested framebuffer height. The platform may report
// a different size after creation on high-DPI displays.
//
// Parameters:
//   - height: requested height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}
