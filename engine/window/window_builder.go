package window

import "github.com/Carmen-Shannon/oxy-ink/common"

// WindowBuilderOption is a functional option for configuring a window.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size in screen coordinates.
//
// Parameters:
//   - width, height: the window size, ignored when not positive
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

// WithSizeLimits bounds interactive resizing.
//
// Parameters:
//   - minSize: the smallest window size
//   - maxSize: the largest window size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minSize, maxSize common.Vec2Int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minSize, w.maxSize = minSize, maxSize
	}
}
