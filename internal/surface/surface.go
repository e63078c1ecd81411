// Package surface defines the capability interface the action executor drives:
// the pointer, the keyboard, the raster and the shell of whatever is being controlled.
package surface

import (
	"image"
	"time"
)

// Surface is the OS-level (or browser-level) input and display subsystem.
//
// Coordinates are absolute surface pixels and are passed through unvalidated;
// each implementation decides what out-of-range values do.
type Surface interface {
	// MoveMouse moves the pointer to (x, y). A non-zero duration animates the move.
	MoveMouse(x, y int, duration time.Duration) error
	// MouseDown presses and holds the primary button at (x, y).
	MouseDown(x, y int) error
	// MouseUp releases the primary button at (x, y).
	MouseUp(x, y int) error
	// Click performs a single primary click at (x, y).
	Click(x, y int) error

	// KeyPress presses and releases a single key token.
	KeyPress(token string) error
	// KeyChord presses every token in order and releases them in reverse order.
	KeyChord(tokens []string) error
	// TypeRune types one character of text.
	TypeRune(r rune) error

	// Scroll scrolls vertically; positive amounts scroll up.
	Scroll(amount int) error
	// HScroll scrolls horizontally; positive amounts scroll left.
	HScroll(amount int) error

	// Capture returns the current raster of the surface.
	Capture() (image.Image, error)
	// ScreenSize queries the live surface dimensions.
	ScreenSize() (width, height int, err error)

	// OpenURL hands url to the shell. It does not wait for the page to load.
	OpenURL(url string) error

	Close() error
}

// HistoryNavigator is implemented by surfaces whose history cannot be driven by
// synthesized key events (e.g. a browser page, where shortcuts never reach the chrome).
type HistoryNavigator interface {
	Back() error
	Forward() error
}

// SelectAller is implemented by surfaces where a synthesized select-all chord
// does not reach the editing command, e.g. Chromium on macOS. SelectAll selects
// the whole content of the focused element.
type SelectAller interface {
	SelectAll() error
}

// FailSafeDisabler is implemented by surfaces that abort input when the pointer
// reaches a trigger zone. The executor disables it once at construction.
type FailSafeDisabler interface {
	DisableFailSafe()
}
