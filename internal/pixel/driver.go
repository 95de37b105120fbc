// internal/pixel/driver.go
package pixel

import (
	"errors"
	"image"
)

// Sentinels for the two recoverable target-resolution failures. A missing
// template means the description has no registered image; an unresolved
// target means the image never appeared on screen within the timeout.
var (
	ErrTemplateMissing = errors.New("no template image registered for target description")
	ErrTargetNotFound  = errors.New("target not found on screen")
)

// ScreenDriver abstracts raw screen access and input injection so the
// backend logic stays testable without a display server.
type ScreenDriver interface {
	// CaptureScreen grabs the primary display.
	CaptureScreen() (image.Image, error)

	MoveMouse(x, y int)
	Click()
	// TypeText injects a literal character stream.
	TypeText(text string)
	// TapKey presses one key with optional modifiers ("ctrl", "cmd", "shift").
	TapKey(key string, modifiers ...string) error
	// ScrollWheel scrolls by the given tick count in "up" or "down".
	ScrollWheel(ticks int, direction string)

	// ActiveWindowTitle reports the focused window's title, best effort.
	// An empty string means the probe failed.
	ActiveWindowTitle() string
}

// OCREngine turns a captured raster into text.
type OCREngine interface {
	Recognize(img image.Image) (string, error)
	Close() error
}
