// internal/pixel/robotgo.go
package pixel

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

// RobotDriver is the production ScreenDriver: kbinani/screenshot for
// capture, robotgo for input injection and the window probe.
type RobotDriver struct{}

// NewRobotDriver returns a driver for the primary display.
func NewRobotDriver() (*RobotDriver, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays detected")
	}
	return &RobotDriver{}, nil
}

func (d *RobotDriver) CaptureScreen() (image.Image, error) {
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("capturing display 0: %w", err)
	}
	return img, nil
}

func (d *RobotDriver) MoveMouse(x, y int) {
	robotgo.Move(x, y)
}

func (d *RobotDriver) Click() {
	robotgo.Click("left", false)
}

func (d *RobotDriver) TypeText(text string) {
	robotgo.TypeStr(text)
}

func (d *RobotDriver) TapKey(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (d *RobotDriver) ScrollWheel(ticks int, direction string) {
	robotgo.ScrollDir(ticks, direction)
}

func (d *RobotDriver) ActiveWindowTitle() string {
	return robotgo.GetTitle()
}
