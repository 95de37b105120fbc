// internal/pixel/helpers_test.go
package pixel

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vxkade/uipilot/internal/config"
)

// fakeDriver scripts captures and records injected input.
type fakeDriver struct {
	mu         sync.Mutex
	frames     []image.Image
	frameIdx   int
	captureErr error
	captures   int

	moves   []image.Point
	clicks  int
	typed   []string
	keys    [][]string
	scrolls []string
	title   string
}

func (d *fakeDriver) CaptureScreen() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	d.captures++
	if len(d.frames) == 0 {
		return blankScreen(200, 150), nil
	}
	frame := d.frames[d.frameIdx]
	if d.frameIdx < len(d.frames)-1 {
		d.frameIdx++
	}
	return frame, nil
}

func (d *fakeDriver) MoveMouse(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moves = append(d.moves, image.Point{X: x, Y: y})
}

func (d *fakeDriver) Click() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks++
}

func (d *fakeDriver) TypeText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typed = append(d.typed, text)
}

func (d *fakeDriver) TapKey(key string, modifiers ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, append([]string{key}, modifiers...))
	return nil
}

func (d *fakeDriver) ScrollWheel(ticks int, direction string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolls = append(d.scrolls, direction)
}

func (d *fakeDriver) ActiveWindowTitle() string { return d.title }

// fakeOCR scripts recognition results.
type fakeOCR struct {
	mu       sync.Mutex
	text     string
	err      error
	closeErr error
	closed   int
}

func (o *fakeOCR) Recognize(img image.Image) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.text, o.err
}

func (o *fakeOCR) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
	return o.closeErr
}

var _ ScreenDriver = (*fakeDriver)(nil)
var _ OCREngine = (*fakeOCR)(nil)

var errCapture = errors.New("display unavailable")

// blankScreen builds a uniform dark raster.
func blankScreen(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return img
}

// screenWithMark builds a raster with a bright block at the given origin.
func screenWithMark(w, h, x, y, size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), color.RGBA{R: 20, G: 20, B: 20, A: 255})
	fill(img, image.Rect(x, y, x+size, y+size), color.RGBA{R: 240, G: 240, B: 240, A: 255})
	return img
}

// markTemplate builds the template matching screenWithMark's block.
func markTemplate(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill(img, img.Bounds(), color.RGBA{R: 240, G: 240, B: 240, A: 255})
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// writeTemplate stores a PNG under the sanitized name for a description.
func writeTemplate(t *testing.T, dir, description string, img image.Image) {
	t.Helper()
	path := filepath.Join(dir, sanitizeKey(description)+".png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func testPixelConfig(dir string) config.PixelConfig {
	return config.PixelConfig{
		TemplateDir:    dir,
		Confidence:     0.8,
		FindTimeout:    80 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		ActionDelay:    0,
		LoadDelay:      0,
		ScrollTicks:    10,
		MatchDownscale: 1,
		WindowHints:    []string{"chrome", "firefox"},
	}
}
