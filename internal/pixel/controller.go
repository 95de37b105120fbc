// internal/pixel/controller.go
package pixel

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vxkade/uipilot/api/schemas"
	"github.com/vxkade/uipilot/internal/config"
)

// pixelKeys maps the shared key vocabulary, including aliases, to robotgo
// key names.
var pixelKeys = map[string]string{
	"enter":     "enter",
	"return":    "enter",
	"esc":       "esc",
	"escape":    "esc",
	"tab":       "tab",
	"space":     "space",
	"backspace": "backspace",
	"delete":    "delete",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
	"home":      "home",
	"end":       "end",
	"pageup":    "pageup",
	"page_up":   "pageup",
	"pagedown":  "pagedown",
	"page_down": "pagedown",
}

func init() {
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("f%d", i)
		pixelKeys[name] = name
	}
}

// Controller is the pixel backend: it drives whatever is on the primary
// display through screen capture, template matching and synthetic input. It
// has no DOM access, so observed state is OCR text plus sentinels.
type Controller struct {
	id       string
	cfg      config.PixelConfig
	driver   ScreenDriver
	ocr      OCREngine
	resolver *Resolver
	logger   *zap.Logger

	mu          sync.Mutex
	initialized bool
	closed      bool
	closeOnce   sync.Once
}

// NewController wires a pixel backend from its collaborators.
func NewController(driver ScreenDriver, ocr OCREngine, cfg config.PixelConfig, logger *zap.Logger) *Controller {
	id := uuid.New().String()
	l := logger.Named("pixel").With(zap.String("session_id", id))
	return &Controller{
		id:       id,
		cfg:      cfg,
		driver:   driver,
		ocr:      ocr,
		resolver: NewResolver(driver, NewTemplateStore(cfg.TemplateDir), cfg, l),
		logger:   l,
	}
}

// Mode reports description addressing.
func (c *Controller) Mode() schemas.TargetMode { return schemas.ModeDescription }

// Setup verifies the screen is reachable and optionally navigates the
// focused browser to the initial URL.
func (c *Controller) Setup(ctx context.Context, initialURL string) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return fmt.Errorf("controller already initialized")
	}
	c.mu.Unlock()

	if _, err := c.driver.CaptureScreen(); err != nil {
		return fmt.Errorf("screen is not capturable: %w", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.probeWindow()
	c.logger.Info("Pixel control session ready.", zap.String("template_dir", c.cfg.TemplateDir))

	if initialURL != "" {
		if res := c.Navigate(ctx, initialURL); !res.Success {
			return fmt.Errorf("initial navigation failed: %s", res.Error)
		}
	}
	return nil
}

// probeWindow checks whether the focused window looks like a browser. The
// result is advisory only: a failed probe is a logged warning, never an
// error, because the user may be driving any application.
func (c *Controller) probeWindow() {
	title := strings.ToLower(c.driver.ActiveWindowTitle())
	if title == "" {
		c.logger.Warn("Could not read the active window title; cannot confirm a browser is focused.")
		return
	}
	for _, hint := range c.cfg.WindowHints {
		if strings.Contains(title, hint) {
			return
		}
	}
	c.logger.Warn("Active window does not look like a browser.", zap.String("title", title))
}

func (c *Controller) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return schemas.ErrSessionClosed
	}
	if !c.initialized {
		return schemas.ErrNotReady
	}
	return nil
}

// GetCurrentState captures the screen and OCRs it. OCR failure degrades to
// an error string inside the state rather than failing the capture: a
// screenshot with no text is still a usable observation.
func (c *Controller) GetCurrentState(ctx context.Context) (*schemas.ScreenState, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	img, err := c.driver.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}

	state := &schemas.ScreenState{
		URL:   schemas.UnknownURL,
		Title: schemas.UnknownTitle,
	}

	// Keep the raw capture on the state for diagnostics; it is never sent to
	// the translator.
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err == nil {
		state.Screenshot = buf.Bytes()
	}

	text, err := c.ocr.Recognize(img)
	if err != nil {
		c.logger.Warn("OCR failed; continuing with degraded state.", zap.Error(err))
		state.VisibleText = fmt.Sprintf("OCR error: %v", err)
	} else {
		state.VisibleText = text
	}

	c.probeWindow()
	return state, nil
}

// Navigate focuses the browser address bar with the platform chord, replaces
// its content with the URL and submits it. Idempotent with respect to
// whatever the bar held before, thanks to the select-all.
func (c *Controller) Navigate(ctx context.Context, url string) schemas.ExecutionResult {
	if err := c.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	mod := "ctrl"
	if runtime.GOOS == "darwin" {
		mod = "cmd"
	}

	if err := c.driver.TapKey("l", mod); err != nil {
		return schemas.Failure(fmt.Sprintf("focusing address bar failed: %v", err))
	}
	c.settle(ctx, c.cfg.ActionDelay)

	if err := c.driver.TapKey("a", mod); err != nil {
		return schemas.Failure(fmt.Sprintf("selecting address bar content failed: %v", err))
	}
	c.driver.TypeText(url)
	c.settle(ctx, c.cfg.ActionDelay)

	if err := c.driver.TapKey("enter"); err != nil {
		return schemas.Failure(fmt.Sprintf("submitting address bar failed: %v", err))
	}
	c.settle(ctx, c.cfg.LoadDelay)

	return schemas.ExecutionResult{Success: true, URL: url}
}

// Click resolves the described target and clicks its center.
func (c *Controller) Click(ctx context.Context, target string) schemas.ExecutionResult {
	if err := c.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	point, err := c.resolver.Locate(ctx, target)
	if err != nil {
		return schemas.FailureFromErr(err)
	}

	c.driver.MoveMouse(point.X, point.Y)
	c.driver.Click()
	c.settle(ctx, c.cfg.ActionDelay)
	return schemas.ExecutionResult{Success: true, URL: schemas.UnknownURL}
}

// Type clicks the described field to focus it, then streams the text.
func (c *Controller) Type(ctx context.Context, target, text string) schemas.ExecutionResult {
	if err := c.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	point, err := c.resolver.Locate(ctx, target)
	if err != nil {
		return schemas.FailureFromErr(err)
	}

	c.driver.MoveMouse(point.X, point.Y)
	c.driver.Click()
	c.settle(ctx, c.cfg.ActionDelay)
	c.driver.TypeText(text)
	c.settle(ctx, c.cfg.ActionDelay)
	return schemas.ExecutionResult{Success: true, URL: schemas.UnknownURL}
}

// Scroll turns the wheel a fixed number of ticks.
func (c *Controller) Scroll(ctx context.Context, direction schemas.ScrollDirection) schemas.ExecutionResult {
	if err := c.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	c.driver.ScrollWheel(c.cfg.ScrollTicks, string(direction))
	c.settle(ctx, c.cfg.ActionDelay)
	return schemas.ExecutionResult{Success: true, URL: schemas.UnknownURL}
}

// PressKey taps one key from the shared vocabulary.
func (c *Controller) PressKey(ctx context.Context, keyName string) schemas.ExecutionResult {
	if err := c.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	key, ok := pixelKeys[strings.ToLower(strings.TrimSpace(keyName))]
	if !ok {
		return schemas.Failure(fmt.Sprintf("unknown key name: %q", keyName))
	}
	if err := c.driver.TapKey(key); err != nil {
		return schemas.Failure(fmt.Sprintf("press_key '%s' failed: %v", keyName, err))
	}
	c.settle(ctx, c.cfg.ActionDelay)
	return schemas.ExecutionResult{Success: true, URL: schemas.UnknownURL}
}

// settle pauses after an injected input so the UI can react, respecting
// cancellation.
func (c *Controller) settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Close releases the OCR engine. Safe to call any number of times; cleanup
// failures are logged, never raised.
func (c *Controller) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		if err := c.ocr.Close(); err != nil {
			c.logger.Warn("Failed to close OCR engine.", zap.Error(err))
		}
		c.logger.Info("Pixel control session closed.")
	})
	return nil
}
