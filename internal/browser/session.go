// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vxkade/uipilot/api/schemas"
	"github.com/vxkade/uipilot/internal/config"
)

const closeTimeout = 15 * time.Second

// Session is the structural backend: one Chrome instance driven over CDP,
// addressing targets by CSS selector.
type Session struct {
	id     string
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	harvester *Harvester

	// exec runs chromedp actions against the session. Production wiring is
	// Session.run; tests swap in a scripted executor.
	exec func(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error

	mu          sync.Mutex
	initialized bool
	closed      bool
	closeOnce   sync.Once
}

// NewSession creates an unstarted structural backend.
func NewSession(cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.New().String()
	l := logger.Named("browser").With(zap.String("session_id", id))
	s := &Session{
		id:        id,
		cfg:       cfg,
		logger:    l,
		harvester: NewHarvester(l, cfg.ProbeTimeout, cfg.MaxElements),
	}
	s.exec = s.run
	return s
}

// Mode reports selector addressing.
func (s *Session) Mode() schemas.TargetMode { return schemas.ModeSelector }

// Setup launches the browser and optionally performs the initial navigation.
func (s *Session) Setup(ctx context.Context, initialURL string) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return fmt.Errorf("session already initialized")
	}
	s.mu.Unlock()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !s.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if s.cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range s.cfg.Args {
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
	}

	// The allocator outlives the Setup call; its lifetime ends at Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s.mu.Lock()
	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.mu.Unlock()

	// An empty Run starts the browser process.
	if err := s.exec(ctx, s.cfg.NavigationTimeout); err != nil {
		s.Close(context.Background())
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	s.logger.Info("Browser session ready.", zap.Bool("headless", s.cfg.Headless))

	if initialURL != "" {
		if res := s.Navigate(ctx, initialURL); !res.Success {
			s.Close(context.Background())
			return fmt.Errorf("initial navigation failed: %s", res.Error)
		}
	}
	return nil
}

// ready reports whether operations may run, mapping the lifecycle state to
// the matching sentinel.
func (s *Session) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return schemas.ErrSessionClosed
	}
	if !s.initialized {
		return schemas.ErrNotReady
	}
	return nil
}

// run executes chromedp actions against the session under a deadline,
// honoring cancellation of the caller's context as well.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// GetCurrentState captures URL, title and the visible interactive elements.
// A closed page degrades to the sentinel URL instead of an error so the
// orchestrator can short-circuit cleanly.
func (s *Session) GetCurrentState(ctx context.Context) (*schemas.ScreenState, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.browserCtx.Err() != nil {
		return &schemas.ScreenState{URL: schemas.ClosedPageURL}, nil
	}

	state := &schemas.ScreenState{}
	err := s.exec(ctx, s.cfg.NavigationTimeout,
		chromedp.Location(&state.URL),
		chromedp.Title(&state.Title),
		chromedp.ActionFunc(func(c context.Context) error {
			state.Elements = s.harvester.Collect(c)
			return nil
		}),
	)
	if err != nil {
		if s.browserCtx.Err() != nil {
			return &schemas.ScreenState{URL: schemas.ClosedPageURL}, nil
		}
		return nil, fmt.Errorf("failed to capture page state: %w", err)
	}

	s.logger.Debug("Captured page state.",
		zap.String("url", state.URL),
		zap.Int("elements", len(state.Elements)),
	)
	return state, nil
}

// Navigate loads the URL and waits for the document to become ready. One
// attempt only; a failed navigation is reported, not retried.
func (s *Session) Navigate(ctx context.Context, url string) schemas.ExecutionResult {
	if err := s.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	err := s.exec(ctx, s.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return schemas.Failure(fmt.Sprintf("navigation to %s failed: %v", url, err))
	}
	return schemas.ExecutionResult{Success: true, URL: s.currentURL(ctx)}
}

// Click waits for the target to become visible, scrolls it into view and
// clicks it. If that fails, a JS click is attempted against the attached
// element; a double failure reports both causes.
func (s *Session) Click(ctx context.Context, target string) schemas.ExecutionResult {
	if err := s.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	primaryErr := s.exec(ctx, s.cfg.ElementTimeout,
		chromedp.WaitVisible(target, chromedp.ByQuery),
		chromedp.ScrollIntoView(target, chromedp.ByQuery),
		chromedp.Click(target, chromedp.ByQuery),
	)
	if primaryErr == nil {
		return schemas.ExecutionResult{Success: true, URL: s.currentURL(ctx)}
	}

	// The element may be attached but obscured or not interactable; a direct
	// JS click sidesteps hit testing.
	js := fmt.Sprintf("document.querySelector(%q).click()", target)
	fallbackErr := s.exec(ctx, s.cfg.ElementTimeout,
		chromedp.WaitReady(target, chromedp.ByQuery),
		chromedp.Evaluate(js, nil),
	)
	if fallbackErr == nil {
		s.logger.Debug("Click succeeded via JS fallback.", zap.String("selector", target))
		return schemas.ExecutionResult{Success: true, URL: s.currentURL(ctx)}
	}

	return schemas.Failure(fmt.Sprintf(
		"click failed for selector '%s'. Initial error: %v. Fallback error: %v",
		target, primaryErr, fallbackErr,
	))
}

// Type replaces the target's content with the given text: wait visible,
// scroll into view, clear, then send keys.
func (s *Session) Type(ctx context.Context, target, text string) schemas.ExecutionResult {
	if err := s.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	err := s.exec(ctx, s.cfg.ElementTimeout,
		chromedp.WaitVisible(target, chromedp.ByQuery),
		chromedp.ScrollIntoView(target, chromedp.ByQuery),
		chromedp.Clear(target, chromedp.ByQuery),
		chromedp.SendKeys(target, text, chromedp.ByQuery),
	)
	if err != nil {
		return schemas.Failure(fmt.Sprintf("type failed for selector '%s': %v", target, err))
	}
	return schemas.ExecutionResult{Success: true, URL: s.currentURL(ctx)}
}

// Scroll moves the viewport by one window height.
func (s *Session) Scroll(ctx context.Context, direction schemas.ScrollDirection) schemas.ExecutionResult {
	if err := s.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	js := "window.scrollBy(0, window.innerHeight);"
	if direction == schemas.ScrollUp {
		js = "window.scrollBy(0, -window.innerHeight);"
	}
	if err := s.exec(ctx, s.cfg.ElementTimeout, chromedp.Evaluate(js, nil)); err != nil {
		return schemas.Failure(fmt.Sprintf("scroll %s failed: %v", direction, err))
	}
	return schemas.ExecutionResult{Success: true, URL: s.currentURL(ctx)}
}

// PressKey injects one key chord into the focused element.
func (s *Session) PressKey(ctx context.Context, keyName string) schemas.ExecutionResult {
	if err := s.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}

	code, err := resolveKey(keyName)
	if err != nil {
		return schemas.FailureFromErr(err)
	}
	if err := s.exec(ctx, s.cfg.ElementTimeout, chromedp.KeyEvent(code)); err != nil {
		return schemas.Failure(fmt.Sprintf("press_key '%s' failed: %v", keyName, err))
	}
	return schemas.ExecutionResult{Success: true, URL: s.currentURL(ctx)}
}

// currentURL best-effort reads the page location for result reporting.
func (s *Session) currentURL(ctx context.Context) string {
	var url string
	if err := s.exec(ctx, 5*time.Second, chromedp.Location(&url)); err != nil {
		return ""
	}
	return url
}

// Close tears down the browser. Safe to call any number of times; cleanup
// failures are logged, never raised.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.browserCancel != nil {
			done := make(chan struct{})
			go func() {
				s.browserCancel()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(closeTimeout):
				s.logger.Warn("Browser shutdown timed out.")
			case <-ctx.Done():
				s.logger.Warn("Browser shutdown interrupted.", zap.Error(ctx.Err()))
			}
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
		s.logger.Info("Browser session closed.")
	})
	return nil
}
