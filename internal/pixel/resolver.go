// internal/pixel/resolver.go
package pixel

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/vxkade/uipilot/internal/config"
)

// Resolver turns a target description into screen coordinates by matching
// its template image against fresh captures.
type Resolver struct {
	driver ScreenDriver
	store  *TemplateStore
	cfg    config.PixelConfig
	logger *zap.Logger
}

// NewResolver creates a resolver bound to a driver and template store.
func NewResolver(driver ScreenDriver, store *TemplateStore, cfg config.PixelConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		driver: driver,
		store:  store,
		cfg:    cfg,
		logger: logger.Named("resolver"),
	}
}

// Locate resolves a description to the center point of its on-screen match.
// The screen is recaptured every poll interval until the find timeout; the
// UI may still be painting when the action arrives.
//
// A missing template is ErrTemplateMissing; an exhausted search is
// ErrTargetNotFound. Both are recoverable, the session stays usable.
func (r *Resolver) Locate(ctx context.Context, description string) (image.Point, error) {
	tmpl, err := r.store.Load(description)
	if err != nil {
		return image.Point{}, err
	}

	deadline := time.Now().Add(r.cfg.FindTimeout)
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return image.Point{}, err
		}

		screen, err := r.driver.CaptureScreen()
		if err != nil {
			return image.Point{}, fmt.Errorf("screen capture failed: %w", err)
		}
		attempts++

		if center, ok := matchTemplate(screen, tmpl, r.cfg.Confidence, r.cfg.MatchDownscale); ok {
			r.logger.Debug("Target resolved.",
				zap.String("target", description),
				zap.Int("x", center.X),
				zap.Int("y", center.Y),
				zap.Int("attempts", attempts),
			)
			return center, nil
		}

		if time.Now().After(deadline) {
			break
		}
		select {
		case <-time.After(r.cfg.PollInterval):
		case <-ctx.Done():
			return image.Point{}, ctx.Err()
		}
	}

	r.logger.Debug("Target resolution exhausted.",
		zap.String("target", description),
		zap.Int("attempts", attempts),
	)
	return image.Point{}, fmt.Errorf("%w: %q after %s", ErrTargetNotFound, description, r.cfg.FindTimeout)
}
