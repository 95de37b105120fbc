// internal/agent/agent.go
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/vxkade/uipilot/api/schemas"
)

// pilotState is the session lifecycle. Transitions are one way:
// uninitialized -> ready -> closed.
type pilotState int

const (
	stateUninitialized pilotState = iota
	stateReady
	stateClosed
)

// Pilot owns exactly one backend and one translator and runs the
// observe-translate-act cycle for one command at a time. Concurrent
// interactions do not queue; the loser fails fast with a busy result.
type Pilot struct {
	id         string
	backend    schemas.Backend
	translator schemas.Translator
	logger     *zap.Logger

	// sem serializes interactions. TryAcquire instead of Acquire keeps the
	// "one command at a time" contract visible to callers.
	sem *semaphore.Weighted

	mu        sync.Mutex
	state     pilotState
	closeOnce sync.Once
}

// NewPilot wires an orchestrator around a backend and translator.
func NewPilot(backend schemas.Backend, translator schemas.Translator, logger *zap.Logger) *Pilot {
	id := uuid.New().String()
	return &Pilot{
		id:         id,
		backend:    backend,
		translator: translator,
		logger:     logger.Named("pilot").With(zap.String("pilot_id", id)),
		sem:        semaphore.NewWeighted(1),
	}
}

// Setup initializes the backend and optionally navigates to a starting URL.
func (p *Pilot) Setup(ctx context.Context, initialURL string) error {
	p.mu.Lock()
	if p.state != stateUninitialized {
		p.mu.Unlock()
		return fmt.Errorf("pilot already set up")
	}
	p.mu.Unlock()

	if err := p.backend.Setup(ctx, initialURL); err != nil {
		return fmt.Errorf("backend setup failed: %w", err)
	}

	p.mu.Lock()
	p.state = stateReady
	p.mu.Unlock()
	p.logger.Info("Pilot ready.", zap.String("mode", string(p.backend.Mode())))
	return nil
}

func (p *Pilot) ready() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateClosed:
		return schemas.ErrSessionClosed
	case stateUninitialized:
		return schemas.ErrNotReady
	}
	return nil
}

// Interact runs one full command cycle: fresh state, translation, single
// action. Every failure surfaces as a structured result; only a violated
// lifecycle precondition would be an error, and that too is folded into the
// result for a uniform caller experience.
func (p *Pilot) Interact(ctx context.Context, command string) schemas.ExecutionResult {
	if err := p.ready(); err != nil {
		return schemas.FailureFromErr(err)
	}
	if !p.sem.TryAcquire(1) {
		return schemas.FailureFromErr(schemas.ErrBusy)
	}
	defer p.sem.Release(1)

	start := time.Now()
	log := p.logger.With(zap.String("command", command))

	state, err := p.backend.GetCurrentState(ctx)
	if err != nil {
		log.Error("State capture failed.", zap.Error(err))
		return schemas.Failure(fmt.Sprintf("failed to observe UI state: %v", err))
	}
	if state.PageClosed() {
		log.Warn("Page is closed; refusing to act.")
		return schemas.Failure("the page has been closed; no further actions are possible")
	}

	plan, err := p.translator.Translate(ctx, command, state)
	if err != nil {
		log.Warn("Translation failed.", zap.Error(err))
		return schemas.Failure(fmt.Sprintf("could not translate command: %v", err))
	}

	result := p.dispatch(ctx, plan)
	log.Info("Interaction complete.",
		zap.Stringer("plan", plan),
		zap.Bool("success", result.Success),
		zap.Duration("duration", time.Since(start)),
	)
	return result
}

// dispatch routes a validated plan to the backend operation matching its kind.
func (p *Pilot) dispatch(ctx context.Context, plan *schemas.ActionPlan) schemas.ExecutionResult {
	switch plan.Kind {
	case schemas.ActionNavigate:
		return p.backend.Navigate(ctx, plan.Navigate.URL)
	case schemas.ActionClick:
		return p.backend.Click(ctx, plan.Click.Target())
	case schemas.ActionType:
		return p.backend.Type(ctx, plan.Type.Target(), plan.Type.Text)
	case schemas.ActionScroll:
		return p.backend.Scroll(ctx, plan.Scroll.Direction)
	case schemas.ActionPressKey:
		return p.backend.PressKey(ctx, plan.PressKey.KeyName)
	}
	return schemas.Failure(fmt.Sprintf("no executor for action %q", plan.Kind))
}

// Extract answers a data query against a fresh observation of the UI.
func (p *Pilot) Extract(ctx context.Context, query string) (map[string]any, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if !p.sem.TryAcquire(1) {
		return nil, schemas.ErrBusy
	}
	defer p.sem.Release(1)

	state, err := p.backend.GetCurrentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to observe UI state: %w", err)
	}
	if state.PageClosed() {
		return nil, fmt.Errorf("the page has been closed; nothing to extract")
	}
	return p.translator.ExtractData(ctx, query, state)
}

// Close tears the session down. Idempotent; backend cleanup failures are
// logged, never raised.
func (p *Pilot) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.state = stateClosed
		p.mu.Unlock()

		if err := p.backend.Close(ctx); err != nil {
			p.logger.Warn("Backend cleanup failed.", zap.Error(err))
		}
		p.logger.Info("Pilot closed.")
	})
	return nil
}
