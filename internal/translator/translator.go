// internal/translator/translator.go
package translator

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vxkade/uipilot/api/schemas"
	"github.com/vxkade/uipilot/internal/config"
	"github.com/vxkade/uipilot/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const selectorSystemPrompt = `You are a UI automation planner. Given the current page state and a user
command, respond with exactly one JSON object describing a single action:
{"action": "<name>", "parameters": {...}}

Available actions:
- navigate: {"url": "<absolute url>"}
- click:    {"selector": "<css selector>"}
- type:     {"selector": "<css selector>", "text": "<text to enter>"}
- scroll:   {"direction": "up" | "down"}
- press_key: {"key_name": "<key>"} (enter, escape, tab, arrows, page_down, f1-f12, ...)

Selector construction rules:
- Prefer stable attributes from the element list: #id, [name='...'],
  [placeholder='...'], [aria-label='...'].
- Match by visible text only as a last resort, and then prefer an attribute
  that carries the same text; never invent :has-text() or other non-CSS
  pseudo-classes.
- The selector must refer to one of the listed elements. Do not guess at
  elements that are not listed.

Respond with the JSON object only. No explanations, no markdown.`

const descriptionSystemPrompt = `You are a UI automation planner controlling the operating system screen.
Given a description of what is visible and a user command, respond with
exactly one JSON object describing a single action:
{"action": "<name>", "parameters": {...}}

Available actions:
- navigate: {"url": "<absolute url>"} (typed into the browser address bar)
- click:    {"target_description": "<short name of the on-screen control>"}
- type:     {"target_description": "<short name of the field>", "text": "<text>"}
- scroll:   {"direction": "up" | "down"}
- press_key: {"key_name": "<key>"} (enter, escape, tab, arrows, page_down, f1-f12, ...)

Target descriptions are matched against a library of named screenshots, so
keep them short and generic: "login button", "search field", "settings icon".

Respond with the JSON object only. No explanations, no markdown.`

// Translator is the boundary between natural language and executable plans.
// It bounds the observed state, consults the external interpreter, and
// validates the response before anything downstream sees it.
type Translator struct {
	client  schemas.LLMClient
	mode    schemas.TargetMode
	limiter *rate.Limiter
	logger  *zap.Logger

	elementLimit     int
	visibleTextLimit int
	timeout          time.Duration
	temperature      float32
}

// New constructs a Translator for the given target mode.
func New(client schemas.LLMClient, mode schemas.TargetMode, cfg *config.Config, logger *zap.Logger) *Translator {
	return &Translator{
		client:           client,
		mode:             mode,
		limiter:          rate.NewLimiter(rate.Limit(cfg.LLM.RatePerSecond), cfg.LLM.Burst),
		logger:           logger.Named("translator"),
		elementLimit:     cfg.Agent.ElementLimit,
		visibleTextLimit: cfg.Agent.VisibleTextLimit,
		timeout:          cfg.Agent.TranslateTimeout,
		temperature:      cfg.LLM.Temperature,
	}
}

// promptState is the bounded view of ScreenState serialized into prompts.
type promptState struct {
	URL         string                      `json:"url"`
	Title       string                      `json:"title"`
	Elements    []schemas.ElementDescriptor `json:"elements,omitempty"`
	VisibleText string                      `json:"visible_text,omitempty"`
}

// boundState trims the state to the prompt limits. Elements keep their
// declared order; the tail past the limit is dropped, not sampled.
func (t *Translator) boundState(state *schemas.ScreenState) promptState {
	bounded := promptState{
		URL:         state.URL,
		Title:       state.Title,
		VisibleText: state.VisibleText,
	}
	if len(state.Elements) > t.elementLimit {
		bounded.Elements = state.Elements[:t.elementLimit]
	} else {
		bounded.Elements = state.Elements
	}
	if len(bounded.VisibleText) > t.visibleTextLimit {
		bounded.VisibleText = schemas.TruncateBytes(bounded.VisibleText, t.visibleTextLimit) + schemas.TruncationMarker
	}
	return bounded
}

func (t *Translator) systemPrompt() string {
	if t.mode == schemas.ModeDescription {
		return descriptionSystemPrompt
	}
	return selectorSystemPrompt
}

// Translate turns one natural-language command into one validated ActionPlan.
// Any failure along the way (rate wait, transport, parse, validation) yields
// (nil, err); there are no partial plans.
func (t *Translator) Translate(ctx context.Context, command string, state *schemas.ScreenState) (*schemas.ActionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for translation slot: %w", err)
	}

	stateJSON, err := json.Marshal(t.boundState(state))
	if err != nil {
		return nil, fmt.Errorf("serializing screen state: %w", err)
	}

	userPrompt := fmt.Sprintf("Current UI state:\n%s\n\nUser command: %s", stateJSON, command)

	start := time.Now()
	raw, err := t.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: t.systemPrompt(),
		UserPrompt:   userPrompt,
		Options: schemas.GenerationOptions{
			Temperature: t.temperature,
			ForceJSON:   true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("command interpretation failed: %w", err)
	}

	plan, err := schemas.DecodeActionPlan([]byte(llmutil.ExtractJSONPayload(raw)), t.mode)
	if err != nil {
		t.logger.Warn("Interpreter returned an unusable plan",
			zap.String("command", command),
			zap.String("response", truncateForLog(raw)),
			zap.Error(err),
		)
		return nil, err
	}

	t.logger.Debug("Command translated",
		zap.String("command", command),
		zap.Stringer("plan", plan),
		zap.Duration("duration", time.Since(start)),
	)
	return plan, nil
}

func truncateForLog(s string) string {
	const max = 400
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
