package schemas

import "context"

// Backend abstracts a UI automation surface. Two implementations exist: a
// structural backend that drives a browser through the DOM, and a pixel
// backend that drives the operating system screen. Callers treat both
// identically; only TargetMode differs.
//
// A backend is single-session: Setup at most once, Close at most effectively
// once, and no operation is valid before Setup or after Close.
type Backend interface {
	// Setup acquires the underlying automation resources and, when initialURL
	// is non-empty, performs an initial navigation.
	Setup(ctx context.Context, initialURL string) error

	// GetCurrentState captures a fresh observation of the UI. It is called
	// before every translation and its result is never cached.
	GetCurrentState(ctx context.Context) (*ScreenState, error)

	Navigate(ctx context.Context, url string) ExecutionResult
	Click(ctx context.Context, target string) ExecutionResult
	Type(ctx context.Context, target, text string) ExecutionResult
	Scroll(ctx context.Context, direction ScrollDirection) ExecutionResult
	PressKey(ctx context.Context, keyName string) ExecutionResult

	// Mode reports how click/type targets are addressed on this backend.
	Mode() TargetMode

	// Close releases automation resources. Safe to call multiple times.
	Close(ctx context.Context) error
}

// Translator turns a natural-language command plus the current UI state into
// a single validated ActionPlan, or extracts structured data from the state.
type Translator interface {
	Translate(ctx context.Context, command string, state *ScreenState) (*ActionPlan, error)
	ExtractData(ctx context.Context, query string, state *ScreenState) (map[string]any, error)
}

// GenerationOptions tunes a single LLM generation call.
type GenerationOptions struct {
	Temperature float32
	// ForceJSON asks the provider for a JSON-typed response where supported.
	ForceJSON bool
}

// GenerationRequest is one self-contained prompt for the interpreter.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Options      GenerationOptions
}

// LLMClient is the minimal contract every provider client satisfies.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Close() error
}
