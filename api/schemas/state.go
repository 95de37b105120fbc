package schemas

import "unicode/utf8"

// -- Screen State Schemas --

// Sentinel values reported where a backend cannot observe the real value.
const (
	// UnknownURL and UnknownTitle are reported by the pixel backend, which has
	// no DOM access and therefore cannot read the address bar or page title.
	UnknownURL   = "unknown (screen control)"
	UnknownTitle = "unknown (screen control)"

	// ClosedPageURL is reported by the structural backend when the page it
	// owns has been closed underneath it.
	ClosedPageURL = "N/A - Page Closed"
)

// TruncationMarker is appended to VisibleText when it exceeds the configured bound.
const TruncationMarker = "...[truncated]"

// TruncateBytes cuts a string to at most n bytes on a UTF-8 boundary, so a
// bounded string never carries a torn rune.
func TruncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ElementDescriptor describes one visible interactive element on a page.
// Attributes holds only non-empty values among: text, id, name, placeholder,
// aria-label, type, role, value.
type ElementDescriptor struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ScreenState is the observable UI state captured immediately before each
// translation call. It is never cached across calls: the UI is assumed to
// change with every action.
//
// Exactly one of the two shapes is populated:
//   - structural: URL, Title and Elements;
//   - pixel: VisibleText and Screenshot, with URL/Title set to the
//     Unknown* sentinels.
type ScreenState struct {
	URL      string              `json:"url"`
	Title    string              `json:"title"`
	Elements []ElementDescriptor `json:"elements,omitempty"`

	VisibleText string `json:"visible_text,omitempty"`
	// Screenshot is a PNG raster kept for diagnostics only; it is never sent
	// to the translator and never read back by the system.
	Screenshot []byte `json:"-"`
}

// PageClosed reports whether the state was captured from a closed page.
func (s ScreenState) PageClosed() bool {
	return s.URL == ClosedPageURL
}

// ExecutionResult is the uniform return shape for every executor operation.
type ExecutionResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure builds a failed ExecutionResult from an error message.
func Failure(msg string) ExecutionResult {
	return ExecutionResult{Success: false, Error: msg}
}

// FailureFromErr builds a failed ExecutionResult from an error.
func FailureFromErr(err error) ExecutionResult {
	if err == nil {
		return ExecutionResult{Success: true}
	}
	return ExecutionResult{Success: false, Error: err.Error()}
}
