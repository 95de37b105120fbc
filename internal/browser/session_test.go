// internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vxkade/uipilot/internal/config"
)

// scriptedExec stands in for the chromedp runner: each invocation returns the
// next scripted error (nil past the end) and records how many actions it was
// handed.
type scriptedExec struct {
	errs         []error
	calls        int
	actionCounts []int
}

func (e *scriptedExec) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	e.actionCounts = append(e.actionCounts, len(actions))
	var err error
	if e.calls < len(e.errs) {
		err = e.errs[e.calls]
	}
	e.calls++
	return err
}

func newScriptedSession(t *testing.T, exec *scriptedExec) *Session {
	t.Helper()
	s := NewSession(config.NewDefaultConfig().Browser, zaptest.NewLogger(t))
	s.exec = exec.run
	s.initialized = true
	return s
}

func TestClickFallsBackToJSAfterPrimaryFailure(t *testing.T) {
	exec := &scriptedExec{errs: []error{errors.New("no clickable point")}}
	s := newScriptedSession(t, exec)

	res := s.Click(context.Background(), "#submit")
	require.True(t, res.Success)
	// Primary chain, then the JS fallback, then the URL read for the result.
	assert.Equal(t, 3, exec.calls)
	// The primary chain carries wait/scroll/click; the fallback only the
	// attachment wait plus the evaluate.
	assert.Equal(t, []int{3, 2, 1}, exec.actionCounts)
}

func TestClickDoubleFailureReportsBothCauses(t *testing.T) {
	exec := &scriptedExec{errs: []error{
		errors.New("node is obscured"),
		errors.New("node detached"),
	}}
	s := newScriptedSession(t, exec)

	res := s.Click(context.Background(), "#submit")
	require.False(t, res.Success)
	assert.Equal(t, 2, exec.calls)

	assert.Contains(t, res.Error, "click failed for selector '#submit'")
	assert.Contains(t, res.Error, "Initial error: node is obscured")
	assert.Contains(t, res.Error, "Fallback error: node detached")
	// The primary cause reads before the fallback cause.
	assert.Less(t,
		strings.Index(res.Error, "Initial error"),
		strings.Index(res.Error, "Fallback error"),
	)
}

func TestClickPrimarySuccessSkipsFallback(t *testing.T) {
	exec := &scriptedExec{}
	s := newScriptedSession(t, exec)

	res := s.Click(context.Background(), "#submit")
	require.True(t, res.Success)
	// Primary chain plus the URL read; no fallback invocation.
	assert.Equal(t, []int{3, 1}, exec.actionCounts)
}

func TestSessionOperationsRequireSetup(t *testing.T) {
	s := NewSession(config.NewDefaultConfig().Browser, zaptest.NewLogger(t))

	res := s.Click(context.Background(), "#submit")
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "not ready")
}
