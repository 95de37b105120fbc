// internal/pixel/controller_test.go
package pixel

import (
	"context"
	"image"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vxkade/uipilot/api/schemas"
)

func newTestController(t *testing.T, driver *fakeDriver, ocr *fakeOCR, dir string) *Controller {
	t.Helper()
	return NewController(driver, ocr, testPixelConfig(dir), zaptest.NewLogger(t))
}

func setupController(t *testing.T, driver *fakeDriver, ocr *fakeOCR, dir string) *Controller {
	t.Helper()
	c := newTestController(t, driver, ocr, dir)
	require.NoError(t, c.Setup(context.Background(), ""))
	return c
}

func platformMod() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

func TestControllerMode(t *testing.T) {
	c := newTestController(t, &fakeDriver{}, &fakeOCR{}, t.TempDir())
	assert.Equal(t, schemas.ModeDescription, c.Mode())
}

func TestControllerRequiresSetup(t *testing.T) {
	c := newTestController(t, &fakeDriver{}, &fakeOCR{}, t.TempDir())
	res := c.Click(context.Background(), "anything")
	require.False(t, res.Success)
	assert.Contains(t, res.Error, schemas.ErrNotReady.Error())

	_, err := c.GetCurrentState(context.Background())
	assert.ErrorIs(t, err, schemas.ErrNotReady)
}

func TestControllerSetupFailsWithoutScreen(t *testing.T) {
	driver := &fakeDriver{captureErr: errCapture}
	c := newTestController(t, driver, &fakeOCR{}, t.TempDir())
	err := c.Setup(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not capturable")
}

func TestGetCurrentStateReportsSentinelsAndText(t *testing.T) {
	driver := &fakeDriver{title: "Example - Google Chrome"}
	ocr := &fakeOCR{text: "Welcome back\nSign in"}
	c := setupController(t, driver, ocr, t.TempDir())

	state, err := c.GetCurrentState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schemas.UnknownURL, state.URL)
	assert.Equal(t, schemas.UnknownTitle, state.Title)
	assert.Equal(t, "Welcome back\nSign in", state.VisibleText)
	assert.Empty(t, state.Elements)
}

func TestGetCurrentStateDegradesOnOCRFailure(t *testing.T) {
	ocr := &fakeOCR{err: errCapture}
	c := setupController(t, &fakeDriver{}, ocr, t.TempDir())

	state, err := c.GetCurrentState(context.Background())
	require.NoError(t, err)
	assert.Contains(t, state.VisibleText, "OCR error:")
	assert.Contains(t, state.VisibleText, errCapture.Error())
}

func TestNavigateUsesAddressBarChord(t *testing.T) {
	driver := &fakeDriver{}
	c := setupController(t, driver, &fakeOCR{}, t.TempDir())

	res := c.Navigate(context.Background(), "https://example.com")
	require.True(t, res.Success)
	assert.Equal(t, "https://example.com", res.URL)

	mod := platformMod()
	require.Len(t, driver.keys, 3)
	assert.Equal(t, []string{"l", mod}, driver.keys[0])
	assert.Equal(t, []string{"a", mod}, driver.keys[1])
	assert.Equal(t, []string{"enter"}, driver.keys[2])
	require.Len(t, driver.typed, 1)
	assert.Equal(t, "https://example.com", driver.typed[0])
}

func TestClickResolvesAndClicks(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "go button", markTemplate(12))
	driver := &fakeDriver{frames: []image.Image{screenWithMark(120, 90, 40, 30, 12)}}
	c := setupController(t, driver, &fakeOCR{}, dir)

	res := c.Click(context.Background(), "go button")
	require.True(t, res.Success)
	require.Len(t, driver.moves, 1)
	assert.True(t, driver.moves[0].In(image.Rect(40, 30, 52, 42)),
		"click %v outside the target", driver.moves[0])
	assert.Equal(t, 1, driver.clicks)
}

func TestClickMissingTemplateFailsRecoverably(t *testing.T) {
	c := setupController(t, &fakeDriver{}, &fakeOCR{}, t.TempDir())

	res := c.Click(context.Background(), "unregistered thing")
	require.False(t, res.Success)
	assert.Contains(t, res.Error, ErrTemplateMissing.Error())

	// Session stays usable after a failed resolution.
	_, err := c.GetCurrentState(context.Background())
	assert.NoError(t, err)
}

func TestTypeFocusesThenStreams(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "search field", markTemplate(12))
	driver := &fakeDriver{frames: []image.Image{screenWithMark(120, 90, 40, 30, 12)}}
	c := setupController(t, driver, &fakeOCR{}, dir)

	res := c.Type(context.Background(), "search field", "hello world")
	require.True(t, res.Success)
	assert.Equal(t, 1, driver.clicks)
	require.Len(t, driver.typed, 1)
	assert.Equal(t, "hello world", driver.typed[0])
}

func TestScrollDirections(t *testing.T) {
	driver := &fakeDriver{}
	c := setupController(t, driver, &fakeOCR{}, t.TempDir())

	require.True(t, c.Scroll(context.Background(), schemas.ScrollDown).Success)
	require.True(t, c.Scroll(context.Background(), schemas.ScrollUp).Success)
	assert.Equal(t, []string{"down", "up"}, driver.scrolls)
}

func TestPressKeyVocabulary(t *testing.T) {
	driver := &fakeDriver{}
	c := setupController(t, driver, &fakeOCR{}, t.TempDir())

	require.True(t, c.PressKey(context.Background(), "Return").Success)
	require.True(t, c.PressKey(context.Background(), "page_down").Success)
	require.Len(t, driver.keys, 2)
	assert.Equal(t, []string{"enter"}, driver.keys[0])
	assert.Equal(t, []string{"pagedown"}, driver.keys[1])

	res := c.PressKey(context.Background(), "hyperspace")
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown key name")
}

func TestCloseIsIdempotentAndTerminal(t *testing.T) {
	ocr := &fakeOCR{}
	c := setupController(t, &fakeDriver{}, ocr, t.TempDir())

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, ocr.closed)

	res := c.Click(context.Background(), "anything")
	require.False(t, res.Success)
	assert.Contains(t, res.Error, schemas.ErrSessionClosed.Error())
}

func TestCloseSwallowsOCRCleanupError(t *testing.T) {
	ocr := &fakeOCR{closeErr: errCapture}
	c := setupController(t, &fakeDriver{}, ocr, t.TempDir())

	// The cleanup failure is logged, never raised, and a repeat Close still
	// reports success.
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, ocr.closed)
}
