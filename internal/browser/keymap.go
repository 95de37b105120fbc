// internal/browser/keymap.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp/kb"
)

// keyCodes maps the shared key vocabulary, including aliases, to the CDP key
// sequences chromedp injects.
var keyCodes = map[string]string{
	"enter":     kb.Enter,
	"return":    kb.Enter,
	"esc":       kb.Escape,
	"escape":    kb.Escape,
	"tab":       kb.Tab,
	"space":     " ",
	"backspace": kb.Backspace,
	"delete":    kb.Delete,
	"up":        kb.ArrowUp,
	"down":      kb.ArrowDown,
	"left":      kb.ArrowLeft,
	"right":     kb.ArrowRight,
	"home":      kb.Home,
	"end":       kb.End,
	"pageup":    kb.PageUp,
	"page_up":   kb.PageUp,
	"pagedown":  kb.PageDown,
	"page_down": kb.PageDown,
	"f1":        kb.F1,
	"f2":        kb.F2,
	"f3":        kb.F3,
	"f4":        kb.F4,
	"f5":        kb.F5,
	"f6":        kb.F6,
	"f7":        kb.F7,
	"f8":        kb.F8,
	"f9":        kb.F9,
	"f10":       kb.F10,
	"f11":       kb.F11,
	"f12":       kb.F12,
}

// resolveKey normalizes a key name and returns the CDP key sequence for it.
// Unknown keys are an error, never a silent no-op.
func resolveKey(name string) (string, error) {
	code, ok := keyCodes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown key name: %q", name)
	}
	return code, nil
}
