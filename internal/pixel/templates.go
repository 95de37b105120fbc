// internal/pixel/templates.go
package pixel

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// TemplateStore maps target descriptions to template PNGs on disk. The
// description "Login Button" resolves to <dir>/login_button.png.
type TemplateStore struct {
	dir string
}

// NewTemplateStore creates a store rooted at dir. The directory is not
// required to exist; lookups against a missing directory behave like missing
// templates.
func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir}
}

// sanitizeKey normalizes a description to a filename stem: lowercased, with
// whitespace collapsed to underscores and everything outside [a-z0-9_-]
// dropped.
func sanitizeKey(description string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(description)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		case r == ' ' || r == '\t':
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// Path returns the on-disk path a description resolves to.
func (s *TemplateStore) Path(description string) string {
	return filepath.Join(s.dir, sanitizeKey(description)+".png")
}

// Load reads and decodes the template for a description. A nonexistent file
// yields ErrTemplateMissing so callers can distinguish configuration gaps
// from matching failures.
func (s *TemplateStore) Load(description string) (image.Image, error) {
	path := s.Path(description)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q (expected %s)", ErrTemplateMissing, description, path)
		}
		return nil, fmt.Errorf("opening template %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding template %s: %w", path, err)
	}
	return img, nil
}
