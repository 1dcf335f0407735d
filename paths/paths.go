// Package paths normalizes user-typed file paths and verifies they can
// actually be read before any capture or decode is attempted.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors so callers can tell the failure kinds apart and print the
// right remediation hint.
var (
	ErrNotFound    = errors.New("file not found")
	ErrNotReadable = errors.New("file not readable")
)

// Resolve cleans up a raw path from interactive input and returns its
// absolute form. Cleaning: surrounding whitespace is trimmed, backslashes
// are dropped (paths pasted from a shell often carry escape characters), and
// a leading ~ expands to the home directory.
//
// The returned path is non-empty only when the file exists and a read probe
// succeeds; otherwise the error wraps ErrNotFound or ErrNotReadable.
func Resolve(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	p = strings.ReplaceAll(p, `\`, "")

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("could not resolve %q: %w", p, err)
	}

	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return "", fmt.Errorf("could not stat %s: %w", abs, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrNotReadable, abs)
		}
		return "", fmt.Errorf("could not open %s: %w", abs, err)
	}
	f.Close()

	return abs, nil
}

// Hint returns the remediation text for a Resolve error, empty when the
// error carries no known kind.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "please check if the path is correct and the file exists"
	case errors.Is(err, ErrNotReadable):
		return "try running: chmod +r on the file"
	default:
		return ""
	}
}
