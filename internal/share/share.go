// Package share hands todo summaries to a platform share target.
//
// Sharing is a best-effort capability: the presentation layer queries the
// target at call time, and a missing or unavailable target is a silent
// no-op, never an error.
package share

import (
	"strings"

	"github.com/atotto/clipboard"
)

// Content is what gets shared: a title, derived text, and the page URL.
type Content struct {
	Title string
	Text  string
	URL   string
}

// Target is a platform surface that can receive shared content.
type Target interface {
	// Available reports whether the target can be used right now.
	Available() bool
	Share(Content) error
}

// Do shares content through the target if one is present and available.
// Absence of a share capability is not an error condition.
func Do(t Target, c Content) error {
	if t == nil || !t.Available() {
		return nil
	}
	return t.Share(c)
}

// Clipboard shares by copying the content to the system clipboard, the
// closest terminal analogue to a native share sheet.
type Clipboard struct{}

// Available reports whether a clipboard utility exists on this system.
func (Clipboard) Available() bool {
	return !clipboard.Unsupported
}

// Share writes the content to the clipboard, one line per non-empty part.
func (Clipboard) Share(c Content) error {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Title, c.Text, c.URL} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return clipboard.WriteAll(strings.Join(parts, "\n"))
}

// Default returns the share target for this platform.
func Default() Target {
	return Clipboard{}
}
