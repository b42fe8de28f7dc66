package session

import "strings"

// Action is what a bound key does.
type Action string

const (
	ActionNone           Action = ""
	ActionOpenFilePicker Action = "open-file-picker"
)

// KeyEvent is a key press reported by the page.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
	Meta  bool   `json:"meta"`
}

// Combo returns the normalized binding name, e.g. "ctrl+u".
func (e KeyEvent) Combo() string {
	var parts []string
	if e.Ctrl {
		parts = append(parts, "ctrl")
	}
	if e.Alt {
		parts = append(parts, "alt")
	}
	if e.Shift {
		parts = append(parts, "shift")
	}
	if e.Meta {
		parts = append(parts, "meta")
	}
	return strings.Join(append(parts, strings.ToLower(e.Key)), "+")
}

// Keymap binds key combos to actions.
type Keymap map[string]Action

// DefaultKeymap opens the file picker on Ctrl+U.
func DefaultKeymap() Keymap {
	return Keymap{"ctrl+u": ActionOpenFilePicker}
}

// Resolve returns the action bound to e. A bound event is consumed: the page must
// suppress the browser's default for it.
func (k Keymap) Resolve(e KeyEvent) (Action, bool) {
	a, ok := k[e.Combo()]
	return a, ok && a != ActionNone
}
