package browser

import (
	"errors"
	"fmt"

	"github.com/go-rod/rod/lib/input"
)

// ErrUnknownKey is returned for a token the page keyboard cannot produce.
var ErrUnknownKey = errors.New("unknown key")

var namedKeys = map[string]input.Key{
	"ctrl":      input.ControlLeft,
	"shift":     input.ShiftLeft,
	"option":    input.AltLeft,
	"command":   input.MetaLeft,
	"enter":     input.Enter,
	"tab":       input.Tab,
	"esc":       input.Escape,
	"space":     input.Space,
	"pageup":    input.PageUp,
	"pagedown":  input.PageDown,
	"home":      input.Home,
	"end":       input.End,
	"left":      input.ArrowLeft,
	"right":     input.ArrowRight,
	"up":        input.ArrowUp,
	"down":      input.ArrowDown,
	"delete":    input.Delete,
	"backspace": input.Backspace,
	"f1":        input.F1,
	"f2":        input.F2,
	"f3":        input.F3,
	"f4":        input.F4,
	"f5":        input.F5,
	"f6":        input.F6,
	"f7":        input.F7,
	"f8":        input.F8,
	"f9":        input.F9,
	"f10":       input.F10,
	"f11":       input.F11,
	"f12":       input.F12,
}

// keyFor maps a normalized key token to a page key. Single printable ASCII
// characters map to themselves.
func keyFor(token string) (input.Key, error) {
	if k, ok := namedKeys[token]; ok {
		return k, nil
	}
	if r := []rune(token); len(r) == 1 {
		if k, ok := typeableKey(r[0]); ok {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, token)
}

func keysFor(tokens []string) ([]input.Key, error) {
	keys := make([]input.Key, 0, len(tokens))
	for _, t := range tokens {
		k, err := keyFor(t)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// typeableKey reports whether r has a key on the US layout the page keyboard
// emulates. Everything else goes through text insertion.
func typeableKey(r rune) (input.Key, bool) {
	switch {
	case r == '\n' || r == '\r':
		return input.Enter, true
	case r == '\t':
		return input.Tab, true
	case r >= 0x20 && r <= 0x7e:
		return input.Key(r), true
	}
	return 0, false
}
