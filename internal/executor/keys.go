package executor

import (
	"sort"
	"strings"
)

// keyTokens maps a lower-cased logical key name to the token handed to the surface.
// It is never mutated after package initialisation.
var keyTokens = map[string]string{
	"control":   "ctrl",
	"ctrl":      "ctrl",
	"shift":     "shift",
	"alt":       "option",
	"option":    "option",
	"command":   "command",
	"cmd":       "command",
	"meta":      "command",
	"enter":     "enter",
	"return":    "enter",
	"tab":       "tab",
	"escape":    "esc",
	"esc":       "esc",
	"space":     "space",
	"pageup":    "pageup",
	"pagedown":  "pagedown",
	"home":      "home",
	"end":       "end",
	"f1":        "f1",
	"f2":        "f2",
	"f3":        "f3",
	"f4":        "f4",
	"f5":        "f5",
	"f6":        "f6",
	"f7":        "f7",
	"f8":        "f8",
	"f9":        "f9",
	"f10":       "f10",
	"f11":       "f11",
	"f12":       "f12",
	"left":      "left",
	"right":     "right",
	"up":        "up",
	"down":      "down",
	"delete":    "delete",
	"backspace": "backspace",
}

// NormalizeKey translates a logical key name into a surface key token.
// Lookup is case-insensitive; unknown names are returned lower-cased so the
// surface can decide whether they are valid.
func NormalizeKey(name string) string {
	lower := strings.ToLower(name)
	if token, ok := keyTokens[lower]; ok {
		return token
	}
	return lower
}

// NormalizeKeys applies NormalizeKey to every name.
func NormalizeKeys(names []string) []string {
	tokens := make([]string, len(names))
	for i, name := range names {
		tokens[i] = NormalizeKey(name)
	}
	return tokens
}

// KeyAlias is one row of the translation table.
type KeyAlias struct {
	Name  string `yaml:"name" json:"name"`
	Token string `yaml:"token" json:"token"`
}

// KeyTable returns a sorted copy of the translation table.
func KeyTable() []KeyAlias {
	table := make([]KeyAlias, 0, len(keyTokens))
	for name, token := range keyTokens {
		table = append(table, KeyAlias{Name: name, Token: token})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Name < table[j].Name })
	return table
}
