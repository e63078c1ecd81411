package desktop

var keysyms = map[string]string{
	"ctrl":      "ctrl",
	"shift":     "shift",
	"option":    "alt",
	"command":   "super",
	"enter":     "Return",
	"tab":       "Tab",
	"esc":       "Escape",
	"space":     "space",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"home":      "Home",
	"end":       "End",
	"left":      "Left",
	"right":     "Right",
	"up":        "Up",
	"down":      "Down",
	"delete":    "Delete",
	"backspace": "BackSpace",
	"f1":        "F1",
	"f2":        "F2",
	"f3":        "F3",
	"f4":        "F4",
	"f5":        "F5",
	"f6":        "F6",
	"f7":        "F7",
	"f8":        "F8",
	"f9":        "F9",
	"f10":       "F10",
	"f11":       "F11",
	"f12":       "F12",

	"[":  "bracketleft",
	"]":  "bracketright",
	"-":  "minus",
	"=":  "equal",
	"+":  "plus",
	",":  "comma",
	".":  "period",
	"/":  "slash",
	";":  "semicolon",
	"'":  "apostrophe",
	"`":  "grave",
	"\\": "backslash",
}

// keysym maps a normalized key token to an X keysym name. Unmapped tokens pass
// through, which covers letters, digits and raw keysym names.
func keysym(token string) string {
	if s, ok := keysyms[token]; ok {
		return s
	}
	return token
}
