// Package surfacetest provides a recording surface for tests.
package surfacetest

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/v0xg/deskpilot/internal/surface"
)

var (
	_ surface.Surface          = (*Recorder)(nil)
	_ surface.FailSafeDisabler = (*Recorder)(nil)
	_ surface.HistoryNavigator = (*HistoryRecorder)(nil)
	_ surface.SelectAller      = (*SelectAllRecorder)(nil)
)

// Call is one recorded surface invocation.
type Call struct {
	Method   string
	X, Y     int
	Amount   int
	Token    string
	Tokens   []string
	Rune     rune
	URL      string
	Duration time.Duration
}

// String renders the call compactly, e.g. "Click(10,20)" or "KeyChord(command+a)".
func (c Call) String() string {
	switch c.Method {
	case "MoveMouse", "MouseDown", "MouseUp", "Click":
		return fmt.Sprintf("%s(%d,%d)", c.Method, c.X, c.Y)
	case "KeyPress":
		return fmt.Sprintf("KeyPress(%s)", c.Token)
	case "KeyChord":
		return fmt.Sprintf("KeyChord(%s)", strings.Join(c.Tokens, "+"))
	case "TypeRune":
		return fmt.Sprintf("TypeRune(%c)", c.Rune)
	case "Scroll", "HScroll":
		return fmt.Sprintf("%s(%d)", c.Method, c.Amount)
	case "OpenURL":
		return fmt.Sprintf("OpenURL(%s)", c.URL)
	case "Sleep":
		return fmt.Sprintf("Sleep(%s)", c.Duration)
	default:
		return c.Method + "()"
	}
}

// Recorder is a Surface that records every call and returns canned results.
// Set Errors[method] to make that method fail.
type Recorder struct {
	Calls  []Call
	Errors map[string]error

	Width, Height int
	Frame         image.Image

	FailSafeDisabled bool
	Closed           bool
}

// NewRecorder returns a recorder reporting a width x height surface.
func NewRecorder(width, height int) *Recorder {
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			frame.Set(x, y, color.RGBA{R: 40, G: 80, B: 160, A: 255})
		}
	}
	return &Recorder{
		Errors: make(map[string]error),
		Width:  width,
		Height: height,
		Frame:  frame,
	}
}

func (r *Recorder) record(c Call) error {
	r.Calls = append(r.Calls, c)
	return r.Errors[c.Method]
}

// Trace returns the String form of every recorded call except captures.
func (r *Recorder) Trace() []string {
	var out []string
	for _, c := range r.Calls {
		if c.Method == "Capture" {
			continue
		}
		out = append(out, c.String())
	}
	return out
}

// Count returns how many times method was called.
func (r *Recorder) Count(method string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Sleep records a settle delay in the same trace as the surface calls.
// Pass it to the executor as its sleeper.
func (r *Recorder) Sleep(d time.Duration) {
	r.Calls = append(r.Calls, Call{Method: "Sleep", Duration: d})
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() { r.Calls = nil }

func (r *Recorder) MoveMouse(x, y int, d time.Duration) error {
	return r.record(Call{Method: "MoveMouse", X: x, Y: y, Duration: d})
}

func (r *Recorder) MouseDown(x, y int) error {
	return r.record(Call{Method: "MouseDown", X: x, Y: y})
}

func (r *Recorder) MouseUp(x, y int) error {
	return r.record(Call{Method: "MouseUp", X: x, Y: y})
}

func (r *Recorder) Click(x, y int) error {
	return r.record(Call{Method: "Click", X: x, Y: y})
}

func (r *Recorder) KeyPress(token string) error {
	return r.record(Call{Method: "KeyPress", Token: token})
}

func (r *Recorder) KeyChord(tokens []string) error {
	return r.record(Call{Method: "KeyChord", Tokens: append([]string(nil), tokens...)})
}

func (r *Recorder) TypeRune(c rune) error {
	return r.record(Call{Method: "TypeRune", Rune: c})
}

func (r *Recorder) Scroll(amount int) error {
	return r.record(Call{Method: "Scroll", Amount: amount})
}

func (r *Recorder) HScroll(amount int) error {
	return r.record(Call{Method: "HScroll", Amount: amount})
}

func (r *Recorder) Capture() (image.Image, error) {
	if err := r.record(Call{Method: "Capture"}); err != nil {
		return nil, err
	}
	return r.Frame, nil
}

func (r *Recorder) ScreenSize() (int, int, error) {
	if err := r.record(Call{Method: "ScreenSize"}); err != nil {
		return 0, 0, err
	}
	return r.Width, r.Height, nil
}

func (r *Recorder) OpenURL(url string) error {
	return r.record(Call{Method: "OpenURL", URL: url})
}

func (r *Recorder) Close() error {
	r.Closed = true
	return r.record(Call{Method: "Close"})
}

func (r *Recorder) DisableFailSafe() { r.FailSafeDisabled = true }

// HistoryRecorder is a Recorder that also navigates history directly,
// like a browser surface does.
type HistoryRecorder struct {
	*Recorder
}

// NewHistoryRecorder returns a HistoryRecorder reporting a width x height surface.
func NewHistoryRecorder(width, height int) *HistoryRecorder {
	return &HistoryRecorder{Recorder: NewRecorder(width, height)}
}

func (h *HistoryRecorder) Back() error {
	return h.record(Call{Method: "Back"})
}

func (h *HistoryRecorder) Forward() error {
	return h.record(Call{Method: "Forward"})
}

// SelectAllRecorder is a Recorder with its own select-all command, like a
// browser surface.
type SelectAllRecorder struct {
	*Recorder
}

// NewSelectAllRecorder returns a SelectAllRecorder reporting a width x height surface.
func NewSelectAllRecorder(width, height int) *SelectAllRecorder {
	return &SelectAllRecorder{Recorder: NewRecorder(width, height)}
}

func (s *SelectAllRecorder) SelectAll() error {
	return s.record(Call{Method: "SelectAll"})
}
