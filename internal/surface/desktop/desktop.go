// Package desktop implements surface.Surface for an X11 session using
// xdotool for input, ImageMagick import for captures, and xdg-open for
// navigation. It needs an X server, so it only works on Linux and BSD
// desktops; macOS and Windows are driven through the browser surface.
package desktop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/surface"
)

var _ surface.Surface = (*Surface)(nil)

// DefaultWheelStep is how many pixels one wheel click is taken to scroll.
const DefaultWheelStep = 100

// Runner executes the helper programs the surface shells out to.
type Runner interface {
	// Output runs name to completion and returns its stdout.
	Output(name string, args ...string) ([]byte, error)
	// Start launches name without waiting for it.
	Start(name string, args ...string) error
}

// ExecRunner runs programs with os/exec, optionally pinned to an X display.
type ExecRunner struct {
	Display string
}

func (r ExecRunner) command(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	if r.Display != "" {
		cmd.Env = append(cmd.Env, "DISPLAY="+r.Display)
	}
	return cmd
}

func (r ExecRunner) Output(name string, args ...string) ([]byte, error) {
	cmd := r.command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s failed: %s (%w)", name, strings.TrimSpace(stderr.String()), err)
	}
	return out, nil
}

func (r ExecRunner) Start(name string, args ...string) error {
	cmd := r.command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s failed to start: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Options configures the desktop surface.
type Options struct {
	Display   string
	WheelStep int
	// Runner overrides program execution; nil means ExecRunner on Display.
	Runner Runner
	// Sleep paces animated pointer moves; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Surface drives the real pointer and keyboard.
type Surface struct {
	run       Runner
	sleep     func(time.Duration)
	wheelStep int
	logger    *zap.Logger
}

// New returns a desktop surface. It does not touch the display until the first call.
func New(opts Options, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	run := opts.Runner
	if run == nil {
		run = ExecRunner{Display: opts.Display}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	step := opts.WheelStep
	if step <= 0 {
		step = DefaultWheelStep
	}
	return &Surface{
		run:       run,
		sleep:     sleep,
		wheelStep: step,
		logger:    logger.Named("desktop"),
	}
}

func (s *Surface) xdotool(args ...string) ([]byte, error) {
	s.logger.Debug("xdotool", zap.Strings("args", args))
	out, err := s.run.Output("xdotool", args...)
	if err != nil {
		return nil, fmt.Errorf("xdotool %s: %w", args[0], err)
	}
	return out, nil
}

func (s *Surface) MoveMouse(x, y int, duration time.Duration) error {
	from := image.Pt(x, y)
	if duration > 0 {
		p, err := s.pointer()
		if err != nil {
			return err
		}
		from = p
	}
	for _, step := range surface.Path(from, image.Pt(x, y), duration) {
		if _, err := s.xdotool("mousemove", itoa(step.Point.X), itoa(step.Point.Y)); err != nil {
			return err
		}
		s.sleep(step.Wait)
	}
	return nil
}

// pointer reads the current pointer position.
func (s *Surface) pointer() (image.Point, error) {
	out, err := s.xdotool("getmouselocation", "--shell")
	if err != nil {
		return image.Point{}, err
	}
	return parseLocation(out)
}

func parseLocation(out []byte) (image.Point, error) {
	var p image.Point
	var seen int
	for _, line := range strings.Split(string(out), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		switch k {
		case "X":
			p.X = n
			seen++
		case "Y":
			p.Y = n
			seen++
		}
	}
	if seen != 2 {
		return image.Point{}, fmt.Errorf("unexpected pointer location %q", strings.TrimSpace(string(out)))
	}
	return p, nil
}

func (s *Surface) MouseDown(x, y int) error {
	_, err := s.xdotool("mousemove", itoa(x), itoa(y), "mousedown", "1")
	return err
}

func (s *Surface) MouseUp(x, y int) error {
	_, err := s.xdotool("mousemove", itoa(x), itoa(y), "mouseup", "1")
	return err
}

func (s *Surface) Click(x, y int) error {
	_, err := s.xdotool("mousemove", itoa(x), itoa(y), "click", "1")
	return err
}

func (s *Surface) KeyPress(token string) error {
	_, err := s.xdotool("key", "--clearmodifiers", keysym(token))
	return err
}

func (s *Surface) KeyChord(tokens []string) error {
	if len(tokens) == 0 {
		return errors.New("empty key chord")
	}
	syms := make([]string, len(tokens))
	for i, t := range tokens {
		syms[i] = keysym(t)
	}
	_, err := s.xdotool("key", "--clearmodifiers", strings.Join(syms, "+"))
	return err
}

func (s *Surface) TypeRune(r rune) error {
	if r == '\n' {
		return s.KeyPress("enter")
	}
	_, err := s.xdotool("type", "--delay", "0", "--", string(r))
	return err
}

// Scroll turns the wheel; positive amounts scroll up.
func (s *Surface) Scroll(amount int) error {
	return s.wheel(amount, "4", "5")
}

// HScroll tilts the wheel; positive amounts scroll left.
func (s *Surface) HScroll(amount int) error {
	return s.wheel(amount, "6", "7")
}

func (s *Surface) wheel(amount int, positive, negative string) error {
	clicks := wheelClicks(amount, s.wheelStep)
	if clicks == 0 {
		return nil
	}
	button := positive
	if amount < 0 {
		button = negative
	}
	_, err := s.xdotool("click", "--repeat", itoa(clicks), button)
	return err
}

// wheelClicks converts a pixel amount to wheel clicks, rounding up so any
// non-zero amount moves at least one click.
func wheelClicks(amount, step int) int {
	if amount < 0 {
		amount = -amount
	}
	return (amount + step - 1) / step
}

func (s *Surface) Capture() (image.Image, error) {
	out, err := s.run.Output("import", "-window", "root", "png:-")
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	return img, nil
}

func (s *Surface) ScreenSize() (int, int, error) {
	out, err := s.xdotool("getdisplaygeometry")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(out))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected display geometry %q", strings.TrimSpace(string(out)))
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad display width: %w", err)
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad display height: %w", err)
	}
	return w, h, nil
}

// OpenURL hands url to the desktop's default handler and returns immediately.
func (s *Surface) OpenURL(url string) error {
	return s.run.Start("xdg-open", url)
}

func (s *Surface) Close() error { return nil }

func itoa(n int) string { return strconv.Itoa(n) }
