// Package browser implements surface.Surface on a Chromium page driven through
// the DevTools protocol by go-rod.
package browser

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/overlay"
	"github.com/v0xg/deskpilot/internal/surface"
)

var (
	_ surface.Surface          = (*Surface)(nil)
	_ surface.HistoryNavigator = (*Surface)(nil)
	_ surface.SelectAller      = (*Surface)(nil)
)

// Options configures the browser surface.
type Options struct {
	Width    int
	Height   int
	Headless bool
	// ProfileDir is a Chrome/Chromium profile directory for authenticated sessions.
	ProfileDir string
	// Bin overrides the browser binary; empty means auto-detect (or download).
	Bin string
	// ShowPointer paints the pointer into captures; Chromium never renders it.
	ShowPointer bool
	// CaptureFormat is "png" or "jpeg". JPEG captures are faster on large viewports.
	CaptureFormat string
	JPEGQuality   int
}

// DefaultOptions returns a headless 1440x900 PNG-capturing configuration.
func DefaultOptions() Options {
	return Options{
		Width:         1440,
		Height:        900,
		Headless:      true,
		CaptureFormat: "png",
		JPEGQuality:   90,
	}
}

// Surface drives a single Chromium page.
type Surface struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	opts     Options
	logger   *zap.Logger

	pointer image.Point
	pressed bool
	clicked bool
}

// Launch starts Chromium and opens a blank page sized to the configured viewport.
func Launch(opts Options, logger *zap.Logger) (*Surface, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("browser")

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-features", "Translate").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	} else if path, has := launcher.LookPath(); has {
		l = l.Bin(path)
	}
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	logger.Info("browser launched",
		zap.Bool("headless", opts.Headless),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)

	return &Surface{
		browser:  b,
		launcher: l,
		page:     page,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Page returns the underlying Rod page
func (s *Surface) Page() *rod.Page {
	return s.page
}

func (s *Surface) MoveMouse(x, y int, duration time.Duration) error {
	for _, step := range surface.Path(s.pointer, image.Pt(x, y), duration) {
		if err := s.page.Mouse.MoveTo(point(step.Point)); err != nil {
			return fmt.Errorf("mouse move failed: %w", err)
		}
		s.pointer = step.Point
		time.Sleep(step.Wait)
	}
	return nil
}

func (s *Surface) MouseDown(x, y int) error {
	if err := s.jump(x, y); err != nil {
		return err
	}
	if err := s.page.Mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("mouse down failed: %w", err)
	}
	s.pressed = true
	return nil
}

func (s *Surface) MouseUp(x, y int) error {
	if err := s.jump(x, y); err != nil {
		return err
	}
	if err := s.page.Mouse.Up(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("mouse up failed: %w", err)
	}
	s.pressed = false
	return nil
}

func (s *Surface) Click(x, y int) error {
	if err := s.jump(x, y); err != nil {
		return err
	}
	if err := s.page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	s.clicked = true
	return nil
}

// jump places the pointer at (x, y) unless it is already there.
func (s *Surface) jump(x, y int) error {
	if s.pointer == image.Pt(x, y) {
		return nil
	}
	return s.MoveMouse(x, y, 0)
}

func (s *Surface) KeyPress(token string) error {
	key, err := keyFor(token)
	if err != nil {
		return err
	}
	if err := s.page.Keyboard.Type(key); err != nil {
		return fmt.Errorf("key %q failed: %w", token, err)
	}
	return nil
}

func (s *Surface) KeyChord(tokens []string) error {
	keys, err := keysFor(tokens)
	if err != nil {
		return err
	}
	for i, key := range keys {
		if err := s.page.Keyboard.Press(key); err != nil {
			return fmt.Errorf("key %q down failed: %w", tokens[i], err)
		}
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if err := s.page.Keyboard.Release(keys[i]); err != nil {
			return fmt.Errorf("key %q up failed: %w", tokens[i], err)
		}
	}
	return nil
}

func (s *Surface) TypeRune(r rune) error {
	if key, ok := typeableKey(r); ok {
		if err := s.page.Keyboard.Type(key); err != nil {
			return fmt.Errorf("type failed: %w", err)
		}
		return nil
	}
	if err := s.page.InsertText(string(r)); err != nil {
		return fmt.Errorf("insert text failed: %w", err)
	}
	return nil
}

func (s *Surface) Scroll(amount int) error {
	x, y := wheelDelta(0, amount)
	return s.wheel(x, y)
}

func (s *Surface) HScroll(amount int) error {
	x, y := wheelDelta(amount, 0)
	return s.wheel(x, y)
}

func (s *Surface) wheel(x, y float64) error {
	if err := s.page.Mouse.Scroll(x, y, 1); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// wheelDelta converts left/up-positive amounts into DevTools wheel deltas,
// which are right/down-positive.
func wheelDelta(horizontal, vertical int) (float64, float64) {
	return float64(-horizontal), float64(-vertical)
}

func (s *Surface) Capture() (image.Image, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if s.opts.CaptureFormat == "jpeg" {
		req = &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: gson.Int(s.opts.JPEGQuality),
		}
	}

	data, err := s.page.Screenshot(false, req)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if !s.opts.ShowPointer {
		return img, nil
	}
	drawn := overlay.Draw(img, overlay.Pointer{
		X:       s.pointer.X,
		Y:       s.pointer.Y,
		Click:   s.clicked,
		Pressed: s.pressed,
	})
	s.clicked = false
	return drawn, nil
}

func (s *Surface) ScreenSize() (int, int, error) {
	res, err := s.page.Eval(`() => ({w: window.innerWidth, h: window.innerHeight})`)
	if err != nil {
		return 0, 0, fmt.Errorf("viewport query failed: %w", err)
	}
	return res.Value.Get("w").Int(), res.Value.Get("h").Int(), nil
}

// OpenURL starts navigation in the current tab. It returns once the navigation
// is committed, without waiting for the load event.
func (s *Surface) OpenURL(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *Surface) Back() error {
	if err := s.page.NavigateBack(); err != nil {
		return fmt.Errorf("history back failed: %w", err)
	}
	return nil
}

func (s *Surface) Forward() error {
	if err := s.page.NavigateForward(); err != nil {
		return fmt.Errorf("history forward failed: %w", err)
	}
	return nil
}

// SelectAll runs the page's selectAll editing command. CDP key events carry no
// editing commands, so command+a does nothing on macOS.
func (s *Surface) SelectAll() error {
	if _, err := s.page.Eval(`() => document.execCommand('selectAll')`); err != nil {
		return fmt.Errorf("select all failed: %w", err)
	}
	return nil
}

// Close cleans up browser resources
func (s *Surface) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	s.logger.Debug("browser closed")
	return err
}

func point(p image.Point) proto.Point {
	return proto.Point{X: float64(p.X), Y: float64(p.Y)}
}
