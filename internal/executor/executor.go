package executor

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/surface"
)

// DocumentScrollMagnitude is the scroll amount used by ScrollDocument.
const DocumentScrollMagnitude = 600

var (
	// ErrUnsupportedDirection is returned for a scroll direction outside up/down/left/right.
	ErrUnsupportedDirection = errors.New("unsupported scroll direction")
	// ErrEmptyKeyCombination is returned when KeyCombination receives no keys.
	ErrEmptyKeyCombination = errors.New("key combination needs at least one key")
)

// Direction is a scroll direction.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Size is a surface size in pixels.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether no size was set.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Config configures an Executor. It is copied at construction and never changed afterwards.
type Config struct {
	// ScreenSize, when set, is returned by ScreenSize instead of querying the surface.
	ScreenSize      Size
	InitialURL      string
	SearchEngineURL string
	// InitialLocation is the logical location before any navigation.
	InitialLocation string
	// HighlightMouse animates pointer moves over PointerMotion so a human can follow them.
	HighlightMouse bool

	UIDelay       time.Duration // settle after ordinary input
	NavigateDelay time.Duration // settle after handing a URL to the shell
	TypeInterval  time.Duration // pause between typed characters
	WaitDuration  time.Duration // length of Wait5Seconds
	PointerMotion time.Duration // animated move length when HighlightMouse is set

	SelectAllKeys      []string
	HistoryBackKeys    []string
	HistoryForwardKeys []string

	// ScreenshotMaxWidth downscales wider screenshots; zero keeps the native size.
	// Coordinates and ScreenSize stay in native surface pixels, so a caller that
	// picks points from a downscaled screenshot must scale them back up.
	ScreenshotMaxWidth int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	cfg := Config{
		InitialURL:      "https://www.google.com",
		SearchEngineURL: "https://www.google.com",
		InitialLocation: "about:blank",
		UIDelay:         500 * time.Millisecond,
		NavigateDelay:   2 * time.Second,
		TypeInterval:    10 * time.Millisecond,
		WaitDuration:    5 * time.Second,
		PointerMotion:   150 * time.Millisecond,
	}
	cfg.SelectAllKeys, cfg.HistoryBackKeys, cfg.HistoryForwardKeys = platformChords(runtime.GOOS)
	return cfg
}

// platformChords returns the select-all, history-back and history-forward chords for goos.
func platformChords(goos string) (selectAll, back, forward []string) {
	if goos == "darwin" {
		return []string{"command", "a"}, []string{"command", "["}, []string{"command", "]"}
	}
	return []string{"ctrl", "a"}, []string{"alt", "left"}, []string{"alt", "right"}
}

// withDefaults fills the string and chord fields left empty.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InitialURL == "" {
		c.InitialURL = def.InitialURL
	}
	if c.SearchEngineURL == "" {
		c.SearchEngineURL = def.SearchEngineURL
	}
	if c.InitialLocation == "" {
		c.InitialLocation = def.InitialLocation
	}
	if len(c.SelectAllKeys) == 0 {
		c.SelectAllKeys = def.SelectAllKeys
	}
	if len(c.HistoryBackKeys) == 0 {
		c.HistoryBackKeys = def.HistoryBackKeys
	}
	if len(c.HistoryForwardKeys) == 0 {
		c.HistoryForwardKeys = def.HistoryForwardKeys
	}
	c.SelectAllKeys = NormalizeKeys(c.SelectAllKeys)
	c.HistoryBackKeys = NormalizeKeys(c.HistoryBackKeys)
	c.HistoryForwardKeys = NormalizeKeys(c.HistoryForwardKeys)
	return c
}

// Option customises an Executor.
type Option func(*Executor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l == nil {
			l = zap.NewNop()
		}
		e.logger = l.Named("executor")
	}
}

// WithSleeper replaces time.Sleep for every settle delay.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// Executor runs the action vocabulary against a surface. Every action moves
// through act: input steps, a settle delay, then a fresh snapshot.
//
// An Executor is not safe for concurrent use; callers serialise actions.
type Executor struct {
	surface  surface.Surface
	cfg      Config
	location string
	logger   *zap.Logger
	sleep    func(time.Duration)
}

// New creates an executor driving s. Surface fail-safes are disabled here so
// long action sequences are not aborted by incidental pointer positions.
func New(s surface.Surface, cfg Config, opts ...Option) *Executor {
	cfg = cfg.withDefaults()
	e := &Executor{
		surface:  s,
		cfg:      cfg,
		location: cfg.InitialLocation,
		logger:   zap.NewNop(),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if fs, ok := s.(surface.FailSafeDisabler); ok {
		fs.DisableFailSafe()
	}
	return e
}

// Config returns the executor configuration.
func (e *Executor) Config() Config { return e.cfg }

// Location returns the current logical location.
func (e *Executor) Location() string { return e.location }

// Close releases the surface.
func (e *Executor) Close() error {
	return e.surface.Close()
}

// ScreenSize returns the configured override, or the live surface size.
func (e *Executor) ScreenSize() (int, int, error) {
	if !e.cfg.ScreenSize.IsZero() {
		return e.cfg.ScreenSize.Width, e.cfg.ScreenSize.Height, nil
	}
	w, h, err := e.surface.ScreenSize()
	if err != nil {
		return 0, 0, fmt.Errorf("screen_size: %w", err)
	}
	return w, h, nil
}

// OpenWebBrowser navigates to the configured initial URL.
func (e *Executor) OpenWebBrowser() (*Snapshot, error) {
	return e.navigate("open_web_browser", e.cfg.InitialURL)
}

// ClickAt moves to (x, y) and performs a primary click.
func (e *Executor) ClickAt(x, y int) (*Snapshot, error) {
	return e.act("click_at", e.cfg.UIDelay,
		e.move(x, y),
		func() error { return e.surface.Click(x, y) },
	)
}

// HoverAt moves the pointer to (x, y) without clicking.
func (e *Executor) HoverAt(x, y int) (*Snapshot, error) {
	return e.act("hover_at", e.cfg.UIDelay, e.move(x, y))
}

// TypeTextAt clicks (x, y) to focus it, optionally clears the existing content,
// types text one character at a time and optionally presses enter.
func (e *Executor) TypeTextAt(x, y int, text string, pressEnter, clearBeforeTyping bool) (*Snapshot, error) {
	steps := []step{
		e.move(x, y),
		func() error { return e.surface.Click(x, y) },
		e.settle(),
	}
	if clearBeforeTyping {
		steps = append(steps,
			e.selectAll(),
			func() error { return e.surface.KeyPress(NormalizeKey("delete")) },
			e.settle(),
		)
	}
	steps = append(steps, e.typeText(text))
	if pressEnter {
		steps = append(steps,
			e.settle(),
			func() error { return e.surface.KeyPress(NormalizeKey("enter")) },
		)
	}
	return e.act("type_text_at", e.cfg.UIDelay, steps...)
}

// ScrollDocument scrolls the whole surface by DocumentScrollMagnitude around its center.
func (e *Executor) ScrollDocument(direction Direction) (*Snapshot, error) {
	if err := validateDirection(direction); err != nil {
		return nil, fmt.Errorf("scroll_document: %w", err)
	}
	w, h, err := e.ScreenSize()
	if err != nil {
		return nil, fmt.Errorf("scroll_document: %w", err)
	}
	return e.ScrollAt(w/2, h/2, direction, DocumentScrollMagnitude)
}

// ScrollAt moves to (x, y) and scrolls by magnitude. Up and left scroll by a
// positive amount, down and right by a negative one.
func (e *Executor) ScrollAt(x, y int, direction Direction, magnitude int) (*Snapshot, error) {
	if err := validateDirection(direction); err != nil {
		return nil, fmt.Errorf("scroll_at: %w", err)
	}

	var scroll step
	switch direction {
	case Up:
		scroll = func() error { return e.surface.Scroll(magnitude) }
	case Down:
		scroll = func() error { return e.surface.Scroll(-magnitude) }
	case Left:
		scroll = func() error { return e.surface.HScroll(magnitude) }
	case Right:
		scroll = func() error { return e.surface.HScroll(-magnitude) }
	}
	return e.act("scroll_at", e.cfg.UIDelay, e.move(x, y), scroll)
}

// Wait5Seconds waits for background changes, then snapshots.
func (e *Executor) Wait5Seconds() (*Snapshot, error) {
	return e.act("wait_5_seconds", e.cfg.WaitDuration)
}

// GoBack steps back in history. The logical location is not updated: the
// destination is unknown to the executor.
func (e *Executor) GoBack() (*Snapshot, error) {
	if h, ok := e.surface.(surface.HistoryNavigator); ok {
		return e.act("go_back", e.cfg.UIDelay, h.Back)
	}
	return e.act("go_back", e.cfg.UIDelay, e.chord(e.cfg.HistoryBackKeys))
}

// GoForward steps forward in history. Like GoBack, it leaves the location alone.
func (e *Executor) GoForward() (*Snapshot, error) {
	if h, ok := e.surface.(surface.HistoryNavigator); ok {
		return e.act("go_forward", e.cfg.UIDelay, h.Forward)
	}
	return e.act("go_forward", e.cfg.UIDelay, e.chord(e.cfg.HistoryForwardKeys))
}

// Search navigates to the configured search engine.
func (e *Executor) Search() (*Snapshot, error) {
	return e.navigate("search", e.cfg.SearchEngineURL)
}

// Navigate opens url through the surface shell and records it as the location.
// A url without an http:// or https:// prefix gets https://.
func (e *Executor) Navigate(url string) (*Snapshot, error) {
	return e.navigate("navigate", url)
}

func (e *Executor) navigate(op, url string) (*Snapshot, error) {
	normalized := NormalizeURL(url)
	return e.act(op, e.cfg.NavigateDelay, func() error {
		if err := e.surface.OpenURL(normalized); err != nil {
			return err
		}
		e.location = normalized
		return nil
	})
}

// NormalizeURL prefixes https:// unless url already carries an http(s) scheme.
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// KeyCombination normalizes keys and sends them as one chord.
func (e *Executor) KeyCombination(keys []string) (*Snapshot, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("key_combination: %w", ErrEmptyKeyCombination)
	}
	return e.act("key_combination", e.cfg.UIDelay, e.chord(NormalizeKeys(keys)))
}

// DragAndDrop presses the primary button at (x, y), moves to the destination
// and releases it there. No snapshot is taken mid-drag.
func (e *Executor) DragAndDrop(x, y, destX, destY int) (*Snapshot, error) {
	return e.act("drag_and_drop", e.cfg.UIDelay,
		e.move(x, y),
		func() error { return e.surface.MouseDown(x, y) },
		e.settle(),
		e.move(destX, destY),
		func() error { return e.surface.MouseUp(destX, destY) },
	)
}

// CurrentState captures the surface and pairs it with the logical location.
func (e *Executor) CurrentState() (*Snapshot, error) {
	img, err := e.surface.Capture()
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return e.snapshot(img)
}

func (e *Executor) snapshot(img image.Image) (*Snapshot, error) {
	data, err := encodeScreenshot(img, e.cfg.ScreenshotMaxWidth)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Screenshot: data, Location: e.location}, nil
}

// step is one physical sub-step of an action.
type step func() error

// act runs steps in order, settles for delay and captures a snapshot. The first
// failing step aborts the action; no snapshot is returned for it.
func (e *Executor) act(op string, delay time.Duration, steps ...step) (*Snapshot, error) {
	start := time.Now()
	for _, s := range steps {
		if err := s(); err != nil {
			e.logger.Warn("action failed", zap.String("action", op), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	e.sleep(delay)

	snap, err := e.CurrentState()
	if err != nil {
		e.logger.Warn("snapshot failed", zap.String("action", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.logger.Debug("action completed",
		zap.String("action", op),
		zap.String("location", snap.Location),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap, nil
}

func (e *Executor) move(x, y int) step {
	return func() error {
		var d time.Duration
		if e.cfg.HighlightMouse {
			d = e.cfg.PointerMotion
		}
		return e.surface.MoveMouse(x, y, d)
	}
}

func (e *Executor) settle() step {
	return func() error {
		e.sleep(e.cfg.UIDelay)
		return nil
	}
}

// selectAll prefers the surface's own select-all command over the chord.
func (e *Executor) selectAll() step {
	if sa, ok := e.surface.(surface.SelectAller); ok {
		return sa.SelectAll
	}
	return e.chord(e.cfg.SelectAllKeys)
}

func (e *Executor) chord(tokens []string) step {
	return func() error { return e.surface.KeyChord(tokens) }
}

func (e *Executor) typeText(text string) step {
	return func() error {
		for _, r := range text {
			if err := e.surface.TypeRune(r); err != nil {
				return fmt.Errorf("type %q: %w", r, err)
			}
			e.sleep(e.cfg.TypeInterval)
		}
		return nil
	}
}

func validateDirection(d Direction) error {
	switch d {
	case Up, Down, Left, Right:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedDirection, string(d))
}
