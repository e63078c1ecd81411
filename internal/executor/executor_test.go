package executor

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/v0xg/deskpilot/internal/surface/surfacetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SelectAllKeys = []string{"cmd", "a"}
	cfg.HistoryBackKeys = []string{"cmd", "["}
	cfg.HistoryForwardKeys = []string{"cmd", "]"}
	return cfg
}

func newTestExecutor(t *testing.T, cfg Config) (*Executor, *surfacetest.Recorder) {
	t.Helper()
	rec := surfacetest.NewRecorder(64, 48)
	e := New(rec, cfg, WithSleeper(rec.Sleep), WithLogger(zaptest.NewLogger(t)))
	return e, rec
}

// -- Scroll --

func TestScrollAt_SignPerDirection(t *testing.T) {
	tests := []struct {
		direction Direction
		want      string
	}{
		{Up, "Scroll(50)"},
		{Down, "Scroll(-50)"},
		{Left, "HScroll(50)"},
		{Right, "HScroll(-50)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			e, rec := newTestExecutor(t, testConfig())

			snap, err := e.ScrollAt(100, 100, tt.direction, 50)
			require.NoError(t, err)
			require.NotNil(t, snap)

			assert.Equal(t, []string{"MoveMouse(100,100)", tt.want, "Sleep(500ms)"}, rec.Trace())
		})
	}
}

func TestScrollAt_RightScenario(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.ScrollAt(100, 100, "right", 50)
	require.NoError(t, err)

	require.Equal(t, 1, rec.Count("HScroll"))
	for _, c := range rec.Calls {
		if c.Method == "HScroll" {
			assert.Equal(t, -50, c.Amount)
		}
	}
	assert.Zero(t, rec.Count("Scroll"))
}

func TestScrollAt_UnsupportedDirectionNeverReachesSurface(t *testing.T) {
	for _, d := range []Direction{"", "sideways", "UP", "top"} {
		t.Run(string(d), func(t *testing.T) {
			e, rec := newTestExecutor(t, testConfig())

			snap, err := e.ScrollAt(1, 2, d, 10)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, ErrUnsupportedDirection)
			assert.Empty(t, rec.Calls)

			snap, err = e.ScrollDocument(d)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, ErrUnsupportedDirection)
			assert.Empty(t, rec.Calls)
		})
	}
}

func TestScrollDocument_ScrollsAroundCenter(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.ScrollDocument(Down)
	require.NoError(t, err)

	assert.Equal(t, []string{"ScreenSize()", "MoveMouse(32,24)", "Scroll(-600)", "Sleep(500ms)"}, rec.Trace())
}

func TestScrollDocument_UsesOverrideForCenter(t *testing.T) {
	cfg := testConfig()
	cfg.ScreenSize = Size{Width: 1000, Height: 800}
	e, rec := newTestExecutor(t, cfg)

	_, err := e.ScrollDocument(Left)
	require.NoError(t, err)

	assert.Equal(t, []string{"MoveMouse(500,400)", "HScroll(600)", "Sleep(500ms)"}, rec.Trace())
}

// -- Navigation --

func TestNavigate_NormalizesURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"https://example.com/a?b=c", "https://example.com/a?b=c"},
		{"http://plain.test", "http://plain.test"},
		{"ftp://files.test", "https://ftp://files.test"},
		{"", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e, rec := newTestExecutor(t, testConfig())

			snap, err := e.Navigate(tt.in)
			require.NoError(t, err)

			assert.Equal(t, tt.want, snap.Location)
			assert.Equal(t, tt.want, e.Location())
			assert.Equal(t, []string{"OpenURL(" + tt.want + ")", "Sleep(2s)"}, rec.Trace())
		})
	}
}

func TestOpenWebBrowser_Scenario(t *testing.T) {
	cfg := testConfig()
	cfg.InitialURL = "https://www.google.com"
	e, _ := newTestExecutor(t, cfg)

	snap, err := e.OpenWebBrowser()
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com", snap.Location)
}

func TestSearch_UsesSearchEngineURL(t *testing.T) {
	cfg := testConfig()
	cfg.SearchEngineURL = "duckduckgo.com"
	e, rec := newTestExecutor(t, cfg)

	snap, err := e.Search()
	require.NoError(t, err)
	assert.Equal(t, "https://duckduckgo.com", snap.Location)
	assert.Equal(t, []string{"OpenURL(https://duckduckgo.com)", "Sleep(2s)"}, rec.Trace())
}

func TestNavigate_FailedOpenKeepsLocation(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())
	boom := errors.New("no shell")
	rec.Errors["OpenURL"] = boom

	snap, err := e.Navigate("example.com")
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "about:blank", e.Location())
	assert.Zero(t, rec.Count("Capture"))
}

func TestLocation_UnchangedByNonNavigationActions(t *testing.T) {
	e, _ := newTestExecutor(t, testConfig())
	_, err := e.Navigate("example.com")
	require.NoError(t, err)

	actions := map[string]func() (*Snapshot, error){
		"click":    func() (*Snapshot, error) { return e.ClickAt(1, 1) },
		"hover":    func() (*Snapshot, error) { return e.HoverAt(2, 2) },
		"type":     func() (*Snapshot, error) { return e.TypeTextAt(3, 3, "x", true, true) },
		"scroll":   func() (*Snapshot, error) { return e.ScrollAt(4, 4, Up, 10) },
		"document": func() (*Snapshot, error) { return e.ScrollDocument(Down) },
		"drag":     func() (*Snapshot, error) { return e.DragAndDrop(1, 1, 9, 9) },
		"wait":     e.Wait5Seconds,
		"keys":     func() (*Snapshot, error) { return e.KeyCombination([]string{"ctrl", "c"}) },
		"back":     e.GoBack,
		"forward":  e.GoForward,
		"current":  e.CurrentState,
	}
	for name, act := range actions {
		t.Run(name, func(t *testing.T) {
			snap, err := act()
			require.NoError(t, err)
			assert.Equal(t, "https://example.com", snap.Location)

			state, err := e.CurrentState()
			require.NoError(t, err)
			assert.Equal(t, "https://example.com", state.Location)
		})
	}
}

func TestInitialLocation(t *testing.T) {
	cfg := testConfig()
	cfg.InitialLocation = "desktop://"
	e, _ := newTestExecutor(t, cfg)

	snap, err := e.CurrentState()
	require.NoError(t, err)
	assert.Equal(t, "desktop://", snap.Location)
}

// -- History --

func TestGoBackForward_KeyChordWithoutHistoryNavigator(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.GoBack()
	require.NoError(t, err)
	_, err = e.GoForward()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"KeyChord(command+[)", "Sleep(500ms)",
		"KeyChord(command+])", "Sleep(500ms)",
	}, rec.Trace())
}

func TestGoBackForward_PrefersHistoryNavigator(t *testing.T) {
	hist := surfacetest.NewHistoryRecorder(32, 32)
	e := New(hist, testConfig(), WithSleeper(hist.Sleep))
	_, err := e.Navigate("a.test")
	require.NoError(t, err)
	hist.Reset()

	snap, err := e.GoBack()
	require.NoError(t, err)
	assert.Equal(t, "https://a.test", snap.Location)

	snap, err = e.GoForward()
	require.NoError(t, err)
	assert.Equal(t, "https://a.test", snap.Location)

	assert.Equal(t, []string{"Back()", "Sleep(500ms)", "Forward()", "Sleep(500ms)"}, hist.Trace())
	assert.Zero(t, hist.Count("KeyChord"))
}

func TestTypeTextAt_PrefersSurfaceSelectAll(t *testing.T) {
	sa := surfacetest.NewSelectAllRecorder(32, 32)
	e := New(sa, testConfig(), WithSleeper(sa.Sleep))

	_, err := e.TypeTextAt(3, 4, "x", false, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MoveMouse(3,4)", "Click(3,4)", "Sleep(500ms)",
		"SelectAll()", "KeyPress(delete)", "Sleep(500ms)",
		"TypeRune(x)", "Sleep(10ms)",
		"Sleep(500ms)",
	}, sa.Trace())
	assert.Zero(t, sa.Count("KeyChord"))
}

func TestTypeTextAt_SelectAllErrorStopsBeforeDelete(t *testing.T) {
	sa := surfacetest.NewSelectAllRecorder(32, 32)
	sa.Errors["SelectAll"] = errors.New("no focused element")
	e := New(sa, testConfig(), WithSleeper(sa.Sleep))

	snap, err := e.TypeTextAt(3, 4, "x", false, true)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, sa.Errors["SelectAll"])
	assert.Zero(t, sa.Count("KeyPress"))
	assert.Zero(t, sa.Count("TypeRune"))
}

// -- Typing --

func TestTypeTextAt_FullSequenceOrder(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.TypeTextAt(10, 20, "hi", true, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MoveMouse(10,20)",
		"Click(10,20)",
		"Sleep(500ms)",
		"KeyChord(command+a)",
		"KeyPress(delete)",
		"Sleep(500ms)",
		"TypeRune(h)",
		"Sleep(10ms)",
		"TypeRune(i)",
		"Sleep(10ms)",
		"Sleep(500ms)",
		"KeyPress(enter)",
		"Sleep(500ms)",
	}, rec.Trace())
	assert.Equal(t, "Capture", rec.Calls[len(rec.Calls)-1].Method)
}

func TestTypeTextAt_PlainTyping(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.TypeTextAt(5, 5, "é", false, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MoveMouse(5,5)", "Click(5,5)", "Sleep(500ms)",
		"TypeRune(é)", "Sleep(10ms)",
		"Sleep(500ms)",
	}, rec.Trace())
	assert.Zero(t, rec.Count("KeyChord"))
	assert.Zero(t, rec.Count("KeyPress"))
}

func TestTypeTextAt_StopsOnTypingError(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())
	rec.Errors["TypeRune"] = errors.New("stuck key")

	snap, err := e.TypeTextAt(1, 1, "abc", true, false)
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type_text_at")
	assert.Equal(t, 1, rec.Count("TypeRune"))
	assert.Zero(t, rec.Count("KeyPress"))
	assert.Zero(t, rec.Count("Capture"))
}

// -- Keys --

func TestKeyCombination_NormalizesChord(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.KeyCombination([]string{"cmd", "a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"KeyChord(command+a)", "Sleep(500ms)"}, rec.Trace())
}

func TestKeyCombination_EmptyIsCallerError(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	for _, keys := range [][]string{nil, {}} {
		snap, err := e.KeyCombination(keys)
		assert.Nil(t, snap)
		assert.ErrorIs(t, err, ErrEmptyKeyCombination)
	}
	assert.Empty(t, rec.Calls)
}

// -- Pointer --

func TestClickAndHover(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.ClickAt(-5, 99999)
	require.NoError(t, err)
	_, err = e.HoverAt(7, 8)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MoveMouse(-5,99999)", "Click(-5,99999)", "Sleep(500ms)",
		"MoveMouse(7,8)", "Sleep(500ms)",
	}, rec.Trace())
}

func TestDragAndDrop_Sequence(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.DragAndDrop(1, 2, 30, 40)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MoveMouse(1,2)", "MouseDown(1,2)", "Sleep(500ms)",
		"MoveMouse(30,40)", "MouseUp(30,40)", "Sleep(500ms)",
	}, rec.Trace())
	assert.Equal(t, 1, rec.Count("Capture"), "no snapshot is taken mid-drag")
}

func TestHighlightMouse_AnimatesMoves(t *testing.T) {
	cfg := testConfig()
	cfg.HighlightMouse = true
	e, rec := newTestExecutor(t, cfg)

	_, err := e.HoverAt(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, rec.Calls[0].Duration)

	e2, rec2 := newTestExecutor(t, testConfig())
	_, err = e2.HoverAt(3, 4)
	require.NoError(t, err)
	assert.Zero(t, rec2.Calls[0].Duration)
}

// -- Errors --

func TestSurfaceErrorsPropagate(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())
	boom := errors.New("pointer unavailable")
	rec.Errors["MoveMouse"] = boom

	snap, err := e.ClickAt(1, 1)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, rec.Count("Click"))
	assert.Zero(t, rec.Count("Capture"))
}

func TestCaptureErrorPropagates(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())
	boom := errors.New("display gone")
	rec.Errors["Capture"] = boom

	snap, err := e.HoverAt(1, 1)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, boom)
}

// -- Misc --

func TestWait5Seconds(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())

	_, err := e.Wait5Seconds()
	require.NoError(t, err)
	assert.Equal(t, []string{"Sleep(5s)"}, rec.Trace())
}

func TestScreenSize(t *testing.T) {
	t.Run("override verbatim", func(t *testing.T) {
		cfg := testConfig()
		cfg.ScreenSize = Size{Width: 1440, Height: 900}
		e, rec := newTestExecutor(t, cfg)

		w, h, err := e.ScreenSize()
		require.NoError(t, err)
		assert.Equal(t, 1440, w)
		assert.Equal(t, 900, h)
		assert.Zero(t, rec.Count("ScreenSize"))
	})

	t.Run("live query", func(t *testing.T) {
		e, rec := newTestExecutor(t, testConfig())

		w, h, err := e.ScreenSize()
		require.NoError(t, err)
		assert.Equal(t, 64, w)
		assert.Equal(t, 48, h)
		assert.Equal(t, 1, rec.Count("ScreenSize"))
	})
}

func TestSnapshot_IsPNG(t *testing.T) {
	e, _ := newTestExecutor(t, testConfig())

	snap, err := e.CurrentState()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(snap.Screenshot))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	again, err := e.CurrentState()
	require.NoError(t, err)
	snap.Screenshot[0] = 0
	assert.NotEqual(t, snap.Screenshot[0], again.Screenshot[0], "snapshots never share buffers")
}

func TestScreenSize_StaysNativeWhenScreenshotsDownscale(t *testing.T) {
	cfg := testConfig()
	cfg.ScreenshotMaxWidth = 32
	e, rec := newTestExecutor(t, cfg)

	w, h, err := e.ScreenSize()
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	_, err = e.ClickAt(60, 40)
	require.NoError(t, err)
	assert.Contains(t, rec.Trace(), "Click(60,40)", "coordinates are not rescaled")
}

func TestWithLogger_NilFallsBackToNop(t *testing.T) {
	rec := surfacetest.NewRecorder(8, 8)
	var e *Executor
	require.NotPanics(t, func() { e = New(rec, testConfig(), WithLogger(nil), WithSleeper(rec.Sleep)) })

	_, err := e.CurrentState()
	assert.NoError(t, err)
}

func TestSnapshot_MaxWidthDownscales(t *testing.T) {
	cfg := testConfig()
	cfg.ScreenshotMaxWidth = 32
	e, _ := newTestExecutor(t, cfg)

	snap, err := e.CurrentState()
	require.NoError(t, err)

	img, err := snap.Image()
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestNew_DisablesFailSafeAndFillsDefaults(t *testing.T) {
	rec := surfacetest.NewRecorder(8, 8)
	e := New(rec, Config{})

	assert.True(t, rec.FailSafeDisabled)
	cfg := e.Config()
	assert.Equal(t, "https://www.google.com", cfg.InitialURL)
	assert.Equal(t, "https://www.google.com", cfg.SearchEngineURL)
	assert.Equal(t, "about:blank", e.Location())
	assert.NotEmpty(t, cfg.SelectAllKeys)
	assert.NotEmpty(t, cfg.HistoryBackKeys)
	assert.NotEmpty(t, cfg.HistoryForwardKeys)
}

func TestPlatformChords(t *testing.T) {
	selectAll, back, forward := platformChords("darwin")
	assert.Equal(t, []string{"command", "a"}, selectAll)
	assert.Equal(t, []string{"command", "["}, back)
	assert.Equal(t, []string{"command", "]"}, forward)

	selectAll, back, forward = platformChords("linux")
	assert.Equal(t, []string{"ctrl", "a"}, selectAll)
	assert.Equal(t, []string{"alt", "left"}, back)
	assert.Equal(t, []string{"alt", "right"}, forward)
}

func TestClose(t *testing.T) {
	e, rec := newTestExecutor(t, testConfig())
	require.NoError(t, e.Close())
	assert.True(t, rec.Closed)
}
