// Package config loads deskpilot settings from defaults, an optional YAML
// file, DESKPILOT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/v0xg/deskpilot/internal/executor"
	"github.com/v0xg/deskpilot/internal/recorder"
	"github.com/v0xg/deskpilot/internal/surface/browser"
	"github.com/v0xg/deskpilot/internal/surface/desktop"
)

// EnvPrefix prefixes every environment override, e.g. DESKPILOT_TIMING_UI_DELAY.
const EnvPrefix = "DESKPILOT"

const (
	SurfaceBrowser = "browser"
	SurfaceDesktop = "desktop"
)

// Initial logical locations per surface kind.
const (
	browserInitialLocation = "about:blank"
	desktopInitialLocation = "desktop://"
)

// Config is the full application configuration.
type Config struct {
	Surface         string           `mapstructure:"surface" yaml:"surface"`
	InitialURL      string           `mapstructure:"initial_url" yaml:"initial_url"`
	SearchEngineURL string           `mapstructure:"search_engine_url" yaml:"search_engine_url"`
	HighlightMouse  bool             `mapstructure:"highlight_mouse" yaml:"highlight_mouse"`
	ScreenSize      string           `mapstructure:"screen_size" yaml:"screen_size"`
	Timing          TimingConfig     `mapstructure:"timing" yaml:"timing"`
	Keys            KeysConfig       `mapstructure:"keys" yaml:"keys"`
	Screenshot      ScreenshotConfig `mapstructure:"screenshot" yaml:"screenshot"`
	Browser         BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Desktop         DesktopConfig    `mapstructure:"desktop" yaml:"desktop"`
	Recorder        RecorderConfig   `mapstructure:"recorder" yaml:"recorder"`
	Logger          LoggerConfig     `mapstructure:"logger" yaml:"logger"`
}

// TimingConfig holds the settle and pacing delays.
type TimingConfig struct {
	UIDelay       time.Duration `mapstructure:"ui_delay" yaml:"ui_delay"`
	NavigateDelay time.Duration `mapstructure:"navigate_delay" yaml:"navigate_delay"`
	TypeInterval  time.Duration `mapstructure:"type_interval" yaml:"type_interval"`
	WaitDuration  time.Duration `mapstructure:"wait_duration" yaml:"wait_duration"`
	PointerMotion time.Duration `mapstructure:"pointer_motion" yaml:"pointer_motion"`
}

// KeysConfig overrides the platform chords. Empty means the platform default.
type KeysConfig struct {
	SelectAll      []string `mapstructure:"select_all" yaml:"select_all"`
	HistoryBack    []string `mapstructure:"history_back" yaml:"history_back"`
	HistoryForward []string `mapstructure:"history_forward" yaml:"history_forward"`
}

// ScreenshotConfig bounds snapshot images. Coordinates stay in surface pixels
// whatever MaxWidth is.
type ScreenshotConfig struct {
	MaxWidth int `mapstructure:"max_width" yaml:"max_width"`
}

// BrowserConfig configures the Chromium surface.
type BrowserConfig struct {
	Headless      bool   `mapstructure:"headless" yaml:"headless"`
	Width         int    `mapstructure:"width" yaml:"width"`
	Height        int    `mapstructure:"height" yaml:"height"`
	ProfileDir    string `mapstructure:"profile_dir" yaml:"profile_dir"`
	Bin           string `mapstructure:"bin" yaml:"bin"`
	CaptureFormat string `mapstructure:"capture_format" yaml:"capture_format"`
	JPEGQuality   int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
}

// DesktopConfig configures the X11 surface.
type DesktopConfig struct {
	Display   string `mapstructure:"display" yaml:"display"`
	WheelStep int    `mapstructure:"wheel_step" yaml:"wheel_step"`
}

// RecorderConfig configures GIF session recording.
type RecorderConfig struct {
	FPS      int  `mapstructure:"fps" yaml:"fps"`
	MaxWidth uint `mapstructure:"max_width" yaml:"max_width"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("surface", SurfaceBrowser)
	v.SetDefault("initial_url", "https://www.google.com")
	v.SetDefault("search_engine_url", "https://www.google.com")
	v.SetDefault("highlight_mouse", false)
	v.SetDefault("screen_size", "")

	// -- Timing --
	v.SetDefault("timing.ui_delay", "500ms")
	v.SetDefault("timing.navigate_delay", "2s")
	v.SetDefault("timing.type_interval", "10ms")
	v.SetDefault("timing.wait_duration", "5s")
	v.SetDefault("timing.pointer_motion", "150ms")

	// -- Keys --
	v.SetDefault("keys.select_all", []string{})
	v.SetDefault("keys.history_back", []string{})
	v.SetDefault("keys.history_forward", []string{})

	v.SetDefault("screenshot.max_width", 0)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.width", 1440)
	v.SetDefault("browser.height", 900)
	v.SetDefault("browser.profile_dir", "")
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.capture_format", "png")
	v.SetDefault("browser.jpeg_quality", 90)

	// -- Desktop --
	v.SetDefault("desktop.display", "")
	v.SetDefault("desktop.wheel_step", desktop.DefaultWheelStep)

	// -- Recorder --
	v.SetDefault("recorder.fps", 2)
	v.SetDefault("recorder.max_width", 800)

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
}

// NewViper returns a viper instance with defaults and environment overrides wired.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the YAML file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	switch c.Surface {
	case SurfaceBrowser, SurfaceDesktop:
	default:
		return fmt.Errorf("surface must be %q or %q, got %q", SurfaceBrowser, SurfaceDesktop, c.Surface)
	}
	if _, err := ParseScreenSize(c.ScreenSize); err != nil {
		return err
	}

	timings := map[string]time.Duration{
		"timing.ui_delay":       c.Timing.UIDelay,
		"timing.navigate_delay": c.Timing.NavigateDelay,
		"timing.type_interval":  c.Timing.TypeInterval,
		"timing.wait_duration":  c.Timing.WaitDuration,
		"timing.pointer_motion": c.Timing.PointerMotion,
	}
	for key, d := range timings {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	if c.Screenshot.MaxWidth < 0 {
		return errors.New("screenshot.max_width must not be negative")
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return errors.New("browser.width and browser.height must be positive integers")
	}
	switch c.Browser.CaptureFormat {
	case "png", "jpeg":
	default:
		return fmt.Errorf("browser.capture_format must be png or jpeg, got %q", c.Browser.CaptureFormat)
	}
	if c.Browser.JPEGQuality < 1 || c.Browser.JPEGQuality > 100 {
		return errors.New("browser.jpeg_quality must be between 1 and 100")
	}
	if c.Recorder.FPS <= 0 || c.Recorder.FPS > 100 {
		return errors.New("recorder.fps must be between 1 and 100")
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	return nil
}

// ParseScreenSize parses "WIDTHxHEIGHT". The empty string yields a zero size.
func ParseScreenSize(s string) (executor.Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return executor.Size{}, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return executor.Size{}, fmt.Errorf("screen_size %q must look like 1440x900", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return executor.Size{}, fmt.Errorf("screen_size %q must look like 1440x900", s)
	}
	return executor.Size{Width: width, Height: height}, nil
}

// Executor builds the executor configuration. Call it on a validated Config.
func (c *Config) Executor() executor.Config {
	ec := executor.DefaultConfig()
	ec.ScreenSize, _ = ParseScreenSize(c.ScreenSize)
	ec.InitialURL = c.InitialURL
	ec.SearchEngineURL = c.SearchEngineURL
	ec.HighlightMouse = c.HighlightMouse
	ec.UIDelay = c.Timing.UIDelay
	ec.NavigateDelay = c.Timing.NavigateDelay
	ec.TypeInterval = c.Timing.TypeInterval
	ec.WaitDuration = c.Timing.WaitDuration
	ec.PointerMotion = c.Timing.PointerMotion
	ec.ScreenshotMaxWidth = c.Screenshot.MaxWidth

	ec.InitialLocation = browserInitialLocation
	if c.Surface == SurfaceDesktop {
		ec.InitialLocation = desktopInitialLocation
	}

	if len(c.Keys.SelectAll) > 0 {
		ec.SelectAllKeys = c.Keys.SelectAll
	}
	if len(c.Keys.HistoryBack) > 0 {
		ec.HistoryBackKeys = c.Keys.HistoryBack
	}
	if len(c.Keys.HistoryForward) > 0 {
		ec.HistoryForwardKeys = c.Keys.HistoryForward
	}
	return ec
}

// BrowserOptions builds the Chromium surface options.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Width:         c.Browser.Width,
		Height:        c.Browser.Height,
		Headless:      c.Browser.Headless,
		ProfileDir:    c.Browser.ProfileDir,
		Bin:           c.Browser.Bin,
		ShowPointer:   c.HighlightMouse,
		CaptureFormat: c.Browser.CaptureFormat,
		JPEGQuality:   c.Browser.JPEGQuality,
	}
}

// DesktopOptions builds the X11 surface options.
func (c *Config) DesktopOptions() desktop.Options {
	return desktop.Options{
		Display:   c.Desktop.Display,
		WheelStep: c.Desktop.WheelStep,
	}
}

// RecorderOptions builds the GIF recorder options.
func (c *Config) RecorderOptions() recorder.Options {
	return recorder.Options{
		FPS:      c.Recorder.FPS,
		MaxWidth: c.Recorder.MaxWidth,
	}
}
