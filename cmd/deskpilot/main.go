package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/config"
	"github.com/v0xg/deskpilot/internal/executor"
	"github.com/v0xg/deskpilot/internal/observability"
	"github.com/v0xg/deskpilot/internal/recorder"
	"github.com/v0xg/deskpilot/internal/surface"
	"github.com/v0xg/deskpilot/internal/surface/browser"
	"github.com/v0xg/deskpilot/internal/surface/desktop"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// flagKeys maps root persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"surface":         "surface",
	"highlight-mouse": "highlight_mouse",
	"screen-size":     "screen_size",
	"headless":        "browser.headless",
	"profile":         "browser.profile_dir",
	"display":         "desktop.display",
	"log-level":       "logger.level",
}

// app carries the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger

	openSurface func(*config.Config, *zap.Logger) (surface.Surface, error)
	newRecorder func(recorder.Options, *zap.Logger) sessionRecorder
	// sleep replaces time.Sleep in the executor when set.
	sleep func(time.Duration)
}

// sessionRecorder collects snapshots into the --record GIF.
type sessionRecorder interface {
	Add(*executor.Snapshot) error
	Len() int
	WriteFile(path string) (int64, error)
}

func newApp() *app {
	return &app{
		v:           config.NewViper(),
		openSurface: openSurface,
		newRecorder: func(opts recorder.Options, logger *zap.Logger) sessionRecorder {
			return recorder.New(opts, logger)
		},
	}
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "deskpilot",
		Short: "Execute computer-use actions against a browser or desktop",
		Long: `deskpilot turns high-level computer-use actions (click_at, type_text_at,
scroll_document, navigate, ...) into pointer, keyboard and shell operations on a
Chromium page or an X11 desktop, returning a screenshot and location after each.

Example:
  deskpilot do navigate example.com --output page.png
  deskpilot run session.yaml --record session.gif`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.init(cmd) },
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	flags.String("surface", "", "surface to drive: browser or desktop")
	flags.Bool("highlight-mouse", false, "animate pointer moves and draw the pointer")
	flags.String("screen-size", "", "report this size (WIDTHxHEIGHT) instead of querying the surface")
	flags.Bool("headless", true, "run the browser without a window")
	flags.String("profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	flags.String("display", "", "X display for the desktop surface")
	flags.String("log-level", "", "debug, info, warn or error")

	root.AddCommand(newRunCmd(a), newDoCmd(a), newKeysCmd(), newVersionCmd())
	return root
}

// init binds flags, reads the config file and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger == nil {
		a.logger = observability.NewStderrLogger(cfg.Logger)
	}
	return nil
}

// executor opens the configured surface and wraps it in an executor.
func (a *app) executor() (*executor.Executor, error) {
	s, err := a.openSurface(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s surface: %w", a.cfg.Surface, err)
	}
	opts := []executor.Option{executor.WithLogger(a.logger)}
	if a.sleep != nil {
		opts = append(opts, executor.WithSleeper(a.sleep))
	}
	return executor.New(s, a.cfg.Executor(), opts...), nil
}

func (a *app) close(e *executor.Executor) {
	if err := e.Close(); err != nil {
		a.logger.Warn("failed to close surface", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openSurface(cfg *config.Config, logger *zap.Logger) (surface.Surface, error) {
	if cfg.Surface == config.SurfaceDesktop {
		return desktop.New(cfg.DesktopOptions(), logger), nil
	}
	s, err := browser.Launch(cfg.BrowserOptions(), logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deskpilot %s\n", Version)
		},
	}
}
