package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/v0xg/deskpilot/internal/executor"
)

// doFlags are the optional action fields the do command takes as flags.
type doFlags struct {
	pressEnter bool
	clear      bool
}

type doReport struct {
	Action     string `yaml:"action"`
	Location   string `yaml:"url"`
	Screenshot string `yaml:"screenshot,omitempty"`
}

func newDoCmd(a *app) *cobra.Command {
	var (
		flags  doFlags
		output string
	)

	valid := make([]string, 0, len(executor.ActionTypes()))
	for _, t := range executor.ActionTypes() {
		valid = append(valid, string(t))
	}

	cmd := &cobra.Command{
		Use:   "do <action> [args...]",
		Short: "Execute a single action",
		Long: `Execute a single action and print the resulting location.

Arguments by action:
  click_at X Y                  hover_at X Y
  type_text_at X Y TEXT...      scroll_document up|down|left|right
  scroll_at X Y DIR [AMOUNT]    navigate URL
  key_combination KEY...        drag_and_drop X Y DEST_X DEST_Y
  open_web_browser, wait_5_seconds, go_back, go_forward, search, current_state`,
		Example:   "  deskpilot do key_combination ctrl+a\n  deskpilot do type_text_at 300 120 hello --enter",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := parseAction(args[0], args[1:], flags)
			if err != nil {
				return err
			}

			e, err := a.executor()
			if err != nil {
				return err
			}
			defer a.close(e)

			snap, err := e.Do(act)
			if err != nil {
				return err
			}

			report := doReport{Action: act.String(), Location: snap.Location}
			if output != "" {
				if err := os.WriteFile(output, snap.Screenshot, 0o644); err != nil {
					return fmt.Errorf("failed to write screenshot: %w", err)
				}
				report.Screenshot = output
			}
			return writeYAML(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&flags.pressEnter, "enter", false, "type_text_at: press enter after typing")
	cmd.Flags().BoolVar(&flags.clear, "clear", false, "type_text_at: clear the field before typing")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the screenshot (PNG) here")
	return cmd
}

// parseAction builds an Action from positional command-line arguments.
func parseAction(name string, args []string, flags doFlags) (executor.Action, error) {
	act := executor.Action{Type: executor.ActionType(name)}

	usage := func(format string) error {
		return fmt.Errorf("%w: usage: %s %s", executor.ErrInvalidAction, name, format)
	}
	ints := func(n int, format string) ([]int, error) {
		if len(args) < n {
			return nil, usage(format)
		}
		out := make([]int, n)
		for i := 0; i < n; i++ {
			v, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, usage(format)
			}
			out[i] = v
		}
		return out, nil
	}

	switch act.Type {
	case executor.ActionOpenWebBrowser, executor.ActionWait5Seconds, executor.ActionGoBack,
		executor.ActionGoForward, executor.ActionSearch, executor.ActionCurrentState:
		if len(args) != 0 {
			return act, usage("(no arguments)")
		}

	case executor.ActionClickAt, executor.ActionHoverAt:
		xy, err := ints(2, "X Y")
		if err != nil || len(args) != 2 {
			return act, usage("X Y")
		}
		act.X, act.Y = xy[0], xy[1]

	case executor.ActionTypeTextAt:
		xy, err := ints(2, "X Y TEXT...")
		if err != nil || len(args) < 3 {
			return act, usage("X Y TEXT...")
		}
		act.X, act.Y = xy[0], xy[1]
		act.Text = strings.Join(args[2:], " ")
		act.PressEnter = flags.pressEnter
		act.ClearBeforeTyping = flags.clear

	case executor.ActionScrollDocument:
		if len(args) != 1 {
			return act, usage("up|down|left|right")
		}
		act.Direction = executor.Direction(args[0])

	case executor.ActionScrollAt:
		xy, err := ints(2, "X Y DIR [AMOUNT]")
		if err != nil || len(args) < 3 || len(args) > 4 {
			return act, usage("X Y DIR [AMOUNT]")
		}
		act.X, act.Y = xy[0], xy[1]
		act.Direction = executor.Direction(args[2])
		if len(args) == 4 {
			m, err := strconv.Atoi(args[3])
			if err != nil || m < 0 {
				return act, usage("X Y DIR [AMOUNT]")
			}
			act.Magnitude = m
		}

	case executor.ActionNavigate:
		if len(args) != 1 {
			return act, usage("URL")
		}
		act.URL = args[0]

	case executor.ActionKeyCombination:
		if len(args) == 0 {
			return act, usage("KEY... (or KEY+KEY)")
		}
		for _, arg := range args {
			act.Keys = append(act.Keys, strings.Split(arg, "+")...)
		}

	case executor.ActionDragAndDrop:
		pts, err := ints(4, "X Y DEST_X DEST_Y")
		if err != nil || len(args) != 4 {
			return act, usage("X Y DEST_X DEST_Y")
		}
		act.X, act.Y, act.DestinationX, act.DestinationY = pts[0], pts[1], pts[2], pts[3]

	default:
		return act, fmt.Errorf("%w: %q", executor.ErrUnknownAction, name)
	}
	return act, nil
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Print the key name translation table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeYAML(cmd.OutOrStdout(), executor.KeyTable())
		},
	}
}
