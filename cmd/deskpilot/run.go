package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/v0xg/deskpilot/internal/executor"
)

// stepReport is one line of the run report.
type stepReport struct {
	Step     int    `yaml:"step"`
	Action   string `yaml:"action"`
	Location string `yaml:"url,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

type runReport struct {
	Steps      []stepReport `yaml:"steps"`
	Screenshot string       `yaml:"screenshot,omitempty"`
	Recording  string       `yaml:"recording,omitempty"`
}

func newRunCmd(a *app) *cobra.Command {
	var output, record string

	cmd := &cobra.Command{
		Use:   "run [script]",
		Short: "Execute an action script (YAML or JSON list) from a file or stdin",
		Long: `Execute every action of a script in order, stopping at the first failure.

Script format:
  - action: navigate
    url: example.com
  - action: type_text_at
    x: 300
    y: 120
    text: hello
    press_enter: true`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				in = f
			}

			actions, err := readScript(in)
			if err != nil {
				return err
			}
			return a.runScript(cmd.OutOrStdout(), actions, output, record)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final screenshot (PNG) here")
	cmd.Flags().StringVar(&record, "record", "", "write a GIF of every snapshot here")
	return cmd
}

// readScript decodes a list of actions. JSON input is accepted as YAML.
func readScript(r io.Reader) ([]executor.Action, error) {
	var actions []executor.Action
	if err := yaml.NewDecoder(r).Decode(&actions); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(actions) == 0 {
		return nil, errors.New("script has no actions")
	}
	return actions, nil
}

func (a *app) runScript(out io.Writer, actions []executor.Action, output, record string) error {
	e, err := a.executor()
	if err != nil {
		return err
	}
	defer a.close(e)

	var rec sessionRecorder
	if record != "" {
		rec = a.newRecorder(a.cfg.RecorderOptions(), a.logger)
	}

	var (
		report runReport
		last   *executor.Snapshot
		runErr error
	)
	for i, act := range actions {
		a.logger.Info("executing", zap.Int("step", i+1), zap.Stringer("action", act))

		step := stepReport{Step: i + 1, Action: act.String()}
		snap, err := e.Do(act)
		if err != nil {
			step.Error = err.Error()
			report.Steps = append(report.Steps, step)
			runErr = fmt.Errorf("step %d (%s): %w", i+1, act.Type, err)
			break
		}
		step.Location = snap.Location
		last = snap

		if rec != nil {
			if err := rec.Add(snap); err != nil {
				step.Error = err.Error()
				report.Steps = append(report.Steps, step)
				runErr = fmt.Errorf("step %d (%s): failed to record snapshot: %w", i+1, act.Type, err)
				break
			}
		}
		report.Steps = append(report.Steps, step)
	}

	if last != nil && output != "" {
		if err := os.WriteFile(output, last.Screenshot, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		report.Screenshot = output
	}
	if rec != nil && rec.Len() > 0 {
		if _, err := rec.WriteFile(record); err != nil {
			return fmt.Errorf("failed to write recording: %w", err)
		}
		report.Recording = record
	}

	if err := writeYAML(out, report); err != nil {
		return err
	}
	return runErr
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return enc.Close()
}
