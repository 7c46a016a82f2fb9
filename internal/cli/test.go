package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/rota/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden snapshots instead of comparing
	Filter string // glob over scenario file names, without extension
}

// ScenarioOutcome is the verdict on one scenario file.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestReport aggregates the outcomes of one test invocation.
type TestReport struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

func (r *TestReport) add(o ScenarioOutcome) {
	r.Scenarios = append(r.Scenarios, o)
	r.Total++
	if o.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every scenario under a directory. A scenario pairs rules with a
schedule and lists what validation must report.

Assertions are always checked. A scenario with a golden/<name>.golden file
next to it must also reproduce that snapshot byte for byte; --update
rewrites the snapshots from the current results.

Exit codes:
  0 - every scenario passed
  1 - at least one scenario failed
  2 - the directory or filter is unusable

Examples:
  rota test ./scenarios
  rota test ./scenarios --filter "lunch-*"
  rota test ./scenarios --update
  rota test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots from current results")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only scenarios whose name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	case err != nil:
		return WrapExitError(ExitCommandError, "reading scenarios directory", err)
	case !info.IsDir():
		return NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", dir))
	}

	paths, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	report := TestReport{Scenarios: make([]ScenarioOutcome, 0, len(paths))}
	if len(paths) == 0 && !formatter.IsJSON() {
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, path := range paths {
		outcome := runScenario(path, opts)
		report.add(outcome)
		if !formatter.IsJSON() {
			writeScenarioOutcome(formatter, outcome, opts.Update)
		}
	}
	return outputTestReport(formatter, report)
}

// findScenarioFiles returns the YAML files under dir in lexical order.
// golden directories hold snapshots and are not descended into.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && d.Name() == "golden":
			return filepath.SkipDir
		case d.IsDir():
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			// The pattern was checked above.
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads, runs and snapshots one scenario. Problems are reported
// in the outcome; only a bad directory aborts the whole command.
func runScenario(path string, opts *TestOptions) ScenarioOutcome {
	logger := opts.logger().With(zap.String("file", path))
	failed := func(name, format string, args ...any) ScenarioOutcome {
		return ScenarioOutcome{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), "failed to load scenario: %v", err)
	}

	result, err := harness.Run(scenario, harness.WithLogger(logger))
	if err != nil {
		return failed(scenario.Name, "execution failed: %v", err)
	}

	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return failed(scenario.Name, "failed to snapshot result: %v", err)
	}

	golden := goldenFilePath(path)
	errs := result.Errors
	if opts.Update {
		if err := writeGoldenFile(golden, snapshot); err != nil {
			return failed(scenario.Name, "failed to update golden file: %v", err)
		}
		logger.Debug("golden file updated", zap.String("golden", golden))
	} else if msg := compareGolden(golden, snapshot); msg != "" {
		errs = append(errs, msg)
	}

	return ScenarioOutcome{Name: scenario.Name, Pass: len(errs) == 0, Errors: errs}
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioPath string) string {
	base := filepath.Base(scenarioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioPath), "golden", name+".golden")
}

// compareGolden returns a failure message, or "" when the snapshot matches
// or no golden file exists.
func compareGolden(path string, snapshot []byte) string {
	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ""
	case err != nil:
		return fmt.Sprintf("failed to read golden file: %v", err)
	case !bytes.Equal(want, snapshot):
		return "result does not match golden file (run with --update to regenerate)"
	}
	return ""
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeScenarioOutcome(formatter *OutputFormatter, o ScenarioOutcome, updated bool) {
	w := formatter.Writer
	if o.Pass {
		suffix := ""
		if updated {
			suffix = " (golden updated)"
		}
		fmt.Fprintf(w, "✓ %s%s\n", o.Name, suffix)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", o.Name)
	for _, e := range o.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputTestReport prints the summary. Any failed scenario makes the
// command exit 1.
func outputTestReport(formatter *OutputFormatter, report TestReport) error {
	var failure error
	if report.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}

	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: report}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_TEST_FAILED", Message: failure.Error()}
		}
		if err := formatter.Encode(resp); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
	if failure == nil {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return failure
}
