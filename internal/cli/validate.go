package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/rota/internal/engine"
	"github.com/roach88/rota/internal/ir"
	"github.com/roach88/rota/internal/schedule"
	"github.com/roach88/rota/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Rules   string // rules document path
	Workers int    // validator parallelism, 0 for GOMAXPROCS
}

// ValidateReport is the outcome of one validate invocation.
type ValidateReport struct {
	ir.ValidationResult
	Rules    string `json:"rules"`
	Schedule string `json:"schedule"`
	RunID    string `json:"run_id,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <schedule>",
		Short: "Validate a schedule against a rules document",
		Long: `Validate a schedule against the rotation rules.

The schedule is either the solver's CSV grid (header "Position,<time>,...")
or a YAML/JSON slot list. Every violation is reported in a deterministic
order.

With --journal the run is recorded in a SQLite journal that "rota history"
can list.

Exit codes:
  0 - Schedule satisfies every rule
  1 - Schedule violates one or more rules
  2 - Command error (missing files, invalid rules, malformed schedule)

Examples:
  rota validate --rules rules.yaml lunch.csv
  rota validate --rules rules.yaml --journal rota.db lunch.csv
  ROTA_RULES=rules.yaml rota validate lunch.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Rules, "rules", "r", rootOpts.Env.Rules, "path to the rules document (default $ROTA_RULES)")
	cmd.Flags().IntVar(&opts.Workers, "workers", rootOpts.Env.Workers, "rules checked in parallel (0 = GOMAXPROCS)")

	return cmd
}

func runValidate(opts *ValidateOptions, schedulePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	logger := opts.logger()

	if opts.Rules == "" {
		return formatter.Fail(ExitCommandError, ErrCodeMissingArg, "rules file is required (--rules or ROTA_RULES)", nil)
	}
	if opts.Workers < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeMissingArg, fmt.Sprintf("workers must be non-negative, got %d", opts.Workers), nil)
	}

	rules, err := loadRuleStore(formatter, opts.Rules, logger)
	if err != nil {
		return err
	}

	sched, err := loadSchedule(formatter, schedulePath)
	if err != nil {
		return err
	}

	validator := engine.NewValidator(rules,
		engine.WithWorkers(opts.Workers),
		engine.WithLogger(logger))
	result, err := validator.Validate(cmd.Context(), sched)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "validating schedule", err)
	}

	report := ValidateReport{
		ValidationResult: result,
		Rules:            opts.Rules,
		Schedule:         schedulePath,
	}

	if opts.Journal != "" {
		run, err := recordRun(cmd, opts.Journal, store.NewRun(result, opts.Rules, schedulePath))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, "recording run", err)
		}
		report.RunID = run.ID
		logger.Info("run recorded",
			zap.String("run_id", run.ID),
			zap.String("journal", opts.Journal))
	}

	if err := outputValidateReport(formatter, report); err != nil {
		return err
	}

	if !result.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("%d violation(s)", len(result.Violations)))
	}
	return nil
}

// loadSchedule reads a schedule file, reporting a missing file or
// malformed input through formatter.
func loadSchedule(formatter *OutputFormatter, path string) (*schedule.Schedule, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("schedule file not found: %s", path), nil)
	}

	sched, err := schedule.ReadFile(path)
	if err != nil {
		var schedErr *schedule.Error
		if errors.As(err, &schedErr) {
			return nil, outputScheduleError(formatter, path, schedErr)
		}
		return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, "reading schedule", err)
	}
	return sched, nil
}

func outputScheduleError(formatter *OutputFormatter, path string, e *schedule.Error) error {
	if formatter.IsJSON() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    string(e.Code),
				Message: e.Message,
				Line:    e.Line,
			},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Malformed schedule %s\n\n", path)
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: malformed schedule", path), e)
}

// recordRun journals one validation run.
func recordRun(cmd *cobra.Command, journalPath string, run store.Run) (store.Run, error) {
	st, err := store.Open(journalPath)
	if err != nil {
		return store.Run{}, err
	}
	defer st.Close()

	return st.RecordRun(cmd.Context(), run)
}

func outputValidateReport(formatter *OutputFormatter, report ValidateReport) error {
	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: report}
		if !report.OK {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_VIOLATIONS",
				Message: fmt.Sprintf("%d violation(s)", len(report.Violations)),
			}
		}
		return formatter.Encode(resp)
	}

	w := formatter.Writer
	if report.OK {
		fmt.Fprintf(w, "✓ %s satisfies %d rule(s) (%d slot(s))\n",
			report.Schedule, report.RuleCount, report.SlotCount)
	} else {
		fmt.Fprintf(w, "✗ %s: %d violation(s) of %d rule(s) (%d slot(s))\n\n",
			report.Schedule, len(report.Violations), report.RuleCount, report.SlotCount)
		writeViolations(w, report.Violations)
	}

	if len(report.Consistency) > 0 {
		fmt.Fprintln(w, "\nConsistency:")
		for _, c := range report.Consistency {
			fmt.Fprintf(w, "  %s: %d slot(s), %d individual(s), %d handoff(s)\n",
				c.Position, c.AssignedSlots, c.Individuals, c.Handoffs)
		}
	}

	if report.RunID != "" {
		fmt.Fprintf(w, "\nRecorded run %s\n", report.RunID)
	}
	return nil
}

func writeViolations(w io.Writer, vs []ir.Violation) {
	for _, v := range vs {
		fmt.Fprintf(w, "  %8s  %s\n", v.AtTime, describeViolation(v))
	}
}

// describeViolation renders one violation as a sentence.
func describeViolation(v ir.Violation) string {
	label := ir.PositionRule{Positions: v.Positions}.Label()
	switch v.Kind {
	case ir.ViolationStartOnHour:
		return fmt.Sprintf("%s started %s at %s, not on the hour [rule %d]",
			v.Individual, label, v.StartTime, v.RuleIndex)
	default:
		return fmt.Sprintf("%s held %s for %d consecutive slot(s) from %s (limit %d) [rule %d]",
			v.Individual, label, v.Length, v.StartTime, v.Limit, v.RuleIndex)
	}
}
