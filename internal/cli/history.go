package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rota/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit    int
	Schedule string // filter by schedule hash
}

// HistoryResult is the listing form of the history command.
type HistoryResult struct {
	Journal string      `json:"journal"`
	Runs    []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List journaled validation runs",
		Long: `List validation runs recorded with "rota validate --journal".

Without an argument the most recent runs are listed, newest first. With a
run ID the run is shown with its violations.

Examples:
  rota history --journal rota.db
  rota history --journal rota.db --limit 5
  rota history --journal rota.db --schedule <schedule-hash>
  rota history --journal rota.db 01929f3c-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "only runs of the schedule with this hash")

	return cmd
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if opts.Journal == "" {
		return formatter.Fail(ExitCommandError, ErrCodeMissingArg, "journal is required (--journal or ROTA_JOURNAL)", nil)
	}
	// Open would create an empty journal.
	if _, err := os.Stat(opts.Journal); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("journal not found: %s", opts.Journal), nil)
	}

	st, err := store.Open(opts.Journal)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to open journal", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if runID != "" {
		run, err := st.GetRun(ctx, runID)
		if errors.Is(err, store.ErrRunNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to read run", err)
		}
		return outputRun(formatter, run)
	}

	var runs []store.Run
	if opts.Schedule != "" {
		runs, err = st.RunsForSchedule(ctx, opts.Schedule)
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to list runs", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(HistoryResult{Journal: opts.Journal, Runs: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tRECORDED\tRESULT\tVIOLATIONS\tSCHEDULE")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			run.Seq, run.ID, run.RecordedAt.Format(time.RFC3339), verdict(run.OK),
			run.ViolationCount, run.ScheduleSource)
	}
	return tw.Flush()
}

func outputRun(formatter *OutputFormatter, run store.Run) error {
	if formatter.IsJSON() {
		return formatter.Success(run)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  recorded: %s\n", run.RecordedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  rules:    %s (%s)\n", run.RulesSource, run.RuleSetHash)
	fmt.Fprintf(w, "  schedule: %s (%s)\n", run.ScheduleSource, run.ScheduleHash)
	fmt.Fprintf(w, "  result:   %s, %d rule(s), %d slot(s), %d violation(s)\n",
		verdict(run.OK), run.RuleCount, run.SlotCount, run.ViolationCount)
	fmt.Fprintf(w, "  engine:   %s (ir %s)\n", run.EngineVersion, run.IRVersion)

	if len(run.Violations) > 0 {
		fmt.Fprintln(w)
		writeViolations(w, run.Violations)
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "ok"
	}
	return "violations"
}
