package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/rota/internal/compiler"
	"github.com/roach88/rota/internal/ir"
	"github.com/roach88/rota/internal/rulestore"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	Output string // output file path
}

// RulesReport is the compiled view of a rules document.
type RulesReport struct {
	Source   string                 `json:"source"`
	Hash     string                 `json:"hash"`
	RuleSet  ir.RuleSet             `json:"rule_set"`
	Warnings []compiler.RuleWarning `json:"warnings"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules <rules-file>",
		Short: "Compile a rules document and print the normalized rule set",
		Long: `Compile a rules document (YAML, JSON or CUE) and print the normalized
rule set with its content hash.

Every configuration error in the document is reported, not just the first.
Overlapping rules and unguarded focus positions are reported as warnings.

Examples:
  rota rules rules.yaml
  rota rules rules.cue --format json
  rota rules rules.yaml -o ruleset.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled rule set as JSON to this file")

	return cmd
}

func runRules(opts *RulesOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	store, err := loadRuleStore(formatter, path, opts.logger())
	if err != nil {
		return err
	}

	set := store.RuleSet()
	report := RulesReport{
		Source:   store.Source(),
		Hash:     store.Hash(),
		RuleSet:  set,
		Warnings: compiler.Analyze(&set),
	}

	if opts.Output != "" {
		if err := writeRuleSet(set, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(report)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d rule(s) from %s\n", len(set.Rules), report.Source)
	fmt.Fprintf(w, "  hash: %s\n\n", report.Hash)

	fmt.Fprintln(w, "Rules:")
	for _, rule := range set.Rules {
		fmt.Fprintf(w, "  [%d] %s: %s\n", rule.Index, rule.Label(), describeRule(rule))
	}

	if focus := set.Strategy.FocusOnConsistencyFor; len(focus) > 0 {
		fmt.Fprintf(w, "\nFocus on consistency: %s\n", strings.Join(focus, ", "))
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", warn.Level, warn.Message)
		}
	}

	if opts.Output != "" {
		fmt.Fprintf(w, "\nWrote rule set to %s\n", opts.Output)
	}
	return nil
}

// describeRule renders the limit, window and start constraint of a rule.
func describeRule(rule ir.PositionRule) string {
	parts := []string{fmt.Sprintf("max %d consecutive", rule.MaxConsecutiveSlots)}
	if rule.Group {
		parts[0] += " in group"
	}

	switch w := rule.Window; {
	case w.Start != nil && w.End != nil:
		parts = append(parts, fmt.Sprintf("%s to %s", *w.Start, *w.End))
	case w.Start != nil:
		parts = append(parts, fmt.Sprintf("from %s", *w.Start))
	case w.End != nil:
		parts = append(parts, fmt.Sprintf("before %s", *w.End))
	}

	if rule.MustStartOnHour {
		parts = append(parts, "must start on the hour")
	}
	return strings.Join(parts, ", ")
}

// writeRuleSet writes the compiled rule set to a file as indented JSON.
func writeRuleSet(set ir.RuleSet, filename string) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rule set: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// outputConfigErrors reports every configuration error in a rules
// document. Invalid rules are a command error (exit code 2).
func outputConfigErrors(formatter *OutputFormatter, path string, errs compiler.ConfigErrors) error {
	if formatter.IsJSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, e := range errs {
			cliErrors[i] = CLIError{
				Code:    e.Code,
				Message: e.Message,
				Field:   e.Field,
				Line:    e.Line(),
			}
		}
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d config error(s)", path, len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "✗ Invalid rules in %s\n\n", path)
	for _, e := range errs {
		if line := e.Line(); line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d config error(s)", path, len(errs)))
}

// loadRuleStore loads the rules document at path, reporting a missing file
// or an invalid document through formatter.
func loadRuleStore(formatter *OutputFormatter, path string, logger *zap.Logger) (*rulestore.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("rules file not found: %s", path), nil)
	}

	store, err := rulestore.Load(path, rulestore.WithLogger(logger))
	var cfgErrs compiler.ConfigErrors
	switch {
	case errors.As(err, &cfgErrs):
		return nil, outputConfigErrors(formatter, path, cfgErrs)
	case err != nil:
		return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, "loading rules", err)
	}
	return store, nil
}
