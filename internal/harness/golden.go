package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rota/internal/ir"
)

// Snapshot renders a scenario result as canonical JSON for golden
// comparison. Clock times are written as "3:04 PM" strings so the files
// read like the schedules they came from.
func Snapshot(name string, result *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario_name": name,
	}

	if result.Validation == nil {
		codes := make([]any, len(result.ConfigErrors))
		for i, c := range result.ConfigErrors {
			codes[i] = c
		}
		snap["config_errors"] = codes
		return ir.MarshalCanonical(snap)
	}

	v := result.Validation
	violations := make([]any, len(v.Violations))
	for i, vi := range v.Violations {
		violations[i] = map[string]any{
			"kind":        string(vi.Kind),
			"rule_index":  vi.RuleIndex,
			"positions":   vi.Positions,
			"individual":  vi.Individual,
			"start_index": vi.StartIndex,
			"at_index":    vi.AtIndex,
			"start_time":  vi.StartTime.String(),
			"at_time":     vi.AtTime.String(),
			"length":      vi.Length,
			"limit":       vi.Limit,
		}
	}
	consistency := make([]any, len(v.Consistency))
	for i, c := range v.Consistency {
		consistency[i] = map[string]any{
			"position":       c.Position,
			"assigned_slots": c.AssignedSlots,
			"individuals":    c.Individuals,
			"handoffs":       c.Handoffs,
		}
	}

	snap["ok"] = v.OK
	snap["violations"] = violations
	snap["consistency"] = consistency
	snap["rule_count"] = v.RuleCount
	snap["slot_count"] = v.SlotCount
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can make further assertions.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
