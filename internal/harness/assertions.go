package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rota/internal/ir"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %d (%s): %s", e.Index, e.Type, e.Message)
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure. Assertions about validation fail when the rules did
// not load, and config_error fails when they did.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, (&AssertionError{Index: i, Type: a.Type, Message: err.Error()}).Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertConfigError {
		return assertConfigError(result, a.Code)
	}
	if result.Validation == nil {
		return fmt.Errorf("rules failed to load: %s", strings.Join(result.ConfigErrors, ", "))
	}
	v := result.Validation

	switch a.Type {
	case AssertOK:
		if !v.OK {
			return fmt.Errorf("expected schedule to pass, got %d violation(s): %s",
				len(v.Violations), describeViolations(v.Violations))
		}
	case AssertNotOK:
		if v.OK {
			return fmt.Errorf("expected violations, schedule passed")
		}
	case AssertViolation:
		if countMatches(v.Violations, a.Violation) == 0 {
			return fmt.Errorf("no violation matches %s; got: %s",
				a.Violation, describeViolations(v.Violations))
		}
	case AssertNoViolation:
		if n := countMatches(v.Violations, a.Violation); n > 0 {
			return fmt.Errorf("%d violation(s) match %s", n, a.Violation)
		}
	case AssertViolationCount:
		n := len(v.Violations)
		if a.Violation != nil {
			n = countMatches(v.Violations, a.Violation)
		}
		if n != *a.Count {
			return fmt.Errorf("expected %d violation(s), got %d: %s",
				*a.Count, n, describeViolations(v.Violations))
		}
	case AssertConsistency:
		return assertConsistency(v.Consistency, *a.Consistency)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertConfigError(result *Result, code string) error {
	if result.Validation != nil {
		return fmt.Errorf("expected config error %s, rules loaded", code)
	}
	if !slices.Contains(result.ConfigErrors, code) {
		return fmt.Errorf("expected config error %s, got %s", code, strings.Join(result.ConfigErrors, ", "))
	}
	return nil
}

func assertConsistency(got []ir.ConsistencySummary, want ir.ConsistencySummary) error {
	i := slices.IndexFunc(got, func(c ir.ConsistencySummary) bool { return c.Position == want.Position })
	if i < 0 {
		return fmt.Errorf("no consistency summary for %q", want.Position)
	}
	if got[i] != want {
		return fmt.Errorf("consistency for %q: expected %+v, got %+v", want.Position, want, got[i])
	}
	return nil
}

func countMatches(vs []ir.Violation, m *ViolationMatch) int {
	n := 0
	for _, v := range vs {
		if m.Matches(v) {
			n++
		}
	}
	return n
}

// Matches reports whether v agrees with every field set in m.
func (m *ViolationMatch) Matches(v ir.Violation) bool {
	switch {
	case m.Kind != "" && m.Kind != v.Kind:
		return false
	case m.RuleIndex != nil && *m.RuleIndex != v.RuleIndex:
		return false
	case m.Individual != "" && ir.NormalizeName(m.Individual) != v.Individual:
		return false
	case m.At != nil && *m.At != v.AtTime:
		return false
	case m.Start != nil && *m.Start != v.StartTime:
		return false
	case m.Length != nil && *m.Length != v.Length:
		return false
	}
	return true
}

// String renders the fields set in m.
func (m *ViolationMatch) String() string {
	var parts []string
	if m.Kind != "" {
		parts = append(parts, "kind="+string(m.Kind))
	}
	if m.RuleIndex != nil {
		parts = append(parts, fmt.Sprintf("rule=%d", *m.RuleIndex))
	}
	if m.Individual != "" {
		parts = append(parts, "individual="+m.Individual)
	}
	if m.At != nil {
		parts = append(parts, "at="+m.At.String())
	}
	if m.Start != nil {
		parts = append(parts, "start="+m.Start.String())
	}
	if m.Length != nil {
		parts = append(parts, fmt.Sprintf("length=%d", *m.Length))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func describeViolations(vs []ir.Violation) string {
	if len(vs) == 0 {
		return "none"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%s rule=%d %s at %s (length %d)", v.Kind, v.RuleIndex, v.Individual, v.AtTime, v.Length)
	}
	return strings.Join(parts, "; ")
}
