package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/rota/internal/ir"
)

// RuleWarning flags a rule combination that is legal but probably not what
// the author meant.
//
// Overlaps are warnings, not errors, because they may be intentional: a
// tight group limit over a lunch rush can sit on top of a looser all-day
// limit for one of its positions. Both are enforced independently.
type RuleWarning struct {
	Rules    []int  `json:"rules"`              // declaration indices involved
	Position string `json:"position,omitempty"` // shared position
	Message  string `json:"message"`
	Level    string `json:"level"` // "warning" or "info"
}

// Analyze performs static analysis on a compiled rule set.
//
// It reports:
//   - pairs of rules that govern a shared position over overlapping windows
//   - focus positions that no rule governs
//   - rule positions missing from ir.DefaultWorkPositions, when the
//     document declares no catalogue of its own
//
// A set without overlaps returns an empty list.
func Analyze(set *ir.RuleSet) []RuleWarning {
	warnings := []RuleWarning{}

	for i := 0; i < len(set.Rules); i++ {
		for j := i + 1; j < len(set.Rules); j++ {
			a, b := set.Rules[i], set.Rules[j]
			shared := sharedPosition(a, b)
			if shared == "" {
				continue
			}
			from, to, ok := overlap(a.Window, b.Window)
			if !ok {
				continue
			}
			warnings = append(warnings, RuleWarning{
				Rules:    []int{a.Index, b.Index},
				Position: shared,
				Message: fmt.Sprintf("rules %d and %d both govern %q %s; both limits apply",
					a.Index, b.Index, shared, describeSpan(from, to)),
				Level: "warning",
			})
		}
	}

	for _, focus := range set.Strategy.FocusOnConsistencyFor {
		governed := slices.ContainsFunc(set.Rules, func(r ir.PositionRule) bool {
			return r.Governs(focus)
		})
		if !governed {
			warnings = append(warnings, RuleWarning{
				Position: focus,
				Message:  fmt.Sprintf("focus position %q is not governed by any rule", focus),
				Level:    "info",
			})
		}
	}

	if len(set.Positions) == 0 {
		for _, rule := range set.Rules {
			for _, p := range rule.Positions {
				if slices.Contains(ir.DefaultWorkPositions, p) {
					continue
				}
				warnings = append(warnings, RuleWarning{
					Rules:    []int{rule.Index},
					Position: p,
					Message:  fmt.Sprintf("rule %d position %q is not on the default floor plan", rule.Index, p),
					Level:    "info",
				})
			}
		}
	}

	return warnings
}

// sharedPosition returns the first position of a that b also governs.
func sharedPosition(a, b ir.PositionRule) string {
	for _, p := range a.Positions {
		if b.Governs(p) {
			return p
		}
	}
	return ""
}

// overlap intersects two half-open windows. A nil bound in the result
// means unbounded on that side.
func overlap(a, b ir.Window) (from, to *ir.ClockTime, ok bool) {
	from = laterStart(a.Start, b.Start)
	to = earlierEnd(a.End, b.End)
	if from != nil && to != nil && *from >= *to {
		return nil, nil, false
	}
	return from, to, true
}

func laterStart(a, b *ir.ClockTime) *ir.ClockTime {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a >= *b:
		return a
	default:
		return b
	}
}

func earlierEnd(a, b *ir.ClockTime) *ir.ClockTime {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a <= *b:
		return a
	default:
		return b
	}
}

func describeSpan(from, to *ir.ClockTime) string {
	switch {
	case from == nil && to == nil:
		return "all day"
	case from == nil:
		return fmt.Sprintf("before %s", *to)
	case to == nil:
		return fmt.Sprintf("from %s", *from)
	default:
		return fmt.Sprintf("from %s to %s", *from, *to)
	}
}
