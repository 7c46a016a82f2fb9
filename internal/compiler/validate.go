package compiler

import (
	"fmt"

	"github.com/roach88/rota/internal/ir"
)

// Validate checks a rule set against the semantic invariants.
// Returns all errors found (does not fail-fast).
//
// Invariants:
//   - every rule names at least one position, each once
//   - max consecutive slots is at least 1
//   - when both window bounds are set, start is before end
//   - with a position catalogue, every rule and focus position is in it
func Validate(set *ir.RuleSet) ConfigErrors {
	var errs ConfigErrors

	catalogue := make(map[string]bool, len(set.Positions))
	for _, p := range set.Positions {
		catalogue[p] = true
	}

	for _, rule := range set.Rules {
		field := fmt.Sprintf("position_rules[%d]", rule.Index)

		// E101: at least one position
		if len(rule.Positions) == 0 {
			errs = append(errs, &ConfigError{
				Code:    ErrEmptyPositions,
				Field:   field + ".position",
				Message: "at least one position is required",
			})
		}

		seen := make(map[string]bool, len(rule.Positions))
		for i, p := range rule.Positions {
			// E105: duplicate position
			if seen[p] {
				errs = append(errs, &ConfigError{
					Code:    ErrDuplicatePosition,
					Field:   fmt.Sprintf("%s.position[%d]", field, i),
					Message: fmt.Sprintf("duplicate position %q", p),
				})
			}
			seen[p] = true

			// E106: unknown position
			if len(catalogue) > 0 && !catalogue[p] {
				errs = append(errs, &ConfigError{
					Code:    ErrUnknownPosition,
					Field:   fmt.Sprintf("%s.position[%d]", field, i),
					Message: fmt.Sprintf("position %q is not in the positions catalogue", p),
				})
			}
		}

		// E102: limit must be positive
		if rule.MaxConsecutiveSlots < 1 {
			limitKey := keyMaxSlots
			if rule.Group {
				limitKey = keyMaxSlotsInGroup
			}
			errs = append(errs, &ConfigError{
				Code:    ErrNonPositiveLimit,
				Field:   field + "." + limitKey,
				Message: fmt.Sprintf("must be at least 1, got %d", rule.MaxConsecutiveSlots),
			})
		}

		errs = append(errs, validateWindow(rule.Window, field)...)
	}

	for i, p := range set.Strategy.FocusOnConsistencyFor {
		// E109: focus position outside the catalogue
		if len(catalogue) > 0 && !catalogue[p] {
			errs = append(errs, &ConfigError{
				Code:    ErrUnknownFocusPosition,
				Field:   fmt.Sprintf("prioritization_strategy.focus_on_consistency_for[%d]", i),
				Message: fmt.Sprintf("position %q is not in the positions catalogue", p),
			})
		}
	}

	return errs
}

func validateWindow(w ir.Window, field string) ConfigErrors {
	var errs ConfigErrors

	// E104: bounds must be times of day
	if w.Start != nil && !w.Start.Valid() {
		errs = append(errs, outOfDay(field+"."+keyStartTime, *w.Start))
	}
	if w.End != nil && !w.End.Valid() {
		errs = append(errs, outOfDay(field+"."+keyEndTime, *w.End))
	}

	// E103: start before end
	if w.Start != nil && w.End != nil && *w.Start >= *w.End {
		errs = append(errs, &ConfigError{
			Code:    ErrInvertedWindow,
			Field:   field + ".window",
			Message: fmt.Sprintf("start_time %s must be before end_time %s", *w.Start, *w.End),
		})
	}

	return errs
}

func outOfDay(field string, t ir.ClockTime) *ConfigError {
	return &ConfigError{
		Code:    ErrInvalidTime,
		Field:   field,
		Message: fmt.Sprintf("%d minutes is outside a single day", int(t)),
	}
}
