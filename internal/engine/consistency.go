package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/rota/internal/ir"
)

// Consistency summarizes how steadily each focus position was staffed.
// It reports, and never fails a schedule: the prioritization strategy is a
// hint for the solver.
//
// A handoff is a change of individual between two successive assignments of
// the position. Positions with no assignments get a zero summary.
func Consistency(focus []string, slots []ir.Slot) []ir.ConsistencySummary {
	if len(focus) == 0 {
		return nil
	}

	out := make([]ir.ConsistencySummary, 0, len(focus))
	for _, position := range focus {
		var held []ir.Slot
		for _, s := range slots {
			if s.Position == position {
				held = append(held, s)
			}
		}
		slices.SortStableFunc(held, func(a, b ir.Slot) int {
			return cmp.Compare(a.TimeIndex, b.TimeIndex)
		})

		summary := ir.ConsistencySummary{Position: position, AssignedSlots: len(held)}
		seen := make(map[string]bool)
		for i, s := range held {
			if !seen[s.Individual] {
				seen[s.Individual] = true
				summary.Individuals++
			}
			if i > 0 && held[i-1].Individual != s.Individual {
				summary.Handoffs++
			}
		}
		out = append(out, summary)
	}
	return out
}
