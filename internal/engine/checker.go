package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/rota/internal/ir"
)

// BuildSequence returns the slots rule applies to: those in one of its
// positions at a time its window covers, sorted by (TimeIndex, Individual).
//
// Slots the rule does not apply to are dropped, not skipped over, so a
// streak can never span them: Check sees the gap in TimeIndex.
func BuildSequence(rule ir.PositionRule, slots []ir.Slot) []ir.Slot {
	seq := make([]ir.Slot, 0, len(slots))
	for _, s := range slots {
		if rule.Governs(s.Position) && IsActive(rule, s.Time) {
			seq = append(seq, s)
		}
	}
	slices.SortStableFunc(seq, func(a, b ir.Slot) int {
		return cmp.Or(
			cmp.Compare(a.TimeIndex, b.TimeIndex),
			cmp.Compare(a.Individual, b.Individual),
		)
	})
	return seq
}

// run tracks one individual's current streak.
type run struct {
	startIndex int
	startTime  ir.ClockTime
	lastIndex  int
	length     int

	// violation indexes the violation this run already produced, -1 if none.
	violation int
}

// Check enforces rule's consecutive-slot limit over seq, which must come
// from BuildSequence.
//
// All of the rule's positions are interchangeable: moving between them
// continues a streak. A streak continues only when the individual's previous
// slot is at the immediately preceding time index. A streak of exactly the
// limit is allowed; the slot that makes it one longer produces a single
// violation, and later slots of the same streak only extend its Length.
func Check(rule ir.PositionRule, seq []ir.Slot) []ir.Violation {
	var out []ir.Violation
	runs := make(map[string]*run)

	for _, s := range seq {
		r := runs[s.Individual]
		if r != nil && r.lastIndex == s.TimeIndex {
			// same individual in two group positions at once counts once
			continue
		}
		if r == nil || r.lastIndex != s.TimeIndex-1 {
			r = &run{startIndex: s.TimeIndex, startTime: s.Time, violation: -1}
			runs[s.Individual] = r
		}
		r.lastIndex = s.TimeIndex
		r.length++

		if r.length <= rule.MaxConsecutiveSlots {
			continue
		}
		if r.violation >= 0 {
			out[r.violation].Length = r.length
			continue
		}
		out = append(out, ir.Violation{
			Kind:       ir.ViolationMaxConsecutive,
			RuleIndex:  rule.Index,
			Positions:  slices.Clone(rule.Positions),
			Individual: s.Individual,
			StartIndex: r.startIndex,
			AtIndex:    s.TimeIndex,
			StartTime:  r.startTime,
			AtTime:     s.Time,
			Length:     r.length,
			Limit:      rule.MaxConsecutiveSlots,
		})
		r.violation = len(out) - 1
	}

	sortViolations(out)
	return out
}

// CheckStartOnHour enforces must_start_on_hour over the schedule's slots.
// A run is a stretch of consecutive time indices one individual holds in
// one of the rule's positions; every run must begin at a time on the hour.
//
// The window decides whether a run is covered, not where it starts: a run
// with at least one slot inside the window is checked from its first slot,
// even when that slot lies before the window. The violation is anchored at
// that first slot. Rules without the flag never produce violations.
func CheckStartOnHour(rule ir.PositionRule, slots []ir.Slot) []ir.Violation {
	if !rule.MustStartOnHour {
		return nil
	}

	held := make([]ir.Slot, 0, len(slots))
	for _, s := range slots {
		if rule.Governs(s.Position) {
			held = append(held, s)
		}
	}
	slices.SortStableFunc(held, func(a, b ir.Slot) int {
		return cmp.Or(
			cmp.Compare(a.Individual, b.Individual),
			cmp.Compare(a.Position, b.Position),
			cmp.Compare(a.TimeIndex, b.TimeIndex),
		)
	})

	var out []ir.Violation
	for i := 0; i < len(held); {
		first := held[i]
		covered := IsActive(rule, first.Time)
		j := i + 1
		for ; j < len(held); j++ {
			s, prev := held[j], held[j-1]
			if s.Individual != first.Individual || s.Position != first.Position ||
				s.TimeIndex != prev.TimeIndex+1 {
				break
			}
			covered = covered || IsActive(rule, s.Time)
		}

		if covered && !first.Time.OnHour() {
			out = append(out, ir.Violation{
				Kind:       ir.ViolationStartOnHour,
				RuleIndex:  rule.Index,
				Positions:  []string{first.Position},
				Individual: first.Individual,
				StartIndex: first.TimeIndex,
				AtIndex:    first.TimeIndex,
				StartTime:  first.Time,
				AtTime:     first.Time,
				Length:     j - i,
			})
		}
		i = j
	}

	sortViolations(out)
	return out
}

// sortViolations orders one rule's violations by where the rule was broken,
// then individual, then kind.
func sortViolations(vs []ir.Violation) {
	slices.SortStableFunc(vs, func(a, b ir.Violation) int {
		return cmp.Or(
			cmp.Compare(a.AtIndex, b.AtIndex),
			cmp.Compare(a.Individual, b.Individual),
			cmp.Compare(a.Kind, b.Kind),
			slices.Compare(a.Positions, b.Positions),
		)
	})
}
