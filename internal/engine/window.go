package engine

import "github.com/roach88/rota/internal/ir"

// IsActive reports whether rule is enforced at clock time at.
//
// Every window is half-open, [start, end), and a missing bound leaves that
// side unbounded:
//   - no window: always active
//   - start only: at >= start
//   - end only: at < end
//   - both: start <= at < end
//
// Two rules that share a boundary, one ending and one starting at 12:30 PM,
// are therefore never both active at 12:30 PM, and never both inactive.
func IsActive(rule ir.PositionRule, at ir.ClockTime) bool {
	w := rule.Window
	if w.Start != nil && at < *w.Start {
		return false
	}
	if w.End != nil && at >= *w.End {
		return false
	}
	return true
}
