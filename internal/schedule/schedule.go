// Package schedule turns candidate schedules into the chronological slot
// sequence the validator consumes.
//
// A schedule is a timeline of distinct clock times plus the slots filled on
// it. Each slot carries its TimeIndex on that timeline, so two slots are
// adjacent exactly when their indices differ by one. Reading a solver's CSV
// grid or a YAML/JSON slot list produces the same Schedule.
package schedule

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/rota/internal/ir"
)

// Schedule is an immutable, validated candidate schedule.
type Schedule struct {
	times []ir.ClockTime
	slots []ir.Slot
}

// New builds a schedule whose timeline is the distinct times of slots.
//
// A time with no assignments at all is missing from the timeline, so the
// slots on either side of it count as adjacent. Use NewWithTimeline when
// the timeline has gaps that must break streaks.
func New(slots []ir.Slot) (*Schedule, error) {
	times := make([]ir.ClockTime, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Time)
	}
	return NewWithTimeline(times, slots)
}

// NewWithTimeline builds a schedule on an explicit timeline. times may be in
// any order and may repeat; every slot time must appear in it.
//
// Names are normalized. Input slots are copied, never modified.
func NewWithTimeline(times []ir.ClockTime, slots []ir.Slot) (*Schedule, error) {
	timeline := slices.Clone(times)
	slices.Sort(timeline)
	timeline = slices.Compact(timeline)
	for _, t := range timeline {
		if !t.Valid() {
			return nil, &Error{
				Code:    ErrCodeInvalidTime,
				Message: fmt.Sprintf("%d minutes is outside a single day", int(t)),
				Time:    &t,
			}
		}
	}

	index := make(map[ir.ClockTime]int, len(timeline))
	for i, t := range timeline {
		index[t] = i
	}

	type cell struct {
		time int
		key  string
	}
	filled := make(map[cell]bool, len(slots))
	busy := make(map[cell]string, len(slots))

	out := make([]ir.Slot, 0, len(slots))
	for _, s := range slots {
		s.Position = ir.NormalizeName(s.Position)
		s.Individual = ir.NormalizeName(s.Individual)
		at := s.Time

		if s.Position == "" {
			return nil, &Error{
				Code:       ErrCodeEmptyPosition,
				Message:    fmt.Sprintf("slot at %s for %q names no position", at, s.Individual),
				Time:       &at,
				Individual: s.Individual,
			}
		}
		if s.Individual == "" {
			return nil, &Error{
				Code:     ErrCodeEmptyIndividual,
				Message:  fmt.Sprintf("slot %s at %s names no individual", s.Position, at),
				Position: s.Position,
				Time:     &at,
			}
		}

		i, ok := index[at]
		if !ok {
			return nil, &Error{
				Code:       ErrCodeOffTimeline,
				Message:    fmt.Sprintf("time %s is not on the schedule timeline", at),
				Position:   s.Position,
				Time:       &at,
				Individual: s.Individual,
			}
		}
		s.TimeIndex = i

		if filled[cell{i, s.Position}] {
			return nil, &Error{
				Code:     ErrCodeDuplicateSlot,
				Message:  fmt.Sprintf("%s is assigned twice at %s", s.Position, at),
				Position: s.Position,
				Time:     &at,
			}
		}
		filled[cell{i, s.Position}] = true

		if other, taken := busy[cell{i, s.Individual}]; taken {
			return nil, &Error{
				Code: ErrCodeDoubleBooked,
				Message: fmt.Sprintf("%s holds both %s and %s at %s",
					s.Individual, other, s.Position, at),
				Position:   s.Position,
				Time:       &at,
				Individual: s.Individual,
			}
		}
		busy[cell{i, s.Individual}] = s.Position

		out = append(out, s)
	}

	slices.SortFunc(out, compareSlots)
	return &Schedule{times: timeline, slots: out}, nil
}

// compareSlots orders slots by time, then individual, then position.
func compareSlots(a, b ir.Slot) int {
	return cmp.Or(
		cmp.Compare(a.TimeIndex, b.TimeIndex),
		cmp.Compare(a.Individual, b.Individual),
		cmp.Compare(a.Position, b.Position),
	)
}

// Times returns the timeline in chronological order.
func (s *Schedule) Times() []ir.ClockTime { return slices.Clone(s.times) }

// Slots returns the slots sorted by (TimeIndex, Individual, Position).
func (s *Schedule) Slots() []ir.Slot { return slices.Clone(s.slots) }

// Len returns the number of filled slots.
func (s *Schedule) Len() int { return len(s.slots) }

// TimeAt returns the clock time of a timeline index.
func (s *Schedule) TimeAt(index int) ir.ClockTime { return s.times[index] }

// Positions returns the distinct positions filled anywhere in the schedule,
// sorted by name.
func (s *Schedule) Positions() []string {
	var out []string
	for _, slot := range s.slots {
		out = append(out, slot.Position)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Hash returns the content hash of the schedule.
func (s *Schedule) Hash() (string, error) {
	return ir.ScheduleHash(s.slots)
}
