// Package testutil provides builders shared by tests across packages.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rota/internal/ir"
	"github.com/roach88/rota/internal/schedule"
)

// DefaultStep is the solver's slot length in minutes.
const DefaultStep = 30

// Slot builds one assignment. at is any string ir.ParseClock accepts.
func Slot(position, at, individual string) ir.Slot {
	return ir.Slot{Position: position, Time: ir.MustParseClock(at), Individual: individual}
}

// Timeline returns n clock times starting at start, step minutes apart.
func Timeline(start string, step, n int) []ir.ClockTime {
	first := ir.MustParseClock(start)
	out := make([]ir.ClockTime, n)
	for i := range out {
		out[i] = first + ir.ClockTime(i*step)
	}
	return out
}

// Streak assigns individual to position for n consecutive slots of step
// minutes beginning at start.
func Streak(position, individual, start string, step, n int) []ir.Slot {
	out := make([]ir.Slot, n)
	for i, at := range Timeline(start, step, n) {
		out[i] = ir.Slot{Position: position, Time: at, Individual: individual}
	}
	return out
}

// Rotation assigns individual to each position in turn, one slot each,
// beginning at start. It exercises streaks that move within a group.
func Rotation(individual, start string, step int, positions ...string) []ir.Slot {
	out := make([]ir.Slot, len(positions))
	for i, at := range Timeline(start, step, len(positions)) {
		out[i] = ir.Slot{Position: positions[i], Time: at, Individual: individual}
	}
	return out
}

// Concat joins slot groups into one list.
func Concat(groups ...[]ir.Slot) []ir.Slot {
	var out []ir.Slot
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// MustSchedule builds a schedule whose timeline is the distinct slot times,
// failing the test on malformed input.
func MustSchedule(t testing.TB, slots ...ir.Slot) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New(slots)
	require.NoError(t, err)
	return s
}

// MustScheduleOn builds a schedule on an explicit timeline.
func MustScheduleOn(t testing.TB, times []ir.ClockTime, slots ...ir.Slot) *schedule.Schedule {
	t.Helper()
	s, err := schedule.NewWithTimeline(times, slots)
	require.NoError(t, err)
	return s
}
