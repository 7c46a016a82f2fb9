package ir

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultWorkPositions is the store's floor plan in display order.
// A rules document may declare its own catalogue instead; without one,
// compiler.Analyze flags rule positions missing from this list.
var DefaultWorkPositions = []string{
	"Handout",
	"Line Buster 1",
	"Conductor",
	"Line Buster 2",
	"Expo",
	"Drink Maker 1",
	"Drink Maker 2",
	"Line Buster 3",
}

// NonWorkRows are schedule rows that list people who are off the floor.
// They never hold position assignments.
var NonWorkRows = []string{"Break", "ToffTL"}

// IsNonWorkRow reports whether name is one of NonWorkRows.
func IsNonWorkRow(name string) bool {
	return slices.Contains(NonWorkRows, NormalizeName(name))
}

// NormalizeName trims, collapses inner whitespace and NFC-normalizes a
// position or individual name so equal names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Window bounds the times at which a rule is enforced.
// Both bounds nil means the rule is always active.
type Window struct {
	Start *ClockTime `json:"start,omitempty" yaml:"start,omitempty"`
	End   *ClockTime `json:"end,omitempty" yaml:"end,omitempty"`
}

// Unbounded reports whether the window has neither bound.
func (w Window) Unbounded() bool {
	return w.Start == nil && w.End == nil
}

// PositionRule is one compiled constraint entry.
type PositionRule struct {
	// Index is the rule's declaration order in the source document.
	Index int `json:"index"`

	// Positions governed by the rule. More than one member makes the
	// positions interchangeable for streak counting.
	Positions []string `json:"positions"`

	// MaxConsecutiveSlots is the longest run one individual may hold any
	// of Positions before rotating out.
	MaxConsecutiveSlots int `json:"max_consecutive_slots"`

	// Group records that the limit was declared with
	// max_consecutive_slots_in_group.
	Group bool `json:"group,omitempty"`

	Window Window `json:"window"`

	// MustStartOnHour requires every run in these positions to begin on
	// an hour boundary.
	MustStartOnHour bool `json:"must_start_on_hour,omitempty"`
}

// Governs reports whether position is one of the rule's positions.
func (r PositionRule) Governs(position string) bool {
	return slices.Contains(r.Positions, position)
}

// Label returns a short human-readable identifier for the rule.
func (r PositionRule) Label() string {
	return strings.Join(r.Positions, " + ")
}

// Clone returns a deep copy so callers cannot mutate stored rules.
func (r PositionRule) Clone() PositionRule {
	out := r
	out.Positions = slices.Clone(r.Positions)
	if r.Window.Start != nil {
		start := *r.Window.Start
		out.Window.Start = &start
	}
	if r.Window.End != nil {
		end := *r.Window.End
		out.Window.End = &end
	}
	return out
}

// PrioritizationStrategy holds scheduling preferences. They are hints for
// the solver and are reported, never enforced.
type PrioritizationStrategy struct {
	FocusOnConsistencyFor []string `json:"focus_on_consistency_for"`
}

// RuleSet is a compiled rules document.
type RuleSet struct {
	// Source names the document the set was compiled from.
	Source string `json:"source,omitempty"`

	// Positions is the optional position catalogue. Empty means any
	// position name is accepted.
	Positions []string `json:"positions,omitempty"`

	Rules    []PositionRule         `json:"rules"`
	Strategy PrioritizationStrategy `json:"strategy"`
}

// Slot is one assignment in a schedule: an individual holding a position
// at a point on the schedule's timeline.
type Slot struct {
	Position   string    `json:"position" yaml:"position"`
	TimeIndex  int       `json:"time_index" yaml:"-"`
	Time       ClockTime `json:"time" yaml:"time"`
	Individual string    `json:"individual" yaml:"individual"`
}

// ViolationKind categorizes a violation.
type ViolationKind string

const (
	// ViolationMaxConsecutive marks a streak longer than the rule allows.
	ViolationMaxConsecutive ViolationKind = "max_consecutive"

	// ViolationStartOnHour marks a run that began off the hour.
	ViolationStartOnHour ViolationKind = "start_on_hour"
)

// Violation is one constraint breach in a candidate schedule.
type Violation struct {
	Kind       ViolationKind `json:"kind" yaml:"kind"`
	RuleIndex  int           `json:"rule_index" yaml:"rule_index"`
	Positions  []string      `json:"positions" yaml:"positions,omitempty"`
	Individual string        `json:"individual" yaml:"individual"`

	// StartIndex is the time index where the offending streak or run began.
	StartIndex int `json:"start_index" yaml:"start_index"`

	// AtIndex is the time index where the constraint was first broken.
	AtIndex int `json:"at_index" yaml:"at_index"`

	StartTime ClockTime `json:"start_time" yaml:"start_time"`
	AtTime    ClockTime `json:"at_time" yaml:"at_time"`

	// Length is the full length of the streak or run.
	Length int `json:"length" yaml:"length"`

	// Limit is the rule's maximum, zero for start_on_hour.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// ConsistencySummary describes how stable the staffing of one focus
// position was across the schedule.
type ConsistencySummary struct {
	Position      string `json:"position" yaml:"position"`
	AssignedSlots int    `json:"assigned_slots" yaml:"assigned_slots"`
	Individuals   int    `json:"individuals" yaml:"individuals"`
	Handoffs      int    `json:"handoffs" yaml:"handoffs"`
}

// ValidationResult is the outcome of validating one schedule.
type ValidationResult struct {
	OK           bool                 `json:"ok"`
	Violations   []Violation          `json:"violations"`
	Consistency  []ConsistencySummary `json:"consistency,omitempty"`
	RuleCount    int                  `json:"rule_count"`
	SlotCount    int                  `json:"slot_count"`
	RuleSetHash  string               `json:"ruleset_hash,omitempty"`
	ScheduleHash string               `json:"schedule_hash,omitempty"`
}
