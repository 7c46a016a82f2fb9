package store

import (
	"errors"
	"time"

	"github.com/roach88/rota/internal/ir"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one journaled validation.
type Run struct {
	// Seq orders runs by insertion. Zero until recorded.
	Seq int64 `json:"seq"`

	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`

	RulesSource    string `json:"rules_source"`
	ScheduleSource string `json:"schedule_source"`
	RuleSetHash    string `json:"ruleset_hash"`
	ScheduleHash   string `json:"schedule_hash"`

	OK             bool `json:"ok"`
	RuleCount      int  `json:"rule_count"`
	SlotCount      int  `json:"slot_count"`
	ViolationCount int  `json:"violation_count"`

	// Violations is filled by GetRun and RecordRun, and left nil in
	// listings.
	Violations []ir.Violation `json:"violations,omitempty"`

	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// NewRun prepares a journal entry for a validation result.
func NewRun(result ir.ValidationResult, rulesSource, scheduleSource string) Run {
	return Run{
		RulesSource:    rulesSource,
		ScheduleSource: scheduleSource,
		RuleSetHash:    result.RuleSetHash,
		ScheduleHash:   result.ScheduleHash,
		OK:             result.OK,
		RuleCount:      result.RuleCount,
		SlotCount:      result.SlotCount,
		ViolationCount: len(result.Violations),
		Violations:     result.Violations,
		EngineVersion:  ir.EngineVersion,
		IRVersion:      ir.IRVersion,
	}
}
