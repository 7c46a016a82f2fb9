package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRuleSet  = "rota/ruleset/v1"
	DomainSchedule = "rota/schedule/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleSetHash identifies a compiled rule set by content. The Source path is
// excluded: the same rules loaded from two files hash equal.
func RuleSetHash(set RuleSet) (string, error) {
	rules := make([]any, len(set.Rules))
	for i, r := range set.Rules {
		rule := map[string]any{
			"index":                 r.Index,
			"positions":             r.Positions,
			"max_consecutive_slots": r.MaxConsecutiveSlots,
			"group":                 r.Group,
			"must_start_on_hour":    r.MustStartOnHour,
		}
		if r.Window.Start != nil {
			rule["start"] = *r.Window.Start
		}
		if r.Window.End != nil {
			rule["end"] = *r.Window.End
		}
		rules[i] = rule
	}

	obj := map[string]any{
		"ir_version": IRVersion,
		"positions":  nonNilStrings(set.Positions),
		"rules":      rules,
		"focus":      nonNilStrings(set.Strategy.FocusOnConsistencyFor),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// ScheduleHash identifies a schedule by its slots. Callers pass slots in
// timeline order; schedule.Schedule guarantees that.
func ScheduleHash(slots []Slot) (string, error) {
	items := make([]any, len(slots))
	for i, s := range slots {
		items[i] = map[string]any{
			"position":   s.Position,
			"time":       s.Time,
			"time_index": s.TimeIndex,
			"individual": s.Individual,
		}
	}

	canonical, err := MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("ScheduleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchedule, canonical), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
