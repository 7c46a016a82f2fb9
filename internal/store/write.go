package store

import (
	"context"
	"fmt"
)

// RecordRun appends a run and its violations in one transaction.
//
// An empty ID is filled from the store's generator and a zero RecordedAt
// from its clock. The returned Run carries the assigned ID, time and Seq.
// Recording the same ID twice is an error.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = s.now()
	}
	run.RecordedAt = run.RecordedAt.UTC()
	run.ViolationCount = len(run.Violations)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, recorded_at, rules_source, schedule_source, ruleset_hash, schedule_hash,
		 ok, rule_count, slot_count, violation_count, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.RecordedAt),
		run.RulesSource,
		run.ScheduleSource,
		run.RuleSetHash,
		run.ScheduleHash,
		boolToInt(run.OK),
		run.RuleCount,
		run.SlotCount,
		run.ViolationCount,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", run.ID, err)
	}
	if run.Seq, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("record run %s: seq: %w", run.ID, err)
	}

	for ord, v := range run.Violations {
		positions, err := marshalPositions(v.Positions)
		if err != nil {
			return Run{}, fmt.Errorf("record run %s: %w", run.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO violations
			(run_id, ord, kind, rule_index, positions, individual,
			 start_index, at_index, start_time, at_time, length, slot_limit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, ord, string(v.Kind), v.RuleIndex, positions, v.Individual,
			v.StartIndex, v.AtIndex, int(v.StartTime), int(v.AtTime), v.Length, v.Limit,
		)
		if err != nil {
			return Run{}, fmt.Errorf("record run %s: violation %d: %w", run.ID, ord, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return run, nil
}
