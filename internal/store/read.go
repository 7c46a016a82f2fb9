package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rota/internal/ir"
)

const runColumns = `seq, id, recorded_at, rules_source, schedule_source, ruleset_hash, schedule_hash,
	ok, rule_count, slot_count, violation_count, engine_version, ir_version`

// ListRuns returns the most recent runs, newest first, without their
// violations. limit <= 0 returns every run.
//
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC, id COLLATE BINARY ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// RunsForSchedule returns every run of the schedule with the given hash,
// oldest first.
func (s *Store) RunsForSchedule(ctx context.Context, scheduleHash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE schedule_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, scheduleHash)
}

// GetRun returns one run with its violations in recorded order.
// Returns ErrRunNotFound for an unknown ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}

	run.Violations, err = s.readViolations(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readViolations(ctx context.Context, runID string) ([]ir.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, rule_index, positions, individual,
		       start_index, at_index, start_time, at_time, length, slot_limit
		FROM violations
		WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	violations := []ir.Violation{}
	for rows.Next() {
		var (
			v         ir.Violation
			kind      string
			positions string
			startTime int
			atTime    int
		)
		if err := rows.Scan(&kind, &v.RuleIndex, &positions, &v.Individual,
			&v.StartIndex, &v.AtIndex, &startTime, &atTime, &v.Length, &v.Limit); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		v.Kind = ir.ViolationKind(kind)
		v.StartTime = ir.ClockTime(startTime)
		v.AtTime = ir.ClockTime(atTime)
		if v.Positions, err = unmarshalPositions(positions); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violations: %w", err)
	}
	return violations, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		recordedAt string
		ok         int
	)
	err := row.Scan(&run.Seq, &run.ID, &recordedAt, &run.RulesSource, &run.ScheduleSource,
		&run.RuleSetHash, &run.ScheduleHash, &ok, &run.RuleCount, &run.SlotCount,
		&run.ViolationCount, &run.EngineVersion, &run.IRVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.OK = ok == 1
	if run.RecordedAt, err = parseTime(recordedAt); err != nil {
		return Run{}, err
	}
	return run, nil
}
