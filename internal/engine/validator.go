package engine

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/rota/internal/ir"
	"github.com/roach88/rota/internal/rulestore"
	"github.com/roach88/rota/internal/schedule"
)

// Validator checks schedules against one rule store.
//
// Thread-safety: a Validator holds only immutable state. Concurrent Validate
// calls, on the same or different schedules, are safe.
type Validator struct {
	store   *rulestore.Store
	workers int
	logger  *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithWorkers bounds how many rules are checked at once.
//
// Default: runtime.GOMAXPROCS(0). Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.workers = n
		}
	}
}

// WithLogger sets the logger for per-rule debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewValidator creates a Validator for the rules in store.
func NewValidator(store *rulestore.Store, opts ...Option) *Validator {
	v := &Validator{
		store:   store,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every rule against sched.
//
// Rules are independent and run in parallel, each writing its violations to
// its own slot; the slots are merged in rule declaration order so the result
// is the same for any worker count. Violations are data: the only error is
// cancellation of ctx.
func (v *Validator) Validate(ctx context.Context, sched *schedule.Schedule) (ir.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return ir.ValidationResult{}, fmt.Errorf("validating schedule: %w", err)
	}

	rules := v.store.Rules()
	slots := sched.Slots()
	perRule := make([][]ir.Violation, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, rule := range rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perRule[i] = v.checkRule(rule, slots)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ir.ValidationResult{}, fmt.Errorf("validating schedule: %w", err)
	}

	violations := []ir.Violation{}
	for _, vs := range perRule {
		violations = append(violations, vs...)
	}

	scheduleHash, err := sched.Hash()
	if err != nil {
		return ir.ValidationResult{}, fmt.Errorf("hashing schedule: %w", err)
	}

	result := ir.ValidationResult{
		OK:           len(violations) == 0,
		Violations:   violations,
		Consistency:  Consistency(v.store.Strategy().FocusOnConsistencyFor, slots),
		RuleCount:    len(rules),
		SlotCount:    len(slots),
		RuleSetHash:  v.store.Hash(),
		ScheduleHash: scheduleHash,
	}

	v.logger.Debug("schedule validated",
		zap.Bool("ok", result.OK),
		zap.Int("rules", result.RuleCount),
		zap.Int("slots", result.SlotCount),
		zap.Int("violations", len(violations)))
	return result, nil
}

func (v *Validator) checkRule(rule ir.PositionRule, slots []ir.Slot) []ir.Violation {
	seq := BuildSequence(rule, slots)
	out := Check(rule, seq)
	if onHour := CheckStartOnHour(rule, slots); len(onHour) > 0 {
		out = append(out, onHour...)
		sortViolations(out)
	}

	v.logger.Debug("rule checked",
		zap.Int("rule", rule.Index),
		zap.String("positions", rule.Label()),
		zap.Int("slots", len(seq)),
		zap.Int("violations", len(out)))
	return out
}
