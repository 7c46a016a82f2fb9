package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rota/internal/compiler"
	"github.com/roach88/rota/internal/engine"
	"github.com/roach88/rota/internal/rulestore"
	"github.com/roach88/rota/internal/schedule"
)

// Option configures a harness run.
type Option func(*runOptions)

type runOptions struct {
	logger *zap.Logger
}

// WithLogger routes compiler and validator diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the rules (config errors are recorded, not returned)
//  2. Build the schedule
//  3. Validate
//  4. Evaluate assertions
//
// A rules file that cannot be read is a config error like any other
// (E110), so config_error assertions can expect it. An error is returned
// only when the scenario itself cannot be executed: a malformed or
// unreadable schedule, or inline rules that cannot be re-encoded.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := &runOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.With(zap.String("scenario", scenario.Name))
	result := NewResult()

	store, err := loadRules(scenario, logger)
	var cfgErrs compiler.ConfigErrors
	switch {
	case errors.As(err, &cfgErrs):
		for _, e := range cfgErrs {
			result.ConfigErrors = append(result.ConfigErrors, e.Code)
		}
	case err != nil:
		return nil, err
	default:
		sched, err := loadSchedule(scenario)
		if err != nil {
			return nil, fmt.Errorf("failed to build schedule: %w", err)
		}

		validator := engine.NewValidator(store,
			engine.WithWorkers(scenario.Workers),
			engine.WithLogger(logger))
		validation, err := validator.Validate(context.Background(), sched)
		if err != nil {
			return nil, err
		}
		result.Validation = &validation
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadRules(scenario *Scenario, logger *zap.Logger) (*rulestore.Store, error) {
	if path := scenario.RulesPath(); path != "" {
		return rulestore.Load(path, rulestore.WithLogger(logger))
	}

	data, err := yaml.Marshal(&scenario.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inline rules: %w", err)
	}
	return rulestore.LoadBytes(scenario.Name+".yaml", data, rulestore.WithLogger(logger))
}

func loadSchedule(scenario *Scenario) (*schedule.Schedule, error) {
	if path := scenario.SchedulePath(); path != "" {
		return schedule.ReadFile(path)
	}
	if scenario.Times != nil {
		return schedule.NewWithTimeline(scenario.Times, scenario.Slots)
	}
	return schedule.New(scenario.Slots)
}
