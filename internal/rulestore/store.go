// Package rulestore holds a compiled, immutable rule set and answers
// lookups against it.
//
// A Store is built once, by Load, LoadBytes or New, and never changes
// afterwards. Every accessor returns copies, so a Store is safe to share
// between goroutines without locking.
package rulestore

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/rota/internal/compiler"
	"github.com/roach88/rota/internal/ir"
)

// Store is a loaded rule set.
type Store struct {
	set  ir.RuleSet
	hash string

	// byPosition maps a position to the declaration indices of the rules
	// governing it, in declaration order.
	byPosition map[string][]int
}

// Option configures loading.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger routes compile warnings and load diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads and compiles the rules document at path.
//
// Loading fails closed: any configuration error aborts the load and no
// Store is returned. The error is a compiler.ConfigErrors listing every
// problem found.
func Load(path string, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	set, err := compiler.CompileFile(path, compiler.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("loading rules %s: %w", path, err)
	}
	return newStore(*set, o)
}

// LoadBytes compiles an in-memory rules document. The format is chosen by
// the extension of name.
func LoadBytes(name string, data []byte, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	set, err := compiler.CompileBytes(name, data, compiler.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("loading rules %s: %w", name, err)
	}
	return newStore(*set, o)
}

// New wraps a rule set built in code. Names are normalized, rules are
// renumbered in slice order and the set is validated exactly as a loaded
// document would be.
func New(set ir.RuleSet, opts ...Option) (*Store, error) {
	o := buildOptions(opts)

	owned := cloneSet(set)
	normalizeAll(owned.Positions)
	normalizeAll(owned.Strategy.FocusOnConsistencyFor)
	for i := range owned.Rules {
		owned.Rules[i].Index = i
		normalizeAll(owned.Rules[i].Positions)
	}
	if errs := compiler.Validate(&owned); len(errs) > 0 {
		return nil, fmt.Errorf("invalid rule set: %w", errs)
	}
	return newStore(owned, o)
}

func newStore(set ir.RuleSet, o *options) (*Store, error) {
	hash, err := ir.RuleSetHash(set)
	if err != nil {
		return nil, fmt.Errorf("hashing rule set: %w", err)
	}

	s := &Store{
		set:        set,
		hash:       hash,
		byPosition: make(map[string][]int),
	}
	for i, rule := range set.Rules {
		for _, p := range rule.Positions {
			s.byPosition[p] = append(s.byPosition[p], i)
		}
	}

	o.logger.Debug("rules loaded",
		zap.String("source", set.Source),
		zap.Int("rules", len(set.Rules)),
		zap.String("hash", hash))
	return s, nil
}

// RulesApplicableTo returns the rules governing position in declaration
// order. An unknown position yields an empty slice.
func (s *Store) RulesApplicableTo(position string) []ir.PositionRule {
	indices := s.byPosition[ir.NormalizeName(position)]
	out := make([]ir.PositionRule, 0, len(indices))
	for _, i := range indices {
		out = append(out, s.set.Rules[i].Clone())
	}
	return out
}

// Rules returns every rule in declaration order.
func (s *Store) Rules() []ir.PositionRule {
	out := make([]ir.PositionRule, len(s.set.Rules))
	for i, r := range s.set.Rules {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of rules.
func (s *Store) Len() int { return len(s.set.Rules) }

// Strategy returns the prioritization hints. They are never enforced.
func (s *Store) Strategy() ir.PrioritizationStrategy {
	return ir.PrioritizationStrategy{
		FocusOnConsistencyFor: slices.Clone(s.set.Strategy.FocusOnConsistencyFor),
	}
}

// Positions returns the declared position catalogue, or nil when the
// document declared none.
func (s *Store) Positions() []string {
	return slices.Clone(s.set.Positions)
}

// Hash returns the content hash of the rule set. Two documents that
// compile to the same rules share a hash regardless of format.
func (s *Store) Hash() string { return s.hash }

// Source names the document the rules came from.
func (s *Store) Source() string { return s.set.Source }

// RuleSet returns a deep copy of the whole set.
func (s *Store) RuleSet() ir.RuleSet { return cloneSet(s.set) }

func normalizeAll(names []string) {
	for i, n := range names {
		names[i] = ir.NormalizeName(n)
	}
}

func cloneSet(set ir.RuleSet) ir.RuleSet {
	out := ir.RuleSet{
		Source:    set.Source,
		Positions: slices.Clone(set.Positions),
		Strategy: ir.PrioritizationStrategy{
			FocusOnConsistencyFor: slices.Clone(set.Strategy.FocusOnConsistencyFor),
		},
	}
	if set.Rules != nil {
		out.Rules = make([]ir.PositionRule, len(set.Rules))
		for i, r := range set.Rules {
			out.Rules[i] = r.Clone()
		}
	}
	return out
}
