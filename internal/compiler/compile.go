package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"go.uber.org/zap"

	"github.com/roach88/rota/internal/ir"
)

// Recognized keys of a position rule entry.
const (
	keyPosition        = "position"
	keyPositions       = "positions"
	keyMaxSlots        = "max_consecutive_slots"
	keyMaxSlotsInGroup = "max_consecutive_slots_in_group"
	keyStartTime       = "start_time"
	keyEndTime         = "end_time"
	keyMustStartOnHour = "must_start_on_hour"
)

var knownRuleKeys = map[string]bool{
	keyPosition:        true,
	keyPositions:       true,
	keyMaxSlots:        true,
	keyMaxSlotsInGroup: true,
	keyStartTime:       true,
	keyEndTime:         true,
	keyMustStartOnHour: true,
}

// Option configures compilation.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger routes compile warnings (unknown keys, limit/cardinality
// mismatches) to logger.
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

// CompileFile reads a rules document from disk and compiles it.
// The format is chosen by extension: .cue is CUE, anything else is YAML
// (which includes JSON).
func CompileFile(path string, opts ...Option) (*ir.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ConfigErrors{{
			Code:    ErrUnreadableDocument,
			Field:   "document",
			Message: fmt.Sprintf("reading rules file: %v", err),
		}}
	}
	return CompileBytes(path, data, opts...)
}

// CompileBytes compiles an in-memory rules document. name is used for the
// format decision and for error positions.
func CompileBytes(name string, data []byte, opts ...Option) (*ir.RuleSet, error) {
	ctx := cuecontext.New()

	var v cue.Value
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(name))
	default:
		file, err := cueyaml.Extract(name, data)
		if err != nil {
			return nil, formatCUEError(err, "document")
		}
		v = ctx.BuildFile(file)
	}

	return Compile(v, name, opts...)
}

// Compile turns a CUE value holding a rules document into a RuleSet.
//
// Compilation fails closed: structural problems (wrong types, unparseable
// times, missing keys) and semantic ones (see Validate) are all collected
// and returned as ConfigErrors, and no partial rule set is returned.
func Compile(v cue.Value, source string, opts ...Option) (*ir.RuleSet, error) {
	o := buildOptions(opts)

	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, "document")
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, "document")
	}

	c := &ruleCompiler{
		logger: o.logger.With(zap.String("source", source)),
		pos:    make(map[string]token.Pos),
	}
	set := c.compileDocument(v)
	set.Source = source

	for _, verr := range Validate(set) {
		if p, ok := c.pos[verr.Field]; ok {
			verr.Pos = p
		}
		c.errs = append(c.errs, verr)
	}

	if len(c.errs) > 0 {
		return nil, c.errs
	}

	for _, w := range Analyze(set) {
		c.logger.Warn("rule warning", zap.String("message", w.Message), zap.Ints("rules", w.Rules))
	}

	return set, nil
}

// ruleCompiler walks one document, collecting errors instead of stopping at
// the first one.
type ruleCompiler struct {
	logger *zap.Logger
	errs   ConfigErrors

	// pos maps a field path to its source position so semantic errors
	// found later can point back into the document.
	pos map[string]token.Pos
}

func (c *ruleCompiler) fail(code, field, message string, pos token.Pos) {
	c.errs = append(c.errs, &ConfigError{Code: code, Field: field, Message: message, Pos: pos})
}

func (c *ruleCompiler) compileDocument(v cue.Value) *ir.RuleSet {
	set := &ir.RuleSet{}

	if catalogue := v.LookupPath(cue.ParsePath("positions")); catalogue.Exists() {
		names, ok := c.stringList(catalogue, "positions")
		if ok {
			set.Positions = names
		}
	}

	rulesVal := v.LookupPath(cue.ParsePath("position_rules"))
	if !rulesVal.Exists() {
		c.fail(ErrMissingRules, "position_rules", "position_rules section is required", v.Pos())
	} else if rulesVal.Kind() != cue.ListKind {
		c.fail(ErrWrongType, "position_rules", "position_rules must be a list", rulesVal.Pos())
	} else {
		iter, err := rulesVal.List()
		if err != nil {
			c.errs = append(c.errs, formatCUEError(err, "position_rules")...)
		} else {
			for i := 0; iter.Next(); i++ {
				if rule, ok := c.compileRule(iter.Value(), i); ok {
					set.Rules = append(set.Rules, rule)
				}
			}
		}
	}

	focusVal := v.LookupPath(cue.ParsePath("prioritization_strategy.focus_on_consistency_for"))
	if focusVal.Exists() {
		names, ok := c.stringList(focusVal, "prioritization_strategy.focus_on_consistency_for")
		if ok {
			set.Strategy.FocusOnConsistencyFor = names
		}
	}

	return set
}

// compileRule parses one rule entry. It returns ok=false when the entry is
// structurally broken; the error has already been recorded.
func (c *ruleCompiler) compileRule(v cue.Value, index int) (ir.PositionRule, bool) {
	field := fmt.Sprintf("position_rules[%d]", index)
	rule := ir.PositionRule{Index: index}

	if v.Kind() != cue.StructKind {
		c.fail(ErrWrongType, field, "rule entry must be a mapping", v.Pos())
		return rule, false
	}
	c.pos[field] = v.Pos()
	ok := true

	c.warnUnknownKeys(v, field)

	// position: scalar or list, normalized to a list
	posKey := keyPosition
	posVal := v.LookupPath(cue.ParsePath(keyPosition))
	if !posVal.Exists() {
		posKey = keyPositions
		posVal = v.LookupPath(cue.ParsePath(keyPositions))
	}
	if !posVal.Exists() {
		c.fail(ErrEmptyPositions, field+".position", "position is required", v.Pos())
		ok = false
	} else {
		positions, posOK := c.positionNames(posVal, field+"."+posKey)
		rule.Positions = positions
		ok = ok && posOK
	}

	// limit: exactly one of the two keys
	single := v.LookupPath(cue.ParsePath(keyMaxSlots))
	group := v.LookupPath(cue.ParsePath(keyMaxSlotsInGroup))
	switch {
	case single.Exists() && group.Exists():
		c.fail(ErrAmbiguousLimit, field,
			fmt.Sprintf("only one of %s and %s may be set", keyMaxSlots, keyMaxSlotsInGroup), v.Pos())
		ok = false
	case !single.Exists() && !group.Exists():
		c.fail(ErrMissingLimit, field,
			fmt.Sprintf("one of %s or %s is required", keyMaxSlots, keyMaxSlotsInGroup), v.Pos())
		ok = false
	default:
		limitKey, limitVal := keyMaxSlots, single
		if group.Exists() {
			limitKey, limitVal = keyMaxSlotsInGroup, group
			rule.Group = true
		}
		limitField := field + "." + limitKey
		c.pos[limitField] = limitVal.Pos()
		n, err := limitVal.Int64()
		if err != nil {
			c.fail(ErrWrongType, limitField, "must be an integer", limitVal.Pos())
			ok = false
		} else {
			rule.MaxConsecutiveSlots = int(n)
		}
	}

	if start, present, timeOK := c.clockField(v, field, keyStartTime); present {
		ok = ok && timeOK
		if timeOK {
			rule.Window.Start = &start
		}
	}
	if end, present, timeOK := c.clockField(v, field, keyEndTime); present {
		ok = ok && timeOK
		if timeOK {
			rule.Window.End = &end
		}
	}
	if rule.Window.Start != nil && rule.Window.End != nil {
		c.pos[field+".window"] = v.LookupPath(cue.ParsePath(keyStartTime)).Pos()
	}

	if onHour := v.LookupPath(cue.ParsePath(keyMustStartOnHour)); onHour.Exists() {
		b, err := onHour.Bool()
		if err != nil {
			c.fail(ErrWrongType, field+"."+keyMustStartOnHour, "must be a boolean", onHour.Pos())
			ok = false
		} else {
			rule.MustStartOnHour = b
		}
	}

	if ok && rule.Group && len(rule.Positions) == 1 {
		c.logger.Warn("group limit on a single position",
			zap.String("field", field), zap.Strings("positions", rule.Positions))
	}
	if ok && !rule.Group && len(rule.Positions) > 1 {
		c.logger.Warn("per-position limit on several positions; counting them as one group",
			zap.String("field", field), zap.Strings("positions", rule.Positions))
	}

	return rule, ok
}

// positionNames accepts a string or a list of strings and returns the
// normalized names in declaration order. Duplicates are reported and
// dropped.
func (c *ruleCompiler) positionNames(v cue.Value, field string) ([]string, bool) {
	c.pos[field] = v.Pos()
	switch v.Kind() {
	case cue.StringKind:
		s, _ := v.String()
		name := ir.NormalizeName(s)
		if name == "" {
			// left for Validate to report as empty positions
			return nil, true
		}
		return []string{name}, true
	case cue.ListKind:
		names, ok := c.stringList(v, field)
		return names, ok
	default:
		c.fail(ErrWrongType, field, "must be a string or a list of strings", v.Pos())
		return nil, false
	}
}

// stringList reads a list of non-empty strings, normalizing each name and
// reporting duplicates.
func (c *ruleCompiler) stringList(v cue.Value, field string) ([]string, bool) {
	c.pos[field] = v.Pos()
	if v.Kind() == cue.StringKind {
		s, _ := v.String()
		return []string{ir.NormalizeName(s)}, true
	}
	iter, err := v.List()
	if err != nil {
		c.fail(ErrWrongType, field, "must be a list of strings", v.Pos())
		return nil, false
	}

	var names []string
	seen := make(map[string]bool)
	ok := true
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		itemField := fmt.Sprintf("%s[%d]", field, i)
		s, err := item.String()
		if err != nil {
			c.fail(ErrWrongType, itemField, "must be a string", item.Pos())
			ok = false
			continue
		}
		name := ir.NormalizeName(s)
		if name == "" {
			c.fail(ErrEmptyPositions, itemField, "name must not be empty", item.Pos())
			ok = false
			continue
		}
		if seen[name] {
			c.fail(ErrDuplicatePosition, itemField, fmt.Sprintf("duplicate name %q", name), item.Pos())
			ok = false
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, ok
}

// clockField parses an optional clock-time key.
func (c *ruleCompiler) clockField(v cue.Value, ruleField, key string) (t ir.ClockTime, present, ok bool) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return 0, false, true
	}
	field := ruleField + "." + key
	c.pos[field] = val.Pos()

	s, err := val.String()
	if err != nil {
		c.fail(ErrWrongType, field, `must be a clock string such as "12:30 PM"`, val.Pos())
		return 0, true, false
	}
	t, err = ir.ParseClock(s)
	if err != nil {
		c.fail(ErrInvalidTime, field, err.Error(), val.Pos())
		return 0, true, false
	}
	return t, true, true
}

func (c *ruleCompiler) warnUnknownKeys(v cue.Value, field string) {
	iter, err := v.Fields()
	if err != nil {
		return
	}
	for iter.Next() {
		if label := iter.Label(); !knownRuleKeys[label] {
			c.logger.Warn("unknown rule key ignored", zap.String("field", field), zap.String("key", label))
		}
	}
}
