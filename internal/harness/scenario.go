package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rota/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is either a path to a rules document, relative to the scenario
	// file, or an inline rules document.
	Rules yaml.Node `yaml:"rules"`

	// Schedule is an optional path to a schedule file (CSV grid or slot
	// list), relative to the scenario file. Mutually exclusive with Slots.
	Schedule string `yaml:"schedule,omitempty"`

	// Times optionally declares the timeline for inline Slots.
	Times []ir.ClockTime `yaml:"times,omitempty"`

	// Slots is an inline schedule.
	Slots []ir.Slot `yaml:"slots,omitempty"`

	// Workers bounds validator parallelism. Zero means the default.
	Workers int `yaml:"workers,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory of the scenario file, used to resolve paths.
	dir string
}

// Assertion checks one property of a scenario's outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number of matching violations
	// (violation_count).
	Count *int `yaml:"count,omitempty"`

	// Violation is a subset match against violations (violation,
	// no_violation, violation_count). Unset fields match anything.
	Violation *ViolationMatch `yaml:"violation,omitempty"`

	// Code is the expected config error code (config_error).
	Code string `yaml:"code,omitempty"`

	// Consistency is the expected summary of a focus position
	// (consistency).
	Consistency *ir.ConsistencySummary `yaml:"consistency,omitempty"`
}

// ViolationMatch selects violations by the fields that are set.
type ViolationMatch struct {
	Kind       ir.ViolationKind `yaml:"kind,omitempty"`
	RuleIndex  *int             `yaml:"rule_index,omitempty"`
	Individual string           `yaml:"individual,omitempty"`
	At         *ir.ClockTime    `yaml:"at,omitempty"`
	Start      *ir.ClockTime    `yaml:"start,omitempty"`
	Length     *int             `yaml:"length,omitempty"`
}

// Assertion type constants.
const (
	AssertOK             = "ok"
	AssertNotOK          = "not_ok"
	AssertViolation      = "violation"
	AssertNoViolation    = "no_violation"
	AssertViolationCount = "violation_count"
	AssertConfigError    = "config_error"
	AssertConsistency    = "consistency"
)

// RulesNotFoundError is returned when a scenario references a rules or
// schedule file that doesn't exist.
type RulesNotFoundError struct {
	Scenario     string
	Path         string
	ResolvedPath string
}

// Error implements the error interface.
func (e *RulesNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references %q which does not exist (resolved to: %s)",
		e.Scenario, e.Path, e.ResolvedPath)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. Relative paths inside it resolve
// against dir.
func ParseScenario(data []byte, dir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = dir

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// RulesPath returns the resolved rules file path, or "" for inline rules.
func (s *Scenario) RulesPath() string {
	if s.Rules.Kind != yaml.ScalarNode {
		return ""
	}
	return s.resolve(s.Rules.Value)
}

// SchedulePath returns the resolved schedule file path, or "" for inline
// slots.
func (s *Scenario) SchedulePath() string {
	if s.Schedule == "" {
		return ""
	}
	return s.resolve(s.Schedule)
}

func (s *Scenario) resolve(p string) string {
	if filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Rules.Kind {
	case 0:
		return fmt.Errorf("rules is required")
	case yaml.ScalarNode:
		if s.Rules.Value == "" {
			return fmt.Errorf("rules path must not be empty")
		}
		if err := s.requireFile(s.Rules.Value); err != nil {
			return err
		}
	case yaml.MappingNode:
	default:
		return fmt.Errorf("rules must be a path or an inline rules document")
	}

	if s.Schedule != "" {
		if len(s.Slots) > 0 || len(s.Times) > 0 {
			return fmt.Errorf("schedule and inline slots/times are mutually exclusive")
		}
		if err := s.requireFile(s.Schedule); err != nil {
			return err
		}
	}

	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scenario) requireFile(p string) error {
	resolved := s.resolve(p)
	if _, err := os.Stat(resolved); os.IsNotExist(err) {
		return &RulesNotFoundError{Scenario: s.Name, Path: p, ResolvedPath: resolved}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOK, AssertNotOK:
	case AssertViolation, AssertNoViolation:
		if a.Violation == nil {
			return fmt.Errorf("assertions[%d]: violation is required for %s", index, a.Type)
		}
	case AssertViolationCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for violation_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for violation_count", index)
		}
	case AssertConfigError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for config_error", index)
		}
	case AssertConsistency:
		if a.Consistency == nil || a.Consistency.Position == "" {
			return fmt.Errorf("assertions[%d]: consistency.position is required", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
