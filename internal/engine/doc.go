// Package engine evaluates compiled shift rules against candidate
// schedules.
//
// ARCHITECTURE:
//
// Three pieces, each usable on its own:
//   - IsActive decides whether a rule's time window covers a clock time.
//   - Check scans one rule's filtered slot sequence for over-long streaks.
//     CheckStartOnHour scans the rule's positions across the whole
//     timeline and uses the window only to select which runs it checks.
//   - Validator runs every rule of a rulestore.Store against a schedule
//     and assembles the ValidationResult.
//
// Rule checks share no mutable state. The Validator runs them in parallel,
// each writing to its own result slot, and merges the slots in rule
// declaration order.
//
// DETERMINISM:
//
// Violations are reported in rule declaration order, then by the time index
// where the rule was broken, then by individual, then by kind. The order
// does not depend on the number of workers.
package engine
