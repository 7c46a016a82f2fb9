// Package ir provides the compiled representation of shift rules and
// schedules used by rota.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the rule model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Clock times are integer minutes after midnight, never floats
//   - Optional window bounds are pointers; a nil bound means unbounded
//   - All JSON tags use snake_case
//   - Compiled values are immutable once handed to the rule store
package ir
