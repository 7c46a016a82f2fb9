// Package harness runs conformance scenarios against the rules engine.
//
// A scenario is a YAML file naming a rules document (by path or inline), a
// schedule (by path or as inline slots) and assertions about the outcome:
// whether the schedule passes, which violations appear, or which config
// error the rules produce. Scenarios exercise the real compiler, rule store
// and validator; nothing is stubbed.
//
// # Golden Files
//
// Snapshot renders a result as canonical JSON. RunWithGolden compares it
// against testdata/golden/<scenario>.golden, and `rota test --update`
// rewrites the files next to a scenario directory.
//
// # Example
//
//	name: lunch-boundary
//	description: streaks split at the 12:30 PM boundary
//	rules: ../rules/rules.yaml
//	times: ["12:00 PM", "12:15 PM", "12:30 PM", "12:45 PM"]
//	slots:
//	  - {position: Line Buster 1, time: "12:00 PM", individual: Sam}
//	  - {position: Line Buster 1, time: "12:15 PM", individual: Sam}
//	  - {position: Line Buster 1, time: "12:45 PM", individual: Sam}
//	assertions:
//	  - type: ok
package harness
