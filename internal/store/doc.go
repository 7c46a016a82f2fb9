// Package store provides the SQLite-backed run journal.
//
// Every validation recorded with --journal becomes one run: the rule-set
// and schedule hashes, the verdict, and the ordered violations. Comparing
// runs that share a schedule hash shows whether a rules change altered the
// verdict on the same solver output.
//
// The journal stores results only. Rosters and rules documents are never
// written.
//
// # Ordering
//
//   - runs.seq is assigned by SQLite on insert and never reused
//   - run listings use ORDER BY seq, id COLLATE BINARY
//   - violations keep the validator's order through their ord column
//
// # Connection
//
// Journals open through go-sqlite3 DSN parameters: WAL, synchronous=NORMAL,
// a 5s busy timeout and foreign keys on, so deleting a run drops its
// violations. The pool holds one connection.
package store
