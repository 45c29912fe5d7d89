// Package harness runs YAML attendance scenarios end to end.
//
// Each scenario seeds a fresh in-memory store, replays a list of mutations
// through the tracker, computes one month and checks the outcome against the
// scenario's expectations.
//
// # Scenario Format
//
//	name: leave_block_spanning_week
//	description: "Five fully absent days earn a reduction at X=3"
//	now: "2025-03-20T12:00"
//	month: "2025-03"
//	timezone: UTC
//	settings: { x: 3, y_time: "09:00", z_time: "17:00" }
//	events:
//	  - { id: e1, type: LEAVE, at: "2025-03-05T08:00" }
//	  - { id: e2, type: RETURN, at: "2025-03-09T18:00" }
//	mutations:
//	  - { next_type_at: "2025-03-07T10:00", expect_next: RETURN }
//	  - { insert: RETURN, at: "2025-03-04T12:00", expect_conflicts: [e2] }
//	  - { insert: LEAVE, at: "2025-03-21T08:00", expect_error: FUTURE_TIMESTAMP }
//	  - { delete: e1 }
//	expect:
//	  state: PRESENT
//	  days: { 5: { classification: LEAVING, full_absent: true, eligible: true } }
//	  blocks: [ { start: 5, end: 9, eligible: true } ]
//	  summary: { present: 11, absent: 5, full_absent: 5, no_data: 15, mess_reduction: 5 }
//
// Instants are "YYYY-MM-DDTHH:mm" wall times in the scenario's timezone
// (UTC when omitted). Events are seeded verbatim, so a scenario can describe
// a log that breaks alternation. Mutations go through the tracker and are
// subject to conflict resolution. Expectations are checked after the last
// mutation.
//
// # Deterministic Testing
//
// The harness uses:
//   - A fixed clock frozen at the scenario's now (testutil.FixedClock)
//   - Sequential IDs "m-1", "m-2", ... for inserted events
//   - In-memory SQLite database (isolated per run)
//
// Golden snapshots are canonical JSON (see Snapshot) stored under
// testdata/golden/<name>.golden.
package harness
