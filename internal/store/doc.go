// Package store provides SQLite-backed durable storage for the attendance log.
//
// The store holds two things:
//   - Events: the LEAVE/RETURN log, keyed by event ID
//   - Settings: a single record (key 'config') with X, Y_time and Z_time
//
// The store performs no validation beyond table constraints. Alternation,
// conflict resolution and future-timestamp checks belong to the tracker.
//
// # Ordering
//
// Every event listing uses ORDER BY timestamp ASC, id ASC COLLATE BINARY so
// that two events at the same instant come back in a stable order.
//
// # Atomicity
//
// ApplyMutation and ReplaceAll run in one transaction. A conflict deletion
// and its triggering insert either both land or neither does.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
