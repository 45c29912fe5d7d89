// Package tracker is the application context that owns the store, the
// wall clock and the ID generator.
//
// The engine package is pure and knows nothing about persistence. Tracker
// loads the log, asks the engine for decisions (next valid type, conflicts,
// month classification) and commits the outcome. Status is recomputed
// explicitly after every mutation and returned with it.
//
// Thread-safety model:
//   - Mutations (LogEvent, EditEvent, DeleteEvent, UpdateSettings, Import,
//     ClearEvents) are serialized by an internal mutex so the read-decide-write
//     cycle always sees a consistent log
//   - Reads go straight to the store
package tracker
