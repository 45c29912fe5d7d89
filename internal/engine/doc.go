// Package engine implements the mestrack attendance engine.
//
// The engine turns an event log (LEAVE/RETURN markers) plus settings into
// per-day classifications, leave blocks and mess-reduction eligibility.
//
// ARCHITECTURE:
//
// Pure Pipeline:
// Every exported function is a deterministic function of its arguments.
// There is no package state, no I/O, no logging and no goroutines. The
// current moment is always passed in as "now", never read from the system
// clock, so the same inputs always produce the same month.
//
// Monthly Pipeline:
// 1. ClassifyMonth assigns each calendar day a Classification and a
// full-absence flag, using ResolveStateAt at the day boundaries
// 2. FindLeaveBlocks groups consecutive full-absence days
// 3. ApplyMessReduction marks blocks of at least X days (and their days)
// eligible
// 4. Summarize tallies the month
//
// CalculateMonth composes steps 1-3.
//
// Mutation Support:
// NextValidEventType and FindConflictingEventIDs advise callers before they
// insert or edit an event, so LEAVE and RETURN keep alternating. The engine
// never mutates the log; it only returns suggestions.
//
// Day boundaries are local midnights in now.Location().
package engine
