package engine

import (
	"sort"
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// ResolveStateAt returns the presence state implied by the latest event at or
// before at. It returns ir.StateUnknown when no such event exists.
//
// Equal timestamps are resolved in favour of the event appearing later in the
// slice; well-formed logs never contain them.
func ResolveStateAt(events []ir.Event, at time.Time) ir.State {
	var last *ir.Event
	for i := range events {
		ev := &events[i]
		if ev.Timestamp.After(at) {
			continue
		}
		if last == nil || !ev.Timestamp.Before(last.Timestamp) {
			last = ev
		}
	}
	if last == nil {
		return ir.StateUnknown
	}
	return stateAfter(last.Type)
}

// CurrentState is ResolveStateAt evaluated at now.
func CurrentState(events []ir.Event, now time.Time) ir.State {
	return ResolveStateAt(events, now)
}

// IsFutureTimestamp reports whether ts lies beyond now.
func IsFutureTimestamp(ts, now time.Time) bool {
	return ts.After(now)
}

// IsFutureDay reports whether the calendar day starts after today, with both
// measured in now's location.
func IsFutureDay(year int, month time.Month, day int, now time.Time) bool {
	loc := now.Location()
	today := startOfDay(now.Year(), now.Month(), now.Day(), loc)
	return startOfDay(year, month, day, loc).After(today)
}

func stateAfter(t ir.EventType) ir.State {
	if t == ir.EventLeave {
		return ir.StateAbsent
	}
	return ir.StatePresent
}

// sortedByTimestamp returns a copy of events in ascending timestamp order.
// The sort is stable so equal timestamps keep their input order.
func sortedByTimestamp(events []ir.Event) []ir.Event {
	sorted := make([]ir.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

func startOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
