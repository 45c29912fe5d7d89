package engine

import (
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// NextValidEventType reports which event type may be inserted at `at` while
// keeping LEAVE and RETURN alternating. excludeID (may be empty) names an
// event to ignore, which is the event being edited.
//
// The answer is the opposite of the nearest event at or before `at`; with no
// such event it is the opposite of the nearest event after `at`; with an
// empty log it is ir.EventAny. When both neighbours share a type the
// preceding one still decides, which steers a damaged log back toward
// alternation.
func NextValidEventType(events []ir.Event, at time.Time, excludeID string) ir.EventType {
	sorted := sortedByTimestamp(withoutID(events, excludeID))
	if len(sorted) == 0 {
		return ir.EventAny
	}

	var lastBefore, firstAfter *ir.Event
	for i := range sorted {
		ev := &sorted[i]
		if !ev.Timestamp.After(at) {
			lastBefore = ev
			continue
		}
		firstAfter = ev
		break
	}

	switch {
	case lastBefore != nil:
		return lastBefore.Type.Opposite()
	case firstAfter != nil:
		return firstAfter.Type.Opposite()
	default:
		return ir.EventAny
	}
}

// FindConflictingEventIDs returns the IDs of the events that would break
// alternation if an event of newType were inserted at `at`. The nearest event
// strictly before and the nearest strictly after are each checked; those
// sharing newType are returned, predecessor first. excludeID (may be empty)
// is ignored, as in NextValidEventType.
func FindConflictingEventIDs(events []ir.Event, newType ir.EventType, at time.Time, excludeID string) []string {
	sorted := sortedByTimestamp(withoutID(events, excludeID))

	var prev, next *ir.Event
	for i := range sorted {
		ev := &sorted[i]
		if ev.Timestamp.Before(at) {
			prev = ev
		} else if ev.Timestamp.After(at) {
			next = ev
			break
		}
	}

	var conflicts []string
	if prev != nil && prev.Type == newType {
		conflicts = append(conflicts, prev.ID)
	}
	if next != nil && next.Type == newType {
		conflicts = append(conflicts, next.ID)
	}
	return conflicts
}

func withoutID(events []ir.Event, id string) []ir.Event {
	if id == "" {
		return events
	}
	out := make([]ir.Event, 0, len(events))
	for _, ev := range events {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	return out
}
