package engine

import (
	"sort"
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// DayStatuses maps day-of-month to its derived status.
type DayStatuses map[int]*ir.DayStatus

// Days returns the day numbers in ascending order.
func (d DayStatuses) Days() []int {
	days := make([]int, 0, len(d))
	for day := range d {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// Ordered returns the statuses in ascending day order.
func (d DayStatuses) Ordered() []*ir.DayStatus {
	out := make([]*ir.DayStatus, 0, len(d))
	for _, day := range d.Days() {
		out = append(out, d[day])
	}
	return out
}

// cutoffs holds the parsed Y/Z times. A cutoff that fails to parse never
// marks a day as fully absent.
type cutoffs struct {
	leaveBefore ir.ClockTime
	returnAfter ir.ClockTime
	leaveValid  bool
	returnValid bool
}

func parseCutoffs(s ir.Settings) cutoffs {
	var c cutoffs
	if y, err := ir.ParseClockTime(s.YTime); err == nil {
		c.leaveBefore, c.leaveValid = y, true
	}
	if z, err := ir.ParseClockTime(s.ZTime); err == nil {
		c.returnAfter, c.returnValid = z, true
	}
	return c
}

// ClassifyMonth classifies every calendar day of year/month.
//
// A day is NO_DATA when it starts after now, when the log is empty, or when it
// precedes the calendar day of the earliest logged event. Every other day is
// classified from the state at its boundaries and the events inside it.
// IsMessReductionEligible is left false; see ApplyMessReduction.
func ClassifyMonth(events []ir.Event, settings ir.Settings, year int, month time.Month, now time.Time) DayStatuses {
	loc := now.Location()
	sorted := sortedByTimestamp(events)
	total := DaysIn(year, month)
	result := make(DayStatuses, total)
	cut := parseCutoffs(settings)

	var firstDay time.Time
	if len(sorted) > 0 {
		first := sorted[0].Timestamp.In(loc)
		firstDay = startOfDay(first.Year(), first.Month(), first.Day(), loc)
	}

	for day := 1; day <= total; day++ {
		dayStart := startOfDay(year, month, day, loc)
		nextStart := startOfDay(year, month, day+1, loc)
		status := &ir.DayStatus{
			Date:           day,
			Classification: ir.DayNoData,
			Events:         eventsBetween(sorted, dayStart, nextStart),
		}
		result[day] = status

		if dayStart.After(now) || len(sorted) == 0 || dayStart.Before(firstDay) {
			continue
		}

		dayEnd := nextStart.Add(-time.Nanosecond)
		if dayEnd.After(now) {
			dayEnd = now
		}
		startState := ResolveStateAt(sorted, dayStart)
		endState := ResolveStateAt(sorted, dayEnd)

		status.Classification = classifyDay(startState, endState, status.Events)
		status.IsFullAbsent = isFullAbsent(status.Classification, status.Events, cut, year, month, day, loc)
	}

	return result
}

// classifyDay applies the decision table; the first matching rule wins.
func classifyDay(start, end ir.State, dayEvents []ir.Event) ir.Classification {
	hasLeave, hasReturn := false, false
	for _, ev := range dayEvents {
		switch ev.Type {
		case ir.EventLeave:
			hasLeave = true
		case ir.EventReturn:
			hasReturn = true
		}
	}

	switch {
	case start == ir.StateUnknown && !hasLeave && !hasReturn:
		return ir.DayNoData
	case start == ir.StateAbsent && end == ir.StateAbsent && !hasLeave && !hasReturn:
		return ir.DayAbsent
	case hasLeave && !hasReturn:
		return ir.DayLeaving
	case hasReturn && !hasLeave:
		return ir.DayReturning
	case hasLeave && hasReturn:
		// Both transitions happened; the state at the end of the day decides.
		if end == ir.StateAbsent {
			return ir.DayLeaving
		}
		return ir.DayReturning
	case start == ir.StateAbsent:
		return ir.DayAbsent
	default:
		return ir.DayPresent
	}
}

// isFullAbsent decides whether the whole productive day was lost.
// LEAVING uses the earliest LEAVE of the day, RETURNING the latest RETURN.
func isFullAbsent(c ir.Classification, dayEvents []ir.Event, cut cutoffs, year int, month time.Month, day int, loc *time.Location) bool {
	switch c {
	case ir.DayAbsent:
		return true
	case ir.DayLeaving:
		if !cut.leaveValid {
			return false
		}
		first, ok := earliestOfType(dayEvents, ir.EventLeave)
		return ok && first.Before(cut.leaveBefore.On(year, month, day, loc))
	case ir.DayReturning:
		if !cut.returnValid {
			return false
		}
		last, ok := latestOfType(dayEvents, ir.EventReturn)
		return ok && last.After(cut.returnAfter.On(year, month, day, loc))
	default:
		return false
	}
}

// eventsBetween returns the events in [from, to). sorted must be ascending.
func eventsBetween(sorted []ir.Event, from, to time.Time) []ir.Event {
	var out []ir.Event
	for _, ev := range sorted {
		if ev.Timestamp.Before(from) {
			continue
		}
		if !ev.Timestamp.Before(to) {
			break
		}
		out = append(out, ev)
	}
	return out
}

func earliestOfType(events []ir.Event, t ir.EventType) (time.Time, bool) {
	var best time.Time
	found := false
	for _, ev := range events {
		if ev.Type != t {
			continue
		}
		if !found || ev.Timestamp.Before(best) {
			best, found = ev.Timestamp, true
		}
	}
	return best, found
}

func latestOfType(events []ir.Event, t ir.EventType) (time.Time, bool) {
	var best time.Time
	found := false
	for _, ev := range events {
		if ev.Type != t {
			continue
		}
		if !found || ev.Timestamp.After(best) {
			best, found = ev.Timestamp, true
		}
	}
	return best, found
}
