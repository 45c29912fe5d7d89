package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mestrack/internal/ir"
)

func TestResolveStateAt_EmptyLog(t *testing.T) {
	assert.Equal(t, ir.StateUnknown, ResolveStateAt(nil, at(5, 12, 0)))
}

func TestResolveStateAt_BeforeFirstEvent(t *testing.T) {
	events := []ir.Event{leave("e1", at(5, 8, 0))}
	assert.Equal(t, ir.StateUnknown, ResolveStateAt(events, at(5, 7, 59)))
}

func TestResolveStateAt_InclusiveOfQueryInstant(t *testing.T) {
	events := []ir.Event{leave("e1", at(5, 8, 0))}
	assert.Equal(t, ir.StateAbsent, ResolveStateAt(events, at(5, 8, 0)))
}

func TestResolveStateAt_LatestEventWins(t *testing.T) {
	// Deliberately unsorted input.
	events := []ir.Event{
		ret("e2", at(9, 18, 0)),
		leave("e1", at(5, 8, 0)),
		leave("e3", at(15, 7, 0)),
	}

	tests := []struct {
		name string
		at   time.Time
		want ir.State
	}{
		{"during first absence", at(7, 0, 0), ir.StateAbsent},
		{"after return", at(10, 0, 0), ir.StatePresent},
		{"second absence", at(20, 0, 0), ir.StateAbsent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStateAt(events, tt.at))
		})
	}
}

func TestResolveStateAt_Monotonic(t *testing.T) {
	events := []ir.Event{
		leave("e1", at(2, 8, 0)),
		ret("e2", at(4, 18, 0)),
		leave("e3", at(10, 6, 0)),
		ret("e4", at(12, 21, 0)),
	}

	// Walking forward hour by hour, the resolved state only changes exactly at
	// event instants and always matches the most recent event seen so far.
	var lastSeen *ir.Event
	for ts := at(1, 0, 0); ts.Before(at(14, 0, 0)); ts = ts.Add(time.Hour) {
		for i := range events {
			if !events[i].Timestamp.After(ts) {
				lastSeen = &events[i]
			}
		}
		want := ir.StateUnknown
		if lastSeen != nil {
			want = stateAfter(lastSeen.Type)
		}
		assert.Equal(t, want, ResolveStateAt(events, ts), "at %s", ts)
	}
}

func TestCurrentState(t *testing.T) {
	events := []ir.Event{leave("e1", at(5, 8, 0))}
	assert.Equal(t, ir.StateAbsent, CurrentState(events, at(6, 0, 0)))
	assert.Equal(t, ir.StateUnknown, CurrentState(nil, at(6, 0, 0)))
}

func TestIsFutureTimestamp(t *testing.T) {
	now := at(10, 12, 0)
	assert.True(t, IsFutureTimestamp(at(10, 12, 1), now))
	assert.False(t, IsFutureTimestamp(now, now))
	assert.False(t, IsFutureTimestamp(at(9, 0, 0), now))
}

func TestIsFutureDay(t *testing.T) {
	now := at(10, 23, 59)
	assert.False(t, IsFutureDay(2025, time.March, 10, now), "today is not in the future")
	assert.False(t, IsFutureDay(2025, time.March, 9, now))
	assert.True(t, IsFutureDay(2025, time.March, 11, now))
	assert.True(t, IsFutureDay(2025, time.April, 1, now))
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 31, DaysIn(2025, time.March))
	assert.Equal(t, 30, DaysIn(2025, time.April))
	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 31, DaysIn(2025, time.December))
}
