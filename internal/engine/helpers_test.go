package engine

import (
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// at builds a UTC instant in March 2025 unless another month is given via atIn.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func atIn(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2025, month, day, hour, minute, 0, 0, time.UTC)
}

func leave(id string, ts time.Time) ir.Event {
	return ir.Event{ID: id, Type: ir.EventLeave, Timestamp: ts, CreatedAt: ts, UpdatedAt: ts}
}

func ret(id string, ts time.Time) ir.Event {
	return ir.Event{ID: id, Type: ir.EventReturn, Timestamp: ts, CreatedAt: ts, UpdatedAt: ts}
}

func defaultSettings() ir.Settings {
	return ir.Settings{X: 3, YTime: "09:00", ZTime: "17:00"}
}
