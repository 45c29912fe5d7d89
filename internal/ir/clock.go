package ir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day parsed from "HH:mm".
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a 24-hour "HH:mm" string. Single-digit hours are accepted.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("invalid time %q: want HH:mm", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// On returns the instant at this time of day on the given calendar date.
func (c ClockTime) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, 0, 0, loc)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
