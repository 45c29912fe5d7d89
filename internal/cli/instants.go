package cli

import (
	"fmt"
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// Layouts accepted by --at, tried in order.
var instantLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// displayLayout is how instants are printed in text output.
const displayLayout = "2006-01-02 15:04"

// parseInstant reads an --at value in loc. An empty value yields the zero
// time, which the tracker treats as now. A bare "HH:mm" means that time today.
func parseInstant(value string, now time.Time, loc *time.Location) (time.Time, error) {
	switch value {
	case "":
		return time.Time{}, nil
	case "now":
		return now, nil
	}

	if ct, err := ir.ParseClockTime(value); err == nil {
		today := now.In(loc)
		return ct.On(today.Year(), today.Month(), today.Day(), loc), nil
	}

	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want HH:mm, YYYY-MM-DDTHH:mm or RFC 3339", value)
}

// parseMonth reads a "YYYY-MM" argument. An empty value means the month of now.
func parseMonth(value string, now time.Time) (int, time.Month, error) {
	if value == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", value)
	}
	return t.Year(), t.Month(), nil
}
