package engine

import (
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// MonthResult bundles the three artifacts of the monthly pipeline.
type MonthResult struct {
	Year         int
	Month        time.Month
	Days         DayStatuses
	Blocks       []ir.LeaveBlock
	EligibleDays DaySet
}

// Summary tallies a computed month. Present, Absent and NoData partition the
// days of the month; FullAbsent is a subset of Absent.
type Summary struct {
	TotalDays         int `json:"totalDays"`
	PresentDays       int `json:"presentDays"`
	AbsentDays        int `json:"absentDays"`
	FullAbsentDays    int `json:"fullAbsentDays"`
	NoDataDays        int `json:"noDataDays"`
	MessReductionDays int `json:"messReductionDays"`
}

// CalculateMonth runs classification, block finding and reduction for one month.
func CalculateMonth(events []ir.Event, settings ir.Settings, year int, month time.Month, now time.Time) MonthResult {
	days := ClassifyMonth(events, settings, year, month, now)
	blocks := FindLeaveBlocks(days)
	eligible := ApplyMessReduction(days, blocks, settings.X)

	return MonthResult{
		Year:         year,
		Month:        month,
		Days:         days,
		Blocks:       blocks,
		EligibleDays: eligible,
	}
}

// Summarize counts each day exactly once as present, absent or no-data.
func Summarize(days DayStatuses, eligible DaySet) Summary {
	s := Summary{
		TotalDays:         len(days),
		MessReductionDays: len(eligible),
	}
	for _, status := range days {
		switch {
		case status.Classification == ir.DayNoData:
			s.NoDataDays++
		case status.IsFullAbsent:
			s.FullAbsentDays++
			s.AbsentDays++
		case status.Classification == ir.DayAbsent,
			status.Classification == ir.DayLeaving,
			status.Classification == ir.DayReturning:
			s.AbsentDays++
		default:
			s.PresentDays++
		}
	}
	return s
}

// Report is the serializable view of a computed month, with days in order.
type Report struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Days         []*ir.DayStatus `json:"days"`
	Blocks       []ir.LeaveBlock `json:"blocks"`
	EligibleDays []int           `json:"eligibleDays"`
	Summary      Summary         `json:"summary"`
}

// Report flattens r for presentation.
func (r MonthResult) Report() Report {
	blocks := r.Blocks
	if blocks == nil {
		blocks = []ir.LeaveBlock{}
	}
	return Report{
		Year:         r.Year,
		Month:        int(r.Month),
		Days:         r.Days.Ordered(),
		Blocks:       blocks,
		EligibleDays: r.EligibleDays.Sorted(),
		Summary:      Summarize(r.Days, r.EligibleDays),
	}
}
