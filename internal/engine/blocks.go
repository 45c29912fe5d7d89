package engine

import "github.com/roach88/mestrack/internal/ir"

// FindLeaveBlocks groups consecutive full-absence days into blocks.
//
// Days are visited in ascending order. A day that is not fully absent, or a
// gap of more than one day, closes the running block. Every emitted block has
// IsMessReductionEligible false.
func FindLeaveBlocks(days DayStatuses) []ir.LeaveBlock {
	var blocks []ir.LeaveBlock
	var current []int

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, newLeaveBlock(current))
		current = nil
	}

	for _, day := range days.Days() {
		if !days[day].IsFullAbsent {
			flush()
			continue
		}
		if len(current) > 0 && day != current[len(current)-1]+1 {
			flush()
		}
		current = append(current, day)
	}
	flush()

	return blocks
}

func newLeaveBlock(days []int) ir.LeaveBlock {
	cp := make([]int, len(days))
	copy(cp, days)
	return ir.LeaveBlock{
		StartDay: cp[0],
		EndDay:   cp[len(cp)-1],
		Days:     cp,
		Length:   len(cp),
	}
}
