package engine

import (
	"sort"

	"github.com/roach88/mestrack/internal/ir"
)

// DaySet is a set of day-of-month numbers.
type DaySet map[int]struct{}

// Has reports whether day is in the set.
func (s DaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

// Sorted returns the members in ascending order.
func (s DaySet) Sorted() []int {
	out := make([]int, 0, len(s))
	for day := range s {
		out = append(out, day)
	}
	sort.Ints(out)
	return out
}

// ApplyMessReduction marks every block of at least x days, and every day in
// it, as mess-reduction eligible. blocks and days are updated in place.
// The returned set holds all eligible days.
func ApplyMessReduction(days DayStatuses, blocks []ir.LeaveBlock, x int) DaySet {
	eligible := make(DaySet)
	for i := range blocks {
		block := &blocks[i]
		if block.Length < x {
			continue
		}
		block.IsMessReductionEligible = true
		for _, day := range block.Days {
			eligible[day] = struct{}{}
			if status, ok := days[day]; ok {
				status.IsMessReductionEligible = true
			}
		}
	}
	return eligible
}
