package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mestrack/internal/ir"
)

// statuses builds a DayStatuses of n days with the given days fully absent.
func statuses(n int, fullAbsent ...int) DayStatuses {
	days := make(DayStatuses, n)
	for d := 1; d <= n; d++ {
		days[d] = &ir.DayStatus{Date: d, Classification: ir.DayPresent}
	}
	for _, d := range fullAbsent {
		days[d].Classification = ir.DayAbsent
		days[d].IsFullAbsent = true
	}
	return days
}

func TestFindLeaveBlocks_None(t *testing.T) {
	assert.Empty(t, FindLeaveBlocks(statuses(30)))
	assert.Empty(t, FindLeaveBlocks(DayStatuses{}))
}

func TestFindLeaveBlocks_GroupsConsecutiveDays(t *testing.T) {
	blocks := FindLeaveBlocks(statuses(31, 2, 3, 4, 10, 20, 21))
	require.Len(t, blocks, 3)

	assert.Equal(t, ir.LeaveBlock{StartDay: 2, EndDay: 4, Days: []int{2, 3, 4}, Length: 3}, blocks[0])
	assert.Equal(t, ir.LeaveBlock{StartDay: 10, EndDay: 10, Days: []int{10}, Length: 1}, blocks[1])
	assert.Equal(t, ir.LeaveBlock{StartDay: 20, EndDay: 21, Days: []int{20, 21}, Length: 2}, blocks[2])
}

func TestFindLeaveBlocks_TrailingBlockEmitted(t *testing.T) {
	blocks := FindLeaveBlocks(statuses(28, 26, 27, 28))
	require.Len(t, blocks, 1)
	assert.Equal(t, 26, blocks[0].StartDay)
	assert.Equal(t, 28, blocks[0].EndDay)
}

func TestFindLeaveBlocks_GapClosesBlock(t *testing.T) {
	days := statuses(5, 1, 2, 4, 5)
	delete(days, 3)

	blocks := FindLeaveBlocks(days)
	require.Len(t, blocks, 2)
	assert.Equal(t, []int{1, 2}, blocks[0].Days)
	assert.Equal(t, []int{4, 5}, blocks[1].Days)
}

func TestFindLeaveBlocks_LengthInvariant(t *testing.T) {
	blocks := FindLeaveBlocks(statuses(31, 1, 2, 5, 6, 7, 8, 15, 29, 30, 31))
	for _, b := range blocks {
		assert.Equal(t, b.EndDay-b.StartDay+1, b.Length)
		assert.Len(t, b.Days, b.Length)
		assert.False(t, b.IsMessReductionEligible)
	}
}
