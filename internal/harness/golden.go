package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mestrack/internal/ir"
)

// GoldenDir is where golden snapshots live, relative to the test package.
const GoldenDir = "testdata/golden"

// Snapshot renders a result as canonical JSON for golden comparison.
//
// Days are rendered one string per day ("05 LEAVING full eligible") so that a
// diff points straight at the day that changed. Events are rendered as
// "<id> <TYPE> <instant>" in the scenario's zone.
func Snapshot(scenario *Scenario, r *Result) ([]byte, error) {
	loc, err := scenario.Location()
	if err != nil {
		return nil, err
	}

	days := make([]any, len(r.Report.Days))
	for i, d := range r.Report.Days {
		days[i] = dayLine(d)
	}

	blocks := make([]any, len(r.Report.Blocks))
	for i, b := range r.Report.Blocks {
		blocks[i] = map[string]any{
			"start":    b.StartDay,
			"end":      b.EndDay,
			"length":   b.Length,
			"eligible": b.IsMessReductionEligible,
		}
	}

	events := make([]any, len(r.Events))
	for i, e := range r.Events {
		events[i] = fmt.Sprintf("%s %s %s", e.ID, e.Type, e.Timestamp.In(loc).Format(instantLayout))
	}

	s := r.Report.Summary
	snapshot := map[string]any{
		"scenario": scenario.Name,
		"month":    scenario.Month,
		"state":    r.State.String(),
		"days":     days,
		"blocks":   blocks,
		"events":   events,
		"steps":    r.Steps,
		"summary": map[string]any{
			"total":          s.TotalDays,
			"present":        s.PresentDays,
			"absent":         s.AbsentDays,
			"full_absent":    s.FullAbsentDays,
			"no_data":        s.NoDataDays,
			"mess_reduction": s.MessReductionDays,
		},
	}
	return ir.MarshalCanonical(snapshot)
}

func dayLine(d *ir.DayStatus) string {
	line := fmt.Sprintf("%02d %s", d.Date, d.Classification)
	if d.IsFullAbsent {
		line += " full"
	}
	if d.IsMessReductionEligible {
		line += " eligible"
	}
	return line
}

// RunWithGolden executes a scenario, fails t on any unmet expectation and
// compares the snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
