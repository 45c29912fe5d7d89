package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/mestrack/internal/engine"
	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/store"
	"github.com/roach88/mestrack/internal/testutil"
	"github.com/roach88/mestrack/internal/tracker"
)

// Harness is the scenario execution context.
// It runs one scenario against a private store with a frozen clock.
type Harness struct {
	store   *store.Store
	tracker *tracker.Tracker
	clock   *testutil.FixedClock
	loc     *time.Location
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Create fresh in-memory database
//  2. Seed settings and events
//  3. Execute mutation steps in order
//  4. Compute the month and evaluate expectations
//
// A returned error means the scenario could not be executed at all;
// failed expectations are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	loc, err := scenario.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	now, err := parseInstant(scenario.Now, loc)
	if err != nil {
		return nil, fmt.Errorf("now: %w", err)
	}
	year, month, err := scenario.Period()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewFixedClock(now)
	tr, err := tracker.New(st,
		tracker.WithClock(clock),
		tracker.WithIDGenerator(testutil.NewSequentialIDGenerator("m")),
		tracker.WithLocation(loc),
	)
	if err != nil {
		return nil, err
	}

	h := &Harness{store: st, tracker: tr, clock: clock, loc: loc}
	ctx := context.Background()

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Mutations {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("mutations[%d]: %w", i, err)
		}
	}

	monthResult, err := tr.Month(ctx, year, month)
	if err != nil {
		return nil, err
	}
	status, err := tr.Status(ctx)
	if err != nil {
		return nil, err
	}
	events, err := tr.Events(ctx)
	if err != nil {
		return nil, err
	}

	result.Report = monthResult.Report()
	result.State = status.State
	result.Events = events

	if scenario.Expect != nil {
		for _, msg := range checkExpectations(scenario.Expect, result) {
			result.AddError(msg)
		}
	}

	return result, nil
}

// seed writes settings through the tracker and events straight to the store,
// so a scenario can start from a log that breaks alternation.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	if scenario.Settings != nil {
		_, err := h.tracker.UpdateSettings(ctx, ir.Settings{
			X:     scenario.Settings.X,
			YTime: scenario.Settings.YTime,
			ZTime: scenario.Settings.ZTime,
		})
		if err != nil {
			return err
		}
	}

	now := h.clock.Now()
	for _, seed := range scenario.Events {
		typ, err := ir.ParseEventType(seed.Type)
		if err != nil {
			return err
		}
		at, err := parseInstant(seed.At, h.loc)
		if err != nil {
			return err
		}
		e := ir.Event{ID: seed.ID, Type: typ, Timestamp: at, CreatedAt: now, UpdatedAt: now}
		if err := h.store.PutEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// executeStep runs one mutation. Expectation mismatches go to result;
// only infrastructure failures are returned.
func (h *Harness) executeStep(ctx context.Context, index int, step MutationStep, result *Result) error {
	outcome := StepOutcome{Kind: step.Kind()}

	switch outcome.Kind {
	case StepNextType:
		at, err := parseInstant(step.NextTypeAt, h.loc)
		if err != nil {
			return err
		}
		events, err := h.tracker.Events(ctx)
		if err != nil {
			return err
		}
		outcome.At = step.NextTypeAt
		outcome.Type = engine.NextValidEventType(events, at, "")
		if want := ir.EventType(step.ExpectNext); outcome.Type != want {
			result.AddError(fmt.Sprintf("mutations[%d]: next type at %s = %s, want %s",
				index, step.NextTypeAt, outcome.Type, want))
		}

	case StepInsert:
		typ, err := ir.ParseEventType(step.Insert)
		if err != nil {
			return err
		}
		at, err := parseInstant(step.At, h.loc)
		if err != nil {
			return err
		}
		outcome.At = step.At
		outcome.Type = typ

		m, err := h.tracker.LogEvent(ctx, typ, at)
		if code, ok := mutationCode(err); ok {
			outcome.Error = code
		} else if err != nil {
			return err
		} else {
			outcome.EventID = m.Event.ID
			outcome.Deleted = eventIDs(m.Deleted)
		}

		if step.ExpectConflicts != nil && outcome.Error == "" && !slices.Equal(outcome.Deleted, step.ExpectConflicts) {
			result.AddError(fmt.Sprintf("mutations[%d]: insert %s at %s displaced %v, want %v",
				index, typ, step.At, outcome.Deleted, step.ExpectConflicts))
		}

	case StepDelete:
		outcome.EventID = step.Delete
		_, err := h.tracker.DeleteEvent(ctx, step.Delete)
		if code, ok := mutationCode(err); ok {
			outcome.Error = code
		} else if err != nil {
			return err
		}
	}

	if outcome.Error != step.ExpectError {
		switch {
		case step.ExpectError == "":
			result.AddError(fmt.Sprintf("mutations[%d]: unexpected error %s", index, outcome.Error))
		default:
			result.AddError(fmt.Sprintf("mutations[%d]: error = %q, want %s", index, outcome.Error, step.ExpectError))
		}
	}

	result.Steps = append(result.Steps, outcome)
	return nil
}

func mutationCode(err error) (string, bool) {
	var me *tracker.MutationError
	if errors.As(err, &me) {
		return string(me.Code), true
	}
	return "", false
}

func eventIDs(events []ir.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

// checkExpectations compares the final result with the scenario's expect block.
func checkExpectations(want *Expectations, r *Result) []string {
	var errs []string

	if want.State != "" && r.State.String() != want.State {
		errs = append(errs, fmt.Sprintf("state = %s, want %s", r.State, want.State))
	}

	for _, day := range sortedKeys(want.Days) {
		exp := want.Days[day]
		if day < 1 || day > len(r.Report.Days) {
			errs = append(errs, fmt.Sprintf("days[%d]: not in month", day))
			continue
		}
		got := r.Report.Days[day-1]
		if exp.Classification != "" && string(got.Classification) != exp.Classification {
			errs = append(errs, fmt.Sprintf("days[%d]: classification = %s, want %s", day, got.Classification, exp.Classification))
		}
		if exp.FullAbsent != nil && got.IsFullAbsent != *exp.FullAbsent {
			errs = append(errs, fmt.Sprintf("days[%d]: full_absent = %t, want %t", day, got.IsFullAbsent, *exp.FullAbsent))
		}
		if exp.Eligible != nil && got.IsMessReductionEligible != *exp.Eligible {
			errs = append(errs, fmt.Sprintf("days[%d]: eligible = %t, want %t", day, got.IsMessReductionEligible, *exp.Eligible))
		}
	}

	if want.Blocks != nil {
		got := r.Report.Blocks
		if len(got) != len(want.Blocks) {
			errs = append(errs, fmt.Sprintf("blocks: got %d, want %d", len(got), len(want.Blocks)))
		} else {
			for i, exp := range want.Blocks {
				b := got[i]
				if b.StartDay != exp.Start || b.EndDay != exp.End || b.IsMessReductionEligible != exp.Eligible {
					errs = append(errs, fmt.Sprintf("blocks[%d]: got %d-%d eligible=%t, want %d-%d eligible=%t",
						i, b.StartDay, b.EndDay, b.IsMessReductionEligible, exp.Start, exp.End, exp.Eligible))
				}
			}
		}
	}

	if exp := want.Summary; exp != nil {
		s := r.Report.Summary
		check := func(name string, got, want int) {
			if got != want {
				errs = append(errs, fmt.Sprintf("summary.%s = %d, want %d", name, got, want))
			}
		}
		check("present", s.PresentDays, exp.Present)
		check("absent", s.AbsentDays, exp.Absent)
		check("full_absent", s.FullAbsentDays, exp.FullAbsent)
		check("no_data", s.NoDataDays, exp.NoData)
		check("mess_reduction", s.MessReductionDays, exp.MessReduction)
	}

	return errs
}

func sortedKeys(m map[int]DayExpectation) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
