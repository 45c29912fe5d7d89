package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mestrack/internal/ir"
)

// Layout of instants in scenario files.
const instantLayout = "2006-01-02T15:04"

// Scenario defines one attendance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now freezes the clock.
	Now string `yaml:"now"`

	// Month is the "YYYY-MM" month to compute.
	Month string `yaml:"month"`

	// Timezone is an IANA zone name. Day boundaries are midnights in this zone.
	Timezone string `yaml:"timezone,omitempty"`

	// Settings overrides the defaults when present.
	Settings *SettingsSpec `yaml:"settings,omitempty"`

	// Events seeds the log verbatim.
	Events []EventSpec `yaml:"events"`

	// Mutations run in order through the tracker.
	Mutations []MutationStep `yaml:"mutations,omitempty"`

	// Expect is checked against the final month.
	Expect *Expectations `yaml:"expect,omitempty"`
}

// SettingsSpec mirrors ir.Settings with YAML names.
type SettingsSpec struct {
	X     int    `yaml:"x"`
	YTime string `yaml:"y_time"`
	ZTime string `yaml:"z_time"`
}

// EventSpec is one seeded event.
type EventSpec struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	At   string `yaml:"at"`
}

// MutationStep is exactly one of: a next-type query, an insert or a delete.
type MutationStep struct {
	// NextTypeAt asks which type may be logged at this instant.
	NextTypeAt string `yaml:"next_type_at,omitempty"`
	ExpectNext string `yaml:"expect_next,omitempty"`

	// Insert logs a LEAVE or RETURN at At.
	Insert string `yaml:"insert,omitempty"`
	At     string `yaml:"at,omitempty"`

	// ExpectConflicts lists the IDs the insert must displace.
	// Omitted means unchecked; [] means none.
	ExpectConflicts []string `yaml:"expect_conflicts,omitempty"`

	// Delete removes the event with this ID.
	Delete string `yaml:"delete,omitempty"`

	// ExpectError is the MutationError code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step kinds.
const (
	StepNextType = "next_type"
	StepInsert   = "insert"
	StepDelete   = "delete"
)

// Kind reports which operation the step performs.
func (m MutationStep) Kind() string {
	switch {
	case m.NextTypeAt != "":
		return StepNextType
	case m.Insert != "":
		return StepInsert
	case m.Delete != "":
		return StepDelete
	}
	return ""
}

// Expectations are checked after all mutations. Every field is optional.
type Expectations struct {
	// State is the current state at now: PRESENT, ABSENT or NO_DATA.
	State string `yaml:"state,omitempty"`

	// Days maps day-of-month to what that day must look like.
	Days map[int]DayExpectation `yaml:"days,omitempty"`

	// Blocks lists every leave block in order. Omitted means unchecked.
	Blocks []BlockExpectation `yaml:"blocks,omitempty"`

	Summary *SummaryExpectation `yaml:"summary,omitempty"`
}

// DayExpectation checks one day. Nil flags are unchecked.
type DayExpectation struct {
	Classification string `yaml:"classification,omitempty"`
	FullAbsent     *bool  `yaml:"full_absent,omitempty"`
	Eligible       *bool  `yaml:"eligible,omitempty"`
}

// BlockExpectation checks one leave block.
type BlockExpectation struct {
	Start    int  `yaml:"start"`
	End      int  `yaml:"end"`
	Eligible bool `yaml:"eligible"`
}

// SummaryExpectation checks the month tallies.
type SummaryExpectation struct {
	Present       int `yaml:"present"`
	Absent        int `yaml:"absent"`
	FullAbsent    int `yaml:"full_absent"`
	NoData        int `yaml:"no_data"`
	MessReduction int `yaml:"mess_reduction"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)", filepath.Base(path), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(path)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Location resolves the scenario's timezone.
func (s *Scenario) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Period returns the year and month to compute.
func (s *Scenario) Period() (int, time.Month, error) {
	t, err := time.Parse("2006-01", s.Month)
	if err != nil {
		return 0, 0, fmt.Errorf("month %q: want YYYY-MM", s.Month)
	}
	return t.Year(), t.Month(), nil
}

func parseInstant(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(instantLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("instant %q: want YYYY-MM-DDTHH:mm", value)
	}
	return t, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	loc, err := s.Location()
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	if s.Now == "" {
		return fmt.Errorf("now is required")
	}
	if _, err := parseInstant(s.Now, loc); err != nil {
		return fmt.Errorf("now: %w", err)
	}

	if _, _, err := s.Period(); err != nil {
		return err
	}

	ids := make(map[string]bool)
	for i, e := range s.Events {
		if e.ID == "" {
			return fmt.Errorf("events[%d]: id is required", i)
		}
		if ids[e.ID] {
			return fmt.Errorf("events[%d]: duplicate id %q", i, e.ID)
		}
		ids[e.ID] = true
		if _, err := ir.ParseEventType(e.Type); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		if _, err := parseInstant(e.At, loc); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}

	for i, m := range s.Mutations {
		if err := validateMutation(i, m, loc); err != nil {
			return err
		}
	}

	return nil
}

// validateMutation validates a single step based on its kind.
func validateMutation(index int, m MutationStep, loc *time.Location) error {
	set := 0
	for _, v := range []string{m.NextTypeAt, m.Insert, m.Delete} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("mutations[%d]: exactly one of next_type_at, insert, delete is required", index)
	}

	switch m.Kind() {
	case StepNextType:
		if _, err := parseInstant(m.NextTypeAt, loc); err != nil {
			return fmt.Errorf("mutations[%d]: %w", index, err)
		}
		switch ir.EventType(m.ExpectNext) {
		case ir.EventLeave, ir.EventReturn, ir.EventAny:
		default:
			return fmt.Errorf("mutations[%d]: expect_next must be LEAVE, RETURN or BOTH", index)
		}
	case StepInsert:
		if _, err := ir.ParseEventType(m.Insert); err != nil {
			return fmt.Errorf("mutations[%d]: %w", index, err)
		}
		if _, err := parseInstant(m.At, loc); err != nil {
			return fmt.Errorf("mutations[%d]: %w", index, err)
		}
	}
	return nil
}
