package ir

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the kind of state transition an event records.
type EventType string

const (
	EventLeave  EventType = "LEAVE"
	EventReturn EventType = "RETURN"

	// EventAny is never stored. It is the answer to "what may be inserted
	// here" when the log is empty and either type is legal.
	EventAny EventType = "BOTH"
)

// Valid reports whether t can be stored on an Event.
func (t EventType) Valid() bool {
	return t == EventLeave || t == EventReturn
}

// Opposite returns the type that must follow t to keep the log alternating.
func (t EventType) Opposite() EventType {
	if t == EventLeave {
		return EventReturn
	}
	return EventLeave
}

// ParseEventType accepts the stored spellings plus lowercase CLI spellings.
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "LEAVE", "leave", "Leave":
		return EventLeave, nil
	case "RETURN", "return", "Return":
		return EventReturn, nil
	}
	return "", fmt.Errorf("unknown event type %q (want LEAVE or RETURN)", s)
}

// State is the binary presence state derived from the log.
// The zero value means the log has nothing to say yet.
type State string

const (
	StateUnknown State = ""
	StatePresent State = "PRESENT"
	StateAbsent  State = "ABSENT"
)

// String renders StateUnknown as NO_DATA for presentation.
func (s State) String() string {
	if s == StateUnknown {
		return "NO_DATA"
	}
	return string(s)
}

// Classification is the attendance label given to one calendar day.
type Classification string

const (
	DayPresent   Classification = "PRESENT"
	DayAbsent    Classification = "ABSENT"
	DayLeaving   Classification = "LEAVING"
	DayReturning Classification = "RETURNING"
	DayNoData    Classification = "NO_DATA"
)

// Event is a single LEAVE or RETURN marker in the attendance log.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// eventJSON is the wire shape of Event. Instants are Unix milliseconds so
// backups stay readable by older tooling that stored epoch numbers.
type eventJSON struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:        e.ID,
		Type:      e.Type,
		Timestamp: ToMillis(e.Timestamp),
		CreatedAt: ToMillis(e.CreatedAt),
		UpdatedAt: ToMillis(e.UpdatedAt),
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{
		ID:        w.ID,
		Type:      w.Type,
		Timestamp: FromMillis(w.Timestamp),
		CreatedAt: FromMillis(w.CreatedAt),
		UpdatedAt: FromMillis(w.UpdatedAt),
	}
	return nil
}

// Settings holds the global knobs of the reduction rule.
type Settings struct {
	// X is the minimum run of consecutive full-absence days that earns a reduction.
	X int
	// YTime is the "HH:mm" cutoff before which a departure loses the whole day.
	YTime string
	// ZTime is the "HH:mm" cutoff after which a return loses the whole day.
	ZTime string

	UpdatedAt time.Time
}

type settingsJSON struct {
	X         int    `json:"X"`
	YTime     string `json:"Y_time"`
	ZTime     string `json:"Z_time"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingsJSON{
		X:         s.X,
		YTime:     s.YTime,
		ZTime:     s.ZTime,
		UpdatedAt: ToMillis(s.UpdatedAt),
	})
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var w settingsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Settings{X: w.X, YTime: w.YTime, ZTime: w.ZTime, UpdatedAt: FromMillis(w.UpdatedAt)}
	return nil
}

// Default settings values.
const (
	DefaultX     = 3
	DefaultYTime = "09:00"
	DefaultZTime = "17:00"
)

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		X:         DefaultX,
		YTime:     DefaultYTime,
		ZTime:     DefaultZTime,
		UpdatedAt: now,
	}
}

// DayStatus is the derived attendance record for one day of a month.
type DayStatus struct {
	Date                    int            `json:"date"`
	Classification          Classification `json:"classification"`
	IsFullAbsent            bool           `json:"isFullAbsent"`
	IsMessReductionEligible bool           `json:"isMessReductionEligible"`
	Events                  []Event        `json:"events"`
}

// LeaveBlock is a maximal run of consecutive full-absence days in one month.
type LeaveBlock struct {
	StartDay                int   `json:"startDay"`
	EndDay                  int   `json:"endDay"`
	Days                    []int `json:"days"`
	Length                  int   `json:"length"`
	IsMessReductionEligible bool  `json:"isMessReductionEligible"`
}

// SnapshotVersion is the backup format written by this build.
const SnapshotVersion = 1

// Snapshot is the versioned backup document.
type Snapshot struct {
	Version    int
	ExportedAt time.Time
	Events     []Event
	Settings   Settings
}

type snapshotJSON struct {
	Version    int      `json:"version"`
	ExportedAt int64    `json:"exportedAt"`
	Events     []Event  `json:"events"`
	Settings   Settings `json:"settings"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	events := s.Events
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(snapshotJSON{
		Version:    s.Version,
		ExportedAt: ToMillis(s.ExportedAt),
		Events:     events,
		Settings:   s.Settings,
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Snapshot{
		Version:    w.Version,
		ExportedAt: FromMillis(w.ExportedAt),
		Events:     w.Events,
		Settings:   w.Settings,
	}
	return nil
}

// ToMillis converts an instant to Unix milliseconds. The zero time maps to 0.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of ToMillis.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
