package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/mestrack/internal/backup"
	"github.com/roach88/mestrack/internal/engine"
	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/schema"
	"github.com/roach88/mestrack/internal/store"
)

// Tracker owns the attendance log and serializes every write to it.
type Tracker struct {
	mu        sync.Mutex
	store     *store.Store
	clock     Clock
	ids       IDGenerator
	loc       *time.Location
	validator *schema.Validator
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock. Tests pass a testutil.FixedClock.
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithIDGenerator replaces the UUIDv7 event ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Tracker) {
		t.ids = g
	}
}

// WithLocation sets the time zone whose midnights bound each day.
//
// Default: time.Local
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// New creates a Tracker over an open store.
func New(s *store.Store, opts ...Option) (*Tracker, error) {
	v, err := schema.Default()
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}

	t := &Tracker{
		store:     s,
		clock:     SystemClock{},
		ids:       UUIDv7Generator{},
		loc:       time.Local,
		validator: v,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Location returns the zone used for day boundaries.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Now returns the current instant in the tracker's zone, truncated to the
// millisecond precision the store keeps.
func (t *Tracker) Now() time.Time {
	return toMillis(t.clock.Now()).In(t.loc)
}

func toMillis(ts time.Time) time.Time {
	return time.UnixMilli(ts.UnixMilli()).In(ts.Location())
}

// Status is the current presence state plus what may be logged next.
type Status struct {
	State ir.State `json:"state"`

	// Last is the most recent event at or before now, nil for an empty log.
	Last *ir.Event `json:"last"`

	// Next is the type the next log entry at now must have (BOTH if either).
	Next ir.EventType `json:"next"`

	// Events is the size of the log.
	Events int `json:"events"`

	Now time.Time `json:"now"`
}

// Status recomputes the current state from the log.
func (t *Tracker) Status(ctx context.Context) (Status, error) {
	events, err := t.store.ListEvents(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return t.statusOf(events, t.Now()), nil
}

func (t *Tracker) statusOf(events []ir.Event, now time.Time) Status {
	st := Status{
		State:  engine.CurrentState(events, now),
		Next:   engine.NextValidEventType(events, now, ""),
		Events: len(events),
		Now:    now,
	}
	for i := range events {
		e := events[i]
		if e.Timestamp.After(now) {
			continue
		}
		if st.Last == nil || !e.Timestamp.Before(st.Last.Timestamp) {
			st.Last = &e
		}
	}
	return st
}

// Events returns the full log ordered by timestamp.
func (t *Tracker) Events(ctx context.Context) ([]ir.Event, error) {
	events, err := t.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	return events, nil
}

// Settings returns the stored settings, or the defaults if none were saved.
func (t *Tracker) Settings(ctx context.Context) (ir.Settings, error) {
	s, err := t.store.GetSettings(ctx)
	if err != nil {
		return ir.Settings{}, fmt.Errorf("settings: %w", err)
	}
	return s, nil
}

// Month runs the monthly pipeline against the current log and settings.
func (t *Tracker) Month(ctx context.Context, year int, month time.Month) (engine.MonthResult, error) {
	events, err := t.store.ListEvents(ctx)
	if err != nil {
		return engine.MonthResult{}, fmt.Errorf("month: %w", err)
	}
	settings, err := t.store.GetSettings(ctx)
	if err != nil {
		return engine.MonthResult{}, fmt.Errorf("month: %w", err)
	}
	return engine.CalculateMonth(events, settings, year, month, t.Now()), nil
}

// Mutation describes a committed change to the log.
type Mutation struct {
	// Event is the inserted, edited or deleted event.
	Event ir.Event `json:"event"`

	// Deleted holds conflicting neighbours removed to keep the log alternating.
	Deleted []ir.Event `json:"deleted"`

	// Status is recomputed after the commit.
	Status Status `json:"status"`
}

// LogEvent records a new event at the given instant.
//
// A zero at means now. An empty typ picks the only legal type at that
// instant; if both are legal, a TYPE_REQUIRED error is returned. Any
// neighbour that would break alternation is deleted in the same transaction.
func (t *Tracker) LogEvent(ctx context.Context, typ ir.EventType, at time.Time) (Mutation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.Now()
	if at.IsZero() {
		at = now
	}
	at = toMillis(at)

	if engine.IsFutureTimestamp(at, now) {
		return Mutation{}, &MutationError{
			Code:    ErrCodeFutureTimestamp,
			Message: fmt.Sprintf("%s is after now (%s)", at.Format(time.RFC3339), now.Format(time.RFC3339)),
		}
	}

	events, err := t.store.ListEvents(ctx)
	if err != nil {
		return Mutation{}, fmt.Errorf("log event: %w", err)
	}

	typ, err = t.resolveType(events, typ, at, "")
	if err != nil {
		return Mutation{}, err
	}

	e := ir.Event{
		ID:        t.ids.Generate(),
		Type:      typ,
		Timestamp: at,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return t.commit(ctx, events, e, "event logged")
}

// EditEvent moves an event and/or changes its type.
//
// An empty typ keeps the current type; a zero at keeps the current instant.
// The edited event is ignored when looking for conflicts. CreatedAt is kept.
func (t *Tracker) EditEvent(ctx context.Context, id string, typ ir.EventType, at time.Time) (Mutation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, err := t.getEvent(ctx, id)
	if err != nil {
		return Mutation{}, err
	}

	now := t.Now()
	if at.IsZero() {
		at = existing.Timestamp
	}
	at = toMillis(at)
	if typ == "" {
		typ = existing.Type
	}

	if engine.IsFutureTimestamp(at, now) {
		return Mutation{}, &MutationError{
			Code:    ErrCodeFutureTimestamp,
			Message: fmt.Sprintf("%s is after now (%s)", at.Format(time.RFC3339), now.Format(time.RFC3339)),
			EventID: id,
		}
	}

	events, err := t.store.ListEvents(ctx)
	if err != nil {
		return Mutation{}, fmt.Errorf("edit event: %w", err)
	}

	typ, err = t.resolveType(events, typ, at, id)
	if err != nil {
		return Mutation{}, err
	}

	edited := existing
	edited.Type = typ
	edited.Timestamp = at
	edited.UpdatedAt = now
	return t.commit(ctx, events, edited, "event edited")
}

// DeleteEvent removes an event. Neighbours are left as they are.
func (t *Tracker) DeleteEvent(ctx context.Context, id string) (Mutation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, err := t.getEvent(ctx, id)
	if err != nil {
		return Mutation{}, err
	}
	if err := t.store.DeleteEvent(ctx, id); err != nil {
		return Mutation{}, fmt.Errorf("delete event: %w", err)
	}

	events, err := t.store.ListEvents(ctx)
	if err != nil {
		return Mutation{}, fmt.Errorf("delete event: %w", err)
	}
	slog.Info("event deleted", "id", id, "type", existing.Type)

	return Mutation{
		Event:   existing,
		Deleted: []ir.Event{},
		Status:  t.statusOf(events, t.Now()),
	}, nil
}

// ClearEvents empties the log. Settings are kept.
func (t *Tracker) ClearEvents(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.ClearEvents(ctx); err != nil {
		return err
	}
	slog.Info("event log cleared")
	return nil
}

// UpdateSettings validates and stores new settings, stamping UpdatedAt.
func (t *Tracker) UpdateSettings(ctx context.Context, s ir.Settings) (ir.Settings, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s.UpdatedAt = t.Now()
	if err := t.validator.ValidateSettings(s); err != nil {
		return ir.Settings{}, &MutationError{
			Code:    ErrCodeInvalidSettings,
			Message: err.Error(),
			Err:     err,
		}
	}
	if err := t.store.UpdateSettings(ctx, s); err != nil {
		return ir.Settings{}, err
	}
	slog.Info("settings updated", "x", s.X, "y_time", s.YTime, "z_time", s.ZTime)
	return s, nil
}

// Export snapshots the log and settings.
func (t *Tracker) Export(ctx context.Context) (ir.Snapshot, error) {
	return backup.Export(ctx, t.store, t.Now())
}

// Import replaces everything with the snapshot read from r.
// Returns false, leaving data untouched, if the snapshot is rejected.
func (t *Tracker) Import(ctx context.Context, r io.Reader) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return backup.Import(ctx, t.store, r)
}

// resolveType fills in an empty type and rejects anything that is not LEAVE or RETURN.
func (t *Tracker) resolveType(events []ir.Event, typ ir.EventType, at time.Time, excludeID string) (ir.EventType, error) {
	if typ == "" {
		typ = engine.NextValidEventType(events, at, excludeID)
		if typ == ir.EventAny {
			return "", &MutationError{
				Code:    ErrCodeTypeRequired,
				Message: "either LEAVE or RETURN is valid here; choose one",
				EventID: excludeID,
			}
		}
	}
	if !typ.Valid() {
		return "", &MutationError{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("type %q is not LEAVE or RETURN", typ),
			EventID: excludeID,
		}
	}
	return typ, nil
}

func (t *Tracker) getEvent(ctx context.Context, id string) (ir.Event, error) {
	e, err := t.store.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ir.Event{}, &MutationError{
			Code:    ErrCodeEventNotFound,
			Message: "no event with this id",
			EventID: id,
			Err:     err,
		}
	}
	if err != nil {
		return ir.Event{}, err
	}
	return e, nil
}

// commit deletes e's conflicting neighbours and writes e atomically, then
// recomputes status from the new log.
func (t *Tracker) commit(ctx context.Context, events []ir.Event, e ir.Event, msg string) (Mutation, error) {
	if err := t.validator.ValidateEvent(e); err != nil {
		return Mutation{}, &MutationError{
			Code:    ErrCodeInvalidType,
			Message: err.Error(),
			EventID: e.ID,
			Err:     err,
		}
	}

	conflictIDs := engine.FindConflictingEventIDs(events, e.Type, e.Timestamp, e.ID)
	deleted := make([]ir.Event, 0, len(conflictIDs))
	for _, id := range conflictIDs {
		for _, candidate := range events {
			if candidate.ID == id {
				deleted = append(deleted, candidate)
				break
			}
		}
	}

	if err := t.store.ApplyMutation(ctx, e, conflictIDs); err != nil {
		return Mutation{}, err
	}

	after, err := t.store.ListEvents(ctx)
	if err != nil {
		return Mutation{}, fmt.Errorf("reload events: %w", err)
	}

	slog.Info(msg, "id", e.ID, "type", e.Type, "at", e.Timestamp.Format(time.RFC3339), "deleted", len(deleted))
	for _, d := range deleted {
		slog.Debug("conflicting event removed", "id", d.ID, "type", d.Type)
	}

	return Mutation{
		Event:   e,
		Deleted: deleted,
		Status:  t.statusOf(after, t.Now()),
	}, nil
}
