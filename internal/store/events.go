package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mestrack/internal/ir"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListEvents returns the whole log ordered by timestamp, then ID.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListEvents(ctx context.Context) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, timestamp, created_at, updated_at
		FROM events
		ORDER BY timestamp ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// GetEvent retrieves a single event by ID.
// Returns ErrNotFound if no such event exists.
func (s *Store) GetEvent(ctx context.Context, id string) (ir.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, timestamp, created_at, updated_at
		FROM events
		WHERE id = ?
	`, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Event{}, fmt.Errorf("get event %q: %w", id, ErrNotFound)
	}
	return e, err
}

// PutEvent inserts an event, replacing any existing event with the same ID.
func (s *Store) PutEvent(ctx context.Context, e ir.Event) error {
	if err := putEvent(ctx, s.db, e); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// UpdateEvent overwrites an existing event.
// Returns ErrNotFound if the ID is not in the log.
func (s *Store) UpdateEvent(ctx context.Context, e ir.Event) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET type = ?, timestamp = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`,
		string(e.Type),
		ir.ToMillis(e.Timestamp),
		ir.ToMillis(e.CreatedAt),
		ir.ToMillis(e.UpdatedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update event %q: %w", e.ID, ErrNotFound)
	}
	return nil
}

// DeleteEvent removes an event by ID.
// Returns ErrNotFound if the ID is not in the log.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete event %q: %w", id, ErrNotFound)
	}
	return nil
}

// ApplyMutation deletes the given IDs and writes e in a single transaction.
//
// This is how the tracker commits an insert or edit together with the
// conflicting neighbours it displaces. IDs that are already gone are ignored.
func (s *Store) ApplyMutation(ctx context.Context, e ir.Event, deleteIDs []string) error {
	return s.withTx(ctx, "apply mutation", func(tx *sql.Tx) error {
		for _, id := range deleteIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete %q: %w", id, err)
			}
		}
		return putEvent(ctx, tx, e)
	})
}

// ClearEvents removes every event. Settings are untouched.
func (s *Store) ClearEvents(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

// CountEvents returns the number of events in the log.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// HasData reports whether at least one event has been recorded.
func (s *Store) HasData(ctx context.Context) (bool, error) {
	count, err := s.CountEvents(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceAll swaps the entire log and the settings record in one transaction.
// Used by backup restore.
func (s *Store) ReplaceAll(ctx context.Context, events []ir.Event, settings ir.Settings) error {
	return s.withTx(ctx, "replace all", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		for _, e := range events {
			if err := putEvent(ctx, tx, e); err != nil {
				return err
			}
		}
		return putSettings(ctx, tx, settings)
	})
}

func putEvent(ctx context.Context, db execer, e ir.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, type, timestamp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			timestamp = excluded.timestamp,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`,
		e.ID,
		string(e.Type),
		ir.ToMillis(e.Timestamp),
		ir.ToMillis(e.CreatedAt),
		ir.ToMillis(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("write event %q: %w", e.ID, err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (ir.Event, error) {
	var e ir.Event
	var typ string
	var timestamp, createdAt, updatedAt int64
	if err := row.Scan(&e.ID, &typ, &timestamp, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Event{}, err
		}
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.Type = ir.EventType(typ)
	e.Timestamp = ir.FromMillis(timestamp)
	e.CreatedAt = ir.FromMillis(createdAt)
	e.UpdatedAt = ir.FromMillis(updatedAt)
	return e, nil
}
