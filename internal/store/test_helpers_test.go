package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// march returns a UTC instant in March 2025.
func march(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

// createTestEvent creates an event with millisecond-precision timestamps.
func createTestEvent(id string, typ ir.EventType, ts time.Time) ir.Event {
	return ir.Event{
		ID:        id,
		Type:      typ,
		Timestamp: ts,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// sameEvent compares events by instant rather than by time.Time identity,
// since times read back from the store carry the local location.
func sameEvent(a, b ir.Event) bool {
	return a.ID == b.ID &&
		a.Type == b.Type &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func eventIDs(events []ir.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
