package store

import (
	"context"
	"testing"

	"github.com/roach88/mestrack/internal/ir"
)

func TestGetSettings_DefaultsWhenUnset(t *testing.T) {
	s := createTestStore(t)

	got, err := s.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() failed: %v", err)
	}
	if got.X != ir.DefaultX || got.YTime != ir.DefaultYTime || got.ZTime != ir.DefaultZTime {
		t.Errorf("GetSettings() = %+v, want defaults", got)
	}
	if !got.UpdatedAt.IsZero() {
		t.Errorf("UpdatedAt = %v, want zero for fallback defaults", got.UpdatedAt)
	}
}

func TestUpdateSettings_Upserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := ir.Settings{X: 4, YTime: "08:00", ZTime: "18:00", UpdatedAt: march(1, 9, 0)}
	if err := s.UpdateSettings(ctx, first); err != nil {
		t.Fatalf("first UpdateSettings() failed: %v", err)
	}

	second := ir.Settings{X: 2, YTime: "10:15", ZTime: "16:45", UpdatedAt: march(2, 9, 0)}
	if err := s.UpdateSettings(ctx, second); err != nil {
		t.Fatalf("second UpdateSettings() failed: %v", err)
	}

	got, err := s.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() failed: %v", err)
	}
	if got.X != 2 || got.YTime != "10:15" || got.ZTime != "16:45" {
		t.Errorf("GetSettings() = %+v, want %+v", got, second)
	}
	if !got.UpdatedAt.Equal(second.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, second.UpdatedAt)
	}

	var rows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&rows); err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if rows != 1 {
		t.Errorf("settings rows = %d, want 1", rows)
	}
}

func TestUpdateSettings_RejectsZeroX(t *testing.T) {
	s := createTestStore(t)

	err := s.UpdateSettings(context.Background(), ir.Settings{X: 0, YTime: "09:00", ZTime: "17:00"})
	if err == nil {
		t.Error("UpdateSettings() with X=0 should fail the CHECK constraint")
	}
}
