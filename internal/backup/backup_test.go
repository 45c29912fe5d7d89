package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/store"
)

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func march(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []ir.Event{
		{ID: "e1", Type: ir.EventLeave, Timestamp: march(5, 8, 0), CreatedAt: march(5, 8, 1), UpdatedAt: march(5, 8, 1)},
		{ID: "e2", Type: ir.EventReturn, Timestamp: march(9, 18, 0), CreatedAt: march(9, 18, 2), UpdatedAt: march(9, 18, 2)},
	} {
		require.NoError(t, s.PutEvent(ctx, e))
	}
	require.NoError(t, s.UpdateSettings(ctx, ir.Settings{X: 4, YTime: "08:30", ZTime: "18:00", UpdatedAt: march(1, 9, 0)}))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "mestrack-backup-2025-03-20.json", FileName(march(20, 12, 0)))

	// The date is taken in UTC.
	ist := time.FixedZone("IST", 5*3600+1800)
	lateIST := time.Date(2025, time.March, 21, 2, 0, 0, 0, ist)
	assert.Equal(t, "mestrack-backup-2025-03-20.json", FileName(lateIST))
}

func TestExport(t *testing.T) {
	s := createTestStore(t)
	seed(t, s)

	snap, err := Export(context.Background(), s, march(20, 12, 0))
	require.NoError(t, err)

	assert.Equal(t, ir.SnapshotVersion, snap.Version)
	assert.True(t, snap.ExportedAt.Equal(march(20, 12, 0)))
	require.Len(t, snap.Events, 2)
	assert.Equal(t, "e1", snap.Events[0].ID)
	assert.Equal(t, 4, snap.Settings.X)
}

func TestEncode_Format(t *testing.T) {
	snap := ir.Snapshot{
		Version:    1,
		ExportedAt: time.UnixMilli(1742472000000),
		Events:     nil,
		Settings:   ir.Settings{X: 3, YTime: "09:00", ZTime: "17:00", UpdatedAt: time.UnixMilli(1740819600000)},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap))

	want := `{
  "version": 1,
  "exportedAt": 1742472000000,
  "events": [],
  "settings": {
    "X": 3,
    "Y_time": "09:00",
    "Z_time": "17:00",
    "updatedAt": 1740819600000
  }
}`
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip_ThroughFile(t *testing.T) {
	src := createTestStore(t)
	seed(t, src)
	ctx := context.Background()

	snap, err := Export(ctx, src, march(20, 12, 0))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), FileName(snap.ExportedAt))
	require.NoError(t, WriteFile(path, snap))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dst := createTestStore(t)
	assert.True(t, Import(ctx, dst, f))

	events, err := dst.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.True(t, events[0].Timestamp.Equal(march(5, 8, 0)))
	assert.True(t, events[1].CreatedAt.Equal(march(9, 18, 2)))

	settings, err := dst.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, settings.X)
	assert.Equal(t, "08:30", settings.YTime)

	restored, err := Export(ctx, dst, march(20, 12, 0))
	require.NoError(t, err)
	want, err := ir.SnapshotDigest(snap)
	require.NoError(t, err)
	got, err := ir.SnapshotDigest(restored)
	require.NoError(t, err)
	assert.Equal(t, want, got, "round trip preserves logical content")
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	snap := ir.Snapshot{Version: 1, Settings: ir.DefaultSettings(time.Time{})}
	require.NoError(t, WriteFile(path, snap))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1), decoded["version"])
}

func TestDecode_StructuralCheck(t *testing.T) {
	settings := `{"X":3,"Y_time":"09:00","Z_time":"17:00","updatedAt":0}`

	tests := []struct {
		name    string
		doc     string
		invalid bool
	}{
		{"valid", `{"version":1,"exportedAt":0,"events":[],"settings":` + settings + `}`, false},
		{"empty settings object is present", `{"version":1,"events":[],"settings":{}}`, false},
		{"version zero", `{"version":0,"events":[],"settings":` + settings + `}`, true},
		{"version missing", `{"events":[],"settings":` + settings + `}`, true},
		{"events null", `{"version":1,"events":null,"settings":` + settings + `}`, true},
		{"events missing", `{"version":1,"settings":` + settings + `}`, true},
		{"settings null", `{"version":1,"events":[],"settings":null}`, true},
		{"settings missing", `{"version":1,"events":[]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if tt.invalid {
				assert.True(t, errors.Is(err, ErrInvalidSnapshot), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidSnapshot))
}

func TestImport_FailureLeavesDataUntouched(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"version zero", `{"version":0,"events":[],"settings":{"X":3,"Y_time":"09:00","Z_time":"17:00"}}`},
		{"null events", `{"version":1,"events":null,"settings":{"X":3,"Y_time":"09:00","Z_time":"17:00"}}`},
		{"not json", `this is not a backup`},
		{"invalid event type", `{"version":1,"events":[{"id":"x","type":"BOTH","timestamp":1}],"settings":{"X":3,"Y_time":"09:00","Z_time":"17:00"}}`},
		{"invalid settings", `{"version":1,"events":[],"settings":{"X":0,"Y_time":"09:00","Z_time":"17:00"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			seed(t, s)
			ctx := context.Background()

			assert.False(t, Import(ctx, s, strings.NewReader(tt.doc)))

			count, err := s.CountEvents(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, count)
			settings, err := s.GetSettings(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, settings.X)
		})
	}
}

func TestImport_EmptyEventsClearsLog(t *testing.T) {
	s := createTestStore(t)
	seed(t, s)
	ctx := context.Background()

	doc := `{"version":1,"exportedAt":1742472000000,"events":[],"settings":{"X":2,"Y_time":"10:00","Z_time":"16:00","updatedAt":0}}`
	assert.True(t, Import(ctx, s, strings.NewReader(doc)))

	has, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, has)
	settings, _ := s.GetSettings(ctx)
	assert.Equal(t, 2, settings.X)
}

type failingReplacer struct{}

func (failingReplacer) ReplaceAll(context.Context, []ir.Event, ir.Settings) error {
	return errors.New("disk full")
}

func TestRestore_SurfacesStoreError(t *testing.T) {
	doc := `{"version":1,"events":[],"settings":{"X":3,"Y_time":"09:00","Z_time":"17:00"}}`

	_, err := Restore(context.Background(), failingReplacer{}, strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
