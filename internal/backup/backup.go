package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/renameio/v2"

	"github.com/roach88/mestrack/internal/ir"
	"github.com/roach88/mestrack/internal/schema"
)

// ErrInvalidSnapshot is returned when a document fails the structural check.
var ErrInvalidSnapshot = errors.New("invalid backup file format")

// Source is the read side of the store needed to export.
type Source interface {
	ListEvents(ctx context.Context) ([]ir.Event, error)
	GetSettings(ctx context.Context) (ir.Settings, error)
}

// Replacer is the write side of the store needed to restore.
type Replacer interface {
	ReplaceAll(ctx context.Context, events []ir.Event, settings ir.Settings) error
}

// FileName returns the conventional backup file name for the UTC date of now,
// e.g. "mestrack-backup-2025-03-20.json".
func FileName(now time.Time) string {
	return fmt.Sprintf("mestrack-backup-%s.json", now.UTC().Format(time.DateOnly))
}

// Export reads the full log and settings into a snapshot stamped with now.
func Export(ctx context.Context, src Source, now time.Time) (ir.Snapshot, error) {
	events, err := src.ListEvents(ctx)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("export: %w", err)
	}
	settings, err := src.GetSettings(ctx)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("export: %w", err)
	}

	snap := ir.Snapshot{
		Version:    ir.SnapshotVersion,
		ExportedAt: now,
		Events:     events,
		Settings:   settings,
	}

	if digest, err := ir.SnapshotDigest(snap); err == nil {
		slog.Debug("snapshot exported", "events", len(events), "digest", digest)
	}
	return snap, nil
}

// Encode writes snap as JSON indented with two spaces.
func Encode(w io.Writer, snap ir.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// WriteFile atomically writes snap to path. Readers see either the previous
// file or the complete new one.
func WriteFile(path string, snap ir.Snapshot) error {
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending backup file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			slog.Debug("cleanup pending backup file", "error", err)
		}
	}()

	if err := Encode(pendingFile, snap); err != nil {
		return err
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace backup file: %w", err)
	}
	return nil
}

// wireSnapshot keeps enough of the raw document to tell an absent or null
// field apart from an empty one.
type wireSnapshot struct {
	Version    *int            `json:"version"`
	ExportedAt int64           `json:"exportedAt"`
	Events     json.RawMessage `json:"events"`
	Settings   json.RawMessage `json:"settings"`
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Decode parses and structurally checks a backup document.
func Decode(r io.Reader) (ir.Snapshot, error) {
	var w wireSnapshot
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return ir.Snapshot{}, fmt.Errorf("parse backup: %w", err)
	}

	switch {
	case w.Version == nil || *w.Version == 0:
		return ir.Snapshot{}, fmt.Errorf("%w: missing version", ErrInvalidSnapshot)
	case isAbsent(w.Events):
		return ir.Snapshot{}, fmt.Errorf("%w: missing events", ErrInvalidSnapshot)
	case isAbsent(w.Settings):
		return ir.Snapshot{}, fmt.Errorf("%w: missing settings", ErrInvalidSnapshot)
	}

	var events []ir.Event
	if err := json.Unmarshal(w.Events, &events); err != nil {
		return ir.Snapshot{}, fmt.Errorf("parse backup events: %w", err)
	}
	var settings ir.Settings
	if err := json.Unmarshal(w.Settings, &settings); err != nil {
		return ir.Snapshot{}, fmt.Errorf("parse backup settings: %w", err)
	}

	return ir.Snapshot{
		Version:    *w.Version,
		ExportedAt: ir.FromMillis(w.ExportedAt),
		Events:     events,
		Settings:   settings,
	}, nil
}

// Restore decodes a document, validates its records and replaces the
// store contents wholesale. On any error the store is left untouched.
func Restore(ctx context.Context, dst Replacer, r io.Reader) (ir.Snapshot, error) {
	snap, err := Decode(r)
	if err != nil {
		return ir.Snapshot{}, err
	}

	v, err := schema.Default()
	if err != nil {
		return ir.Snapshot{}, err
	}
	if err := v.ValidateEvents(snap.Events); err != nil {
		return ir.Snapshot{}, fmt.Errorf("restore: %w", err)
	}
	if err := v.ValidateSettings(snap.Settings); err != nil {
		return ir.Snapshot{}, fmt.Errorf("restore: %w", err)
	}

	if err := dst.ReplaceAll(ctx, snap.Events, snap.Settings); err != nil {
		return ir.Snapshot{}, fmt.Errorf("restore: %w", err)
	}

	slog.Info("backup restored", "version", snap.Version, "events", len(snap.Events))
	return snap, nil
}

// Import is Restore with every failure folded into false. The cause is logged.
func Import(ctx context.Context, dst Replacer, r io.Reader) bool {
	if _, err := Restore(ctx, dst, r); err != nil {
		slog.Error("backup import failed", "error", err)
		return false
	}
	return true
}
