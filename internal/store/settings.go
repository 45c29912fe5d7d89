package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/mestrack/internal/ir"
)

// GetSettings returns the stored settings record.
//
// When nothing has been saved yet the defaults are returned with a zero
// UpdatedAt, so callers can tell a stored record from a fallback.
func (s *Store) GetSettings(ctx context.Context) (ir.Settings, error) {
	var (
		settings  ir.Settings
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT x, y_time, z_time, updated_at
		FROM settings
		WHERE key = 'config'
	`).Scan(&settings.X, &settings.YTime, &settings.ZTime, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.DefaultSettings(time.Time{}), nil
	}
	if err != nil {
		return ir.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	settings.UpdatedAt = ir.FromMillis(updatedAt)
	return settings, nil
}

// UpdateSettings writes the single settings record.
func (s *Store) UpdateSettings(ctx context.Context, settings ir.Settings) error {
	if err := putSettings(ctx, s.db, settings); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func putSettings(ctx context.Context, db execer, settings ir.Settings) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, x, y_time, z_time, updated_at)
		VALUES ('config', ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			x = excluded.x,
			y_time = excluded.y_time,
			z_time = excluded.z_time,
			updated_at = excluded.updated_at
	`,
		settings.X,
		settings.YTime,
		settings.ZTime,
		ir.ToMillis(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
