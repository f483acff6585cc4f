package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/helpdevoir/hdq/internal/logger"
	"github.com/helpdevoir/hdq/internal/storage"
)

var _ storage.Store = (*DB)(nil)

// timeLayout is compatible with SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05.000"

// timeFormats are the text forms updated_at may come back in, depending on
// whether the driver converted the DATETIME column itself.
var timeFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// parseUpdatedAt accepts the driver's time.Time as well as the stored text.
func parseUpdatedAt(v any) (time.Time, bool) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}, false
	}
	for _, format := range timeFormats {
		if parsed, err := time.Parse(format, s); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// Load reads the envelope stored under key.
func (db *DB) Load(ctx context.Context, key string) (storage.Envelope, error) {
	var (
		env       storage.Envelope
		value     []byte
		updatedAt any
	)

	err := db.QueryRowContext(ctx,
		`SELECT version, value, updated_at FROM kv_store WHERE key = ?`, key,
	).Scan(&env.Version, &value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Envelope{}, storage.ErrNotFound
		}
		return storage.Envelope{}, fmt.Errorf("failed to load %s: %w", key, err)
	}

	env.Data = value
	if t, ok := parseUpdatedAt(updatedAt); ok {
		env.UpdatedAt = t
	} else {
		logger.Warn("unreadable updated_at in kv_store", "key", key, "value", updatedAt)
	}
	return env, nil
}

// Save upserts the envelope under key.
func (db *DB) Save(ctx context.Context, key string, env storage.Envelope) error {
	updatedAt := env.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO kv_store (key, version, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, env.Version, []byte(env.Data), updatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
