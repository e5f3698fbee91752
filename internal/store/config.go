package store

import (
	"context"
	"database/sql"
	"strconv"
)

// Config keys consumed by the core. Operators may store other keys;
// the core ignores them.
const (
	ConfigMaxRetries  = "max_retries"
	ConfigBackoffBase = "backoff_base_seconds"
	ConfigBackoffCap  = "backoff_cap_seconds"
)

// KnownConfigKeys lists the keys the system actually reads.
var KnownConfigKeys = []string{ConfigMaxRetries, ConfigBackoffBase, ConfigBackoffCap}

// SetConfig stores a configuration value, replacing any previous one.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}

// GetConfig returns the stored value for key, or "" when unset.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var val string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM config WHERE key=?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// AllConfig returns every stored key/value pair.
func (s *Store) AllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// IntConfig returns the integer value for key, falling back to def
// when the key is unset, unreadable, or not a number.
func (s *Store) IntConfig(ctx context.Context, key string, def int) int {
	val, err := s.GetConfig(ctx, key)
	if err != nil || val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
