// Package kvstore is a flat JSON key-value store on top of the kv table.
package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store reads and writes JSON documents by key. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// New wraps a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get decodes the value stored under key into dst. found is false when the
// key does not exist; dst is left untouched in that case.
func (s *Store) Get(ctx context.Context, key string, dst any) (found bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query key %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("decode key %q: %w", key, err)
	}
	return true, nil
}

// Put stores v as JSON under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(raw)); err != nil {
		return fmt.Errorf("upsert key %q: %w", key, err)
	}
	return nil
}

// PutIfAbsent stores v only when key is unused and reports whether it did.
func (s *Store) PutIfAbsent(ctx context.Context, key string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode key %q: %w", key, err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO NOTHING
	`, key, string(raw))
	if err != nil {
		return false, fmt.Errorf("insert key %q: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert key %q: %w", key, err)
	}
	return affected > 0, nil
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete key %q: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete key %q: %w", key, err)
	}
	return affected > 0, nil
}

// DeletePrefix removes every key starting with prefix and returns the count.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ? ESCAPE '\'`, likePrefix(prefix))
	if err != nil {
		return 0, fmt.Errorf("delete prefix %q: %w", prefix, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete prefix %q: %w", prefix, err)
	}
	return int(affected), nil
}

// Keys lists keys starting with prefix, sorted ascending.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key
		FROM kv
		WHERE key LIKE ? ESCAPE '\'
		ORDER BY key
	`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("query keys %q: %w", prefix, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
