package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetConfig reads a value from the config table. Missing keys return
// an empty string with no error.
func (d *DB) GetConfig(key string) (string, error) {
	var value string
	err := d.conn.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config %s: %w", key, err)
	}
	return value, nil
}

func (d *DB) SetConfig(key, value string) error {
	_, err := d.conn.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", key, err)
	}
	return nil
}
