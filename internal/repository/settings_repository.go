package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

func (r *mysqlTx) GetSetting(ctx context.Context, name string, dst any) (bool, error) {
	query := `SELECT value FROM store_settings WHERE name = ?` + r.lockClause()
	var raw []byte
	if err := r.tx.QueryRowContext(ctx, query, name).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get setting %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", name, err)
	}
	return true, nil
}

func (r *mysqlTx) PutSetting(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", name, err)
	}
	const query = `
INSERT INTO store_settings (name, value) VALUES (?, ?)
ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = NOW()`
	if _, err := r.tx.ExecContext(ctx, query, name, raw); err != nil {
		return fmt.Errorf("put setting %s: %w", name, err)
	}
	return nil
}
