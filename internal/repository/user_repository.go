package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/digkill/PresetStore/internal/models"
)

const mysqlDuplicateEntry = 1062

func (r *mysqlTx) GetUser(ctx context.Context, username string) (*models.User, error) {
	query := `
SELECT username, password, balance, role, created_at
FROM users WHERE username = ?` + r.lockClause()
	row := r.tx.QueryRowContext(ctx, query, username)
	var u models.User
	if err := row.Scan(&u.Username, &u.Password, &u.Balance, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *mysqlTx) CreateUser(ctx context.Context, user *models.User) error {
	const query = `
INSERT INTO users (username, password, balance, role, created_at)
VALUES (?, ?, ?, ?, ?)`
	if _, err := r.tx.ExecContext(ctx, query, user.Username, user.Password, user.Balance, user.Role, user.CreatedAt); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *mysqlTx) UpdateBalance(ctx context.Context, username string, balance int64) error {
	const query = `UPDATE users SET balance = ?, updated_at = NOW() WHERE username = ?`
	if _, err := r.tx.ExecContext(ctx, query, balance, username); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}
