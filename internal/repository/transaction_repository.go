package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/digkill/PresetStore/internal/models"
)

const transactionColumns = `id, username, type, COALESCE(plan_id, ''), amount, created_at, status,
COALESCE(payment_method, ''), COALESCE(account_type, ''),
cred_email, cred_password, cred_access_link, cred_expires_at`

func (r *mysqlTx) InsertTransaction(ctx context.Context, trx *models.Transaction) error {
	const query = `
INSERT INTO transactions (id, username, type, plan_id, amount, status, payment_method, account_type,
    cred_email, cred_password, cred_access_link, cred_expires_at, created_at)
VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?)`
	var email, password, link, expires sql.NullString
	if c := trx.Credentials; c != nil {
		email = sql.NullString{String: c.Email, Valid: true}
		password = sql.NullString{String: c.Password, Valid: true}
		link = sql.NullString{String: c.AccessLink, Valid: c.AccessLink != ""}
		expires = sql.NullString{String: c.ExpiresAt, Valid: true}
	}
	_, err := r.tx.ExecContext(ctx, query,
		trx.ID, trx.Username, trx.Type, trx.PlanID, trx.Amount, trx.Status, trx.PaymentMethod, trx.AccountType,
		email, password, link, expires, trx.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *mysqlTx) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?` + r.lockClause()
	row := r.tx.QueryRowContext(ctx, query, id)
	trx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return trx, nil
}

func (r *mysqlTx) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	const query = `UPDATE transactions SET status = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.tx.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return nil
}

func (r *mysqlTx) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if filter.Username != "" {
		where = append(where, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if filter.NewestFirst {
		query += ` ORDER BY seq DESC`
	} else {
		query += ` ORDER BY seq ASC`
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		trx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *trx)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t                              models.Transaction
		email, password, link, expires sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Username, &t.Type, &t.PlanID, &t.Amount, &t.Timestamp, &t.Status,
		&t.PaymentMethod, &t.AccountType, &email, &password, &link, &expires); err != nil {
		return nil, err
	}
	if email.Valid {
		t.Credentials = &models.Credentials{
			Email:      email.String,
			Password:   password.String,
			AccessLink: link.String,
			ExpiresAt:  expires.String,
		}
	}
	return &t, nil
}
