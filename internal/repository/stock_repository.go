package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/digkill/PresetStore/internal/models"
)

func (r *mysqlTx) ListStock(ctx context.Context) ([]models.StockItem, error) {
	query := `SELECT email, link FROM stock_items ORDER BY position ASC` + r.lockClause()
	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var items []models.StockItem
	for rows.Next() {
		var item models.StockItem
		if err := rows.Scan(&item.Email, &item.Link); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *mysqlTx) RemoveStock(ctx context.Context, email string) error {
	const query = `DELETE FROM stock_items WHERE email = ?`
	res, err := r.tx.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("remove stock item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("stock rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mysqlTx) ReplaceStock(ctx context.Context, items []models.StockItem) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM stock_items`); err != nil {
		return fmt.Errorf("clear stock: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*2)
	for _, item := range items {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, item.Email, item.Link)
	}
	query := `INSERT INTO stock_items (email, link) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := r.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}
