package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yourusername/order-desk/internal/orders"
)

// OrderStore は注文レコードをSQLiteに保存します。orders.Repository を実装します。
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore は OrderStore を作成します。
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// List は注文を新しい順に返します。
func (s *OrderStore) List(ctx context.Context) ([]orders.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, service, delivery_method, address, details, status, admin_notes, created_at
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	result := []orders.Order{}
	for rows.Next() {
		var (
			record    orders.Order
			address   sql.NullString
			createdAt string
		)
		err := rows.Scan(&record.ID, &record.Name, &record.Email, &record.Phone,
			&record.Service, &record.DeliveryMethod, &address, &record.Details,
			&record.Status, &record.AdminNotes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		record.Address = address.String
		record.CreatedAt = parseStoredTime(createdAt)
		result = append(result, record)
	}
	return result, rows.Err()
}

// Save は注文を保存し、採番されたIDを返します。
func (s *OrderStore) Save(ctx context.Context, input *orders.Input) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
		(name, email, phone, service, delivery_method, address, details, status, admin_notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'new', '', ?)`,
		input.Name, input.Email, input.Phone, input.Service, input.DeliveryMethod,
		nullableString(input.Address), input.Details,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to save order: %w", err)
	}
	return res.LastInsertId()
}

// Delete は注文を削除します。対象が存在した場合に true を返します。
func (s *OrderStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// Update は status / admin_notes のうち指定された項目だけを更新します。
func (s *OrderStore) Update(ctx context.Context, update *orders.Update) (bool, error) {
	query := "UPDATE orders SET "
	args := []any{}
	if update.Status != nil {
		query += "status = ?"
		args = append(args, string(*update.Status))
	}
	if update.AdminNotes != nil {
		if len(args) > 0 {
			query += ", "
		}
		query += "admin_notes = ?"
		args = append(args, *update.AdminNotes)
	}
	query += " WHERE id = ?"
	args = append(args, update.ID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update order: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// parseStoredTime はTEXT保存した時刻を読み戻します。
// 過去データに形式ゆらぎがあってもゼロ値で返してリストを止めない。
func parseStoredTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

var _ orders.Repository = (*OrderStore)(nil)
