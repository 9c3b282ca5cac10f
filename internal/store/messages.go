package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yourusername/order-desk/internal/messages"
)

// MessageStore は問い合わせレコードをSQLiteに保存します。
// messages.Repository を実装します。
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore は MessageStore を作成します。
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// List は問い合わせを新しい順に返します。
func (s *MessageStore) List(ctx context.Context) ([]messages.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, interest, site_type, message, status, admin_notes, created_at
		FROM messages
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	result := []messages.Message{}
	for rows.Next() {
		var (
			record    messages.Message
			createdAt string
		)
		err := rows.Scan(&record.ID, &record.Name, &record.Email, &record.Interest,
			&record.SiteType, &record.Message, &record.Status, &record.AdminNotes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		record.CreatedAt = parseStoredTime(createdAt)
		result = append(result, record)
	}
	return result, rows.Err()
}

// Save は問い合わせを保存し、採番されたIDを返します。
func (s *MessageStore) Save(ctx context.Context, input *messages.Input) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages
		(name, email, interest, site_type, message, status, admin_notes, created_at)
		VALUES (?, ?, ?, ?, ?, 'new', '', ?)`,
		input.Name, input.Email, input.Interest, input.SiteType, input.Message,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to save message: %w", err)
	}
	return res.LastInsertId()
}

// Delete は問い合わせを削除します。対象が存在した場合に true を返します。
func (s *MessageStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// Update は status / admin_notes のうち指定された項目だけを更新します。
func (s *MessageStore) Update(ctx context.Context, update *messages.Update) (bool, error) {
	query := "UPDATE messages SET "
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
		return false, fmt.Errorf("failed to update message: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

var _ messages.Repository = (*MessageStore)(nil)
