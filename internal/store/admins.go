package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yourusername/order-desk/internal/auth"
)

// AdminStore は管理者の資格情報レコードをSQLiteに保存します。
// auth.CredentialStore を実装します。
type AdminStore struct {
	db *sql.DB
}

// NewAdminStore は AdminStore を作成します。
func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

// Get はユーザー名に対応するレコードを返します。存在しない場合は (nil, nil) です。
func (s *AdminStore) Get(ctx context.Context, username string) (*auth.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, password_hash, salt, created_at
		FROM admin_users WHERE username = ?`, username)

	var cred auth.Credential
	var createdAt string
	err := row.Scan(&cred.Username, &cred.PasswordHash, &cred.Salt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin user: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
		cred.CreatedAt = parsed
	}
	return &cred, nil
}

// Create はレコードを新規作成します。同名のレコードが既にある場合は
// auth.ErrAlreadyExists を返します。
func (s *AdminStore) Create(ctx context.Context, cred *auth.Credential) error {
	existing, err := s.Get(ctx, cred.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return auth.ErrAlreadyExists
	}

	createdAt := cred.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admin_users (username, password_hash, salt, created_at)
		VALUES (?, ?, ?, ?)`,
		cred.Username, cred.PasswordHash, cred.Salt, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

var _ auth.CredentialStore = (*AdminStore)(nil)
