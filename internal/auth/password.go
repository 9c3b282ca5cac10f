// Package auth は管理者の認証・認可機能を提供します。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/scrypt"
)

// scryptパラメータは登録と検証で共有する固定値です。
// 変更すると既存のハッシュがすべて無効になるため、再登録が必要になります。
const (
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	scryptLen = 64
	saltLen   = 16
)

// ErrAlreadyExists は同名の管理者が既に登録済みであることを示します。
var ErrAlreadyExists = errors.New("admin user already exists")

// Credential は管理者1名分の資格情報レコードです。
type Credential struct {
	Username     string
	PasswordHash string // scrypt導出値の16進表現
	Salt         string // ランダムソルトの16進表現
	CreatedAt    time.Time
}

// CredentialStore は資格情報レコードの永続化層です。
// Get は該当レコードがない場合に (nil, nil) を返します。
// Create は同名レコードが存在する場合に ErrAlreadyExists を返します。
type CredentialStore interface {
	Get(ctx context.Context, username string) (*Credential, error)
	Create(ctx context.Context, cred *Credential) error
}

// Verifier はパスワードの登録と検証を行います。
type Verifier struct {
	store CredentialStore
}

// NewVerifier は Verifier を作成します。
func NewVerifier(store CredentialStore) *Verifier {
	return &Verifier{store: store}
}

// Provision は新しいソルトを生成してパスワードをハッシュ化し、レコードを保存します。
func (v *Verifier) Provision(ctx context.Context, username, password string) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)

	hash, err := derive(password, saltHex)
	if err != nil {
		return err
	}

	return v.store.Create(ctx, &Credential{
		Username:     username,
		PasswordHash: hex.EncodeToString(hash),
		Salt:         saltHex,
		CreatedAt:    time.Now().UTC(),
	})
}

// decoy は存在しないユーザー名に対しても実際の導出コストを支払うための
// ダミーレコードです。ハッシュは実在のパスワードに対応しない値です。
var decoy = Credential{
	Salt:         "6f726465722d6465736b2d6465636f79",
	PasswordHash: "0000000000000000000000000000000000000000000000000000000000000000" +
		"0000000000000000000000000000000000000000000000000000000000000000",
}

// Verify は提示されたパスワードを保存済みハッシュと照合します。
// ユーザーが存在しない場合もダミー導出を行い、応答時間から
// ユーザーの有無を推測されないようにします。
func (v *Verifier) Verify(ctx context.Context, username, password string) (bool, error) {
	record, err := v.store.Get(ctx, username)
	if err != nil {
		return false, err
	}

	target := record
	if target == nil {
		target = &decoy
	}

	derived, err := derive(password, target.Salt)
	if err != nil {
		return false, err
	}

	stored, err := hex.DecodeString(target.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("stored hash is not valid hex: %w", err)
	}

	match := subtle.ConstantTimeCompare(derived, stored) == 1
	return match && record != nil, nil
}

func derive(password, saltHex string) ([]byte, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("salt is not valid hex: %w", err)
	}
	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt derivation failed: %w", err)
	}
	return derived, nil
}
