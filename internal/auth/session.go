package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionCookieName は管理者セッショントークンを保持するクッキー名です。
	SessionCookieName = "admin_session"

	// sessionVersion は現在サポートするクレームのバージョンです。
	sessionVersion = 1

	// tokenSeparator はペイロードと署名の区切り文字です。
	// base64url のアルファベットには現れません。
	tokenSeparator = "."
)

// Claims はセッショントークンに埋め込むクレームです。
// サーバー側には一切永続化されず、署名付きトークンの中にだけ存在します。
type Claims struct {
	Version   int    `json:"v"`
	Subject   string `json:"u"`
	IssuedAt  int64  `json:"iat"` // エポックミリ秒
	ExpiresAt int64  `json:"exp"` // エポックミリ秒
	TokenID   string `json:"jti"`
}

// Token は発行済みトークンの文字列と有効期限です。
type Token struct {
	Value     string
	ExpiresAt int64
}

// Codec はセッショントークンの発行と検証を行います。
// 署名鍵は初回利用時に一度だけ解決し、プロセス生存中はキャッシュします。
type Codec struct {
	secret  string
	logger  *slog.Logger
	keyOnce sync.Once
	key     []byte
	now     func() time.Time
}

// NewCodec は Codec を作成します。secret が空の場合、初回利用時に
// 一時鍵を生成して警告を出します（プロセス再起動で全トークンが無効になります）。
func NewCodec(secret string, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{
		secret: secret,
		logger: logger,
		now:    time.Now,
	}
}

func (c *Codec) signingKey() []byte {
	c.keyOnce.Do(func() {
		if c.secret != "" {
			c.key = []byte(c.secret)
			return
		}
		ephemeral := make([]byte, 32)
		if _, err := rand.Read(ephemeral); err != nil {
			// crypto/rand が失敗する環境ではプロセスを継続できない
			panic(fmt.Sprintf("failed to generate ephemeral session secret: %v", err))
		}
		c.key = ephemeral
		c.logger.Warn("ADMIN_SESSION_SECRET is not set; using an ephemeral secret. Sessions will reset on restart.")
	})
	return c.key
}

// Issue は username を主体とする新しいトークンを発行します。
// 既存トークンを更新することはなく、常に新しい jti と期限を持ちます。
func (c *Codec) Issue(username string, ttl time.Duration) (*Token, error) {
	now := c.now().UnixMilli()
	claims := Claims{
		Version:   sessionVersion,
		Subject:   username,
		IssuedAt:  now,
		ExpiresAt: now + ttl.Milliseconds(),
		TokenID:   uuid.NewString(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claims: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	signature := c.sign(encoded)

	return &Token{
		Value:     encoded + tokenSeparator + signature,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Verify はトークンを検証し、有効な場合のみクレームを返します。
// 形式不正・署名不一致・復号失敗・バージョン不一致・期限切れは
// すべて同じ nil に畳み込みます（失敗理由はクライアントに区別させない）。
func (c *Codec) Verify(token string) *Claims {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}

	expected := c.sign(parts[0])
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	if claims.Version != sessionVersion {
		return nil
	}
	if claims.ExpiresAt <= c.now().UnixMilli() {
		return nil
	}
	return &claims
}

// sign はエンコード済みペイロードに対するHMAC-SHA256署名を計算します。
func (c *Codec) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, c.signingKey())
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
