package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-desk/internal/logging"
	"github.com/yourusername/order-desk/internal/ratelimit"
)

const (
	// ContextAdminKey は、ハンドラー間でログイン済み管理者名を共有するためのキーです。
	ContextAdminKey = "auth.admin"

	// loginScope はログイン試行のレート制限スコープです。
	loginScope = "admin_login"

	// loginPath はブラウザ遷移時のリダイレクト先となるログイン画面のパスです。
	loginPath = "/admin/login"

	// KDFに渡す前に弾く入力長の上限。巨大な入力によるCPUコストを抑えます。
	maxUsernameLen = 128
	maxPasswordLen = 1024
)

// ManagerOptions は Manager の依存と設定をまとめた構造体です。
type ManagerOptions struct {
	Verifier      *Verifier
	Codec         *Codec
	Limiter       *ratelimit.Limiter
	SecurityLog   *logging.SecurityLog
	SessionTTL    time.Duration
	LoginLimit    int
	LoginWindowMs int64
	SecureCookie  bool
}

// Manager は認証に関わるエンドポイントと保護ミドルウェアをまとめた構造体です。
// 内部コンポーネントの結果をHTTPステータスへ変換するのはこの層だけです。
type Manager struct {
	verifier      *Verifier
	codec         *Codec
	limiter       *ratelimit.Limiter
	securityLog   *logging.SecurityLog
	sessionTTL    time.Duration
	loginLimit    int
	loginWindowMs int64
	secureCookie  bool
}

// NewManager は Manager を作成します。
func NewManager(opts ManagerOptions) *Manager {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{
		verifier:      opts.Verifier,
		codec:         opts.Codec,
		limiter:       opts.Limiter,
		securityLog:   opts.SecurityLog,
		sessionTTL:    ttl,
		loginLimit:    opts.LoginLimit,
		loginWindowMs: opts.LoginWindowMs,
		secureCookie:  opts.SecureCookie,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login は POST /api/admin/login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	log := logging.FromContext(c)

	decision := m.limiter.Check(loginScope+":"+c.ClientIP(), m.loginLimit, m.loginWindowMs)
	ratelimit.SetHeaders(c, decision)
	if !decision.Allowed {
		m.recordSecurityEvent(c, "login_locked", "", "rate limit exceeded")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":              "TOO_MANY_ATTEMPTS",
			"message":           "ログイン試行が多すぎます。一定時間後に再度お試しください。",
			"retryAfterSeconds": decision.RetryAfterSeconds,
		})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username と password を JSON で送ってください。",
		})
		return
	}
	if len(req.Username) > maxUsernameLen || len(req.Password) > maxPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username または password が長すぎます。",
		})
		return
	}

	ok, err := m.verifier.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Error("login.verify_failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "サーバー内部でエラーが発生しました。",
		})
		return
	}
	if !ok {
		// ユーザー名の有無は応答から区別させない
		m.recordSecurityEvent(c, "login_failed", req.Username, "invalid credentials")
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "INVALID_CREDENTIALS",
			"message": "ユーザー名またはパスワードが正しくありません。",
		})
		return
	}

	token, err := m.codec.Issue(req.Username, m.sessionTTL)
	if err != nil {
		log.Error("login.issue_failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "サーバー内部でエラーが発生しました。",
		})
		return
	}

	m.recordSecurityEvent(c, "login_success", req.Username, "")
	m.setSessionCookie(c, token.Value, int(m.sessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"expiresAt": token.ExpiresAt})
}

// Session は GET /api/admin/session のハンドラーです。
// 有効なセッションに対しては有効期限だけを公開します。
func (m *Manager) Session(c *gin.Context) {
	claims := m.claimsFromRequest(c)
	if claims == nil {
		respondUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expiresAt": claims.ExpiresAt})
}

// Refresh は POST /api/admin/refresh のハンドラーです。
// 有効なトークンを持つ場合のみ、同じ主体で新しいトークンを発行します。
func (m *Manager) Refresh(c *gin.Context) {
	log := logging.FromContext(c)

	claims := m.claimsFromRequest(c)
	if claims == nil {
		respondUnauthorized(c)
		return
	}

	token, err := m.codec.Issue(claims.Subject, m.sessionTTL)
	if err != nil {
		log.Error("refresh.issue_failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "サーバー内部でエラーが発生しました。",
		})
		return
	}

	m.setSessionCookie(c, token.Value, int(m.sessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"expiresAt": token.ExpiresAt})
}

// Logout は POST /api/admin/logout のハンドラーです。
// セッションの有無にかかわらずクッキーを破棄して成功を返します（冪等）。
func (m *Manager) Logout(c *gin.Context) {
	m.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "ログアウトしました。"})
}

// RequireAdmin は有効なセッションを要求するミドルウェアを返します。
// ブラウザ遷移の場合はログイン画面へリダイレクトし、元のパスを引き継ぎます。
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := m.claimsFromRequest(c)
		if claims == nil {
			if token := tokenFromRequest(c); token != "" {
				m.recordSecurityEvent(c, "token_rejected", "", "invalid or expired session token")
			}
			if isBrowserNavigation(c) {
				target := safeReturnTarget(c.Request.URL.Path)
				c.Redirect(http.StatusFound, loginPath+"?redirect="+target)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です。",
			})
			return
		}
		c.Set(ContextAdminKey, claims.Subject)
		c.Next()
	}
}

func (m *Manager) claimsFromRequest(c *gin.Context) *Claims {
	token := tokenFromRequest(c)
	if token == "" {
		return nil
	}
	return m.codec.Verify(token)
}

// tokenFromRequest はクッキーまたは Authorization ヘッダーからトークンを取り出します。
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (m *Manager) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, value, maxAge, "/", "", m.secureCookie, true)
}

func (m *Manager) recordSecurityEvent(c *gin.Context, event, username, detail string) {
	m.securityLog.Record(logging.SecurityEvent{
		Event:     event,
		IP:        c.ClientIP(),
		Username:  username,
		UserAgent: c.Request.UserAgent(),
		RequestID: c.Writer.Header().Get("X-Request-Id"),
		Detail:    detail,
	})
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "ログインが必要です。",
	})
}

// isBrowserNavigation はHTMLを要求するGETリクエストかどうかを判定します。
func isBrowserNavigation(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet {
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// safeReturnTarget はログイン後に戻すパスを検証します。
// 同一オリジンの相対パスのみ許可し、それ以外は安全なデフォルトに置き換えます
// （オープンリダイレクト対策）。
func safeReturnTarget(target string) string {
	if !strings.HasPrefix(target, "/") {
		return "/admin"
	}
	if strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/admin"
	}
	return target
}
