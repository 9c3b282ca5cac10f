// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// データ設定
	DataDir string // SQLiteデータベースとログの保存先ディレクトリ

	// 管理者セッション設定
	SessionSecret   string // セッショントークン署名用の秘密鍵
	SessionTTLHours int    // セッショントークンの有効期間（時間）

	// レート制限設定
	LoginRateLimit     int   // ログイン試行の上限回数（ウィンドウあたり）
	LoginRateWindowMs  int64 // ログイン試行のウィンドウ幅（ミリ秒）
	SubmitRateLimit    int   // 注文・問い合わせ送信の上限回数
	SubmitRateWindowMs int64 // 注文・問い合わせ送信のウィンドウ幅（ミリ秒）

	// ジョブ/キュー設定
	QueueRedisURL string // Asynq用Redis接続URL

	// バックアップ設定
	BackupDir  string // バックアップファイルの保存先（空の場合は DataDir/backups）
	BackupCron string // 定期バックアップのcron式
	BackupKeep int    // 保持するバックアップ世代数
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		DataDir: getEnv("DATA_DIR", "data"),

		SessionSecret:   getEnv("ADMIN_SESSION_SECRET", ""),
		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 8),

		LoginRateLimit:     getEnvAsInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindowMs:  getEnvAsInt64("LOGIN_RATE_WINDOW_MS", 15*60*1000),
		SubmitRateLimit:    getEnvAsInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindowMs: getEnvAsInt64("SUBMIT_RATE_WINDOW_MS", 60*1000),

		QueueRedisURL: getEnv("QUEUE_REDIS_URL", "redis://127.0.0.1:6379/0"),

		BackupDir:  getEnv("BACKUP_DIR", ""),
		BackupCron: getEnv("BACKUP_CRON", "0 3 * * *"),
		BackupKeep: getEnvAsInt("BACKUP_KEEP", 14),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	// ローカル開発では署名鍵は任意（未設定時は起動ごとの一時鍵で動作する）
	// 本番環境では厳格にチェックする
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("ADMIN_SESSION_SECRET is required in release mode")
		}
		if c.QueueRedisURL == "" {
			return fmt.Errorf("QUEUE_REDIS_URL is required in release mode")
		}
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if c.LoginRateLimit <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be positive")
	}

	return nil
}

// DatabasePath はSQLiteデータベースファイルのパスを返します。
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "app.db")
}

// ResolvedBackupDir はバックアップ保存先ディレクトリを返します。
func (c *Config) ResolvedBackupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(c.DataDir, "backups")
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64ビット整数として取得します。
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
