package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SecurityEvent はセキュリティログに記録する1件のイベントです。
// クライアントへ返すレスポンスには含めない詳細情報を保持します。
type SecurityEvent struct {
	Event     string // login_failed, login_locked, login_success, token_rejected など
	IP        string
	Username  string
	UserAgent string
	RequestID string
	Detail    string
}

// SecurityLog はセキュリティイベントをJSON Lines形式でファイルに追記します。
type SecurityLog struct {
	mu     sync.Mutex
	file   io.WriteCloser
	logger *slog.Logger
}

// OpenSecurityLog は dataDir/logs/security.log を追記モードで開きます。
func OpenSecurityLog(dataDir string) (*SecurityLog, error) {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(logDir, "security.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open security log: %w", err)
	}
	return &SecurityLog{
		file:   file,
		logger: slog.New(slog.NewJSONHandler(file, nil)),
	}, nil
}

// Record はイベントを1行のJSONとして書き込みます。
func (s *SecurityLog) Record(event SecurityEvent) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs := []any{
		slog.String("event", event.Event),
		slog.String("ip", event.IP),
	}
	if event.Username != "" {
		attrs = append(attrs, slog.String("username", event.Username))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("userAgent", event.UserAgent))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("requestId", event.RequestID))
	}
	if event.Detail != "" {
		attrs = append(attrs, slog.String("detail", event.Detail))
	}
	s.logger.Info("security.event", attrs...)
}

// Close はログファイルを閉じます。
func (s *SecurityLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
