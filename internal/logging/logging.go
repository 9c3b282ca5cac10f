// Package logging は構造化ログとセキュリティイベントの記録を提供します。
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextLoggerKey は、ハンドラー間でリクエスト用ロガーを共有するためのキーです。
const ContextLoggerKey = "logging.request"

// requestIDHeader はクライアント/プロキシから引き継ぐリクエストIDヘッダーです。
const requestIDHeader = "X-Request-Id"

// NewLogger はJSON形式で標準出力に書き込むロガーを作成します。
func NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// RequestLogger はリクエストごとの属性を付与したロガーを保存し、
// 完了時に request.complete を記録するミドルウェアを返します。
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		start := time.Now()
		reqLogger := logger.With(
			slog.String("requestId", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		c.Set(ContextLoggerKey, reqLogger)
		c.Header(requestIDHeader, requestID)

		c.Next()

		reqLogger.Info("request.complete",
			slog.Int("status", c.Writer.Status()),
			slog.Int64("durationMs", time.Since(start).Milliseconds()),
		)
	}
}

// FromContext はミドルウェアが設定したリクエスト用ロガーを取り出します。
// 未設定の場合はデフォルトロガーを返します。
func FromContext(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ContextLoggerKey); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
