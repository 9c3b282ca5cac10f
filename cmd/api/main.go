// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-desk/internal/auth"
	"github.com/yourusername/order-desk/internal/backup"
	"github.com/yourusername/order-desk/internal/config"
	"github.com/yourusername/order-desk/internal/jobs"
	"github.com/yourusername/order-desk/internal/logging"
	"github.com/yourusername/order-desk/internal/messages"
	"github.com/yourusername/order-desk/internal/orders"
	"github.com/yourusername/order-desk/internal/ratelimit"
	"github.com/yourusername/order-desk/internal/store"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// データベースの初期化（スキーマ適用と過去データの移行を含む）
	db, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	// セキュリティイベントの記録先
	securityLog, err := logging.OpenSecurityLog(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open security log", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer securityLog.Close()

	// 認証コアの組み立て。コンポーネントはプロセスで1つずつ作り、
	// ハンドラーへ注入する（グローバル状態は持たない）。
	limiter := ratelimit.NewLimiter()
	codec := auth.NewCodec(cfg.SessionSecret, logger)
	verifier := auth.NewVerifier(store.NewAdminStore(db))
	authManager := auth.NewManager(auth.ManagerOptions{
		Verifier:      verifier,
		Codec:         codec,
		Limiter:       limiter,
		SecurityLog:   securityLog,
		SessionTTL:    time.Duration(cfg.SessionTTLHours) * time.Hour,
		LoginLimit:    cfg.LoginRateLimit,
		LoginWindowMs: cfg.LoginRateWindowMs,
		SecureCookie:  cfg.GinMode == gin.ReleaseMode,
	})

	// バックアップジョブの準備
	backupService := backup.NewService(db, cfg.ResolvedBackupDir(), cfg.BackupKeep)
	jobsManager, err := setupJobs(cfg, backupService, logger)
	if err != nil {
		logger.Error("failed to set up jobs", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jobsManager.StartWorkers()

	// Ginルーターの初期化
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger(logger))

	// CORSミドルウェアの設定（フロントエンドは別オリジンで動く）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-Request-Id",
	}
	corsConfig.ExposeHeaders = []string{
		"X-Request-Id",
		"Retry-After",
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
	}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, cfg, authManager, limiter, jobsManager,
		store.NewOrderStore(db), store.NewMessageStore(db))

	// サーバーの起動
	addr := ":" + cfg.Port
	logger.Info("starting API server", slog.String("addr", addr), slog.String("mode", cfg.GinMode))
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "order-desk-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authManager *auth.Manager,
	limiter *ratelimit.Limiter,
	jobsManager *jobs.Manager,
	orderRepo orders.Repository,
	messageRepo messages.Repository,
) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		adminRoutes := api.Group("/admin")
		{
			// ログインのレート制限はハンドラー内で行う（失敗回数を正しく数えるため）
			adminRoutes.POST("/login", authManager.Login)
			adminRoutes.POST("/logout", authManager.Logout)
			adminRoutes.GET("/session", authManager.Session)
			adminRoutes.POST("/refresh", authManager.Refresh)
		}

		// 公開エンドポイント（送信系はスコープ別にレート制限する）
		api.POST("/orders",
			ratelimit.Middleware(limiter, "order_submit", cfg.SubmitRateLimit, cfg.SubmitRateWindowMs),
			orders.CreateHandler(orderRepo),
		)
		api.POST("/contact",
			ratelimit.Middleware(limiter, "contact_submit", cfg.SubmitRateLimit, cfg.SubmitRateWindowMs),
			messages.CreateHandler(messageRepo),
		)

		// 管理者専用エンドポイント
		protected := api.Group("")
		protected.Use(authManager.RequireAdmin())
		{
			protected.GET("/orders", orders.ListHandler(orderRepo))
			protected.DELETE("/orders", orders.DeleteHandler(orderRepo))
			protected.PATCH("/orders", orders.UpdateHandler(orderRepo))

			protected.GET("/contact", messages.ListHandler(messageRepo))
			protected.DELETE("/contact", messages.DeleteHandler(messageRepo))
			protected.PATCH("/contact", messages.UpdateHandler(messageRepo))

			protected.POST("/admin/backup", backupEnqueueHandler(jobsManager))
			protected.GET("/admin/jobs/:id", jobStatusHandler(jobsManager))
		}
	}
}
