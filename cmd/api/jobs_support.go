package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/order-desk/internal/config"
	"github.com/yourusername/order-desk/internal/jobs"
	"github.com/yourusername/order-desk/internal/logging"
)

// ジョブ状態の保持期間。完了後もこの期間は照会できる。
const jobRecordTTL = 24 * time.Hour

// setupJobs は Redis クライアントとジョブマネージャを組み立てます。
func setupJobs(cfg *config.Config, runner jobs.Runner, logger *slog.Logger) (*jobs.Manager, error) {
	redisOpt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, err
	}
	jobStore := jobs.NewStore(redis.NewClient(redisOpt), jobRecordTTL)
	return jobs.NewManager(cfg.QueueRedisURL, runner, jobStore, cfg.BackupCron, logger)
}

// backupEnqueueHandler はバックアップジョブを投入し、202でジョブIDを返します。
func backupEnqueueHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, err := manager.Enqueue(c.Request.Context())
		if err != nil {
			logging.FromContext(c).Error("failed to enqueue backup job",
				slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "バックアップの受付に失敗しました。",
			})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"jobId": jobID,
		})
	}
}

// jobStatusHandler はジョブの現在状態を返します。
func jobStatusHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		record, err := manager.GetRecord(c.Request.Context(), jobID)
		if err != nil {
			logging.FromContext(c).Error("failed to load job record",
				slog.String("jobId", jobID),
				slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ジョブ情報の取得に失敗しました。",
			})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "JOB_NOT_FOUND",
				"message": "指定されたジョブが見つかりません。",
			})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}
