// Package jobs はバックアップジョブの投入と状態管理を提供します。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	taskTypeBackup = "backup:run"
	kindBackup     = "backup"

	queueMaintenance = "maintenance"
)

// Runner はバックアップ本体を実行できるサービスが実装します。
type Runner interface {
	Run(ctx context.Context) (string, error)
}

// Manager はジョブの投入と状態管理を担います。
type Manager struct {
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	store     *Store
	runner    Runner
	logger    *slog.Logger
}

// TaskPayload はバックアップジョブのペイロードです。
// 定期実行では JobID が空になり、ワーカー側で採番します。
type TaskPayload struct {
	JobID string `json:"jobId"`
}

// NewManager は Manager を初期化します。backupCron が空でない場合、
// その式に従って定期バックアップを登録します。
func NewManager(redisURL string, runner Runner, store *Store, backupCron string, logger *slog.Logger) (*Manager, error) {
	if runner == nil {
		return nil, errors.New("runner is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queueMaintenance: 1,
			},
		},
	)
	scheduler := asynq.NewScheduler(opt, nil)

	mux := asynq.NewServeMux()
	manager := &Manager{
		client:    client,
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		store:     store,
		runner:    runner,
		logger:    logger,
	}
	mux.HandleFunc(taskTypeBackup, manager.handleBackupTask)

	if backupCron != "" {
		task := asynq.NewTask(taskTypeBackup, nil, asynq.Queue(queueMaintenance))
		if _, err := scheduler.Register(backupCron, task); err != nil {
			return nil, fmt.Errorf("failed to register backup schedule: %w", err)
		}
	}

	return manager, nil
}

// StartWorkers は Asynq のワーカーとスケジューラをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && err != asynq.ErrServerClosed {
			m.logger.Error("asynq server stopped with error", slog.String("error", err.Error()))
		}
	}()
	if err := m.scheduler.Start(); err != nil {
		m.logger.Error("failed to start backup scheduler", slog.String("error", err.Error()))
	}
}

// Shutdown はスケジューラ・サーバー・クライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.scheduler.Shutdown()
	m.server.Shutdown()
	return m.client.Close()
}

// Enqueue はバックアップジョブをキューに投入し、ジョブIDを返します。
func (m *Manager) Enqueue(ctx context.Context) (string, error) {
	jobID := uuid.NewString()
	if err := m.store.Upsert(ctx, &Record{
		JobID:  jobID,
		Kind:   kindBackup,
		Status: StatusQueued,
	}); err != nil {
		return "", err
	}

	body, err := json.Marshal(&TaskPayload{JobID: jobID})
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(taskTypeBackup, body, asynq.Queue(queueMaintenance))
	if _, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(1)); err != nil {
		return "", err
	}
	return jobID, nil
}

// GetRecord はジョブ情報を取得します。
func (m *Manager) GetRecord(ctx context.Context, jobID string) (*Record, error) {
	return m.store.Get(ctx, jobID)
}

func (m *Manager) handleBackupTask(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return err
		}
	}
	// 定期実行のタスクにはIDがないためここで採番する
	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}

	if err := m.store.Upsert(ctx, &Record{
		JobID:  payload.JobID,
		Kind:   kindBackup,
		Status: StatusRunning,
	}); err != nil {
		return err
	}

	backupPath, err := m.runner.Run(ctx)
	if err != nil {
		m.logger.Error("backup job failed",
			slog.String("jobId", payload.JobID),
			slog.String("error", err.Error()))
		return m.store.MarkFailed(ctx, payload.JobID, &ErrorInfo{
			Code:    "BACKUP_FAILED",
			Message: "バックアップの作成に失敗しました。",
		})
	}

	m.logger.Info("backup job completed",
		slog.String("jobId", payload.JobID),
		slog.String("backupPath", backupPath))
	return m.store.MarkDone(ctx, payload.JobID, backupPath)
}
