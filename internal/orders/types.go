// Package orders は注文の受付と管理用CRUDを提供します。
package orders

import (
	"context"
	"time"
)

// Status は注文の対応状況を表します。
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

// ValidStatus は status が定義済みの値かどうかを判定します。
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusReady, StatusCompleted, StatusCanceled:
		return true
	default:
		return false
	}
}

// Order は保存済みの注文レコードです。
type Order struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Service        string    `json:"service"`
	DeliveryMethod string    `json:"deliveryMethod"`
	Address        string    `json:"address,omitempty"`
	Details        string    `json:"details"`
	Status         Status    `json:"status"`
	AdminNotes     string    `json:"adminNotes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Input は注文フォームから送信される内容です。
type Input struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required"`
	Service        string `json:"service" binding:"required"`
	DeliveryMethod string `json:"deliveryMethod" binding:"required"`
	Address        string `json:"address"`
	Details        string `json:"details" binding:"required"`
}

// Update は管理画面からの更新内容です。status と adminNotes の
// 少なくとも一方が必要です。
type Update struct {
	ID         int64   `json:"id" binding:"required"`
	Status     *Status `json:"status"`
	AdminNotes *string `json:"adminNotes" binding:"omitempty,max=2000"`
}

// Repository は注文レコードの永続化層です。
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	Save(ctx context.Context, input *Input) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, update *Update) (bool, error)
}
