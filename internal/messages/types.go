// Package messages は問い合わせメッセージの受付と管理用CRUDを提供します。
package messages

import (
	"context"
	"time"
)

// Status はメッセージの対応状況を表します。
type Status string

const (
	StatusNew       Status = "new"
	StatusResponded Status = "responded"
	StatusArchived  Status = "archived"
)

// ValidStatus は status が定義済みの値かどうかを判定します。
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusResponded, StatusArchived:
		return true
	default:
		return false
	}
}

// Message は保存済みの問い合わせレコードです。
type Message struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Interest   string    `json:"interest"`
	SiteType   string    `json:"siteType"`
	Message    string    `json:"message"`
	Status     Status    `json:"status"`
	AdminNotes string    `json:"adminNotes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Input は問い合わせフォームから送信される内容です。
type Input struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Interest string `json:"interest" binding:"required"`
	SiteType string `json:"siteType" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

// Update は管理画面からの更新内容です。status と adminNotes の
// 少なくとも一方が必要です。
type Update struct {
	ID         int64   `json:"id" binding:"required"`
	Status     *Status `json:"status"`
	AdminNotes *string `json:"adminNotes" binding:"omitempty,max=2000"`
}

// Repository は問い合わせレコードの永続化層です。
type Repository interface {
	List(ctx context.Context) ([]Message, error)
	Save(ctx context.Context, input *Input) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, update *Update) (bool, error)
}
