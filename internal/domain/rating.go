package domain

import (
	"context"
	"time"
)

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// Rating 同一 (UserID, StoreID) 仅一条，重复提交原地覆盖
type Rating struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	StoreID   string       `json:"storeId"`
	Value     int          `json:"value"`
	Comment   *string      `json:"comment,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `json:"user,omitempty"`
}

type RatingRepository interface {
	// Upsert 单语句 insert-or-update，返回落库后的行
	Upsert(ctx context.Context, r *Rating) (*Rating, error)
	// ListByStore 按 created_at 倒序；limit<=0 表示不限
	ListByStore(ctx context.Context, storeID string, limit int) ([]Rating, error)
	Count(ctx context.Context) (int64, error)
}
