package domain

import (
	"context"
	"time"
)

type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	OwnerID   *string   `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy 门店是否归属该用户
func (s *Store) OwnedBy(userID string) bool {
	return s.OwnerID != nil && *s.OwnerID == userID
}

type StoreSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StoreWithRatings 列表查询结果：门店 + 店主 + 全部评分
type StoreWithRatings struct {
	Store
	Owner   *UserSummary
	Ratings []Rating
}

type StoreRepository interface {
	Create(ctx context.Context, s *Store) error
	FindByID(ctx context.Context, id string) (*Store, error)
	FindByOwnerID(ctx context.Context, ownerID string) (*Store, error)
	FindByEmail(ctx context.Context, email string) (*Store, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, q ListQuery) ([]StoreWithRatings, int64, error)
}
