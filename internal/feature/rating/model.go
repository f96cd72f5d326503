package rating

import (
	"time"

	"store-rating-api/internal/domain"
	"store-rating-api/internal/feature/user"
)

// RatingModel (user_id, store_id) 唯一索引是 upsert 的冲突键
type RatingModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_ratings_user_store,priority:1"`
	StoreID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_ratings_user_store,priority:2;index:idx_ratings_store_created,priority:1"`
	Value     int       `gorm:"not null"`
	Comment   *string   `gorm:"size:500"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_ratings_store_created,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	User *user.UserModel `gorm:"foreignKey:UserID"`
}

func (RatingModel) TableName() string { return "ratings" }

func (m *RatingModel) ToDomain() domain.Rating {
	return domain.Rating{
		ID:        m.ID,
		UserID:    m.UserID,
		StoreID:   m.StoreID,
		Value:     m.Value,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		User:      m.User.Summary(),
	}
}

func FromDomain(r *domain.Rating) *RatingModel {
	return &RatingModel{
		ID:        r.ID,
		UserID:    r.UserID,
		StoreID:   r.StoreID,
		Value:     r.Value,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
