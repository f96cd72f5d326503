package store

import (
	"time"

	"store-rating-api/internal/domain"
	"store-rating-api/internal/feature/rating"
	"store-rating-api/internal/feature/user"
)

type StoreModel struct {
	ID      string  `gorm:"primaryKey;type:varchar(36)"`
	Name    string  `gorm:"size:60;not null"`
	Email   string  `gorm:"uniqueIndex;size:255;not null"`
	Address string  `gorm:"size:400;not null;default:''"`
	OwnerID *string `gorm:"type:varchar(36);uniqueIndex"` // 一个店主至多一家店

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Owner   *user.UserModel      `gorm:"foreignKey:OwnerID"`
	Ratings []rating.RatingModel `gorm:"foreignKey:StoreID"`
}

func (StoreModel) TableName() string { return "stores" }

func (m *StoreModel) ToDomain() *domain.Store {
	return &domain.Store{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Address:   m.Address,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *StoreModel) ToDomainWithRatings() domain.StoreWithRatings {
	out := domain.StoreWithRatings{
		Store:   *m.ToDomain(),
		Owner:   m.Owner.Summary(),
		Ratings: make([]domain.Rating, 0, len(m.Ratings)),
	}
	for i := range m.Ratings {
		out.Ratings = append(out.Ratings, m.Ratings[i].ToDomain())
	}
	return out
}

func FromDomain(s *domain.Store) *StoreModel {
	return &StoreModel{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Address:   s.Address,
		OwnerID:   s.OwnerID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Models AutoMigrate 顺序：被引用表在前
func Models() []any {
	return []any{&user.UserModel{}, &StoreModel{}, &rating.RatingModel{}}
}
