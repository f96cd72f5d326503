package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"store-rating-api/internal/domain"
	"store-rating-api/internal/feature/rating"
	"store-rating-api/pkg/utils"
)

type RatingRepo struct{ db *gorm.DB }

func NewRatingRepo(db *gorm.DB) *RatingRepo { return &RatingRepo{db: db} }

// Upsert INSERT ... ON CONFLICT (user_id, store_id) DO UPDATE（mysql 为 ON DUPLICATE KEY UPDATE），
// 并发提交不会产生重复行
func (r *RatingRepo) Upsert(ctx context.Context, in *domain.Rating) (*domain.Rating, error) {
	m := rating.FromDomain(in)
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "store_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "comment", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return nil, domain.Persistence("upsert rating", err)
	}

	var out rating.RatingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", in.UserID, in.StoreID).
		First(&out).Error; err != nil {
		return nil, domain.Persistence("reload rating", err)
	}
	d := out.ToDomain()
	return &d, nil
}

func (r *RatingRepo) ListByStore(ctx context.Context, storeID string, limit int) ([]domain.Rating, error) {
	tx := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Where("store_id = ?", storeID).
		Order("created_at DESC").Order("id")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var ms []rating.RatingModel
	if err := tx.Find(&ms).Error; err != nil {
		return nil, domain.Persistence("list ratings", err)
	}
	out := make([]domain.Rating, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

func (r *RatingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&rating.RatingModel{}).Count(&n).Error; err != nil {
		return 0, domain.Persistence("count ratings", err)
	}
	return n, nil
}
