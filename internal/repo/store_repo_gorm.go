package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"store-rating-api/internal/domain"
	"store-rating-api/internal/feature/store"
	"store-rating-api/pkg/utils"
)

type StoreRepo struct{ db *gorm.DB }

func NewStoreRepo(db *gorm.DB) *StoreRepo { return &StoreRepo{db: db} }

func (r *StoreRepo) Create(ctx context.Context, s *domain.Store) error {
	if s.ID == "" {
		s.ID = utils.NewID()
	}
	m := store.FromDomain(s)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("store email or owner already in use")
		}
		return domain.Persistence("create store", err)
	}
	s.CreatedAt, s.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *StoreRepo) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *StoreRepo) FindByOwnerID(ctx context.Context, ownerID string) (*domain.Store, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

func (r *StoreRepo) FindByEmail(ctx context.Context, email string) (*domain.Store, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *StoreRepo) first(ctx context.Context, cond string, arg any) (*domain.Store, error) {
	var m store.StoreModel
	err := r.db.WithContext(ctx).Where(cond, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistence("find store", err)
	}
	return m.ToDomain(), nil
}

func (r *StoreRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&store.StoreModel{}).Count(&n).Error; err != nil {
		return 0, domain.Persistence("count stores", err)
	}
	return n, nil
}

// List 当前页门店，附店主摘要与全部评分（聚合在 service 层完成）
func (r *StoreRepo) List(ctx context.Context, q domain.ListQuery) ([]domain.StoreWithRatings, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&store.StoreModel{}).Scopes(searchScope(q.Search))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, domain.Persistence("count stores", err)
	}
	var ms []store.StoreModel
	err := base().Scopes(pageScope(q)).
		Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Ratings").
		Order("created_at DESC").Order("id").
		Find(&ms).Error
	if err != nil {
		return nil, 0, domain.Persistence("list stores", err)
	}

	out := make([]domain.StoreWithRatings, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomainWithRatings())
	}
	return out, total, nil
}
