package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"store-rating-api/internal/domain"
	"store-rating-api/internal/feature/store"
	"store-rating-api/internal/feature/user"
	"store-rating-api/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("email already exists")
		}
		return domain.Persistence("create user", err)
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

// first 未找到返回 (nil, nil)
func (r *UserRepo) first(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Where(cond, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistence("find user", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return domain.Persistence("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("user not found")
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&user.UserModel{}).Count(&n).Error; err != nil {
		return 0, domain.Persistence("count users", err)
	}
	return n, nil
}

func (r *UserRepo) List(ctx context.Context, q domain.ListQuery) ([]domain.UserWithStore, int64, error) {
	base := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&user.UserModel{}).Scopes(searchScope(q.Search))
		if q.Role != "" {
			tx = tx.Where("role = ?", string(q.Role))
		}
		return tx
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, domain.Persistence("count users", err)
	}
	var ms []user.UserModel
	if err := base().Scopes(pageScope(q)).Order("created_at DESC").Order("id").Find(&ms).Error; err != nil {
		return nil, 0, domain.Persistence("list users", err)
	}

	ids := make([]string, 0, len(ms))
	for i := range ms {
		ids = append(ids, ms[i].ID)
	}
	owned := map[string]*domain.StoreSummary{}
	if len(ids) > 0 {
		var stores []store.StoreModel
		if err := r.db.WithContext(ctx).Select("id", "name", "owner_id").
			Where("owner_id IN ?", ids).Find(&stores).Error; err != nil {
			return nil, 0, domain.Persistence("list owned stores", err)
		}
		for _, s := range stores {
			if s.OwnerID != nil {
				owned[*s.OwnerID] = &domain.StoreSummary{ID: s.ID, Name: s.Name}
			}
		}
	}

	out := make([]domain.UserWithStore, 0, len(ms))
	for i := range ms {
		out = append(out, domain.UserWithStore{User: *ms[i].ToDomain(), OwnedStore: owned[ms[i].ID]})
	}
	return out, total, nil
}
