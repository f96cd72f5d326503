package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/domain"
)

type CreateStoreInput struct {
	Name    string `json:"name"    validate:"required,min=20,max=60"`
	Email   string `json:"email"   validate:"required,email"`
	Address string `json:"address" validate:"max=400"`
	OwnerID string `json:"ownerId"`
}

type StoreListItem struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Email   string              `json:"email"`
	Address string              `json:"address"`
	Owner   *domain.UserSummary `json:"owner"`
	Aggregate
	CreatedAt time.Time `json:"createdAt"`
}

type StoreList struct {
	Stores     []StoreListItem   `json:"stores"`
	Pagination domain.Pagination `json:"pagination"`
}

type StoreService struct {
	users  domain.UserRepository
	stores domain.StoreRepository
	log    *zap.Logger
}

func NewStoreService(users domain.UserRepository, stores domain.StoreRepository, l *zap.Logger) *StoreService {
	return &StoreService{users: users, stores: stores, log: l}
}

// Create 检查顺序：owner 存在 -> owner 角色 -> email 唯一 -> owner 未持有门店
func (s *StoreService) Create(ctx context.Context, in CreateStoreInput) (*domain.Store, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	st := &domain.Store{Name: in.Name, Email: in.Email, Address: in.Address}
	if in.OwnerID != "" {
		owner, err := s.users.FindByID(ctx, in.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, domain.NotFound("store owner not found")
		}
		if owner.Role != domain.RoleStoreOwner {
			return nil, domain.Forbidden("user is not a store owner")
		}
		st.OwnerID = &owner.ID
	}

	dup, err := s.stores.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, domain.Conflict("store with this email already exists")
	}
	if st.OwnerID != nil {
		owned, err := s.stores.FindByOwnerID(ctx, *st.OwnerID)
		if err != nil {
			return nil, err
		}
		if owned != nil {
			return nil, domain.Conflict("store owner already has a store")
		}
	}

	// 唯一约束兜底并发创建
	if err := s.stores.Create(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info("store created", zap.String("id", st.ID), zap.String("email", st.Email))
	return st, nil
}

// List 分页浏览；viewer 可为 nil（匿名），否则附带其本人评分
func (s *StoreService) List(ctx context.Context, viewer *auth.Claims, q domain.ListQuery) (*StoreList, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	rows, total, err := s.stores.List(ctx, q)
	if err != nil {
		s.log.Error("store: list failed", zap.Error(err))
		return nil, err
	}
	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}

	out := &StoreList{Stores: make([]StoreListItem, 0, len(rows)), Pagination: domain.NewPagination(q, total)}
	for _, r := range rows {
		out.Stores = append(out.Stores, StoreListItem{
			ID:        r.ID,
			Name:      r.Name,
			Email:     r.Email,
			Address:   r.Address,
			Owner:     r.Owner,
			Aggregate: AggregateStore(r.Ratings, viewerID),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
