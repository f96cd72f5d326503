// Package memory 进程内存储实现，供 db.driver=memory 与测试使用。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"store-rating-api/internal/domain"
	"store-rating-api/pkg/utils"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	stores  map[string]domain.Store
	ratings map[[2]string]domain.Rating // key: userID, storeID

	calls atomic.Int64
	// Fail 非 nil 时所有操作返回该错误（包装为 ErrPersistence）
	Fail error
	Now  func() time.Time
}

func New() *Store {
	return &Store{
		users:   map[string]domain.User{},
		stores:  map[string]domain.Store{},
		ratings: map[[2]string]domain.Rating{},
	}
}

// Calls 已发生的存储调用次数
func (s *Store) Calls() int64 { return s.calls.Load() }

func (s *Store) enter(op string) error {
	s.calls.Add(1)
	if s.Fail != nil {
		return domain.Persistence(op, s.Fail)
	}
	return nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) Users() *UserRepo     { return &UserRepo{s} }
func (s *Store) Stores() *StoreRepo   { return &StoreRepo{s} }
func (s *Store) Ratings() *RatingRepo { return &RatingRepo{s} }

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func page[T any](items []T, q domain.ListQuery) []T {
	from := q.Offset()
	if from < 0 || from >= len(items) {
		return []T{}
	}
	to := min(from+q.Limit, len(items))
	return items[from:to]
}

// ---------- users ----------

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.s.enter("create user"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.users {
		if strings.EqualFold(e.Email, u.Email) {
			return domain.Conflict("email already exists")
		}
	}
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := r.s.enter("find user"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := r.s.enter("find user"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if err := r.s.enter("update password"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NotFound("user not found")
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	if err := r.s.enter("count users"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r *UserRepo) List(ctx context.Context, q domain.ListQuery) ([]domain.UserWithStore, int64, error) {
	if err := r.s.enter("list users"); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	owned := map[string]*domain.StoreSummary{}
	for _, st := range r.s.stores {
		if st.OwnerID != nil {
			owned[*st.OwnerID] = &domain.StoreSummary{ID: st.ID, Name: st.Name}
		}
	}
	var all []domain.UserWithStore
	for _, u := range r.s.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if !matches(q.Search, u.Name, u.Email, u.Address) {
			continue
		}
		all = append(all, domain.UserWithStore{User: u, OwnedStore: owned[u.ID]})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, q), int64(len(all)), nil
}

// ---------- stores ----------

type StoreRepo struct{ s *Store }

func (r *StoreRepo) Create(ctx context.Context, st *domain.Store) error {
	if err := r.s.enter("create store"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.stores {
		if strings.EqualFold(e.Email, st.Email) {
			return domain.Conflict("store email or owner already in use")
		}
		if st.OwnerID != nil && e.OwnedBy(*st.OwnerID) {
			return domain.Conflict("store email or owner already in use")
		}
	}
	if st.ID == "" {
		st.ID = utils.NewID()
	}
	now := r.s.now()
	st.CreatedAt, st.UpdatedAt = now, now
	r.s.stores[st.ID] = *st
	return nil
}

func (r *StoreRepo) find(op string, pred func(domain.Store) bool) (*domain.Store, error) {
	if err := r.s.enter(op); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.stores {
		if pred(st) {
			return &st, nil
		}
	}
	return nil, nil
}

func (r *StoreRepo) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.find("find store", func(st domain.Store) bool { return st.ID == id })
}

func (r *StoreRepo) FindByOwnerID(ctx context.Context, ownerID string) (*domain.Store, error) {
	return r.find("find store", func(st domain.Store) bool { return st.OwnedBy(ownerID) })
}

func (r *StoreRepo) FindByEmail(ctx context.Context, email string) (*domain.Store, error) {
	return r.find("find store", func(st domain.Store) bool { return strings.EqualFold(st.Email, email) })
}

func (r *StoreRepo) Count(ctx context.Context) (int64, error) {
	if err := r.s.enter("count stores"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.stores)), nil
}

func (r *StoreRepo) List(ctx context.Context, q domain.ListQuery) ([]domain.StoreWithRatings, int64, error) {
	if err := r.s.enter("list stores"); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []domain.Store
	for _, st := range r.s.stores {
		if matches(q.Search, st.Name, st.Email, st.Address) {
			all = append(all, st)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	cur := page(all, q)
	out := make([]domain.StoreWithRatings, 0, len(cur))
	for _, st := range cur {
		row := domain.StoreWithRatings{Store: st, Ratings: []domain.Rating{}}
		if st.OwnerID != nil {
			if u, ok := r.s.users[*st.OwnerID]; ok {
				row.Owner = &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
			}
		}
		for _, rt := range r.s.ratings {
			if rt.StoreID == st.ID {
				row.Ratings = append(row.Ratings, rt)
			}
		}
		out = append(out, row)
	}
	return out, int64(len(all)), nil
}

// ---------- ratings ----------

type RatingRepo struct{ s *Store }

// Upsert 在同一把写锁内完成查找与写入
func (r *RatingRepo) Upsert(ctx context.Context, in *domain.Rating) (*domain.Rating, error) {
	if err := r.s.enter("upsert rating"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := [2]string{in.UserID, in.StoreID}
	now := r.s.now()
	cur, ok := r.s.ratings[key]
	if ok {
		cur.Value = in.Value
		cur.Comment = in.Comment
		cur.UpdatedAt = now
	} else {
		cur = domain.Rating{
			ID:        utils.NewID(),
			UserID:    in.UserID,
			StoreID:   in.StoreID,
			Value:     in.Value,
			Comment:   in.Comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	r.s.ratings[key] = cur
	return &cur, nil
}

func (r *RatingRepo) ListByStore(ctx context.Context, storeID string, limit int) ([]domain.Rating, error) {
	if err := r.s.enter("list ratings"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Rating{}
	for _, rt := range r.s.ratings {
		if rt.StoreID != storeID {
			continue
		}
		if u, ok := r.s.users[rt.UserID]; ok {
			rt.User = &domain.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RatingRepo) Count(ctx context.Context) (int64, error) {
	if err := r.s.enter("count ratings"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.ratings)), nil
}
