package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/core/cache"
	"store-rating-api/internal/domain"
	"store-rating-api/internal/repo/memory"
	"store-rating-api/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.HashCost = 4
	os.Exit(m.Run())
}

type fixture struct {
	mem       *memory.Store
	users     *UserService
	stores    *StoreService
	ratings   *RatingService
	dashboard *DashboardService
	auth      *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	mem.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	l := zap.NewNop()
	return &fixture{
		mem:       mem,
		users:     NewUserService(mem.Users(), l),
		stores:    NewStoreService(mem.Users(), mem.Stores(), l),
		ratings:   NewRatingService(mem.Users(), mem.Stores(), mem.Ratings(), l),
		dashboard: NewDashboardService(mem.Users(), mem.Stores(), mem.Ratings(), nil, 0, l),
		auth:      NewAuthService(mem.Users(), auth.NewJWTer("test-secret", "store-rating"), l),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *auth.Claims {
	t.Helper()
	u, err := f.users.Create(context.Background(), CreateUserInput{
		Name: "Test Account Holder " + email, Email: email, Password: "Passw0rd!", Role: role,
	})
	require.NoError(t, err)
	return &auth.Claims{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) store(t *testing.T, email string, ownerID string) *domain.Store {
	t.Helper()
	st, err := f.stores.Create(context.Background(), CreateStoreInput{
		Name: "Neighbourhood Grocery " + email, Email: email, Address: "1 Main St", OwnerID: ownerID,
	})
	require.NoError(t, err)
	return st
}

func ptr[T any](v T) *T { return &v }

// ---------- aggregation ----------

func TestAggregateStore(t *testing.T) {
	rs := func(vals ...int) []domain.Rating {
		out := make([]domain.Rating, len(vals))
		for i, v := range vals {
			out[i] = domain.Rating{UserID: fmt.Sprintf("u%d", i), Value: v}
		}
		return out
	}

	agg := AggregateStore(rs(5, 5, 5, 4), "u3")
	assert.Equal(t, 4.8, agg.OverallRating)
	assert.Equal(t, 4, agg.TotalRatings)
	require.NotNil(t, agg.UserRating)
	assert.Equal(t, 4, *agg.UserRating)

	agg = AggregateStore(nil, "u0")
	assert.Equal(t, 0.0, agg.OverallRating)
	assert.Equal(t, 0, agg.TotalRatings)
	assert.Nil(t, agg.UserRating)

	assert.Equal(t, 2.3, AggregateStore(rs(2, 2, 3), "").OverallRating)
	assert.Equal(t, 3.5, AggregateStore(rs(3, 4), "").OverallRating)
	assert.Nil(t, AggregateStore(rs(3, 4), "").UserRating)
}

func TestRoundMeanHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 4.9, roundMean(97, 20))
	assert.Equal(t, 1.0, roundMean(1, 1))
	assert.Equal(t, 2.7, roundMean(8, 3))
}

// ---------- rating engine ----------

func TestSubmitRating_CreateThenOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rater := f.user(t, "rater@example.com", domain.RoleUser)
	st := f.store(t, "shop@example.com", "")

	first, err := f.ratings.Submit(ctx, rater, SubmitRatingInput{StoreID: st.ID, Value: 3})
	require.NoError(t, err)
	assert.Equal(t, st.ID, first.Store.ID)
	assert.Equal(t, st.Name, first.Store.Name)
	require.NotNil(t, first.User)
	assert.Equal(t, "Test Account Holder rater@example.com", first.User.Name)

	second, err := f.ratings.Submit(ctx, rater, SubmitRatingInput{StoreID: st.ID, Value: 5, Comment: ptr("  great  ")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Value)
	assert.Equal(t, "great", *second.Comment)

	n, err := f.mem.Ratings().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSubmitRating_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", domain.RoleStoreOwner)
	other := f.user(t, "other@example.com", domain.RoleStoreOwner)
	admin := f.user(t, "admin@example.com", domain.RoleAdmin)
	st := f.store(t, "owned@example.com", owner.ID)

	cases := []struct {
		name  string
		actor *auth.Claims
		in    SubmitRatingInput
		kind  error
	}{
		{"value too low", other, SubmitRatingInput{StoreID: st.ID, Value: 0}, domain.ErrValidation},
		{"value too high", other, SubmitRatingInput{StoreID: st.ID, Value: 6}, domain.ErrValidation},
		{"missing store id", other, SubmitRatingInput{Value: 3}, domain.ErrValidation},
		{"comment too long", other, SubmitRatingInput{StoreID: st.ID, Value: 3, Comment: ptr(string(make([]byte, 501)) + "x")}, domain.ErrValidation},
		{"unknown store", other, SubmitRatingInput{StoreID: "nope", Value: 3}, domain.ErrNotFound},
		{"own store", owner, SubmitRatingInput{StoreID: st.ID, Value: 5}, domain.ErrSelfRating},
		{"anonymous", nil, SubmitRatingInput{StoreID: st.ID, Value: 5}, domain.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ratings.Submit(ctx, tc.actor, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}

	// 非本店店主与管理员均可打分
	_, err := f.ratings.Submit(ctx, other, SubmitRatingInput{StoreID: st.ID, Value: 4})
	assert.NoError(t, err)
	_, err = f.ratings.Submit(ctx, admin, SubmitRatingInput{StoreID: st.ID, Value: 2})
	assert.NoError(t, err)

	n, err := f.mem.Ratings().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSubmitRating_PersistenceFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	rater := f.user(t, "rater@example.com", domain.RoleUser)
	st := f.store(t, "shop@example.com", "")

	f.mem.Fail = errors.New("db down")
	_, err := f.ratings.Submit(context.Background(), rater, SubmitRatingInput{StoreID: st.ID, Value: 3})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

// ---------- store registry ----------

func TestCreateStore_PreconditionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plain := f.user(t, "plain@example.com", domain.RoleUser)
	owner := f.user(t, "owner@example.com", domain.RoleStoreOwner)
	f.store(t, "taken@example.com", owner.ID)
	free := f.user(t, "free@example.com", domain.RoleStoreOwner)

	in := func(email, ownerID string) CreateStoreInput {
		return CreateStoreInput{Name: "A Perfectly Long Store Name", Email: email, OwnerID: ownerID}
	}

	_, err := f.stores.Create(ctx, in("new@example.com", "ghost"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.stores.Create(ctx, in("new@example.com", plain.ID))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.stores.Create(ctx, in(" TAKEN@example.com ", free.ID))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.stores.Create(ctx, in("new@example.com", owner.ID))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.stores.Create(ctx, CreateStoreInput{Name: "short", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	st, err := f.stores.Create(ctx, in("NEW@Example.com", free.ID))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", st.Email)
	assert.True(t, st.OwnedBy(free.ID))
}

func TestListStores_AggregatesPerViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com", domain.RoleUser)
	b := f.user(t, "b@example.com", domain.RoleUser)
	st := f.store(t, "rated@example.com", "")
	f.store(t, "unrated@example.com", "")

	_, err := f.ratings.Submit(ctx, a, SubmitRatingInput{StoreID: st.ID, Value: 5})
	require.NoError(t, err)
	_, err = f.ratings.Submit(ctx, b, SubmitRatingInput{StoreID: st.ID, Value: 4})
	require.NoError(t, err)

	list, err := f.stores.List(ctx, a, domain.ListQuery{Search: "rated@"})
	require.NoError(t, err)
	require.Len(t, list.Stores, 2)
	assert.Equal(t, int64(2), list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.Page)
	assert.Equal(t, 10, list.Pagination.Limit)

	byEmail := map[string]StoreListItem{}
	for _, s := range list.Stores {
		byEmail[s.Email] = s
	}
	rated := byEmail["rated@example.com"]
	assert.Equal(t, 4.5, rated.OverallRating)
	assert.Equal(t, 2, rated.TotalRatings)
	require.NotNil(t, rated.UserRating)
	assert.Equal(t, 5, *rated.UserRating)

	unrated := byEmail["unrated@example.com"]
	assert.Equal(t, 0.0, unrated.OverallRating)
	assert.Equal(t, 0, unrated.TotalRatings)
	assert.Nil(t, unrated.UserRating)

	anon, err := f.stores.List(ctx, nil, domain.ListQuery{Search: "rated@example.com", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, anon.Stores, 1)
	assert.Equal(t, int64(2), anon.Pagination.Pages)
}

func TestListStores_BadRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.stores.List(context.Background(), nil, domain.ListQuery{Role: "ROOT"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListStores_PageBoundAndLimitClamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store(t, "s@example.com", "")

	_, err := f.stores.List(ctx, nil, domain.ListQuery{Page: 922337203685477582, Limit: 10})
	assert.ErrorIs(t, err, domain.ErrValidation)

	res, err := f.stores.List(ctx, nil, domain.ListQuery{Limit: 200})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxLimit, res.Pagination.Limit)
	assert.Len(t, res.Stores, 1)
}

// ---------- dashboards ----------

func TestStats_CountsAndFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@example.com", domain.RoleUser)
	st := f.store(t, "s@example.com", "")
	_, err := f.ratings.Submit(ctx, u, SubmitRatingInput{StoreID: st.ID, Value: 2})
	require.NoError(t, err)

	stats, err := f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalUsers: 1, TotalStores: 1, TotalRatings: 1}, *stats)

	f.mem.Fail = errors.New("db down")
	stats, err = f.dashboard.Stats(ctx)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Nil(t, stats)
}

func TestStats_ThroughPassThroughCache(t *testing.T) {
	f := newFixture(t)
	f.dashboard = NewDashboardService(f.mem.Users(), f.mem.Stores(), f.mem.Ratings(), cache.New("", "", 0), time.Minute, zap.NewNop())
	f.user(t, "u@example.com", domain.RoleUser)

	stats, err := f.dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
	f.dashboard.InvalidateStats(context.Background())
}

type kvStub struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (k *kvStub) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if b, ok := k.m[key]; ok {
		return b, nil
	}
	return nil, redis.Nil
}

func (k *kvStub) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = val
	return nil
}

func (k *kvStub) Del(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.m, key)
	}
	return nil
}

func (k *kvStub) Incr(_ context.Context, key string) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	n, _ := strconv.ParseInt(string(k.m[key]), 10, 64)
	n++
	k.m[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func TestStats_CachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dashboard = NewDashboardService(f.mem.Users(), f.mem.Stores(), f.mem.Ratings(),
		cache.NewWithKV(&kvStub{m: map[string][]byte{}}), time.Minute, zap.NewNop())
	f.user(t, "a@example.com", domain.RoleUser)

	stats, err := f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)

	f.user(t, "b@example.com", domain.RoleUser)
	stats, err = f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers, "served from cache")

	f.dashboard.InvalidateStats(ctx)
	stats, err = f.dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
}

func TestOwnerDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", domain.RoleStoreOwner)
	st := f.store(t, "mine@example.com", owner.ID)

	for i := 0; i < 15; i++ {
		rater := f.user(t, fmt.Sprintf("r%02d@example.com", i), domain.RoleUser)
		_, err := f.ratings.Submit(ctx, rater, SubmitRatingInput{StoreID: st.ID, Value: i%5 + 1})
		require.NoError(t, err)
	}

	d, err := f.dashboard.OwnerDashboard(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, d.Store.ID)
	assert.Equal(t, 15, d.Store.TotalRatings)
	assert.Equal(t, 3.0, d.Store.AverageRating)
	require.Len(t, d.RecentRatings, 10)
	for i := 1; i < len(d.RecentRatings); i++ {
		assert.False(t, d.RecentRatings[i].CreatedAt.After(d.RecentRatings[i-1].CreatedAt))
	}
	require.NotNil(t, d.RecentRatings[0].User)
	assert.Equal(t, "r14@example.com", d.RecentRatings[0].User.Email)
}

func TestOwnerDashboard_NoStore(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", domain.RoleStoreOwner)
	_, err := f.dashboard.OwnerDashboard(context.Background(), owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOwnerDashboard_EmptyStore(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", domain.RoleStoreOwner)
	f.store(t, "quiet@example.com", owner.ID)

	d, err := f.dashboard.OwnerDashboard(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.Store.AverageRating)
	assert.Equal(t, 0, d.Store.TotalRatings)
	assert.Empty(t, d.RecentRatings)
}

// ---------- users & auth ----------

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := CreateUserInput{Name: "Someone With A Long Name", Email: "x@example.com", Password: "Passw0rd!", Role: domain.RoleUser}

	bad := valid
	bad.Password = "password"
	_, err := f.users.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = valid
	bad.Role = "ROOT"
	_, err = f.users.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = valid
	bad.Email = "not-an-email"
	_, err = f.users.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	u, err := f.users.Create(ctx, valid)
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", u.PasswordHash)

	_, err = f.users.Create(ctx, valid)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterLoginAndPasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.auth.Register(ctx, RegisterInput{
		Name: "Registered Member Person", Email: "Member@Example.com", Password: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, sess.User.Role)
	assert.Equal(t, "member@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.Token)

	_, err = f.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.auth.Login(ctx, LoginInput{Email: "member@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	got, err := f.auth.Login(ctx, LoginInput{Email: "MEMBER@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, got.User.ID)

	err = f.auth.UpdatePassword(ctx, got.User.ID, UpdatePasswordInput{CurrentPassword: "Passw0rd!", NewPassword: "Passw0rd!"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = f.auth.UpdatePassword(ctx, got.User.ID, UpdatePasswordInput{CurrentPassword: "nope", NewPassword: "N3wPassw0rd!"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.NoError(t, f.auth.UpdatePassword(ctx, got.User.ID, UpdatePasswordInput{CurrentPassword: "Passw0rd!", NewPassword: "N3wPassw0rd!"}))

	_, err = f.auth.Login(ctx, LoginInput{Email: "member@example.com", Password: "N3wPassw0rd!"})
	assert.NoError(t, err)
}

func TestListUsers_FilterByRole(t *testing.T) {
	f := newFixture(t)
	f.user(t, "a@example.com", domain.RoleUser)
	f.user(t, "b@example.com", domain.RoleStoreOwner)
	f.user(t, "c@example.com", domain.RoleAdmin)

	list, err := f.users.List(context.Background(), domain.ListQuery{Role: domain.RoleStoreOwner})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "b@example.com", list.Users[0].Email)
	assert.Equal(t, int64(1), list.Pagination.Total)
}
