package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"store-rating-api/internal/core/cache"
	"store-rating-api/internal/core/logger"
	"store-rating-api/internal/domain"
)

const (
	statsCacheKey = "dashboard:stats"
	recentRatings = 10
)

type Stats struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}

type OwnerStore struct {
	domain.Store
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

type OwnerDashboard struct {
	Store         OwnerStore      `json:"store"`
	RecentRatings []domain.Rating `json:"recentRatings"`
}

type DashboardService struct {
	users    domain.UserRepository
	stores   domain.StoreRepository
	ratings  domain.RatingRepository
	cache    *cache.Cache
	statsTTL time.Duration
	log      *zap.Logger
}

// NewDashboardService c 为 nil 或 statsTTL<=0 时每次直接计数
func NewDashboardService(users domain.UserRepository, stores domain.StoreRepository, ratings domain.RatingRepository,
	c *cache.Cache, statsTTL time.Duration, l *zap.Logger) *DashboardService {
	return &DashboardService{users: users, stores: stores, ratings: ratings, cache: c, statsTTL: statsTTL, log: l}
}

// Stats 三项计数；任一计数失败整体失败，不返回 0
func (s *DashboardService) Stats(ctx context.Context) (*Stats, error) {
	if s.cache == nil || s.statsTTL <= 0 {
		return s.countAll(ctx)
	}
	gen, err := s.cache.Generation(ctx, statsCacheKey)
	if err != nil {
		logger.For(ctx, s.log).Warn("dashboard: stats generation", zap.Error(err))
		return s.countAll(ctx)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, cache.VersionedKey(statsCacheKey, gen), s.statsTTL, s.countAll)
}

func (s *DashboardService) countAll(ctx context.Context) (*Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.TotalUsers, err = s.users.Count(gctx); return })
	g.Go(func() (err error) { st.TotalStores, err = s.stores.Count(gctx); return })
	g.Go(func() (err error) { st.TotalRatings, err = s.ratings.Count(gctx); return })
	if err := g.Wait(); err != nil {
		logger.For(ctx, s.log).Error("dashboard: count failed", zap.Error(err))
		return nil, err
	}
	return &st, nil
}

// InvalidateStats 写操作后调用，推进代号使之后的读取换新 key；缓存不可用时忽略
func (s *DashboardService) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, statsCacheKey); err != nil {
		logger.For(ctx, s.log).Warn("dashboard: invalidate stats", zap.Error(err))
	}
}

// OwnerDashboard 店主名下门店的评分概览
func (s *DashboardService) OwnerDashboard(ctx context.Context, ownerID string) (*OwnerDashboard, error) {
	st, err := s.stores.FindByOwnerID(ctx, ownerID)
	if err != nil {
		logger.For(ctx, s.log).Error("dashboard: find owner store", zap.String("owner", ownerID), zap.Error(err))
		return nil, err
	}
	if st == nil {
		return nil, domain.NotFound("no store found for this user")
	}

	all, err := s.ratings.ListByStore(ctx, st.ID, 0)
	if err != nil {
		logger.For(ctx, s.log).Error("dashboard: list ratings", zap.String("store", st.ID), zap.Error(err))
		return nil, err
	}
	agg := AggregateStore(all, "")
	recent := all
	if len(recent) > recentRatings {
		recent = recent[:recentRatings]
	}
	return &OwnerDashboard{
		Store:         OwnerStore{Store: *st, AverageRating: agg.OverallRating, TotalRatings: agg.TotalRatings},
		RecentRatings: recent,
	}, nil
}
