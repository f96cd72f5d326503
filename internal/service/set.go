package service

import (
	"time"

	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/core/cache"
	"store-rating-api/internal/domain"
)

type Repos struct {
	Users   domain.UserRepository
	Stores  domain.StoreRepository
	Ratings domain.RatingRepository
}

// Set 进程内全部 service，mains 与路由测试共用同一装配
type Set struct {
	Auth      *AuthService
	Users     *UserService
	Stores    *StoreService
	Ratings   *RatingService
	Dashboard *DashboardService
}

func NewSet(r Repos, jwt *auth.JWTer, c *cache.Cache, statsTTL time.Duration, l *zap.Logger) *Set {
	return &Set{
		Auth:      NewAuthService(r.Users, jwt, l),
		Users:     NewUserService(r.Users, l),
		Stores:    NewStoreService(r.Users, r.Stores, l),
		Ratings:   NewRatingService(r.Users, r.Stores, r.Ratings, l),
		Dashboard: NewDashboardService(r.Users, r.Stores, r.Ratings, c, statsTTL, l),
	}
}
