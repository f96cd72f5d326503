package router

import (
	"github.com/gin-gonic/gin"

	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/handler"
)

// Modules 全部业务模块；authLimiter 可为 nil
func Modules(s *service.Set, authLimiter gin.HandlerFunc) *Registry {
	return new(Registry).Register(
		&handler.Auth{Svc: s.Auth, Users: s.Users, Stats: s.Dashboard, Limiter: authLimiter},
		&handler.Users{Svc: s.Users, Stats: s.Dashboard},
		&handler.Stores{Svc: s.Stores, Stats: s.Dashboard},
		&handler.Ratings{Svc: s.Ratings, Stats: s.Dashboard},
		&handler.Dashboard{Svc: s.Dashboard},
	)
}
