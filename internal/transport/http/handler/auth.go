package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/domain"
	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/ez"
)

// Auth 注册 / 登录 / 改密 / 当前用户
type Auth struct {
	Svc     *service.AuthService
	Users   *service.UserService
	Stats   *service.DashboardService
	Limiter gin.HandlerFunc // 可选，/auth 分组的每 IP 限速
}

func (h *Auth) Priority() int { return 10 }

func (h *Auth) MountAPI(api ez.EZ) {
	var mw []gin.HandlerFunc
	if h.Limiter != nil {
		mw = append(mw, h.Limiter)
	}
	g := api.Group("/auth", mw...)

	ez.RegisterAction(g, ez.Action[service.RegisterInput, *service.Session]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*service.Session, error) {
			s, err := h.Svc.Register(c.Request.Context(), *in)
			if err == nil {
				h.Stats.InvalidateStats(c.Request.Context())
			}
			return s, err
		},
	})

	ez.RegisterAction(g, ez.Action[service.LoginInput, *service.Session]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (*service.Session, error) {
			return h.Svc.Login(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(g, ez.Action[service.UpdatePasswordInput, gin.H]{
		Method: http.MethodPut,
		Path:   "/update-password",
		Binder: ez.BindJSON,
		Op:     auth.OpUpdatePassword,
		Handler: func(c *gin.Context, in *service.UpdatePasswordInput) (gin.H, error) {
			claims := auth.FromContext(c.Request.Context())
			if err := h.Svc.UpdatePassword(c.Request.Context(), claims.ID, *in); err != nil {
				return nil, err
			}
			return gin.H{"message": "password updated"}, nil
		},
	})

	ez.RegisterAction(api, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Op:     auth.OpViewProfile,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.Users.Profile(c.Request.Context(), auth.FromContext(c.Request.Context()).ID)
		},
	})
}
