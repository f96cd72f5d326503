package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/domain"
	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/ez"
)

// Users 管理员的用户管理；/api/v1/user 与 /admin/v1/users 共用
type Users struct {
	Svc   *service.UserService
	Stats *service.DashboardService
}

func (h *Users) MountAPI(api ez.EZ)     { h.mount(api, "/user") }
func (h *Users) MountAdmin(admin ez.EZ) { h.mount(admin, "/users") }

func (h *Users) mount(g ez.EZ, path string) {
	ez.RegisterAction(g, ez.Action[domain.ListQuery, *service.UserList]{
		Method: http.MethodGet,
		Path:   path,
		Binder: ez.BindQuery,
		Op:     auth.OpListUsers,
		Handler: func(c *gin.Context, q *domain.ListQuery) (*service.UserList, error) {
			return h.Svc.List(c.Request.Context(), *q)
		},
	})

	ez.RegisterAction(g, ez.Action[service.CreateUserInput, *domain.User]{
		Method: http.MethodPost,
		Path:   path,
		Binder: ez.BindJSON,
		Op:     auth.OpCreateUser,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (*domain.User, error) {
			u, err := h.Svc.Create(c.Request.Context(), *in)
			if err == nil {
				h.Stats.InvalidateStats(c.Request.Context())
			}
			return u, err
		},
	})
}
