package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/domain"
	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/ez"
)

type Stores struct {
	Svc   *service.StoreService
	Stats *service.DashboardService
}

func (h *Stores) MountAPI(api ez.EZ)     { h.mount(api) }
func (h *Stores) MountAdmin(admin ez.EZ) { h.mount(admin) }

func (h *Stores) mount(g ez.EZ) {
	ez.RegisterAction(g, ez.Action[domain.ListQuery, *service.StoreList]{
		Method: http.MethodGet,
		Path:   "/stores",
		Binder: ez.BindQuery,
		Op:     auth.OpBrowseStores,
		Handler: func(c *gin.Context, q *domain.ListQuery) (*service.StoreList, error) {
			return h.Svc.List(c.Request.Context(), auth.FromContext(c.Request.Context()), *q)
		},
	})

	ez.RegisterAction(g, ez.Action[service.CreateStoreInput, *domain.Store]{
		Method: http.MethodPost,
		Path:   "/stores",
		Binder: ez.BindJSON,
		Op:     auth.OpCreateStore,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.CreateStoreInput) (*domain.Store, error) {
			st, err := h.Svc.Create(c.Request.Context(), *in)
			if err == nil {
				h.Stats.InvalidateStats(c.Request.Context())
			}
			return st, err
		},
	})
}
