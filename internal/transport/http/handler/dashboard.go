package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/ez"
)

type Dashboard struct {
	Svc *service.DashboardService
}

func (h *Dashboard) MountAPI(api ez.EZ) {
	d := api.Group("/dashboard")
	h.stats(d, "/stats")

	ez.RegisterAction(d, ez.Action[struct{}, *service.OwnerDashboard]{
		Method: http.MethodGet,
		Path:   "/store-owner",
		Binder: ez.BindNone,
		Op:     auth.OpOwnerDashboard,
		Handler: func(c *gin.Context, _ *struct{}) (*service.OwnerDashboard, error) {
			return h.Svc.OwnerDashboard(c.Request.Context(), auth.FromContext(c.Request.Context()).ID)
		},
	})
}

func (h *Dashboard) MountAdmin(admin ez.EZ) { h.stats(admin, "/stats") }

func (h *Dashboard) stats(g ez.EZ, path string) {
	ez.RegisterAction(g, ez.Action[struct{}, *service.Stats]{
		Method: http.MethodGet,
		Path:   path,
		Binder: ez.BindNone,
		Op:     auth.OpDashboardStats,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Stats, error) {
			return h.Svc.Stats(c.Request.Context())
		},
	})
}
