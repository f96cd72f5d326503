package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/ez"
)

type Ratings struct {
	Svc   *service.RatingService
	Stats *service.DashboardService
}

func (h *Ratings) MountAPI(api ez.EZ) {
	// 自评（店主给自己门店打分）在 service 内按门店归属判定
	ez.RegisterAction(api, ez.Action[service.SubmitRatingInput, *service.RatingView]{
		Method: http.MethodPost,
		Path:   "/ratings",
		Binder: ez.BindJSON,
		Op:     auth.OpSubmitRating,
		Handler: func(c *gin.Context, in *service.SubmitRatingInput) (*service.RatingView, error) {
			v, err := h.Svc.Submit(c.Request.Context(), auth.FromContext(c.Request.Context()), *in)
			if err == nil {
				h.Stats.InvalidateStats(c.Request.Context())
			}
			return v, err
		},
	})
}
