package service

import (
	"math"

	"store-rating-api/internal/domain"
)

// Aggregate 门店评分聚合；TotalRatings=0 时 OverallRating 固定为 0，
// 调用方以 TotalRatings 判断“暂无评分”
type Aggregate struct {
	OverallRating float64 `json:"overallRating"`
	TotalRatings  int     `json:"totalRatings"`
	UserRating    *int    `json:"userRating"`
}

// AggregateStore 所有展示门店评分的入口都必须走这里，保证同样输入得到同样数字。
// viewerID 为空表示匿名。
func AggregateStore(ratings []domain.Rating, viewerID string) Aggregate {
	agg := Aggregate{TotalRatings: len(ratings)}
	sum := 0
	for i := range ratings {
		sum += ratings[i].Value
		if viewerID != "" && ratings[i].UserID == viewerID {
			v := ratings[i].Value
			agg.UserRating = &v
		}
	}
	if agg.TotalRatings > 0 {
		agg.OverallRating = roundMean(sum, agg.TotalRatings)
	}
	return agg
}

// roundMean 一位小数，四舍五入（half away from zero）。
// 用 sum*10/n 而不是 (sum/n)*10，避免 x.x5 边界上的浮点误差。
func roundMean(sum, n int) float64 {
	return math.Round(float64(sum*10)/float64(n)) / 10
}
