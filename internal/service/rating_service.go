package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/core/logger"
	"store-rating-api/internal/domain"
)

type SubmitRatingInput struct {
	StoreID string  `json:"storeId" validate:"required"`
	Value   int     `json:"value"   validate:"min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

type RatingView struct {
	domain.Rating
	Store domain.StoreSummary `json:"store"`
}

type RatingService struct {
	users   domain.UserRepository
	stores  domain.StoreRepository
	ratings domain.RatingRepository
	log     *zap.Logger
}

func NewRatingService(users domain.UserRepository, stores domain.StoreRepository, ratings domain.RatingRepository, l *zap.Logger) *RatingService {
	return &RatingService{users: users, stores: stores, ratings: ratings, log: l}
}

// Submit 创建或覆盖 actor 对门店的唯一评分
func (s *RatingService) Submit(ctx context.Context, actor *auth.Claims, in SubmitRatingInput) (*RatingView, error) {
	if actor == nil {
		return nil, domain.Unauthenticated("unauthorized")
	}
	in.StoreID = strings.TrimSpace(in.StoreID)
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		if c == "" {
			in.Comment = nil
		} else {
			in.Comment = &c
		}
	}
	if err := validateStruct(in); err != nil {
		ratingSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	st, err := s.stores.FindByID(ctx, in.StoreID)
	if err != nil {
		return nil, s.fail(ctx, "find store", err)
	}
	if st == nil {
		ratingSubmissions.WithLabelValues("not_found").Inc()
		return nil, domain.NotFound("store not found")
	}
	if err := auth.Authorize(actor.Role, auth.OpSubmitRating, st.OwnedBy(actor.ID)); err != nil {
		if errors.Is(err, domain.ErrSelfRating) {
			ratingSubmissions.WithLabelValues("self_rating").Inc()
		}
		return nil, err
	}

	r, err := s.ratings.Upsert(ctx, &domain.Rating{
		UserID:  actor.ID,
		StoreID: st.ID,
		Value:   in.Value,
		Comment: in.Comment,
	})
	if err != nil {
		return nil, s.fail(ctx, "upsert rating", err)
	}
	ratingSubmissions.WithLabelValues("ok").Inc()

	r.User = &domain.UserSummary{ID: actor.ID}
	if u, err := s.users.FindByID(ctx, actor.ID); err != nil {
		return nil, s.fail(ctx, "find user", err)
	} else if u != nil {
		r.User.Name = u.Name
	}
	return &RatingView{Rating: *r, Store: domain.StoreSummary{ID: st.ID, Name: st.Name}}, nil
}

func (s *RatingService) fail(ctx context.Context, op string, err error) error {
	ratingSubmissions.WithLabelValues("error").Inc()
	logger.For(ctx, s.log).Error("rating: persistence failure", zap.String("op", op), zap.Error(err))
	return err
}
