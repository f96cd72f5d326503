package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"store-rating-api/internal/domain"
	"store-rating-api/pkg/utils"
)

type CreateUserInput struct {
	Name     string      `json:"name"     validate:"required,min=20,max=60"`
	Email    string      `json:"email"    validate:"required,email"`
	Password string      `json:"password" validate:"required,strongpw"`
	Address  string      `json:"address"  validate:"max=400"`
	Role     domain.Role `json:"role"     validate:"required,role"`
}

type UserList struct {
	Users      []domain.UserWithStore `json:"users"`
	Pagination domain.Pagination      `json:"pagination"`
}

type UserService struct {
	users domain.UserRepository
	log   *zap.Logger
}

func NewUserService(users domain.UserRepository, l *zap.Logger) *UserService {
	return &UserService{users: users, log: l}
}

// Create 管理员建号，可指定任意角色
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	dup, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, domain.Conflict("user with this email already exists")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Persistence("hash password", err)
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Address:      in.Address,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *UserService) List(ctx context.Context, q domain.ListQuery) (*UserList, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	rows, total, err := s.users.List(ctx, q)
	if err != nil {
		s.log.Error("user: list failed", zap.Error(err))
		return nil, err
	}
	if rows == nil {
		rows = []domain.UserWithStore{}
	}
	return &UserList{Users: rows, Pagination: domain.NewPagination(q, total)}, nil
}

// Profile 当前用户资料；账号已被删除时返回 NotFound
func (s *UserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}
