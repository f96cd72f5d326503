package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/domain"
	"store-rating-api/pkg/utils"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,strongpw"`
}

type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users   domain.UserRepository
	creator *UserService
	jwt     *auth.JWTer
	log     *zap.Logger
}

func NewAuthService(users domain.UserRepository, jwt *auth.JWTer, l *zap.Logger) *AuthService {
	return &AuthService{users: users, creator: NewUserService(users, l), jwt: jwt, log: l}
}

// Register 公开注册，角色固定为 USER
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u, err := s.creator.Create(ctx, CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Address:  in.Address,
		Role:     domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	if !utils.CheckPassword(in.Password, u.PasswordHash) {
		s.log.Info("login rejected", zap.String("user", u.ID))
		return nil, domain.Unauthenticated("invalid password")
	}
	return s.session(u)
}

// UpdatePassword 需校验旧口令；新旧口令不能相同
func (s *AuthService) UpdatePassword(ctx context.Context, userID string, in UpdatePasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.CurrentPassword == in.NewPassword {
		return domain.Validation("new password must differ from current password")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("user not found")
	}
	if !utils.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return domain.Unauthenticated("current password is incorrect")
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return domain.Persistence("hash password", err)
	}
	return s.users.UpdatePasswordHash(ctx, u.ID, hash)
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	tok, err := s.jwt.Issue(u)
	if err != nil {
		return nil, domain.Persistence("issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}
