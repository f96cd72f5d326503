package user

import (
	"time"

	"store-rating-api/internal/domain"
)

type UserModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:60;not null"`
	Address      string `gorm:"size:400;not null;default:''"`
	PasswordHash string `gorm:"size:100;not null"`
	Role         string `gorm:"size:16;not null;default:USER;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Address:      m.Address,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (m *UserModel) Summary() *domain.UserSummary {
	if m == nil || m.ID == "" {
		return nil
	}
	return &domain.UserSummary{ID: m.ID, Name: m.Name, Email: m.Email}
}

func FromDomain(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Address:      u.Address,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
