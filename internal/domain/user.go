package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
	RoleStoreOwner Role = "STORE_OWNER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary 对外展示的最小用户信息
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UserWithStore 管理端用户列表行（附带其名下门店）
type UserWithStore struct {
	User
	OwnedStore *StoreSummary `json:"ownedStore"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, q ListQuery) ([]UserWithStore, int64, error)
}
