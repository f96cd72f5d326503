package auth

import (
	"store-rating-api/internal/domain"
)

type Operation string

const (
	OpListUsers      Operation = "users.list"
	OpCreateUser     Operation = "users.create"
	OpCreateStore    Operation = "stores.create"
	OpDashboardStats Operation = "dashboard.stats"
	OpOwnerDashboard Operation = "dashboard.owner"
	OpBrowseStores   Operation = "stores.browse"
	OpSubmitRating   Operation = "ratings.submit"
	OpUpdatePassword Operation = "password.update"
	OpViewProfile    Operation = "profile.view"
)

var policy = map[Operation]map[domain.Role]bool{
	OpListUsers:      {domain.RoleAdmin: true},
	OpCreateUser:     {domain.RoleAdmin: true},
	OpCreateStore:    {domain.RoleAdmin: true},
	OpDashboardStats: {domain.RoleAdmin: true},
	OpOwnerDashboard: {domain.RoleStoreOwner: true},
	OpBrowseStores:   {domain.RoleAdmin: true, domain.RoleStoreOwner: true, domain.RoleUser: true},
	OpSubmitRating:   {domain.RoleAdmin: true, domain.RoleStoreOwner: true, domain.RoleUser: true},
	OpUpdatePassword: {domain.RoleAdmin: true, domain.RoleStoreOwner: true, domain.RoleUser: true},
	OpViewProfile:    {domain.RoleAdmin: true, domain.RoleStoreOwner: true, domain.RoleUser: true},
}

// Authorize 纯函数：(角色, 是否拥有目标资源, 操作) -> nil / Forbidden。
// 不访问存储；ownsResource 由调用方提供。
func Authorize(role domain.Role, op Operation, ownsResource bool) error {
	if !policy[op][role] {
		return domain.Forbidden("access denied")
	}
	if op == OpSubmitRating && ownsResource {
		return domain.SelfRating()
	}
	return nil
}
