package router

import (
	"github.com/gin-gonic/gin"

	"store-rating-api/internal/domain"
	"store-rating-api/internal/transport/http/ez"
	mdw "store-rating-api/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps) *gin.Engine {
	r := baseEngine(d, "admin")

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1", mdw.AuthJWT(d.JWT, domain.RoleAdmin))
	if d.Modules != nil {
		d.Modules.MountAllAdmin(ez.New(admin, d.Log))
	}
	return r
}
