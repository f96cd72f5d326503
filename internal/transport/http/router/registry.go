package router

import (
	"sort"

	"store-rating-api/internal/transport/http/ez"
)

// APIModule 模块可选择实现其中一个或两个接口
type APIModule interface{ MountAPI(ez.EZ) }
type AdminModule interface{ MountAdmin(ez.EZ) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 每个进程装配一份，不用包级全局
type Registry struct {
	apiMods   []APIModule
	adminMods []AdminModule
}

// Register 根据类型断言分发到 API/Admin 列表
func (r *Registry) Register(mods ...any) *Registry {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.apiMods = append(r.apiMods, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.adminMods = append(r.adminMods, m)
		}
	}
	return r
}

// MountAllAPI 在 /api/v1 上挂载所有已注册的 API 模块
func (r *Registry) MountAllAPI(api ez.EZ) {
	mods := append([]APIModule(nil), r.apiMods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(api)
	}
}

// MountAllAdmin 在 /admin/v1 上挂载所有已注册的 Admin 模块
func (r *Registry) MountAllAdmin(admin ez.EZ) {
	mods := append([]AdminModule(nil), r.adminMods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
