package domain

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage 保证 (MaxPage-1)*MaxLimit 在 32 位 int 内不溢出
	MaxPage = 1 << 20
)

// ListQuery 列表查询的全部可识别参数；进入存储层前必须 Normalize
type ListQuery struct {
	Search string `form:"search" json:"search"`
	Role   Role   `form:"role"   json:"role"`
	Page   int    `form:"page"   json:"page"`
	Limit  int    `form:"limit"  json:"limit"`
}

// Normalize 填默认值并校验 role；limit 超过 MaxLimit 时截断为 MaxLimit，page 超过 MaxPage 报错
func (q ListQuery) Normalize() (ListQuery, error) {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > MaxPage {
		return q, Validation("page out of range")
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Role != "" && !q.Role.Valid() {
		return q, Validation("unknown role " + string(q.Role))
	}
	return q, nil
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Limit }

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(q ListQuery, total int64) Pagination {
	limit := int64(q.Limit)
	pages := int64(0)
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, Pages: pages}
}
