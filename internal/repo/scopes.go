package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"store-rating-api/internal/domain"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchScope 大小写不敏感子串匹配 name/email/address
func searchScope(search string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if search == "" {
			return q
		}
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		return q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(address) LIKE ?", like, like, like)
	}
}

func pageScope(q domain.ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(q.Offset()).Limit(q.Limit)
	}
}

// isDupKey 不依赖 gorm.ErrDuplicatedKey（需要 TranslateError），按驱动错误文本判断
func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
