package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"store-rating-api/internal/core/logger"
)

const (
	KeyRequestID = "X-Request-ID"
	maxRIDLen    = 64
)

// validRID 只接受可安全写入日志和响应头的字符
func validRID(s string) bool {
	if s == "" || len(s) > maxRIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '-' || b == '_' || b == '.' || b == ':':
		default:
			return false
		}
	}
	return true
}

// RequestID 沿用合法的上游 ID，否则生成 uuid；同时写入 gin 上下文和 request ctx
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if !validRID(rid) {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}
