package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/domain"
	resp "store-rating-api/internal/transport/http/response"
)

const (
	KeyClaims  = "claims"
	keyAuthErr = "authErr"
)

func bearer(c *gin.Context) (string, bool) {
	ah := c.GetHeader("Authorization")
	if len(ah) < 7 || !strings.EqualFold(ah[:7], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(ah[7:])
	return tok, tok != ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(KeyClaims, claims)
	c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
}

// Authenticate 有 token 就解析；是否必须登录由具体 action 决定
func Authenticate(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		tok, ok := bearer(c)
		if !ok {
			c.Set(keyAuthErr, "missing token")
			c.Next()
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			c.Set(keyAuthErr, "invalid token")
			c.Next()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AuthJWT 整组强制登录；requireRole 非空时限定角色
func AuthJWT(j *auth.JWTer, requireRole domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c)
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireClaims 取当前登录身份，未登录返回 Unauthenticated
func RequireClaims(c *gin.Context) (*auth.Claims, error) {
	if claims := auth.FromContext(c.Request.Context()); claims != nil {
		return claims, nil
	}
	if msg := c.GetString(keyAuthErr); msg != "" {
		return nil, domain.Unauthenticated(msg)
	}
	return nil, domain.Unauthenticated("missing token")
}
