// Package ez 一行注册一个接口：绑定入参 -> 鉴权/策略 -> handler -> 统一响应。
package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/core/logger"
	"store-rating-api/internal/domain"
	mdw "store-rating-api/internal/transport/http/middleware"
	resp "store-rating-api/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

// Group 子分组，继承 logger
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string
	Binder  Binder
	Auth    bool           // 是否要求登录
	Op      auth.Operation // 非空时先按角色过策略表（隐含 Auth），通过后才进 handler
	Status  int            // 成功时的 HTTP 状态，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权 + 角色策略；不触达存储
		if a.Auth || a.Op != "" {
			claims, err := mdw.RequireClaims(c)
			if err != nil {
				e.Fail(c, err)
				return
			}
			if a.Op != "" {
				if err := auth.Authorize(claims.Role, a.Op, false); err != nil {
					e.Fail(c, err)
					return
				}
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			if mdw.IsBodyTooLarge(bindErr) {
				resp.Abort(c, resp.CodeTooLarge, "request body too large")
				return
			}
			e.Fail(c, domain.Validation("invalid request: "+bindErr.Error()))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

// StatusOf 错误分类 -> HTTP 状态
func StatusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return resp.CodeTimeout
	}
	switch domain.KindOf(err) {
	case domain.ErrUnauthenticated:
		return resp.CodeUnauthorized
	case domain.ErrForbidden, domain.ErrSelfRating:
		return resp.CodeForbidden
	case domain.ErrNotFound:
		return resp.CodeNotFound
	case domain.ErrConflict:
		return resp.CodeConflict
	case domain.ErrValidation:
		return resp.CodeBadRequest
	}
	return resp.CodeServerError
}

// Fail 统一错误响应；5xx 记录原始错误，客户端只看到通用文案
func (e EZ) Fail(c *gin.Context, err error) {
	code := StatusOf(err)
	msg := domain.PublicMessage(err)
	if code >= resp.CodeServerError {
		if code == resp.CodeTimeout {
			msg = "timeout"
		}
		e.log.Error("request failed",
			zap.String("rid", logger.RequestID(c.Request.Context())),
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	resp.Abort(c, code, msg)
}
