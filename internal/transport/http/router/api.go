package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/core/server"
	"store-rating-api/internal/transport/http/ez"
	mdw "store-rating-api/internal/transport/http/middleware"
	resp "store-rating-api/internal/transport/http/response"
)

type Deps struct {
	Log          *zap.Logger
	JWT          *auth.JWTer
	Modules      *Registry
	AllowOrigins []string
	// Ready 可选的就绪检查（DB/redis ping），失败时 /health 返回 503
	Ready func(ctx context.Context) error
}

func baseEngine(d Deps, name string) *gin.Engine {
	r := server.NewRouter(d.Log, d.AllowOrigins)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(name),
		mdw.AccessLog(d.Log),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				resp.Abort(c, resp.CodeUnavailable, "not ready")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(mdw.MetricsHandler()))
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, resp.CodeNotFound, "route not found") })
	return r
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := baseEngine(d, "api")

	// /api/v1：token 可选解析，是否必须登录由各 action 声明
	api := r.Group("/api/v1", mdw.Authenticate(d.JWT))
	if d.Modules != nil {
		d.Modules.MountAllAPI(ez.New(api, d.Log))
	}
	return r
}
